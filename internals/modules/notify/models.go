package notify

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelChat      Channel = "chat"
	ChannelPager     Channel = "pager"
	ChannelMessaging Channel = "messaging"
	ChannelTicket    Channel = "ticket"
)

type EventKind string

const (
	EventDown      EventKind = "incident.down"
	EventRecovered EventKind = "incident.recovered"
)

// Event is the normalized payload every channel sender receives. The
// engine publishes it to the broker; the consumer hands it to the
// dispatcher unchanged.
type Event struct {
	Kind            EventKind `json:"kind"`
	IncidentID      uuid.UUID `json:"incident_id"`
	MonitorID       uuid.UUID `json:"monitor_id"`
	AccountID       uuid.UUID `json:"account_id"`
	MonitorName     string    `json:"monitor_name"`
	Target          string    `json:"target"`
	RegionsAffected []string  `json:"regions_affected"`
	StatusCode      int       `json:"status_code,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Downtime is how long the incident lasted, meaningful only on
// recovery events.
func (e Event) Downtime() time.Duration {
	return e.OccurredAt.Sub(e.StartedAt)
}

// Settings is the per-account channel configuration bag, stored as
// JSONB on the account row. Every channel is optional and validated
// on its own; an absent or incomplete channel is skipped at dispatch.
type Settings struct {
	Email     *EmailSettings     `json:"email,omitempty"`
	Chat      *ChatSettings      `json:"chat,omitempty"`
	Pager     *PagerSettings     `json:"pager,omitempty"`
	Messaging *MessagingSettings `json:"messaging,omitempty"`
	Ticket    *TicketSettings    `json:"ticket,omitempty"`
}

type EmailSettings struct {
	Recipients []string `json:"recipients" validate:"omitempty,min=1,dive,email"`
}

func (s *EmailSettings) Configured() bool {
	return s != nil && len(s.Recipients) > 0
}

type ChatSettings struct {
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
}

func (s *ChatSettings) Configured() bool {
	return s != nil && s.WebhookURL != ""
}

type PagerSettings struct {
	RoutingKey string `json:"routing_key"`
}

func (s *PagerSettings) Configured() bool {
	return s != nil && s.RoutingKey != ""
}

type MessagingSettings struct {
	From string   `json:"from"`
	To   []string `json:"to" validate:"omitempty,min=1"`
}

func (s *MessagingSettings) Configured() bool {
	return s != nil && s.From != "" && len(s.To) > 0
}

type TicketSettings struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Token string `json:"token"`
}

func (s *TicketSettings) Configured() bool {
	return s != nil && s.Owner != "" && s.Repo != "" && s.Token != ""
}

// Outcome is the per-channel dispatch result. A failed provider is
// data here, never an error that stops the other channels.
type Outcome struct {
	Channel Channel `json:"channel"`
	OK      bool    `json:"ok"`
	Handle  string  `json:"handle,omitempty"`
	Err     string  `json:"err,omitempty"`
}
