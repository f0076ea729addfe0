package notify

import (
	"context"
	"net/http"
)

// MessagingSender pushes short SMS/WhatsApp texts through a messaging
// provider. Stateless on the provider side, no correlation handle.
type MessagingSender struct {
	endpoint string
	client   *http.Client
}

func NewMessagingSender(endpoint string, client *http.Client) *MessagingSender {
	return &MessagingSender{endpoint: endpoint, client: client}
}

func (s *MessagingSender) Channel() Channel { return ChannelMessaging }

func (s *MessagingSender) Configured(set Settings) bool {
	return s.endpoint != "" && set.Messaging.Configured()
}

type messagingPayload struct {
	From string   `json:"from"`
	To   []string `json:"to"`
	Body string   `json:"body"`
}

func (s *MessagingSender) SendDown(ctx context.Context, set Settings, ev Event) (string, error) {
	err := postJSON(ctx, s.client, http.MethodPost, s.endpoint+"/messages", nil, messagingPayload{
		From: set.Messaging.From,
		To:   set.Messaging.To,
		Body: downSubject(ev) + " " + ev.Target,
	}, nil)
	return "", err
}

func (s *MessagingSender) SendRecovery(ctx context.Context, set Settings, ev Event, _ string) error {
	return postJSON(ctx, s.client, http.MethodPost, s.endpoint+"/messages", nil, messagingPayload{
		From: set.Messaging.From,
		To:   set.Messaging.To,
		Body: recoverySubject(ev) + " after " + FormatDowntime(ev.Downtime()),
	}, nil)
}
