package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// TicketSender opens an issue in the tenant's tracker on a down event
// and closes that same issue on recovery. The issue's API URL is the
// correlation handle.
type TicketSender struct {
	endpoint string
	client   *http.Client
}

func NewTicketSender(endpoint string, client *http.Client) *TicketSender {
	return &TicketSender{endpoint: endpoint, client: client}
}

func (s *TicketSender) Channel() Channel { return ChannelTicket }

func (s *TicketSender) Configured(set Settings) bool {
	return s.endpoint != "" && set.Ticket.Configured()
}

type ticketCreate struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type ticketUpdate struct {
	State string `json:"state"`
}

type ticketReply struct {
	URL string `json:"url"`
}

func (s *TicketSender) authHeader(set Settings) map[string]string {
	return map[string]string{"Authorization": "Bearer " + set.Ticket.Token}
}

func (s *TicketSender) SendDown(ctx context.Context, set Settings, ev Event) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues", s.endpoint, set.Ticket.Owner, set.Ticket.Repo)

	var reply ticketReply
	err := postJSON(ctx, s.client, http.MethodPost, url, s.authHeader(set), ticketCreate{
		Title: downSubject(ev),
		Body:  downBody(ev),
	}, &reply)
	if err != nil {
		return "", err
	}
	if reply.URL == "" {
		return "", errors.New("tracker returned no issue url")
	}
	return reply.URL, nil
}

func (s *TicketSender) SendRecovery(ctx context.Context, set Settings, ev Event, handle string) error {
	if handle == "" {
		// Nothing to close; open a standalone recovered issue so the
		// event still leaves a trace.
		url := fmt.Sprintf("%s/repos/%s/%s/issues", s.endpoint, set.Ticket.Owner, set.Ticket.Repo)
		return postJSON(ctx, s.client, http.MethodPost, url, s.authHeader(set), ticketCreate{
			Title: recoverySubject(ev),
			Body:  recoveryBody(ev),
		}, nil)
	}
	return postJSON(ctx, s.client, http.MethodPatch, handle, s.authHeader(set), ticketUpdate{
		State: "closed",
	}, nil)
}
