package notify

import (
	"context"
	"net/http"
)

// EmailSender posts to a transactional mail API. Email carries no
// external state, so it never returns a correlation handle.
type EmailSender struct {
	endpoint string
	client   *http.Client
}

func NewEmailSender(endpoint string, client *http.Client) *EmailSender {
	return &EmailSender{endpoint: endpoint, client: client}
}

func (s *EmailSender) Channel() Channel { return ChannelEmail }

func (s *EmailSender) Configured(set Settings) bool {
	return s.endpoint != "" && set.Email.Configured()
}

type emailPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

func (s *EmailSender) SendDown(ctx context.Context, set Settings, ev Event) (string, error) {
	err := postJSON(ctx, s.client, http.MethodPost, s.endpoint+"/send", nil, emailPayload{
		To:      set.Email.Recipients,
		Subject: downSubject(ev),
		Body:    downBody(ev),
	}, nil)
	return "", err
}

func (s *EmailSender) SendRecovery(ctx context.Context, set Settings, ev Event, _ string) error {
	return postJSON(ctx, s.client, http.MethodPost, s.endpoint+"/send", nil, emailPayload{
		To:      set.Email.Recipients,
		Subject: recoverySubject(ev),
		Body:    recoveryBody(ev),
	}, nil)
}
