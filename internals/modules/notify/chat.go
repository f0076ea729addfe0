package notify

import (
	"context"
	"net/http"
)

// ChatSender posts a Slack-compatible text payload to the tenant's
// incoming webhook.
type ChatSender struct {
	client *http.Client
}

func NewChatSender(client *http.Client) *ChatSender {
	return &ChatSender{client: client}
}

func (s *ChatSender) Channel() Channel { return ChannelChat }

func (s *ChatSender) Configured(set Settings) bool {
	return set.Chat.Configured()
}

type chatPayload struct {
	Text string `json:"text"`
}

func (s *ChatSender) SendDown(ctx context.Context, set Settings, ev Event) (string, error) {
	err := postJSON(ctx, s.client, http.MethodPost, set.Chat.WebhookURL, nil, chatPayload{
		Text: "*" + downSubject(ev) + "*\n" + downBody(ev),
	}, nil)
	return "", err
}

func (s *ChatSender) SendRecovery(ctx context.Context, set Settings, ev Event, _ string) error {
	return postJSON(ctx, s.client, http.MethodPost, set.Chat.WebhookURL, nil, chatPayload{
		Text: "*" + recoverySubject(ev) + "*\n" + recoveryBody(ev),
	}, nil)
}
