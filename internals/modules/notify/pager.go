package notify

import (
	"context"
	"errors"
	"net/http"
)

// PagerSender talks to a paging events API. The provider's dedup key
// is the correlation handle: a recovery resolves the page that the
// down event triggered instead of opening a second one.
type PagerSender struct {
	endpoint string
	client   *http.Client
}

func NewPagerSender(endpoint string, client *http.Client) *PagerSender {
	return &PagerSender{endpoint: endpoint, client: client}
}

func (s *PagerSender) Channel() Channel { return ChannelPager }

func (s *PagerSender) Configured(set Settings) bool {
	return s.endpoint != "" && set.Pager.Configured()
}

type pagerPayload struct {
	RoutingKey string `json:"routing_key"`
	Action     string `json:"event_action"`
	DedupKey   string `json:"dedup_key,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Source     string `json:"source,omitempty"`
}

type pagerReply struct {
	DedupKey string `json:"dedup_key"`
}

func (s *PagerSender) SendDown(ctx context.Context, set Settings, ev Event) (string, error) {
	var reply pagerReply
	err := postJSON(ctx, s.client, http.MethodPost, s.endpoint+"/v2/enqueue", nil, pagerPayload{
		RoutingKey: set.Pager.RoutingKey,
		Action:     "trigger",
		Summary:    downSubject(ev),
		Source:     ev.Target,
	}, &reply)
	if err != nil {
		return "", err
	}
	if reply.DedupKey == "" {
		return "", errors.New("pager provider returned no dedup key")
	}
	return reply.DedupKey, nil
}

func (s *PagerSender) SendRecovery(ctx context.Context, set Settings, ev Event, handle string) error {
	payload := pagerPayload{
		RoutingKey: set.Pager.RoutingKey,
		Summary:    recoverySubject(ev),
		Source:     ev.Target,
	}
	if handle != "" {
		payload.Action = "resolve"
		payload.DedupKey = handle
	} else {
		// No page to resolve, fall back to a standalone notification.
		payload.Action = "trigger"
	}
	return postJSON(ctx, s.client, http.MethodPost, s.endpoint+"/v2/enqueue", nil, payload, nil)
}
