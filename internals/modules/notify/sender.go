package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Sender is one notification channel. SendDown may return a
// correlation handle (paging dedup key, ticket URL) that SendRecovery
// uses to resolve the same external artifact instead of creating a
// new one.
type Sender interface {
	Channel() Channel
	Configured(s Settings) bool
	SendDown(ctx context.Context, s Settings, ev Event) (handle string, err error)
	SendRecovery(ctx context.Context, s Settings, ev Event, handle string) error
}

// postJSON sends a JSON request and decodes a JSON reply into out
// when out is non-nil. Non-2xx replies come back as errors carrying
// the status and a snippet of the body.
func postJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider replied %d: %s", resp.StatusCode, string(snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode reply: %w", err)
		}
	}
	return nil
}
