package screenshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"watchpost/config"
)

// Client asks a headless-browser capture service for a screenshot of
// a failing page and returns the stored image URL. Callers treat the
// whole thing as best effort.
type Client struct {
	captureURL string
	httpClient *http.Client
}

func New(cfg *config.ScreenshotConfig, httpClient *http.Client) *Client {
	if cfg == nil || cfg.CaptureURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Client{
		captureURL: cfg.CaptureURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: httpClient.Transport,
		},
	}
}

type captureRequest struct {
	URL string `json:"url"`
}

type captureReply struct {
	ScreenshotURL string `json:"screenshot_url"`
}

func (c *Client) Capture(ctx context.Context, target string) (string, error) {
	body, err := json.Marshal(captureRequest{URL: target})
	if err != nil {
		return "", fmt.Errorf("encode capture request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.captureURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build capture request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("capture service replied %d: %s", resp.StatusCode, string(snippet))
	}

	var reply captureReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode capture reply: %w", err)
	}
	return reply.ScreenshotURL, nil
}
