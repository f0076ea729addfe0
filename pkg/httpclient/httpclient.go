package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewProbeClient builds the shared client used by the probe executor.
// No overall client timeout: each probe bounds itself with a context.
// Redirects are surfaced to the caller as their raw 3xx response.
func NewProbeClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxIdleConns:        10000,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// NewSendClient builds the client used for outbound notification and
// screenshot calls, bounded by a hard client timeout.
func NewSendClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
