package probe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

func (p *Prober) probeHTTP(ctx context.Context, cfg Config) Result {

	timeout := clampTimeout(cfg.Timeout, DefaultHTTPTimeout)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if cfg.Body != "" {
		bodyReader = strings.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, cfg.Target, bodyReader)
	if err != nil {
		return Result{
			OK:         false,
			Reason:     ReasonInvalidRequest,
			CheckError: err.Error(),
			CheckedAt:  time.Now(),
		}
	}

	req.Header.Set("User-Agent", userAgent)
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if cfg.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := p.httpClient.Do(req)
	if err != nil {
		latency := time.Since(start).Milliseconds()
		reason, msg := classifyError(err)
		return Result{
			OK:         false,
			LatencyMs:  latency,
			Reason:     reason,
			CheckError: msg,
			CheckedAt:  time.Now(),
		}
	}
	defer resp.Body.Close()

	// Read one byte past the cap so truncation is detectable.
	buf, readErr := io.ReadAll(io.LimitReader(resp.Body, BodyCaptureCap+1))
	latency := time.Since(start).Milliseconds()

	truncated := false
	if len(buf) > BodyCaptureCap {
		truncated = true
		buf = buf[:BodyCaptureCap]
	}

	res := Result{
		OK:            true,
		StatusCode:    resp.StatusCode,
		LatencyMs:     latency,
		Headers:       flattenHeaders(resp.Header),
		Body:          string(buf),
		BodyTruncated: truncated,
		CheckedAt:     time.Now(),
	}

	if readErr != nil {
		// The response headers arrived but the body broke mid-read,
		// most often the probe deadline firing on a stalled target.
		// The probe did not complete; keep the partial body for
		// diagnostics.
		reason, msg := classifyError(readErr)
		res.OK = false
		res.Reason = reason
		res.CheckError = msg
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "json") && !truncated && len(buf) > 0 {
		if !json.Valid(buf) {
			res.BodyParseError = "body is not valid json"
		}
	}

	return res
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
