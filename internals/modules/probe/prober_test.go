package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"watchpost/pkg/apperror"
)

func testProber() *Prober {
	return NewProber(&http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	})
}

func TestProbeHTTP_StatusOK(t *testing.T) {
	var gotUA string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("X-Served-By", "edge-1")
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	out := testProber().Probe(context.Background(), Config{Kind: KindHTTP, Target: s.URL})
	if !out.OK {
		t.Fatalf("want OK, got %+v", out)
	}
	if out.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", out.StatusCode)
	}
	if out.LatencyMs < 0 {
		t.Fatalf("latency should be >= 0, got %d", out.LatencyMs)
	}
	if out.Body != "ok" {
		t.Fatalf("want body %q, got %q", "ok", out.Body)
	}
	if out.Headers["X-Served-By"] != "edge-1" {
		t.Fatalf("want captured header, got %v", out.Headers)
	}
	if gotUA != userAgent {
		t.Fatalf("want user agent %q, got %q", userAgent, gotUA)
	}
}

func TestProbeHTTP_Status500StillCompletes(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	out := testProber().Probe(context.Background(), Config{Kind: KindHTTP, Target: s.URL})
	if !out.OK {
		t.Fatalf("transport completed, want OK, got %+v", out)
	}
	if out.StatusCode != 500 {
		t.Fatalf("want status 500, got %d", out.StatusCode)
	}
}

func TestProbeHTTP_RedirectNotFollowed(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusMovedPermanently)
	}))
	defer s.Close()

	out := testProber().Probe(context.Background(), Config{Kind: KindHTTP, Target: s.URL})
	if !out.OK {
		t.Fatalf("want OK, got %+v", out)
	}
	if out.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("want raw 301, got %d", out.StatusCode)
	}
}

func TestProbeHTTP_PostDefaultsContentType(t *testing.T) {
	var gotCT string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(200)
	}))
	defer s.Close()

	out := testProber().Probe(context.Background(), Config{
		Kind:   KindHTTP,
		Target: s.URL,
		Method: http.MethodPost,
		Body:   `{"ping":true}`,
	})
	if !out.OK {
		t.Fatalf("want OK, got %+v", out)
	}
	if gotCT != "application/json" {
		t.Fatalf("want default json content type, got %q", gotCT)
	}
}

func TestProbeHTTP_BodyTruncatedAtCap(t *testing.T) {
	big := strings.Repeat("a", BodyCaptureCap+512)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(big))
	}))
	defer s.Close()

	out := testProber().Probe(context.Background(), Config{Kind: KindHTTP, Target: s.URL})
	if !out.BodyTruncated {
		t.Fatalf("want truncated flag")
	}
	if len(out.Body) != BodyCaptureCap {
		t.Fatalf("want body cut at %d, got %d", BodyCaptureCap, len(out.Body))
	}
}

func TestProbeHTTP_InvalidJSONBodyRecorded(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"broken":`))
	}))
	defer s.Close()

	out := testProber().Probe(context.Background(), Config{Kind: KindHTTP, Target: s.URL})
	if !out.OK {
		t.Fatalf("parse failure must not fail the probe, got %+v", out)
	}
	if out.BodyParseError == "" {
		t.Fatalf("want parse error recorded")
	}
}

func TestProbeHTTP_TimeoutIsDistinguishable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	}))
	defer s.Close()

	out := testProber().Probe(context.Background(), Config{
		Kind:    KindHTTP,
		Target:  s.URL,
		Timeout: MinTimeout,
	})
	if out.OK {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Reason != ReasonTimeout {
		t.Fatalf("want reason %q, got %q", ReasonTimeout, out.Reason)
	}
	if !strings.Contains(out.CheckError, "timeout") {
		t.Fatalf("want timeout indicator in %q", out.CheckError)
	}
	if out.LatencyMs < 900 || out.LatencyMs > 2500 {
		t.Fatalf("latency should be near the 1s deadline, got %dms", out.LatencyMs)
	}
}

func TestProbeHTTP_StalledBodyIsNotSuccess(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		time.Sleep(3 * time.Second)
	}))
	defer s.Close()

	out := testProber().Probe(context.Background(), Config{
		Kind:    KindHTTP,
		Target:  s.URL,
		Timeout: MinTimeout,
	})
	if out.OK {
		t.Fatalf("want failure when the body read is cut off, got %+v", out)
	}
	if out.StatusCode != http.StatusOK {
		t.Fatalf("want the received status kept, got %d", out.StatusCode)
	}
	if out.Reason != ReasonTimeout {
		t.Fatalf("want reason %q, got %q", ReasonTimeout, out.Reason)
	}
}

func TestProbeTCP_OpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	out := testProber().Probe(context.Background(), Config{Kind: KindTCP, Target: ln.Addr().String()})
	if !out.OK {
		t.Fatalf("want OK, got %+v", out)
	}
	if out.StatusCode != 0 {
		t.Fatalf("tcp result must not carry a status code, got %d", out.StatusCode)
	}
}

func TestProbeTCP_ClosedPort(t *testing.T) {
	// Grab a free port, then close it so the connect is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	out := testProber().Probe(context.Background(), Config{Kind: KindTCP, Target: addr, Timeout: 2 * time.Second})
	if out.OK {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.CheckError == "" {
		t.Fatalf("want non-empty check error")
	}
}

func TestClassifyError_Timeouts(t *testing.T) {
	reason, msg := classifyError(context.DeadlineExceeded)
	if reason != ReasonTimeout {
		t.Fatalf("want %q, got %q", ReasonTimeout, reason)
	}
	if !strings.Contains(msg, "timeout") {
		t.Fatalf("want timeout marker in %q", msg)
	}

	reason, _ = classifyError(&net.DNSError{Err: "no such host", Name: "nope.invalid"})
	if reason != ReasonDNSFailure {
		t.Fatalf("want %q, got %q", ReasonDNSFailure, reason)
	}

	reason, _ = classifyError(errors.New("connection reset"))
	if reason != ReasonNetworkError {
		t.Fatalf("want %q, got %q", ReasonNetworkError, reason)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"http ok", Config{Kind: KindHTTP, Target: "https://example.com/health"}, true},
		{"http bad scheme", Config{Kind: KindHTTP, Target: "ftp://example.com"}, false},
		{"http no host", Config{Kind: KindHTTP, Target: "https://"}, false},
		{"tcp ok", Config{Kind: KindTCP, Target: "db.internal:5432"}, true},
		{"tcp no port", Config{Kind: KindTCP, Target: "db.internal"}, false},
		{"tcp port zero", Config{Kind: KindTCP, Target: "db.internal:0"}, false},
		{"tcp port too big", Config{Kind: KindTCP, Target: "db.internal:70000"}, false},
		{"unknown kind", Config{Kind: "icmp", Target: "example.com"}, false},
	}

	for _, tc := range cases {
		err := ValidateConfig(tc.cfg)
		if tc.ok && err != nil {
			t.Fatalf("%s: want valid, got %v", tc.name, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s: want error", tc.name)
			}
			if !apperror.IsKind(err, apperror.InvalidInput) {
				t.Fatalf("%s: want invalid_input kind, got %v", tc.name, err)
			}
		}
	}
}

func TestClampTimeout(t *testing.T) {
	if got := clampTimeout(0, DefaultHTTPTimeout); got != DefaultHTTPTimeout {
		t.Fatalf("want default, got %v", got)
	}
	if got := clampTimeout(500*time.Millisecond, DefaultHTTPTimeout); got != MinTimeout {
		t.Fatalf("want min clamp, got %v", got)
	}
	if got := clampTimeout(10*time.Minute, DefaultHTTPTimeout); got != MaxTimeout {
		t.Fatalf("want max clamp, got %v", got)
	}
	if got := clampTimeout(5*time.Second, DefaultHTTPTimeout); got != 5*time.Second {
		t.Fatalf("want override kept, got %v", got)
	}
}
