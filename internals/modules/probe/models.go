package probe

import "time"

type Kind string

const (
	KindHTTP Kind = "http"
	KindTCP  Kind = "tcp"
)

const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultTCPTimeout  = 45 * time.Second
	MinTimeout         = 1 * time.Second
	MaxTimeout         = 300 * time.Second

	// Captured response bodies are cut at this size.
	BodyCaptureCap = 64 << 10

	userAgent = "watchpost-probe/1.0"
)

// Failure reason codes carried on a Result.
const (
	ReasonTimeout        = "TIMEOUT"
	ReasonDNSFailure     = "DNS_FAILURE"
	ReasonNetworkError   = "NETWORK_ERROR"
	ReasonInvalidRequest = "INVALID_REQUEST"
)

type Config struct {
	Kind    Kind
	Target  string // URL for http, host:port for tcp
	Method  string
	Headers map[string]string
	Body    string
	Timeout time.Duration // 0 means the per-kind default
}

// Result is the normalized outcome of one probe. OK means the probe
// completed at the transport level: a response arrived (http) or the
// connection opened (tcp). Whether an http status counts as healthy is
// the aggregator's call, not the probe's.
type Result struct {
	OK         bool
	StatusCode int   // 0 unless an http response was received
	LatencyMs  int64 // wall clock, network call start to body read done
	Region     string
	Reason     string // failure code, empty on success
	CheckError string // human readable failure, empty on success
	CheckedAt  time.Time

	// http only
	Headers        map[string]string
	Body           string
	BodyTruncated  bool
	BodyParseError string
}
