package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"watchpost/pkg/apperror"
)

type Prober struct {
	httpClient *http.Client
}

func NewProber(httpClient *http.Client) *Prober {
	return &Prober{
		httpClient: httpClient,
	}
}

// Probe runs one check against cfg.Target. It never returns an error:
// every failure mode is encoded in the Result. Callers are expected to
// run ValidateConfig first; a config that slips through anyway comes
// back as an INVALID_REQUEST result, not a panic.
func (p *Prober) Probe(ctx context.Context, cfg Config) Result {
	switch cfg.Kind {
	case KindHTTP:
		return p.probeHTTP(ctx, cfg)
	case KindTCP:
		return p.probeTCP(ctx, cfg)
	default:
		return Result{
			OK:         false,
			Reason:     ReasonInvalidRequest,
			CheckError: fmt.Sprintf("unknown check kind %q", cfg.Kind),
			CheckedAt:  time.Now(),
		}
	}
}

// ValidateConfig rejects malformed check configs before any network
// call is made.
func ValidateConfig(cfg Config) error {
	const op string = "probe.validate_config"

	switch cfg.Kind {
	case KindHTTP:
		u, err := url.Parse(cfg.Target)
		if err != nil {
			return apperror.New(apperror.InvalidInput, op, err).
				WithMessage("invalid check url")
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return apperror.New(apperror.InvalidInput, op, fmt.Errorf("not an http(s) url: %q", cfg.Target)).
				WithMessage("invalid check url")
		}
	case KindTCP:
		host, portStr, err := net.SplitHostPort(cfg.Target)
		if err != nil {
			return apperror.New(apperror.InvalidInput, op, err).
				WithMessage("target must be host:port")
		}
		if host == "" {
			return apperror.New(apperror.InvalidInput, op, fmt.Errorf("empty host in %q", cfg.Target)).
				WithMessage("target must be host:port")
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return apperror.New(apperror.InvalidInput, op, fmt.Errorf("port out of range in %q", cfg.Target)).
				WithMessage("port must be between 1 and 65535")
		}
	default:
		return apperror.New(apperror.InvalidInput, op, fmt.Errorf("unknown check kind %q", cfg.Kind)).
			WithMessage("check kind must be http or tcp")
	}

	return nil
}

// clampTimeout applies the per-kind default and bounds overrides into
// the allowed window.
func clampTimeout(override, def time.Duration) time.Duration {
	if override <= 0 {
		return def
	}
	if override < MinTimeout {
		return MinTimeout
	}
	if override > MaxTimeout {
		return MaxTimeout
	}
	return override
}

// classifyError maps transport failures onto stable reason codes.
// Timeouts must stay distinguishable from other network errors.
func classifyError(err error) (string, string) {

	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout, "timeout: " + err.Error()
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonDNSFailure, err.Error()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonTimeout, "timeout: " + err.Error()
		}
		return ReasonNetworkError, err.Error()
	}

	return ReasonNetworkError, err.Error()
}
