package probe

import (
	"context"
	"net"
	"time"
)

// probeTCP opens a raw connection and closes it again. Success means
// the connect finished; nothing is ever written or read.
func (p *Prober) probeTCP(ctx context.Context, cfg Config) Result {

	timeout := clampTimeout(cfg.Timeout, DefaultTCPTimeout)

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer

	start := time.Now()

	conn, err := d.DialContext(dialCtx, "tcp", cfg.Target)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		reason, msg := classifyError(err)
		return Result{
			OK:         false,
			LatencyMs:  latency,
			Reason:     reason,
			CheckError: msg,
			CheckedAt:  time.Now(),
		}
	}
	_ = conn.Close()

	return Result{
		OK:        true,
		LatencyMs: latency,
		CheckedAt: time.Now(),
	}
}
