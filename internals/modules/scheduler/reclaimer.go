package scheduler

import (
	"context"
	"time"

	"watchpost/config"
	"watchpost/pkg/redisstore"

	"github.com/rs/zerolog"
)

// Reclaimer sweeps inflight members whose visibility deadline expired
// back onto the schedule.
type Reclaimer struct {
	ctx      context.Context
	interval time.Duration
	limit    int
	redisSvc *redisstore.Client
	logger   *zerolog.Logger
}

func NewReclaimer(
	ctx context.Context,
	cfg *config.ReclaimerConfig,
	redisSvc *redisstore.Client,
	logger *zerolog.Logger,
) *Reclaimer {
	return &Reclaimer{
		ctx:      ctx,
		interval: cfg.Interval,
		limit:    cfg.Limit,
		redisSvc: redisSvc,
		logger:   logger,
	}
}

// Run blocks until the context is cancelled.
func (r *Reclaimer) Run() {
	if r.interval <= 0 {
		panic("reclaimer interval must be > 0")
	}
	r.logger.Info().Msg("reclaimer started")

	ticker := time.NewTicker(r.interval)
	defer func() {
		ticker.Stop()
		r.logger.Info().Msg("reclaimer stopped")
	}()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.doWork()
		}
	}
}

func (r *Reclaimer) doWork() {
	count, err := r.redisSvc.ReclaimMonitors(r.ctx, ReclaimMonitorsScript, time.Now(), r.limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to reclaim inflight monitors")
		return
	}
	if count > 0 {
		r.logger.Warn().Int64("count", count).Msg("reclaimed expired inflight monitors")
	}
}
