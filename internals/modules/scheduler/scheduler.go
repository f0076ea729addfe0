package scheduler

import (
	"context"
	"time"

	"watchpost/config"
	"watchpost/pkg/redisstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Scheduler polls the schedule ZSET for due monitors and feeds them
// to the executor pool. Popped members sit in the inflight set until
// the executor acks them, so a crash between pop and check only
// delays the job by the visibility timeout.
type Scheduler struct {
	ctx               context.Context
	jobChan           chan<- JobPayload
	redisSvc          *redisstore.Client
	interval          time.Duration
	batchSize         int
	visibilityTimeout time.Duration
	logger            *zerolog.Logger
}

func NewScheduler(
	ctx context.Context,
	cfg *config.SchedulerConfig,
	jobChan chan<- JobPayload,
	redisSvc *redisstore.Client,
	logger *zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		ctx:               ctx,
		jobChan:           jobChan,
		redisSvc:          redisSvc,
		interval:          cfg.Interval,
		batchSize:         cfg.BatchSize,
		visibilityTimeout: cfg.VisibilityTimeout,
		logger:            logger,
	}
}

// Run blocks until the context is cancelled.
func (sc *Scheduler) Run() {
	if sc.interval <= 0 {
		panic("scheduler interval must be > 0")
	}
	sc.logger.Info().Msg("scheduler started")

	ticker := time.NewTicker(sc.interval)
	defer func() {
		ticker.Stop()
		sc.logger.Info().Msg("scheduler stopped")
	}()

	for {
		select {
		case <-sc.ctx.Done():
			return
		case <-ticker.C:
			sc.doWork()
		}
	}
}

func (sc *Scheduler) doWork() {
	members, err := sc.redisSvc.FetchAndMoveToInflight(
		sc.ctx, FetchAndMoveToInflightScript,
		time.Now(), sc.batchSize, sc.visibilityTimeout,
	)
	if err != nil {
		// transient redis error, the jobs stay scheduled
		sc.logger.Error().Err(err).Msg("failed to fetch due monitors")
		return
	}

	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			// corrupted member, drop it from inflight for good
			sc.logger.Error().Str("member", member).Msg("non-uuid member in schedule")
			_ = sc.redisSvc.AckJob(sc.ctx, member)
			continue
		}

		select {
		case sc.jobChan <- JobPayload{MonitorID: id}:
		case <-sc.ctx.Done():
			return
		default:
			// executor backlog is full; hand the job back to the
			// schedule instead of blocking the poll loop
			if err := sc.redisSvc.Schedule(sc.ctx, member, time.Now().Add(sc.interval)); err != nil {
				sc.logger.Error().Err(err).Str("monitor_id", member).Msg("failed to reschedule under backpressure")
				continue
			}
			_ = sc.redisSvc.AckJob(sc.ctx, member)
		}
	}
}
