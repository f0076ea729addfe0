package executor

import (
	"context"
	"sync"
	"time"

	"watchpost/config"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/scheduler"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MonitorLoader resolves a due monitor, cache first.
type MonitorLoader interface {
	LoadMonitor(ctx context.Context, monitorID uuid.UUID) (*monitor.Monitor, error)
}

// CheckRunner runs one (monitor, region) check end to end.
type CheckRunner interface {
	RunCheck(ctx context.Context, monitorID uuid.UUID, region string) error
}

// JobQueue is the slice of redisstore the executor needs to finish or
// hand back a job.
type JobQueue interface {
	Schedule(ctx context.Context, monitorID string, nextRun time.Time) error
	AckJob(ctx context.Context, monitorID string) error
}

// Executor drains the job channel: each due monitor fans out one
// check goroutine per configured region, bounded by a shared probe
// semaphore. The job is acked and rescheduled only after every region
// finished, so a crash mid-fan-out lets the reclaimer retry the whole
// monitor.
type Executor struct {
	ctx         context.Context
	workerCount int
	jobChan     <-chan scheduler.JobPayload
	monitors    MonitorLoader
	runner      CheckRunner
	queue       JobQueue
	probeSem    chan struct{}
	wg          sync.WaitGroup
	logger      *zerolog.Logger
}

func NewExecutor(
	ctx context.Context,
	cfg *config.ExecutorConfig,
	jobChan <-chan scheduler.JobPayload,
	monitors MonitorLoader,
	runner CheckRunner,
	queue JobQueue,
	logger *zerolog.Logger,
) *Executor {
	return &Executor{
		ctx:         ctx,
		workerCount: cfg.WorkerCount,
		jobChan:     jobChan,
		monitors:    monitors,
		runner:      runner,
		queue:       queue,
		probeSem:    make(chan struct{}, cfg.ProbeSemCount),
		logger:      logger,
	}
}

func (ex *Executor) StartWorkers() {
	for range ex.workerCount {
		ex.wg.Add(1)
		go ex.work()
	}
	ex.logger.Info().Int("workers", ex.workerCount).Msg("executor started")
}

// Wait blocks until every worker drained out after cancellation.
func (ex *Executor) Wait() {
	ex.wg.Wait()
	ex.logger.Info().Msg("executor stopped")
}

func (ex *Executor) work() {
	defer ex.wg.Done()

	for {
		select {
		case <-ex.ctx.Done():
			return
		case job, ok := <-ex.jobChan:
			if !ok {
				return
			}
			ex.process(job)
		}
	}
}

func (ex *Executor) process(job scheduler.JobPayload) {
	idStr := job.MonitorID.String()

	m, err := ex.monitors.LoadMonitor(ex.ctx, job.MonitorID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			// deleted monitor, drop its job for good
			_ = ex.queue.AckJob(ex.ctx, idStr)
			return
		}
		// leave the job inflight; the reclaimer retries it
		ex.logger.Error().Err(err).Str("monitor_id", idStr).Msg("failed to load due monitor")
		return
	}

	if !m.Enabled || m.Status.Administrative() {
		_ = ex.queue.AckJob(ex.ctx, idStr)
		return
	}

	var regionWg sync.WaitGroup
	for _, region := range m.Regions {
		select {
		case ex.probeSem <- struct{}{}:
		case <-ex.ctx.Done():
			regionWg.Wait()
			return
		}

		regionWg.Add(1)
		go func(region string) {
			defer func() {
				<-ex.probeSem
				regionWg.Done()
			}()

			if err := ex.runner.RunCheck(ex.ctx, m.ID, region); err != nil {
				ex.logger.Error().
					Err(err).
					Str("monitor_id", idStr).
					Str("region", region).
					Msg("check run failed")
			}
		}(region)
	}
	regionWg.Wait()

	if err := ex.queue.Schedule(ex.ctx, idStr, time.Now().Add(time.Duration(m.IntervalSec)*time.Second)); err != nil {
		// keep the job inflight so the reclaimer reschedules it
		ex.logger.Error().Err(err).Str("monitor_id", idStr).Msg("failed to schedule next run")
		return
	}
	_ = ex.queue.AckJob(ex.ctx, idStr)
}
