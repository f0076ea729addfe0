package incident

import (
	"context"
	"sync"
	"time"

	"watchpost/internals/modules/probe"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is what the lifecycle needs from persistence. *Repository
// implements it; tests use an in-memory fake.
type Store interface {
	GetOpenByMonitor(ctx context.Context, monitorID uuid.UUID) (*Incident, error)
	CreateOpen(ctx context.Context, monitorID uuid.UUID, region, errMsg string, startedAt time.Time) (*Incident, bool, error)
	AddRegion(ctx context.Context, incidentID uuid.UUID, region string) ([]string, error)
	RemoveRegion(ctx context.Context, incidentID uuid.UUID, region string) ([]string, error)
	Resolve(ctx context.Context, incidentID uuid.UUID, resolvedAt time.Time, downtimeMs int64) (bool, error)
	SetNotified(ctx context.Context, incidentID uuid.UUID, at time.Time) error
	SetAcknowledged(ctx context.Context, incidentID uuid.UUID, at time.Time) (bool, error)
	AttachScreenshot(ctx context.Context, incidentID uuid.UUID, url string) error
}

// Capturer grabs a screenshot of a failing page, best effort.
type Capturer interface {
	Capture(ctx context.Context, url string) (string, error)
}

// Service owns the per-monitor incident state machine:
// NoIncident -> Open -> Resolved, with region-set extension and
// partial recovery in between. Mutations for one monitor are
// serialized through a keyed mutex; the conditional SQL in the
// repository covers writers in other processes.
type Service struct {
	store    Store
	capturer Capturer // nil disables screenshots
	logger   *zerolog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewService(store Store, capturer Capturer, logger *zerolog.Logger) *Service {
	return &Service{
		store:    store,
		capturer: capturer,
		logger:   logger,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing one monitor's transitions.
// Entries are never evicted; the map is bounded by the monitor count.
func (s *Service) lockFor(monitorID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[monitorID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[monitorID] = l
	}
	return l
}

// ReportFailure records that a region saw the monitor fail. Opens an
// incident when none is open, otherwise unions the region into the
// affected set. Both paths are idempotent under duplicate reports.
func (s *Service) ReportFailure(ctx context.Context, monitorID uuid.UUID, kind probe.Kind, target, region, errMsg string) (Transition, error) {
	lock := s.lockFor(monitorID)
	lock.Lock()
	defer lock.Unlock()

	open, err := s.store.GetOpenByMonitor(ctx, monitorID)
	if err != nil {
		return Transition{}, err
	}

	if open == nil {
		inc, created, err := s.store.CreateOpen(ctx, monitorID, region, errMsg, time.Now())
		if err != nil {
			return Transition{}, err
		}
		if created {
			if kind == probe.KindHTTP && s.capturer != nil {
				go s.captureScreenshot(inc.ID, target)
			}
			return Transition{
				Incident:      inc,
				Opened:        true,
				AffectedCount: len(inc.RegionsAffected),
			}, nil
		}
		// Lost the create race to another process; extend that one.
		open = inc
	}
	if open == nil {
		// Resolved between our read and the conflicting create. The
		// next cycle will open a fresh incident.
		return Transition{}, nil
	}

	regions, err := s.store.AddRegion(ctx, open.ID, region)
	if err != nil {
		return Transition{}, err
	}
	open.RegionsAffected = regions

	return Transition{
		Incident:      open,
		AffectedCount: len(regions),
	}, nil
}

// ReportRecovery records that a region now sees the monitor healthy.
// Removing the last affected region resolves the incident in the same
// operation and stamps the downtime duration.
func (s *Service) ReportRecovery(ctx context.Context, monitorID uuid.UUID, region string) (Transition, error) {
	lock := s.lockFor(monitorID)
	lock.Lock()
	defer lock.Unlock()

	open, err := s.store.GetOpenByMonitor(ctx, monitorID)
	if err != nil {
		return Transition{}, err
	}
	if open == nil {
		return Transition{}, nil
	}

	regions, err := s.store.RemoveRegion(ctx, open.ID, region)
	if err != nil {
		return Transition{}, err
	}
	open.RegionsAffected = regions

	if len(regions) > 0 {
		return Transition{
			Incident:      open,
			AffectedCount: len(regions),
		}, nil
	}

	resolvedAt := time.Now()
	downtimeMs := resolvedAt.Sub(open.StartedAt).Milliseconds()

	applied, err := s.store.Resolve(ctx, open.ID, resolvedAt, downtimeMs)
	if err != nil {
		return Transition{}, err
	}
	if applied {
		open.ResolvedAt = &resolvedAt
		open.DowntimeMs = &downtimeMs
	}

	return Transition{
		Incident: open,
		Resolved: applied,
	}, nil
}

func (s *Service) MarkNotified(ctx context.Context, incidentID uuid.UUID) error {
	return s.store.SetNotified(ctx, incidentID, time.Now())
}

// Acknowledge records a human taking ownership of an open incident.
func (s *Service) Acknowledge(ctx context.Context, incidentID uuid.UUID) (bool, error) {
	return s.store.SetAcknowledged(ctx, incidentID, time.Now())
}

// captureScreenshot runs detached from the failing check: a capture
// failure must never block or fail incident creation.
func (s *Service) captureScreenshot(incidentID uuid.UUID, target string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url, err := s.capturer.Capture(ctx, target)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("incident_id", incidentID.String()).
			Msg("screenshot capture failed")
		return
	}
	if url == "" {
		return
	}

	if err := s.store.AttachScreenshot(ctx, incidentID, url); err != nil {
		s.logger.Error().
			Err(err).
			Str("incident_id", incidentID.String()).
			Msg("failed to attach screenshot to incident")
	}
}
