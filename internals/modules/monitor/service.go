package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"watchpost/internals/modules/probe"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
)

// Store is what the service needs from persistence. *Repository
// implements it.
type Store interface {
	Create(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error)
	GetByID(ctx context.Context, monitorID uuid.UUID) (*Monitor, error)
	GetAll(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]Monitor, error)
	SetStatus(ctx context.Context, accountID, monitorID uuid.UUID, status Status) (bool, error)
	SetEnabled(ctx context.Context, accountID, monitorID uuid.UUID, enabled bool) (bool, error)
	ApplyCheckOutcome(ctx context.Context, monitorID uuid.UUID, out CheckOutcome) error
}

type Service struct {
	repo  Store
	cache Cache
}

func NewService(repo Store, cache Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) CreateMonitor(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error) {
	const op string = "service.monitor.create"

	if len(cmd.Regions) == 0 {
		return uuid.Nil, apperror.New(apperror.InvalidInput, op, errors.New("no regions configured")).
			WithMessage("at least one region is required")
	}
	if err := probe.ValidateConfig(probe.Config{
		Kind:   cmd.Kind,
		Target: cmd.Target,
	}); err != nil {
		return uuid.Nil, err
	}

	monitorID, err := s.repo.Create(ctx, cmd)
	if err != nil {
		return uuid.Nil, err
	}

	nextRun := time.Now().Add(time.Duration(cmd.IntervalSec) * time.Second)
	if err := s.cache.Schedule(ctx, monitorID.String(), nextRun); err != nil {
		return uuid.Nil, apperror.New(apperror.Dependency, op, err).
			WithMessage("monitor created but could not be scheduled")
	}

	return monitorID, nil
}

// GetMonitor is the owner-scoped read used by the HTTP API.
func (s *Service) GetMonitor(ctx context.Context, accountID, monitorID uuid.UUID) (*Monitor, error) {
	const op string = "service.monitor.get"

	m, err := s.LoadMonitor(ctx, monitorID)
	if err != nil {
		return nil, err
	}
	if m.AccountID != accountID {
		return nil, apperror.New(apperror.Forbidden, op, errors.New("monitor owned by another account")).
			WithMessage("monitor not accessible")
	}
	return m, nil
}

// VerifyMonitorOwner checks that the monitor belongs to the account.
// Other modules use it to scope access to monitor-owned resources.
func (s *Service) VerifyMonitorOwner(ctx context.Context, accountID, monitorID uuid.UUID) error {
	_, err := s.GetMonitor(ctx, accountID, monitorID)
	return err
}

// LoadMonitor is the unscoped read used by the check pipeline,
// cache first, then postgres.
func (s *Service) LoadMonitor(ctx context.Context, monitorID uuid.UUID) (*Monitor, error) {
	if data, ok := s.cache.GetMonitor(ctx, monitorID); ok {
		var m Monitor
		if err := json.Unmarshal(data, &m); err == nil {
			return &m, nil
		}
		// corrupted cache entry, fall through to the db
		_ = s.cache.DelMonitor(ctx, monitorID)
	}

	m, err := s.repo.GetByID(ctx, monitorID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(m); err == nil {
		_ = s.cache.SetMonitor(ctx, monitorID, data)
	}

	return m, nil
}

func (s *Service) GetAllMonitors(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]Monitor, error) {
	return s.repo.GetAll(ctx, accountID, limit, offset)
}

// RegionStatus reads the latest per-region probe snapshot from the
// cache. A monitor that has never been checked returns an empty map.
func (s *Service) RegionStatus(ctx context.Context, accountID, monitorID uuid.UUID) (map[string]string, error) {
	if err := s.VerifyMonitorOwner(ctx, accountID, monitorID); err != nil {
		return nil, err
	}
	return s.cache.GetStatus(ctx, monitorID)
}

// SetAdministrativeStatus pauses or resumes checking. Pausing clears
// every cached artifact so the pipeline stops touching the monitor.
func (s *Service) SetAdministrativeStatus(ctx context.Context, accountID, monitorID uuid.UUID, status Status) error {
	const op string = "service.monitor.set_administrative_status"

	switch status {
	case StatusPaused, StatusMaintenance:
		ok, err := s.repo.SetStatus(ctx, accountID, monitorID, status)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.New(apperror.NotFound, op, errors.New("monitor not found")).
				WithMessage("monitor not found")
		}
		_ = s.cache.DelMonitor(ctx, monitorID)
		_ = s.cache.DelSchedule(ctx, monitorID.String())
		_ = s.cache.DelStatus(ctx, monitorID)
		return nil

	case StatusInitializing: // resume
		ok, err := s.repo.SetStatus(ctx, accountID, monitorID, status)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.New(apperror.NotFound, op, errors.New("monitor not found")).
				WithMessage("monitor not found")
		}
		_ = s.cache.DelMonitor(ctx, monitorID)

		m, err := s.repo.GetByID(ctx, monitorID)
		if err != nil {
			return err
		}
		nextRun := time.Now().Add(time.Duration(m.IntervalSec) * time.Second)
		return s.cache.Schedule(ctx, monitorID.String(), nextRun)

	default:
		return apperror.New(apperror.InvalidInput, op, errors.New("status not settable by operator")).
			WithMessage("only paused, maintenance or resume are allowed")
	}
}

// SetEnabled turns checking on or off without touching the status
// machinery. Disabling also unschedules the monitor.
func (s *Service) SetEnabled(ctx context.Context, accountID, monitorID uuid.UUID, enabled bool) error {
	const op string = "service.monitor.set_enabled"

	ok, err := s.repo.SetEnabled(ctx, accountID, monitorID, enabled)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(apperror.NotFound, op, errors.New("monitor not found")).
			WithMessage("monitor not found")
	}
	_ = s.cache.DelMonitor(ctx, monitorID)

	if !enabled {
		_ = s.cache.DelSchedule(ctx, monitorID.String())
		return nil
	}

	m, err := s.repo.GetByID(ctx, monitorID)
	if err != nil {
		return err
	}
	return s.cache.Schedule(ctx, monitorID.String(), time.Now().Add(time.Duration(m.IntervalSec)*time.Second))
}

// ApplyCheckOutcome writes the aggregated status back and refreshes
// the cached copy. Called by the check engine on every probe.
func (s *Service) ApplyCheckOutcome(ctx context.Context, monitorID uuid.UUID, out CheckOutcome) error {
	if err := s.repo.ApplyCheckOutcome(ctx, monitorID, out); err != nil {
		return err
	}
	// drop the cached record so the next read sees fresh status
	_ = s.cache.DelMonitor(ctx, monitorID)
	return nil
}
