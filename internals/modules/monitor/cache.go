package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Cache interface {
	GetMonitor(ctx context.Context, id uuid.UUID) ([]byte, bool)
	SetMonitor(ctx context.Context, id uuid.UUID, data []byte) error
	DelMonitor(ctx context.Context, id uuid.UUID) error
	Schedule(ctx context.Context, monitorID string, nextRun time.Time) error
	DelSchedule(ctx context.Context, monitorID string) error
	GetStatus(ctx context.Context, monitorID uuid.UUID) (map[string]string, error)
	DelStatus(ctx context.Context, monitorID uuid.UUID) error
}
