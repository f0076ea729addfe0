package incident

import (
	"time"

	"github.com/google/uuid"
)

// Incident is one continuous unhealthy period for a monitor. At most
// one incident per monitor may be open (resolved_at null) at any time;
// the repository enforces that with a partial unique index.
type Incident struct {
	ID              uuid.UUID
	MonitorID       uuid.UUID
	StartedAt       time.Time
	NotifiedAt      *time.Time
	AcknowledgedAt  *time.Time
	ResolvedAt      *time.Time
	RegionsAffected []string
	DowntimeMs      *int64 // set only at resolution
	ErrorMessage    string
	ScreenshotURL   string
}

func (i *Incident) Open() bool {
	return i.ResolvedAt == nil
}

// Transition describes what one region report did to the incident
// state. Opened and Resolved are the only transitions that notify.
type Transition struct {
	Incident      *Incident
	Opened        bool
	Resolved      bool
	AffectedCount int
}
