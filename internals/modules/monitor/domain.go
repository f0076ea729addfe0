package monitor

import (
	"time"

	"watchpost/internals/modules/probe"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
	StatusDegraded     Status = "degraded"
	StatusError        Status = "error"
	StatusPaused       Status = "paused"
	StatusMaintenance  Status = "maintenance"
	StatusBroken       Status = "broken"
)

// Administrative reports whether the status is operator-set and must
// never be overwritten by check outcomes.
func (s Status) Administrative() bool {
	return s == StatusPaused || s == StatusMaintenance || s == StatusBroken
}

type Monitor struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string

	Kind    probe.Kind
	Target  string
	Method  string
	Headers map[string]string
	Body    string

	Regions             []string
	IntervalSec         int32
	TimeoutSec          int32 // 0 means the probe default
	DegradedThresholdMs int32 // 0 means no latency threshold

	Status        Status
	ErrorMessage  string
	LastCheckAt   *time.Time
	LastSuccessAt *time.Time
	LastFailureAt *time.Time

	Enabled bool
}

// ProbeConfig builds the probe input for this monitor.
func (m *Monitor) ProbeConfig() probe.Config {
	return probe.Config{
		Kind:    m.Kind,
		Target:  m.Target,
		Method:  m.Method,
		Headers: m.Headers,
		Body:    m.Body,
		Timeout: time.Duration(m.TimeoutSec) * time.Second,
	}
}

type CreateMonitorCmd struct {
	AccountID           uuid.UUID
	Name                string
	Kind                probe.Kind
	Target              string
	Method              string
	Headers             map[string]string
	Body                string
	Regions             []string
	IntervalSec         int32
	TimeoutSec          int32
	DegradedThresholdMs int32
}

// CheckOutcome is the status assignment the engine writes back after
// every probe, success or failure.
type CheckOutcome struct {
	Status       Status
	ErrorMessage string
	CheckedAt    time.Time
	Success      bool
}
