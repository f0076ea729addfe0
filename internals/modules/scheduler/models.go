package scheduler

import "github.com/google/uuid"

// JobPayload is one due monitor handed to the executor pool.
type JobPayload struct {
	MonitorID uuid.UUID
}
