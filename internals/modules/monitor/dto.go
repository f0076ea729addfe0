package monitor

type CreateMonitorRequest struct {
	Name                string            `json:"name" validate:"required,max=120"`
	Kind                string            `json:"kind" validate:"required,oneof=http tcp"`
	Target              string            `json:"target" validate:"required"`
	Method              string            `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	Headers             map[string]string `json:"headers"`
	Body                string            `json:"body"`
	Regions             []string          `json:"regions" validate:"required,min=1,dive,required"`
	IntervalSec         int32             `json:"interval_sec" validate:"required,gte=30"`
	TimeoutSec          int32             `json:"timeout_sec" validate:"gte=0,lte=300"`
	DegradedThresholdMs int32             `json:"degraded_threshold_ms" validate:"gte=0"`
}

type MonitorResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Kind                string   `json:"kind"`
	Target              string   `json:"target"`
	Regions             []string `json:"regions"`
	IntervalSec         int32    `json:"interval_sec"`
	TimeoutSec          int32    `json:"timeout_sec"`
	DegradedThresholdMs int32    `json:"degraded_threshold_ms"`
	Status              string   `json:"status"`
	ErrorMessage        string   `json:"error_message,omitempty"`
	LastCheckAt         string   `json:"last_check_at,omitempty"`
	LastSuccessAt       string   `json:"last_success_at,omitempty"`
	LastFailureAt       string   `json:"last_failure_at,omitempty"`
	Enabled             bool     `json:"enabled"`
}

type ListMonitorsResponse struct {
	Limit    int32             `json:"limit"`
	Offset   int32             `json:"offset"`
	Monitors []MonitorResponse `json:"monitors"`
}

type UpdateMonitorStateRequest struct {
	// pause | maintenance | resume | disable | enable
	State string `json:"state" validate:"required,oneof=pause maintenance resume disable enable"`
}
