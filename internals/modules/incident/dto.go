package incident

import "time"

type IncidentResponse struct {
	ID              string   `json:"id"`
	MonitorID       string   `json:"monitor_id"`
	StartedAt       string   `json:"started_at"`
	NotifiedAt      string   `json:"notified_at,omitempty"`
	AcknowledgedAt  string   `json:"acknowledged_at,omitempty"`
	ResolvedAt      string   `json:"resolved_at,omitempty"`
	RegionsAffected []string `json:"regions_affected"`
	DowntimeMs      *int64   `json:"downtime_ms,omitempty"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	ScreenshotURL   string   `json:"screenshot_url,omitempty"`
}

type ListIncidentsResponse struct {
	Limit     int32              `json:"limit"`
	Offset    int32              `json:"offset"`
	Incidents []IncidentResponse `json:"incidents"`
}

func toResponse(inc *Incident) IncidentResponse {
	res := IncidentResponse{
		ID:              inc.ID.String(),
		MonitorID:       inc.MonitorID.String(),
		StartedAt:       inc.StartedAt.Format(time.RFC3339),
		RegionsAffected: inc.RegionsAffected,
		DowntimeMs:      inc.DowntimeMs,
		ErrorMessage:    inc.ErrorMessage,
	}
	if inc.NotifiedAt != nil {
		res.NotifiedAt = inc.NotifiedAt.Format(time.RFC3339)
	}
	if inc.AcknowledgedAt != nil {
		res.AcknowledgedAt = inc.AcknowledgedAt.Format(time.RFC3339)
	}
	if inc.ResolvedAt != nil {
		res.ResolvedAt = inc.ResolvedAt.Format(time.RFC3339)
	}
	res.ScreenshotURL = inc.ScreenshotURL
	return res
}
