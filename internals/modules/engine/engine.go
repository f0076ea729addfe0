package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"watchpost/internals/modules/incident"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/notify"
	"watchpost/internals/modules/probe"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Monitors is the slice of the monitor service the engine uses.
type Monitors interface {
	LoadMonitor(ctx context.Context, monitorID uuid.UUID) (*monitor.Monitor, error)
	ApplyCheckOutcome(ctx context.Context, monitorID uuid.UUID, out monitor.CheckOutcome) error
}

// Incidents is the slice of the incident service the engine drives.
type Incidents interface {
	ReportFailure(ctx context.Context, monitorID uuid.UUID, kind probe.Kind, target, region, errMsg string) (incident.Transition, error)
	ReportRecovery(ctx context.Context, monitorID uuid.UUID, region string) (incident.Transition, error)
	MarkNotified(ctx context.Context, incidentID uuid.UUID) error
}

// ResultStore appends check history rows, fire and forget.
type ResultStore interface {
	Append(ctx context.Context, row CheckResult) error
}

// StatusCache keeps the latest per-region reading for dashboards.
type StatusCache interface {
	StoreStatus(ctx context.Context, monitorID uuid.UUID, region string, statusCode int, latencyMs int64, checkedAt time.Time) error
}

// EventPublisher pushes incident events onto the notification bus.
type EventPublisher interface {
	Publish(ctx context.Context, body []byte) error
}

type Prober interface {
	Probe(ctx context.Context, cfg probe.Config) probe.Result
}

// Engine runs one complete check for a (monitor, region) pair:
// probe, history write, incident transition, status aggregation,
// event publish. A failing target is a normal result here; only
// engine-internal faults come back as errors.
type Engine struct {
	monitors  Monitors
	incidents Incidents
	results   ResultStore
	status    StatusCache
	events    EventPublisher
	prober    Prober
	logger    *zerolog.Logger
}

func New(
	monitors Monitors,
	incidents Incidents,
	results ResultStore,
	status StatusCache,
	events EventPublisher,
	prober Prober,
	logger *zerolog.Logger,
) *Engine {
	return &Engine{
		monitors:  monitors,
		incidents: incidents,
		results:   results,
		status:    status,
		events:    events,
		prober:    prober,
		logger:    logger,
	}
}

// RunCheck probes one monitor from one region and walks the outcome
// through the incident lifecycle. The orchestrator retries the whole
// check on the next cycle when this errors, so only faults worth a
// retry (bad config, failed critical writes) propagate.
func (e *Engine) RunCheck(ctx context.Context, monitorID uuid.UUID, region string) error {
	m, err := e.monitors.LoadMonitor(ctx, monitorID)
	if err != nil {
		return err
	}
	if !m.Enabled || m.Status.Administrative() {
		return nil
	}

	cfg := m.ProbeConfig()
	if err := probe.ValidateConfig(cfg); err != nil {
		return err
	}

	res := e.prober.Probe(ctx, cfg)
	res.Region = region

	e.recordResult(ctx, m, res)

	success := isSuccess(m.Kind, res)
	latencyDegraded := isDegradedLatency(m, res, success)
	errMsg := failureMessage(res, success)

	var tr incident.Transition
	if success {
		tr, err = e.incidents.ReportRecovery(ctx, m.ID, region)
	} else {
		tr, err = e.incidents.ReportFailure(ctx, m.ID, m.Kind, m.Target, region, errMsg)
	}
	if err != nil {
		return err
	}

	affected := tr.AffectedCount
	if !success && affected == 0 {
		// Lost a create/resolve race; this region is down regardless.
		affected = 1
	}

	out := monitor.CheckOutcome{
		Status:    aggregateStatus(affected, len(m.Regions), latencyDegraded),
		CheckedAt: res.CheckedAt,
		Success:   success,
	}
	if !success {
		out.ErrorMessage = errMsg
	}
	if err := e.monitors.ApplyCheckOutcome(ctx, m.ID, out); err != nil {
		return err
	}

	if tr.Opened {
		e.publishEvent(ctx, m, tr.Incident, notify.EventDown, res)
	}
	if tr.Resolved {
		e.publishEvent(ctx, m, tr.Incident, notify.EventRecovered, res)
	}

	return nil
}

// failureMessage gives every failed check a human readable cause. A
// probe that got an http response but a failing status has no
// transport error, so the status line is the cause.
func failureMessage(res probe.Result, success bool) string {
	if success {
		return ""
	}
	if res.CheckError != "" {
		return res.CheckError
	}
	if res.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d", res.StatusCode)
	}
	return "check failed"
}

// recordResult writes check history and the latest-status cache. Both
// are observability paths; failures get logged and swallowed.
func (e *Engine) recordResult(ctx context.Context, m *monitor.Monitor, res probe.Result) {
	row := CheckResult{
		MonitorID:  m.ID,
		Region:     res.Region,
		Success:    res.OK,
		CheckError: res.CheckError,
		CheckedAt:  res.CheckedAt,
	}
	if res.StatusCode > 0 {
		code := int32(res.StatusCode)
		row.StatusCode = &code
	}
	if res.LatencyMs > 0 || res.OK {
		latency := res.LatencyMs
		row.LatencyMs = &latency
	}

	if err := e.results.Append(ctx, row); err != nil {
		e.logger.Warn().
			Err(err).
			Str("monitor_id", m.ID.String()).
			Str("region", res.Region).
			Msg("failed to append check result")
	}

	if err := e.status.StoreStatus(ctx, m.ID, res.Region, res.StatusCode, res.LatencyMs, res.CheckedAt); err != nil {
		e.logger.Warn().
			Err(err).
			Str("monitor_id", m.ID.String()).
			Str("region", res.Region).
			Msg("failed to refresh status cache")
	}
}

// publishEvent hands an incident transition to the notification bus.
// Notification is best effort relative to lifecycle correctness, so a
// broker failure is logged, never returned.
func (e *Engine) publishEvent(ctx context.Context, m *monitor.Monitor, inc *incident.Incident, kind notify.EventKind, res probe.Result) {
	if inc == nil {
		return
	}

	ev := notify.Event{
		Kind:            kind,
		IncidentID:      inc.ID,
		MonitorID:       m.ID,
		AccountID:       m.AccountID,
		MonitorName:     m.Name,
		Target:          m.Target,
		RegionsAffected: inc.RegionsAffected,
		StatusCode:      res.StatusCode,
		ErrorMessage:    inc.ErrorMessage,
		StartedAt:       inc.StartedAt,
		OccurredAt:      res.CheckedAt,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to encode incident event")
		return
	}

	if err := e.events.Publish(ctx, body); err != nil {
		e.logger.Error().
			Err(err).
			Str("incident_id", inc.ID.String()).
			Str("event", string(kind)).
			Msg("failed to publish incident event")
		return
	}

	if kind == notify.EventDown {
		if err := e.incidents.MarkNotified(ctx, inc.ID); err != nil {
			e.logger.Warn().
				Err(err).
				Str("incident_id", inc.ID.String()).
				Msg("failed to stamp notified_at")
		}
	}
}
