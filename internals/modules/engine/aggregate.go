package engine

import (
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/probe"
)

// isSuccess is the single success determination: transport completion
// plus, for HTTP, a non-failing status code. A 4xx/5xx reply reached
// the target and still counts as a failing check.
func isSuccess(kind probe.Kind, res probe.Result) bool {
	if !res.OK {
		return false
	}
	if kind == probe.KindHTTP {
		return res.StatusCode < 400
	}
	return true
}

// isDegradedLatency flags a successful probe that exceeded the
// monitor's latency threshold. Latency alone never opens an incident;
// it only colors the monitor status.
func isDegradedLatency(m *monitor.Monitor, res probe.Result, success bool) bool {
	return success && m.DegradedThresholdMs > 0 && res.LatencyMs > int64(m.DegradedThresholdMs)
}

// aggregateStatus folds the affected-region count into a monitor
// status: no affected regions is healthy (or latency-degraded), a
// strict subset is degraded, the full set is error.
func aggregateStatus(affected, total int, latencyDegraded bool) monitor.Status {
	switch {
	case affected <= 0:
		if latencyDegraded {
			return monitor.StatusDegraded
		}
		return monitor.StatusActive
	case affected < total:
		return monitor.StatusDegraded
	default:
		return monitor.StatusError
	}
}
