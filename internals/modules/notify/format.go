package notify

import (
	"fmt"
	"strings"
	"time"
)

// FormatDowntime renders a duration the way a status page would:
// "2 days 3 hours 12 minutes", dropping units that are zero from the
// coarse end. Anything under a minute reads in seconds.
func FormatDowntime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return plural(int64(d.Round(time.Second)/time.Second), "second")
	}

	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %s", n, unit+"s")
}

func downSubject(ev Event) string {
	return fmt.Sprintf("[DOWN] %s is down", ev.MonitorName)
}

func downBody(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) is failing from %s.\n", ev.MonitorName, ev.Target, strings.Join(ev.RegionsAffected, ", "))
	if ev.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error: %s\n", ev.ErrorMessage)
	}
	fmt.Fprintf(&b, "Started at %s.", ev.StartedAt.UTC().Format(time.RFC3339))
	return b.String()
}

func recoverySubject(ev Event) string {
	return fmt.Sprintf("[RESOLVED] %s is back up", ev.MonitorName)
}

func recoveryBody(ev Event) string {
	return fmt.Sprintf("%s (%s) recovered at %s after %s of downtime.",
		ev.MonitorName, ev.Target,
		ev.OccurredAt.UTC().Format(time.RFC3339),
		FormatDowntime(ev.Downtime()))
}
