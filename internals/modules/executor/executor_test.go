package executor

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"watchpost/config"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/probe"
	"watchpost/internals/modules/scheduler"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeLoader struct {
	m   *monitor.Monitor
	err error
}

func (f *fakeLoader) LoadMonitor(context.Context, uuid.UUID) (*monitor.Monitor, error) {
	return f.m, f.err
}

type fakeRunner struct {
	mu      sync.Mutex
	regions []string
}

func (f *fakeRunner) RunCheck(_ context.Context, _ uuid.UUID, region string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regions = append(f.regions, region)
	return nil
}

func (f *fakeRunner) ran() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.regions...)
	sort.Strings(out)
	return out
}

type fakeQueue struct {
	mu        sync.Mutex
	scheduled []time.Time
	acked     []string
}

func (f *fakeQueue) Schedule(_ context.Context, _ string, nextRun time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, nextRun)
	return nil
}

func (f *fakeQueue) AckJob(_ context.Context, monitorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, monitorID)
	return nil
}

func testExecutor(t *testing.T, loader MonitorLoader, runner CheckRunner, queue JobQueue) *Executor {
	t.Helper()
	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return NewExecutor(
		context.Background(),
		&config.ExecutorConfig{WorkerCount: 1, ProbeSemCount: 4},
		nil, loader, runner, queue, &log,
	)
}

func TestProcessFansOutPerRegion(t *testing.T) {
	m := &monitor.Monitor{
		ID:          uuid.New(),
		Kind:        probe.KindHTTP,
		Target:      "https://example.com",
		Regions:     []string{"us-east", "eu-west", "ap-south"},
		IntervalSec: 60,
		Status:      monitor.StatusActive,
		Enabled:     true,
	}
	runner := &fakeRunner{}
	queue := &fakeQueue{}
	ex := testExecutor(t, &fakeLoader{m: m}, runner, queue)

	before := time.Now()
	ex.process(scheduler.JobPayload{MonitorID: m.ID})

	want := []string{"ap-south", "eu-west", "us-east"}
	got := runner.ran()
	if len(got) != len(want) {
		t.Fatalf("want checks in %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want checks in %v, got %v", want, got)
		}
	}

	if len(queue.acked) != 1 || queue.acked[0] != m.ID.String() {
		t.Fatalf("job must be acked after fan-out, got %v", queue.acked)
	}
	if len(queue.scheduled) != 1 {
		t.Fatalf("want one reschedule, got %d", len(queue.scheduled))
	}
	next := queue.scheduled[0]
	if next.Before(before.Add(60*time.Second)) || next.After(time.Now().Add(61*time.Second)) {
		t.Fatalf("next run %v not about interval from now", next)
	}
}

func TestProcessSkipsPausedAndDisabled(t *testing.T) {
	for _, tc := range []struct {
		name string
		mod  func(*monitor.Monitor)
	}{
		{"paused", func(m *monitor.Monitor) { m.Status = monitor.StatusPaused }},
		{"disabled", func(m *monitor.Monitor) { m.Enabled = false }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := &monitor.Monitor{
				ID:      uuid.New(),
				Regions: []string{"us-east"},
				Status:  monitor.StatusActive,
				Enabled: true,
			}
			tc.mod(m)
			runner := &fakeRunner{}
			queue := &fakeQueue{}
			ex := testExecutor(t, &fakeLoader{m: m}, runner, queue)

			ex.process(scheduler.JobPayload{MonitorID: m.ID})

			if len(runner.ran()) != 0 {
				t.Fatalf("no checks expected, got %v", runner.ran())
			}
			if len(queue.acked) != 1 {
				t.Fatalf("skipped job must still be acked")
			}
			if len(queue.scheduled) != 0 {
				t.Fatalf("skipped job must not be rescheduled")
			}
		})
	}
}

func TestProcessDropsDeletedMonitor(t *testing.T) {
	loader := &fakeLoader{err: apperror.New(apperror.NotFound, "repo.monitor.get", errors.New("no rows"))}
	queue := &fakeQueue{}
	ex := testExecutor(t, loader, &fakeRunner{}, queue)

	id := uuid.New()
	ex.process(scheduler.JobPayload{MonitorID: id})

	if len(queue.acked) != 1 || queue.acked[0] != id.String() {
		t.Fatalf("deleted monitor's job must be acked away, got %v", queue.acked)
	}
}

func TestProcessLeavesJobInflightOnLoadError(t *testing.T) {
	loader := &fakeLoader{err: apperror.New(apperror.DatabaseErr, "repo.monitor.get", errors.New("conn reset"))}
	queue := &fakeQueue{}
	ex := testExecutor(t, loader, &fakeRunner{}, queue)

	ex.process(scheduler.JobPayload{MonitorID: uuid.New()})

	if len(queue.acked) != 0 || len(queue.scheduled) != 0 {
		t.Fatalf("transient load failure must leave the job for the reclaimer, got acked=%v scheduled=%v", queue.acked, queue.scheduled)
	}
}
