package incident

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"watchpost/internals/modules/probe"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fakeStore enforces the same single-open-incident rule the database
// partial unique index gives the real repository.
type fakeStore struct {
	mu        sync.Mutex
	incidents map[uuid.UUID]*Incident
	creates   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{incidents: make(map[uuid.UUID]*Incident)}
}

func (f *fakeStore) openFor(monitorID uuid.UUID) *Incident {
	for _, inc := range f.incidents {
		if inc.MonitorID == monitorID && inc.ResolvedAt == nil {
			return inc
		}
	}
	return nil
}

func (f *fakeStore) GetOpenByMonitor(_ context.Context, monitorID uuid.UUID) (*Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inc := f.openFor(monitorID); inc != nil {
		cp := *inc
		cp.RegionsAffected = append([]string(nil), inc.RegionsAffected...)
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateOpen(_ context.Context, monitorID uuid.UUID, region, errMsg string, startedAt time.Time) (*Incident, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.openFor(monitorID); existing != nil {
		cp := *existing
		return &cp, false, nil
	}
	inc := &Incident{
		ID:              uuid.New(),
		MonitorID:       monitorID,
		StartedAt:       startedAt,
		RegionsAffected: []string{region},
		ErrorMessage:    errMsg,
	}
	f.incidents[inc.ID] = inc
	f.creates++
	cp := *inc
	cp.RegionsAffected = append([]string(nil), inc.RegionsAffected...)
	return &cp, true, nil
}

func (f *fakeStore) AddRegion(_ context.Context, incidentID uuid.UUID, region string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc := f.incidents[incidentID]
	for _, r := range inc.RegionsAffected {
		if r == region {
			return append([]string(nil), inc.RegionsAffected...), nil
		}
	}
	inc.RegionsAffected = append(inc.RegionsAffected, region)
	return append([]string(nil), inc.RegionsAffected...), nil
}

func (f *fakeStore) RemoveRegion(_ context.Context, incidentID uuid.UUID, region string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc := f.incidents[incidentID]
	kept := inc.RegionsAffected[:0]
	for _, r := range inc.RegionsAffected {
		if r != region {
			kept = append(kept, r)
		}
	}
	inc.RegionsAffected = kept
	return append([]string(nil), kept...), nil
}

func (f *fakeStore) Resolve(_ context.Context, incidentID uuid.UUID, resolvedAt time.Time, downtimeMs int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc := f.incidents[incidentID]
	if inc.ResolvedAt != nil {
		return false, nil
	}
	inc.ResolvedAt = &resolvedAt
	inc.DowntimeMs = &downtimeMs
	return true, nil
}

func (f *fakeStore) SetNotified(_ context.Context, incidentID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc := f.incidents[incidentID]
	if inc.NotifiedAt == nil {
		inc.NotifiedAt = &at
	}
	return nil
}

func (f *fakeStore) SetAcknowledged(_ context.Context, incidentID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc := f.incidents[incidentID]
	if inc.AcknowledgedAt != nil || inc.ResolvedAt != nil {
		return false, nil
	}
	inc.AcknowledgedAt = &at
	return true, nil
}

func (f *fakeStore) AttachScreenshot(_ context.Context, incidentID uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incidents[incidentID].ScreenshotURL = url
	return nil
}

func newTestService(store Store) *Service {
	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return NewService(store, nil, &log)
}

func containsRegion(regions []string, want string) bool {
	for _, r := range regions {
		if r == want {
			return true
		}
	}
	return false
}

func TestProgressiveRegionFailure(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	monitorID := uuid.New()

	tr, err := svc.ReportFailure(ctx, monitorID, probe.KindHTTP, "https://example.com", "us-east", "connection refused")
	if err != nil {
		t.Fatalf("first failure: %v", err)
	}
	if !tr.Opened {
		t.Fatalf("want incident opened on first failing region")
	}
	if tr.AffectedCount != 1 {
		t.Fatalf("want 1 affected region, got %d", tr.AffectedCount)
	}

	tr, err = svc.ReportFailure(ctx, monitorID, probe.KindHTTP, "https://example.com", "eu-west", "connection refused")
	if err != nil {
		t.Fatalf("second failure: %v", err)
	}
	if tr.Opened {
		t.Fatalf("second failing region must extend, not open")
	}
	if tr.AffectedCount != 2 {
		t.Fatalf("want 2 affected regions, got %d", tr.AffectedCount)
	}

	tr, err = svc.ReportFailure(ctx, monitorID, probe.KindHTTP, "https://example.com", "ap-south", "connection refused")
	if err != nil {
		t.Fatalf("third failure: %v", err)
	}
	if tr.Opened || tr.AffectedCount != 3 {
		t.Fatalf("want extended incident with 3 regions, got opened=%v count=%d", tr.Opened, tr.AffectedCount)
	}
	if store.creates != 1 {
		t.Fatalf("want exactly one incident created, got %d", store.creates)
	}
}

func TestDuplicateRegionFailureIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	monitorID := uuid.New()

	if _, err := svc.ReportFailure(ctx, monitorID, probe.KindHTTP, "https://example.com", "us-east", "timeout"); err != nil {
		t.Fatalf("first failure: %v", err)
	}
	tr, err := svc.ReportFailure(ctx, monitorID, probe.KindHTTP, "https://example.com", "us-east", "timeout")
	if err != nil {
		t.Fatalf("duplicate failure: %v", err)
	}
	if tr.Opened {
		t.Fatalf("duplicate region report must not open a new incident")
	}
	if tr.AffectedCount != 1 {
		t.Fatalf("duplicate region must not grow the set, got %d", tr.AffectedCount)
	}
}

func TestProgressiveRecoveryResolvesOnce(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	monitorID := uuid.New()

	for _, region := range []string{"us-east", "eu-west", "ap-south"} {
		if _, err := svc.ReportFailure(ctx, monitorID, probe.KindTCP, "db.example.com:5432", region, "connect: refused"); err != nil {
			t.Fatalf("failure %s: %v", region, err)
		}
	}

	tr, err := svc.ReportRecovery(ctx, monitorID, "us-east")
	if err != nil {
		t.Fatalf("first recovery: %v", err)
	}
	if tr.Resolved {
		t.Fatalf("incident must stay open while regions remain affected")
	}
	if tr.AffectedCount != 2 {
		t.Fatalf("want 2 remaining regions, got %d", tr.AffectedCount)
	}
	if containsRegion(tr.Incident.RegionsAffected, "us-east") {
		t.Fatalf("recovered region still listed as affected")
	}

	if _, err := svc.ReportRecovery(ctx, monitorID, "eu-west"); err != nil {
		t.Fatalf("second recovery: %v", err)
	}

	tr, err = svc.ReportRecovery(ctx, monitorID, "ap-south")
	if err != nil {
		t.Fatalf("last recovery: %v", err)
	}
	if !tr.Resolved {
		t.Fatalf("removing the last affected region must resolve the incident")
	}
	if tr.Incident.ResolvedAt == nil || tr.Incident.DowntimeMs == nil {
		t.Fatalf("resolved incident missing resolved_at or downtime")
	}

	// A recovery after resolution finds no open incident and is a no-op.
	tr, err = svc.ReportRecovery(ctx, monitorID, "ap-south")
	if err != nil {
		t.Fatalf("post-resolve recovery: %v", err)
	}
	if tr.Incident != nil || tr.Resolved {
		t.Fatalf("recovery on healthy monitor must be a no-op, got %+v", tr)
	}
}

func TestRecoveryWithoutIncidentIsNoOp(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	tr, err := svc.ReportRecovery(context.Background(), uuid.New(), "us-east")
	if err != nil {
		t.Fatalf("recovery: %v", err)
	}
	if tr.Incident != nil || tr.Opened || tr.Resolved {
		t.Fatalf("want empty transition, got %+v", tr)
	}
}

func TestConcurrentFailuresOpenSingleIncident(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	monitorID := uuid.New()
	regions := []string{"us-east", "eu-west", "ap-south", "sa-east", "au-syd"}

	var wg sync.WaitGroup
	opened := make(chan bool, len(regions)*4)
	for i := 0; i < 4; i++ {
		for _, region := range regions {
			wg.Add(1)
			go func(region string) {
				defer wg.Done()
				tr, err := svc.ReportFailure(ctx, monitorID, probe.KindHTTP, "https://example.com", region, "503")
				if err != nil {
					t.Errorf("concurrent failure %s: %v", region, err)
					return
				}
				opened <- tr.Opened
			}(region)
		}
	}
	wg.Wait()
	close(opened)

	openCount := 0
	for wasOpen := range opened {
		if wasOpen {
			openCount++
		}
	}
	if openCount != 1 {
		t.Fatalf("want exactly one Opened transition, got %d", openCount)
	}
	if store.creates != 1 {
		t.Fatalf("want exactly one stored incident, got %d", store.creates)
	}

	inc, err := store.GetOpenByMonitor(ctx, monitorID)
	if err != nil || inc == nil {
		t.Fatalf("open incident missing after concurrent failures: %v", err)
	}
	if len(inc.RegionsAffected) != len(regions) {
		t.Fatalf("want %d affected regions, got %v", len(regions), inc.RegionsAffected)
	}
}

func TestDowntimeMatchesResolveInterval(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	monitorID := uuid.New()

	tr, err := svc.ReportFailure(ctx, monitorID, probe.KindHTTP, "https://example.com", "us-east", "502")
	if err != nil {
		t.Fatalf("failure: %v", err)
	}
	startedAt := tr.Incident.StartedAt

	tr, err = svc.ReportRecovery(ctx, monitorID, "us-east")
	if err != nil {
		t.Fatalf("recovery: %v", err)
	}
	if !tr.Resolved {
		t.Fatalf("want resolved transition")
	}

	want := tr.Incident.ResolvedAt.Sub(startedAt).Milliseconds()
	if *tr.Incident.DowntimeMs != want {
		t.Fatalf("downtime %dms does not match resolved-started %dms", *tr.Incident.DowntimeMs, want)
	}
}

func TestAcknowledgeOnlyOnce(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()
	monitorID := uuid.New()

	tr, err := svc.ReportFailure(ctx, monitorID, probe.KindHTTP, "https://example.com", "us-east", "500")
	if err != nil {
		t.Fatalf("failure: %v", err)
	}

	applied, err := svc.Acknowledge(ctx, tr.Incident.ID)
	if err != nil || !applied {
		t.Fatalf("first acknowledge: applied=%v err=%v", applied, err)
	}
	applied, err = svc.Acknowledge(ctx, tr.Incident.ID)
	if err != nil {
		t.Fatalf("second acknowledge: %v", err)
	}
	if applied {
		t.Fatalf("acknowledging twice must not apply again")
	}
}
