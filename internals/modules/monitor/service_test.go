package monitor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"watchpost/internals/modules/probe"
	"watchpost/pkg/apperror"

	"github.com/google/uuid"
)

type fakeStore struct {
	monitors map[uuid.UUID]*Monitor

	createdID uuid.UUID
	statusSet map[uuid.UUID]Status
	enabled   map[uuid.UUID]bool
	outcomes  map[uuid.UUID]CheckOutcome
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		monitors:  make(map[uuid.UUID]*Monitor),
		statusSet: make(map[uuid.UUID]Status),
		enabled:   make(map[uuid.UUID]bool),
		outcomes:  make(map[uuid.UUID]CheckOutcome),
	}
}

func (f *fakeStore) Create(_ context.Context, cmd CreateMonitorCmd) (uuid.UUID, error) {
	id := uuid.New()
	f.createdID = id
	f.monitors[id] = &Monitor{
		ID:          id,
		AccountID:   cmd.AccountID,
		Name:        cmd.Name,
		Kind:        cmd.Kind,
		Target:      cmd.Target,
		Regions:     cmd.Regions,
		IntervalSec: cmd.IntervalSec,
		Status:      StatusInitializing,
		Enabled:     true,
	}
	return id, nil
}

func (f *fakeStore) GetByID(_ context.Context, monitorID uuid.UUID) (*Monitor, error) {
	m, ok := f.monitors[monitorID]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "fake.get", nil)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) GetAll(_ context.Context, accountID uuid.UUID, _, _ int32) ([]Monitor, error) {
	var out []Monitor
	for _, m := range f.monitors {
		if m.AccountID == accountID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) SetStatus(_ context.Context, accountID, monitorID uuid.UUID, status Status) (bool, error) {
	m, ok := f.monitors[monitorID]
	if !ok || m.AccountID != accountID {
		return false, nil
	}
	m.Status = status
	f.statusSet[monitorID] = status
	return true, nil
}

func (f *fakeStore) SetEnabled(_ context.Context, accountID, monitorID uuid.UUID, enabled bool) (bool, error) {
	m, ok := f.monitors[monitorID]
	if !ok || m.AccountID != accountID {
		return false, nil
	}
	m.Enabled = enabled
	f.enabled[monitorID] = enabled
	return true, nil
}

func (f *fakeStore) ApplyCheckOutcome(_ context.Context, monitorID uuid.UUID, out CheckOutcome) error {
	f.outcomes[monitorID] = out
	if m, ok := f.monitors[monitorID]; ok {
		m.Status = out.Status
	}
	return nil
}

type fakeCache struct {
	entries   map[uuid.UUID][]byte
	scheduled map[string]time.Time

	monitorDels  int
	scheduleDels int
	statusDels   int
	cacheSets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:   make(map[uuid.UUID][]byte),
		scheduled: make(map[string]time.Time),
	}
}

func (f *fakeCache) GetMonitor(_ context.Context, id uuid.UUID) ([]byte, bool) {
	data, ok := f.entries[id]
	return data, ok
}

func (f *fakeCache) SetMonitor(_ context.Context, id uuid.UUID, data []byte) error {
	f.entries[id] = data
	f.cacheSets++
	return nil
}

func (f *fakeCache) DelMonitor(_ context.Context, id uuid.UUID) error {
	delete(f.entries, id)
	f.monitorDels++
	return nil
}

func (f *fakeCache) Schedule(_ context.Context, monitorID string, nextRun time.Time) error {
	f.scheduled[monitorID] = nextRun
	return nil
}

func (f *fakeCache) DelSchedule(_ context.Context, monitorID string) error {
	delete(f.scheduled, monitorID)
	f.scheduleDels++
	return nil
}

func (f *fakeCache) GetStatus(_ context.Context, _ uuid.UUID) (map[string]string, error) {
	return nil, nil
}

func (f *fakeCache) DelStatus(_ context.Context, _ uuid.UUID) error {
	f.statusDels++
	return nil
}

func validCmd(accountID uuid.UUID) CreateMonitorCmd {
	return CreateMonitorCmd{
		AccountID:   accountID,
		Name:        "checkout api",
		Kind:        probe.KindHTTP,
		Target:      "https://shop.example.com/health",
		Regions:     []string{"us-east", "eu-west"},
		IntervalSec: 60,
	}
}

func TestCreateMonitorSchedulesFirstCheck(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := NewService(store, cache)

	id, err := svc.CreateMonitor(context.Background(), validCmd(uuid.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != store.createdID {
		t.Fatalf("want created id %s, got %s", store.createdID, id)
	}

	next, ok := cache.scheduled[id.String()]
	if !ok {
		t.Fatal("monitor was not scheduled after create")
	}
	until := time.Until(next)
	if until < 55*time.Second || until > 65*time.Second {
		t.Fatalf("next run not near the interval: %v away", until)
	}
}

func TestCreateMonitorRejectsBadInput(t *testing.T) {
	svc := NewService(newFakeStore(), newFakeCache())

	noRegions := validCmd(uuid.New())
	noRegions.Regions = nil
	if _, err := svc.CreateMonitor(context.Background(), noRegions); !apperror.IsKind(err, apperror.InvalidInput) {
		t.Fatalf("want InvalidInput for empty regions, got %v", err)
	}

	badTarget := validCmd(uuid.New())
	badTarget.Target = "not a url"
	if _, err := svc.CreateMonitor(context.Background(), badTarget); !apperror.IsKind(err, apperror.InvalidInput) {
		t.Fatalf("want InvalidInput for bad target, got %v", err)
	}

	badTCP := validCmd(uuid.New())
	badTCP.Kind = probe.KindTCP
	badTCP.Target = "db.example.com"
	if _, err := svc.CreateMonitor(context.Background(), badTCP); !apperror.IsKind(err, apperror.InvalidInput) {
		t.Fatalf("want InvalidInput for tcp target without port, got %v", err)
	}
}

func TestLoadMonitorFillsAndUsesCache(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := NewService(store, cache)

	id, err := svc.CreateMonitor(context.Background(), validCmd(uuid.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// first load misses the cache and fills it
	m, err := svc.LoadMonitor(context.Background(), id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cache.cacheSets != 1 {
		t.Fatalf("want one cache fill, got %d", cache.cacheSets)
	}

	// second load must be served from the cache
	store.monitors[id].Name = "renamed in db only"
	m2, err := svc.LoadMonitor(context.Background(), id)
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if m2.Name != m.Name {
		t.Fatalf("load bypassed the cache: got %q", m2.Name)
	}
}

func TestLoadMonitorRecoversFromCorruptCacheEntry(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := NewService(store, cache)

	id, err := svc.CreateMonitor(context.Background(), validCmd(uuid.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cache.entries[id] = []byte("{not json")

	m, err := svc.LoadMonitor(context.Background(), id)
	if err != nil {
		t.Fatalf("load with corrupt cache: %v", err)
	}
	if m.ID != id {
		t.Fatalf("want monitor %s, got %s", id, m.ID)
	}

	var fresh Monitor
	if err := json.Unmarshal(cache.entries[id], &fresh); err != nil {
		t.Fatalf("cache entry not rewritten: %v", err)
	}
}

func TestGetMonitorScopesByOwner(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, newFakeCache())

	owner := uuid.New()
	id, err := svc.CreateMonitor(context.Background(), validCmd(owner))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetMonitor(context.Background(), owner, id); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetMonitor(context.Background(), uuid.New(), id); !apperror.IsKind(err, apperror.Forbidden) {
		t.Fatalf("want Forbidden for other account, got %v", err)
	}
	if err := svc.VerifyMonitorOwner(context.Background(), uuid.New(), id); !apperror.IsKind(err, apperror.Forbidden) {
		t.Fatalf("want Forbidden from owner check, got %v", err)
	}
}

func TestPauseClearsScheduleAndCache(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := NewService(store, cache)

	owner := uuid.New()
	id, err := svc.CreateMonitor(context.Background(), validCmd(owner))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SetAdministrativeStatus(context.Background(), owner, id, StatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if store.statusSet[id] != StatusPaused {
		t.Fatalf("want status paused, got %s", store.statusSet[id])
	}
	if _, ok := cache.scheduled[id.String()]; ok {
		t.Fatal("paused monitor still scheduled")
	}
	if cache.statusDels == 0 {
		t.Fatal("region status was not cleared on pause")
	}
}

func TestResumeReschedules(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := NewService(store, cache)

	owner := uuid.New()
	id, err := svc.CreateMonitor(context.Background(), validCmd(owner))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.SetAdministrativeStatus(context.Background(), owner, id, StatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if err := svc.SetAdministrativeStatus(context.Background(), owner, id, StatusInitializing); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if store.statusSet[id] != StatusInitializing {
		t.Fatalf("want status initializing after resume, got %s", store.statusSet[id])
	}
	if _, ok := cache.scheduled[id.String()]; !ok {
		t.Fatal("resumed monitor was not rescheduled")
	}
}

func TestSetAdministrativeStatusRejectsPipelineStatuses(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, newFakeCache())

	owner := uuid.New()
	id, err := svc.CreateMonitor(context.Background(), validCmd(owner))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.SetAdministrativeStatus(context.Background(), owner, id, StatusError)
	if !apperror.IsKind(err, apperror.InvalidInput) {
		t.Fatalf("want InvalidInput for operator-set error status, got %v", err)
	}
}

func TestSetEnabledControlsSchedule(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := NewService(store, cache)

	owner := uuid.New()
	id, err := svc.CreateMonitor(context.Background(), validCmd(owner))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SetEnabled(context.Background(), owner, id, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if store.enabled[id] {
		t.Fatal("monitor still enabled in store")
	}
	if _, ok := cache.scheduled[id.String()]; ok {
		t.Fatal("disabled monitor still scheduled")
	}

	if err := svc.SetEnabled(context.Background(), owner, id, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !store.enabled[id] {
		t.Fatal("monitor not re-enabled in store")
	}
	if _, ok := cache.scheduled[id.String()]; !ok {
		t.Fatal("re-enabled monitor was not rescheduled")
	}

	err = svc.SetEnabled(context.Background(), owner, uuid.New(), false)
	if !apperror.IsKind(err, apperror.NotFound) {
		t.Fatalf("want NotFound for unknown monitor, got %v", err)
	}
}

func TestApplyCheckOutcomeInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := NewService(store, cache)

	id, err := svc.CreateMonitor(context.Background(), validCmd(uuid.New()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.LoadMonitor(context.Background(), id); err != nil {
		t.Fatalf("load: %v", err)
	}

	out := CheckOutcome{Status: StatusError, ErrorMessage: "connect refused", CheckedAt: time.Now(), Success: false}
	if err := svc.ApplyCheckOutcome(context.Background(), id, out); err != nil {
		t.Fatalf("apply outcome: %v", err)
	}
	if got := store.outcomes[id]; got.Status != StatusError {
		t.Fatalf("want error status persisted, got %s", got.Status)
	}
	if _, ok := cache.entries[id]; ok {
		t.Fatal("cached monitor not invalidated after outcome")
	}

	m, err := svc.LoadMonitor(context.Background(), id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m.Status != StatusError {
		t.Fatalf("want fresh status error, got %s", m.Status)
	}
}
