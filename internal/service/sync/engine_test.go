package sync

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/retry"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/sse"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	punches []punch.PendingPunch
}

func (f *fakeQueue) Enqueue(_ context.Context, p punch.PendingPunch) error {
	f.punches = append(f.punches, p)
	return nil
}

func (f *fakeQueue) ListUnsynced(_ context.Context) ([]punch.PendingPunch, error) {
	var unsynced []punch.PendingPunch
	for _, p := range f.punches {
		if !p.Synced {
			unsynced = append(unsynced, p)
		}
	}
	return unsynced, nil
}

func (f *fakeQueue) MarkSynced(_ context.Context, id string, syncedAt time.Time, merged bool) error {
	for i := range f.punches {
		if f.punches[i].ID == id {
			f.punches[i].Synced = true
			f.punches[i].SyncedAt = &syncedAt
			f.punches[i].MergedFromOffline = merged
			return nil
		}
	}
	return punch.ErrPunchNotFound
}

func (f *fakeQueue) PurgeSyncedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []punch.PendingPunch
	var purged int64
	for _, p := range f.punches {
		if p.Synced && p.CapturedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, p)
	}
	f.punches = kept
	return purged, nil
}

func (f *fakeQueue) CountUnsynced(_ context.Context) (int, error) {
	count := 0
	for _, p := range f.punches {
		if !p.Synced {
			count++
		}
	}
	return count, nil
}

func (f *fakeQueue) byID(id string) *punch.PendingPunch {
	for i := range f.punches {
		if f.punches[i].ID == id {
			return &f.punches[i]
		}
	}
	return nil
}

type fakeStates struct {
	states map[string]punch.DayState
}

func newFakeStates() *fakeStates {
	return &fakeStates{states: make(map[string]punch.DayState)}
}

func (f *fakeStates) GetByDate(_ context.Context, date string) (*punch.DayState, error) {
	state, ok := f.states[date]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (f *fakeStates) Upsert(_ context.Context, state punch.DayState) error {
	f.states[state.Date] = state
	return nil
}

func (f *fakeStates) PurgeBefore(_ context.Context, cutoffDate string) (int64, error) {
	var purged int64
	for date := range f.states {
		if date < cutoffDate {
			delete(f.states, date)
			purged++
		}
	}
	return purged, nil
}

// fakeBackend scripts the remote side of a sync pass: per-date server
// records and per-ID submission errors.
type fakeBackend struct {
	days map[string]*punch.ServerDayRecord
	// errQueue scripts submission results in call order.
	errQueue []error
	submits  int
	dayCalls int
	dayErr   error
}

func (f *fakeBackend) DayRecord(_ context.Context, date string) (*punch.ServerDayRecord, error) {
	f.dayCalls++
	if f.dayErr != nil {
		return nil, f.dayErr
	}
	return f.days[date], nil
}

func (f *fakeBackend) nextErr() error {
	if len(f.errQueue) == 0 {
		return nil
	}
	err := f.errQueue[0]
	f.errQueue = f.errQueue[1:]
	return err
}

func (f *fakeBackend) CheckIn(context.Context, float64, float64, punch.ScanType) (string, error) {
	f.submits++
	return "recorded", f.nextErr()
}

func (f *fakeBackend) CheckOut(context.Context, float64, float64, punch.ScanType) (string, error) {
	f.submits++
	return "recorded", f.nextErr()
}

func newTestEngine(queue *fakeQueue, states *fakeStates, backend *fakeBackend, hub *sse.Hub, now time.Time) *Engine {
	return &Engine{
		queue:    queue,
		states:   states,
		remote:   backend,
		hub:      hub,
		validate: validator.New(),
		netPolicy: retry.Policy{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
			Multiplier:   1,
			Retryable:    retry.NetworkRetryable,
		},
		now: func() time.Time { return now },
	}
}

func pendingPunch(id string, t punch.AttendanceType, capturedAt time.Time) punch.PendingPunch {
	return punch.PendingPunch{
		ID:             id,
		EmployeeID:     "emp-1",
		Latitude:       -6.2,
		Longitude:      106.8,
		ScanType:       punch.ScanFace,
		AttendanceType: t,
		CapturedAt:     capturedAt,
	}
}

func TestSyncNowDrainsQueueInOrder(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	queue := &fakeQueue{punches: []punch.PendingPunch{
		pendingPunch("out", punch.CheckOut, now.Add(-1*time.Hour)),
		pendingPunch("in", punch.CheckIn, now.Add(-10*time.Hour)),
	}}
	states := newFakeStates()
	backend := &fakeBackend{}
	engine := newTestEngine(queue, states, backend, nil, now)

	report, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Submitted)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 0, report.Remaining)
	assert.Equal(t, 2, backend.submits)
	require.Len(t, report.Confirmations, 2)
	assert.Equal(t, "in", report.Confirmations[0].PunchID, "replay runs in capture order")
	assert.Equal(t, "out", report.Confirmations[1].PunchID)

	assert.True(t, queue.byID("in").Synced)
	assert.True(t, queue.byID("out").Synced)

	state := states.states["2026-03-09"]
	assert.True(t, state.HasCheckedIn)
	assert.True(t, state.HasCheckedOut)
}

func TestSyncNowEmptyQueue(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(&fakeQueue{}, newFakeStates(), &fakeBackend{}, nil, now)

	report, err := engine.SyncNow(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Submitted)
	assert.Zero(t, report.Remaining)
}

func TestSyncNowSkipsWhenServerNewer(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	captured := now.Add(-10 * time.Hour)
	serverIn := captured.Add(5 * time.Minute)

	queue := &fakeQueue{punches: []punch.PendingPunch{
		pendingPunch("in", punch.CheckIn, captured),
	}}
	backend := &fakeBackend{days: map[string]*punch.ServerDayRecord{
		"2026-03-09": {Date: "2026-03-09", ClockIn: &serverIn},
	}}
	states := newFakeStates()
	engine := newTestEngine(queue, states, backend, nil, now)

	report, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.SkippedServer)
	assert.Zero(t, report.Submitted)
	assert.Zero(t, backend.submits, "server-preferred punches are not resubmitted")
	assert.True(t, queue.byID("in").Synced)
	assert.False(t, queue.byID("in").MergedFromOffline)
}

func TestSyncNowMergesOnTimestampTie(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	captured := now.Add(-10 * time.Hour)

	queue := &fakeQueue{punches: []punch.PendingPunch{
		pendingPunch("in", punch.CheckIn, captured),
	}}
	backend := &fakeBackend{days: map[string]*punch.ServerDayRecord{
		"2026-03-09": {Date: "2026-03-09", ClockIn: &captured},
	}}
	engine := newTestEngine(queue, newFakeStates(), backend, nil, now)

	report, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Merged)
	assert.Zero(t, backend.submits)
	assert.True(t, queue.byID("in").Synced)
	assert.True(t, queue.byID("in").MergedFromOffline)
}

func TestSyncNowContinuesPastFinalRejection(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	queue := &fakeQueue{punches: []punch.PendingPunch{
		pendingPunch("in", punch.CheckIn, now.Add(-10*time.Hour)),
		pendingPunch("out", punch.CheckOut, now.Add(-1*time.Hour)),
	}}
	backend := &fakeBackend{errQueue: []error{
		&punch.ServerError{Code: 422, Detail: "outside geofence"},
		nil,
	}}
	engine := newTestEngine(queue, newFakeStates(), backend, nil, now)

	report, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Submitted)
	assert.Equal(t, 1, report.Remaining, "rejected punches stay queued")
	assert.False(t, queue.byID("in").Synced)
	assert.True(t, queue.byID("out").Synced)
}

func TestSyncNowAbortsWhenConnectivityDrops(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	queue := &fakeQueue{punches: []punch.PendingPunch{
		pendingPunch("in", punch.CheckIn, now.Add(-10*time.Hour)),
		pendingPunch("out", punch.CheckOut, now.Add(-1*time.Hour)),
	}}
	backend := &fakeBackend{dayErr: punch.ErrNetworkUnavailable}
	engine := newTestEngine(queue, newFakeStates(), backend, nil, now)

	report, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Submitted)
	assert.Equal(t, 2, report.Remaining)
	assert.Zero(t, backend.submits)
	// Reconciliation retried the first record, then gave up on the pass.
	assert.Equal(t, 3, backend.dayCalls)
}

func TestSyncNowCoalescesConcurrentTriggers(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(&fakeQueue{}, newFakeStates(), &fakeBackend{}, nil, now)

	engine.running.Store(true)
	_, err := engine.SyncNow(context.Background())
	assert.ErrorIs(t, err, punch.ErrSyncInProgress)

	engine.running.Store(false)
	_, err = engine.SyncNow(context.Background())
	assert.NoError(t, err)
}

func TestSyncNowFlagsInvalidRecords(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	stale := pendingPunch("stale", punch.CheckIn, now.AddDate(0, 0, -8))
	missingEmployee := pendingPunch("anon", punch.CheckOut, now.Add(-1*time.Hour))
	missingEmployee.EmployeeID = ""

	queue := &fakeQueue{punches: []punch.PendingPunch{stale, missingEmployee}}
	backend := &fakeBackend{}
	engine := newTestEngine(queue, newFakeStates(), backend, nil, now)

	report, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Invalid)
	assert.Zero(t, report.Submitted)
	assert.Zero(t, backend.submits)
	assert.Equal(t, 2, report.Remaining, "invalid records are never deleted")
}

func TestSyncNowMarksSupersededDuplicates(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	base := now.Add(-10 * time.Hour)
	queue := &fakeQueue{punches: []punch.PendingPunch{
		pendingPunch("first", punch.CheckIn, base),
		pendingPunch("retake", punch.CheckIn, base.Add(1*time.Minute)),
	}}
	backend := &fakeBackend{}
	engine := newTestEngine(queue, newFakeStates(), backend, nil, now)

	report, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Submitted)
	assert.Equal(t, 1, backend.submits, "only the latest duplicate is submitted")
	assert.True(t, queue.byID("first").Synced)
	assert.True(t, queue.byID("retake").Synced)
	assert.Zero(t, report.Remaining)
}

func TestSyncNowPurgesOldSyncedPunches(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	syncedAt := now.Add(-8 * 24 * time.Hour)

	old := pendingPunch("old", punch.CheckIn, now.AddDate(0, 0, -8))
	old.Synced = true
	old.SyncedAt = &syncedAt
	recent := pendingPunch("recent", punch.CheckIn, now.AddDate(0, 0, -6))
	recent.Synced = true

	queue := &fakeQueue{punches: []punch.PendingPunch{old, recent}}
	engine := newTestEngine(queue, newFakeStates(), &fakeBackend{}, nil, now)

	_, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	assert.Nil(t, queue.byID("old"), "synced punches past retention are purged")
	assert.NotNil(t, queue.byID("recent"))
}

func TestSyncNowPublishesLifecycleEvents(t *testing.T) {
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	queue := &fakeQueue{punches: []punch.PendingPunch{
		pendingPunch("in", punch.CheckIn, now.Add(-10*time.Hour)),
	}}
	hub := sse.NewHub()
	events, cleanup := hub.Subscribe()
	defer cleanup()

	engine := newTestEngine(queue, newFakeStates(), &fakeBackend{}, hub, now)

	_, err := engine.SyncNow(context.Background())
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, sse.StatusSyncing, first.Status)
	assert.Equal(t, 1, first.UnsyncedCount)

	last := <-events
	assert.Equal(t, sse.StatusSuccess, last.Status)
	assert.Equal(t, 0, last.UnsyncedCount)
}
