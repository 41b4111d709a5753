package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/retry"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/sse"
	"github.com/go-playground/validator/v10"
)

const timeLayout = "2006-01-02 15:04:05"

// maxRecordAgeDays is how far back a queued punch may be replayed;
// older records are flagged invalid and left for manual resolution.
const maxRecordAgeDays = 7

// RemoteClient is the slice of the backend API the sync engine needs.
type RemoteClient interface {
	CheckIn(ctx context.Context, lat, lng float64, scanType punch.ScanType) (string, error)
	CheckOut(ctx context.Context, lat, lng float64, scanType punch.ScanType) (string, error)
	DayRecord(ctx context.Context, date string) (*punch.ServerDayRecord, error)
}

// Engine drains the offline queue against the backend: deduplicate,
// reconcile per record, replay in capture order, report as a batch.
type Engine struct {
	queue     punch.QueueRepository
	states    punch.DayStateRepository
	remote    RemoteClient
	hub       *sse.Hub
	validate  *validator.Validate
	netPolicy retry.Policy
	running   atomic.Bool
	now       func() time.Time
}

func NewEngine(
	queue punch.QueueRepository,
	states punch.DayStateRepository,
	remote RemoteClient,
	hub *sse.Hub,
) *Engine {
	return &Engine{
		queue:     queue,
		states:    states,
		remote:    remote,
		hub:       hub,
		validate:  validator.New(),
		netPolicy: retry.NetworkPolicy(),
		now:       time.Now,
	}
}

// queuedRecord is the validation view of a PendingPunch; invalid
// records are reported and left unsynced, never submitted or deleted.
type queuedRecord struct {
	EmployeeID     string  `validate:"required"`
	Latitude       float64 `validate:"gte=-90,lte=90"`
	Longitude      float64 `validate:"gte=-180,lte=180"`
	ScanType       string  `validate:"oneof=face fingerprint"`
	AttendanceType string  `validate:"oneof=check_in check_out"`
}

// SyncNow implements punch.Syncer. Triggers arriving while a pass is
// in flight are coalesced: the caller gets ErrSyncInProgress and the
// in-flight pass keeps going.
func (e *Engine) SyncNow(ctx context.Context) (punch.SyncReport, error) {
	if !e.running.CompareAndSwap(false, true) {
		return punch.SyncReport{}, punch.ErrSyncInProgress
	}
	defer e.running.Store(false)

	records, err := e.queue.ListUnsynced(ctx)
	if err != nil {
		return punch.SyncReport{}, fmt.Errorf("%w: %v", punch.ErrStorage, err)
	}

	report := punch.SyncReport{}
	e.publish(sse.StatusSyncing, fmt.Sprintf("syncing %d offline punches", len(records)), len(records))

	if len(records) == 0 {
		e.publish(sse.StatusSuccess, "offline queue is empty", 0)
		return report, nil
	}

	batch, superseded := Deduplicate(records)

	aborted := false
	for _, rec := range batch {
		if ctx.Err() != nil {
			aborted = true
			break
		}

		if err := e.validateRecord(rec); err != nil {
			report.Invalid++
			slog.Warn("skipping invalid queued punch", "punch_id", rec.ID, "error", err)
			e.publish(sse.StatusFailed, fmt.Sprintf("punch %s failed validation: %v", rec.ID, err), 0)
			continue
		}

		if err := e.reconcile(ctx, rec, superseded, &report); err != nil {
			if retry.NetworkRetryable(err) {
				// Connectivity dropped mid-pass; abort and let the
				// next trigger resume from where we stopped.
				slog.Info("connectivity lost during sync pass, aborting", "punch_id", rec.ID, "error", err)
				aborted = true
				break
			}
			report.Failed++
			slog.Error("queued punch rejected by server", "punch_id", rec.ID, "error", err)
			e.publish(sse.StatusFailed, fmt.Sprintf("punch %s rejected: %v", rec.ID, err), 0)
		}
	}

	if purged, err := e.queue.PurgeSyncedBefore(ctx, e.now().AddDate(0, 0, -maxRecordAgeDays)); err != nil {
		slog.Error("retention purge after sync pass failed", "error", err)
	} else if purged > 0 {
		slog.Info("purged synced punches past retention", "count", purged)
	}

	remaining, err := e.queue.CountUnsynced(ctx)
	if err != nil {
		slog.Error("failed to count unsynced punches after pass", "error", err)
	}
	report.Remaining = remaining

	switch {
	case aborted:
		e.publish(sse.StatusFailed, "sync pass aborted, will retry when connected", remaining)
	case report.Failed > 0 || report.Invalid > 0:
		e.publish(sse.StatusFailed,
			fmt.Sprintf("sync finished with %d failed and %d invalid punches", report.Failed, report.Invalid), remaining)
	default:
		e.publish(sse.StatusSuccess, fmt.Sprintf("synced %d punches", report.Submitted+report.SkippedServer+report.Merged), remaining)
	}

	return report, nil
}

// reconcile settles one queued punch against server state and, unless
// the server already holds a newer copy, replays it.
func (e *Engine) reconcile(ctx context.Context, rec punch.PendingPunch, superseded map[string][]string, report *punch.SyncReport) error {
	server, err := retry.Do(ctx, e.netPolicy, func(ctx context.Context) (*punch.ServerDayRecord, error) {
		return e.remote.DayRecord(ctx, rec.Date())
	})
	if err != nil {
		return err
	}

	resolution := Resolve(rec, server)
	switch resolution {
	case PreferServer:
		if err := e.settle(ctx, rec, superseded, false); err != nil {
			return err
		}
		if err := e.applyDayState(ctx, rec); err != nil {
			slog.Error("failed to apply day state for server-preferred punch", "punch_id", rec.ID, "error", err)
		}
		report.SkippedServer++
		return nil

	case Merge:
		if err := e.settle(ctx, rec, superseded, true); err != nil {
			return err
		}
		if err := e.applyDayState(ctx, rec); err != nil {
			slog.Error("failed to apply day state for merged punch", "punch_id", rec.ID, "error", err)
		}
		report.Merged++
		return nil

	default:
		detail, err := retry.Do(ctx, e.netPolicy, func(ctx context.Context) (string, error) {
			if rec.AttendanceType == punch.CheckIn {
				return e.remote.CheckIn(ctx, rec.Latitude, rec.Longitude, rec.ScanType)
			}
			return e.remote.CheckOut(ctx, rec.Latitude, rec.Longitude, rec.ScanType)
		})
		if err != nil {
			return err
		}

		if err := e.settle(ctx, rec, superseded, false); err != nil {
			return err
		}
		if err := e.applyDayState(ctx, rec); err != nil {
			slog.Error("failed to apply day state for synced punch", "punch_id", rec.ID, "error", err)
		}

		report.Submitted++
		report.Confirmations = append(report.Confirmations, punch.Confirmation{
			PunchID:        rec.ID,
			EmployeeID:     rec.EmployeeID,
			AttendanceType: rec.AttendanceType,
			Outcome:        punch.OutcomeConfirmed,
			Detail:         detail,
			CapturedAt:     rec.CapturedAt,
		})
		return nil
	}
}

// settle marks a record synced together with the duplicates it
// superseded during batch dedup, so they stop replaying.
func (e *Engine) settle(ctx context.Context, rec punch.PendingPunch, superseded map[string][]string, merged bool) error {
	syncedAt := e.now()
	if err := e.queue.MarkSynced(ctx, rec.ID, syncedAt, merged); err != nil {
		return fmt.Errorf("%w: %v", punch.ErrStorage, err)
	}
	for _, dupID := range superseded[rec.ID] {
		if err := e.queue.MarkSynced(ctx, dupID, syncedAt, false); err != nil {
			slog.Error("failed to settle superseded duplicate", "punch_id", dupID, "error", err)
		}
	}
	return nil
}

// applyDayState upserts the punch into its own date's summary row so
// the UI and the cooldown gate see the synced result.
func (e *Engine) applyDayState(ctx context.Context, rec punch.PendingPunch) error {
	date := rec.Date()

	state, err := e.states.GetByDate(ctx, date)
	if err != nil {
		return err
	}
	if state == nil {
		state = &punch.DayState{
			Date:        date,
			EmployeeID:  rec.EmployeeID,
			LastPunchAt: rec.CapturedAt,
		}
	}

	stamp := rec.CapturedAt.Format(timeLayout)
	if rec.AttendanceType == punch.CheckIn {
		state.HasCheckedIn = true
		state.CheckInTime = &stamp
	} else {
		state.HasCheckedOut = true
		state.CheckOutTime = &stamp
	}
	if rec.CapturedAt.After(state.LastPunchAt) {
		state.LastPunchAt = rec.CapturedAt
	}

	return e.states.Upsert(ctx, *state)
}

func (e *Engine) validateRecord(rec punch.PendingPunch) error {
	view := queuedRecord{
		EmployeeID:     rec.EmployeeID,
		Latitude:       rec.Latitude,
		Longitude:      rec.Longitude,
		ScanType:       string(rec.ScanType),
		AttendanceType: string(rec.AttendanceType),
	}
	if err := e.validate.Struct(view); err != nil {
		return err
	}

	now := e.now()
	if rec.CapturedAt.After(now) {
		return fmt.Errorf("captured_at %s is in the future", rec.CapturedAt.Format(time.RFC3339))
	}
	if rec.CapturedAt.Before(now.AddDate(0, 0, -maxRecordAgeDays)) {
		return fmt.Errorf("captured_at %s is older than %d days", rec.CapturedAt.Format(time.RFC3339), maxRecordAgeDays)
	}

	return nil
}

func (e *Engine) publish(status sse.SyncStatus, message string, unsynced int) {
	if e.hub == nil {
		return
	}
	e.hub.Publish(sse.Event{
		Status:        status,
		Message:       message,
		UnsyncedCount: unsynced,
		At:            e.now(),
	})
}
