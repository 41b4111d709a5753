package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/retry"
)

// RemoteClient is the slice of the backend API the orchestrator needs.
type RemoteClient interface {
	CheckIn(ctx context.Context, lat, lng float64, scanType punch.ScanType) (string, error)
	CheckOut(ctx context.Context, lat, lng float64, scanType punch.ScanType) (string, error)
}

type AttendanceServiceImpl struct {
	gate          *CooldownGate
	queue         punch.QueueRepository
	states        punch.DayStateRepository
	remote        RemoteClient
	netPolicy     retry.Policy
	storagePolicy retry.Policy
	now           func() time.Time
}

func NewAttendanceService(
	gate *CooldownGate,
	queue punch.QueueRepository,
	states punch.DayStateRepository,
	remote RemoteClient,
) punch.AttendanceService {
	return &AttendanceServiceImpl{
		gate:          gate,
		queue:         queue,
		states:        states,
		remote:        remote,
		netPolicy:     retry.NetworkPolicy(),
		storagePolicy: retry.StoragePolicy(),
		now:           time.Now,
	}
}

// CheckIn implements punch.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req punch.PunchRequest) (punch.Confirmation, error) {
	return a.submit(ctx, req, punch.CheckIn)
}

// CheckOut implements punch.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req punch.PunchRequest) (punch.Confirmation, error) {
	return a.submit(ctx, req, punch.CheckOut)
}

// submit runs the punch state machine: gate, remote attempt, then
// either confirmation, offline queueing, or rejection.
func (a *AttendanceServiceImpl) submit(ctx context.Context, req punch.PunchRequest, attendanceType punch.AttendanceType) (punch.Confirmation, error) {
	if err := req.Validate(); err != nil {
		return punch.Confirmation{}, err
	}

	now := a.now()
	if ok, remaining := a.gate.CanPunch(ctx, now); !ok {
		return punch.Confirmation{}, &punch.CooldownError{Remaining: remaining}
	}

	p := punch.NewPendingPunch(req, attendanceType, now)

	detail, err := retry.Do(ctx, a.netPolicy, func(ctx context.Context) (string, error) {
		return a.callRemote(ctx, p)
	})
	if err == nil {
		if recErr := a.gate.Record(ctx, p, now); recErr != nil {
			slog.Error("punch confirmed but day state update failed", "punch_id", p.ID, "error", recErr)
		}
		return punch.Confirmation{
			PunchID:        p.ID,
			EmployeeID:     p.EmployeeID,
			AttendanceType: attendanceType,
			Outcome:        punch.OutcomeConfirmed,
			Detail:         detail,
			CapturedAt:     p.CapturedAt,
		}, nil
	}

	// Transient exhaustion degrades to the offline queue; the user's
	// intent is still honored. Final rejections surface immediately.
	if !retry.NetworkRetryable(err) {
		return punch.Confirmation{}, err
	}

	slog.Info("remote submission failed, queueing punch offline",
		"punch_id", p.ID, "attendance_type", attendanceType, "error", err)
	return a.enqueue(ctx, p, now)
}

// SaveOffline implements punch.AttendanceService.
func (a *AttendanceServiceImpl) SaveOffline(ctx context.Context, req punch.OfflinePunchRequest) (punch.Confirmation, error) {
	if err := req.Validate(); err != nil {
		return punch.Confirmation{}, err
	}

	now := a.now()
	if ok, remaining := a.gate.CanPunch(ctx, now); !ok {
		return punch.Confirmation{}, &punch.CooldownError{Remaining: remaining}
	}

	p := punch.NewPendingPunch(req.PunchRequest, req.AttendanceType, now)
	return a.enqueue(ctx, p, now)
}

// enqueue parks the punch durably and still records the cooldown so
// rapid repeated taps while offline do not flood the queue.
func (a *AttendanceServiceImpl) enqueue(ctx context.Context, p punch.PendingPunch, now time.Time) (punch.Confirmation, error) {
	_, err := retry.Do(ctx, a.storagePolicy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.queue.Enqueue(ctx, p)
	})
	if err != nil {
		return punch.Confirmation{}, fmt.Errorf("%w: %v", punch.ErrStorage, err)
	}

	if recErr := a.gate.Record(ctx, p, now); recErr != nil {
		slog.Error("punch queued but day state update failed", "punch_id", p.ID, "error", recErr)
	}

	return punch.Confirmation{
		PunchID:        p.ID,
		EmployeeID:     p.EmployeeID,
		AttendanceType: p.AttendanceType,
		Outcome:        punch.OutcomeQueuedOffline,
		Detail:         "attendance saved offline, will sync when connected",
		CapturedAt:     p.CapturedAt,
	}, nil
}

func (a *AttendanceServiceImpl) callRemote(ctx context.Context, p punch.PendingPunch) (string, error) {
	if p.AttendanceType == punch.CheckIn {
		return a.remote.CheckIn(ctx, p.Latitude, p.Longitude, p.ScanType)
	}
	return a.remote.CheckOut(ctx, p.Latitude, p.Longitude, p.ScanType)
}

// CanPunch implements punch.AttendanceService.
func (a *AttendanceServiceImpl) CanPunch(ctx context.Context, _ string) (bool, int) {
	ok, remaining := a.gate.CanPunch(ctx, a.now())
	if ok {
		return true, 0
	}
	cooldownErr := punch.CooldownError{Remaining: remaining}
	return false, cooldownErr.RemainingSeconds()
}

// UnsyncedCount implements punch.AttendanceService.
func (a *AttendanceServiceImpl) UnsyncedCount(ctx context.Context) (int, error) {
	count, err := a.queue.CountUnsynced(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced attendance: %w", err)
	}
	return count, nil
}

// TodayState implements punch.AttendanceService.
func (a *AttendanceServiceImpl) TodayState(ctx context.Context) (*punch.DayState, error) {
	state, err := a.states.GetByDate(ctx, a.now().Format(punch.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get today's attendance state: %w", err)
	}
	return state, nil
}
