package punch

import (
	"context"
)

// AttendanceService defines the punch operations exposed to the UI layer.
type AttendanceService interface {
	// CheckIn gates, submits and (on network failure) queues a check-in punch
	CheckIn(ctx context.Context, req PunchRequest) (Confirmation, error)

	// CheckOut gates, submits and (on network failure) queues a check-out punch
	CheckOut(ctx context.Context, req PunchRequest) (Confirmation, error)

	// CanPunch reports whether the cooldown gate currently allows a punch
	CanPunch(ctx context.Context, employeeID string) (bool, int)

	// SaveOffline records a punch directly into the offline queue,
	// bypassing the remote attempt
	SaveOffline(ctx context.Context, req OfflinePunchRequest) (Confirmation, error)

	// UnsyncedCount returns how many queued punches await sync
	UnsyncedCount(ctx context.Context) (int, error)

	// TodayState returns the day summary for the current date, or nil
	// when nothing has been recorded yet
	TodayState(ctx context.Context) (*DayState, error)
}

// Syncer drains the offline queue against the backend.
type Syncer interface {
	// SyncNow runs one drain pass. A call arriving while a pass is in
	// flight returns ErrSyncInProgress and does nothing.
	SyncNow(ctx context.Context) (SyncReport, error)
}
