package punch

import (
	"context"
	"time"
)

// QueueRepository is the durable offline queue. Enqueue is append-only
// and must succeed with no network at all; records are mutated only to
// flip the synced flag and are deleted only by the retention sweep.
type QueueRepository interface {
	Enqueue(ctx context.Context, p PendingPunch) error

	// ListUnsynced returns pending records sorted ascending by
	// CapturedAt so sync replays punches in original order.
	ListUnsynced(ctx context.Context) ([]PendingPunch, error)

	MarkSynced(ctx context.Context, id string, syncedAt time.Time, mergedFromOffline bool) error

	// PurgeSyncedBefore deletes synced records captured before the
	// cutoff and returns how many were removed.
	PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	CountUnsynced(ctx context.Context) (int, error)
}

// DayStateRepository stores the per-date punch summary used by the
// cooldown gate and the UI.
type DayStateRepository interface {
	// GetByDate returns nil (not an error) when no state exists yet
	// for the date.
	GetByDate(ctx context.Context, date string) (*DayState, error)

	Upsert(ctx context.Context, state DayState) error

	// PurgeBefore deletes states with a date key older than the
	// cutoff date and returns how many were removed.
	PurgeBefore(ctx context.Context, cutoffDate string) (int64, error)
}
