package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/database"
)

type queueRepository struct {
	db *database.DB
}

func NewQueueRepository(db *database.DB) punch.QueueRepository {
	return &queueRepository{db: db}
}

// Enqueue implements punch.QueueRepository.
func (r *queueRepository) Enqueue(ctx context.Context, p punch.PendingPunch) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO pending_punches (
			id, employee_id, latitude, longitude, scan_type, attendance_type,
			captured_at, synced, merged_from_offline
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, FALSE)
	`

	_, err := q.Exec(ctx, query,
		p.ID,
		p.EmployeeID,
		p.Latitude,
		p.Longitude,
		string(p.ScanType),
		string(p.AttendanceType),
		p.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue pending punch: %w", err)
	}

	return nil
}

// ListUnsynced implements punch.QueueRepository.
func (r *queueRepository) ListUnsynced(ctx context.Context) ([]punch.PendingPunch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, latitude, longitude, scan_type, attendance_type,
		       captured_at, synced, synced_at, merged_from_offline, created_at
		FROM pending_punches
		WHERE synced = FALSE
		ORDER BY captured_at ASC, id ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced punches: %w", err)
	}
	defer rows.Close()

	var punches []punch.PendingPunch
	for rows.Next() {
		var (
			p              punch.PendingPunch
			scanType       string
			attendanceType string
		)
		err := rows.Scan(
			&p.ID, &p.EmployeeID, &p.Latitude, &p.Longitude, &scanType, &attendanceType,
			&p.CapturedAt, &p.Synced, &p.SyncedAt, &p.MergedFromOffline, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending punch: %w", err)
		}
		p.ScanType = punch.ScanType(scanType)
		p.AttendanceType = punch.AttendanceType(attendanceType)
		punches = append(punches, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unsynced punches: %w", err)
	}

	return punches, nil
}

// MarkSynced implements punch.QueueRepository.
func (r *queueRepository) MarkSynced(ctx context.Context, id string, syncedAt time.Time, mergedFromOffline bool) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE pending_punches
		SET synced = TRUE, synced_at = $1, merged_from_offline = $2
		WHERE id = $3
	`

	tag, err := q.Exec(ctx, query, syncedAt, mergedFromOffline, id)
	if err != nil {
		return fmt.Errorf("failed to mark punch synced: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return punch.ErrPunchNotFound
	}

	return nil
}

// PurgeSyncedBefore implements punch.QueueRepository.
func (r *queueRepository) PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM pending_punches WHERE synced = TRUE AND captured_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge synced punches: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CountUnsynced implements punch.QueueRepository.
func (r *queueRepository) CountUnsynced(ctx context.Context) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM pending_punches WHERE synced = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced punches: %w", err)
	}
	return count, nil
}
