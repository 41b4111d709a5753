package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/database"
)

type queueRepository struct {
	db *database.SQLiteDB
}

func NewQueueRepository(db *database.SQLiteDB) punch.QueueRepository {
	return &queueRepository{db: db}
}

// Enqueue implements punch.QueueRepository.
func (r *queueRepository) Enqueue(ctx context.Context, p punch.PendingPunch) error {
	query := `
		INSERT INTO pending_punches (
			id, employee_id, latitude, longitude, scan_type, attendance_type,
			captured_at_ms, synced, merged_from_offline, created_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.EmployeeID,
		p.Latitude,
		p.Longitude,
		string(p.ScanType),
		string(p.AttendanceType),
		p.CapturedAt.UnixMilli(),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue pending punch: %w", err)
	}

	return nil
}

// ListUnsynced implements punch.QueueRepository.
func (r *queueRepository) ListUnsynced(ctx context.Context) ([]punch.PendingPunch, error) {
	query := `
		SELECT id, employee_id, latitude, longitude, scan_type, attendance_type,
		       captured_at_ms, synced, synced_at_ms, merged_from_offline, created_at_ms
		FROM pending_punches
		WHERE synced = 0
		ORDER BY captured_at_ms ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced punches: %w", err)
	}
	defer rows.Close()

	var punches []punch.PendingPunch
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		punches = append(punches, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unsynced punches: %w", err)
	}

	return punches, nil
}

// MarkSynced implements punch.QueueRepository.
func (r *queueRepository) MarkSynced(ctx context.Context, id string, syncedAt time.Time, mergedFromOffline bool) error {
	query := `
		UPDATE pending_punches
		SET synced = 1, synced_at_ms = ?, merged_from_offline = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, syncedAt.UnixMilli(), boolToInt(mergedFromOffline), id)
	if err != nil {
		return fmt.Errorf("failed to mark punch synced: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check mark synced result: %w", err)
	}
	if affected == 0 {
		return punch.ErrPunchNotFound
	}

	return nil
}

// PurgeSyncedBefore implements punch.QueueRepository.
func (r *queueRepository) PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM pending_punches WHERE synced = 1 AND captured_at_ms < ?`

	result, err := r.db.ExecContext(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge synced punches: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged punches: %w", err)
	}

	return purged, nil
}

// CountUnsynced implements punch.QueueRepository.
func (r *queueRepository) CountUnsynced(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_punches WHERE synced = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced punches: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPunch(row rowScanner) (punch.PendingPunch, error) {
	var (
		p              punch.PendingPunch
		scanType       string
		attendanceType string
		capturedAtMs   int64
		syncedAtMs     sql.NullInt64
		createdAtMs    int64
	)

	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.Latitude, &p.Longitude, &scanType, &attendanceType,
		&capturedAtMs, &p.Synced, &syncedAtMs, &p.MergedFromOffline, &createdAtMs,
	)
	if err != nil {
		return punch.PendingPunch{}, fmt.Errorf("failed to scan pending punch: %w", err)
	}

	p.ScanType = punch.ScanType(scanType)
	p.AttendanceType = punch.AttendanceType(attendanceType)
	p.CapturedAt = time.UnixMilli(capturedAtMs)
	p.CreatedAt = time.UnixMilli(createdAtMs)
	if syncedAtMs.Valid {
		t := time.UnixMilli(syncedAtMs.Int64)
		p.SyncedAt = &t
	}

	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
