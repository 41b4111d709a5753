package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/database"
)

type dayStateRepository struct {
	db *database.SQLiteDB
}

func NewDayStateRepository(db *database.SQLiteDB) punch.DayStateRepository {
	return &dayStateRepository{db: db}
}

// GetByDate implements punch.DayStateRepository.
func (r *dayStateRepository) GetByDate(ctx context.Context, date string) (*punch.DayState, error) {
	query := `
		SELECT date, employee_id, last_punch_at_ms, has_checked_in, has_checked_out,
		       check_in_time, check_out_time, updated_at_ms
		FROM daily_attendance_state
		WHERE date = ?
	`

	var (
		state         punch.DayState
		lastPunchAtMs int64
		updatedAtMs   int64
		checkInTime   sql.NullString
		checkOutTime  sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, date).Scan(
		&state.Date, &state.EmployeeID, &lastPunchAtMs, &state.HasCheckedIn, &state.HasCheckedOut,
		&checkInTime, &checkOutTime, &updatedAtMs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get day state: %w", err)
	}

	state.LastPunchAt = time.UnixMilli(lastPunchAtMs)
	state.UpdatedAt = time.UnixMilli(updatedAtMs)
	if checkInTime.Valid {
		state.CheckInTime = &checkInTime.String
	}
	if checkOutTime.Valid {
		state.CheckOutTime = &checkOutTime.String
	}

	return &state, nil
}

// Upsert implements punch.DayStateRepository.
func (r *dayStateRepository) Upsert(ctx context.Context, state punch.DayState) error {
	query := `
		INSERT INTO daily_attendance_state (
			date, employee_id, last_punch_at_ms, has_checked_in, has_checked_out,
			check_in_time, check_out_time, updated_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			employee_id = excluded.employee_id,
			last_punch_at_ms = excluded.last_punch_at_ms,
			has_checked_in = excluded.has_checked_in,
			has_checked_out = excluded.has_checked_out,
			check_in_time = excluded.check_in_time,
			check_out_time = excluded.check_out_time,
			updated_at_ms = excluded.updated_at_ms
	`

	_, err := r.db.ExecContext(ctx, query,
		state.Date,
		state.EmployeeID,
		state.LastPunchAt.UnixMilli(),
		boolToInt(state.HasCheckedIn),
		boolToInt(state.HasCheckedOut),
		state.CheckInTime,
		state.CheckOutTime,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert day state: %w", err)
	}

	return nil
}

// PurgeBefore implements punch.DayStateRepository.
func (r *dayStateRepository) PurgeBefore(ctx context.Context, cutoffDate string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM daily_attendance_state WHERE date < ?`, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to purge day states: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged day states: %w", err)
	}

	return purged, nil
}
