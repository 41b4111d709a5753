package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type dayStateRepository struct {
	db *database.DB
}

func NewDayStateRepository(db *database.DB) punch.DayStateRepository {
	return &dayStateRepository{db: db}
}

// GetByDate implements punch.DayStateRepository.
func (r *dayStateRepository) GetByDate(ctx context.Context, date string) (*punch.DayState, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT date, employee_id, last_punch_at, has_checked_in, has_checked_out,
		       check_in_time, check_out_time, updated_at
		FROM daily_attendance_state
		WHERE date = $1
	`

	var state punch.DayState
	err := q.QueryRow(ctx, query, date).Scan(
		&state.Date, &state.EmployeeID, &state.LastPunchAt, &state.HasCheckedIn, &state.HasCheckedOut,
		&state.CheckInTime, &state.CheckOutTime, &state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get day state: %w", err)
	}

	return &state, nil
}

// Upsert implements punch.DayStateRepository.
func (r *dayStateRepository) Upsert(ctx context.Context, state punch.DayState) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO daily_attendance_state (
			date, employee_id, last_punch_at, has_checked_in, has_checked_out,
			check_in_time, check_out_time, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date) DO UPDATE SET
			employee_id = EXCLUDED.employee_id,
			last_punch_at = EXCLUDED.last_punch_at,
			has_checked_in = EXCLUDED.has_checked_in,
			has_checked_out = EXCLUDED.has_checked_out,
			check_in_time = EXCLUDED.check_in_time,
			check_out_time = EXCLUDED.check_out_time,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		state.Date,
		state.EmployeeID,
		state.LastPunchAt,
		state.HasCheckedIn,
		state.HasCheckedOut,
		state.CheckInTime,
		state.CheckOutTime,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert day state: %w", err)
	}

	return nil
}

// PurgeBefore implements punch.DayStateRepository.
func (r *dayStateRepository) PurgeBefore(ctx context.Context, cutoffDate string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM daily_attendance_state WHERE date < $1`, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to purge day states: %w", err)
	}

	return tag.RowsAffected(), nil
}
