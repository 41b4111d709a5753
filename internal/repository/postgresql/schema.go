package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/database"
)

// EnsureSchema creates the agent tables when they do not exist yet.
// Site-local databases are provisioned per kiosk fleet, so the agent
// owns its own schema.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pending_punches (
			id                  TEXT PRIMARY KEY,
			employee_id         TEXT NOT NULL,
			latitude            DOUBLE PRECISION NOT NULL,
			longitude           DOUBLE PRECISION NOT NULL,
			scan_type           TEXT NOT NULL,
			attendance_type     TEXT NOT NULL,
			captured_at         TIMESTAMPTZ NOT NULL,
			synced              BOOLEAN NOT NULL DEFAULT FALSE,
			synced_at           TIMESTAMPTZ,
			merged_from_offline BOOLEAN NOT NULL DEFAULT FALSE,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_punches_replay
			ON pending_punches (synced, captured_at, id)`,
		`CREATE TABLE IF NOT EXISTS daily_attendance_state (
			date            TEXT PRIMARY KEY,
			employee_id     TEXT NOT NULL,
			last_punch_at   TIMESTAMPTZ NOT NULL,
			has_checked_in  BOOLEAN NOT NULL DEFAULT FALSE,
			has_checked_out BOOLEAN NOT NULL DEFAULT FALSE,
			check_in_time   TEXT,
			check_out_time  TEXT,
			updated_at      TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
