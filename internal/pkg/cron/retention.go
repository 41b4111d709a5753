package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
)

// RetentionJobs sweeps local state past its retention window: synced
// punches after 7 days, day summaries after 30.
type RetentionJobs struct {
	queue              punch.QueueRepository
	states             punch.DayStateRepository
	punchRetentionDays int
	dayRetentionDays   int
}

func NewRetentionJobs(queue punch.QueueRepository, states punch.DayStateRepository, punchRetentionDays, dayRetentionDays int) *RetentionJobs {
	return &RetentionJobs{
		queue:              queue,
		states:             states,
		punchRetentionDays: punchRetentionDays,
		dayRetentionDays:   dayRetentionDays,
	}
}

func (j *RetentionJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("purge_synced_punches", 1*time.Hour, j.PurgeSyncedPunches)
	scheduler.AddJob("purge_stale_day_states", 24*time.Hour, j.PurgeStaleDayStates)
}

// PurgeSyncedPunches deletes synced queue records whose capture time
// is past the retention window. Unsynced records are never touched.
func (j *RetentionJobs) PurgeSyncedPunches(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -j.punchRetentionDays)
	purged, err := j.queue.PurgeSyncedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		slog.Info("Cron: purged synced punches", "count", purged, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}

// PurgeStaleDayStates deletes day summaries older than the retention
// window.
func (j *RetentionJobs) PurgeStaleDayStates(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -j.dayRetentionDays).Format(punch.DateLayout)
	purged, err := j.states.PurgeBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		slog.Info("Cron: purged stale day states", "count", purged, "cutoff", cutoff)
	}
	return nil
}
