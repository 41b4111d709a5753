package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/retry"
)

// CooldownWindow is the minimum interval between any two accepted
// punches, regardless of type. The bound is closed: a punch exactly
// CooldownWindow after the previous one is allowed.
const CooldownWindow = 120 * time.Second

// timeLayout matches the backend's attendance time formatting.
const timeLayout = "2006-01-02 15:04:05"

// CooldownGate tracks the last accepted punch per calendar date and
// blocks punches submitted too soon after the previous one.
type CooldownGate struct {
	states        punch.DayStateRepository
	window        time.Duration
	storagePolicy retry.Policy
}

func NewCooldownGate(states punch.DayStateRepository) *CooldownGate {
	return &CooldownGate{
		states:        states,
		window:        CooldownWindow,
		storagePolicy: retry.StoragePolicy(),
	}
}

// CanPunch reports whether a punch is allowed now, and if not, how
// long the caller must wait. The gate fails open on storage errors:
// a locked-out worker during a store outage hurts more than a rare
// duplicate, which reconciliation can repair later.
func (g *CooldownGate) CanPunch(ctx context.Context, now time.Time) (bool, time.Duration) {
	state, err := g.states.GetByDate(ctx, now.Format(punch.DateLayout))
	if err != nil {
		slog.Warn("cooldown state unavailable, failing open", "error", err)
		return true, 0
	}
	if state == nil {
		return true, 0
	}

	elapsed := now.Sub(state.LastPunchAt)
	if elapsed >= g.window {
		return true, 0
	}
	return false, g.window - elapsed
}

// Record registers an accepted punch (local or remote) against the day
// state: last punch timestamp moves unconditionally, the flag and time
// of the punched type are set, the opposite flag is preserved.
func (g *CooldownGate) Record(ctx context.Context, p punch.PendingPunch, now time.Time) error {
	date := now.Format(punch.DateLayout)

	state, err := g.states.GetByDate(ctx, date)
	if err != nil {
		slog.Warn("failed to read day state before record, starting fresh", "date", date, "error", err)
	}
	if state == nil {
		state = &punch.DayState{Date: date, EmployeeID: p.EmployeeID}
	}

	state.LastPunchAt = now
	stamp := p.CapturedAt.Format(timeLayout)
	if p.AttendanceType == punch.CheckIn {
		state.HasCheckedIn = true
		state.CheckInTime = &stamp
	} else {
		state.HasCheckedOut = true
		state.CheckOutTime = &stamp
	}

	_, err = retry.Do(ctx, g.storagePolicy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.states.Upsert(ctx, *state)
	})
	return err
}
