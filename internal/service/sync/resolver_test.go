package sync

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/stretchr/testify/assert"
)

func localPunch(t punch.AttendanceType, capturedAt time.Time) punch.PendingPunch {
	return punch.PendingPunch{
		ID:             "local-1",
		EmployeeID:     "emp-1",
		AttendanceType: t,
		CapturedAt:     capturedAt,
	}
}

func TestResolveKeepOfflineWhenServerEmpty(t *testing.T) {
	local := localPunch(punch.CheckIn, time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC))

	assert.Equal(t, KeepOffline, Resolve(local, nil))
	assert.Equal(t, KeepOffline, Resolve(local, &punch.ServerDayRecord{Date: "2026-03-09"}))
}

func TestResolveKeepOfflineWhenServerHasOppositeTypeOnly(t *testing.T) {
	captured := time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC)
	serverIn := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

	local := localPunch(punch.CheckOut, captured)
	server := &punch.ServerDayRecord{Date: "2026-03-09", ClockIn: &serverIn}

	assert.Equal(t, KeepOffline, Resolve(local, server))
}

func TestResolveNoConflictAcrossDates(t *testing.T) {
	captured := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	serverIn := time.Date(2026, 3, 8, 8, 0, 0, 0, time.UTC)

	local := localPunch(punch.CheckIn, captured)
	server := &punch.ServerDayRecord{Date: "2026-03-08", ClockIn: &serverIn}

	assert.Equal(t, NoConflict, Resolve(local, server))
}

func TestResolvePreferOfflineWhenLocalNewer(t *testing.T) {
	serverIn := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	local := localPunch(punch.CheckIn, serverIn.Add(5*time.Minute))
	server := &punch.ServerDayRecord{Date: "2026-03-09", ClockIn: &serverIn}

	assert.Equal(t, PreferOffline, Resolve(local, server))
}

func TestResolvePreferServerWhenServerNewer(t *testing.T) {
	serverIn := time.Date(2026, 3, 9, 8, 5, 0, 0, time.UTC)
	local := localPunch(punch.CheckIn, serverIn.Add(-5*time.Minute))
	server := &punch.ServerDayRecord{Date: "2026-03-09", ClockIn: &serverIn}

	assert.Equal(t, PreferServer, Resolve(local, server))
}

func TestResolveMergeOnEqualTimestamps(t *testing.T) {
	serverIn := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	local := localPunch(punch.CheckIn, serverIn)
	server := &punch.ServerDayRecord{Date: "2026-03-09", ClockIn: &serverIn}

	assert.Equal(t, Merge, Resolve(local, server))
}

func TestResolveComparesAtSecondResolution(t *testing.T) {
	serverIn := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	local := localPunch(punch.CheckIn, serverIn.Add(400*time.Millisecond))
	server := &punch.ServerDayRecord{Date: "2026-03-09", ClockIn: &serverIn}

	// Sub-second skew collapses to a tie.
	assert.Equal(t, Merge, Resolve(local, server))
}

func TestResolutionString(t *testing.T) {
	assert.Equal(t, "no_conflict", NoConflict.String())
	assert.Equal(t, "keep_offline", KeepOffline.String())
	assert.Equal(t, "prefer_offline", PreferOffline.String())
	assert.Equal(t, "prefer_server", PreferServer.String())
	assert.Equal(t, "merge", Merge.String())
}
