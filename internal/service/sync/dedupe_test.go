package sync

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedPunch(id, employeeID string, t punch.AttendanceType, capturedAt time.Time) punch.PendingPunch {
	return punch.PendingPunch{
		ID:             id,
		EmployeeID:     employeeID,
		AttendanceType: t,
		CapturedAt:     capturedAt,
	}
}

func TestDeduplicateKeepsLatestPerKey(t *testing.T) {
	base := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	records := []punch.PendingPunch{
		queuedPunch("a", "emp-1", punch.CheckIn, base),
		queuedPunch("b", "emp-1", punch.CheckIn, base.Add(2*time.Minute)),
		queuedPunch("c", "emp-1", punch.CheckIn, base.Add(1*time.Minute)),
	}

	kept, superseded := Deduplicate(records)

	require.Len(t, kept, 1)
	assert.Equal(t, "b", kept[0].ID)
	assert.ElementsMatch(t, []string{"a", "c"}, superseded["b"])
}

func TestDeduplicateDistinguishesTypes(t *testing.T) {
	base := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	records := []punch.PendingPunch{
		queuedPunch("in", "emp-1", punch.CheckIn, base),
		queuedPunch("out", "emp-1", punch.CheckOut, base.Add(9*time.Hour)),
	}

	kept, superseded := Deduplicate(records)

	assert.Len(t, kept, 2)
	assert.Empty(t, superseded)
}

func TestDeduplicateDistinguishesDates(t *testing.T) {
	base := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	records := []punch.PendingPunch{
		queuedPunch("mon", "emp-1", punch.CheckIn, base),
		queuedPunch("tue", "emp-1", punch.CheckIn, base.AddDate(0, 0, 1)),
	}

	kept, superseded := Deduplicate(records)

	assert.Len(t, kept, 2)
	assert.Empty(t, superseded)
}

func TestDeduplicateDistinguishesEmployees(t *testing.T) {
	base := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	records := []punch.PendingPunch{
		queuedPunch("p1", "emp-1", punch.CheckIn, base),
		queuedPunch("p2", "emp-2", punch.CheckIn, base),
	}

	kept, superseded := Deduplicate(records)

	assert.Len(t, kept, 2)
	assert.Empty(t, superseded)
}

func TestDeduplicateReturnsChronologicalOrder(t *testing.T) {
	base := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	records := []punch.PendingPunch{
		queuedPunch("out", "emp-1", punch.CheckOut, base.Add(9*time.Hour)),
		queuedPunch("in-dup", "emp-1", punch.CheckIn, base),
		queuedPunch("in", "emp-1", punch.CheckIn, base.Add(1*time.Minute)),
	}

	kept, superseded := Deduplicate(records)

	require.Len(t, kept, 2)
	assert.Equal(t, "in", kept[0].ID)
	assert.Equal(t, "out", kept[1].ID)
	assert.Equal(t, []string{"in-dup"}, superseded["in"])
}

func TestDeduplicateEmptyBatch(t *testing.T) {
	kept, superseded := Deduplicate(nil)
	assert.Empty(t, kept)
	assert.Empty(t, superseded)
}
