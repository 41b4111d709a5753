package sync

import (
	"sort"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
)

// dedupeKey identifies one logical punch operation: two queue records
// with the same key would send two check-ins (or check-outs) for the
// same day.
type dedupeKey struct {
	EmployeeID     string
	Date           string
	AttendanceType punch.AttendanceType
}

func keyOf(p punch.PendingPunch) dedupeKey {
	return dedupeKey{
		EmployeeID:     p.EmployeeID,
		Date:           p.Date(),
		AttendanceType: p.AttendanceType,
	}
}

// Deduplicate collapses a batch to one record per logical operation,
// keeping the most recent CapturedAt per key. The kept records come
// back in ascending CapturedAt order; superseded is keyed by the ID of
// the record that replaced each group so duplicates can be settled
// once their winner syncs.
func Deduplicate(records []punch.PendingPunch) (kept []punch.PendingPunch, superseded map[string][]string) {
	winners := make(map[dedupeKey]punch.PendingPunch, len(records))
	losers := make(map[dedupeKey][]string)

	for _, rec := range records {
		key := keyOf(rec)
		current, ok := winners[key]
		if !ok {
			winners[key] = rec
			continue
		}
		if rec.CapturedAt.After(current.CapturedAt) {
			losers[key] = append(losers[key], current.ID)
			winners[key] = rec
		} else {
			losers[key] = append(losers[key], rec.ID)
		}
	}

	kept = make([]punch.PendingPunch, 0, len(winners))
	for _, rec := range winners {
		kept = append(kept, rec)
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].CapturedAt.Equal(kept[j].CapturedAt) {
			return kept[i].ID < kept[j].ID
		}
		return kept[i].CapturedAt.Before(kept[j].CapturedAt)
	})

	superseded = make(map[string][]string, len(losers))
	for key, ids := range losers {
		superseded[winners[key].ID] = ids
	}

	return kept, superseded
}
