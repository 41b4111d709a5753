package sync

import (
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
)

// Resolution decides what happens to a queued punch given the server's
// view of the same attendance day.
type Resolution int

const (
	// NoConflict: local and server records describe different logical
	// punches; the local record proceeds untouched.
	NoConflict Resolution = iota
	// KeepOffline: the server has nothing for this date/type yet; the
	// local record must be submitted.
	KeepOffline
	// PreferOffline: both sides recorded the punch and the local copy
	// is newer; resubmit the local one.
	PreferOffline
	// PreferServer: the server copy is newer; mark the local record
	// synced without resubmitting.
	PreferServer
	// Merge: timestamps are equal to the available resolution; the
	// server payload wins and the local record is annotated as
	// synced-from-offline.
	Merge
)

func (r Resolution) String() string {
	switch r {
	case NoConflict:
		return "no_conflict"
	case KeepOffline:
		return "keep_offline"
	case PreferOffline:
		return "prefer_offline"
	case PreferServer:
		return "prefer_server"
	case Merge:
		return "merge"
	default:
		return "unknown"
	}
}

// Resolve compares a queued punch with the server state for its date.
// A conflict exists only when both sides share the calendar date and
// the logical punch type; otherwise the local record keeps waiting.
func Resolve(local punch.PendingPunch, server *punch.ServerDayRecord) Resolution {
	serverTime := server.TimeFor(local.AttendanceType)
	if serverTime == nil {
		return KeepOffline
	}

	if serverTime.Format(punch.DateLayout) != local.Date() {
		return NoConflict
	}

	// Compare at second resolution; the wire format does not carry
	// sub-second precision.
	localSec := local.CapturedAt.Truncate(time.Second)
	serverSec := serverTime.Truncate(time.Second)

	switch {
	case localSec.After(serverSec):
		return PreferOffline
	case localSec.Before(serverSec):
		return PreferServer
	default:
		return Merge
	}
}
