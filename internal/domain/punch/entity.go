package punch

import (
	"time"

	"github.com/google/uuid"
)

type ScanType string

const (
	ScanFace        ScanType = "face"
	ScanFingerprint ScanType = "fingerprint"
)

type AttendanceType string

const (
	CheckIn  AttendanceType = "check_in"
	CheckOut AttendanceType = "check_out"
)

// DateLayout is the calendar-date key format used across the local store.
const DateLayout = "2006-01-02"

// PendingPunch is a punch that has not been confirmed by the backend.
// It is the durable source of truth for anything recorded while offline.
type PendingPunch struct {
	ID             string
	EmployeeID     string
	Latitude       float64
	Longitude      float64
	ScanType       ScanType
	AttendanceType AttendanceType
	CapturedAt     time.Time
	Synced         bool
	SyncedAt       *time.Time
	// MergedFromOffline marks records whose server copy won a timestamp
	// tie during reconciliation.
	MergedFromOffline bool
	CreatedAt         time.Time
}

// NewPendingPunch builds a queue entry from an accepted request.
// CapturedAt is the client timestamp at the moment of capture and is
// authoritative for replay ordering.
func NewPendingPunch(req PunchRequest, attendanceType AttendanceType, capturedAt time.Time) PendingPunch {
	return PendingPunch{
		ID:             uuid.NewString(),
		EmployeeID:     req.EmployeeID,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		ScanType:       req.ScanType,
		AttendanceType: attendanceType,
		CapturedAt:     capturedAt,
	}
}

// Date returns the calendar date key of the punch in the device's zone.
func (p PendingPunch) Date() string {
	return p.CapturedAt.Format(DateLayout)
}

// DayState is the per-date summary of accepted punches on this device.
// Derived state only; PendingPunch records are authoritative.
type DayState struct {
	Date          string
	EmployeeID    string
	LastPunchAt   time.Time
	HasCheckedIn  bool
	HasCheckedOut bool
	CheckInTime   *string
	CheckOutTime  *string
	UpdatedAt     time.Time
}

// ServerDayRecord is the backend's view of a single attendance day,
// fetched during reconciliation.
type ServerDayRecord struct {
	Date     string
	ClockIn  *time.Time
	ClockOut *time.Time
}

// TimeFor returns the server-side timestamp matching a punch type, or
// nil when the server has not recorded that type for the date.
func (r *ServerDayRecord) TimeFor(t AttendanceType) *time.Time {
	if r == nil {
		return nil
	}
	if t == CheckIn {
		return r.ClockIn
	}
	return r.ClockOut
}

type Outcome string

const (
	OutcomeConfirmed     Outcome = "confirmed"
	OutcomeQueuedOffline Outcome = "queued_offline"
)

// Confirmation is the terminal result of an accepted punch, whether it
// reached the backend immediately or was parked in the offline queue.
type Confirmation struct {
	PunchID        string         `json:"punch_id"`
	EmployeeID     string         `json:"employee_id"`
	AttendanceType AttendanceType `json:"attendance_type"`
	Outcome        Outcome        `json:"outcome"`
	Detail         string         `json:"detail"`
	CapturedAt     time.Time      `json:"captured_at"`
}

// SyncReport summarizes one drain pass over the offline queue.
type SyncReport struct {
	Submitted     int            `json:"submitted"`
	SkippedServer int            `json:"skipped_server"`
	Merged        int            `json:"merged"`
	Failed        int            `json:"failed"`
	Invalid       int            `json:"invalid"`
	Remaining     int            `json:"remaining"`
	Confirmations []Confirmation `json:"confirmations"`
}
