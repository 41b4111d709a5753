package punch

import (
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

// PunchRequest is what the UI layer hands the orchestrator: the
// biometric scan already happened, location is already acquired.
type PunchRequest struct {
	EmployeeID string   `json:"-"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	ScanType   ScanType `json:"scan_type"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if !validator.IsInSlice(string(r.ScanType), []string{string(ScanFace), string(ScanFingerprint)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "scan_type",
			Message: "scan_type must be face or fingerprint",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// OfflinePunchRequest is the explicit offline-mode entry point payload.
type OfflinePunchRequest struct {
	PunchRequest
	AttendanceType AttendanceType `json:"attendance_type"`
}

func (r *OfflinePunchRequest) Validate() error {
	errs, _ := r.PunchRequest.Validate().(validator.ValidationErrors)

	if !validator.IsInSlice(string(r.AttendanceType), []string{string(CheckIn), string(CheckOut)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_type",
			Message: "attendance_type must be check_in or check_out",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// BACKEND WIRE CONTRACT
// ========================================

type CheckInWireRequest struct {
	CheckInLatitude  float64 `json:"check_in_latitude"`
	CheckInLongitude float64 `json:"check_in_longitude"`
	ScanType         string  `json:"scan_type"`
}

type CheckOutWireRequest struct {
	CheckOutLatitude  float64 `json:"check_out_latitude"`
	CheckOutLongitude float64 `json:"check_out_longitude"`
	ScanType          string  `json:"scan_type"`
}

// WireResponse carries the backend's free-text acknowledgement; the
// HTTP status carries the error taxonomy.
type WireResponse struct {
	Detail string `json:"detail"`
}

// DayStateResponse is what the local UI gets for today's summary.
type DayStateResponse struct {
	Date          string  `json:"date"`
	HasCheckedIn  bool    `json:"has_checked_in"`
	HasCheckedOut bool    `json:"has_checked_out"`
	CheckInTime   *string `json:"check_in_time,omitempty"`
	CheckOutTime  *string `json:"check_out_time,omitempty"`
}

// CanPunchResponse tells the UI whether the cooldown gate is open.
type CanPunchResponse struct {
	CanPunch          bool `json:"can_punch"`
	RetryAfterSeconds int  `json:"retry_after_seconds,omitempty"`
}
