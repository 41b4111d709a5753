package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	CanPunch(w http.ResponseWriter, r *http.Request)
	SaveOffline(w http.ResponseWriter, r *http.Request)
	UnsyncedCount(w http.ResponseWriter, r *http.Request)
	SyncNow(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService punch.AttendanceService
	syncer            punch.Syncer
	supervisorPINHash string
}

func NewAttendanceHandler(attendanceService punch.AttendanceService, syncer punch.Syncer, supervisorPINHash string) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		syncer:            syncer,
		supervisorPINHash: supervisorPINHash,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePunch(w, r)
	if !ok {
		return
	}

	confirmation, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, confirmationMessage(confirmation), confirmation)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePunch(w, r)
	if !ok {
		return
	}

	confirmation, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, confirmationMessage(confirmation), confirmation)
}

// CanPunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) CanPunch(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDFromClaims(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	allowed, retryAfter := h.attendanceService.CanPunch(r.Context(), employeeID)
	response.Success(w, punch.CanPunchResponse{
		CanPunch:          allowed,
		RetryAfterSeconds: retryAfter,
	})
}

// SaveOffline implements AttendanceHandler.
func (h *attendanceHandlerImpl) SaveOffline(w http.ResponseWriter, r *http.Request) {
	employeeID, err := employeeIDFromClaims(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var req punch.OfflinePunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode offline punch request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = employeeID

	confirmation, err := h.attendanceService.SaveOffline(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, confirmationMessage(confirmation), confirmation)
}

// UnsyncedCount implements AttendanceHandler.
func (h *attendanceHandlerImpl) UnsyncedCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.attendanceService.UnsyncedCount(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]int{"unsynced_count": count})
}

// SyncNow implements AttendanceHandler. On shared kiosks the endpoint
// is guarded by a supervisor PIN.
func (h *attendanceHandlerImpl) SyncNow(w http.ResponseWriter, r *http.Request) {
	if h.supervisorPINHash != "" {
		pin := r.Header.Get("X-Supervisor-PIN")
		if err := bcrypt.CompareHashAndPassword([]byte(h.supervisorPINHash), []byte(pin)); err != nil {
			response.Forbidden(w, "Supervisor PIN required")
			return
		}
	}

	report, err := h.syncer.SyncNow(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Sync pass completed", report)
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	state, err := h.attendanceService.TodayState(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if state == nil {
		response.Success(w, punch.DayStateResponse{})
		return
	}

	response.Success(w, punch.DayStateResponse{
		Date:          state.Date,
		HasCheckedIn:  state.HasCheckedIn,
		HasCheckedOut: state.HasCheckedOut,
		CheckInTime:   state.CheckInTime,
		CheckOutTime:  state.CheckOutTime,
	})
}

func (h *attendanceHandlerImpl) decodePunch(w http.ResponseWriter, r *http.Request) (punch.PunchRequest, bool) {
	employeeID, err := employeeIDFromClaims(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return punch.PunchRequest{}, false
	}

	var req punch.PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode punch request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return punch.PunchRequest{}, false
	}
	req.EmployeeID = employeeID

	return req, true
}

// employeeIDFromClaims pulls the enrolled employee out of the UI token.
func employeeIDFromClaims(r *http.Request) (string, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", fmt.Errorf("employee_id claim is missing or invalid")
	}

	return employeeID, nil
}

func confirmationMessage(c punch.Confirmation) string {
	if c.Outcome == punch.OutcomeQueuedOffline {
		return "Attendance queued offline"
	}
	return "Attendance recorded"
}
