package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var cooldownErr *punch.CooldownError
	if errors.As(err, &cooldownErr) {
		TooManyRequests(w, cooldownErr.Error(), cooldownErr.RemainingSeconds())
		return
	}

	var serverErr *punch.ServerError
	if errors.As(err, &serverErr) {
		// Pass the backend's rejection through unchanged so the UI
		// sees the same taxonomy either way.
		if serverErr.Code >= 400 && serverErr.Code < 500 {
			BadRequest(w, serverErr.Detail, nil)
			return
		}
		ServiceUnavailable(w, serverErr.Detail)
		return
	}

	switch {
	case errors.Is(err, punch.ErrUnauthorized):
		Unauthorized(w, "Backend rejected the device credential")
	case errors.Is(err, punch.ErrDuplicateAttendance):
		Conflict(w, "Attendance already recorded for today")
	case errors.Is(err, punch.ErrSyncInProgress):
		Conflict(w, "A sync pass is already running")
	case errors.Is(err, punch.ErrPunchNotFound):
		NotFound(w, "Pending punch not found")
	case errors.Is(err, punch.ErrNetworkUnavailable), errors.Is(err, punch.ErrNetworkTimeout):
		ServiceUnavailable(w, "Backend unreachable")
	case errors.Is(err, punch.ErrStorage):
		InternalServerError(w, "Local storage error")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
