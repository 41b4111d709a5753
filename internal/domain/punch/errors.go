package punch

import (
	"errors"
	"fmt"
	"time"
)

// Punch domain errors
var (
	ErrNetworkUnavailable  = errors.New("network unavailable")
	ErrNetworkTimeout      = errors.New("network timeout")
	ErrUnauthorized        = errors.New("device session is not authorized")
	ErrDuplicateAttendance = errors.New("attendance already recorded for today")
	ErrStorage             = errors.New("local storage error")
	ErrSyncInProgress      = errors.New("a sync pass is already running")
	ErrPunchNotFound       = errors.New("pending punch not found")
)

// ServerError carries the HTTP status taxonomy of a rejected remote call.
type ServerError struct {
	Code   int
	Detail string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected request [%d]: %s", e.Code, e.Detail)
}

// Transient reports whether the failure class is worth retrying.
func (e *ServerError) Transient() bool {
	return e.Code >= 500
}

// CooldownError rejects a punch submitted too soon after the previous
// one. A pure local decision, never sent to the server.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before punching again", e.RemainingSeconds())
}

// RemainingSeconds rounds the remaining window up so the UI never
// tells the user to wait zero seconds while the gate still blocks.
func (e *CooldownError) RemainingSeconds() int {
	return int((e.Remaining + time.Second - 1) / time.Second)
}
