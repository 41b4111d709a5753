package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/mattn/go-sqlite3"
)

// NetworkPolicy is the profile for remote submissions: transport,
// timeout and DNS failures are retried; 401/400/422 never are.
func NetworkPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Retryable:    NetworkRetryable,
	}
}

// BiometricPolicy is the profile for scanner prompts driven by the UI.
func BiometricPolicy() Policy {
	return Policy{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   1.5,
	}
}

// StoragePolicy is the profile for local store writes, retrying only
// on lock/IO contention.
func StoragePolicy() Policy {
	return Policy{
		MaxAttempts:  2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2,
		Retryable:    StorageRetryable,
	}
}

// NetworkRetryable reports whether an error is a transient transport
// failure. Authorization and validation rejections are final.
func NetworkRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, punch.ErrNetworkUnavailable) || errors.Is(err, punch.ErrNetworkTimeout) {
		return true
	}

	var serverErr *punch.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// StorageRetryable reports whether a local store error is contention
// (database locked / busy) rather than a hard failure.
func StorageRetryable(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	return errors.Is(err, punch.ErrStorage)
}
