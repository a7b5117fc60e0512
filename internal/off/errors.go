package off

import (
	"errors"
	"fmt"
)

// TransportError covers non-2xx HTTP statuses, network failures, and
// malformed response bodies. It is retried once by the lookup layer.
// A business "not found" (status 0) is not a TransportError.
type TransportError struct {
	StatusCode int // zero when the failure happened below HTTP
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("product fetch failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("product fetch failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError means the request did not complete within the hard timeout.
// Treated as a transport failure for retry purposes.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("product fetch timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsRetryable reports whether err warrants the single automatic retry.
func IsRetryable(err error) bool {
	var transport *TransportError
	var timeout *TimeoutError
	return errors.As(err, &transport) || errors.As(err, &timeout)
}
