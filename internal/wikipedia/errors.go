package wikipedia

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument marks caller mistakes (bad date range, blank title).
// Maps to HTTP 400 at the API boundary.
var ErrInvalidArgument = errors.New("invalid argument")

// StatusError is an upstream failure already mapped to the status the
// service should answer with: 4xx mirrored from MediaWiki, 502 for
// protocol errors and other 5xx, 503 once retries are exhausted.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Message)
}

// RateLimitError reports an active rate-limit cooldown. RetryAfter tells
// the client how long to back off before trying again.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// invalidArgumentf wraps ErrInvalidArgument with a caller-facing detail.
func invalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidArgument}, args...)...)
}
