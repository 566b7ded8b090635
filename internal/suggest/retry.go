package suggest

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// MaxRetries bounds the attempts per suggestion, the first one included.
const MaxRetries = 3

// maxWait caps both exponential delays and server-requested ones. A
// suggestion is requested interactively, so waits stay short.
const maxWait = 10 * time.Second

// RetryableError indicates a transient failure that can be retried.
// RetryAfter is the delay the server asked for, zero when it named none.
type RetryableError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// retryableResponse reports whether resp is a rate limit or server error
// and builds the error for it.
func retryableResponse(resp *http.Response, body []byte) (*RetryableError, bool) {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
		return nil, false
	}
	return &RetryableError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
		RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
	}, true
}

// retryAfter parses a Retry-After value given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retrying after attempt n (0-indexed)
// failed with err. A Retry-After from the server wins over the exponential
// schedule of 500ms, 1s, 2s... with up to 50% jitter.
func Backoff(attempt int, err error) time.Duration {
	var retryErr *RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter > 0 {
		return min(retryErr.RetryAfter, maxWait)
	}
	base := min(time.Duration(1<<uint(attempt))*500*time.Millisecond, maxWait)
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
