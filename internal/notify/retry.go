package notify

import (
	"time"

	"chess-tracker/internal/constants"

	"github.com/valyala/fasthttp"
)

// RetryPolicy bounds delivery attempts. Sleep is injectable so tests run
// without real delays.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Retryable   func(status int) bool
	Sleep       func(time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: constants.DispatchMaxAttempts,
		Backoff:     constants.DispatchBackoff,
		Retryable:   func(status int) bool { return status == fasthttp.StatusTooManyRequests },
		Sleep:       time.Sleep,
	}
}
