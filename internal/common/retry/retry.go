// Package retry implements the bounded linear-backoff retry policy shared by
// the sheet write-back and mail delivery paths.
package retry

import (
	"context"
	"time"

	"mail-autoreply/internal/common/errors"
)

// Do runs op up to maxAttempts times. After a failed attempt n (1-based) it
// sleeps n*baseDelay before the next one. Errors classified non-retryable
// stop the loop immediately, as does context cancellation. The last error is
// returned when attempts are exhausted.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !errors.IsRetryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		if sleepErr := sleep(ctx, time.Duration(attempt)*baseDelay); sleepErr != nil {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
