package services

import (
	"fmt"
	"time"
)

var defaultBackoffs = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// retryWithBackoff runs fn up to maxRetries times, sleeping between attempts.
func retryWithBackoff(fn func() error, maxRetries int, backoffs []time.Duration) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < maxRetries-1 && i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
