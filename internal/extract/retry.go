package extract

import (
	"context"
	"time"
)

// RetryPolicy retries an operation a fixed number of times with a constant
// delay between attempts.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy matches the extraction defaults: two retries, two
// seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Delay: 2 * time.Second}
}

// Do runs op up to MaxRetries+1 times, sleeping Delay between attempts.
// Context cancellation aborts the wait and returns the context error.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}
