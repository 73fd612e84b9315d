package pipeline

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy controls how often a failed stage call is repeated. MaxAttempts
// of 1 or less means a single attempt.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// retryable is implemented by causes that know whether a repeat can help,
// such as HTTP status errors from the model backend.
type retryable interface {
	Retryable() bool
}

// shouldRetry only repeats classified transient failures and per-call
// timeouts. Anything unclassified is treated as permanent.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.InitialBackoff <= 0 {
		return 0
	}
	d := float64(p.InitialBackoff) * math.Pow(2, float64(attempt))
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}

func (p RetryPolicy) do(ctx context.Context, log zerolog.Logger, fn func(context.Context) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return attempt, lastErr
			}
			return attempt, err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt + 1, nil
		}
		if attempt == maxAttempts-1 || !shouldRetry(lastErr) {
			return attempt + 1, lastErr
		}

		wait := p.backoff(attempt)
		log.Warn().Err(lastErr).Int("attempt", attempt+1).Dur("backoff", wait).Msg("stage call failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, lastErr
		case <-timer.C:
		}
	}
	return maxAttempts, lastErr
}
