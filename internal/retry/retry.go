// Package retry wraps remote calls in bounded retry with exponential backoff.
// Terminal failures (malformed requests, auth errors) are surfaced immediately;
// everything else is retried up to the configured attempt cap.
package retry

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/storably/stashsync/internal/config"
	"go.uber.org/zap"
)

// ExhaustedError is returned after all attempts failed. It carries the
// operation label and attempt count for observability.
type ExhaustedError struct {
	Label    string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Label, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal marks err as non-retryable. The executor raises it without
// consuming further attempts.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err was marked with Terminal.
func IsTerminal(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}

// Executor runs operations under the configured retry policy. The delay before
// attempt n is min(initial * multiplier^(n-1), max).
type Executor struct {
	cfg config.RetryConfig
	log *zap.Logger
}

func New(cfg config.RetryConfig, log *zap.Logger) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Executor{cfg: cfg, log: log.Named("retry")}
}

// Do executes op under the retry policy. The returned error is either the
// terminal error as marked, or an ExhaustedError wrapping the last failure.
func (e *Executor) Do(ctx context.Context, label string, op func(ctx context.Context) error) error {
	attempts := 0

	wrapped := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsTerminal(err) {
			return backoff.Permanent(err)
		}
		e.log.Warn("operation failed, will retry",
			zap.String("operation", label),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.cfg.InitialDelay
	policy.Multiplier = e.cfg.Multiplier
	policy.MaxInterval = e.cfg.MaxDelay
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	err := backoff.Retry(wrapped, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(e.cfg.MaxAttempts-1)), ctx))
	if err == nil {
		return nil
	}
	if IsTerminal(err) {
		return err
	}
	return &ExhaustedError{Label: label, Attempts: attempts, Err: err}
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, e *Executor, label string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Do(ctx, label, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
