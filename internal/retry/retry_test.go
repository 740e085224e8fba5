package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storably/stashsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 20 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     200 * time.Millisecond,
	}
}

func TestDoSucceedsOnThirdAttemptWithBackoff(t *testing.T) {
	exec := New(testConfig(), zap.NewNop())

	attempts := 0
	start := time.Now()
	err := exec.Do(context.Background(), "flaky", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// slept ~initial then ~initial*multiplier between attempts
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestDoTerminalRaisesImmediately(t *testing.T) {
	exec := New(testConfig(), zap.NewNop())

	boom := errors.New("401 unauthorized")
	attempts := 0
	start := time.Now()
	err := exec.Do(context.Background(), "auth", func(ctx context.Context) error {
		attempts++
		return Terminal(boom)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, IsTerminal(err))
	assert.ErrorIs(t, err, boom)
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestDoExhaustionReportsLabelAndAttempts(t *testing.T) {
	exec := New(testConfig(), zap.NewNop())

	last := errors.New("connection reset")
	err := exec.Do(context.Background(), "warehouse.units", func(ctx context.Context) error {
		return last
	})

	require.Error(t, err)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "warehouse.units", exhausted.Label)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, last)
}

func TestValueReturnsThirdAttemptResult(t *testing.T) {
	exec := New(testConfig(), zap.NewNop())

	attempts := 0
	got, err := Value(context.Background(), exec, "fetch", func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestValueZeroOnError(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 1
	exec := New(cfg, zap.NewNop())

	got, err := Value(context.Background(), exec, "fetch", func(ctx context.Context) (string, error) {
		return "partial", errors.New("nope")
	})

	require.Error(t, err)
	assert.Empty(t, got)
}
