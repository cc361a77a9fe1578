package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestExecutor_SucceedsAfterTransientFailures(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:    3,
		InitialBackoff: 50 * time.Millisecond,
		Multiplier:     1.5,
	}, getLogger())

	attempts := 0
	start := time.Now()
	err := executor.Do(context.Background(), "createTest", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errs.ProviderTransport(nil, "connection reset")
		}
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// 50ms after attempt 1, 75ms after attempt 2
	assert.GreaterOrEqual(t, elapsed, 125*time.Millisecond)
}

func TestExecutor_ExhaustsAttempts(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		Multiplier:     1.5,
	}, getLogger())

	attempts := 0
	transportErr := errs.ProviderTransport(nil, "gateway timeout")
	err := executor.Do(context.Background(), "getResults", func(ctx context.Context) error {
		attempts++
		return transportErr
	})

	assert.Equal(t, 3, attempts)
	assert.Equal(t, errs.KindProviderTransport, errs.KindOf(err))
}

func TestExecutor_DoesNotRetryValidation(t *testing.T) {
	executor := NewExecutor(DefaultConfig(), getLogger())

	attempts := 0
	err := executor.Do(context.Background(), "createTest", func(ctx context.Context) error {
		attempts++
		return errs.Validation("malformed domain")
	})

	assert.Equal(t, 1, attempts)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestExecutor_DoesNotRetryAuth(t *testing.T) {
	executor := NewExecutor(DefaultConfig(), getLogger())

	attempts := 0
	err := executor.Do(context.Background(), "createTest", func(ctx context.Context) error {
		attempts++
		return errs.ProviderAuth("bad credentials")
	})

	assert.Equal(t, 1, attempts)
	assert.True(t, errs.IsKind(err, errs.KindProviderAuth))
}

func TestExecutor_BackoffCancellable(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:    3,
		InitialBackoff: 10 * time.Second,
		Multiplier:     1.5,
	}, getLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- executor.Do(ctx, "createTest", func(ctx context.Context) error {
			return errs.ProviderTransport(nil, "timeout")
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestExecute_ReturnsValue(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		Multiplier:     1.5,
	}, getLogger())

	attempts := 0
	value, err := Execute(context.Background(), executor, "getResults", func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errs.ProviderTransport(nil, "flaky")
		}
		return "test-123", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "test-123", value)
	assert.Equal(t, 2, attempts)
}
