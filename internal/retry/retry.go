package retry

import (
	"context"
	"time"

	"github.com/jpillora/backoff"

	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/logger"
)

type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		Multiplier:     1.5,
		MaxBackoff:     30 * time.Second,
	}
}

// Executor re-runs a fallible operation with bounded exponential backoff.
// Only provider transport failures are retried; validation, auth, quota and
// rate-limit failures propagate unchanged on first occurrence.
type Executor struct {
	cfg Config
	log logger.Logger
}

func NewExecutor(cfg Config, log logger.Logger) *Executor {
	defaults := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaults.InitialBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = defaults.Multiplier
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaults.MaxBackoff
	}
	return &Executor{cfg: cfg, log: log}
}

func (e *Executor) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    e.cfg.InitialBackoff,
		Max:    e.cfg.MaxBackoff,
		Factor: e.cfg.Multiplier,
		Jitter: false,
	}

	var err error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errs.IsRetryable(err) {
			return err
		}
		if attempt == e.cfg.MaxAttempts {
			break
		}

		wait := b.Duration()
		if e.log != nil {
			e.log.Warnf("%s failed on attempt %d/%d, retrying in %s: %v", operation, attempt, e.cfg.MaxAttempts, wait, err)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return err
}

// Execute wraps Do for operations that return a value
func Execute[T any](ctx context.Context, e *Executor, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Do(ctx, operation, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = fn(ctx)
		return innerErr
	})
	return result, err
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
