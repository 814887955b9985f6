// Package retry runs operations with bounded attempts, a per-attempt
// timeout and exponential backoff with jitter.
package retry

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voyagecrm/booking-core/internal/apperrors"
	"github.com/voyagecrm/booking-core/internal/validation"
)

// Config controls the retry schedule
type Config struct {
	MaxRetries        int           // total attempts, including the first
	InitialDelay      time.Duration // delay after the first failure
	BackoffMultiplier float64
	AttemptTimeout    time.Duration
}

// DefaultConfig returns three attempts, 1s initial delay, doubling, 10s per attempt
func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		BackoffMultiplier: 2,
		AttemptTimeout:    10 * time.Second,
	}
}

// Executor runs operations under a Config
type Executor struct {
	config Config
	logger *logrus.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(d time.Duration) time.Duration
}

// NewExecutor creates an executor, filling zero config values with defaults
func NewExecutor(config Config, logger *logrus.Logger) *Executor {
	defaults := DefaultConfig()
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialDelay < 0 {
		config.InitialDelay = 0
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = defaults.BackoffMultiplier
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = defaults.AttemptTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Executor{
		config: config,
		logger: logger,
		sleep:  sleepContext,
		jitter: randomJitter,
	}
}

// SetSleep replaces the backoff sleep (tests)
func (e *Executor) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	e.sleep = sleep
}

// SetJitter replaces the jitter source (tests)
func (e *Executor) SetJitter(jitter func(d time.Duration) time.Duration) {
	e.jitter = jitter
}

// Config returns the effective configuration
func (e *Executor) Config() Config {
	return e.config
}

// Execute runs op until it succeeds, fails with a non-retryable error, or
// attempts run out. The last error is returned unchanged.
func (e *Executor) Execute(ctx context.Context, operation string, op func(ctx context.Context) error) error {
	delay := e.config.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= e.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = e.attempt(ctx, op)
		if lastErr == nil {
			return nil
		}
		if ShouldNotRetry(lastErr) || attempt == e.config.MaxRetries {
			return lastErr
		}
		// caller gave up while the attempt ran
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := delay + e.jitter(delay)
		e.logger.WithFields(logrus.Fields{
			"operation":    operation,
			"attempt":      attempt,
			"max_attempts": e.config.MaxRetries,
			"delay_ms":     wait.Milliseconds(),
			"error":        lastErr.Error(),
		}).Warn("Operation failed, retrying")

		if err := e.sleep(ctx, wait); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * e.config.BackoffMultiplier)
	}

	return lastErr
}

func (e *Executor) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.config.AttemptTimeout)
	defer cancel()
	return op(attemptCtx)
}

// Do is Execute for operations that produce a value
func Do[T any](ctx context.Context, e *Executor, operation string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, operation, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// ShouldNotRetry reports failures that another attempt cannot fix: invalid
// input, auth failures, missing or duplicate records, and client errors
// other than 429.
func ShouldNotRetry(err error) bool {
	if err == nil {
		return true
	}
	if _, ok := validation.AsValidationError(err); ok {
		return true
	}

	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.CodeValidation,
		apperrors.CodeAuthentication,
		apperrors.CodeAuthorization,
		apperrors.CodeNotFound,
		apperrors.CodeDuplicateEntry,
		apperrors.CodeCanceled:
		return true
	}

	if status, ok := apperrors.HTTPStatus(code); ok {
		return status >= 400 && status < 500 && status != http.StatusTooManyRequests
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// randomJitter returns a value in [0, d/10)
func randomJitter(d time.Duration) time.Duration {
	max := int64(d) / 10
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(max))
}
