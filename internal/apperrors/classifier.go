package apperrors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/voyagecrm/booking-core/internal/validation"
)

// PostgreSQL SQLSTATE codes the classifier recognises
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	// PostgREST (Supabase) "no rows" for single-object requests
	postgrestNoRows = "PGRST116"
)

// ClassifierConfig holds de-duplication and forwarding settings
type ClassifierConfig struct {
	DedupWindow    time.Duration // repeats closer than this count towards the threshold
	DedupThreshold int           // repeats allowed before classification degrades to RATE_LIMITED
	Production     bool          // forward logged errors to the tracking collaborator
	TrackTimeout   time.Duration // per-forward timeout
}

// DefaultClassifierConfig returns the default classifier configuration
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		DedupWindow:    time.Second,
		DedupThreshold: 5,
		TrackTimeout:   5 * time.Second,
	}
}

// Tracker forwards classified errors to an external error-tracking service
type Tracker interface {
	SendToTracking(ctx context.Context, err *AppError, context map[string]interface{}) error
}

type occurrence struct {
	count int
	last  time.Time
}

// Classifier maps raw failures into the AppError taxonomy and logs them.
// Its repeat counters are owned by the instance and safe for concurrent use.
type Classifier struct {
	config  ClassifierConfig
	logger  *logrus.Logger
	tracker Tracker
	now     func() time.Time

	mu        sync.Mutex
	counts    map[string]*occurrence
	lastSweep time.Time

	pending sync.WaitGroup
}

// NewClassifier creates a classifier. tracker may be nil.
func NewClassifier(config ClassifierConfig, logger *logrus.Logger, tracker Tracker) *Classifier {
	defaults := DefaultClassifierConfig()
	if config.DedupWindow <= 0 {
		config.DedupWindow = defaults.DedupWindow
	}
	if config.DedupThreshold <= 0 {
		config.DedupThreshold = defaults.DedupThreshold
	}
	if config.TrackTimeout <= 0 {
		config.TrackTimeout = defaults.TrackTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Classifier{
		config:  config,
		logger:  logger,
		tracker: tracker,
		now:     time.Now,
		counts:  make(map[string]*occurrence),
	}
}

// SetClock replaces the time source (tests)
func (c *Classifier) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// ClearErrorCounts forgets every tracked repeat
func (c *Classifier) ClearErrorCounts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]*occurrence)
}

// rateLimited records one occurrence of message and reports whether it has
// now repeated more than the threshold inside the window.
func (c *Classifier) rateLimited(message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	// entries idle for a whole window would restart at 1 anyway
	if now.Sub(c.lastSweep) >= c.config.DedupWindow {
		for msg, o := range c.counts {
			if now.Sub(o.last) >= c.config.DedupWindow {
				delete(c.counts, msg)
			}
		}
		c.lastSweep = now
	}

	occ, ok := c.counts[message]
	if !ok {
		c.counts[message] = &occurrence{count: 1, last: now}
		return false
	}

	if now.Sub(occ.last) < c.config.DedupWindow {
		occ.count++
	} else {
		occ.count = 1
	}
	occ.last = now

	return occ.count > c.config.DedupThreshold
}

func (c *Classifier) rateLimitedError(err error, operation string) *AppError {
	return Wrap(err, CodeRateLimited, "Too many similar errors. Please try again shortly.").
		WithDetail("operation", operation)
}

// Classify routes err to the matching handler. Already-classified errors are
// returned unchanged and validation failures keep their field. Cancellation
// by the caller is not a failure and does not count towards de-duplication.
func (c *Classifier) Classify(err error, operation string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, CodeCanceled, "The request was cancelled").
			WithDetail("operation", operation)
	}
	if vErr, ok := validation.AsValidationError(err); ok {
		return Wrap(err, CodeValidation, vErr.Message).
			WithDetail("field", vErr.Field).
			WithDetail("operation", operation)
	}
	if isAPIFailure(err) {
		return c.HandleAPIError(err, operation)
	}
	return c.HandleDatabaseError(err, operation)
}

// HandleDatabaseError classifies a storage failure
func (c *Classifier) HandleDatabaseError(err error, operation string) *AppError {
	if err == nil {
		return nil
	}
	if c.rateLimited(err.Error()) {
		return c.rateLimitedError(err, operation)
	}

	var appErr *AppError
	switch code := sqlState(err); {
	case code == pgUniqueViolation:
		appErr = Wrap(err, CodeDuplicateEntry, "This record already exists")
	case code == pgForeignKeyViolation:
		appErr = Wrap(err, CodeForeignKeyViolation, "A referenced record does not exist")
	case errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), postgrestNoRows):
		appErr = Wrap(err, CodeNotFound, "The requested record was not found")
	case strings.Contains(err.Error(), "duplicate key"):
		appErr = Wrap(err, CodeDuplicateEntry, "This record already exists")
	case strings.Contains(err.Error(), "violates foreign key"):
		appErr = Wrap(err, CodeForeignKeyViolation, "A referenced record does not exist")
	default:
		appErr = Wrap(err, CodeDatabase, "A database error occurred. Please try again.")
		if code != "" {
			appErr.WithDetail("sqlstate", code)
		}
	}
	return appErr.WithDetail("operation", operation)
}

// HandleAPIError classifies a failure of an HTTP-style call
func (c *Classifier) HandleAPIError(err error, operation string) *AppError {
	if err == nil {
		return nil
	}
	if c.rateLimited(err.Error()) {
		return c.rateLimitedError(err, operation)
	}

	var appErr *AppError
	var sc StatusCoder
	switch {
	case errors.As(err, &sc):
		status := sc.StatusCode()
		appErr = Wrap(err, APIErrorCode(status), fmt.Sprintf("Request failed with status %d", status)).
			WithDetail("status", status)
	case isNetworkFailure(err):
		appErr = Wrap(err, CodeNetwork, "Unable to reach the server. Please check your connection.")
	default:
		appErr = Wrap(err, CodeUnknown, "An unexpected error occurred")
	}
	return appErr.WithDetail("operation", operation)
}

func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isAPIFailure(err error) bool {
	var sc StatusCoder
	return errors.As(err, &sc) || isNetworkFailure(err)
}

// isNetworkFailure reports failures where no response was received
func isNetworkFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// LogError writes err to the structured log at a severity derived from its
// code and, in production, forwards it to the tracker without blocking.
func (c *Classifier) LogError(err *AppError, context map[string]interface{}) {
	if err == nil {
		return
	}

	fields := logrus.Fields{
		"code":      err.Code,
		"timestamp": err.Timestamp,
	}
	for k, v := range err.Details {
		fields[k] = v
	}
	for k, v := range context {
		fields[k] = v
	}
	if err.cause != nil {
		fields["cause"] = err.cause.Error()
	}

	c.logger.WithFields(fields).Log(severity(err.Code), err.Message)

	if c.config.Production && c.tracker != nil && err.Code != CodeCanceled {
		c.forward(err, context)
	}
}

// WaitForTracking blocks until in-flight tracker forwards have finished
func (c *Classifier) WaitForTracking() {
	c.pending.Wait()
}

func (c *Classifier) forward(err *AppError, fields map[string]interface{}) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.WithField("panic", r).Warn("Error tracker panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.config.TrackTimeout)
		defer cancel()

		if sendErr := c.tracker.SendToTracking(ctx, err, fields); sendErr != nil {
			c.logger.WithError(sendErr).Debug("Failed to forward error to tracker")
		}
	}()
}

func severity(code string) logrus.Level {
	switch {
	case strings.Contains(code, "CRITICAL"), strings.Contains(code, "SECURITY"):
		return logrus.ErrorLevel
	case strings.Contains(code, "VALIDATION"), strings.Contains(code, "NOT_FOUND"):
		return logrus.WarnLevel
	case strings.Contains(code, "RATE_LIMITED"), strings.Contains(code, "CANCELED"):
		return logrus.InfoLevel
	default:
		return logrus.ErrorLevel
	}
}
