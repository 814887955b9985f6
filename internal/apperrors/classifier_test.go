package apperrors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagecrm/booking-core/internal/validation"
)

type statusErr struct{ status int }

func (e *statusErr) Error() string   { return fmt.Sprintf("status %d", e.status) }
func (e *statusErr) StatusCode() int { return e.status }

type recordingTracker struct {
	mu    sync.Mutex
	sent  []*AppError
	panic bool
}

func (r *recordingTracker) SendToTracking(_ context.Context, err *AppError, _ map[string]interface{}) error {
	if r.panic {
		panic("tracker exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, err)
	return nil
}

func (r *recordingTracker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newTestClassifier(t *testing.T) (*Classifier, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	c := NewClassifier(DefaultClassifierConfig(), logger, nil)
	now := time.Date(2026, 5, 13, 10, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })
	return c, hook
}

func TestHandleDatabaseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"pq unique violation", &pq.Error{Code: "23505", Message: "dup"}, CodeDuplicateEntry},
		{"pq foreign key violation", &pq.Error{Code: "23503", Message: "fk"}, CodeForeignKeyViolation},
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, CodeDuplicateEntry},
		{"pgx foreign key violation", &pgconn.PgError{Code: "23503"}, CodeForeignKeyViolation},
		{"wrapped unique violation", fmt.Errorf("insert booking: %w", &pq.Error{Code: "23505"}), CodeDuplicateEntry},
		{"no rows", sql.ErrNoRows, CodeNotFound},
		{"wrapped no rows", fmt.Errorf("booking b1: %w", sql.ErrNoRows), CodeNotFound},
		{"postgrest no rows", errors.New("PGRST116: JSON object requested, multiple (or no) rows returned"), CodeNotFound},
		{"duplicate key text", errors.New("duplicate key value violates unique constraint"), CodeDuplicateEntry},
		{"other sqlstate", &pq.Error{Code: "42P01"}, CodeDatabase},
		{"plain failure", errors.New("connection pool exhausted"), CodeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClassifier(t)
			appErr := c.HandleDatabaseError(tt.err, "create_booking")
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, "create_booking", appErr.Details["operation"])
			assert.ErrorIs(t, appErr, tt.err)
			assert.NotEmpty(t, appErr.Message)
		})
	}
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"service unavailable", &statusErr{503}, "API_ERROR_503"},
		{"bad request", &statusErr{400}, "API_ERROR_400"},
		{"wrapped status", fmt.Errorf("generate invoice: %w", &statusErr{429}), "API_ERROR_429"},
		{"url error", &url.Error{Op: "Get", URL: "http://docs", Err: errors.New("dial tcp")}, CodeNetwork},
		{"dial error", &net.OpError{Op: "dial", Err: errors.New("refused")}, CodeNetwork},
		{"deadline", context.DeadlineExceeded, CodeNetwork},
		{"anything else", errors.New("boom"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClassifier(t)
			appErr := c.HandleAPIError(tt.err, "generate_document")
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestClassify(t *testing.T) {
	c, _ := newTestClassifier(t)

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, c.Classify(nil, "op"))
	})

	t.Run("classified errors pass through", func(t *testing.T) {
		orig := New(CodeAuthorization, "not yours")
		assert.Same(t, orig, c.Classify(fmt.Errorf("wrapped: %w", orig), "op"))
	})

	t.Run("validation keeps field", func(t *testing.T) {
		vErr := validation.Required("customer_name", "")
		appErr := c.Classify(vErr, "create_booking")
		require.NotNil(t, appErr)
		assert.Equal(t, CodeValidation, appErr.Code)
		assert.Equal(t, "customer_name", appErr.Details["field"])
		assert.Equal(t, "Customer name is required", appErr.Message)
	})

	t.Run("status errors go to API handling", func(t *testing.T) {
		assert.Equal(t, "API_ERROR_502", c.Classify(&statusErr{502}, "op").Code)
	})

	t.Run("storage errors go to database handling", func(t *testing.T) {
		assert.Equal(t, CodeNotFound, c.Classify(sql.ErrNoRows, "op").Code)
	})

	t.Run("caller cancellation is its own code", func(t *testing.T) {
		err := fmt.Errorf("select bookings: %w", context.Canceled)
		appErr := c.Classify(err, "get_booking")
		require.NotNil(t, appErr)
		assert.Equal(t, CodeCanceled, appErr.Code)
		assert.ErrorIs(t, appErr, context.Canceled)
	})
}

func TestClassify_CancellationIsNotCounted(t *testing.T) {
	c, _ := newTestClassifier(t)
	for i := 0; i < 10; i++ {
		assert.Equal(t, CodeCanceled, c.Classify(context.Canceled, "op").Code)
	}
	assert.Empty(t, c.counts)
}

func TestDeduplication(t *testing.T) {
	t.Run("sixth repeat inside the window is rate limited", func(t *testing.T) {
		c, _ := newTestClassifier(t)
		err := errors.New("connection reset")

		for i := 1; i <= 5; i++ {
			assert.Equal(t, CodeDatabase, c.HandleDatabaseError(err, "op").Code, "occurrence %d", i)
		}
		assert.Equal(t, CodeRateLimited, c.HandleDatabaseError(err, "op").Code)
		assert.Equal(t, CodeRateLimited, c.HandleDatabaseError(err, "op").Code)
	})

	t.Run("different messages are counted separately", func(t *testing.T) {
		c, _ := newTestClassifier(t)
		for i := 0; i < 10; i++ {
			appErr := c.HandleDatabaseError(fmt.Errorf("failure %d", i), "op")
			assert.Equal(t, CodeDatabase, appErr.Code)
		}
	})

	t.Run("count resets after the window", func(t *testing.T) {
		c, _ := newTestClassifier(t)
		now := time.Date(2026, 5, 13, 10, 0, 0, 0, time.UTC)
		c.SetClock(func() time.Time { return now })
		err := errors.New("timeout talking to db")

		for i := 0; i < 5; i++ {
			c.HandleDatabaseError(err, "op")
		}
		now = now.Add(2 * time.Second)
		assert.Equal(t, CodeDatabase, c.HandleDatabaseError(err, "op").Code)
	})

	t.Run("clear error counts", func(t *testing.T) {
		c, _ := newTestClassifier(t)
		err := &statusErr{503}
		for i := 0; i < 6; i++ {
			c.HandleAPIError(err, "op")
		}
		assert.Equal(t, CodeRateLimited, c.HandleAPIError(err, "op").Code)

		c.ClearErrorCounts()
		assert.Equal(t, "API_ERROR_503", c.HandleAPIError(err, "op").Code)
	})

	t.Run("instances do not share counters", func(t *testing.T) {
		a, _ := newTestClassifier(t)
		b, _ := newTestClassifier(t)
		err := errors.New("shared message")
		for i := 0; i < 6; i++ {
			a.HandleDatabaseError(err, "op")
		}
		assert.Equal(t, CodeDatabase, b.HandleDatabaseError(err, "op").Code)
	})
}

func TestDeduplication_EvictsIdleMessages(t *testing.T) {
	c, _ := newTestClassifier(t)
	now := time.Date(2026, 5, 13, 10, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	for i := 0; i < 100; i++ {
		c.HandleDatabaseError(fmt.Errorf("failure %d", i), "op")
	}
	assert.Len(t, c.counts, 100)

	now = now.Add(2 * time.Second)
	c.HandleDatabaseError(errors.New("fresh failure"), "op")
	assert.Len(t, c.counts, 1)
}

func TestDeduplication_Concurrent(t *testing.T) {
	c, _ := newTestClassifier(t)
	err := errors.New("concurrent failure")

	var wg sync.WaitGroup
	var mu sync.Mutex
	limited := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.HandleDatabaseError(err, "op").Code == CodeRateLimited {
				mu.Lock()
				limited++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 45, limited)
}

func TestLogError_Severity(t *testing.T) {
	tests := []struct {
		code string
		want logrus.Level
	}{
		{CodeValidation, logrus.WarnLevel},
		{CodeNotFound, logrus.WarnLevel},
		{CodeRateLimited, logrus.InfoLevel},
		{CodeCanceled, logrus.InfoLevel},
		{CodeDatabase, logrus.ErrorLevel},
		{"SECURITY_BREACH", logrus.ErrorLevel},
		{"CRITICAL_FAILURE", logrus.ErrorLevel},
		{"API_ERROR_500", logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, hook := newTestClassifier(t)
			c.LogError(New(tt.code, "something happened"), map[string]interface{}{"booking_id": "b1"})

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.want, entry.Level)
			assert.Equal(t, "something happened", entry.Message)
			assert.Equal(t, tt.code, entry.Data["code"])
			assert.Equal(t, "b1", entry.Data["booking_id"])
		})
	}
}

func TestLogError_Tracking(t *testing.T) {
	t.Run("not forwarded outside production", func(t *testing.T) {
		logger, _ := logtest.NewNullLogger()
		tracker := &recordingTracker{}
		c := NewClassifier(DefaultClassifierConfig(), logger, tracker)

		c.LogError(New(CodeDatabase, "db down"), nil)
		c.WaitForTracking()

		assert.Equal(t, 0, tracker.count())
	})

	t.Run("forwarded in production", func(t *testing.T) {
		logger, _ := logtest.NewNullLogger()
		tracker := &recordingTracker{}
		cfg := DefaultClassifierConfig()
		cfg.Production = true
		c := NewClassifier(cfg, logger, tracker)

		c.LogError(New(CodeDatabase, "db down"), nil)
		c.WaitForTracking()

		assert.Equal(t, 1, tracker.count())
	})

	t.Run("cancellation is never forwarded", func(t *testing.T) {
		logger, _ := logtest.NewNullLogger()
		tracker := &recordingTracker{}
		cfg := DefaultClassifierConfig()
		cfg.Production = true
		c := NewClassifier(cfg, logger, tracker)

		c.LogError(c.Classify(context.Canceled, "create_booking"), nil)
		c.WaitForTracking()

		assert.Equal(t, 0, tracker.count())
	})

	t.Run("tracker panic is contained", func(t *testing.T) {
		logger, _ := logtest.NewNullLogger()
		cfg := DefaultClassifierConfig()
		cfg.Production = true
		c := NewClassifier(cfg, logger, &recordingTracker{panic: true})

		assert.NotPanics(t, func() {
			c.LogError(New(CodeDatabase, "db down"), nil)
			c.WaitForTracking()
		})
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		c, hook := newTestClassifier(t)
		c.LogError(nil, nil)
		assert.Empty(t, hook.AllEntries())
	})
}

func TestHTTPStatus(t *testing.T) {
	status, ok := HTTPStatus(APIErrorCode(429))
	assert.True(t, ok)
	assert.Equal(t, 429, status)

	_, ok = HTTPStatus(CodeDatabase)
	assert.False(t, ok)

	_, ok = HTTPStatus("API_ERROR_abc")
	assert.False(t, ok)
}
