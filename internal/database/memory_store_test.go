package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagecrm/booking-core/internal/models"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateBooking(ctx, sampleBooking())
	require.NoError(t, err)
	assert.Equal(t, 1, created.Timeline.Len())

	_, err = store.CreateBooking(ctx, sampleBooking())
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	got, err := store.GetBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.CustomerName)

	_, err = store.GetBooking(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateBooking(ctx, sampleBooking())
	require.NoError(t, err)

	created.CustomerName = "Changed"
	created.Timeline.Append(models.BookingEvent{Type: models.EventModified, Description: "local only"})

	got, err := store.GetBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.CustomerName)
	assert.Equal(t, 1, got.Timeline.Len())

	first := got.Timeline.Events()[0]
	first.Metadata["device"] = "tampered"

	again, _ := store.GetBooking(ctx, "b1")
	assert.Equal(t, "desktop", again.Timeline.Events()[0].Metadata["device"])
}

func TestMemoryStore_Lists(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i, agent := range []string{"agent-1", "agent-2", "agent-1"} {
		b := sampleBooking()
		b.ID = fmt.Sprintf("b%d", i+1)
		b.AgentID = agent
		b.CreatedAt = b.CreatedAt.Add(time.Duration(i) * time.Hour)
		_, err := store.CreateBooking(ctx, b)
		require.NoError(t, err)
	}

	mine, err := store.GetUserBookings(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "b3", mine[0].ID)
	assert.Equal(t, "b1", mine[1].ID)

	all, err := store.GetAllBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.GetUserBookings(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryStore_UpdateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("applies patch and appends events", func(t *testing.T) {
		store := NewMemoryStore()
		store.now = func() time.Time { return time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC) }
		_, err := store.CreateBooking(ctx, sampleBooking())
		require.NoError(t, err)

		status := models.BookingStatusConfirmed
		updated, err := store.UpdateBooking(ctx, "b1", models.BookingPatch{
			Status:       &status,
			AppendEvents: []models.BookingEvent{{Type: models.EventConfirmed, Description: "Booking confirmed"}},
		})
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, updated.Status)
		assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), updated.UpdatedAt)

		events := updated.Timeline.Events()
		require.Len(t, events, 2)
		assert.Equal(t, models.EventCreated, events[0].Type)
		assert.Equal(t, 2, events[1].Sequence)
		assert.Equal(t, "b1", events[1].BookingID)
		assert.NotEmpty(t, events[1].ID)
	})

	t.Run("guard rejection leaves booking untouched", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.CreateBooking(ctx, sampleBooking())
		require.NoError(t, err)

		denied := errors.New("denied")
		status := models.BookingStatusCancelled
		_, err = store.UpdateBooking(ctx, "b1", models.BookingPatch{
			Status:       &status,
			AppendEvents: []models.BookingEvent{{Type: models.EventCancelled}},
			Guard:        func(models.Booking) error { return denied },
		})
		assert.ErrorIs(t, err, denied)

		got, _ := store.GetBooking(ctx, "b1")
		assert.Equal(t, models.BookingStatusPending, got.Status)
		assert.Equal(t, 1, got.Timeline.Len())
	})

	t.Run("missing booking", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.UpdateBooking(ctx, "nope", models.BookingPatch{})
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := NewMemoryStore()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.UpdateBooking(cctx, "b1", models.BookingPatch{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.CreateBooking(ctx, sampleBooking())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.UpdateBooking(ctx, "b1", models.BookingPatch{
				AppendEvents: []models.BookingEvent{{Type: models.EventModified, Description: fmt.Sprintf("edit %d", i)}},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.GetBooking(ctx, "b1")
	require.NoError(t, err)
	events := got.Timeline.Events()
	require.Len(t, events, 21)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Sequence)
	}
}
