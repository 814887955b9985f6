package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/voyagecrm/booking-core/internal/models"
)

// MemoryStore is the in-process booking store used when remote storage is
// disabled. Callers always receive copies; the stored timelines are only
// ever appended to.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
	now      func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[string]*models.Booking),
		now:      time.Now,
	}
}

// CreateBooking stores booking and its initial timeline
func (s *MemoryStore) CreateBooking(ctx context.Context, booking models.Booking) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[booking.ID]; exists {
		return nil, ErrDuplicateBooking
	}

	stored := booking.Clone()
	s.bookings[booking.ID] = &stored

	created := stored.Clone()
	return &created, nil
}

// GetBooking returns a copy of one booking
func (s *MemoryStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	found := b.Clone()
	return &found, nil
}

// GetUserBookings returns the bookings owned by userID, newest first
func (s *MemoryStore) GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.list(ctx, func(b *models.Booking) bool { return b.AgentID == userID })
}

// GetAllBookings returns every booking, newest first
func (s *MemoryStore) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	return s.list(ctx, func(*models.Booking) bool { return true })
}

func (s *MemoryStore) list(ctx context.Context, keep func(b *models.Booking) bool) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			result = append(result, b.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateBooking runs the guard and applies patch while holding the write lock
func (s *MemoryStore) UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}

	if patch.Guard != nil {
		if err := patch.Guard(b.Clone()); err != nil {
			return nil, err
		}
	}

	patch.Apply(b)
	for _, ev := range patch.AppendEvents {
		ev.BookingID = id
		b.Timeline.Append(ev)
	}
	b.UpdatedAt = s.now().UTC()

	updated := b.Clone()
	return &updated, nil
}

// Len reports the number of stored bookings
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookings)
}
