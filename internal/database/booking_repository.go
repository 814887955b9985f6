package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/voyagecrm/booking-core/internal/models"
)

var (
	// ErrBookingNotFound wraps sql.ErrNoRows so both stores classify alike
	ErrBookingNotFound = fmt.Errorf("booking not found: %w", sql.ErrNoRows)

	// ErrDuplicateBooking mirrors the PostgreSQL unique-violation message
	ErrDuplicateBooking = errors.New(`duplicate key value violates unique constraint "bookings_pkey"`)
)

const bookingColumns = `
	id, type, item_id, item_name, agent_id, agent_name,
	customer_name, customer_email, customer_phone,
	booking_date, travel_date, total_amount, commission_amount,
	payment_status, status, guests, special_requests, region,
	created_at, updated_at`

const eventColumns = `id, booking_id, seq, type, description, user_id, user_name, metadata, created_at`

// eventRow is the persisted form of a BookingEvent
type eventRow struct {
	ID          string    `db:"id"`
	BookingID   string    `db:"booking_id"`
	Sequence    int       `db:"seq"`
	Type        string    `db:"type"`
	Description string    `db:"description"`
	UserID      string    `db:"user_id"`
	UserName    string    `db:"user_name"`
	Metadata    []byte    `db:"metadata"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r eventRow) toModel() (models.BookingEvent, error) {
	ev := models.BookingEvent{
		ID:          r.ID,
		BookingID:   r.BookingID,
		Sequence:    r.Sequence,
		Type:        models.BookingEventType(r.Type),
		Description: r.Description,
		Timestamp:   r.CreatedAt,
		UserID:      r.UserID,
		UserName:    r.UserName,
	}
	if len(r.Metadata) > 0 && string(r.Metadata) != "null" {
		if err := json.Unmarshal(r.Metadata, &ev.Metadata); err != nil {
			return models.BookingEvent{}, fmt.Errorf("failed to decode metadata of event %s: %w", r.ID, err)
		}
	}
	return ev, nil
}

// BookingRepository is the PostgreSQL (or Supabase) booking store
type BookingRepository struct {
	db  DB
	now func() time.Time
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db, now: time.Now}
}

// CreateBooking inserts a booking together with its initial timeline
func (r *BookingRepository) CreateBooking(ctx context.Context, booking models.Booking) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bookings (` + bookingColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	_, err = tx.ExecContext(ctx, query,
		booking.ID, booking.Type, booking.ItemID, booking.ItemName, booking.AgentID, booking.AgentName,
		booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.BookingDate, booking.TravelDate, booking.TotalAmount, booking.CommissionAmount,
		booking.PaymentStatus, booking.Status, booking.Guests, booking.SpecialRequests, booking.Region,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	for _, ev := range booking.Timeline.Events() {
		if err := insertEvent(ctx, tx, ev, ev.Sequence); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	created := booking.Clone()
	return &created, nil
}

// GetBooking retrieves a booking with its timeline
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.GetContext(ctx, &booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	bookings := []models.Booking{booking}
	if err := r.attachTimelines(ctx, r.db, bookings); err != nil {
		return nil, err
	}
	return &bookings[0], nil
}

// GetUserBookings retrieves the bookings owned by an agent, newest first
func (r *BookingRepository) GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE agent_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	if err := r.attachTimelines(ctx, r.db, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetAllBookings retrieves every booking, newest first
func (r *BookingRepository) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	if err := r.attachTimelines(ctx, r.db, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBooking applies patch under a row lock. The guard sees the locked
// row, and appended events take the next sequence numbers of the booking.
func (r *BookingRepository) UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current models.Booking
	err = tx.GetContext(ctx, &current, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}

	locked := []models.Booking{current}
	if err := r.attachTimelines(ctx, tx, locked); err != nil {
		return nil, err
	}
	current = locked[0]

	if patch.Guard != nil {
		if err := patch.Guard(current.Clone()); err != nil {
			return nil, err
		}
	}

	updated := current.Clone()
	patch.Apply(&updated)
	updated.UpdatedAt = r.now().UTC()

	sets, args := updateAssignments(patch)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+2))
	args = append(args, updated.UpdatedAt)

	query := fmt.Sprintf(`UPDATE bookings SET %s WHERE id = $1`, strings.Join(sets, ", "))
	if _, err := tx.ExecContext(ctx, query, append([]interface{}{id}, args...)...); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	for _, ev := range patch.AppendEvents {
		ev.BookingID = id
		stored := updated.Timeline.Append(ev)
		if err := insertEvent(ctx, tx, stored, 0); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking update: %w", err)
	}

	return &updated, nil
}

// updateAssignments renders the present patch fields as SET clauses whose
// placeholders start at $2 ($1 is the booking id)
func updateAssignments(p models.BookingPatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
	}

	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.PaymentStatus != nil {
		add("payment_status", *p.PaymentStatus)
	}
	if p.CustomerName != nil {
		add("customer_name", *p.CustomerName)
	}
	if p.CustomerEmail != nil {
		add("customer_email", *p.CustomerEmail)
	}
	if p.CustomerPhone != nil {
		add("customer_phone", *p.CustomerPhone)
	}
	if p.TravelDate != nil {
		add("travel_date", *p.TravelDate)
	}
	if p.TotalAmount != nil {
		add("total_amount", *p.TotalAmount)
	}
	if p.CommissionAmount != nil {
		add("commission_amount", *p.CommissionAmount)
	}
	if p.Guests != nil {
		add("guests", *p.Guests)
	}
	if p.SpecialRequests != nil {
		add("special_requests", *p.SpecialRequests)
	}
	if p.Region != nil {
		add("region", *p.Region)
	}
	return sets, args
}

type eventExecer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// insertEvent writes one event. A zero seq lets the database assign the
// next number for the booking inside the current transaction.
func insertEvent(ctx context.Context, tx eventExecer, ev models.BookingEvent, seq int) error {
	var metadata interface{}
	if len(ev.Metadata) > 0 {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("failed to serialize event metadata: %w", err)
		}
		metadata = string(raw)
	}

	var query string
	args := []interface{}{ev.ID, ev.BookingID, ev.Type, ev.Description, ev.UserID, ev.UserName, metadata, ev.Timestamp}
	if seq > 0 {
		query = `
			INSERT INTO booking_events (id, booking_id, type, description, user_id, user_name, metadata, created_at, seq)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		args = append(args, seq)
	} else {
		query = `
			INSERT INTO booking_events (id, booking_id, type, description, user_id, user_name, metadata, created_at, seq)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
				(SELECT COALESCE(MAX(seq), 0) + 1 FROM booking_events WHERE booking_id = $2))`
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append %s event: %w", ev.Type, err)
	}
	return nil
}

type eventSelector interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// attachTimelines loads the events of every booking in one query
func (r *BookingRepository) attachTimelines(ctx context.Context, q eventSelector, bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]string, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}

	var rows []eventRow
	query := `SELECT ` + eventColumns + ` FROM booking_events WHERE booking_id = ANY($1) ORDER BY booking_id, seq`
	if err := q.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to load booking events: %w", err)
	}

	byBooking := make(map[string][]models.BookingEvent, len(bookings))
	for _, row := range rows {
		ev, err := row.toModel()
		if err != nil {
			return err
		}
		byBooking[row.BookingID] = append(byBooking[row.BookingID], ev)
	}

	for i := range bookings {
		bookings[i].Timeline = models.NewTimeline(byBooking[bookings[i].ID]...)
	}
	return nil
}
