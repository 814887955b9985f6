package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/voyagecrm/booking-core/internal/apperrors"
	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/internal/retry"
	"github.com/voyagecrm/booking-core/internal/validation"
	"github.com/voyagecrm/booking-core/pkg/documents"
)

const maxEventDescriptionLength = 500

// BookingStore is the storage collaborator the lifecycle runs against
type BookingStore interface {
	CreateBooking(ctx context.Context, booking models.Booking) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error)
	GetAllBookings(ctx context.Context) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error)
}

// DocumentGenerator renders booking documents and returns their URL
type DocumentGenerator interface {
	Generate(ctx context.Context, req documents.Request) (string, error)
}

// BookingService owns the booking lifecycle: validation, persistence through
// the retry executor, status transitions and the audit timeline.
type BookingService struct {
	store      BookingStore
	executor   *retry.Executor
	classifier *apperrors.Classifier
	documents  DocumentGenerator
	policy     TransitionPolicy
	logger     *logrus.Logger
	now        func() time.Time
}

// NewBookingService creates a new booking service. A nil policy is permissive.
func NewBookingService(
	store BookingStore,
	executor *retry.Executor,
	classifier *apperrors.Classifier,
	docs DocumentGenerator,
	policy TransitionPolicy,
	logger *logrus.Logger,
) *BookingService {
	if policy == nil {
		policy = PermissiveTransitionPolicy{}
	}
	return &BookingService{
		store:      store,
		executor:   executor,
		classifier: classifier,
		documents:  docs,
		policy:     policy,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the time source (tests)
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// ============================================================================
// CREATE
// ============================================================================

// Create validates a new booking and persists it with its created event.
// The booking date defaults to now.
func (s *BookingService) Create(ctx context.Context, actor models.Actor, req *models.CreateBookingRequest) (*models.Booking, error) {
	now := s.now().UTC()
	if req.BookingDate == nil {
		req.BookingDate = &now
	}

	if err := validation.ValidateBookingCreate(req); err != nil {
		return nil, err
	}

	booking := models.Booking{
		ID:               uuid.New().String(),
		Type:             req.Type,
		ItemID:           req.ItemID,
		ItemName:         req.ItemName,
		AgentID:          actor.UserID,
		AgentName:        actor.UserName,
		CustomerName:     req.CustomerName,
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:    req.CustomerPhone,
		BookingDate:      *req.BookingDate,
		TravelDate:       req.TravelDate,
		TotalAmount:      req.TotalAmount,
		CommissionAmount: req.CommissionAmount,
		PaymentStatus:    models.PaymentStatusPending,
		Status:           models.BookingStatusPending,
		Guests:           req.Guests,
		SpecialRequests:  req.SpecialRequests,
		Region:           req.Region,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	ev := s.newEvent(actor, models.EventCreated, fmt.Sprintf("Booking created for %s", booking.CustomerName))
	ev.BookingID = booking.ID
	booking.Timeline.Append(ev)

	const op = "create_booking"
	created, err := retry.Do(ctx, s.executor, op, func(ctx context.Context) (*models.Booking, error) {
		b, err := s.store.CreateBooking(ctx, booking)
		if err != nil {
			return nil, s.classifier.Classify(err, op)
		}
		return b, nil
	})
	if err != nil {
		return nil, s.fail(err, op, booking.ID, actor)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": created.ID,
		"agent_id":   created.AgentID,
		"type":       created.Type,
		"total":      created.TotalAmount,
	}).Info("Booking created")

	return created, nil
}

// ============================================================================
// STATUS TRANSITIONS
// ============================================================================

// UpdateStatus sets the booking status and records a modified event
func (s *BookingService) UpdateStatus(ctx context.Context, actor models.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if err := validation.ValidateBooking(&models.BookingFields{Status: &status}); err != nil {
		return nil, err
	}

	ev := s.newEvent(actor, models.EventModified, fmt.Sprintf("Booking status changed to %s", status))
	ev.Metadata["new_status"] = string(status)

	return s.transition(ctx, actor, bookingID, "update_status", status, ev)
}

// Confirm moves the booking to Confirmed
func (s *BookingService) Confirm(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	ev := s.newEvent(actor, models.EventConfirmed, "Booking confirmed")
	return s.transition(ctx, actor, bookingID, "confirm_booking", models.BookingStatusConfirmed, ev)
}

// Complete moves the booking to Completed
func (s *BookingService) Complete(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	ev := s.newEvent(actor, models.EventCompleted, "Booking completed")
	return s.transition(ctx, actor, bookingID, "complete_booking", models.BookingStatusCompleted, ev)
}

func (s *BookingService) transition(
	ctx context.Context,
	actor models.Actor,
	bookingID, op string,
	status models.BookingStatus,
	ev models.BookingEvent,
) (*models.Booking, error) {
	patch := models.BookingPatch{
		Status:       &status,
		AppendEvents: []models.BookingEvent{ev},
		Guard: func(current models.Booking) error {
			if err := s.checkOwner(actor, current); err != nil {
				return err
			}
			return s.policy.CheckTransition(current.Status, status)
		},
	}

	updated, err := s.update(ctx, actor, bookingID, op, patch)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"status":     status,
		"user_id":    actor.UserID,
	}).Info("Booking status changed")

	return updated, nil
}

// ============================================================================
// MODIFY
// ============================================================================

// Modify applies a validated partial edit and records which fields changed
func (s *BookingService) Modify(ctx context.Context, actor models.Actor, bookingID string, req *models.ModifyBookingRequest) (*models.Booking, error) {
	changed := req.ChangedFields()
	if len(changed) == 0 {
		return nil, validation.NewError("", "No changes provided")
	}
	if err := validation.ValidateBooking(req.Fields()); err != nil {
		return nil, err
	}

	ev := s.newEvent(actor, models.EventModified, "Booking details updated: "+strings.Join(changed, ", "))
	ev.Metadata["fields"] = changed

	patch := models.PatchFromModify(req)
	patch.AppendEvents = []models.BookingEvent{ev}
	patch.Guard = func(current models.Booking) error {
		if err := s.checkOwner(actor, current); err != nil {
			return err
		}
		return checkMerged(current, req)
	}

	return s.update(ctx, actor, bookingID, "modify_booking", patch)
}

// checkMerged re-applies the cross-field rules to the stored booking with
// the edit applied, so a lone commission or date change cannot break them.
func checkMerged(current models.Booking, req *models.ModifyBookingRequest) error {
	merged := current.Clone()
	patch := models.PatchFromModify(req)
	patch.Apply(&merged)

	return validation.ValidateBooking(&models.BookingFields{
		BookingDate:      &merged.BookingDate,
		TravelDate:       &merged.TravelDate,
		TotalAmount:      &merged.TotalAmount,
		CommissionAmount: &merged.CommissionAmount,
	})
}

// ============================================================================
// PAYMENT
// ============================================================================

// UpdatePaymentStatus records a payment status change. Refunds also append
// a refund event.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, actor models.Actor, bookingID string, status models.PaymentStatus) (*models.Booking, error) {
	if err := validation.ValidateBooking(&models.BookingFields{PaymentStatus: &status}); err != nil {
		return nil, err
	}

	ev := s.newEvent(actor, models.EventPayment, fmt.Sprintf("Payment status changed to %s", status))
	ev.Metadata["payment_status"] = string(status)
	events := []models.BookingEvent{ev}
	if status == models.PaymentStatusRefunded {
		events = append(events, s.newEvent(actor, models.EventRefund, "Refund initiated"))
	}

	patch := models.BookingPatch{
		PaymentStatus: &status,
		AppendEvents:  events,
		Guard: func(current models.Booking) error {
			return s.checkOwner(actor, current)
		},
	}

	return s.update(ctx, actor, bookingID, "update_payment_status", patch)
}

// ============================================================================
// CANCEL
// ============================================================================

// Cancel cancels the booking, marks its payment refunded and returns the
// advisory refund record.
func (s *BookingService) Cancel(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, *models.RefundRecord, error) {
	reason = validation.SanitizeString(reason)
	if utf8.RuneCountInString(reason) > maxEventDescriptionLength {
		return nil, nil, validation.NewError("reason", fmt.Sprintf("Reason cannot exceed %d characters", maxEventDescriptionLength))
	}

	description := "Booking cancelled"
	if reason != "" {
		description += ": " + reason
	}
	ev := s.newEvent(actor, models.EventCancelled, description)
	if reason != "" {
		ev.Metadata["reason"] = reason
	}

	status := models.BookingStatusCancelled
	payment := models.PaymentStatusRefunded
	patch := models.BookingPatch{
		Status:        &status,
		PaymentStatus: &payment,
		AppendEvents:  []models.BookingEvent{ev},
		Guard: func(current models.Booking) error {
			if err := s.checkOwner(actor, current); err != nil {
				return err
			}
			return s.policy.CheckTransition(current.Status, status)
		},
	}

	updated, err := s.update(ctx, actor, bookingID, "cancel_booking", patch)
	if err != nil {
		return nil, nil, err
	}

	refund := &models.RefundRecord{
		RefundID:      uuid.New().String(),
		BookingID:     updated.ID,
		Amount:        updated.TotalAmount,
		Status:        models.RefundStatusProcessing,
		EstimatedDays: models.RefundEstimatedDays,
		RequestedAt:   s.now().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"refund_id":  refund.RefundID,
		"amount":     refund.Amount,
		"user_id":    actor.UserID,
	}).Info("Booking cancelled")

	return updated, refund, nil
}

// ============================================================================
// TIMELINE
// ============================================================================

// AddEvent appends a caller-described event. Id, sequence and timestamp are
// assigned here and by the store; created events are reserved.
func (s *BookingService) AddEvent(ctx context.Context, actor models.Actor, bookingID string, req *models.AddEventRequest) (*models.Booking, error) {
	if !req.Type.IsValid() || req.Type == models.EventCreated {
		return nil, validation.NewError("type", "Event type must be confirmed, modified, cancelled, completed, payment or refund")
	}
	description := validation.SanitizeString(req.Description)
	if err := validation.Required("description", description); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(description) > maxEventDescriptionLength {
		return nil, validation.NewError("description", fmt.Sprintf("Description cannot exceed %d characters", maxEventDescriptionLength))
	}

	ev := s.newEvent(actor, req.Type, description)
	// request metadata recorded from the actor always wins over caller keys
	metadata := make(map[string]interface{}, len(req.Metadata)+len(ev.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	for k, v := range ev.Metadata {
		metadata[k] = v
	}
	ev.Metadata = metadata

	patch := models.BookingPatch{
		AppendEvents: []models.BookingEvent{ev},
		Guard: func(current models.Booking) error {
			return s.checkOwner(actor, current)
		},
	}

	return s.update(ctx, actor, bookingID, "add_event", patch)
}

// ============================================================================
// DOCUMENTS
// ============================================================================

// GenerateDocument returns a URL to the requested document of a booking
func (s *BookingService) GenerateDocument(ctx context.Context, actor models.Actor, bookingID string, docType documents.Type) (string, error) {
	if !docType.IsValid() {
		return "", validation.NewError("type", "Document type must be invoice, voucher, itinerary or receipt")
	}

	booking, err := s.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return "", err
	}

	const op = "generate_document"
	req := documents.Request{
		BookingID:    booking.ID,
		Type:         docType,
		CustomerName: booking.CustomerName,
		ItemName:     booking.ItemName,
		TravelDate:   booking.TravelDate,
		TotalAmount:  booking.TotalAmount,
		Status:       string(booking.Status),
	}
	url, err := retry.Do(ctx, s.executor, op, func(ctx context.Context) (string, error) {
		u, err := s.documents.Generate(ctx, req)
		if err != nil {
			return "", s.classifier.HandleAPIError(err, op)
		}
		return u, nil
	})
	if err != nil {
		return "", s.fail(err, op, bookingID, actor)
	}

	return url, nil
}

// ============================================================================
// QUERIES
// ============================================================================

// GetBooking returns one booking the actor may see
func (s *BookingService) GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.get(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(actor, *booking); err != nil {
		return nil, s.fail(err, "get_booking", bookingID, actor)
	}
	return booking, nil
}

// ListUserBookings lists the bookings owned by userID. Agents may only list
// their own.
func (s *BookingService) ListUserBookings(ctx context.Context, actor models.Actor, userID string) ([]models.Booking, error) {
	const op = "list_user_bookings"
	if !actor.IsAdmin() && actor.UserID != userID {
		return nil, s.fail(apperrors.New(apperrors.CodeAuthorization, "You can only view your own bookings"), op, "", actor)
	}

	bookings, err := retry.Do(ctx, s.executor, op, func(ctx context.Context) ([]models.Booking, error) {
		b, err := s.store.GetUserBookings(ctx, userID)
		if err != nil {
			return nil, s.classifier.Classify(err, op)
		}
		return b, nil
	})
	if err != nil {
		return nil, s.fail(err, op, "", actor)
	}
	return bookings, nil
}

// ListAllBookings lists every booking (admins only)
func (s *BookingService) ListAllBookings(ctx context.Context, actor models.Actor) ([]models.Booking, error) {
	const op = "list_all_bookings"
	if !actor.IsAdmin() {
		return nil, s.fail(apperrors.New(apperrors.CodeAuthorization, "Only admins can view all bookings"), op, "", actor)
	}

	bookings, err := retry.Do(ctx, s.executor, op, func(ctx context.Context) ([]models.Booking, error) {
		b, err := s.store.GetAllBookings(ctx)
		if err != nil {
			return nil, s.classifier.Classify(err, op)
		}
		return b, nil
	})
	if err != nil {
		return nil, s.fail(err, op, "", actor)
	}
	return bookings, nil
}

// SearchBookings matches the sanitized query against id, customer, email and
// item name within the bookings the actor can see.
func (s *BookingService) SearchBookings(ctx context.Context, actor models.Actor, query string) ([]models.Booking, error) {
	var (
		bookings []models.Booking
		err      error
	)
	if actor.IsAdmin() {
		bookings, err = s.ListAllBookings(ctx, actor)
	} else {
		bookings, err = s.ListUserBookings(ctx, actor, actor.UserID)
	}
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(validation.ValidateSearchInput(query))
	if q == "" {
		return bookings, nil
	}

	matches := []models.Booking{}
	for _, b := range bookings {
		if strings.Contains(strings.ToLower(b.ID), q) ||
			strings.Contains(strings.ToLower(b.CustomerName), q) ||
			strings.Contains(strings.ToLower(b.CustomerEmail), q) ||
			strings.Contains(strings.ToLower(b.ItemName), q) {
			matches = append(matches, b)
		}
	}
	return matches, nil
}

// Analytics aggregates every booking (admins only)
func (s *BookingService) Analytics(ctx context.Context, actor models.Actor) (*models.BookingAnalytics, error) {
	bookings, err := s.ListAllBookings(ctx, actor)
	if err != nil {
		return nil, err
	}
	a := ComputeAnalytics(bookings)
	return &a, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *BookingService) get(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	const op = "get_booking"
	booking, err := retry.Do(ctx, s.executor, op, func(ctx context.Context) (*models.Booking, error) {
		b, err := s.store.GetBooking(ctx, bookingID)
		if err != nil {
			return nil, s.classifier.Classify(err, op)
		}
		return b, nil
	})
	if err != nil {
		return nil, s.fail(err, op, bookingID, actor)
	}
	return booking, nil
}

func (s *BookingService) update(ctx context.Context, actor models.Actor, bookingID, op string, patch models.BookingPatch) (*models.Booking, error) {
	updated, err := retry.Do(ctx, s.executor, op, func(ctx context.Context) (*models.Booking, error) {
		b, err := s.store.UpdateBooking(ctx, bookingID, patch)
		if err != nil {
			return nil, s.classifier.Classify(err, op)
		}
		return b, nil
	})
	if err != nil {
		return nil, s.fail(err, op, bookingID, actor)
	}
	return updated, nil
}

// fail classifies err, logs it once with the operation context and returns
// the classified error
func (s *BookingService) fail(err error, op, bookingID string, actor models.Actor) error {
	appErr := s.classifier.Classify(err, op)
	fields := map[string]interface{}{
		"operation": op,
		"user_id":   actor.UserID,
	}
	if bookingID != "" {
		fields["booking_id"] = bookingID
	}
	s.classifier.LogError(appErr, fields)
	return appErr
}

func (s *BookingService) checkOwner(actor models.Actor, current models.Booking) error {
	if actor.IsAdmin() || current.AgentID == actor.UserID {
		return nil
	}
	return apperrors.New(apperrors.CodeAuthorization, "You can only manage your own bookings")
}

func (s *BookingService) newEvent(actor models.Actor, typ models.BookingEventType, description string) models.BookingEvent {
	metadata := make(map[string]interface{}, len(actor.Metadata))
	for k, v := range actor.Metadata {
		metadata[k] = v
	}
	return models.BookingEvent{
		Type:        typ,
		Description: description,
		Timestamp:   s.now().UTC(),
		UserID:      actor.UserID,
		UserName:    actor.UserName,
		Metadata:    metadata,
	}
}
