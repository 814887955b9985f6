package models

import (
	"time"
)

// BookingType is the catalog category a booking refers to
type BookingType string

const (
	BookingTypeCruise BookingType = "Cruise"
	BookingTypeHotel  BookingType = "Hotel"
)

// IsValid reports whether t is a known booking type
func (t BookingType) IsValid() bool {
	return t == BookingTypeCruise || t == BookingTypeHotel
}

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusFailed   PaymentStatus = "Failed"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusCompleted BookingStatus = "Completed"
)

// IsValid reports whether s is a known booking status
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// validTransitions is the strict lifecycle: Pending -> Confirmed -> Completed,
// with Cancelled reachable before completion.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCancelled: {},
	BookingStatusCompleted: {},
}

// CanTransitionTo reports whether the strict lifecycle allows s -> target
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no strict transition leaves s
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// MaxBookingAmount is the largest total a single booking may carry
const MaxBookingAmount = 10_000_000

// MaxCommissionRatio caps commissionAmount / totalAmount
const MaxCommissionRatio = 0.25

// Booking represents one reservation of a cruise or hotel item
type Booking struct {
	ID               string        `json:"id" db:"id"`
	Type             BookingType   `json:"type" db:"type"`
	ItemID           string        `json:"item_id" db:"item_id"`
	ItemName         string        `json:"item_name" db:"item_name"`
	AgentID          string        `json:"agent_id" db:"agent_id"`
	AgentName        string        `json:"agent_name" db:"agent_name"`
	CustomerName     string        `json:"customer_name" db:"customer_name"`
	CustomerEmail    string        `json:"customer_email" db:"customer_email"`
	CustomerPhone    string        `json:"customer_phone" db:"customer_phone"`
	BookingDate      time.Time     `json:"booking_date" db:"booking_date"`
	TravelDate       time.Time     `json:"travel_date" db:"travel_date"`
	TotalAmount      float64       `json:"total_amount" db:"total_amount"`
	CommissionAmount float64       `json:"commission_amount" db:"commission_amount"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	Status           BookingStatus `json:"status" db:"status"`
	Guests           int           `json:"guests" db:"guests"`
	SpecialRequests  string        `json:"special_requests" db:"special_requests"`
	Region           string        `json:"region" db:"region"`
	Timeline         Timeline      `json:"timeline" db:"-"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	Type             BookingType `json:"type" binding:"required"`
	ItemID           string      `json:"item_id" binding:"required"`
	ItemName         string      `json:"item_name" binding:"required"`
	CustomerName     string      `json:"customer_name" binding:"required"`
	CustomerEmail    string      `json:"customer_email" binding:"required"`
	CustomerPhone    string      `json:"customer_phone"`
	BookingDate      *time.Time  `json:"booking_date,omitempty"`
	TravelDate       time.Time   `json:"travel_date" binding:"required"`
	TotalAmount      float64     `json:"total_amount" binding:"required"`
	CommissionAmount float64     `json:"commission_amount"`
	Guests           int         `json:"guests" binding:"required"`
	SpecialRequests  string      `json:"special_requests"`
	Region           string      `json:"region"`
}

// BookingFields is a partial booking record. A nil field is "not present"
// and is skipped by validation; non-nil string fields are sanitized in place.
type BookingFields struct {
	Type             *BookingType
	ItemID           *string
	ItemName         *string
	AgentID          *string
	CustomerName     *string
	CustomerEmail    *string
	CustomerPhone    *string
	BookingDate      *time.Time
	TravelDate       *time.Time
	TotalAmount      *float64
	CommissionAmount *float64
	PaymentStatus    *PaymentStatus
	Status           *BookingStatus
	Guests           *int
	SpecialRequests  *string
	Region           *string
}

// Fields exposes the request as a partial record whose pointers alias the
// request itself, so sanitization writes back into r.
func (r *CreateBookingRequest) Fields() *BookingFields {
	f := &BookingFields{
		Type:             &r.Type,
		ItemID:           &r.ItemID,
		ItemName:         &r.ItemName,
		CustomerName:     &r.CustomerName,
		CustomerEmail:    &r.CustomerEmail,
		TravelDate:       &r.TravelDate,
		TotalAmount:      &r.TotalAmount,
		CommissionAmount: &r.CommissionAmount,
		Guests:           &r.Guests,
		SpecialRequests:  &r.SpecialRequests,
		Region:           &r.Region,
		BookingDate:      r.BookingDate,
	}
	if r.CustomerPhone != "" {
		f.CustomerPhone = &r.CustomerPhone
	}
	return f
}

// ModifyBookingRequest carries the editable subset of a booking. Catalog
// references and parties on the agent side are read-only after creation.
type ModifyBookingRequest struct {
	CustomerName     *string    `json:"customer_name,omitempty"`
	CustomerEmail    *string    `json:"customer_email,omitempty"`
	CustomerPhone    *string    `json:"customer_phone,omitempty"`
	TravelDate       *time.Time `json:"travel_date,omitempty"`
	TotalAmount      *float64   `json:"total_amount,omitempty"`
	CommissionAmount *float64   `json:"commission_amount,omitempty"`
	Guests           *int       `json:"guests,omitempty"`
	SpecialRequests  *string    `json:"special_requests,omitempty"`
	Region           *string    `json:"region,omitempty"`
}

// Fields exposes the modification as a partial record aliasing r
func (r *ModifyBookingRequest) Fields() *BookingFields {
	return &BookingFields{
		CustomerName:     r.CustomerName,
		CustomerEmail:    r.CustomerEmail,
		CustomerPhone:    r.CustomerPhone,
		TravelDate:       r.TravelDate,
		TotalAmount:      r.TotalAmount,
		CommissionAmount: r.CommissionAmount,
		Guests:           r.Guests,
		SpecialRequests:  r.SpecialRequests,
		Region:           r.Region,
	}
}

// ChangedFields lists the json names of the fields present in r
func (r *ModifyBookingRequest) ChangedFields() []string {
	var fields []string
	if r.CustomerName != nil {
		fields = append(fields, "customer_name")
	}
	if r.CustomerEmail != nil {
		fields = append(fields, "customer_email")
	}
	if r.CustomerPhone != nil {
		fields = append(fields, "customer_phone")
	}
	if r.TravelDate != nil {
		fields = append(fields, "travel_date")
	}
	if r.TotalAmount != nil {
		fields = append(fields, "total_amount")
	}
	if r.CommissionAmount != nil {
		fields = append(fields, "commission_amount")
	}
	if r.Guests != nil {
		fields = append(fields, "guests")
	}
	if r.SpecialRequests != nil {
		fields = append(fields, "special_requests")
	}
	if r.Region != nil {
		fields = append(fields, "region")
	}
	return fields
}

// BookingPatch is the partial update handed to a booking store. Events in
// AppendEvents are appended after the existing timeline; nothing else in the
// timeline can be touched through a patch.
type BookingPatch struct {
	Status           *BookingStatus
	PaymentStatus    *PaymentStatus
	CustomerName     *string
	CustomerEmail    *string
	CustomerPhone    *string
	TravelDate       *time.Time
	TotalAmount      *float64
	CommissionAmount *float64
	Guests           *int
	SpecialRequests  *string
	Region           *string
	AppendEvents     []BookingEvent

	// Guard runs against the stored booking before the patch is applied,
	// atomically with the write. A non-nil error aborts the update.
	Guard func(current Booking) error `json:"-"`
}

// Apply copies the present patch fields onto b. Events are not touched.
func (p *BookingPatch) Apply(b *Booking) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	if p.CustomerName != nil {
		b.CustomerName = *p.CustomerName
	}
	if p.CustomerEmail != nil {
		b.CustomerEmail = *p.CustomerEmail
	}
	if p.CustomerPhone != nil {
		b.CustomerPhone = *p.CustomerPhone
	}
	if p.TravelDate != nil {
		b.TravelDate = *p.TravelDate
	}
	if p.TotalAmount != nil {
		b.TotalAmount = *p.TotalAmount
	}
	if p.CommissionAmount != nil {
		b.CommissionAmount = *p.CommissionAmount
	}
	if p.Guests != nil {
		b.Guests = *p.Guests
	}
	if p.SpecialRequests != nil {
		b.SpecialRequests = *p.SpecialRequests
	}
	if p.Region != nil {
		b.Region = *p.Region
	}
}

// PatchFromModify builds a store patch from a validated modification
func PatchFromModify(r *ModifyBookingRequest) BookingPatch {
	return BookingPatch{
		CustomerName:     r.CustomerName,
		CustomerEmail:    r.CustomerEmail,
		CustomerPhone:    r.CustomerPhone,
		TravelDate:       r.TravelDate,
		TotalAmount:      r.TotalAmount,
		CommissionAmount: r.CommissionAmount,
		Guests:           r.Guests,
		SpecialRequests:  r.SpecialRequests,
		Region:           r.Region,
	}
}

// UpdateStatusRequest represents the request to set a booking status
type UpdateStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

// UpdatePaymentRequest represents the request to set a payment status
type UpdatePaymentRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" binding:"required"`
}

// CancelBookingRequest represents the request to cancel a booking
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// Clone returns a copy of b that shares no timeline storage with it
func (b Booking) Clone() Booking {
	b.Timeline = b.Timeline.Clone()
	return b
}

// RefundRecord is the advisory refund produced by a cancellation. It is not
// persisted; payment-gateway settlement happens elsewhere.
type RefundRecord struct {
	RefundID      string    `json:"refund_id"`
	BookingID     string    `json:"booking_id"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	EstimatedDays int       `json:"estimated_days"`
	RequestedAt   time.Time `json:"requested_at"`
}

// RefundStatusProcessing is the only status a synthesized refund starts with
const RefundStatusProcessing = "Processing"

// RefundEstimatedDays is the advertised settlement time for refunds
const RefundEstimatedDays = 5
