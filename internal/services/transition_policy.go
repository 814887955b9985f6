package services

import (
	"fmt"

	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/internal/validation"
)

// TransitionPolicy decides whether a booking may move between statuses.
// It runs inside the store's update, against the locked current status.
type TransitionPolicy interface {
	CheckTransition(from, to models.BookingStatus) error
}

// PermissiveTransitionPolicy allows any status to be set from any other
type PermissiveTransitionPolicy struct{}

// CheckTransition always allows the change
func (PermissiveTransitionPolicy) CheckTransition(from, to models.BookingStatus) error {
	return nil
}

// StrictTransitionPolicy enforces Pending -> Confirmed -> Completed, with
// cancellation allowed until the booking completes.
type StrictTransitionPolicy struct{}

// CheckTransition rejects transitions outside the lifecycle
func (StrictTransitionPolicy) CheckTransition(from, to models.BookingStatus) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	if from.IsTerminal() {
		return validation.NewError("status", fmt.Sprintf("Booking is already %s and its status can no longer change", from))
	}
	return validation.NewError("status", fmt.Sprintf("Cannot change booking status from %s to %s", from, to))
}

// NewTransitionPolicy selects the strict or permissive policy
func NewTransitionPolicy(strict bool) TransitionPolicy {
	if strict {
		return StrictTransitionPolicy{}
	}
	return PermissiveTransitionPolicy{}
}
