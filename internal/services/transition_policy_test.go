package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/internal/validation"
)

func TestStrictTransitionPolicy(t *testing.T) {
	tests := []struct {
		name    string
		from    models.BookingStatus
		to      models.BookingStatus
		allowed bool
	}{
		{"Pending to Confirmed", models.BookingStatusPending, models.BookingStatusConfirmed, true},
		{"Pending to Cancelled", models.BookingStatusPending, models.BookingStatusCancelled, true},
		{"Pending to Completed", models.BookingStatusPending, models.BookingStatusCompleted, false},
		{"Confirmed to Completed", models.BookingStatusConfirmed, models.BookingStatusCompleted, true},
		{"Confirmed to Cancelled", models.BookingStatusConfirmed, models.BookingStatusCancelled, true},
		{"Confirmed to Pending", models.BookingStatusConfirmed, models.BookingStatusPending, false},
		{"Cancelled to Confirmed", models.BookingStatusCancelled, models.BookingStatusConfirmed, false},
		{"Completed to Cancelled", models.BookingStatusCompleted, models.BookingStatusCancelled, false},
	}

	policy := StrictTransitionPolicy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.CheckTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			vErr, ok := validation.AsValidationError(err)
			if assert.True(t, ok) {
				assert.Equal(t, "status", vErr.Field)
				assert.Contains(t, vErr.Message, string(tt.from))
			}
		})
	}
}

func TestStrictTransitionPolicy_TerminalStatus(t *testing.T) {
	err := StrictTransitionPolicy{}.CheckTransition(models.BookingStatusCompleted, models.BookingStatusConfirmed)
	vErr, ok := validation.AsValidationError(err)
	if assert.True(t, ok) {
		assert.Equal(t, "Booking is already Completed and its status can no longer change", vErr.Message)
	}

	err = StrictTransitionPolicy{}.CheckTransition(models.BookingStatusPending, models.BookingStatusCompleted)
	vErr, ok = validation.AsValidationError(err)
	if assert.True(t, ok) {
		assert.Equal(t, "Cannot change booking status from Pending to Completed", vErr.Message)
	}
}

func TestPermissiveTransitionPolicy(t *testing.T) {
	policy := PermissiveTransitionPolicy{}
	assert.NoError(t, policy.CheckTransition(models.BookingStatusCompleted, models.BookingStatusPending))
	assert.NoError(t, policy.CheckTransition(models.BookingStatusCancelled, models.BookingStatusConfirmed))
}

func TestNewTransitionPolicy(t *testing.T) {
	assert.IsType(t, StrictTransitionPolicy{}, NewTransitionPolicy(true))
	assert.IsType(t, PermissiveTransitionPolicy{}, NewTransitionPolicy(false))
}
