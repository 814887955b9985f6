package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/voyagecrm/booking-core/internal/models"
)

func TestComputeAnalytics(t *testing.T) {
	t.Run("Empty input", func(t *testing.T) {
		a := ComputeAnalytics(nil)
		assert.Equal(t, 0, a.TotalBookings)
		assert.Zero(t, a.ConversionRate)
		assert.Zero(t, a.AverageValue)
		assert.NotNil(t, a.ByStatus)
	})

	t.Run("Aggregates", func(t *testing.T) {
		jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		feb := time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)
		bookings := []models.Booking{
			{Type: models.BookingTypeCruise, Status: models.BookingStatusConfirmed, PaymentStatus: models.PaymentStatusPaid, TotalAmount: 1000, CommissionAmount: 100, BookingDate: jan, Region: "Asia"},
			{Type: models.BookingTypeHotel, Status: models.BookingStatusConfirmed, PaymentStatus: models.PaymentStatusPaid, TotalAmount: 500, CommissionAmount: 50, BookingDate: jan, Region: "Asia"},
			{Type: models.BookingTypeHotel, Status: models.BookingStatusCancelled, PaymentStatus: models.PaymentStatusRefunded, TotalAmount: 300, CommissionAmount: 30, BookingDate: feb},
			{Type: models.BookingTypeCruise, Status: models.BookingStatusPending, PaymentStatus: models.PaymentStatusPending, TotalAmount: 200, BookingDate: feb, Region: "Europe"},
		}

		a := ComputeAnalytics(bookings)
		assert.Equal(t, 4, a.TotalBookings)
		assert.Equal(t, 2000.0, a.TotalRevenue)
		assert.Equal(t, 180.0, a.TotalCommission)
		assert.Equal(t, 300.0, a.RefundedAmount)
		assert.Equal(t, 50.0, a.ConversionRate)
		assert.Equal(t, 500.0, a.AverageValue)
		assert.Equal(t, 2, a.ByStatus[models.BookingStatusConfirmed])
		assert.Equal(t, 2, a.ByType[models.BookingTypeHotel])
		assert.Equal(t, map[string]int{"Asia": 2, "Europe": 1}, a.ByRegion)
		assert.Equal(t, 1500.0, a.RevenueByMonth["2026-01"])
		assert.Equal(t, 500.0, a.RevenueByMonth["2026-02"])
	})
}
