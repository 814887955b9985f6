package services

import "github.com/voyagecrm/booking-core/internal/models"

// ComputeAnalytics aggregates bookings for dashboards. Revenue counts every
// booking regardless of status; an empty input yields zero rates.
func ComputeAnalytics(bookings []models.Booking) models.BookingAnalytics {
	a := models.BookingAnalytics{
		TotalBookings:  len(bookings),
		ByStatus:       make(map[models.BookingStatus]int),
		ByType:         make(map[models.BookingType]int),
		ByRegion:       make(map[string]int),
		RevenueByMonth: make(map[string]float64),
	}

	for _, b := range bookings {
		a.ByStatus[b.Status]++
		a.ByType[b.Type]++
		if b.Region != "" {
			a.ByRegion[b.Region]++
		}

		a.TotalRevenue += b.TotalAmount
		a.TotalCommission += b.CommissionAmount
		if b.PaymentStatus == models.PaymentStatusRefunded {
			a.RefundedAmount += b.TotalAmount
		}
		a.RevenueByMonth[b.BookingDate.Format("2006-01")] += b.TotalAmount
	}

	if a.TotalBookings > 0 {
		confirmed := a.ByStatus[models.BookingStatusConfirmed]
		a.ConversionRate = float64(confirmed) / float64(a.TotalBookings) * 100
		a.AverageValue = a.TotalRevenue / float64(a.TotalBookings)
	}

	return a
}
