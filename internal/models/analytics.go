package models

// BookingAnalytics aggregates a set of bookings for dashboards
type BookingAnalytics struct {
	TotalBookings   int                   `json:"total_bookings"`
	ByStatus        map[BookingStatus]int `json:"by_status"`
	ByType          map[BookingType]int   `json:"by_type"`
	ByRegion        map[string]int        `json:"by_region"`
	TotalRevenue    float64               `json:"total_revenue"`
	TotalCommission float64               `json:"total_commission"`
	RefundedAmount  float64               `json:"refunded_amount"`
	RevenueByMonth  map[string]float64    `json:"revenue_by_month"`
	ConversionRate  float64               `json:"conversion_rate"`
	AverageValue    float64               `json:"average_value"`
}
