// Package pricing computes dynamic prices for cruise cabins and hotel rooms.
package pricing

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Season names reported in a breakdown
const (
	SeasonHoliday  = "holiday"
	SeasonPeak     = "peak"
	SeasonShoulder = "shoulder"
	SeasonWeekend  = "weekend"
	SeasonLow      = "low"
)

const (
	holidayMultiplier  = 1.40
	peakMultiplier     = 1.30
	shoulderMultiplier = 1.15
	weekendMultiplier  = 1.10
	lowMultiplier      = 0.85
)

var ErrInvalidBasePrice = errors.New("base price must be a positive number")

// holidayWindow is an inclusive month/day range; it may wrap the new year
type holidayWindow struct {
	name                 string
	fromMonth, fromDay   int
	untilMonth, untilDay int
}

var holidayWindows = []holidayWindow{
	{name: "year_end", fromMonth: 12, fromDay: 20, untilMonth: 1, untilDay: 5},
	{name: "spring", fromMonth: 3, fromDay: 25, untilMonth: 4, untilDay: 10},
	{name: "autumn", fromMonth: 10, fromDay: 1, untilMonth: 10, untilDay: 10},
}

var roomTypeMultipliers = map[string]float64{
	// cruise cabins
	"interior":   1.0,
	"ocean view": 1.2,
	"balcony":    1.4,
	"suite":      1.8,
	"penthouse":  2.5,
	// hotel rooms
	"standard":           1.0,
	"deluxe":             1.3,
	"executive suite":    1.8,
	"presidential suite": 2.5,
}

var occupancyMultipliers = map[int]float64{
	1: 1.5,
	2: 1.0,
	3: 0.85,
	4: 0.75,
}

// PriceBreakdown explains a computed price. The adjustments are informational
// deltas against the base price; TotalPrice is the product of the multipliers.
type PriceBreakdown struct {
	BasePrice           float64 `json:"base_price"`
	SeasonalAdjustment  float64 `json:"seasonal_adjustment"`
	OccupancyAdjustment float64 `json:"occupancy_adjustment"`
	RoomTypeAdjustment  float64 `json:"room_type_adjustment"`
	TotalPrice          float64 `json:"total_price"`
	Savings             float64 `json:"savings"`
	PricePerPerson      float64 `json:"price_per_person"`

	Season              string  `json:"season"`
	SeasonalMultiplier  float64 `json:"seasonal_multiplier"`
	RoomTypeMultiplier  float64 `json:"room_type_multiplier"`
	OccupancyMultiplier float64 `json:"occupancy_multiplier"`
	Occupancy           int     `json:"occupancy"`
}

// Engine prices travel dates in a fixed location
type Engine struct {
	location *time.Location
}

// NewEngine creates an engine that reads calendar days in loc (UTC if nil)
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

var defaultEngine = NewEngine(time.UTC)

// CalculatePrice prices with the UTC engine
func CalculatePrice(basePrice float64, travelDate time.Time, roomType string, occupancy int) (PriceBreakdown, error) {
	return defaultEngine.CalculatePrice(basePrice, travelDate, roomType, occupancy)
}

// CalculatePrice computes the price of one stay or sailing
func (e *Engine) CalculatePrice(basePrice float64, travelDate time.Time, roomType string, occupancy int) (PriceBreakdown, error) {
	if basePrice <= 0 || math.IsNaN(basePrice) || math.IsInf(basePrice, 0) {
		return PriceBreakdown{}, ErrInvalidBasePrice
	}
	if occupancy < 1 {
		occupancy = 1
	}

	season, seasonal := e.SeasonalMultiplier(travelDate)
	room := RoomTypeMultiplier(roomType)
	occ := OccupancyMultiplier(occupancy)

	total := math.Round(basePrice * seasonal * room * occ)

	return PriceBreakdown{
		BasePrice:           basePrice,
		SeasonalAdjustment:  basePrice * (seasonal - 1),
		OccupancyAdjustment: basePrice * (occ - 1),
		RoomTypeAdjustment:  basePrice * (room - 1),
		TotalPrice:          total,
		Savings:             math.Max(0, basePrice*room-total),
		PricePerPerson:      math.Round(total / float64(occupancy)),
		Season:              season,
		SeasonalMultiplier:  seasonal,
		RoomTypeMultiplier:  room,
		OccupancyMultiplier: occ,
		Occupancy:           occupancy,
	}, nil
}

// SeasonalMultiplier picks exactly one multiplier for the calendar day of t.
// Holiday windows win over weekends, weekends over month tiers.
func (e *Engine) SeasonalMultiplier(t time.Time) (string, float64) {
	day := t.In(e.location)

	if isHoliday(day) {
		return SeasonHoliday, holidayMultiplier
	}

	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return SeasonWeekend, weekendMultiplier
	}

	switch day.Month() {
	case time.December, time.January, time.April, time.May:
		return SeasonPeak, peakMultiplier
	case time.February, time.March, time.October, time.November:
		return SeasonShoulder, shoulderMultiplier
	}
	return SeasonLow, lowMultiplier
}

// RoomTypeMultiplier looks up a cabin or room type, case-insensitively.
// Unknown types price at 1.0.
func RoomTypeMultiplier(roomType string) float64 {
	if m, ok := roomTypeMultipliers[strings.ToLower(strings.TrimSpace(roomType))]; ok {
		return m
	}
	return 1.0
}

// OccupancyMultiplier looks up the guest-count factor; counts outside the
// table price like two guests.
func OccupancyMultiplier(occupancy int) float64 {
	if m, ok := occupancyMultipliers[occupancy]; ok {
		return m
	}
	return occupancyMultipliers[2]
}

// span returns the window that starts in the year starting at yearStart. The
// end is the last instant of the closing day, in the following year when the
// window wraps.
func (w holidayWindow) span(yearStart time.Time) (time.Time, time.Time) {
	start := yearStart.AddDate(0, w.fromMonth-1, w.fromDay-1)
	end := yearStart.AddDate(0, w.untilMonth-1, w.untilDay-1)
	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}
	return start, now.With(end).EndOfDay()
}

func isHoliday(day time.Time) bool {
	thisYear := now.With(day).BeginningOfYear()
	// a wrapping window that opened last year may still be running
	for _, yearStart := range []time.Time{thisYear, thisYear.AddDate(-1, 0, 0)} {
		for _, w := range holidayWindows {
			start, end := w.span(yearStart)
			if !day.Before(start) && !day.After(end) {
				return true
			}
		}
	}
	return false
}
