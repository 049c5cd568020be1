package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/listing"
)

var sixty = decimal.NewFromInt(60)

// QuantityFromHours returns the number of hours between start and end. Partial
// minutes are dropped, partial hours are kept as a fraction.
func QuantityFromHours(start, end time.Time) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, invalidOrder("bookingEnd is before bookingStart")
	}
	minutes := int64(end.Sub(start) / time.Minute)
	return decimal.NewFromInt(minutes).Div(sixty), nil
}

// QuantityFromDates returns the number of nights or days between start and end.
// Nights count whole 24 hour periods. Days count calendar days between the UTC
// start of day of each bound; day bookings carry an exclusive end date.
func QuantityFromDates(start, end time.Time, unit listing.UnitType) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, invalidOrder("bookingEnd is before bookingStart")
	}
	switch unit {
	case listing.UnitNight:
		return decimal.NewFromInt(int64(end.Sub(start) / (24 * time.Hour))), nil
	case listing.UnitDay:
		return decimal.NewFromInt(int64(startOfDay(end).Sub(startOfDay(start)) / (24 * time.Hour))), nil
	default:
		return decimal.Zero, invalidOrder("cannot count dates for unit type %q", unit)
	}
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
