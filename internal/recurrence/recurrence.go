// Package recurrence computes the next occurrence date of a recurring
// ledger entry. It is pure calendar arithmetic: no I/O, no clock.
package recurrence

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/wealth-ledger/internal/domain"
)

// Next returns the next occurrence of date at the given cadence.
//
// MONTHLY and YEARLY advance only the month/year component and clamp the
// day-of-month to the last valid day of the target month (Jan 31 -> Feb 28,
// or Feb 29 in a leap year). They must never be computed by adding a
// month/year count to the day field: that produces dates like Mar 3 for
// Jan 31 + one month.
func Next(date civil.Date, interval domain.RecurringInterval) (civil.Date, error) {
	switch interval {
	case domain.IntervalDaily:
		return date.AddDays(1), nil
	case domain.IntervalWeekly:
		return date.AddDays(7), nil
	case domain.IntervalMonthly:
		return addMonths(date, 1), nil
	case domain.IntervalYearly:
		return addYears(date, 1), nil
	default:
		return civil.Date{}, domain.Errorf(domain.ErrValidation, "unknown recurring interval %q", interval)
	}
}

func addMonths(d civil.Date, n int) civil.Date {
	months := int(d.Month) - 1 + n
	year := d.Year + months/12
	month := time.Month(months%12 + 1)
	return civil.Date{Year: year, Month: month, Day: clampDay(d.Day, year, month)}
}

func addYears(d civil.Date, n int) civil.Date {
	year := d.Year + n
	return civil.Date{Year: year, Month: d.Month, Day: clampDay(d.Day, year, d.Month)}
}

// clampDay limits day to the number of days in the given month.
func clampDay(day, year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
