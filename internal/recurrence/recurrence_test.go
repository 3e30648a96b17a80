package recurrence

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/wealth-ledger/internal/domain"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		interval domain.RecurringInterval
		want     string
	}{
		{"daily", "2023-03-15", domain.IntervalDaily, "2023-03-16"},
		{"daily across month end", "2023-01-31", domain.IntervalDaily, "2023-02-01"},
		{"weekly", "2023-03-15", domain.IntervalWeekly, "2023-03-22"},
		{"weekly across year end", "2023-12-28", domain.IntervalWeekly, "2024-01-04"},
		{"monthly plain", "2023-04-10", domain.IntervalMonthly, "2023-05-10"},
		{"monthly clamp to leap february", "2024-01-31", domain.IntervalMonthly, "2024-02-29"},
		{"monthly clamp to non-leap february", "2023-01-31", domain.IntervalMonthly, "2023-02-28"},
		{"monthly clamp 31 to 30", "2023-03-31", domain.IntervalMonthly, "2023-04-30"},
		{"monthly december wraps year", "2023-12-15", domain.IntervalMonthly, "2024-01-15"},
		{"yearly plain", "2023-06-01", domain.IntervalYearly, "2024-06-01"},
		{"yearly clamp feb 29", "2024-02-29", domain.IntervalYearly, "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(mustDate(t, tt.date), tt.interval)
			if err != nil {
				t.Fatalf("Next(%s, %s) returned error: %v", tt.date, tt.interval, err)
			}
			if got.String() != tt.want {
				t.Errorf("Next(%s, %s) = %s, want %s", tt.date, tt.interval, got, tt.want)
			}
		})
	}
}

func TestNext_UnknownInterval(t *testing.T) {
	_, err := Next(mustDate(t, "2023-03-15"), domain.RecurringInterval("FORTNIGHTLY"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Next with unknown interval = %v, want ErrValidation", err)
	}
}

// Guards against reinterpreting the month count as a day increment:
// Jan 31 + MONTHLY must land in February, never March.
func TestNext_MonthlyNeverSkipsMonth(t *testing.T) {
	got, err := Next(mustDate(t, "2023-01-31"), domain.IntervalMonthly)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Month != 2 {
		t.Errorf("Next(2023-01-31, MONTHLY) landed in month %d, want February", got.Month)
	}
}
