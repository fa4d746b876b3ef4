package pricing

import (
	"time"

	"github.com/boxibox/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DaysInMonth returns the number of days in t's calendar month
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// daysBetween counts whole calendar days from a to b, ignoring clock time and DST
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// FirstMonthProration is the charge for the partial month a rental starts in
type FirstMonthProration struct {
	Amount     decimal.Decimal `json:"amount"`
	Days       int             `json:"days"`
	TotalDays  int             `json:"total_days"`
	Percentage decimal.Decimal `json:"percentage"`
	IsProrated bool            `json:"is_prorated"`
}

// ProrationCalculator computes partial-period charges
type ProrationCalculator struct{}

// Prorate charges monthlyPrice for the inclusive range start..end. The daily
// rate always uses the day count of start's month, even when end falls in a
// later month.
func (ProrationCalculator) Prorate(monthlyPrice decimal.Decimal, start, end time.Time) (decimal.Decimal, error) {
	days := daysBetween(start, end)
	if days < 0 {
		return decimal.Zero, shared.NewValidationError("INVALID_PERIOD", "End date cannot be before start date")
	}
	daily := monthlyPrice.Div(decimal.NewFromInt(int64(DaysInMonth(start))))
	return daily.Mul(decimal.NewFromInt(int64(days + 1))), nil
}

// FirstMonth charges the remainder of the start month, start day included.
// A rental starting on the 1st pays the full month.
func (ProrationCalculator) FirstMonth(monthlyPrice decimal.Decimal, start time.Time) FirstMonthProration {
	total := DaysInMonth(start)
	if start.Day() == 1 {
		return FirstMonthProration{
			Amount:     monthlyPrice,
			Days:       total,
			TotalDays:  total,
			Percentage: hundred,
			IsProrated: false,
		}
	}

	remaining := total - start.Day() + 1
	dim := decimal.NewFromInt(int64(total))
	rem := decimal.NewFromInt(int64(remaining))
	return FirstMonthProration{
		Amount:     monthlyPrice.Div(dim).Mul(rem).Round(2),
		Days:       remaining,
		TotalDays:  total,
		Percentage: rem.Div(dim).Mul(hundred).Round(1),
		IsProrated: true,
	}
}
