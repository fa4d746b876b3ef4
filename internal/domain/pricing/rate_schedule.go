package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Season classifies a calendar month for pricing
type Season string

const (
	SeasonPeak    Season = "peak"
	SeasonLow     Season = "low"
	SeasonRegular Season = "regular"
)

var (
	peakMultiplier    = decimal.RequireFromString("1.10")
	lowMultiplier     = decimal.RequireFromString("0.95")
	regularMultiplier = decimal.RequireFromString("1.00")
)

// RateSchedule maps a calendar date to a seasonal price multiplier
type RateSchedule interface {
	MultiplierFor(date time.Time) decimal.Decimal
}

// SeasonalRateSchedule applies peak pricing May through September and low
// pricing in January and February.
type SeasonalRateSchedule struct{}

// SeasonFor returns the season of the date's month
func (SeasonalRateSchedule) SeasonFor(date time.Time) Season {
	switch date.Month() {
	case time.May, time.June, time.July, time.August, time.September:
		return SeasonPeak
	case time.January, time.February:
		return SeasonLow
	default:
		return SeasonRegular
	}
}

// MultiplierFor implements RateSchedule
func (s SeasonalRateSchedule) MultiplierFor(date time.Time) decimal.Decimal {
	switch s.SeasonFor(date) {
	case SeasonPeak:
		return peakMultiplier
	case SeasonLow:
		return lowMultiplier
	default:
		return regularMultiplier
	}
}

// FlatRateSchedule disables seasonal pricing
type FlatRateSchedule struct{}

// MultiplierFor always returns 1.00
func (FlatRateSchedule) MultiplierFor(time.Time) decimal.Decimal {
	return regularMultiplier
}

// SeasonLabel describes a multiplier for display, empty for the regular rate
func SeasonLabel(multiplier decimal.Decimal) string {
	pct := multiplier.Sub(decimal.NewFromInt(1)).Mul(hundred).Round(0)
	switch {
	case pct.IsPositive():
		return fmt.Sprintf("Peak season (+%s%%)", pct)
	case pct.IsNegative():
		return fmt.Sprintf("Low season (%s%%)", pct)
	}
	return ""
}
