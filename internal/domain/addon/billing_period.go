package addon

import (
	"time"
)

// BillingPeriod is the length of one billing cycle
type BillingPeriod string

const (
	BillingPeriodMonthly   BillingPeriod = "monthly"
	BillingPeriodQuarterly BillingPeriod = "quarterly"
	BillingPeriodYearly    BillingPeriod = "yearly"
)

// IsValid checks if the billing period is known
func (p BillingPeriod) IsValid() bool {
	switch p {
	case BillingPeriodMonthly, BillingPeriodQuarterly, BillingPeriodYearly:
		return true
	}
	return false
}

// String returns the string representation of BillingPeriod
func (p BillingPeriod) String() string {
	return string(p)
}

// Months returns the cycle length in calendar months
func (p BillingPeriod) Months() int {
	switch p {
	case BillingPeriodQuarterly:
		return 3
	case BillingPeriodYearly:
		return 12
	default:
		return 1
	}
}

// Next returns the billing date one cycle after current. The day of month
// follows anchor and is clamped to the end of shorter months, so a cycle
// anchored on the 31st bills on Feb 29 and then on Mar 31.
func (p BillingPeriod) Next(anchor, current time.Time) time.Time {
	y, m, _ := current.Date()
	first := time.Date(y, m+time.Month(p.Months()), 1, 0, 0, 0, 0, current.Location())
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, current.Location()).Day()

	day := anchor.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, current.Location())
}
