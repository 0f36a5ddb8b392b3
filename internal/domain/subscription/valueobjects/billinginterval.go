package valueobjects

import (
	"fmt"
	"strings"
	"time"
)

type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

var ValidBillingIntervals = map[BillingInterval]bool{
	BillingIntervalMonthly: true,
	BillingIntervalYearly:  true,
}

var billingIntervalDays = map[BillingInterval]int{
	BillingIntervalMonthly: 30,
	BillingIntervalYearly:  365,
}

// ParseBillingInterval normalizes value. An empty value yields monthly.
func ParseBillingInterval(value string) (BillingInterval, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return BillingIntervalMonthly, nil
	}

	interval := BillingInterval(normalized)
	if !ValidBillingIntervals[interval] {
		return "", fmt.Errorf("invalid billing interval: %s", value)
	}
	return interval, nil
}

func (b BillingInterval) String() string {
	return string(b)
}

func (b BillingInterval) IsValid() bool {
	return ValidBillingIntervals[b]
}

// PeriodEnd returns the end of a billing period starting at start.
func (b BillingInterval) PeriodEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, billingIntervalDays[b])
}
