// Package warranty parses warranty durations and computes warranty windows.
//
// Two computations coexist and are intentionally not unified:
//   - EndDate adds calendar days, months or years (time.AddDate rollover).
//   - ApproxDays converts a duration to a day count using 30-day months and
//     365-day years.
package warranty

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit of a warranty duration.
type Unit string

const (
	Days   Unit = "days"
	Months Unit = "months"
	Years  Unit = "years"
)

// ErrInvalidWarranty is returned for a non-numeric, non-positive duration or an unknown unit.
var ErrInvalidWarranty = errors.New("invalid warranty duration or unit")

// Duration is a validated amount + unit pair.
type Duration struct {
	Amount int
	Unit   Unit
}

// Parse validates a raw duration and unit as entered by an operator.
func Parse(amount, unit string) (Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(amount))
	if err != nil || n <= 0 {
		return Duration{}, ErrInvalidWarranty
	}
	return New(n, unit)
}

// New validates an already numeric duration.
func New(amount int, unit string) (Duration, error) {
	if amount <= 0 {
		return Duration{}, ErrInvalidWarranty
	}
	u := Unit(strings.ToLower(strings.TrimSpace(unit)))
	switch u {
	case Days, Months, Years:
	default:
		return Duration{}, ErrInvalidWarranty
	}
	return Duration{Amount: amount, Unit: u}, nil
}

// EndDate adds d to start with calendar semantics: 2024-01-15 + 12 months is
// 2025-01-15. Month overflow normalizes like time.AddDate (Jan 31 + 1 month
// is Mar 2 or Mar 3).
func (d Duration) EndDate(start time.Time) time.Time {
	switch d.Unit {
	case Days:
		return start.AddDate(0, 0, d.Amount)
	case Months:
		return start.AddDate(0, d.Amount, 0)
	case Years:
		return start.AddDate(d.Amount, 0, 0)
	}
	return start
}

// ApproxDays is the day-count approximation: months are 30 days, years 365.
func (d Duration) ApproxDays() int {
	switch d.Unit {
	case Months:
		return d.Amount * 30
	case Years:
		return d.Amount * 365
	}
	return d.Amount
}

// String renders the denormalized period stored on sales, e.g. "12 months".
func (d Duration) String() string {
	return fmt.Sprintf("%d %s", d.Amount, d.Unit)
}

// WindowDays is the whole number of days in [start, end), rounded.
func WindowDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24 + 0.5)
}
