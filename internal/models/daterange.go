package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned for ranges whose start is after their end or
// whose length is not positive.
var ErrInvalidRange = errors.New("invalid date range")

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange validates and returns a range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return DateRange{Start: start, End: end}, nil
}

// LastDays returns the window covering the given number of days up to now.
func LastDays(now time.Time, days int) (DateRange, error) {
	if days <= 0 {
		return DateRange{}, fmt.Errorf("%w: days must be positive (got %d)", ErrInvalidRange, days)
	}
	return DateRange{Start: now.AddDate(0, 0, -days), End: now}, nil
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
