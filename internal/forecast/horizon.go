package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrNoDates       = errors.New("no dates in series")
	ErrInvalidDate   = errors.New("invalid date")
	ErrHorizonPassed = errors.New("forecast end date must be after the last observation")
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate accepts the date formats commonly found in uploaded tables.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Horizon returns the whole number of days between the latest date in xs and
// end. Empty values are skipped. A horizon that is not positive is an error.
func Horizon(xs []string, end time.Time) (int, error) {
	var (
		latest time.Time
		found  bool
	)
	for _, x := range xs {
		if strings.TrimSpace(x) == "" {
			continue
		}
		t, err := ParseDate(x)
		if err != nil {
			return 0, err
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	if !found {
		return 0, ErrNoDates
	}

	days := int(math.Floor(end.Sub(latest).Hours() / 24))
	if days <= 0 {
		return 0, fmt.Errorf("%w: %d days", ErrHorizonPassed, days)
	}
	return days, nil
}
