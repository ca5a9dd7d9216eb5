package service

import (
	"fmt"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
)

// Clock resolves "today" in the drivers' timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock in loc. A nil now uses time.Now.
func NewClock(loc *time.Location, now func() time.Time) Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Clock{loc: loc, now: now}
}

// Today is the current calendar date in the clock's zone.
func (c Clock) Today() time.Time {
	t := c.now().In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TodayString formats Today with domain.DateLayout.
func (c Clock) TodayString() string {
	return c.Today().Format(domain.DateLayout)
}

// resolveDate parses s, defaulting to today when empty.
func (c Clock) resolveDate(s string) (time.Time, error) {
	if s == "" {
		return c.Today(), nil
	}
	return parseDate("date", s)
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: field, Message: fmt.Sprintf("data inválida %q, use AAAA-MM-DD", s)}
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}
