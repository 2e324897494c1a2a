package service

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/aliskhannn/quiz-streak-bot/internal/domain/entities"
)

// Calendar turns the wall clock into report days in a fixed zone.
// Engines never read the clock themselves; callers ask the Calendar and pass dates in.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar returns a Calendar reading time.Now in loc.
func NewCalendar(loc *time.Location) *Calendar {
	return &Calendar{loc: loc, now: time.Now}
}

// WithClock returns a copy reading the given clock.
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	return &Calendar{loc: c.loc, now: now}
}

// Days returns today and yesterday in the calendar's zone.
func (c *Calendar) Days() (today, yesterday civil.Date) {
	return entities.CalendarDays(c.now(), c.loc)
}

// Location is the zone days are counted in.
func (c *Calendar) Location() *time.Location {
	return c.loc
}
