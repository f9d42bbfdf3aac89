package lifecycle

import (
	"fmt"
	"time"
)

const DefaultCutoff = "17:00"

// Schedule knows the daily cutoff and the time zone deadlines are judged in.
// Deadlines are calendar dates, represented as midnight UTC of that date.
type Schedule struct {
	hour   int
	minute int
	loc    *time.Location
}

// NewSchedule parses a cutoff in HH:MM form. A nil location means time.Local.
func NewSchedule(cutoff string, loc *time.Location) (Schedule, error) {
	t, err := time.Parse("15:04", cutoff)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cutoff %q: %w", cutoff, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return Schedule{hour: t.Hour(), minute: t.Minute(), loc: loc}, nil
}

func MustSchedule(cutoff string, loc *time.Location) Schedule {
	s, err := NewSchedule(cutoff, loc)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schedule) Location() *time.Location {
	if s.loc == nil {
		return time.Local
	}
	return s.loc
}

// Today returns the calendar date of now in the schedule's time zone.
func (s Schedule) Today(now time.Time) time.Time {
	return Date(now.In(s.Location()))
}

// Cutoff returns the cutoff instant on the calendar date of day.
func (s Schedule) Cutoff(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, s.hour, s.minute, 0, 0, s.Location())
}

// PastCutoff reports whether now is at or after today's cutoff.
func (s Schedule) PastCutoff(now time.Time) bool {
	return !now.Before(s.Cutoff(s.Today(now)))
}

// IsOverdue reports whether an unfinished assignment due on deadline is late
// at now.
func (s Schedule) IsOverdue(deadline, now time.Time) bool {
	today := s.Today(now)
	deadline = Date(deadline)
	switch {
	case deadline.Before(today):
		return true
	case deadline.After(today):
		return false
	default:
		return s.PastCutoff(now)
	}
}

// LastOverdueDate returns the latest deadline that is overdue at now: today
// once the cutoff has passed, yesterday before it. Every earlier deadline is
// overdue too.
func (s Schedule) LastOverdueDate(now time.Time) time.Time {
	today := s.Today(now)
	if s.PastCutoff(now) {
		return today
	}
	return today.AddDate(0, 0, -1)
}

// Date truncates t to its calendar date, keeping the year, month and day t
// carries in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
