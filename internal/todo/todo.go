// Package todo keeps scheduled reminders. A definition describes a
// recurring item; it is expanded into concrete occurrences that the
// check loop marks reminded and due.
package todo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"homelink/internal/errors"
)

// Frequency controls how a definition expands into occurrences.
type Frequency string

const (
	// FreqOnce schedules a single occurrence at an absolute local time.
	FreqOnce Frequency = "once"
	// FreqDaily schedules the next three days at a wall-clock time.
	FreqDaily Frequency = "daily"
	// FreqWeekdays schedules the next three Mon-Fri days at a
	// wall-clock time.
	FreqWeekdays Frequency = "weekdays"
)

const (
	layoutOnce = "2006/01/02-15:04"
	layoutTime = "15:04"

	dailyLookahead = 3
)

// ParseFrequency validates a frequency token.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FreqOnce, FreqDaily, FreqWeekdays:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("%w: %s", errors.ErrInvalidFrequency, s)
}

// Definition is a recurring reminder as entered by the operator.
type Definition struct {
	ID        uuid.UUID
	Name      string
	Frequency Frequency
	// At is the schedule time: "2006/01/02-15:04" for once, "15:04"
	// otherwise.
	At       string
	Reminder time.Duration
}

// Occurrence is one concrete instance of a definition.
type Occurrence struct {
	ID       uuid.UUID
	Parent   uuid.UUID
	Name     string
	Time     time.Time
	Reminder time.Duration
	Done     bool
	Reminded bool
	Due      bool
}

// Expand turns the definition into occurrences relative to now, in
// the local timezone.
func (d *Definition) Expand(now time.Time) ([]*Occurrence, error) {
	switch d.Frequency {
	case FreqOnce:
		at, err := time.ParseInLocation(layoutOnce, d.At, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errors.ErrInvalidSchedule, d.At)
		}
		return []*Occurrence{d.occurrence(at)}, nil

	case FreqDaily, FreqWeekdays:
		at, err := time.ParseInLocation(layoutTime, d.At, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errors.ErrInvalidSchedule, d.At)
		}
		var occs []*Occurrence
		for offset := 0; offset < 7 && len(occs) < dailyLookahead; offset++ {
			day := now.AddDate(0, 0, offset)
			if d.Frequency == FreqWeekdays && !isWeekday(day.Weekday()) {
				continue
			}
			t := time.Date(day.Year(), day.Month(), day.Day(),
				at.Hour(), at.Minute(), 0, 0, now.Location())
			occs = append(occs, d.occurrence(t))
		}
		return occs, nil
	}
	return nil, fmt.Errorf("%w: %s", errors.ErrInvalidFrequency, d.Frequency)
}

func (d *Definition) occurrence(t time.Time) *Occurrence {
	return &Occurrence{
		ID:       uuid.New(),
		Parent:   d.ID,
		Name:     d.Name,
		Time:     t,
		Reminder: d.Reminder,
	}
}

func isWeekday(d time.Weekday) bool {
	return d != time.Saturday && d != time.Sunday
}
