// Package lifecycle holds the lead business rules: follow-up classification,
// stall detection and the daily task list derived from them. Everything here is
// pure; callers pass the leads they already loaded and the current time.
package lifecycle

import (
	"strings"
	"time"

	"github.com/leadflow/leadflow/internal/model"
)

type FollowUpState int

const (
	None FollowUpState = iota
	Overdue
	DueToday
	Upcoming
)

func (s FollowUpState) String() string {
	switch s {
	case Overdue:
		return "overdue"
	case DueToday:
		return "due-today"
	case Upcoming:
		return "upcoming"
	default:
		return "none"
	}
}

// Classify compares a follow-up date with now by calendar day.
// The follow-up is a calendar date, so its own year/month/day are used as-is;
// "today" is now's year/month/day in now's location.
func Classify(followUp *time.Time, now time.Time) FollowUpState {
	if followUp == nil || followUp.IsZero() {
		return None
	}

	day := civilDay(*followUp)
	today := civilDay(now)

	switch {
	case day.Before(today):
		return Overdue
	case day.Equal(today):
		return DueToday
	default:
		return Upcoming
	}
}

// OverdueLeads returns the leads whose follow-up date is before today, in input order.
// The input slice is not modified.
func OverdueLeads(leads []*model.Lead, now time.Time) []*model.Lead {
	overdue := make([]*model.Lead, 0, len(leads))
	for _, lead := range leads {
		if Classify(lead.FollowUpDate, now) == Overdue {
			overdue = append(overdue, lead)
		}
	}
	return overdue
}

var followUpLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
}

// ParseFollowUpDate parses a follow-up date from user or wire input.
// Empty and unparsable values both mean "no follow-up date".
func ParseFollowUpDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range followUpLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return &parsed
		}
	}
	return nil
}

// civilDay truncates t to midnight of its own calendar day.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return civilDay(a.In(loc)).Equal(civilDay(b.In(loc)))
}
