// Package window resolves a coarse "when was I thinking this" choice into the
// concrete time range a capture is attributed to.
//
// Ranges are half-open [StartAt, EndAt) and calendar-aligned to midnight in the
// location carried by the reference time. Day steps use AddDate so DST
// transitions do not shift the boundaries.
package window

import (
	"fmt"
	"strings"
	"time"
)

// Choice is a coarse thinking-time selection.
type Choice string

const (
	Today     Choice = "today"
	Yesterday Choice = "yesterday"
	LastWeek  Choice = "last_week"
	LastMonth Choice = "last_month"
)

// Choices lists every valid choice in display order.
var Choices = []Choice{Today, Yesterday, LastWeek, LastMonth}

// Window is the half-open range a capture is conceptually attributed to.
type Window struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// Contains reports whether t falls inside [StartAt, EndAt).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.StartAt) && t.Before(w.EndAt)
}

// ParseChoice validates s. The empty string selects Today.
func ParseChoice(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return Today, nil
	}
	for _, valid := range Choices {
		if c == valid {
			return c, nil
		}
	}
	return "", fmt.Errorf("thinking_choice must be one of: today, yesterday, last_week, last_month")
}

// Resolve parses nowISO (RFC 3339) and resolves choice against it.
func Resolve(choice, nowISO string) (Window, error) {
	c, err := ParseChoice(choice)
	if err != nil {
		return Window{}, err
	}
	now, err := time.Parse(time.RFC3339, strings.TrimSpace(nowISO))
	if err != nil {
		return Window{}, fmt.Errorf("invalid now timestamp %q: %w", nowISO, err)
	}
	return ResolveAt(c, now)
}

// ResolveAt resolves choice relative to now.
//
//	today       [D, D+1d)
//	yesterday   [D-1d, D)
//	last_week   [D-7d, D)
//	last_month  [D-1 month, D)
//
// where D is midnight of now's calendar day in now's location.
func ResolveAt(choice Choice, now time.Time) (Window, error) {
	day := startOfDay(now)

	switch choice {
	case Today, "":
		return Window{StartAt: day, EndAt: day.AddDate(0, 0, 1)}, nil
	case Yesterday:
		return Window{StartAt: day.AddDate(0, 0, -1), EndAt: day}, nil
	case LastWeek:
		return Window{StartAt: day.AddDate(0, 0, -7), EndAt: day}, nil
	case LastMonth:
		return Window{StartAt: monthBefore(day), EndAt: day}, nil
	default:
		return Window{}, fmt.Errorf("unknown thinking choice %q", choice)
	}
}

// monthBefore returns the same day one calendar month earlier, clamped to the
// last day of that month (Mar 31 → Feb 28).
func monthBefore(day time.Time) time.Time {
	y, m, d := day.Date()
	first := time.Date(y, m-1, 1, 0, 0, 0, 0, day.Location())
	return time.Date(first.Year(), first.Month(), min(d, daysIn(first)), 0, 0, 0, 0, day.Location())
}

// daysIn returns the number of days in t's month.
func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
