package window

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func TestResolve_Choices(t *testing.T) {
	now := "2026-03-15T14:30:00Z"

	tests := []struct {
		choice    string
		wantStart string
		wantEnd   string
	}{
		{"today", "2026-03-15T00:00:00Z", "2026-03-16T00:00:00Z"},
		{"", "2026-03-15T00:00:00Z", "2026-03-16T00:00:00Z"},
		{"yesterday", "2026-03-14T00:00:00Z", "2026-03-15T00:00:00Z"},
		{"last_week", "2026-03-08T00:00:00Z", "2026-03-15T00:00:00Z"},
		{"last_month", "2026-02-15T00:00:00Z", "2026-03-15T00:00:00Z"},
		{"  LAST_WEEK ", "2026-03-08T00:00:00Z", "2026-03-15T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.choice, func(t *testing.T) {
			w, err := Resolve(tt.choice, now)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !w.StartAt.Equal(mustTime(t, tt.wantStart)) {
				t.Errorf("StartAt = %v, want %s", w.StartAt, tt.wantStart)
			}
			if !w.EndAt.Equal(mustTime(t, tt.wantEnd)) {
				t.Errorf("EndAt = %v, want %s", w.EndAt, tt.wantEnd)
			}
		})
	}
}

func TestResolve_LastMonthClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		now       string
		wantStart string
	}{
		{"2026-03-29T09:00:00Z", "2026-02-28T00:00:00Z"},
		{"2026-03-31T09:00:00Z", "2026-02-28T00:00:00Z"},
		{"2028-03-30T09:00:00Z", "2028-02-29T00:00:00Z"},
		{"2026-05-31T09:00:00Z", "2026-04-30T00:00:00Z"},
		{"2026-01-31T09:00:00Z", "2025-12-31T00:00:00Z"},
		{"2026-01-15T09:00:00Z", "2025-12-15T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			w, err := Resolve("last_month", tt.now)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !w.StartAt.Equal(mustTime(t, tt.wantStart)) {
				t.Errorf("StartAt = %v, want %s", w.StartAt, tt.wantStart)
			}
			if w.StartAt.Month() == w.EndAt.Month() && w.StartAt.Year() == w.EndAt.Year() {
				t.Errorf("window [%v, %v) never reaches the previous month", w.StartAt, w.EndAt)
			}
		})
	}
}

func TestResolve_UsesOffsetOfNow(t *testing.T) {
	// 01:00 at +05:00 is still the previous day in UTC; the window follows the caller's day.
	w, err := Resolve("today", "2026-03-15T01:00:00+05:00")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := mustTime(t, "2026-03-15T00:00:00+05:00")
	if !w.StartAt.Equal(want) {
		t.Errorf("StartAt = %v, want %v", w.StartAt, want)
	}
	if got := w.EndAt.Sub(w.StartAt); got != 24*time.Hour {
		t.Errorf("today length = %v, want 24h", got)
	}
}

func TestResolve_HalfOpenBoundaries(t *testing.T) {
	now := mustTime(t, "2026-03-15T00:00:00Z")

	today, _ := ResolveAt(Today, now)
	yesterday, _ := ResolveAt(Yesterday, now)

	if !today.Contains(now) {
		t.Error("midnight should belong to today")
	}
	if yesterday.Contains(now) {
		t.Error("midnight must not belong to yesterday")
	}
	if !yesterday.EndAt.Equal(today.StartAt) {
		t.Errorf("yesterday.EndAt = %v, today.StartAt = %v; windows must abut", yesterday.EndAt, today.StartAt)
	}
}

func TestResolveAt_DSTDayIsCalendarAligned(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2026-03-08 is the spring-forward day in New York.
	now := time.Date(2026, 3, 8, 12, 0, 0, 0, loc)
	w, err := ResolveAt(Today, now)
	if err != nil {
		t.Fatalf("ResolveAt() error = %v", err)
	}
	if w.StartAt.Hour() != 0 || w.EndAt.Hour() != 0 {
		t.Errorf("boundaries not at midnight: %v - %v", w.StartAt, w.EndAt)
	}
	if got := w.EndAt.Sub(w.StartAt); got != 23*time.Hour {
		t.Errorf("DST day length = %v, want 23h", got)
	}
}

func TestResolve_Errors(t *testing.T) {
	if _, err := Resolve("next_week", "2026-03-15T00:00:00Z"); err == nil {
		t.Error("expected error for unknown choice")
	}
	if _, err := Resolve("today", "not a time"); err == nil {
		t.Error("expected error for invalid timestamp")
	}
	if _, err := ResolveAt(Choice("fortnight"), time.Now()); err == nil {
		t.Error("expected error from ResolveAt for unknown choice")
	}
}
