package availability

import (
	"testing"
	"time"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/timewindow"
)

func nineToFive() timewindow.Window {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	return timewindow.Window{Start: start, End: start.Add(8 * time.Hour)}
}

func TestGenerateSlots_BasicDay(t *testing.T) {
	c := domain.EventConstraints{Duration: 30 * time.Minute, FutureLimitDays: 60}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	slots := GenerateSlots(nineToFive(), c, now, FutureLimit(now, c.FutureLimitDays))
	if len(slots) != 16 {
		t.Fatalf("slots = %d, want 16", len(slots))
	}
	if got := timewindow.FormatClock(slots[0].StartUTC, time.UTC); got != "09:00" {
		t.Fatalf("first = %s, want 09:00", got)
	}
	if got := timewindow.FormatClock(slots[15].StartUTC, time.UTC); got != "16:30" {
		t.Fatalf("last = %s, want 16:30", got)
	}
	for i, s := range slots {
		if s.DurationMinutes != 30 {
			t.Fatalf("slot %d duration = %d, want 30", i, s.DurationMinutes)
		}
		if i > 0 && !slots[i-1].StartUTC.Before(s.StartUTC) {
			t.Fatalf("slots not strictly ascending at %d", i)
		}
	}
}

func TestGenerateSlots_IntervalShorterThanDuration(t *testing.T) {
	c := domain.EventConstraints{Duration: time.Hour, SlotInterval: 15 * time.Minute, FutureLimitDays: 60}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	slots := GenerateSlots(nineToFive(), c, now, FutureLimit(now, c.FutureLimitDays))
	// 09:00 .. 16:00 every 15 minutes.
	if len(slots) != 29 {
		t.Fatalf("slots = %d, want 29", len(slots))
	}
	if got := timewindow.FormatClock(slots[len(slots)-1].StartUTC, time.UTC); got != "16:00" {
		t.Fatalf("last = %s, want 16:00", got)
	}
}

func TestGenerateSlots_DurationLongerThanWindow(t *testing.T) {
	c := domain.EventConstraints{Duration: 9 * time.Hour, FutureLimitDays: 60}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if slots := GenerateSlots(nineToFive(), c, now, FutureLimit(now, 60)); len(slots) != 0 {
		t.Fatalf("slots = %d, want 0", len(slots))
	}
}

func TestGenerateSlots_MinimumNoticeBoundary(t *testing.T) {
	c := domain.EventConstraints{Duration: 30 * time.Minute, MinimumNotice: 2 * time.Hour, FutureLimitDays: 60}
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	slots := GenerateSlots(nineToFive(), c, now, FutureLimit(now, c.FutureLimitDays))
	if len(slots) == 0 {
		t.Fatalf("expected slots")
	}
	// now+notice is exactly 10:00, which is still bookable.
	if got := timewindow.FormatClock(slots[0].StartUTC, time.UTC); got != "10:00" {
		t.Fatalf("first = %s, want 10:00", got)
	}
}

func TestGenerateSlots_FutureLimit(t *testing.T) {
	c := domain.EventConstraints{Duration: 30 * time.Minute, FutureLimitDays: 1}
	now := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)

	slots := GenerateSlots(nineToFive(), c, now, FutureLimit(now, c.FutureLimitDays))
	// Limit is 2026-01-05 12:00; a start exactly on the limit is allowed.
	last := slots[len(slots)-1]
	if got := timewindow.FormatClock(last.StartUTC, time.UTC); got != "12:00" {
		t.Fatalf("last = %s, want 12:00", got)
	}
	if len(slots) != 7 {
		t.Fatalf("slots = %d, want 7", len(slots))
	}
}
