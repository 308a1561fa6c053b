package availability

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/timewindow"
)

func hourly(day time.Time, hours ...int) []domain.Slot {
	out := make([]domain.Slot, 0, len(hours))
	for _, h := range hours {
		out = append(out, domain.Slot{StartUTC: day.Add(time.Duration(h) * time.Hour), DurationMinutes: 30})
	}
	return out
}

func startsOf(slots []domain.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, timewindow.FormatClock(s.StartUTC, time.UTC))
	}
	return out
}

func TestFilterConflicts_AfterBuffer(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	c := domain.EventConstraints{Duration: 30 * time.Minute, AfterBuffer: 30 * time.Minute}
	var slots []domain.Slot
	for m := 9 * 60; m <= 12*60; m += 30 {
		slots = append(slots, domain.Slot{StartUTC: day.Add(time.Duration(m) * time.Minute), DurationMinutes: 30})
	}
	busy := []domain.BusyInterval{{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)}}

	got := startsOf(FilterConflicts(slots, busy, c))
	want := []string{"09:00", "09:30", "11:00", "11:30", "12:00"}
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slots = %v, want %v", got, want)
		}
	}
}

func TestFilterConflicts_BeforeBufferAppliesOnce(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	c := domain.EventConstraints{Duration: 30 * time.Minute, BeforeBuffer: 30 * time.Minute}
	slots := []domain.Slot{
		{StartUTC: day.Add(9 * time.Hour)},
		{StartUTC: day.Add(9*time.Hour + 30*time.Minute)},
		{StartUTC: day.Add(10 * time.Hour)},
	}
	busy := []domain.BusyInterval{{Start: day.Add(10*time.Hour + 30*time.Minute), End: day.Add(11 * time.Hour)}}

	// Blocked span is 10:00-11:00; 09:30-10:00 touches it only at the boundary.
	got := startsOf(FilterConflicts(slots, busy, c))
	if len(got) != 2 || got[0] != "09:00" || got[1] != "09:30" {
		t.Fatalf("slots = %v, want [09:00 09:30]", got)
	}
}

func TestFilterConflicts_ExternalBusy(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	c := domain.EventConstraints{Duration: 30 * time.Minute}
	busy := []domain.BusyInterval{{Start: day.Add(9*time.Hour + 45*time.Minute), End: day.Add(10*time.Hour + 15*time.Minute), Source: domain.BusySourceICal}}

	got := startsOf(FilterConflicts(hourly(day, 9, 10, 11), busy, c))
	if len(got) != 2 || got[0] != "09:00" || got[1] != "11:00" {
		t.Fatalf("slots = %v, want [09:00 11:00]", got)
	}
}

func TestApplyDailyCap(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	mon := time.Date(2026, 1, 5, 17, 0, 0, 0, time.UTC)
	tue := mon.Add(24 * time.Hour)
	slots := append(hourly(mon, 0, 1), hourly(tue, 0, 1)...)

	// 2026-01-06 02:00 UTC is still Monday in Los Angeles.
	bookings := []domain.Booking{
		{StartTime: mon.Add(-time.Hour)},
		{StartTime: time.Date(2026, 1, 6, 2, 0, 0, 0, time.UTC)},
	}

	got := ApplyDailyCap(slots, bookings, loc, 2)
	if len(got) != 2 {
		t.Fatalf("slots = %d, want 2", len(got))
	}
	for _, s := range got {
		if timewindow.DateOf(s.StartUTC.In(loc)).Day != 6 {
			t.Fatalf("kept slot on capped day: %v", s.StartUTC)
		}
	}

	if got := ApplyDailyCap(slots, bookings, loc, 3); len(got) != 4 {
		t.Fatalf("under cap slots = %d, want 4", len(got))
	}
	if got := ApplyDailyCap(slots, bookings, loc, 0); len(got) != 4 {
		t.Fatalf("no cap slots = %d, want 4", len(got))
	}
}

func TestApplyWeeklyCap_AnchoredAtRangeStart(t *testing.T) {
	// Anchor on a Wednesday: windows are Wed..Tue.
	anchor := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	firstWeek := hourly(anchor.AddDate(0, 0, 6), 9)
	secondWeek := hourly(anchor.AddDate(0, 0, 7), 9)
	slots := append(firstWeek, secondWeek...)

	bookings := []domain.Booking{{StartTime: anchor.Add(10 * time.Hour)}}

	got := ApplyWeeklyCap(slots, bookings, anchor, 1)
	if len(got) != 1 || !got[0].StartUTC.Equal(secondWeek[0].StartUTC) {
		t.Fatalf("slots = %v, want only the second week", got)
	}
}

func TestWeekIndex_BeforeAnchor(t *testing.T) {
	anchor := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want int
	}{
		{t: anchor, want: 0},
		{t: anchor.AddDate(0, 0, 6), want: 0},
		{t: anchor.AddDate(0, 0, 7), want: 1},
		{t: anchor.AddDate(0, 0, -1), want: -1},
		{t: anchor.AddDate(0, 0, -7), want: -1},
		{t: anchor.AddDate(0, 0, -8), want: -2},
	}
	for _, tt := range tests {
		if got := weekIndex(anchor, tt.t); got != tt.want {
			t.Fatalf("weekIndex(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestFetchWindow_CoversCapWeeks(t *testing.T) {
	anchor := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	rng := queryRange{loc: time.UTC, start: day, end: day.AddDate(0, 0, 1), weekAnchor: anchor}
	c := domain.EventConstraints{Duration: 30 * time.Minute}
	pad := 24*time.Hour + c.Duration

	start, end := fetchWindow(rng, c)
	if !start.Equal(day.Add(-pad)) || !end.Equal(day.AddDate(0, 0, 1).Add(pad)) {
		t.Fatalf("uncapped window = %v-%v", start, end)
	}

	c.MaxBookingsPerWeek = 1
	start, end = fetchWindow(rng, c)
	if !start.Equal(anchor.Add(-pad)) || !end.Equal(anchor.AddDate(0, 0, 7).Add(pad)) {
		t.Fatalf("capped window = %v-%v, want the week from %v", start, end, anchor)
	}
}

func TestFilterSlots_CapsCountOnlyGivenBookings(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	eventID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	c := domain.EventConstraints{Duration: 30 * time.Minute, MaxBookingsPerDay: 1}

	other := domain.Booking{EventTypeID: uuid.New(), StartTime: day.Add(14 * time.Hour), EndTime: day.Add(15 * time.Hour)}
	busy := []domain.BusyInterval{other.Busy()}

	got := FilterSlots(hourly(day, 9, 14, 16), busy, nil, c, time.UTC, day)
	if s := startsOf(got); len(s) != 2 || s[0] != "09:00" || s[1] != "16:00" {
		t.Fatalf("slots = %v, want [09:00 16:00]", s)
	}

	own := domain.Booking{EventTypeID: eventID, StartTime: day.Add(12 * time.Hour), EndTime: day.Add(13 * time.Hour)}
	busy = append(busy, own.Busy())
	if got := FilterSlots(hourly(day, 9, 14, 16), busy, []domain.Booking{own}, c, time.UTC, day); len(got) != 0 {
		t.Fatalf("slots = %v, want none once daily cap is reached", startsOf(got))
	}
}
