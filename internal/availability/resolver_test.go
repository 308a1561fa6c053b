package availability

import (
	"testing"
	"time"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/timewindow"
)

func strPtr(s string) *string { return &s }

var monday = timewindow.Date{Year: 2026, Month: time.January, Day: 5}

func mondayNineToFive() []domain.AvailabilityRule {
	return []domain.AvailabilityRule{{DayOfWeek: int16(time.Monday), StartTime: "09:00", EndTime: "17:00"}}
}

func TestResolveWindowsForDate_Weekly(t *testing.T) {
	windows, err := ResolveWindowsForDate(monday, time.UTC, mondayNineToFive(), nil)
	if err != nil {
		t.Fatalf("ResolveWindowsForDate error: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("windows = %d, want 1", len(windows))
	}
	if want := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC); !windows[0].Start.Equal(want) {
		t.Fatalf("start = %v, want %v", windows[0].Start, want)
	}
	if windows[0].Duration() != 8*time.Hour {
		t.Fatalf("duration = %v, want 8h", windows[0].Duration())
	}

	tuesday, err := ResolveWindowsForDate(monday.AddDays(1), time.UTC, mondayNineToFive(), nil)
	if err != nil {
		t.Fatalf("ResolveWindowsForDate error: %v", err)
	}
	if len(tuesday) != 0 {
		t.Fatalf("tuesday windows = %d, want 0", len(tuesday))
	}
}

func TestResolveWindowsForDate_SplitWindowsSorted(t *testing.T) {
	rules := []domain.AvailabilityRule{
		{DayOfWeek: int16(time.Monday), StartTime: "14:00", EndTime: "17:00"},
		{DayOfWeek: int16(time.Monday), StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: int16(time.Monday), StartTime: "18:00", EndTime: "18:00"},
	}
	windows, err := ResolveWindowsForDate(monday, time.UTC, rules, nil)
	if err != nil {
		t.Fatalf("ResolveWindowsForDate error: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("windows = %d, want 2 (empty window dropped)", len(windows))
	}
	if windows[0].Start.Hour() != 9 || windows[1].Start.Hour() != 14 {
		t.Fatalf("windows not sorted: %v", windows)
	}
}

func TestResolveWindowsForDate_Overrides(t *testing.T) {
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		overrides []domain.DateOverride
		want      int
		wantStart int
	}{
		{
			name:      "unavailable clears weekly",
			overrides: []domain.DateOverride{{Date: date, IsUnavailable: true}},
			want:      0,
		},
		{
			name:      "timed override replaces weekly",
			overrides: []domain.DateOverride{{Date: date, StartTime: strPtr("13:00"), EndTime: strPtr("15:00")}},
			want:      1,
			wantStart: 13,
		},
		{
			name:      "override without times keeps weekly",
			overrides: []domain.DateOverride{{Date: date}},
			want:      1,
			wantStart: 9,
		},
		{
			name:      "override for other date ignored",
			overrides: []domain.DateOverride{{Date: date.AddDate(0, 0, 1), IsUnavailable: true}},
			want:      1,
			wantStart: 9,
		},
		{
			name: "first override of a date wins",
			overrides: []domain.DateOverride{
				{Date: date, StartTime: strPtr("10:00"), EndTime: strPtr("11:00")},
				{Date: date, IsUnavailable: true},
			},
			want:      1,
			wantStart: 10,
		},
		{
			name:      "inverted override yields nothing",
			overrides: []domain.DateOverride{{Date: date, StartTime: strPtr("15:00"), EndTime: strPtr("13:00")}},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows, err := ResolveWindowsForDate(monday, time.UTC, mondayNineToFive(), tt.overrides)
			if err != nil {
				t.Fatalf("ResolveWindowsForDate error: %v", err)
			}
			if len(windows) != tt.want {
				t.Fatalf("windows = %d, want %d", len(windows), tt.want)
			}
			if tt.want > 0 && windows[0].Start.Hour() != tt.wantStart {
				t.Fatalf("start hour = %d, want %d", windows[0].Start.Hour(), tt.wantStart)
			}
		})
	}
}

func TestResolveWindowsForDate_ScheduleZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	rules := []domain.AvailabilityRule{{DayOfWeek: int16(time.Monday), StartTime: "22:00", EndTime: "24:00"}}

	windows, err := ResolveWindowsForDate(monday, loc, rules, nil)
	if err != nil {
		t.Fatalf("ResolveWindowsForDate error: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("windows = %d, want 1", len(windows))
	}
	// Monday 22:00 EST is Tuesday 03:00 UTC; the rule is still matched on the local weekday.
	if want := time.Date(2026, 1, 6, 3, 0, 0, 0, time.UTC); !windows[0].Start.Equal(want) {
		t.Fatalf("start = %v, want %v", windows[0].Start, want)
	}
	if want := time.Date(2026, 1, 6, 5, 0, 0, 0, time.UTC); !windows[0].End.Equal(want) {
		t.Fatalf("end = %v, want %v", windows[0].End, want)
	}
}

func TestResolveWindowsForDate_BadClock(t *testing.T) {
	rules := []domain.AvailabilityRule{{DayOfWeek: int16(time.Monday), StartTime: "9am", EndTime: "17:00"}}
	if _, err := ResolveWindowsForDate(monday, time.UTC, rules, nil); err == nil {
		t.Fatalf("expected error for malformed rule")
	}
}
