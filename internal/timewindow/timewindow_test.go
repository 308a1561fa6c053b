package timewindow

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	tests := []struct {
		name   string
		aStart time.Time
		aEnd   time.Time
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{name: "a ends when b starts", aStart: at(0), aEnd: at(30), bStart: at(30), bEnd: at(60), want: false},
		{name: "b ends when a starts", aStart: at(30), aEnd: at(60), bStart: at(0), bEnd: at(30), want: false},
		{name: "partial overlap", aStart: at(0), aEnd: at(31), bStart: at(30), bEnd: at(60), want: true},
		{name: "containment", aStart: at(0), aEnd: at(90), bStart: at(30), bEnd: at(60), want: true},
		{name: "identical", aStart: at(0), aEnd: at(30), bStart: at(0), bEnd: at(30), want: true},
		{name: "disjoint", aStart: at(0), aEnd: at(10), bStart: at(20), bEnd: at(30), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Fatalf("Overlaps (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandWithBuffers(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	gotStart, gotEnd := ExpandWithBuffers(start, end, 15*time.Minute, 45*time.Minute)
	if !gotStart.Equal(start.Add(-15 * time.Minute)) {
		t.Fatalf("blocked start = %v, want %v", gotStart, start.Add(-15*time.Minute))
	}
	if !gotEnd.Equal(end.Add(45 * time.Minute)) {
		t.Fatalf("blocked end = %v, want %v", gotEnd, end.Add(45*time.Minute))
	}

	gotStart, gotEnd = ExpandWithBuffers(start, end, 0, 0)
	if !gotStart.Equal(start) || !gotEnd.Equal(end) {
		t.Fatalf("zero buffers changed interval: %v %v", gotStart, gotEnd)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: " 17:00 ", want: 1020},
		{in: "24:00", want: EndOfDay},
		{in: "24:01", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseClock = %d, want %d", got, tt.want)
			}
		})
	}

	if s := Clock(570).String(); s != "09:30" {
		t.Fatalf("String = %q, want %q", s, "09:30")
	}
}

func TestClockOn_UsesOffsetOfThatDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}

	nine := Clock(9 * 60)

	// 2026-03-06 is EST (UTC-5); 2026-03-09 is EDT (UTC-4).
	winter := nine.On(Date{Year: 2026, Month: time.March, Day: 6}, loc)
	if want := time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC); !winter.Equal(want) {
		t.Fatalf("winter = %v, want %v", winter, want)
	}
	summer := nine.On(Date{Year: 2026, Month: time.March, Day: 9}, loc)
	if want := time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC); !summer.Equal(want) {
		t.Fatalf("summer = %v, want %v", summer, want)
	}
	if summer.Location() != time.UTC {
		t.Fatalf("expected UTC instant, got %v", summer.Location())
	}

	midnight := EndOfDay.On(Date{Year: 2026, Month: time.March, Day: 6}, loc)
	if want := time.Date(2026, 3, 7, 5, 0, 0, 0, time.UTC); !midnight.Equal(want) {
		t.Fatalf("24:00 = %v, want %v", midnight, want)
	}
}

func TestFormatClock_DSTAware(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}

	if got := FormatClock(time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC), loc); got != "09:00" {
		t.Fatalf("winter FormatClock = %q, want %q", got, "09:00")
	}
	if got := FormatClock(time.Date(2026, 7, 15, 8, 0, 0, 0, time.UTC), loc); got != "10:00" {
		t.Fatalf("summer FormatClock = %q, want %q", got, "10:00")
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2026-02-27")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.String() != "2026-02-27" {
		t.Fatalf("String = %q", d.String())
	}
	if next := d.AddDays(2); next.String() != "2026-03-01" {
		t.Fatalf("AddDays(2) = %s, want 2026-03-01", next)
	}
	if d.Weekday() != time.Friday {
		t.Fatalf("Weekday = %s, want Friday", d.Weekday())
	}
	if !d.Before(d.AddDays(1)) || d.After(d.AddDays(1)) {
		t.Fatalf("ordering broken")
	}
	if n := d.DaysUntil(d.AddDays(10)); n != 10 {
		t.Fatalf("DaysUntil = %d, want 10", n)
	}
	if _, err := ParseDate("2026-02-30"); err == nil {
		t.Fatalf("expected error for invalid date")
	}
	if !(Date{}).IsZero() || d.IsZero() {
		t.Fatalf("IsZero broken")
	}
}

func TestDateOf_UsesObservedZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	// 2026-01-04 20:00 UTC is already Monday 2026-01-05 in Tokyo.
	instant := time.Date(2026, 1, 4, 20, 0, 0, 0, time.UTC)
	if got := DateOf(instant); got.Weekday() != time.Sunday {
		t.Fatalf("UTC weekday = %s, want Sunday", got.Weekday())
	}
	if got := DateOf(instant.In(loc)); got.Weekday() != time.Monday {
		t.Fatalf("Tokyo weekday = %s, want Monday", got.Weekday())
	}
}
