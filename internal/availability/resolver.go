package availability

import (
	"fmt"
	"time"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/timewindow"
)

// ResolveWindowsForDate returns the available UTC windows of one calendar date in loc.
//
// An override for the date wins over the weekly rules: an unavailable override clears the
// date, a timed override replaces every weekly window with its own. When several overrides
// share a date the first one is used. Dates without rules yield no windows.
func ResolveWindowsForDate(date timewindow.Date, loc *time.Location, weekly []domain.AvailabilityRule, overrides []domain.DateOverride) ([]timewindow.Window, error) {
	if o, ok := findOverride(date, overrides); ok {
		if o.IsUnavailable {
			return nil, nil
		}
		if o.StartTime != nil && o.EndTime != nil {
			w, err := windowOn(date, loc, *o.StartTime, *o.EndTime)
			if err != nil {
				return nil, fmt.Errorf("override %s: %w", date, err)
			}
			if w.End.After(w.Start) {
				return []timewindow.Window{w}, nil
			}
			return nil, nil
		}
	}

	weekday := int16(date.Weekday())
	var out []timewindow.Window
	for _, r := range weekly {
		if r.DayOfWeek != weekday {
			continue
		}
		w, err := windowOn(date, loc, r.StartTime, r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("weekly rule day %d: %w", r.DayOfWeek, err)
		}
		if !w.End.After(w.Start) {
			continue
		}
		out = append(out, w)
	}
	sortWindows(out)
	return out, nil
}

func findOverride(date timewindow.Date, overrides []domain.DateOverride) (domain.DateOverride, bool) {
	for _, o := range overrides {
		if timewindow.DateOf(o.Date) == date {
			return o, true
		}
	}
	return domain.DateOverride{}, false
}

func windowOn(date timewindow.Date, loc *time.Location, start, end string) (timewindow.Window, error) {
	s, err := timewindow.ParseClock(start)
	if err != nil {
		return timewindow.Window{}, err
	}
	e, err := timewindow.ParseClock(end)
	if err != nil {
		return timewindow.Window{}, err
	}
	return timewindow.Window{Start: s.On(date, loc), End: e.On(date, loc)}, nil
}

func sortWindows(ws []timewindow.Window) {
	for i := 1; i < len(ws); i++ {
		key := ws[i]
		j := i - 1
		for j >= 0 && ws[j].Start.After(key.Start) {
			ws[j+1] = ws[j]
			j--
		}
		ws[j+1] = key
	}
}
