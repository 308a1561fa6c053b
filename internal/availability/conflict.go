package availability

import (
	"time"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/timewindow"
)

// FilterConflicts drops every slot that overlaps a busy interval widened by the event's
// before/after buffers. Bookings and external busy times are treated alike.
func FilterConflicts(slots []domain.Slot, busy []domain.BusyInterval, c domain.EventConstraints) []domain.Slot {
	if len(busy) == 0 {
		return slots
	}

	blocked := make([]timewindow.Window, 0, len(busy))
	for _, b := range busy {
		start, end := timewindow.ExpandWithBuffers(b.Start, b.End, c.BeforeBuffer, c.AfterBuffer)
		blocked = append(blocked, timewindow.Window{Start: start, End: end})
	}

	out := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		end := s.StartUTC.Add(c.Duration)
		free := true
		for _, b := range blocked {
			if timewindow.Overlaps(s.StartUTC, end, b.Start, b.End) {
				free = false
				break
			}
		}
		if free {
			out = append(out, s)
		}
	}
	return out
}

// ApplyDailyCap removes all slots of any date in loc that already holds limit or more bookings.
func ApplyDailyCap(slots []domain.Slot, bookings []domain.Booking, loc *time.Location, limit int) []domain.Slot {
	if limit <= 0 || len(bookings) == 0 {
		return slots
	}

	perDay := make(map[timewindow.Date]int, len(bookings))
	for _, b := range bookings {
		perDay[timewindow.DateOf(b.StartTime.In(loc))]++
	}

	out := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		if perDay[timewindow.DateOf(s.StartUTC.In(loc))] >= limit {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ApplyWeeklyCap removes all slots of any 7-day window that already holds limit or more bookings.
// Windows start at anchor and repeat every 7 calendar days in anchor's location.
func ApplyWeeklyCap(slots []domain.Slot, bookings []domain.Booking, anchor time.Time, limit int) []domain.Slot {
	if limit <= 0 || len(bookings) == 0 {
		return slots
	}

	perWeek := make(map[int]int, len(bookings))
	for _, b := range bookings {
		perWeek[weekIndex(anchor, b.StartTime)]++
	}

	out := make([]domain.Slot, 0, len(slots))
	for _, s := range slots {
		if perWeek[weekIndex(anchor, s.StartUTC)] >= limit {
			continue
		}
		out = append(out, s)
	}
	return out
}

// capWeek returns the weekly cap window holding t.
func capWeek(anchor, t time.Time) (time.Time, time.Time) {
	start := anchor.AddDate(0, 0, 7*weekIndex(anchor, t))
	return start, start.AddDate(0, 0, 7)
}

func weekIndex(anchor, t time.Time) int {
	loc := anchor.Location()
	days := timewindow.DateOf(anchor).DaysUntil(timewindow.DateOf(t.In(loc)))
	if days < 0 {
		return (days - 6) / 7
	}
	return days / 7
}

// FilterSlots applies buffered conflicts, then the daily and weekly caps.
// eventBookings must be the committed bookings of this event only.
func FilterSlots(slots []domain.Slot, busy []domain.BusyInterval, eventBookings []domain.Booking, c domain.EventConstraints, loc *time.Location, weekAnchor time.Time) []domain.Slot {
	slots = FilterConflicts(slots, busy, c)
	slots = ApplyDailyCap(slots, eventBookings, loc, c.MaxBookingsPerDay)
	return ApplyWeeklyCap(slots, eventBookings, weekAnchor, c.MaxBookingsPerWeek)
}
