package availability

import (
	"time"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/timewindow"
)

// FutureLimit is the latest bookable start for a query evaluated at now.
func FutureLimit(now time.Time, days int) time.Time {
	return now.Add(time.Duration(days) * 24 * time.Hour)
}

// GenerateSlots walks window in Step() increments and returns every start whose full duration
// fits in the window, is no earlier than now+MinimumNotice and no later than futureLimit.
// Bookings are not consulted here; see FilterConflicts.
func GenerateSlots(window timewindow.Window, c domain.EventConstraints, now, futureLimit time.Time) []domain.Slot {
	duration := c.Duration
	step := c.Step()
	if duration <= 0 || step <= 0 {
		return nil
	}

	earliest := now.Add(c.MinimumNotice)
	minutes := int(duration / time.Minute)

	var out []domain.Slot
	for t := window.Start.UTC(); !t.Add(duration).After(window.End); t = t.Add(step) {
		if t.Before(earliest) {
			continue
		}
		if t.After(futureLimit) {
			break
		}
		out = append(out, domain.Slot{StartUTC: t, DurationMinutes: minutes})
	}
	return out
}
