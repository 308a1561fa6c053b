package busy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"slotwise/backend/internal/domain"
)

const (
	maxFeedBytes        = 8 << 20
	propExceptionDates  = "EXDATE"
	propRecurrenceDates = "RDATE"
)

// ICSFetcher reads busy time from a published iCalendar feed.
type ICSFetcher struct {
	client *http.Client
}

func NewICSFetcher(client *http.Client) *ICSFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &ICSFetcher{client: client}
}

func (f *ICSFetcher) Fetch(ctx context.Context, conn domain.CalendarConnection, windowStart, windowEnd time.Time) ([]domain.BusyInterval, error) {
	feedURL := strings.TrimSpace(conn.FeedURL)
	if feedURL == "" {
		return nil, errors.New("ical connection has no feed url")
	}
	// webcal:// is how many providers publish feeds.
	if rest, ok := strings.CutPrefix(feedURL, "webcal://"); ok {
		feedURL = "https://" + rest
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}
	return ParseICS(io.LimitReader(resp.Body, maxFeedBytes), windowStart, windowEnd)
}

// ParseICS returns the busy intervals of every VEVENT overlapping [windowStart, windowEnd).
// Recurring events are expanded; cancelled and transparent events are ignored. Occurrences
// replaced through RECURRENCE-ID are taken from their overriding event.
func ParseICS(r io.Reader, windowStart, windowEnd time.Time) ([]domain.BusyInterval, error) {
	br := bufio.NewReader(r)
	if err := checkCalendarPrefix(br); err != nil {
		return nil, err
	}

	var events []ical.Event
	dec := ical.NewDecoder(br)
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode calendar: %w", err)
		}
		events = append(events, cal.Events()...)
	}

	overridden := make(map[string]map[int64]struct{})
	for _, ev := range events {
		rid, err := ev.Props.DateTime(ical.PropRecurrenceID, time.UTC)
		if err != nil || rid.IsZero() {
			continue
		}
		uid := propValue(ev.Component, ical.PropUID)
		if overridden[uid] == nil {
			overridden[uid] = make(map[int64]struct{})
		}
		overridden[uid][rid.Unix()] = struct{}{}
	}

	var out []domain.BusyInterval
	for _, ev := range events {
		if !blocksTime(ev) {
			continue
		}
		start, end, ok := eventSpan(ev)
		if !ok {
			continue
		}

		if ev.Props.Get(ical.PropRecurrenceRule) == nil {
			out = append(out, domain.BusyInterval{Start: start, End: end, Source: domain.BusySourceICal})
			continue
		}
		// An unreadable RRULE drops only that event.
		set, err := recurrenceSet(ev)
		if err != nil {
			continue
		}

		uid := propValue(ev.Component, ical.PropUID)
		skip := copySet(overridden[uid])
		for _, t := range dateList(ev, propExceptionDates) {
			if skip == nil {
				skip = make(map[int64]struct{})
			}
			skip[t.Unix()] = struct{}{}
		}
		out = append(out, expand(set, end.Sub(start), skip, windowStart, windowEnd)...)
	}
	return Clip(out, windowStart, windowEnd), nil
}

// expand lists the occurrences of set that overlap the window, minus those moved elsewhere.
func expand(set *rrule.Set, length time.Duration, skip map[int64]struct{}, windowStart, windowEnd time.Time) []domain.BusyInterval {
	var out []domain.BusyInterval
	for _, occ := range set.Between(windowStart.Add(-length), windowEnd, true) {
		if _, moved := skip[occ.Unix()]; moved {
			continue
		}
		out = append(out, domain.BusyInterval{Start: occ.UTC(), End: occ.Add(length).UTC(), Source: domain.BusySourceICal})
	}
	return out
}

func checkCalendarPrefix(br *bufio.Reader) error {
	head, err := br.Peek(64)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return fmt.Errorf("read feed: %w", err)
	}
	trimmed := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(string(head), "\ufeff")))
	if strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<HTML") {
		return errors.New("feed returned HTML instead of iCalendar data")
	}
	if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
		return errors.New("feed is not iCalendar data")
	}
	return nil
}

func blocksTime(ev ical.Event) bool {
	if strings.EqualFold(propValue(ev.Component, ical.PropStatus), string(ical.EventCancelled)) {
		return false
	}
	return !strings.EqualFold(propValue(ev.Component, ical.PropTransparency), "TRANSPARENT")
}

// eventSpan reads DTSTART and DTEND (or DURATION). Floating times are read as UTC and date-only
// events without an end last one day.
func eventSpan(ev ical.Event) (time.Time, time.Time, bool) {
	start, err := ev.DateTimeStart(time.UTC)
	if err != nil || start.IsZero() {
		return time.Time{}, time.Time{}, false
	}

	var end time.Time
	if ev.Props.Get(ical.PropDateTimeEnd) != nil {
		end, err = ev.Props.DateTime(ical.PropDateTimeEnd, time.UTC)
	} else {
		end, err = ev.DateTimeEnd(time.UTC)
	}
	if err != nil {
		end = time.Time{}
	}
	if !end.After(start) {
		p := ev.Props.Get(ical.PropDateTimeStart)
		if p == nil || p.ValueType() != ical.ValueDate {
			return time.Time{}, time.Time{}, false
		}
		end = start.AddDate(0, 0, 1)
	}
	return start.UTC(), end.UTC(), true
}

// recurrenceSet builds the occurrence set from RRULE and RDATE. DTSTART keeps its TZID so
// occurrences stay on local wall time across DST.
func recurrenceSet(ev ical.Event) (*rrule.Set, error) {
	opt, err := ev.Props.RecurrenceRule()
	if err != nil {
		return nil, fmt.Errorf("parse rrule: %w", err)
	}
	if opt == nil {
		return nil, errors.New("event has no rrule")
	}
	dtstart, err := ev.DateTimeStart(time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse dtstart: %w", err)
	}
	opt.Dtstart = dtstart
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}

	set := &rrule.Set{}
	set.RRule(rule)
	set.DTStart(dtstart)
	for _, t := range dateList(ev, propRecurrenceDates) {
		set.RDate(t)
	}
	return set, nil
}

// dateList reads a date property that may repeat and hold comma-separated values.
// Values that do not parse as a date or date-time are skipped.
func dateList(ev ical.Event, name string) []time.Time {
	var out []time.Time
	for _, p := range ev.Props.Values(name) {
		for _, v := range strings.Split(p.Value, ",") {
			single := p
			single.Value = strings.TrimSpace(v)
			t, err := single.DateTime(time.UTC)
			if err != nil || t.IsZero() {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

func copySet(in map[int64]struct{}) map[int64]struct{} {
	if len(in) == 0 {
		return nil
	}
	out := make(map[int64]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func propValue(comp *ical.Component, name string) string {
	if p := comp.Props.Get(name); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}
