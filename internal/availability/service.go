package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/store"
	"slotwise/backend/internal/timewindow"
)

var tracer = otel.Tracer("slotwise/backend/internal/availability")

const (
	DefaultMaxRangeDays     = 62
	DefaultMaxMemberWorkers = 8
)

// BusySource reports externally sourced busy time for a member.
type BusySource interface {
	BusyIntervals(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.BusyInterval, error)
}

type Options struct {
	Busy               BusySource
	Logger             *slog.Logger
	Now                func() time.Time
	MaxRangeDays       int
	MaxMemberWorkers   int
	RoundRobinLookback time.Duration
}

// Service computes bookable slots. It keeps no state between calls.
type Service struct {
	schedules store.ScheduleProvider
	bookings  store.BookingStore
	roster    store.RosterProvider
	busy      BusySource
	log       *slog.Logger
	now       func() time.Time

	maxRangeDays int
	maxWorkers   int
	lookback     time.Duration
}

func NewService(schedules store.ScheduleProvider, bookings store.BookingStore, roster store.RosterProvider, opts Options) *Service {
	s := &Service{
		schedules:    schedules,
		bookings:     bookings,
		roster:       roster,
		busy:         opts.Busy,
		log:          opts.Logger,
		now:          opts.Now,
		maxRangeDays: opts.MaxRangeDays,
		maxWorkers:   opts.MaxMemberWorkers,
		lookback:     opts.RoundRobinLookback,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With(slog.String("component", "availability"))
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxRangeDays <= 0 {
		s.maxRangeDays = DefaultMaxRangeDays
	}
	if s.maxWorkers <= 0 {
		s.maxWorkers = DefaultMaxMemberWorkers
	}
	if s.lookback <= 0 {
		s.lookback = store.RoundRobinLookback
	}
	return s
}

// Query selects the calendar dates StartDate..EndDate (inclusive) as observed in Timezone.
type Query struct {
	EventID   uuid.UUID
	StartDate timewindow.Date
	EndDate   timewindow.Date
	Timezone  string
}

type queryRange struct {
	loc   *time.Location
	start time.Time
	end   time.Time
	now   time.Time
	// weekAnchor starts the first weekly cap window.
	weekAnchor time.Time
}

func (r queryRange) contains(t time.Time) bool {
	return !t.Before(r.start) && t.Before(r.end)
}

func (s *Service) parseQuery(q Query) (queryRange, error) {
	if q.EventID == uuid.Nil {
		return queryRange{}, validationError("event_id is required")
	}
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return queryRange{}, validationError("start_date and end_date are required")
	}
	if q.EndDate.Before(q.StartDate) {
		return queryRange{}, validationError("end_date must not be before start_date")
	}
	if days := q.StartDate.DaysUntil(q.EndDate) + 1; days > s.maxRangeDays {
		return queryRange{}, validationError(fmt.Sprintf("date range must not exceed %d days", s.maxRangeDays))
	}
	loc, err := loadZone(q.Timezone)
	if err != nil {
		return queryRange{}, err
	}
	start := q.StartDate.StartIn(loc)
	return queryRange{
		loc:        loc,
		start:      start,
		end:        q.EndDate.AddDays(1).StartIn(loc),
		now:        s.now().UTC(),
		weekAnchor: start,
	}, nil
}

func loadZone(name string) (*time.Location, error) {
	tz := strings.TrimSpace(name)
	if tz == "" {
		return nil, validationError("time_zone is required")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, validationError("invalid time_zone")
	}
	return loc, nil
}

// ComputeAvailableSlots returns the slots of a personal event, ascending by start.
// A missing or inactive event, or one owned by a team, yields no slots.
func (s *Service) ComputeAvailableSlots(ctx context.Context, q Query) (out []domain.Slot, err error) {
	ctx, span := tracer.Start(ctx, "availability.ComputeAvailableSlots", trace.WithAttributes(
		attribute.String("event_id", q.EventID.String()),
	))
	defer func() { endSpan(span, err) }()

	rng, err := s.parseQuery(q)
	if err != nil {
		return nil, err
	}
	event, ok, err := s.loadEvent(ctx, q.EventID)
	if err != nil || !ok {
		return nil, err
	}
	return s.personalSlots(ctx, event, rng)
}

// Slots routes a query to the strategy matching the event's scheduling type.
func (s *Service) Slots(ctx context.Context, q Query) (out []domain.Slot, err error) {
	ctx, span := tracer.Start(ctx, "availability.Slots", trace.WithAttributes(
		attribute.String("event_id", q.EventID.String()),
	))
	defer func() { endSpan(span, err) }()

	rng, err := s.parseQuery(q)
	if err != nil {
		return nil, err
	}
	event, ok, err := s.loadEvent(ctx, q.EventID)
	if err != nil || !ok {
		return nil, err
	}
	span.SetAttributes(attribute.String("scheduling_type", string(event.SchedulingType)))

	switch {
	case event.IsTeam() && event.SchedulingType == domain.SchedulingTypeCollective:
		return s.collectiveSlots(ctx, event, rng)
	case event.IsTeam():
		return s.roundRobinSlots(ctx, event, rng)
	default:
		return s.personalSlots(ctx, event, rng)
	}
}

func (s *Service) personalSlots(ctx context.Context, event domain.EventType, rng queryRange) ([]domain.Slot, error) {
	if event.IsTeam() {
		return nil, nil
	}
	c, err := event.ValidConstraints()
	if err != nil {
		return nil, validationError(err.Error())
	}

	slots, err := s.memberSlots(ctx, event, c, event.OwnerID, rng)
	if errors.Is(err, errUnusableSchedule) {
		s.log.Warn(
			"schedule misconfigured; owner has no availability",
			slog.Any("err", err),
			slog.String("event_id", event.ID.String()),
			slog.String("user_id", event.OwnerID),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return localize(slots, rng.loc), nil
}

// loadEvent reports ok=false for events that are missing or inactive.
func (s *Service) loadEvent(ctx context.Context, eventID uuid.UUID) (domain.EventType, bool, error) {
	event, err := s.schedules.GetEventType(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.EventType{}, false, nil
		}
		return domain.EventType{}, false, fmt.Errorf("load event type: %w", err)
	}
	if !event.Active {
		return domain.EventType{}, false, nil
	}
	return event, true, nil
}

// errUnusableSchedule wraps schedule data that cannot be interpreted, such as an unknown zone.
var errUnusableSchedule = errors.New("unusable schedule")

// memberSlots computes one member's slots in UTC, unformatted. A member without a schedule
// has no slots; one whose schedule cannot be interpreted fails with errUnusableSchedule.
func (s *Service) memberSlots(ctx context.Context, event domain.EventType, c domain.EventConstraints, userID string, rng queryRange) ([]domain.Slot, error) {
	fetchStart, fetchEnd := fetchWindow(rng, c)

	member, err := s.loadMember(ctx, event, userID, fetchStart, fetchEnd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	slots, err := computeMemberSlots(member, event.ID, c, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUnusableSchedule, err)
	}
	return slots, nil
}

func (s *Service) loadMember(ctx context.Context, event domain.EventType, userID string, fetchStart, fetchEnd time.Time) (domain.TeamMember, error) {
	sched, err := s.schedules.GetSchedule(ctx, event, userID)
	if err != nil {
		return domain.TeamMember{}, fmt.Errorf("load schedule: %w", err)
	}
	bookings, err := s.bookings.ListCommitted(ctx, userID, fetchStart, fetchEnd)
	if err != nil {
		return domain.TeamMember{}, fmt.Errorf("list bookings: %w", err)
	}
	return domain.TeamMember{
		UserID:   userID,
		Schedule: sched,
		Bookings: bookings,
		External: s.externalBusy(ctx, userID, fetchStart, fetchEnd),
	}, nil
}

func (s *Service) externalBusy(ctx context.Context, userID string, windowStart, windowEnd time.Time) []domain.BusyInterval {
	if s.busy == nil {
		return nil
	}
	busy, err := s.busy.BusyIntervals(ctx, userID, windowStart, windowEnd)
	if err != nil {
		s.log.Warn(
			"external busy times unavailable; continuing without them",
			slog.Any("err", err),
			slog.String("user_id", userID),
		)
		return nil
	}
	return busy
}

// fetchWindow covers every schedule date touching the range plus the buffers and, when a
// weekly cap applies, every cap window the range touches.
func fetchWindow(rng queryRange, c domain.EventConstraints) (time.Time, time.Time) {
	pad := 24*time.Hour + c.BeforeBuffer + c.AfterBuffer + c.Duration
	start, end := rng.start, rng.end
	if c.MaxBookingsPerWeek > 0 {
		if first, _ := capWeek(rng.weekAnchor, rng.start); first.Before(start) {
			start = first
		}
		if _, last := capWeek(rng.weekAnchor, rng.end.Add(-time.Nanosecond)); last.After(end) {
			end = last
		}
	}
	return start.Add(-pad).UTC(), end.Add(pad).UTC()
}

func computeMemberSlots(m domain.TeamMember, eventID uuid.UUID, c domain.EventConstraints, rng queryRange) ([]domain.Slot, error) {
	loc, err := time.LoadLocation(m.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule time zone %q: %w", m.Schedule.Timezone, err)
	}

	futureLimit := FutureLimit(rng.now, c.FutureLimitDays)
	first := timewindow.DateOf(rng.start.In(loc))
	last := timewindow.DateOf(rng.end.Add(-time.Nanosecond).In(loc))

	var candidates []domain.Slot
	for d := first; !d.After(last); d = d.AddDays(1) {
		windows, err := ResolveWindowsForDate(d, loc, m.Schedule.Availability, m.Schedule.Overrides)
		if err != nil {
			return nil, err
		}
		for _, w := range windows {
			candidates = append(candidates, GenerateSlots(w, c, rng.now, futureLimit)...)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	busy := make([]domain.BusyInterval, 0, len(m.Bookings)+len(m.External))
	var eventBookings []domain.Booking
	for _, b := range m.Bookings {
		if !b.Status.Committed() {
			continue
		}
		busy = append(busy, b.Busy())
		if b.EventTypeID == eventID {
			eventBookings = append(eventBookings, b)
		}
	}
	busy = append(busy, m.External...)

	slots := FilterSlots(candidates, busy, eventBookings, c, loc, rng.weekAnchor)
	return clip(slots, rng), nil
}

// clip keeps slots starting inside the range, sorted and without duplicates.
func clip(slots []domain.Slot, rng queryRange) []domain.Slot {
	out := make([]domain.Slot, 0, len(slots))
	for _, sl := range slots {
		if rng.contains(sl.StartUTC) {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartUTC.Before(out[j].StartUTC) })

	deduped := out[:0]
	for i, sl := range out {
		if i > 0 && sl.StartUTC.Equal(deduped[len(deduped)-1].StartUTC) {
			continue
		}
		deduped = append(deduped, sl)
	}
	return deduped
}

func localize(slots []domain.Slot, loc *time.Location) []domain.Slot {
	out := make([]domain.Slot, len(slots))
	for i, sl := range slots {
		sl.LocalTime = timewindow.FormatClock(sl.StartUTC, loc)
		out[i] = sl
	}
	return out
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
