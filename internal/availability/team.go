package availability

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/timewindow"
)

// Assignment is the member chosen for a round-robin booking and the load it was ranked on.
type Assignment struct {
	UserID         string
	RecentBookings int
	LastAssignedAt time.Time
}

// GetCollectiveSlots returns the start times at which every accepted member is free.
func (s *Service) GetCollectiveSlots(ctx context.Context, q Query) (out []domain.Slot, err error) {
	ctx, span := tracer.Start(ctx, "availability.GetCollectiveSlots", trace.WithAttributes(
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
	return s.collectiveSlots(ctx, event, rng)
}

// GetRoundRobinSlots returns the start times at which at least one accepted member is free.
func (s *Service) GetRoundRobinSlots(ctx context.Context, q Query) (out []domain.Slot, err error) {
	ctx, span := tracer.Start(ctx, "availability.GetRoundRobinSlots", trace.WithAttributes(
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
	return s.roundRobinSlots(ctx, event, rng)
}

// AssignmentQuery names the round-robin slot to assign. StartDate and Timezone, when set, are
// the range the slot was listed with: weekly caps then count from StartDate in Timezone, as in
// GetRoundRobinSlots. Without them cap weeks start on the slot's UTC day.
type AssignmentQuery struct {
	EventID   uuid.UUID
	SlotTime  time.Time
	StartDate timewindow.Date
	Timezone  string
}

// GetRoundRobinAssignment picks the member who should receive a booking starting at SlotTime.
// ok is false when no member is free at that instant.
func (s *Service) GetRoundRobinAssignment(ctx context.Context, q AssignmentQuery) (a Assignment, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "availability.GetRoundRobinAssignment", trace.WithAttributes(
		attribute.String("event_id", q.EventID.String()),
	))
	defer func() { endSpan(span, err) }()

	rng, err := s.parseAssignment(q)
	if err != nil {
		return Assignment{}, false, err
	}
	slotTime := q.SlotTime.UTC()

	event, found, err := s.loadEvent(ctx, q.EventID)
	if err != nil || !found {
		return Assignment{}, false, err
	}
	members, c, ready, err := s.teamSetup(ctx, event)
	if err != nil || !ready {
		return Assignment{}, false, err
	}

	results, err := s.teamSlots(ctx, event, c, members, rng)
	if err != nil {
		return Assignment{}, false, err
	}

	var free []string
	for _, r := range results {
		if !r.failed && hasStart(r.slots, slotTime) {
			free = append(free, r.userID)
		}
	}
	span.SetAttributes(attribute.Int("free_members", len(free)))

	switch len(free) {
	case 0:
		return Assignment{}, false, nil
	case 1:
		return Assignment{UserID: free[0]}, true, nil
	}

	stats, err := s.roster.AssignmentStats(ctx, event.ID, free, rng.now.Add(-s.lookback))
	if err != nil {
		return Assignment{}, false, fmt.Errorf("load assignment stats: %w", err)
	}
	ranked := RankCandidates(free, stats)
	return ranked[0], true, nil
}

// parseAssignment frames the UTC day holding the slot. The weekly cap anchor is the listing
// range start when one is given.
func (s *Service) parseAssignment(q AssignmentQuery) (queryRange, error) {
	if q.EventID == uuid.Nil {
		return queryRange{}, validationError("event_id is required")
	}
	if q.SlotTime.IsZero() {
		return queryRange{}, validationError("slot_time is required")
	}
	slotTime := q.SlotTime.UTC()
	day := timewindow.DateOf(slotTime)
	rng := queryRange{
		loc:   time.UTC,
		start: day.StartIn(time.UTC),
		end:   day.AddDays(1).StartIn(time.UTC),
		now:   s.now().UTC(),
	}
	rng.weekAnchor = rng.start

	if q.StartDate.IsZero() {
		if strings.TrimSpace(q.Timezone) != "" {
			return queryRange{}, validationError("start_date is required with time_zone")
		}
		return rng, nil
	}
	loc, err := loadZone(q.Timezone)
	if err != nil {
		return queryRange{}, err
	}
	anchor := q.StartDate.StartIn(loc)
	if slotTime.Before(anchor) {
		return queryRange{}, validationError("slot_time must not be before start_date")
	}
	if q.StartDate.DaysUntil(timewindow.DateOf(slotTime.In(loc)))+1 > s.maxRangeDays {
		return queryRange{}, validationError(fmt.Sprintf("slot_time must be within %d days of start_date", s.maxRangeDays))
	}
	rng.weekAnchor = anchor
	return rng, nil
}

// RankCandidates orders members for round-robin assignment: fewest recent bookings first, then
// the one assigned longest ago (never assigned counts as oldest), then by user id.
// Members missing from stats are treated as never assigned.
func RankCandidates(userIDs []string, stats []domain.AssignmentStats) []Assignment {
	byUser := make(map[string]domain.AssignmentStats, len(stats))
	for _, st := range stats {
		byUser[st.UserID] = st
	}

	out := make([]Assignment, 0, len(userIDs))
	for _, id := range userIDs {
		st := byUser[id]
		out = append(out, Assignment{UserID: id, RecentBookings: st.RecentBookings, LastAssignedAt: st.LastAssignedAt.UTC()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RecentBookings != b.RecentBookings {
			return a.RecentBookings < b.RecentBookings
		}
		if !a.LastAssignedAt.Equal(b.LastAssignedAt) {
			return a.LastAssignedAt.Before(b.LastAssignedAt)
		}
		return a.UserID < b.UserID
	})
	return out
}

func (s *Service) collectiveSlots(ctx context.Context, event domain.EventType, rng queryRange) ([]domain.Slot, error) {
	members, c, ready, err := s.teamSetup(ctx, event)
	if err != nil || !ready {
		return nil, err
	}
	results, err := s.teamSlots(ctx, event, c, members, rng)
	if err != nil {
		return nil, err
	}
	// Members whose availability failed to compute are left out rather than emptying the result.
	lists := make([][]domain.Slot, 0, len(results))
	for _, r := range results {
		if !r.failed {
			lists = append(lists, r.slots)
		}
	}
	return localize(Intersect(lists), rng.loc), nil
}

func (s *Service) roundRobinSlots(ctx context.Context, event domain.EventType, rng queryRange) ([]domain.Slot, error) {
	members, c, ready, err := s.teamSetup(ctx, event)
	if err != nil || !ready {
		return nil, err
	}
	results, err := s.teamSlots(ctx, event, c, members, rng)
	if err != nil {
		return nil, err
	}
	lists := make([][]domain.Slot, len(results))
	for i, r := range results {
		lists[i] = r.slots
	}
	return localize(Union(lists), rng.loc), nil
}

// teamSetup validates a team event and lists its accepted members in a stable order.
// ready is false for personal events and empty rosters.
func (s *Service) teamSetup(ctx context.Context, event domain.EventType) ([]string, domain.EventConstraints, bool, error) {
	if !event.IsTeam() {
		return nil, domain.EventConstraints{}, false, nil
	}
	c, err := event.ValidConstraints()
	if err != nil {
		return nil, domain.EventConstraints{}, false, validationError(err.Error())
	}

	ids, err := s.roster.AcceptedMembers(ctx, *event.TeamID)
	if err != nil {
		return nil, domain.EventConstraints{}, false, fmt.Errorf("list team members: %w", err)
	}
	members := uniqueSorted(ids)
	if len(members) == 0 {
		return nil, domain.EventConstraints{}, false, nil
	}
	return members, c, true, nil
}

// memberResult holds one member's slots. failed marks a member whose schedule or bookings
// could not be used; such a member takes no part in the team result.
type memberResult struct {
	userID string
	slots  []domain.Slot
	failed bool
}

// teamSlots computes each member's slots concurrently, in member order. A member whose data
// cannot be loaded is logged and marked failed; only cancellation of ctx aborts the whole call.
func (s *Service) teamSlots(ctx context.Context, event domain.EventType, c domain.EventConstraints, members []string, rng queryRange) ([]memberResult, error) {
	out := make([]memberResult, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(members), s.maxWorkers))
	for i, userID := range members {
		g.Go(func() error {
			slots, err := s.memberSlots(gctx, event, c, userID, rng)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn(
					"member availability failed; leaving member out",
					slog.Any("err", err),
					slog.String("event_id", event.ID.String()),
					slog.String("user_id", userID),
				)
				out[i] = memberResult{userID: userID, failed: true}
				return nil
			}
			out[i] = memberResult{userID: userID, slots: slots}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Intersect keeps the start times present in every list, in ascending order.
// Any empty list empties the result.
func Intersect(lists [][]domain.Slot) []domain.Slot {
	if len(lists) == 0 {
		return nil
	}
	counts := make(map[int64]int)
	for _, list := range lists {
		if len(list) == 0 {
			return nil
		}
		seen := make(map[int64]struct{}, len(list))
		for _, sl := range list {
			k := sl.StartUTC.UnixNano()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			counts[k]++
		}
	}

	var out []domain.Slot
	for _, sl := range lists[0] {
		k := sl.StartUTC.UnixNano()
		if counts[k] == len(lists) {
			out = append(out, sl)
			counts[k] = 0
		}
	}
	sortSlots(out)
	return out
}

// Union merges every list into one ascending, duplicate-free list.
func Union(lists [][]domain.Slot) []domain.Slot {
	seen := make(map[int64]struct{})
	var out []domain.Slot
	for _, list := range lists {
		for _, sl := range list {
			k := sl.StartUTC.UnixNano()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, sl)
		}
	}
	sortSlots(out)
	return out
}

func sortSlots(slots []domain.Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartUTC.Before(slots[j].StartUTC) })
}

func hasStart(slots []domain.Slot, t time.Time) bool {
	for _, sl := range slots {
		if sl.StartUTC.Equal(t) {
			return true
		}
	}
	return false
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
