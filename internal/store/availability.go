package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"slotwise/backend/internal/domain"
)

// RoundRobinLookback is the default load-balancing window for round-robin assignment.
const RoundRobinLookback = 30 * 24 * time.Hour

// ScheduleProvider returns the event definition and the schedule a member uses for it.
// Both return ErrNotFound when the row is missing.
type ScheduleProvider interface {
	GetEventType(ctx context.Context, eventID uuid.UUID) (domain.EventType, error)
	GetSchedule(ctx context.Context, event domain.EventType, userID string) (domain.Schedule, error)
}

// BookingStore returns a member's committed bookings (any event) overlapping the window.
type BookingStore interface {
	ListCommitted(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Booking, error)
}

// RosterProvider resolves team membership and round-robin history.
type RosterProvider interface {
	AcceptedMembers(ctx context.Context, teamID uuid.UUID) ([]string, error)
	AssignmentStats(ctx context.Context, eventID uuid.UUID, userIDs []string, since time.Time) ([]domain.AssignmentStats, error)
}
