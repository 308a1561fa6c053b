package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Membership struct {
	bun.BaseModel `bun:"table:memberships"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	TeamID    uuid.UUID `bun:"team_id,notnull,type:uuid"`
	UserID    string    `bun:"user_id,notnull"`
	Role      string    `bun:"role,notnull"`
	Accepted  bool      `bun:"accepted,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (m *Membership) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// TeamMember is one accepted member's data snapshot for a single computation.
type TeamMember struct {
	UserID   string
	Schedule Schedule
	Bookings []Booking
	External []BusyInterval
}

// AssignmentStats summarises a member's committed bookings of one event.
// LastAssignedAt is zero when the member has never been assigned.
type AssignmentStats struct {
	UserID         string    `bun:"user_id"`
	RecentBookings int       `bun:"recent_bookings"`
	LastAssignedAt time.Time `bun:"last_assigned_at"`
}
