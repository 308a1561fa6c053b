package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// CommittedStatuses occupy time and count toward caps and round-robin load.
var CommittedStatuses = []BookingStatus{BookingStatusPending, BookingStatusAccepted}

func (s BookingStatus) Committed() bool {
	return s == BookingStatusPending || s == BookingStatusAccepted
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID          uuid.UUID     `bun:"id,pk,type:uuid"`
	EventTypeID uuid.UUID     `bun:"event_type_id,notnull,type:uuid"`
	UserID      string        `bun:"user_id,notnull"`
	Status      BookingStatus `bun:"status,notnull"`
	StartTime   time.Time     `bun:"start_time,notnull"`
	EndTime     time.Time     `bun:"end_time,notnull"`
	CreatedAt   time.Time     `bun:"created_at,notnull"`
	UpdatedAt   time.Time     `bun:"updated_at,notnull"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (b Booking) Busy() BusyInterval {
	return BusyInterval{Start: b.StartTime.UTC(), End: b.EndTime.UTC(), Source: BusySourceBooking}
}

const (
	BusySourceBooking  = "booking"
	BusySourceICal     = "ical"
	BusySourceGoogle   = "google"
	BusySourceExternal = "external"
)

// BusyInterval is a committed obligation [Start, End) in UTC. Source is informational only.
type BusyInterval struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Source string    `json:"source,omitempty"`
}

// Slot is a bookable start time. It is computed per query and never stored.
type Slot struct {
	StartUTC        time.Time
	LocalTime       string
	DurationMinutes int
}
