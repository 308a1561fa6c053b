package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SchedulingType string

const (
	SchedulingTypePersonal   SchedulingType = "personal"
	SchedulingTypeCollective SchedulingType = "collective"
	SchedulingTypeRoundRobin SchedulingType = "round_robin"
)

type EventType struct {
	bun.BaseModel `bun:"table:event_types"`

	ID                   uuid.UUID      `bun:"id,pk,type:uuid"`
	OwnerID              string         `bun:"owner_id,notnull"`
	TeamID               *uuid.UUID     `bun:"team_id,type:uuid"`
	ScheduleID           *uuid.UUID     `bun:"schedule_id,type:uuid"`
	Title                string         `bun:"title,notnull"`
	SchedulingType       SchedulingType `bun:"scheduling_type,notnull"`
	Active               bool           `bun:"active,notnull"`
	LengthMinutes        int            `bun:"length_minutes,notnull"`
	SlotIntervalMinutes  *int           `bun:"slot_interval_minutes"`
	BeforeBufferMinutes  int            `bun:"before_buffer_minutes,notnull"`
	AfterBufferMinutes   int            `bun:"after_buffer_minutes,notnull"`
	MinimumNoticeMinutes int            `bun:"minimum_notice_minutes,notnull"`
	FutureLimitDays      int            `bun:"future_limit_days,notnull"`
	MaxBookingsPerDay    *int           `bun:"max_bookings_per_day"`
	MaxBookingsPerWeek   *int           `bun:"max_bookings_per_week"`
	CreatedAt            time.Time      `bun:"created_at,notnull"`
	UpdatedAt            time.Time      `bun:"updated_at,notnull"`
}

func (e *EventType) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// IsTeam reports whether bookings for this event are routed to members of a team.
func (e EventType) IsTeam() bool {
	return e.TeamID != nil && *e.TeamID != uuid.Nil
}

func (e EventType) Constraints() EventConstraints {
	c := EventConstraints{
		Duration:        time.Duration(e.LengthMinutes) * time.Minute,
		BeforeBuffer:    time.Duration(e.BeforeBufferMinutes) * time.Minute,
		AfterBuffer:     time.Duration(e.AfterBufferMinutes) * time.Minute,
		MinimumNotice:   time.Duration(e.MinimumNoticeMinutes) * time.Minute,
		FutureLimitDays: e.FutureLimitDays,
	}
	if e.SlotIntervalMinutes != nil {
		c.SlotInterval = time.Duration(*e.SlotIntervalMinutes) * time.Minute
	}
	if e.MaxBookingsPerDay != nil {
		c.MaxBookingsPerDay = *e.MaxBookingsPerDay
	}
	if e.MaxBookingsPerWeek != nil {
		c.MaxBookingsPerWeek = *e.MaxBookingsPerWeek
	}
	return c
}

// ValidConstraints is Constraints plus validation. A configured slot interval or
// booking cap must be positive; leave the column NULL to get the default.
func (e EventType) ValidConstraints() (EventConstraints, error) {
	if e.SlotIntervalMinutes != nil && *e.SlotIntervalMinutes <= 0 {
		return EventConstraints{}, errors.New("slot interval must be positive")
	}
	if e.MaxBookingsPerDay != nil && *e.MaxBookingsPerDay <= 0 {
		return EventConstraints{}, errors.New("max bookings per day must be positive")
	}
	if e.MaxBookingsPerWeek != nil && *e.MaxBookingsPerWeek <= 0 {
		return EventConstraints{}, errors.New("max bookings per week must be positive")
	}
	c := e.Constraints()
	if err := c.Validate(); err != nil {
		return EventConstraints{}, err
	}
	return c, nil
}

// EventConstraints is the immutable set of booking rules for one computation.
// A zero SlotInterval means slots step by Duration; zero caps mean no cap.
type EventConstraints struct {
	Duration           time.Duration
	SlotInterval       time.Duration
	BeforeBuffer       time.Duration
	AfterBuffer        time.Duration
	MinimumNotice      time.Duration
	FutureLimitDays    int
	MaxBookingsPerDay  int
	MaxBookingsPerWeek int
}

func (c EventConstraints) Step() time.Duration {
	if c.SlotInterval > 0 {
		return c.SlotInterval
	}
	return c.Duration
}

func (c EventConstraints) Validate() error {
	if c.Duration <= 0 {
		return errors.New("duration must be positive")
	}
	if c.Duration%time.Minute != 0 {
		return errors.New("duration must be whole minutes")
	}
	if c.SlotInterval < 0 {
		return errors.New("slot interval must not be negative")
	}
	if c.SlotInterval%time.Minute != 0 {
		return errors.New("slot interval must be whole minutes")
	}
	if c.BeforeBuffer < 0 || c.AfterBuffer < 0 {
		return errors.New("buffers must not be negative")
	}
	if c.MinimumNotice < 0 {
		return errors.New("minimum notice must not be negative")
	}
	if c.FutureLimitDays <= 0 {
		return errors.New("future limit days must be positive")
	}
	if c.MaxBookingsPerDay < 0 {
		return errors.New("max bookings per day must not be negative")
	}
	if c.MaxBookingsPerWeek < 0 {
		return errors.New("max bookings per week must not be negative")
	}
	return nil
}
