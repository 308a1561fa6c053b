package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Schedule is a member's weekly availability plus per-date overrides, observed in Timezone.
type Schedule struct {
	bun.BaseModel `bun:"table:schedules"`

	ID           uuid.UUID          `bun:"id,pk,type:uuid"`
	UserID       string             `bun:"user_id,notnull"`
	Name         string             `bun:"name,notnull"`
	Timezone     string             `bun:"timezone,notnull"`
	IsDefault    bool               `bun:"is_default,notnull"`
	Availability []AvailabilityRule `bun:"rel:has-many,join:id=schedule_id"`
	Overrides    []DateOverride     `bun:"rel:has-many,join:id=schedule_id"`
	CreatedAt    time.Time          `bun:"created_at,notnull"`
	UpdatedAt    time.Time          `bun:"updated_at,notnull"`
}

func (s *Schedule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// AvailabilityRule is one weekly window. DayOfWeek 0 is Sunday; times are HH:MM wall clock.
type AvailabilityRule struct {
	bun.BaseModel `bun:"table:availability_rules"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	ScheduleID uuid.UUID `bun:"schedule_id,notnull,type:uuid"`
	DayOfWeek  int16     `bun:"day_of_week,notnull"`
	StartTime  string    `bun:"start_time,notnull"`
	EndTime    string    `bun:"end_time,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (r *AvailabilityRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &r.ID, &r.CreatedAt, &r.UpdatedAt)
}

// DateOverride replaces the weekly windows of one calendar date, or clears it when IsUnavailable.
type DateOverride struct {
	bun.BaseModel `bun:"table:date_overrides"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	ScheduleID    uuid.UUID `bun:"schedule_id,notnull,type:uuid"`
	Date          time.Time `bun:"date,notnull,type:date"`
	IsUnavailable bool      `bun:"is_unavailable,notnull"`
	StartTime     *string   `bun:"start_time"`
	EndTime       *string   `bun:"end_time"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

func (o *DateOverride) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &o.ID, &o.CreatedAt, &o.UpdatedAt)
}
