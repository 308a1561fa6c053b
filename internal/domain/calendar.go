package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CalendarProvider string

const (
	CalendarProviderICal   CalendarProvider = "ical"
	CalendarProviderGoogle CalendarProvider = "google"
)

// CalendarConnection points at one external calendar whose busy times block a member.
type CalendarConnection struct {
	bun.BaseModel `bun:"table:calendar_connections"`

	ID          uuid.UUID        `bun:"id,pk,type:uuid"`
	UserID      string           `bun:"user_id,notnull"`
	Provider    CalendarProvider `bun:"provider,notnull"`
	FeedURL     string           `bun:"feed_url"`
	CalendarID  string           `bun:"calendar_id"`
	AccessToken string           `bun:"access_token"`
	Active      bool             `bun:"active,notnull"`
	CreatedAt   time.Time        `bun:"created_at,notnull"`
	UpdatedAt   time.Time        `bun:"updated_at,notnull"`
}

func (c *CalendarConnection) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &c.ID, &c.CreatedAt, &c.UpdatedAt)
}
