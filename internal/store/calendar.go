package store

import (
	"context"

	"slotwise/backend/internal/domain"
)

type CalendarConnectionLister interface {
	ListCalendarConnections(ctx context.Context, userID string) ([]domain.CalendarConnection, error)
}
