package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/store"
)

// Repo serves every read the availability engine needs from one bun handle.
type Repo struct {
	db bun.IDB
}

func NewRepo(db bun.IDB) *Repo {
	return &Repo{db: db}
}

var snapshotTx = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}

func (r *Repo) GetEventType(ctx context.Context, eventID uuid.UUID) (domain.EventType, error) {
	var event domain.EventType
	err := r.db.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.EventType{}, notFound(err)
	}
	return event, nil
}

// GetSchedule loads the schedule together with its rules and overrides in one snapshot.
func (r *Repo) GetSchedule(ctx context.Context, event domain.EventType, userID string) (domain.Schedule, error) {
	var sched domain.Schedule
	err := r.db.RunInTx(ctx, snapshotTx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().
			Model(&sched).
			Relation("Availability", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.OrderExpr("day_of_week ASC, start_time ASC")
			}).
			Relation("Overrides", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.OrderExpr("created_at ASC, id ASC")
			}).
			Where("?TableAlias.user_id = ?", userID)
		if id := scheduleFor(event, userID); id != nil {
			q = q.Where("?TableAlias.id = ?", *id)
		} else {
			q = q.Where("?TableAlias.is_default = TRUE").OrderExpr("?TableAlias.created_at ASC")
		}
		return q.Limit(1).Scan(ctx)
	})
	if err != nil {
		return domain.Schedule{}, notFound(err)
	}
	return sched, nil
}

// scheduleFor returns the event's pinned schedule when it belongs to userID.
// Everyone else falls back to their default schedule.
func scheduleFor(event domain.EventType, userID string) *uuid.UUID {
	if event.ScheduleID == nil || *event.ScheduleID == uuid.Nil {
		return nil
	}
	if event.OwnerID != userID {
		return nil
	}
	return event.ScheduleID
}

func (r *Repo) ListCommitted(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("status IN (?)", bun.In(domain.CommittedStatuses)).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) AcceptedMembers(ctx context.Context, teamID uuid.UUID) ([]string, error) {
	var userIDs []string
	err := r.db.NewSelect().
		Model((*domain.Membership)(nil)).
		Column("user_id").
		Where("team_id = ?", teamID).
		Where("accepted = TRUE").
		OrderExpr("user_id ASC").
		Scan(ctx, &userIDs)
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

// AssignmentStats counts committed bookings of the event created since the cutoff.
// LastAssignedAt covers the member's whole history with the event.
func (r *Repo) AssignmentStats(ctx context.Context, eventID uuid.UUID, userIDs []string, since time.Time) ([]domain.AssignmentStats, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var rows []domain.AssignmentStats
	err := r.db.NewSelect().
		Model((*domain.Booking)(nil)).
		ColumnExpr("user_id").
		ColumnExpr("count(*) FILTER (WHERE created_at >= ?) AS recent_bookings", since).
		ColumnExpr("max(created_at) AS last_assigned_at").
		Where("event_type_id = ?", eventID).
		Where("user_id IN (?)", bun.In(userIDs)).
		Where("status IN (?)", bun.In(domain.CommittedStatuses)).
		Group("user_id").
		OrderExpr("user_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) ListCalendarConnections(ctx context.Context, userID string) ([]domain.CalendarConnection, error) {
	var rows []domain.CalendarConnection
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("active = TRUE").
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

var (
	_ store.ScheduleProvider         = (*Repo)(nil)
	_ store.BookingStore             = (*Repo)(nil)
	_ store.RosterProvider           = (*Repo)(nil)
	_ store.CalendarConnectionLister = (*Repo)(nil)
)
