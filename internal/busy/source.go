package busy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/store"
)

// Source reports a member's busy time from outside the booking store.
type Source interface {
	BusyIntervals(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.BusyInterval, error)
}

// Fetcher reads busy time from one connected calendar.
type Fetcher interface {
	Fetch(ctx context.Context, conn domain.CalendarConnection, windowStart, windowEnd time.Time) ([]domain.BusyInterval, error)
}

const (
	DefaultFetchTimeout = 5 * time.Second
	maxParallelFetches  = 4
)

type AggregatorOptions struct {
	Fetchers map[domain.CalendarProvider]Fetcher
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Aggregator merges the busy time of every active calendar a member connected.
// A calendar that fails is skipped; the call only fails when the connections cannot be listed.
type Aggregator struct {
	connections store.CalendarConnectionLister
	fetchers    map[domain.CalendarProvider]Fetcher
	timeout     time.Duration
	log         *slog.Logger
}

func NewAggregator(connections store.CalendarConnectionLister, opts AggregatorOptions) *Aggregator {
	a := &Aggregator{
		connections: connections,
		fetchers:    opts.Fetchers,
		timeout:     opts.Timeout,
		log:         opts.Logger,
	}
	if a.timeout <= 0 {
		a.timeout = DefaultFetchTimeout
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	a.log = a.log.With(slog.String("component", "busy"))
	return a
}

func (a *Aggregator) BusyIntervals(ctx context.Context, userID string, windowStart, windowEnd time.Time) ([]domain.BusyInterval, error) {
	conns, err := a.connections.ListCalendarConnections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list calendar connections: %w", err)
	}

	var (
		mu  sync.Mutex
		out []domain.BusyInterval
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for _, conn := range conns {
		if !conn.Active {
			continue
		}
		fetcher, ok := a.fetchers[conn.Provider]
		if !ok {
			a.log.Debug("no fetcher for calendar provider", slog.String("provider", string(conn.Provider)), slog.String("connection_id", conn.ID.String()))
			continue
		}
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, a.timeout)
			defer cancel()

			intervals, err := fetcher.Fetch(fctx, conn, windowStart, windowEnd)
			if err != nil {
				a.log.Warn(
					"calendar fetch failed; skipping",
					slog.Any("err", err),
					slog.String("user_id", userID),
					slog.String("provider", string(conn.Provider)),
					slog.String("connection_id", conn.ID.String()),
				)
				return nil
			}
			mu.Lock()
			out = append(out, intervals...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Clip(out, windowStart, windowEnd), nil
}

// Clip drops intervals outside [windowStart, windowEnd) and empty intervals, then sorts by start.
// Intervals are not trimmed, so buffers around an edge interval still apply.
func Clip(intervals []domain.BusyInterval, windowStart, windowEnd time.Time) []domain.BusyInterval {
	out := make([]domain.BusyInterval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.End.After(iv.Start) {
			continue
		}
		if !iv.Start.Before(windowEnd) || !iv.End.After(windowStart) {
			continue
		}
		iv.Start = iv.Start.UTC()
		iv.End = iv.End.UTC()
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].End.Before(out[j].End)
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
