package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"slotwise/backend/internal/availability"
	"slotwise/backend/internal/domain"
	"slotwise/backend/internal/timewindow"
)

type AvailabilityServer struct {
	svc availabilityService
	log *slog.Logger
}

type availabilityService interface {
	ComputeAvailableSlots(ctx context.Context, q availability.Query) ([]domain.Slot, error)
	GetCollectiveSlots(ctx context.Context, q availability.Query) ([]domain.Slot, error)
	GetRoundRobinSlots(ctx context.Context, q availability.Query) ([]domain.Slot, error)
	Slots(ctx context.Context, q availability.Query) ([]domain.Slot, error)
	GetRoundRobinAssignment(ctx context.Context, q availability.AssignmentQuery) (availability.Assignment, bool, error)
}

func NewAvailabilityServer(svc availabilityService, log *slog.Logger) *AvailabilityServer {
	if log == nil {
		log = slog.Default()
	}
	return &AvailabilityServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.availability")),
	}
}

var _ AvailabilityServiceServer = (*AvailabilityServer)(nil)

func (s *AvailabilityServer) GetAvailableSlots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error) {
	return s.slots(ctx, methodGetAvailableSlots, req, s.svc.ComputeAvailableSlots)
}

func (s *AvailabilityServer) GetCollectiveSlots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error) {
	return s.slots(ctx, methodGetCollectiveSlots, req, s.svc.GetCollectiveSlots)
}

func (s *AvailabilityServer) GetRoundRobinSlots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error) {
	return s.slots(ctx, methodGetRoundRobinSlots, req, s.svc.GetRoundRobinSlots)
}

func (s *AvailabilityServer) GetSlots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error) {
	return s.slots(ctx, methodGetSlots, req, s.svc.Slots)
}

func (s *AvailabilityServer) slots(ctx context.Context, rpc string, req *SlotsRequest, compute func(context.Context, availability.Query) ([]domain.Slot, error)) (*SlotsResponse, error) {
	log := s.log.With(slog.String("rpc", rpc))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	q, reason, err := toQuery(req)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", reason), slog.String("event_id", req.EventID))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	slots, err := compute(ctx, q)
	if err != nil {
		return nil, s.errorStatus(log, rpc, err, slog.String("event_id", req.EventID))
	}

	log.Debug(
		"slots computed",
		slog.String("event_id", req.EventID),
		slog.String("start_date", req.StartDate),
		slog.String("end_date", req.EndDate),
		slog.String("time_zone", req.TimeZone),
		slog.Int("count", len(slots)),
	)
	return toSlotsResponse(slots), nil
}

func (s *AvailabilityServer) GetRoundRobinAssignment(ctx context.Context, req *AssignmentRequest) (*AssignmentResponse, error) {
	log := s.log.With(slog.String("rpc", methodGetRoundRobinAssignment))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	q, reason, err := toAssignmentQuery(req)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", reason), slog.String("event_id", req.EventID))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	eventID, slotTime := q.EventID, q.SlotTime.UTC()

	a, ok, err := s.svc.GetRoundRobinAssignment(ctx, q)
	if err != nil {
		return nil, s.errorStatus(log, methodGetRoundRobinAssignment, err, slog.String("event_id", eventID.String()))
	}

	if ok {
		log.Info(
			"round robin member selected",
			slog.String("event_id", eventID.String()),
			slog.Time("slot_time", slotTime),
			slog.String("user_id", a.UserID),
			slog.Int("recent_bookings", a.RecentBookings),
		)
	} else {
		log.Info("no round robin member free", slog.String("event_id", eventID.String()), slog.Time("slot_time", slotTime))
	}
	return toAssignmentResponse(a, ok), nil
}

func toQuery(req *SlotsRequest) (availability.Query, string, error) {
	eventID, err := uuid.Parse(strings.TrimSpace(req.EventID))
	if err != nil {
		return availability.Query{}, "invalid_uuid", errors.New("event_id must be a UUID")
	}
	start, err := timewindow.ParseDate(strings.TrimSpace(req.StartDate))
	if err != nil {
		return availability.Query{}, "invalid_start_date", errors.New("start_date must be YYYY-MM-DD")
	}
	end, err := timewindow.ParseDate(strings.TrimSpace(req.EndDate))
	if err != nil {
		return availability.Query{}, "invalid_end_date", errors.New("end_date must be YYYY-MM-DD")
	}
	return availability.Query{
		EventID:   eventID,
		StartDate: start,
		EndDate:   end,
		Timezone:  req.TimeZone,
	}, "", nil
}

func toAssignmentQuery(req *AssignmentRequest) (availability.AssignmentQuery, string, error) {
	eventID, err := uuid.Parse(strings.TrimSpace(req.EventID))
	if err != nil {
		return availability.AssignmentQuery{}, "invalid_uuid", errors.New("event_id must be a UUID")
	}
	if req.SlotTime.IsZero() {
		return availability.AssignmentQuery{}, "missing_slot_time", errors.New("slot_time is required")
	}
	q := availability.AssignmentQuery{
		EventID:  eventID,
		SlotTime: req.SlotTime,
		Timezone: req.TimeZone,
	}
	if raw := strings.TrimSpace(req.StartDate); raw != "" {
		q.StartDate, err = timewindow.ParseDate(raw)
		if err != nil {
			return availability.AssignmentQuery{}, "invalid_start_date", errors.New("start_date must be YYYY-MM-DD")
		}
	}
	return q, "", nil
}

func (s *AvailabilityServer) errorStatus(log *slog.Logger, rpc string, err error, attrs ...any) error {
	var vErr *availability.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("request deadline exceeded", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	if errors.Is(err, context.Canceled) {
		log.Info("request canceled", attrs...)
		return status.Error(codes.Canceled, "request canceled")
	}
	log.Error(rpc+" failed", append([]any{slog.Any("err", err)}, attrs...)...)
	return status.Error(codes.Internal, "internal error")
}
