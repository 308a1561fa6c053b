package grpc

import (
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"slotwise/backend/internal/availability"
	"slotwise/backend/internal/domain"
)

// SlotsRequest selects start_date..end_date inclusive, both YYYY-MM-DD in time_zone.
type SlotsRequest struct {
	EventID   string
	StartDate string
	EndDate   string
	TimeZone  string
}

type Slot struct {
	StartTime       time.Time
	LocalTime       string
	DurationMinutes int
}

type SlotsResponse struct {
	Slots []Slot
}

// AssignmentRequest asks who should take slot_time. start_date and time_zone are optional and
// name the range the slot was listed with, so weekly caps count the same weeks.
type AssignmentRequest struct {
	EventID   string
	SlotTime  time.Time
	StartDate string
	TimeZone  string
}

type AssignmentResponse struct {
	Assigned       bool
	UserID         string
	RecentBookings int
	LastAssignedAt *time.Time
}

// wireMessage converts between a typed message and its protobuf form.
type wireMessage interface {
	descriptor() protoreflect.MessageDescriptor
	encode(m protoreflect.Message)
	decode(m protoreflect.Message)
}

func toWire(w wireMessage) *dynamicpb.Message {
	m := dynamicpb.NewMessage(w.descriptor())
	w.encode(m)
	return m
}

func (*SlotsRequest) descriptor() protoreflect.MessageDescriptor { return slotsRequestDesc }

func (r *SlotsRequest) encode(m protoreflect.Message) {
	setString(m, "event_id", r.EventID)
	setString(m, "start_date", r.StartDate)
	setString(m, "end_date", r.EndDate)
	setString(m, "time_zone", r.TimeZone)
}

func (r *SlotsRequest) decode(m protoreflect.Message) {
	r.EventID = getString(m, "event_id")
	r.StartDate = getString(m, "start_date")
	r.EndDate = getString(m, "end_date")
	r.TimeZone = getString(m, "time_zone")
}

func (*SlotsResponse) descriptor() protoreflect.MessageDescriptor { return slotsResponseDesc }

func (r *SlotsResponse) encode(m protoreflect.Message) {
	if len(r.Slots) == 0 {
		return
	}
	list := m.Mutable(fieldOf(m, "slots")).List()
	for _, s := range r.Slots {
		el := list.NewElement()
		sm := el.Message()
		setTime(sm, "start_time", s.StartTime)
		setString(sm, "local_time", s.LocalTime)
		sm.Set(fieldOf(sm, "duration_minutes"), protoreflect.ValueOfInt32(int32(s.DurationMinutes)))
		list.Append(el)
	}
}

func (r *SlotsResponse) decode(m protoreflect.Message) {
	list := m.Get(fieldOf(m, "slots")).List()
	r.Slots = make([]Slot, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		sm := list.Get(i).Message()
		r.Slots = append(r.Slots, Slot{
			StartTime:       getTime(sm, "start_time"),
			LocalTime:       getString(sm, "local_time"),
			DurationMinutes: int(sm.Get(fieldOf(sm, "duration_minutes")).Int()),
		})
	}
}

func (*AssignmentRequest) descriptor() protoreflect.MessageDescriptor { return assignmentRequestDesc }

func (r *AssignmentRequest) encode(m protoreflect.Message) {
	setString(m, "event_id", r.EventID)
	setTime(m, "slot_time", r.SlotTime)
	setString(m, "start_date", r.StartDate)
	setString(m, "time_zone", r.TimeZone)
}

func (r *AssignmentRequest) decode(m protoreflect.Message) {
	r.EventID = getString(m, "event_id")
	r.SlotTime = getTime(m, "slot_time")
	r.StartDate = getString(m, "start_date")
	r.TimeZone = getString(m, "time_zone")
}

func (*AssignmentResponse) descriptor() protoreflect.MessageDescriptor { return assignmentResponseDesc }

func (r *AssignmentResponse) encode(m protoreflect.Message) {
	if r.Assigned {
		m.Set(fieldOf(m, "assigned"), protoreflect.ValueOfBool(true))
	}
	setString(m, "user_id", r.UserID)
	if r.RecentBookings != 0 {
		m.Set(fieldOf(m, "recent_bookings"), protoreflect.ValueOfInt32(int32(r.RecentBookings)))
	}
	if r.LastAssignedAt != nil {
		setTime(m, "last_assigned_at", *r.LastAssignedAt)
	}
}

func (r *AssignmentResponse) decode(m protoreflect.Message) {
	r.Assigned = m.Get(fieldOf(m, "assigned")).Bool()
	r.UserID = getString(m, "user_id")
	r.RecentBookings = int(m.Get(fieldOf(m, "recent_bookings")).Int())
	r.LastAssignedAt = nil
	if last := getTime(m, "last_assigned_at"); !last.IsZero() {
		r.LastAssignedAt = &last
	}
}

func fieldOf(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(name)
	if fd == nil {
		panic("grpc: " + string(m.Descriptor().FullName()) + " has no field " + string(name))
	}
	return fd
}

func setString(m protoreflect.Message, name protoreflect.Name, v string) {
	if v != "" {
		m.Set(fieldOf(m, name), protoreflect.ValueOfString(v))
	}
}

func getString(m protoreflect.Message, name protoreflect.Name) string {
	return m.Get(fieldOf(m, name)).String()
}

// setTime writes t as a google.protobuf.Timestamp. The zero time leaves the field unset.
func setTime(m protoreflect.Message, name protoreflect.Name, t time.Time) {
	if t.IsZero() {
		return
	}
	fd := fieldOf(m, name)
	ts := timestamppb.New(t)
	v := m.NewField(fd)
	tm := v.Message()
	tm.Set(fieldOf(tm, "seconds"), protoreflect.ValueOfInt64(ts.GetSeconds()))
	tm.Set(fieldOf(tm, "nanos"), protoreflect.ValueOfInt32(ts.GetNanos()))
	m.Set(fd, v)
}

// getTime reads a google.protobuf.Timestamp in UTC. An unset field reads as the zero time.
func getTime(m protoreflect.Message, name protoreflect.Name) time.Time {
	fd := fieldOf(m, name)
	if !m.Has(fd) {
		return time.Time{}
	}
	tm := m.Get(fd).Message()
	ts := &timestamppb.Timestamp{
		Seconds: tm.Get(fieldOf(tm, "seconds")).Int(),
		Nanos:   int32(tm.Get(fieldOf(tm, "nanos")).Int()),
	}
	return ts.AsTime()
}

func toSlotsResponse(slots []domain.Slot) *SlotsResponse {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		out = append(out, Slot{
			StartTime:       s.StartUTC.UTC(),
			LocalTime:       s.LocalTime,
			DurationMinutes: s.DurationMinutes,
		})
	}
	return &SlotsResponse{Slots: out}
}

func toAssignmentResponse(a availability.Assignment, ok bool) *AssignmentResponse {
	if !ok {
		return &AssignmentResponse{}
	}
	resp := &AssignmentResponse{
		Assigned:       true,
		UserID:         a.UserID,
		RecentBookings: a.RecentBookings,
	}
	if !a.LastAssignedAt.IsZero() {
		last := a.LastAssignedAt.UTC()
		resp.LastAssignedAt = &last
	}
	return resp
}
