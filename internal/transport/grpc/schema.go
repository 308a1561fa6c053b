package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ProtoFile is the registered descriptor path of the service schema. It matches
// proto/slotwise/v1/availability.proto, which clients generate their stubs from.
const ProtoFile = "slotwise/v1/availability.proto"

const timestampType = ".google.protobuf.Timestamp"

var (
	slotsRequestDesc       protoreflect.MessageDescriptor
	slotsResponseDesc      protoreflect.MessageDescriptor
	assignmentRequestDesc  protoreflect.MessageDescriptor
	assignmentResponseDesc protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(availabilityFile(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("build %s: %v", ProtoFile, err))
	}
	// Registered so server reflection can describe the service.
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register %s: %v", ProtoFile, err))
	}

	msgs := fd.Messages()
	slotsRequestDesc = msgs.ByName("SlotsRequest")
	slotsResponseDesc = msgs.ByName("SlotsResponse")
	assignmentRequestDesc = msgs.ByName("AssignmentRequest")
	assignmentResponseDesc = msgs.ByName("AssignmentResponse")
}

func availabilityFile() *descriptorpb.FileDescriptorProto {
	const (
		str = descriptorpb.FieldDescriptorProto_TYPE_STRING
		i32 = descriptorpb.FieldDescriptorProto_TYPE_INT32
		bol = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		msg = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	)
	slots := field("slots", 1, msg, ".slotwise.v1.Slot")
	slots.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(ProtoFile),
		Package:    proto.String("slotwise.v1"),
		Dependency: []string{"google/protobuf/timestamp.proto"},
		Syntax:     proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			message("SlotsRequest",
				field("event_id", 1, str, ""),
				field("start_date", 2, str, ""),
				field("end_date", 3, str, ""),
				field("time_zone", 4, str, ""),
			),
			message("Slot",
				field("start_time", 1, msg, timestampType),
				field("local_time", 2, str, ""),
				field("duration_minutes", 3, i32, ""),
			),
			message("SlotsResponse", slots),
			message("AssignmentRequest",
				field("event_id", 1, str, ""),
				field("slot_time", 2, msg, timestampType),
				field("start_date", 3, str, ""),
				field("time_zone", 4, str, ""),
			),
			message("AssignmentResponse",
				field("assigned", 1, bol, ""),
				field("user_id", 2, str, ""),
				field("recent_bookings", 3, i32, ""),
				field("last_assigned_at", 4, msg, timestampType),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("AvailabilityService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method(methodGetAvailableSlots, "SlotsRequest", "SlotsResponse"),
				method(methodGetCollectiveSlots, "SlotsRequest", "SlotsResponse"),
				method(methodGetRoundRobinSlots, "SlotsRequest", "SlotsResponse"),
				method(methodGetSlots, "SlotsRequest", "SlotsResponse"),
				method(methodGetRoundRobinAssignment, "AssignmentRequest", "AssignmentResponse"),
			},
		}},
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func field(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func method(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(".slotwise.v1." + in),
		OutputType: proto.String(".slotwise.v1." + out),
	}
}
