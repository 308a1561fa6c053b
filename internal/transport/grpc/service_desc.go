package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"
)

const AvailabilityServiceName = "slotwise.v1.AvailabilityService"

const (
	methodGetAvailableSlots       = "GetAvailableSlots"
	methodGetCollectiveSlots      = "GetCollectiveSlots"
	methodGetRoundRobinSlots      = "GetRoundRobinSlots"
	methodGetSlots                = "GetSlots"
	methodGetRoundRobinAssignment = "GetRoundRobinAssignment"
)

type AvailabilityServiceServer interface {
	GetAvailableSlots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error)
	GetCollectiveSlots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error)
	GetRoundRobinSlots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error)
	GetSlots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error)
	GetRoundRobinAssignment(ctx context.Context, req *AssignmentRequest) (*AssignmentResponse, error)
}

func RegisterAvailabilityServiceServer(s grpc.ServiceRegistrar, srv AvailabilityServiceServer) {
	s.RegisterService(&availabilityServiceDesc, srv)
}

var availabilityServiceDesc = grpc.ServiceDesc{
	ServiceName: AvailabilityServiceName,
	HandlerType: (*AvailabilityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodGetAvailableSlots, Handler: slotsHandler(methodGetAvailableSlots, AvailabilityServiceServer.GetAvailableSlots)},
		{MethodName: methodGetCollectiveSlots, Handler: slotsHandler(methodGetCollectiveSlots, AvailabilityServiceServer.GetCollectiveSlots)},
		{MethodName: methodGetRoundRobinSlots, Handler: slotsHandler(methodGetRoundRobinSlots, AvailabilityServiceServer.GetRoundRobinSlots)},
		{MethodName: methodGetSlots, Handler: slotsHandler(methodGetSlots, AvailabilityServiceServer.GetSlots)},
		{MethodName: methodGetRoundRobinAssignment, Handler: assignmentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: ProtoFile,
}

func fullMethod(method string) string {
	return "/" + AvailabilityServiceName + "/" + method
}

// Requests arrive as protobuf messages and are decoded into their typed form before the
// interceptor chain runs. Responses are encoded on the way out.
type slotsMethod func(srv AvailabilityServiceServer, ctx context.Context, req *SlotsRequest) (*SlotsResponse, error)

func slotsHandler(method string, call slotsMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		wire := dynamicpb.NewMessage(slotsRequestDesc)
		if err := dec(wire); err != nil {
			return nil, err
		}
		in := new(SlotsRequest)
		in.decode(wire)

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AvailabilityServiceServer), ctx, req.(*SlotsRequest))
		}
		return invoke(ctx, srv, method, in, interceptor, handler)
	}
}

func assignmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	wire := dynamicpb.NewMessage(assignmentRequestDesc)
	if err := dec(wire); err != nil {
		return nil, err
	}
	in := new(AssignmentRequest)
	in.decode(wire)

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServiceServer).GetRoundRobinAssignment(ctx, req.(*AssignmentRequest))
	}
	return invoke(ctx, srv, methodGetRoundRobinAssignment, in, interceptor, handler)
}

func invoke(ctx context.Context, srv any, method string, in any, interceptor grpc.UnaryServerInterceptor, handler grpc.UnaryHandler) (any, error) {
	var (
		out any
		err error
	)
	if interceptor == nil {
		out, err = handler(ctx, in)
	} else {
		out, err = interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}, handler)
	}
	if err != nil {
		return nil, err
	}
	w, ok := out.(wireMessage)
	if !ok {
		return nil, status.Errorf(codes.Internal, "%s returned %T", method, out)
	}
	return toWire(w), nil
}

// AvailabilityClient calls AvailabilityService over the default protobuf codec.
type AvailabilityClient struct {
	cc grpc.ClientConnInterface
}

func NewAvailabilityClient(cc grpc.ClientConnInterface) *AvailabilityClient {
	return &AvailabilityClient{cc: cc}
}

func (c *AvailabilityClient) GetAvailableSlots(ctx context.Context, in *SlotsRequest, opts ...grpc.CallOption) (*SlotsResponse, error) {
	return c.slots(ctx, methodGetAvailableSlots, in, opts)
}

func (c *AvailabilityClient) GetCollectiveSlots(ctx context.Context, in *SlotsRequest, opts ...grpc.CallOption) (*SlotsResponse, error) {
	return c.slots(ctx, methodGetCollectiveSlots, in, opts)
}

func (c *AvailabilityClient) GetRoundRobinSlots(ctx context.Context, in *SlotsRequest, opts ...grpc.CallOption) (*SlotsResponse, error) {
	return c.slots(ctx, methodGetRoundRobinSlots, in, opts)
}

func (c *AvailabilityClient) GetSlots(ctx context.Context, in *SlotsRequest, opts ...grpc.CallOption) (*SlotsResponse, error) {
	return c.slots(ctx, methodGetSlots, in, opts)
}

func (c *AvailabilityClient) GetRoundRobinAssignment(ctx context.Context, in *AssignmentRequest, opts ...grpc.CallOption) (*AssignmentResponse, error) {
	out := new(AssignmentResponse)
	if err := c.call(ctx, methodGetRoundRobinAssignment, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AvailabilityClient) slots(ctx context.Context, method string, in *SlotsRequest, opts []grpc.CallOption) (*SlotsResponse, error) {
	out := new(SlotsResponse)
	if err := c.call(ctx, method, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AvailabilityClient) call(ctx context.Context, method string, in, out wireMessage, opts []grpc.CallOption) error {
	reply := dynamicpb.NewMessage(out.descriptor())
	if err := c.cc.Invoke(ctx, fullMethod(method), toWire(in), reply, opts...); err != nil {
		return err
	}
	out.decode(reply)
	return nil
}
