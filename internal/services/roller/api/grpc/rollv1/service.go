package rollv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "dicenotation.v1.RollService"

const (
	RollService_Roll_FullMethodName      = "/" + ServiceName + "/Roll"
	RollService_Replay_FullMethodName    = "/" + ServiceName + "/Replay"
	RollService_GetRoll_FullMethodName   = "/" + ServiceName + "/GetRoll"
	RollService_ListRolls_FullMethodName = "/" + ServiceName + "/ListRolls"
	RollService_ListRules_FullMethodName = "/" + ServiceName + "/ListRules"
)

// RollServiceServer is the server API for RollService.
type RollServiceServer interface {
	Roll(context.Context, *RollRequest) (*RollResponse, error)
	Replay(context.Context, *ReplayRequest) (*RollResponse, error)
	GetRoll(context.Context, *GetRollRequest) (*RollResponse, error)
	ListRolls(context.Context, *ListRollsRequest) (*ListRollsResponse, error)
	ListRules(context.Context, *ListRulesRequest) (*ListRulesResponse, error)
}

// UnimplementedRollServiceServer answers every method with Unimplemented.
type UnimplementedRollServiceServer struct{}

func (UnimplementedRollServiceServer) Roll(context.Context, *RollRequest) (*RollResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Roll not implemented")
}

func (UnimplementedRollServiceServer) Replay(context.Context, *ReplayRequest) (*RollResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Replay not implemented")
}

func (UnimplementedRollServiceServer) GetRoll(context.Context, *GetRollRequest) (*RollResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRoll not implemented")
}

func (UnimplementedRollServiceServer) ListRolls(context.Context, *ListRollsRequest) (*ListRollsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRolls not implemented")
}

func (UnimplementedRollServiceServer) ListRules(context.Context, *ListRulesRequest) (*ListRulesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRules not implemented")
}

// RegisterRollServiceServer registers srv on s.
func RegisterRollServiceServer(s grpc.ServiceRegistrar, srv RollServiceServer) {
	s.RegisterService(&RollService_ServiceDesc, srv)
}

// unaryHandler adapts one typed server method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(RollServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := &structpb.Struct{}
		if err := dec(in); err != nil {
			return nil, err
		}
		handle := func(ctx context.Context, req any) (any, error) {
			msg := new(Req)
			if err := FromStruct(req.(*structpb.Struct), msg); err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			resp, err := call(srv.(RollServiceServer), ctx, msg)
			if err != nil {
				return nil, err
			}
			out, err := ToStruct(resp)
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return out, nil
		}
		if interceptor == nil {
			return handle(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, handle)
	}
}

// RollService_ServiceDesc is the grpc.ServiceDesc for RollService.
var RollService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RollServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Roll",
			Handler: unaryHandler(RollService_Roll_FullMethodName, func(s RollServiceServer, ctx context.Context, in *RollRequest) (*RollResponse, error) {
				return s.Roll(ctx, in)
			}),
		},
		{
			MethodName: "Replay",
			Handler: unaryHandler(RollService_Replay_FullMethodName, func(s RollServiceServer, ctx context.Context, in *ReplayRequest) (*RollResponse, error) {
				return s.Replay(ctx, in)
			}),
		},
		{
			MethodName: "GetRoll",
			Handler: unaryHandler(RollService_GetRoll_FullMethodName, func(s RollServiceServer, ctx context.Context, in *GetRollRequest) (*RollResponse, error) {
				return s.GetRoll(ctx, in)
			}),
		},
		{
			MethodName: "ListRolls",
			Handler: unaryHandler(RollService_ListRolls_FullMethodName, func(s RollServiceServer, ctx context.Context, in *ListRollsRequest) (*ListRollsResponse, error) {
				return s.ListRolls(ctx, in)
			}),
		},
		{
			MethodName: "ListRules",
			Handler: unaryHandler(RollService_ListRules_FullMethodName, func(s RollServiceServer, ctx context.Context, in *ListRulesRequest) (*ListRulesResponse, error) {
				return s.ListRules(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dicenotation/v1/roll.proto",
}

// RollServiceClient is the client API for RollService.
type RollServiceClient interface {
	Roll(ctx context.Context, in *RollRequest, opts ...grpc.CallOption) (*RollResponse, error)
	Replay(ctx context.Context, in *ReplayRequest, opts ...grpc.CallOption) (*RollResponse, error)
	GetRoll(ctx context.Context, in *GetRollRequest, opts ...grpc.CallOption) (*RollResponse, error)
	ListRolls(ctx context.Context, in *ListRollsRequest, opts ...grpc.CallOption) (*ListRollsResponse, error)
	ListRules(ctx context.Context, in *ListRulesRequest, opts ...grpc.CallOption) (*ListRulesResponse, error)
}

type rollServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRollServiceClient returns a client over cc.
func NewRollServiceClient(cc grpc.ClientConnInterface) RollServiceClient {
	return &rollServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	req, err := ToStruct(in)
	if err != nil {
		return nil, err
	}
	reply := &structpb.Struct{}
	if err := cc.Invoke(ctx, method, req, reply, opts...); err != nil {
		return nil, err
	}
	out := new(Resp)
	if err := FromStruct(reply, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rollServiceClient) Roll(ctx context.Context, in *RollRequest, opts ...grpc.CallOption) (*RollResponse, error) {
	return invoke[RollResponse](ctx, c.cc, RollService_Roll_FullMethodName, in, opts)
}

func (c *rollServiceClient) Replay(ctx context.Context, in *ReplayRequest, opts ...grpc.CallOption) (*RollResponse, error) {
	return invoke[RollResponse](ctx, c.cc, RollService_Replay_FullMethodName, in, opts)
}

func (c *rollServiceClient) GetRoll(ctx context.Context, in *GetRollRequest, opts ...grpc.CallOption) (*RollResponse, error) {
	return invoke[RollResponse](ctx, c.cc, RollService_GetRoll_FullMethodName, in, opts)
}

func (c *rollServiceClient) ListRolls(ctx context.Context, in *ListRollsRequest, opts ...grpc.CallOption) (*ListRollsResponse, error) {
	return invoke[ListRollsResponse](ctx, c.cc, RollService_ListRolls_FullMethodName, in, opts)
}

func (c *rollServiceClient) ListRules(ctx context.Context, in *ListRulesRequest, opts ...grpc.CallOption) (*ListRulesResponse, error) {
	return invoke[ListRulesResponse](ctx, c.cc, RollService_ListRules_FullMethodName, in, opts)
}
