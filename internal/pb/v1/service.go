package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "allotment.v1.AllotmentService"

// Full method names.
const (
	AllotmentService_StartRun_FullMethodName        = "/" + ServiceName + "/StartRun"
	AllotmentService_CancelRun_FullMethodName       = "/" + ServiceName + "/CancelRun"
	AllotmentService_ResetRun_FullMethodName        = "/" + ServiceName + "/ResetRun"
	AllotmentService_GetRunStatus_FullMethodName    = "/" + ServiceName + "/GetRunStatus"
	AllotmentService_SelectRoom_FullMethodName      = "/" + ServiceName + "/SelectRoom"
	AllotmentService_GetMyTurnStatus_FullMethodName = "/" + ServiceName + "/GetMyTurnStatus"
	AllotmentService_ListGroups_FullMethodName      = "/" + ServiceName + "/ListGroups"
	AllotmentService_FinalizeGroups_FullMethodName  = "/" + ServiceName + "/FinalizeGroups"
	AllotmentService_Subscribe_FullMethodName       = "/" + ServiceName + "/Subscribe"
)

// AllotmentServiceServer is the server API of AllotmentService.
type AllotmentServiceServer interface {
	StartRun(ctx context.Context, req *StartRunRequest) (*StartRunResponse, error)
	CancelRun(ctx context.Context, req *CancelRunRequest) (*CancelRunResponse, error)
	ResetRun(ctx context.Context, req *ResetRunRequest) (*ResetRunResponse, error)
	GetRunStatus(ctx context.Context, req *GetRunStatusRequest) (*RunStatusResponse, error)
	SelectRoom(ctx context.Context, req *SelectRoomRequest) (*SelectRoomResponse, error)
	GetMyTurnStatus(ctx context.Context, req *GetMyTurnStatusRequest) (*TurnStatusResponse, error)
	ListGroups(ctx context.Context, req *ListGroupsRequest) (*ListGroupsResponse, error)
	FinalizeGroups(ctx context.Context, req *FinalizeGroupsRequest) (*FinalizeGroupsResponse, error)
	Subscribe(req *SubscribeRequest, stream grpc.ServerStreamingServer[Event]) error
}

// UnimplementedAllotmentServiceServer answers every method with codes.Unimplemented.
// Embed it by value for forward compatibility.
type UnimplementedAllotmentServiceServer struct{}

func (UnimplementedAllotmentServiceServer) StartRun(context.Context, *StartRunRequest) (*StartRunResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartRun not implemented")
}

func (UnimplementedAllotmentServiceServer) CancelRun(context.Context, *CancelRunRequest) (*CancelRunResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelRun not implemented")
}

func (UnimplementedAllotmentServiceServer) ResetRun(context.Context, *ResetRunRequest) (*ResetRunResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResetRun not implemented")
}

func (UnimplementedAllotmentServiceServer) GetRunStatus(
	context.Context,
	*GetRunStatusRequest,
) (*RunStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRunStatus not implemented")
}

func (UnimplementedAllotmentServiceServer) SelectRoom(
	context.Context,
	*SelectRoomRequest,
) (*SelectRoomResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SelectRoom not implemented")
}

func (UnimplementedAllotmentServiceServer) GetMyTurnStatus(
	context.Context,
	*GetMyTurnStatusRequest,
) (*TurnStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMyTurnStatus not implemented")
}

func (UnimplementedAllotmentServiceServer) ListGroups(
	context.Context,
	*ListGroupsRequest,
) (*ListGroupsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListGroups not implemented")
}

func (UnimplementedAllotmentServiceServer) FinalizeGroups(
	context.Context,
	*FinalizeGroupsRequest,
) (*FinalizeGroupsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FinalizeGroups not implemented")
}

func (UnimplementedAllotmentServiceServer) Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[Event]) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}

// RegisterAllotmentServiceServer registers srv on the gRPC server.
func RegisterAllotmentServiceServer(s grpc.ServiceRegistrar, srv AllotmentServiceServer) {
	s.RegisterService(&AllotmentService_ServiceDesc, srv)
}

// unaryHandler adapts a typed unary method to a grpc.MethodDesc handler.
func unaryHandler[Req, Res any](
	fullMethod string,
	call func(srv AllotmentServiceServer, ctx context.Context, req *Req) (*Res, error),
) grpc.MethodHandler {
	return func(
		srv any,
		ctx context.Context,
		dec func(any) error,
		interceptor grpc.UnaryServerInterceptor,
	) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(AllotmentServiceServer), ctx, in) //nolint:forcetypeassert // Registered for this interface only.
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AllotmentServiceServer), ctx, req.(*Req)) //nolint:forcetypeassert // Same as above.
		}

		return interceptor(ctx, in, info, handler)
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	//nolint:forcetypeassert // Registered for this interface only.
	return srv.(AllotmentServiceServer).Subscribe(in, &grpc.GenericServerStream[SubscribeRequest, Event]{
		ServerStream: stream,
	})
}

// AllotmentService_ServiceDesc describes AllotmentService for grpc.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var AllotmentService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AllotmentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StartRun",
			Handler: unaryHandler(AllotmentService_StartRun_FullMethodName,
				AllotmentServiceServer.StartRun),
		},
		{
			MethodName: "CancelRun",
			Handler: unaryHandler(AllotmentService_CancelRun_FullMethodName,
				AllotmentServiceServer.CancelRun),
		},
		{
			MethodName: "ResetRun",
			Handler: unaryHandler(AllotmentService_ResetRun_FullMethodName,
				AllotmentServiceServer.ResetRun),
		},
		{
			MethodName: "GetRunStatus",
			Handler: unaryHandler(AllotmentService_GetRunStatus_FullMethodName,
				AllotmentServiceServer.GetRunStatus),
		},
		{
			MethodName: "SelectRoom",
			Handler: unaryHandler(AllotmentService_SelectRoom_FullMethodName,
				AllotmentServiceServer.SelectRoom),
		},
		{
			MethodName: "GetMyTurnStatus",
			Handler: unaryHandler(AllotmentService_GetMyTurnStatus_FullMethodName,
				AllotmentServiceServer.GetMyTurnStatus),
		},
		{
			MethodName: "ListGroups",
			Handler: unaryHandler(AllotmentService_ListGroups_FullMethodName,
				AllotmentServiceServer.ListGroups),
		},
		{
			MethodName: "FinalizeGroups",
			Handler: unaryHandler(AllotmentService_FinalizeGroups_FullMethodName,
				AllotmentServiceServer.FinalizeGroups),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "allotment/v1/allotment.proto",
}
