package pb

import (
	"context"

	"google.golang.org/grpc"
)

// AllotmentServiceClient is the client API of AllotmentService.
type AllotmentServiceClient interface {
	StartRun(ctx context.Context, in *StartRunRequest, opts ...grpc.CallOption) (*StartRunResponse, error)
	CancelRun(ctx context.Context, in *CancelRunRequest, opts ...grpc.CallOption) (*CancelRunResponse, error)
	ResetRun(ctx context.Context, in *ResetRunRequest, opts ...grpc.CallOption) (*ResetRunResponse, error)
	GetRunStatus(ctx context.Context, in *GetRunStatusRequest, opts ...grpc.CallOption) (*RunStatusResponse, error)
	SelectRoom(ctx context.Context, in *SelectRoomRequest, opts ...grpc.CallOption) (*SelectRoomResponse, error)
	GetMyTurnStatus(
		ctx context.Context,
		in *GetMyTurnStatusRequest,
		opts ...grpc.CallOption,
	) (*TurnStatusResponse, error)
	ListGroups(ctx context.Context, in *ListGroupsRequest, opts ...grpc.CallOption) (*ListGroupsResponse, error)
	FinalizeGroups(
		ctx context.Context,
		in *FinalizeGroupsRequest,
		opts ...grpc.CallOption,
	) (*FinalizeGroupsResponse, error)
	Subscribe(
		ctx context.Context,
		in *SubscribeRequest,
		opts ...grpc.CallOption,
	) (grpc.ServerStreamingClient[Event], error)
}

type allotmentServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAllotmentServiceClient returns a client that sends every call with the JSON codec.
func NewAllotmentServiceClient(cc grpc.ClientConnInterface) AllotmentServiceClient {
	return &allotmentServiceClient{cc: cc}
}

// invoke performs a unary call with the JSON content-subtype.
func invoke[Res any](
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	in any,
	opts []grpc.CallOption,
) (*Res, error) {
	out := new(Res)

	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *allotmentServiceClient) StartRun(
	ctx context.Context,
	in *StartRunRequest,
	opts ...grpc.CallOption,
) (*StartRunResponse, error) {
	return invoke[StartRunResponse](ctx, c.cc, AllotmentService_StartRun_FullMethodName, in, opts)
}

func (c *allotmentServiceClient) CancelRun(
	ctx context.Context,
	in *CancelRunRequest,
	opts ...grpc.CallOption,
) (*CancelRunResponse, error) {
	return invoke[CancelRunResponse](ctx, c.cc, AllotmentService_CancelRun_FullMethodName, in, opts)
}

func (c *allotmentServiceClient) ResetRun(
	ctx context.Context,
	in *ResetRunRequest,
	opts ...grpc.CallOption,
) (*ResetRunResponse, error) {
	return invoke[ResetRunResponse](ctx, c.cc, AllotmentService_ResetRun_FullMethodName, in, opts)
}

func (c *allotmentServiceClient) GetRunStatus(
	ctx context.Context,
	in *GetRunStatusRequest,
	opts ...grpc.CallOption,
) (*RunStatusResponse, error) {
	return invoke[RunStatusResponse](ctx, c.cc, AllotmentService_GetRunStatus_FullMethodName, in, opts)
}

func (c *allotmentServiceClient) SelectRoom(
	ctx context.Context,
	in *SelectRoomRequest,
	opts ...grpc.CallOption,
) (*SelectRoomResponse, error) {
	return invoke[SelectRoomResponse](ctx, c.cc, AllotmentService_SelectRoom_FullMethodName, in, opts)
}

func (c *allotmentServiceClient) GetMyTurnStatus(
	ctx context.Context,
	in *GetMyTurnStatusRequest,
	opts ...grpc.CallOption,
) (*TurnStatusResponse, error) {
	return invoke[TurnStatusResponse](ctx, c.cc, AllotmentService_GetMyTurnStatus_FullMethodName, in, opts)
}

func (c *allotmentServiceClient) ListGroups(
	ctx context.Context,
	in *ListGroupsRequest,
	opts ...grpc.CallOption,
) (*ListGroupsResponse, error) {
	return invoke[ListGroupsResponse](ctx, c.cc, AllotmentService_ListGroups_FullMethodName, in, opts)
}

func (c *allotmentServiceClient) FinalizeGroups(
	ctx context.Context,
	in *FinalizeGroupsRequest,
	opts ...grpc.CallOption,
) (*FinalizeGroupsResponse, error) {
	return invoke[FinalizeGroupsResponse](ctx, c.cc, AllotmentService_FinalizeGroups_FullMethodName, in, opts)
}

func (c *allotmentServiceClient) Subscribe(
	ctx context.Context,
	in *SubscribeRequest,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[Event], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)

	stream, err := c.cc.NewStream(ctx, &AllotmentService_ServiceDesc.Streams[0], AllotmentService_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[SubscribeRequest, Event]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
