package allotment

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
	pb "github.com/oshokin/room-allotment/internal/pb/v1"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	StartRun(ctx context.Context, actor *domain.Actor) (int, error)
	CancelRun(ctx context.Context, actor *domain.Actor) (int, error)
	ResetRun(ctx context.Context, actor *domain.Actor) (bool, error)
	GetRunStatus(ctx context.Context) domain.RunStatus
	SelectRoom(ctx context.Context, studentID, roomID string) (*domain.Room, error)
	GetMyTurnStatus(ctx context.Context, studentID string) domain.TurnStatus
	ListGroups(ctx context.Context) ([]*domain.Group, error)
	FinalizeGroups(ctx context.Context, actor *domain.Actor) (int, error)
}

// Subscriber registers event listeners by recipient key.
type Subscriber interface {
	Subscribe(recipient string) (<-chan domain.Event, func())
}

// Server implements the AllotmentService gRPC API.
type Server struct {
	pb.UnimplementedAllotmentServiceServer

	// service provides the business logic for allotment operations.
	service Service
	// events feeds Subscribe streams.
	events Subscriber
}

// NewServer wires the provided service and event source into a gRPC handler.
func NewServer(service Service, events Subscriber) *Server {
	return &Server{
		service: service,
		events:  events,
	}
}

// StartRun starts an allotment run.
func (s *Server) StartRun(ctx context.Context, req *pb.StartRunRequest) (*pb.StartRunResponse, error) {
	if req.GetActor() == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	size, err := s.service.StartRun(ctx, toDomainActor(req.GetActor()))
	if err != nil {
		return nil, ToStatus(ctx, err)
	}

	return &pb.StartRunResponse{QueueSize: size}, nil
}

// CancelRun cancels the active run and reverts its allotments.
func (s *Server) CancelRun(ctx context.Context, req *pb.CancelRunRequest) (*pb.CancelRunResponse, error) {
	if req.GetActor() == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	reverted, err := s.service.CancelRun(ctx, toDomainActor(req.GetActor()))
	if err != nil {
		return nil, ToStatus(ctx, err)
	}

	return &pb.CancelRunResponse{RevertedGroups: reverted}, nil
}

// ResetRun discards the run state and any interrupted checkpoint.
func (s *Server) ResetRun(ctx context.Context, req *pb.ResetRunRequest) (*pb.ResetRunResponse, error) {
	if req.GetActor() == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	discarded, err := s.service.ResetRun(ctx, toDomainActor(req.GetActor()))
	if err != nil {
		return nil, ToStatus(ctx, err)
	}

	return &pb.ResetRunResponse{Discarded: discarded}, nil
}

// GetRunStatus returns the admin view of the run.
func (s *Server) GetRunStatus(ctx context.Context, _ *pb.GetRunStatusRequest) (*pb.RunStatusResponse, error) {
	runStatus := s.service.GetRunStatus(ctx)

	return &pb.RunStatusResponse{
		InProgress:  runStatus.InProgress,
		Interrupted: runStatus.Interrupted,
		QueueLength: runStatus.QueueLength,
	}, nil
}

// SelectRoom commits a room for the caller's group.
func (s *Server) SelectRoom(ctx context.Context, req *pb.SelectRoomRequest) (*pb.SelectRoomResponse, error) {
	if req.GetStudentID() == "" || req.GetRoomID() == "" {
		return nil, status.Error(codes.InvalidArgument, "student_id and room_id are required")
	}

	room, err := s.service.SelectRoom(ctx, req.GetStudentID(), req.GetRoomID())
	if err != nil {
		return nil, ToStatus(ctx, err)
	}

	return &pb.SelectRoomResponse{Room: toProtoRoom(room)}, nil
}

// GetMyTurnStatus reports whether the student's group holds the turn.
func (s *Server) GetMyTurnStatus(
	ctx context.Context,
	req *pb.GetMyTurnStatusRequest,
) (*pb.TurnStatusResponse, error) {
	if req.GetStudentID() == "" {
		return nil, status.Error(codes.InvalidArgument, "student_id is required")
	}

	turnStatus := s.service.GetMyTurnStatus(ctx, req.GetStudentID())

	return &pb.TurnStatusResponse{
		IsMyTurn: turnStatus.IsMyTurn,
		Deadline: optionalTime(turnStatus.Deadline),
	}, nil
}

// ListGroups returns every group.
func (s *Server) ListGroups(ctx context.Context, _ *pb.ListGroupsRequest) (*pb.ListGroupsResponse, error) {
	groups, err := s.service.ListGroups(ctx)
	if err != nil {
		return nil, ToStatus(ctx, err)
	}

	response := &pb.ListGroupsResponse{Groups: make([]*pb.Group, 0, len(groups))}
	for _, group := range groups {
		response.Groups = append(response.Groups, toProtoGroup(group))
	}

	return response, nil
}

// FinalizeGroups locks every group that is not finalized yet.
func (s *Server) FinalizeGroups(
	ctx context.Context,
	req *pb.FinalizeGroupsRequest,
) (*pb.FinalizeGroupsResponse, error) {
	if req.GetActor() == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	finalized, err := s.service.FinalizeGroups(ctx, toDomainActor(req.GetActor()))
	if err != nil {
		return nil, ToStatus(ctx, err)
	}

	return &pb.FinalizeGroupsResponse{Finalized: finalized}, nil
}

// Subscribe streams the events of a recipient until the client goes away
// or the hub is closed.
func (s *Server) Subscribe(req *pb.SubscribeRequest, stream grpc.ServerStreamingServer[pb.Event]) error {
	if req.GetRecipient() == "" {
		return status.Error(codes.InvalidArgument, "recipient is required")
	}

	if s.events == nil {
		return status.Error(codes.Unavailable, "notifications are not enabled")
	}

	ctx := logger.WithKV(stream.Context(), "recipient", req.GetRecipient())

	events, unsubscribe := s.events.Subscribe(req.GetRecipient())
	defer unsubscribe()

	logger.DebugKV(ctx, "Subscriber connected")

	for {
		select {
		case <-ctx.Done():
			logger.DebugKV(ctx, "Subscriber disconnected")

			return nil
		case event, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, "server is shutting down")
			}

			if err := stream.Send(toProtoEvent(event)); err != nil {
				return err
			}
		}
	}
}
