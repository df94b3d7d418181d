//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	api "github.com/oshokin/room-allotment/internal/api/grpc/allotment"
	"github.com/oshokin/room-allotment/internal/config"
	pb "github.com/oshokin/room-allotment/internal/pb/v1"
)

// Client wraps the gRPC AllotmentService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the allotment server.
	conn *grpc.ClientConn
	// api is the AllotmentService client interface.
	api pb.AllotmentServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for unary calls. Streams are not limited.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
)

// Dial establishes a gRPC connection to the allotment server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial allotment server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewAllotmentServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// StartRun starts an allotment run and returns the queue length.
func (c *Client) StartRun(ctx context.Context, actor *pb.SystemActor) (*pb.StartRunResponse, error) {
	if actor == nil {
		return nil, errActorRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.StartRun(callCtx, &pb.StartRunRequest{Actor: actor})
	if err != nil {
		return nil, fmt.Errorf("start run: %w", api.FromStatus(err))
	}

	return response, nil
}

// CancelRun cancels the active run and returns the number of reverted groups.
func (c *Client) CancelRun(ctx context.Context, actor *pb.SystemActor) (*pb.CancelRunResponse, error) {
	if actor == nil {
		return nil, errActorRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.CancelRun(callCtx, &pb.CancelRunRequest{Actor: actor})
	if err != nil {
		return nil, fmt.Errorf("cancel run: %w", api.FromStatus(err))
	}

	return response, nil
}

// ResetRun discards the run state on the server.
func (c *Client) ResetRun(ctx context.Context, actor *pb.SystemActor) (*pb.ResetRunResponse, error) {
	if actor == nil {
		return nil, errActorRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.ResetRun(callCtx, &pb.ResetRunRequest{Actor: actor})
	if err != nil {
		return nil, fmt.Errorf("reset run: %w", api.FromStatus(err))
	}

	return response, nil
}

// GetRunStatus retrieves the admin view of the run.
func (c *Client) GetRunStatus(ctx context.Context) (*pb.RunStatusResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetRunStatus(callCtx, new(pb.GetRunStatusRequest))
	if err != nil {
		return nil, fmt.Errorf("get run status: %w", api.FromStatus(err))
	}

	return response, nil
}

// SelectRoom selects a room on behalf of a group leader.
func (c *Client) SelectRoom(ctx context.Context, studentID, roomID string) (*pb.SelectRoomResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.SelectRoom(callCtx, &pb.SelectRoomRequest{StudentID: studentID, RoomID: roomID})
	if err != nil {
		return nil, fmt.Errorf("select room: %w", api.FromStatus(err))
	}

	return response, nil
}

// GetMyTurnStatus reports whether the student's group holds the turn.
func (c *Client) GetMyTurnStatus(ctx context.Context, studentID string) (*pb.TurnStatusResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetMyTurnStatus(callCtx, &pb.GetMyTurnStatusRequest{StudentID: studentID})
	if err != nil {
		return nil, fmt.Errorf("get turn status: %w", api.FromStatus(err))
	}

	return response, nil
}

// ListGroups lists every group.
func (c *Client) ListGroups(ctx context.Context) (*pb.ListGroupsResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.ListGroups(callCtx, new(pb.ListGroupsRequest))
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", api.FromStatus(err))
	}

	return response, nil
}

// FinalizeGroups locks every group that is not finalized yet.
func (c *Client) FinalizeGroups(ctx context.Context, actor *pb.SystemActor) (*pb.FinalizeGroupsResponse, error) {
	if actor == nil {
		return nil, errActorRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.FinalizeGroups(callCtx, &pb.FinalizeGroupsRequest{Actor: actor})
	if err != nil {
		return nil, fmt.Errorf("finalize groups: %w", api.FromStatus(err))
	}

	return response, nil
}

// Watch streams the events of recipient to handle until ctx is done, the
// server ends the stream or handle returns an error.
func (c *Client) Watch(ctx context.Context, recipient string, handle func(*pb.Event) error) error {
	stream, err := c.api.Subscribe(ctx, &pb.SubscribeRequest{Recipient: recipient})
	if err != nil {
		return fmt.Errorf("subscribe: %w", api.FromStatus(err))
	}

	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("receive event: %w", api.FromStatus(err))
		}

		if err := handle(event); err != nil {
			return err
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
