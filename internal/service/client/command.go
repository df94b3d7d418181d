package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/room-allotment/internal/config"
	"github.com/oshokin/room-allotment/internal/logger"
	pb "github.com/oshokin/room-allotment/internal/pb/v1"
	"github.com/oshokin/room-allotment/internal/service/common"
)

// Options configures how the admin client reaches the server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string
}

// defaultPollInterval is the delay between turn status checks while waiting.
const defaultPollInterval = 1 * time.Second

var errStudentRequired = errors.New("student id must be provided")

// Session is a connected admin client acting as the detected system actor.
type Session struct {
	client *common.Client
	actor  *pb.SystemActor

	// pollInterval is the delay between turn status checks in WaitForTurn.
	pollInterval time.Duration
}

// Connect loads settings, detects the actor and dials the server.
func Connect(ctx context.Context, opts *Options) (*Session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err = logger.SetLevelFromString(cfg.LogLevel); err != nil {
		return nil, err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := common.DetectActor()
	if err != nil {
		return nil, err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Connected to allotment server",
		"server_address", serverAddress,
		"actor", formatActor(actor),
	)

	return &Session{
		client:       client,
		actor:        actor,
		pollInterval: defaultPollInterval,
	}, nil
}

// Close releases the connection.
func (s *Session) Close() error {
	return s.client.Close()
}

// Start starts an allotment run.
func (s *Session) Start(ctx context.Context) error {
	response, err := s.client.StartRun(ctx, s.actor)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Allotment started by %s, %d groups queued", formatActor(s.actor), response.QueueSize)

	return nil
}

// Cancel cancels the active run and reverts its allotments.
func (s *Session) Cancel(ctx context.Context) error {
	response, err := s.client.CancelRun(ctx, s.actor)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Allotment cancelled by %s, %d groups reverted", formatActor(s.actor), response.RevertedGroups)

	return nil
}

// Reset discards the server run state, keeping committed allotments.
func (s *Session) Reset(ctx context.Context) error {
	response, err := s.client.ResetRun(ctx, s.actor)
	if err != nil {
		return err
	}

	if !response.Discarded {
		logger.Info(ctx, "Nothing to reset")

		return nil
	}

	logger.Infof(ctx, "Allotment state reset by %s", formatActor(s.actor))

	return nil
}

// Status logs the admin view of the run.
func (s *Session) Status(ctx context.Context) error {
	response, err := s.client.GetRunStatus(ctx)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Allotment: %s", formatRunStatus(response))

	return nil
}

// Turn logs whether the student's group holds the turn.
func (s *Session) Turn(ctx context.Context, studentID string) error {
	if studentID == "" {
		return errStudentRequired
	}

	response, err := s.client.GetMyTurnStatus(ctx, studentID)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Student %s: %s", studentID, formatTurnStatus(response))

	return nil
}

// WaitForTurn polls until the student's group holds the turn or ctx is done.
func (s *Session) WaitForTurn(ctx context.Context, studentID string) error {
	if studentID == "" {
		return errStudentRequired
	}

	// attempt checks once, returns whether the turn has come.
	attempt := func() bool {
		response, err := s.client.GetMyTurnStatus(ctx, studentID)
		if err != nil {
			// Keep polling through transient failures.
			logger.ErrorKV(ctx, "GetMyTurnStatus failed", "error", err)

			return false
		}

		if !response.IsMyTurn {
			return false
		}

		logger.Infof(ctx, "Student %s: %s", studentID, formatTurnStatus(response))

		return true
	}

	if attempt() {
		return nil
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if attempt() {
				return nil
			}
		}
	}
}

// Select picks a room on behalf of a group leader.
func (s *Session) Select(ctx context.Context, studentID, roomID string) error {
	if studentID == "" {
		return errStudentRequired
	}

	response, err := s.client.SelectRoom(ctx, studentID, roomID)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Room %s allotted successfully!", response.Room.Number)

	return nil
}

// Groups logs every group with its leader and room.
func (s *Session) Groups(ctx context.Context) error {
	response, err := s.client.ListGroups(ctx)
	if err != nil {
		return err
	}

	if len(response.Groups) == 0 {
		logger.Info(ctx, "No groups found")

		return nil
	}

	for _, group := range response.Groups {
		logger.InfoKV(ctx, "Group",
			"group_id", group.ID,
			"leader", group.LeaderName,
			"rank", formatRank(group.LeaderRank),
			"size", group.Size,
			"finalized", group.Finalized,
			"room", group.RoomNumber,
		)
	}

	return nil
}

// Finalize locks every group that is not finalized yet.
func (s *Session) Finalize(ctx context.Context) error {
	response, err := s.client.FinalizeGroups(ctx, s.actor)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "%d groups finalized", response.Finalized)

	return nil
}

// Watch logs the events of recipient until ctx is done or the server stops.
func (s *Session) Watch(ctx context.Context, recipient string) error {
	logger.InfoKV(ctx, "Watching allotment events", "recipient", recipient)

	return s.client.Watch(ctx, recipient, func(event *pb.Event) error {
		logger.Info(ctx, formatEvent(event))

		return nil
	})
}

// formatActor renders an actor as username@hostname.
func formatActor(actor *pb.SystemActor) string {
	if actor == nil {
		return "<unknown>"
	}

	return fmt.Sprintf("%s@%s", actor.GetUsername(), actor.GetHostname())
}

// formatRunStatus converts a run status to a readable message.
func formatRunStatus(status *pb.RunStatusResponse) string {
	switch {
	case status == nil:
		return "<nil status>"
	case status.InProgress:
		return fmt.Sprintf("in progress, %d groups waiting", status.QueueLength)
	case status.Interrupted:
		return "interrupted by a server restart, reset required"
	default:
		return "not in progress"
	}
}

// formatTurnStatus converts a turn status to a readable message.
func formatTurnStatus(status *pb.TurnStatusResponse) string {
	if status == nil || !status.IsMyTurn {
		return "not your turn"
	}

	if status.Deadline == nil {
		return "your turn"
	}

	return fmt.Sprintf("your turn until %s", status.Deadline.Format(time.RFC3339))
}

func formatRank(rank *int) string {
	if rank == nil {
		return "-"
	}

	return fmt.Sprint(*rank)
}

// formatEvent converts an event to a readable log line.
func formatEvent(event *pb.Event) string {
	if event == nil {
		return "<nil event>"
	}

	line := fmt.Sprintf("[%s] %s", event.Type, event.Message)

	if event.Recipient != "" {
		line += " (to " + event.Recipient + ")"
	}

	if event.Group != nil {
		line += " group " + event.Group.ID
	}

	if event.Deadline != nil {
		line += " deadline " + event.Deadline.Format(time.RFC3339)
	}

	return line
}
