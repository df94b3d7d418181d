package allotment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
	"github.com/oshokin/room-allotment/internal/metrics"
	"github.com/oshokin/room-allotment/internal/repository/directory"
	"github.com/oshokin/room-allotment/internal/repository/state"
)

// DefaultTurnWindow is the time a group has to pick a room.
const DefaultTurnWindow = 5 * time.Minute

// Store is the part of the directory the service reads and writes.
type Store interface {
	directory.Directory

	ListGroups(ctx context.Context) ([]*domain.Group, error)
	FinalizeGroups(ctx context.Context) (int, error)
}

// Notifier delivers events to subscribers.
type Notifier interface {
	Publish(ctx context.Context, recipient string, event domain.Event)
	Broadcast(ctx context.Context, event domain.Event)
}

// Options wires the service dependencies. Checkpoint and Metrics are optional.
type Options struct {
	Directory  Store
	Notifier   Notifier
	Checkpoint state.Repository
	Metrics    *metrics.Metrics
	TurnWindow time.Duration
}

// turn is the group currently allowed to select a room.
type turn struct {
	// seq identifies the turn; a clock firing for another seq is stale.
	seq uint64
	// group is the group holding the turn, with Leader joined.
	group *domain.Group
	// deadline is when the turn ends without a selection.
	deadline time.Time
	// clock fires the timeout handler at deadline.
	clock *turnClock
}

// runState is the in-memory state of the single global run.
type runState struct {
	inProgress bool
	queue      []*domain.Group
	current    *turn
	queueSize  int
	startedAt  time.Time
	startedBy  *domain.Actor
}

// Service is the allotment orchestrator.
type Service struct {
	dir        Store
	notifier   Notifier
	checkpoint state.Repository
	metrics    *metrics.Metrics
	turnWindow time.Duration

	// bgCtx carries the logger into clock callbacks; it is never cancelled.
	bgCtx context.Context

	// turnMu serializes start, selection commit, timeout, cancel and reset.
	turnMu sync.Mutex
	// turnSeq numbers turns across runs; guarded by turnMu.
	turnSeq uint64
	// closed stops clock callbacks after Close; guarded by turnMu.
	closed bool

	// mu guards run and interrupted for readers.
	mu  sync.RWMutex
	run runState
	// interrupted is the checkpoint of a run lost to a restart, until reset.
	interrupted *domain.RunSnapshot
}

var errDirectoryRequired = errors.New("directory is required")

// New creates the orchestrator and checks the checkpoint for an interrupted run.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Directory == nil {
		return nil, errDirectoryRequired
	}

	if opts.TurnWindow <= 0 {
		opts.TurnWindow = DefaultTurnWindow
	}

	s := &Service{
		dir:        opts.Directory,
		notifier:   opts.Notifier,
		checkpoint: opts.Checkpoint,
		metrics:    opts.Metrics,
		turnWindow: opts.TurnWindow,
		bgCtx:      logger.ToContext(context.Background(), logger.FromContext(ctx)),
	}

	if s.notifier == nil {
		s.notifier = discardNotifier{}
	}

	if s.checkpoint == nil {
		return s, nil
	}

	snapshot, err := s.checkpoint.Load(ctx)
	switch {
	case err == nil:
		if snapshot != nil && snapshot.InProgress {
			s.interrupted = snapshot

			logger.WarnKV(ctx, "Previous allotment run was interrupted, reset required before starting again",
				"current_group_id", snapshot.CurrentGroupID,
				"queued", len(snapshot.QueuedGroupIDs),
				"started_at", snapshot.StartedAt,
			)
		}
	case errors.Is(err, state.ErrNotFound):
		// No checkpoint, nothing to recover.
	default:
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	return s, nil
}

// Close disarms the turn clock. The checkpoint is left in place so a restart
// sees the run as interrupted.
func (s *Service) Close(ctx context.Context) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.closed = true

	s.mu.Lock()
	current := s.run.current
	s.mu.Unlock()

	if current != nil && current.clock.disarm() {
		logger.InfoKV(ctx, "Turn clock disarmed on shutdown", "group_id", current.group.ID)
	}
}

// TurnWindow returns the configured turn length.
func (s *Service) TurnWindow() time.Duration {
	return s.turnWindow
}

// discardNotifier drops every event.
type discardNotifier struct{}

func (discardNotifier) Publish(context.Context, string, domain.Event) {}

func (discardNotifier) Broadcast(context.Context, domain.Event) {}
