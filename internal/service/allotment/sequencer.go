package allotment

import (
	"context"
	"time"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
	"github.com/oshokin/room-allotment/internal/metrics"
)

const (
	yourTurnMessage  = "It is your turn to select a room."
	finishedMessage  = "The allotment process has concluded."
	cancelledMessage = "The allotment process has been cancelled by the admin."
	resetMessage     = "The allotment process has been reset by the admin."
	turnEndedMessage = "Your time is up."
)

// advance hands the turn to the next queued group or concludes the run.
// The caller must hold turnMu and must have cleared the previous turn.
func (s *Service) advance(ctx context.Context) {
	s.mu.Lock()

	if !s.run.inProgress {
		s.mu.Unlock()

		return
	}

	if stale := s.run.current; stale != nil {
		// Only one clock may be armed. Reaching this is a bug in the caller.
		stale.clock.disarm()
		s.run.current = nil

		logger.ErrorKV(ctx, "Turn was still active when advancing, discarding it",
			"group_id", stale.group.ID,
			"seq", stale.seq,
		)
	}

	if len(s.run.queue) == 0 {
		startedBy := s.run.startedBy
		s.run = runState{}
		s.mu.Unlock()

		s.metrics.RunResult(metrics.RunFinished)
		s.metrics.SetQueueLength(0)
		s.notifier.Broadcast(ctx, domain.NewEvent(domain.EventAllotmentFinished, finishedMessage))
		s.saveCheckpoint(ctx)

		logger.InfoKV(ctx, "Allotment run concluded", "started_by", startedBy.String())

		return
	}

	group := s.run.queue[0]
	s.run.queue[0] = nil
	s.run.queue = s.run.queue[1:]

	s.turnSeq++
	seq := s.turnSeq
	deadline := time.Now().Add(s.turnWindow)

	s.run.current = &turn{
		seq:      seq,
		group:    group,
		deadline: deadline,
		clock: armClock(s.turnWindow, func() {
			s.handleTimeout(s.bgCtx, seq)
		}),
	}

	remaining := len(s.run.queue)
	s.mu.Unlock()

	s.metrics.SetQueueLength(remaining)

	event := domain.NewEvent(domain.EventYourTurn, yourTurnMessage)
	event.Group = group.Clone()
	event.Deadline = deadline
	s.notifier.Publish(ctx, group.Leader.RollNumber, event)

	s.saveCheckpoint(ctx)

	logger.InfoKV(ctx, "Turn started",
		"group_id", group.ID,
		"leader", group.Leader.Name,
		"rank", *group.Leader.Rank,
		"deadline", deadline,
		"queue_remaining", remaining,
	)
}

// endTurn clears the current turn if it is still seq and returns it.
// The caller must hold turnMu.
func (s *Service) endTurn(seq uint64, outcome string) *turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.run.current
	if current == nil || current.seq != seq {
		return nil
	}

	current.clock.disarm()
	s.run.current = nil
	s.metrics.TurnOutcome(outcome)

	return current
}
