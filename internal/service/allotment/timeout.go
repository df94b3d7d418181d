package allotment

import (
	"context"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
	"github.com/oshokin/room-allotment/internal/metrics"
)

// handleTimeout ends turn seq if it is still unresolved: the group is
// finalized, its members are marked Skipped and the next group is served.
func (s *Service) handleTimeout(ctx context.Context, seq uint64) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.RLock()
	current := s.run.current
	s.mu.RUnlock()

	if s.closed || current == nil || current.seq != seq {
		logger.DebugKV(ctx, "Ignoring stale turn clock", "seq", seq)

		return
	}

	group := current.group

	if err := s.dir.SkipGroup(ctx, group.ID); err != nil {
		// The deadline is hard: the run moves on even if the skip was not stored.
		logger.ErrorKV(ctx, "Failed to mark timed out group as skipped",
			"group_id", group.ID,
			"error", err,
		)
	}

	s.endTurn(seq, metrics.OutcomeTimedOut)

	s.notifier.Publish(ctx, group.Leader.RollNumber, domain.NewEvent(domain.EventTurnEnded, turnEndedMessage))

	logger.InfoKV(ctx, "Turn timed out, group skipped",
		"group_id", group.ID,
		"leader", group.Leader.Name,
	)

	s.advance(ctx)
}
