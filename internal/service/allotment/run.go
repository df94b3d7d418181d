package allotment

import (
	"context"
	"fmt"
	"time"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
	"github.com/oshokin/room-allotment/internal/metrics"
)

// StartRun builds the priority queue and serves the first group.
// It returns the queue length before any group was dequeued.
func (s *Service) StartRun(ctx context.Context, actor *domain.Actor) (int, error) {
	ctx = logger.WithKV(ctx, "actor", actor.String())

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()

	switch {
	case s.run.inProgress:
		s.mu.Unlock()
		s.metrics.RunResult(metrics.RunRejected)

		return 0, domain.ErrAlreadyInProgress
	case s.interrupted != nil:
		s.mu.Unlock()
		s.metrics.RunResult(metrics.RunRejected)

		return 0, domain.ErrRecoveryRequired
	}

	s.run.inProgress = true
	s.mu.Unlock()

	queue, err := s.loadQueue(ctx)
	if err == nil && len(queue) == 0 {
		err = domain.ErrNoEligibleGroups
	}

	if err != nil {
		s.mu.Lock()
		s.run = runState{}
		s.mu.Unlock()

		s.metrics.RunResult(metrics.RunRejected)
		logger.WarnKV(ctx, "Allotment run was not started", "error", err)

		return 0, err
	}

	s.mu.Lock()
	s.run.queue = queue
	s.run.queueSize = len(queue)
	s.run.startedAt = time.Now()
	s.run.startedBy = actor.Clone()
	s.mu.Unlock()

	s.metrics.RunResult(metrics.RunStarted)
	logger.InfoKV(ctx, "Allotment run started", "queue_size", len(queue))

	s.advance(ctx)

	return len(queue), nil
}

// CancelRun stops the active run and reverts every committed allotment.
// It returns the number of groups whose room was released. When the revert
// fails the run keeps going untouched.
func (s *Service) CancelRun(ctx context.Context, actor *domain.Actor) (int, error) {
	ctx = logger.WithKV(ctx, "actor", actor.String())

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.RLock()
	inProgress := s.run.inProgress
	s.mu.RUnlock()

	if !inProgress {
		return 0, domain.ErrNotInProgress
	}

	reverted, err := s.dir.RevertAllotments(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to revert allotments, run continues", "error", err)

		return 0, fmt.Errorf("revert allotments: %w", err)
	}

	s.discardRun(metrics.OutcomeCancelled)

	s.metrics.RunResult(metrics.RunCancelled)
	s.notifier.Broadcast(ctx, domain.NewEvent(domain.EventAllotmentCancelled, cancelledMessage))
	s.saveCheckpoint(ctx)

	logger.InfoKV(ctx, "Allotment run cancelled", "reverted_groups", reverted)

	return reverted, nil
}

// ResetRun discards the in-memory run and any interrupted checkpoint without
// touching committed allotments. It reports whether anything was discarded.
func (s *Service) ResetRun(ctx context.Context, actor *domain.Actor) (bool, error) {
	ctx = logger.WithKV(ctx, "actor", actor.String())

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.RLock()
	live := s.run.inProgress
	interrupted := s.interrupted != nil
	s.mu.RUnlock()

	s.discardRun(metrics.OutcomeReset)

	if s.checkpoint != nil {
		if err := s.checkpoint.Clear(ctx); err != nil {
			return false, fmt.Errorf("clear checkpoint: %w", err)
		}
	}

	s.mu.Lock()
	s.interrupted = nil
	s.mu.Unlock()

	if live {
		s.notifier.Broadcast(ctx, domain.NewEvent(domain.EventAllotmentCancelled, resetMessage))
	}

	if live || interrupted {
		s.metrics.RunResult(metrics.RunReset)
		logger.InfoKV(ctx, "Allotment run reset", "live", live, "interrupted", interrupted)
	}

	return live || interrupted, nil
}

// ListGroups returns every group with its leader and room joined.
func (s *Service) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	groups, err := s.dir.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	return groups, nil
}

// FinalizeGroups locks every group that is not finalized yet.
// It is refused while a run is in progress.
func (s *Service) FinalizeGroups(ctx context.Context, actor *domain.Actor) (int, error) {
	ctx = logger.WithKV(ctx, "actor", actor.String())

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.RLock()
	inProgress := s.run.inProgress
	s.mu.RUnlock()

	if inProgress {
		return 0, domain.ErrAlreadyInProgress
	}

	finalized, err := s.dir.FinalizeGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("finalize groups: %w", err)
	}

	logger.InfoKV(ctx, "Groups finalized", "count", finalized)

	return finalized, nil
}

// discardRun disarms the clock and clears the run. The caller must hold turnMu.
func (s *Service) discardRun(outcome string) {
	s.mu.Lock()
	current := s.run.current
	s.run = runState{}
	s.mu.Unlock()

	if current != nil {
		current.clock.disarm()
		s.metrics.TurnOutcome(outcome)
	}

	s.metrics.SetQueueLength(0)
}
