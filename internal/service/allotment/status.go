package allotment

import (
	"context"
	"time"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
)

// GetRunStatus reports whether a run is active and how many groups wait.
func (s *Service) GetRunStatus(_ context.Context) domain.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.RunStatus{
		InProgress:  s.run.inProgress,
		Interrupted: s.interrupted != nil,
		QueueLength: len(s.run.queue),
	}
}

// GetMyTurnStatus reports whether studentID belongs to the group holding the turn.
// Membership is read from the queued group record, so it never waits on storage.
func (s *Service) GetMyTurnStatus(_ context.Context, studentID string) domain.TurnStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.run.current
	if !s.run.inProgress || current == nil || !current.group.HasMember(studentID) {
		return domain.TurnStatus{}
	}

	return domain.TurnStatus{IsMyTurn: true, Deadline: current.deadline}
}

// Snapshot returns a copy of the run state.
func (s *Service) Snapshot() *domain.RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() *domain.RunSnapshot {
	snapshot := &domain.RunSnapshot{
		InProgress: s.run.inProgress,
		QueueSize:  s.run.queueSize,
		StartedAt:  s.run.startedAt,
		StartedBy:  s.run.startedBy.Clone(),
		UpdatedAt:  time.Now(),
	}

	if current := s.run.current; current != nil {
		snapshot.CurrentGroupID = current.group.ID
		snapshot.Deadline = current.deadline

		if current.group.Leader != nil {
			snapshot.CurrentLeader = current.group.Leader.RollNumber
		}
	}

	snapshot.QueuedGroupIDs = make([]string, 0, len(s.run.queue))
	for _, group := range s.run.queue {
		snapshot.QueuedGroupIDs = append(snapshot.QueuedGroupIDs, group.ID)
	}

	return snapshot
}
