package allotment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
	"github.com/oshokin/room-allotment/internal/metrics"
)

// Selection rejection reasons reported to metrics.
const (
	rejectNotALeader      = "not_a_leader"
	rejectNotYourTurn     = "not_your_turn"
	rejectDeadlinePassed  = "deadline_passed"
	rejectRoomUnavailable = "room_unavailable"
	rejectCommitFailed    = "commit_failed"
)

// SelectRoom commits roomID for the group led by studentID if that group
// holds the current turn, then hands the turn to the next group.
func (s *Service) SelectRoom(ctx context.Context, studentID, roomID string) (*domain.Room, error) {
	ctx = logger.WithFields(ctx, "student_id", studentID, "room_id", roomID)

	group, err := s.leaderGroup(ctx, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotAGroupLeader) {
			s.metrics.SelectionRejected(rejectNotALeader)
		}

		return nil, err
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.RLock()
	current := s.run.current
	s.mu.RUnlock()

	if current == nil || current.group.ID != group.ID {
		s.metrics.SelectionRejected(rejectNotYourTurn)

		return nil, domain.ErrNotYourTurn
	}

	if !time.Now().Before(current.deadline) {
		s.metrics.SelectionRejected(rejectDeadlinePassed)

		return nil, fmt.Errorf("%w: the turn deadline has passed", domain.ErrNotYourTurn)
	}

	room, err := s.dir.GetRoom(ctx, roomID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.SelectionRejected(rejectRoomUnavailable)

		return nil, domain.ErrRoomUnavailableOrMismatched
	case err != nil:
		return nil, fmt.Errorf("get room: %w", err)
	}

	if !room.Fits(current.group) {
		s.metrics.SelectionRejected(rejectRoomUnavailable)

		return nil, domain.ErrRoomUnavailableOrMismatched
	}

	committed, err := s.dir.AllotRoom(ctx, current.group.ID, room.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomUnavailableOrMismatched) {
			s.metrics.SelectionRejected(rejectRoomUnavailable)
		} else {
			s.metrics.SelectionRejected(rejectCommitFailed)
		}

		logger.WarnKV(ctx, "Room selection was not committed", "group_id", current.group.ID, "error", err)

		return nil, err
	}

	s.endTurn(current.seq, metrics.OutcomeSelected)

	event := domain.NewEvent(domain.EventSelectionSuccessful,
		fmt.Sprintf("Room %s allotted successfully!", committed.Number))
	event.Group = current.group.Clone()
	event.Group.AllottedRoom = committed.ID
	event.Group.RoomNumber = committed.Number
	s.notifier.Publish(ctx, current.group.Leader.RollNumber, event)

	logger.InfoKV(ctx, "Room allotted",
		"group_id", current.group.ID,
		"leader", current.group.Leader.Name,
		"room", committed.Number,
	)

	s.advance(ctx)

	return committed, nil
}

// leaderGroup returns the group led by studentID.
func (s *Service) leaderGroup(ctx context.Context, studentID string) (*domain.Group, error) {
	student, err := s.dir.GetStudent(ctx, studentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrNotAGroupLeader
	case err != nil:
		return nil, fmt.Errorf("get student: %w", err)
	}

	if student.GroupID == "" {
		return nil, domain.ErrNotAGroupLeader
	}

	group, err := s.dir.GetGroup(ctx, student.GroupID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrNotAGroupLeader
	case err != nil:
		return nil, fmt.Errorf("get group: %w", err)
	}

	if !group.IsLeader(student.ID) {
		return nil, domain.ErrNotAGroupLeader
	}

	return group, nil
}
