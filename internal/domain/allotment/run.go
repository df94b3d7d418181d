package allotment

import (
	"slices"
	"time"
)

// RunSnapshot is the externally visible copy of the in-memory run state,
// also written to the checkpoint after every transition.
type RunSnapshot struct {
	// InProgress is true between a successful start and conclusion or cancel.
	InProgress bool
	// CurrentGroupID is the group holding the turn, empty between turns.
	CurrentGroupID string
	// CurrentLeader is the roll number of the current group's leader.
	CurrentLeader string
	// Deadline is the end of the current turn, zero between turns.
	Deadline time.Time
	// QueuedGroupIDs are the groups still waiting, in service order.
	QueuedGroupIDs []string
	// QueueSize is the queue length at start, before any dequeue.
	QueueSize int
	// StartedAt is when the run started.
	StartedAt time.Time
	// StartedBy is the admin who started the run.
	StartedBy *Actor
	// UpdatedAt is when the snapshot was taken.
	UpdatedAt time.Time
}

// Clone returns a deep copy of the snapshot.
func (s *RunSnapshot) Clone() *RunSnapshot {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.QueuedGroupIDs = slices.Clone(s.QueuedGroupIDs)
	cloned.StartedBy = s.StartedBy.Clone()

	return &cloned
}

// RunStatus is the admin view of the run.
type RunStatus struct {
	InProgress bool
	// Interrupted is true while a run lost to a restart awaits a reset.
	Interrupted bool
	QueueLength int
}

// TurnStatus is a student's view of the run.
type TurnStatus struct {
	IsMyTurn bool
	// Deadline is set only when IsMyTurn is true.
	Deadline time.Time
}
