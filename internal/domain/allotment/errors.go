package allotment

import "errors"

// State-conflict errors: the caller must re-check run state.
var (
	// ErrAlreadyInProgress is returned by StartRun while a run is active.
	ErrAlreadyInProgress = errors.New("allotment is already in progress")
	// ErrNotInProgress is returned by CancelRun when no run is active.
	ErrNotInProgress = errors.New("allotment is not currently in progress")
	// ErrNotYourTurn is returned when the group does not hold the current turn.
	ErrNotYourTurn = errors.New("it is not your group's turn")
	// ErrNotAGroupLeader is returned when the acting student leads no group.
	ErrNotAGroupLeader = errors.New("you are not the leader of a group")
	// ErrRecoveryRequired is returned by StartRun after an interrupted run until it is reset.
	ErrRecoveryRequired = errors.New("a previous run was interrupted, reset it first")
)

// Resource errors.
var (
	// ErrRoomUnavailableOrMismatched is returned for a missing, taken or wrong-sized room.
	ErrRoomUnavailableOrMismatched = errors.New("room is not available or capacity does not match")
	// ErrNoEligibleGroups is returned by StartRun when nobody can be queued.
	ErrNoEligibleGroups = errors.New("no finalized groups were found to begin allotment")
)

// Data-integrity and transactional errors.
var (
	// ErrDataInconsistency is returned when a queued group has no leader or no numeric rank.
	ErrDataInconsistency = errors.New("data inconsistency found in groups")
	// ErrCommitFailed is returned when a multi-record update was rolled back.
	ErrCommitFailed = errors.New("allotment commit failed and was rolled back")
	// ErrNotFound is returned by point reads for missing records.
	ErrNotFound = errors.New("record not found")
)
