package pb

import "time"

// SystemActor identifies the machine and user issuing an admin command.
type SystemActor struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

// GetHostname returns the hostname or an empty string.
func (x *SystemActor) GetHostname() string {
	if x == nil {
		return ""
	}

	return x.Hostname
}

// GetUsername returns the username or an empty string.
func (x *SystemActor) GetUsername() string {
	if x == nil {
		return ""
	}

	return x.Username
}

// Room is a room record.
type Room struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Capacity  int    `json:"capacity"`
	Available bool   `json:"available"`
}

// Group is a group record with its leader and room joined.
type Group struct {
	ID               string    `json:"id"`
	LeaderID         string    `json:"leader_id"`
	LeaderName       string    `json:"leader_name,omitempty"`
	LeaderRollNumber string    `json:"leader_roll_number,omitempty"`
	LeaderRank       *int      `json:"leader_rank,omitempty"`
	MemberIDs        []string  `json:"member_ids"`
	Size             int       `json:"size"`
	Finalized        bool      `json:"finalized"`
	AllottedRoomID   string    `json:"allotted_room_id,omitempty"`
	RoomNumber       string    `json:"room_number,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// StartRunRequest starts an allotment run.
type StartRunRequest struct {
	Actor *SystemActor `json:"actor"`
}

// GetActor returns the actor or nil.
func (x *StartRunRequest) GetActor() *SystemActor {
	if x == nil {
		return nil
	}

	return x.Actor
}

// StartRunResponse carries the queue length at start.
type StartRunResponse struct {
	QueueSize int `json:"queue_size"`
}

// CancelRunRequest cancels the active run.
type CancelRunRequest struct {
	Actor *SystemActor `json:"actor"`
}

// GetActor returns the actor or nil.
func (x *CancelRunRequest) GetActor() *SystemActor {
	if x == nil {
		return nil
	}

	return x.Actor
}

// CancelRunResponse carries the number of reverted groups.
type CancelRunResponse struct {
	RevertedGroups int `json:"reverted_groups"`
}

// ResetRunRequest discards the run state without touching allotments.
type ResetRunRequest struct {
	Actor *SystemActor `json:"actor"`
}

// GetActor returns the actor or nil.
func (x *ResetRunRequest) GetActor() *SystemActor {
	if x == nil {
		return nil
	}

	return x.Actor
}

// ResetRunResponse reports whether a run or checkpoint was discarded.
type ResetRunResponse struct {
	Discarded bool `json:"discarded"`
}

// GetRunStatusRequest asks for the admin view of the run.
type GetRunStatusRequest struct{}

// RunStatusResponse is the admin view of the run.
type RunStatusResponse struct {
	InProgress  bool `json:"in_progress"`
	Interrupted bool `json:"interrupted"`
	QueueLength int  `json:"queue_length"`
}

// SelectRoomRequest picks a room on behalf of a group leader.
type SelectRoomRequest struct {
	StudentID string `json:"student_id"`
	RoomID    string `json:"room_id"`
}

// GetStudentID returns the student id or an empty string.
func (x *SelectRoomRequest) GetStudentID() string {
	if x == nil {
		return ""
	}

	return x.StudentID
}

// GetRoomID returns the room id or an empty string.
func (x *SelectRoomRequest) GetRoomID() string {
	if x == nil {
		return ""
	}

	return x.RoomID
}

// SelectRoomResponse carries the committed room.
type SelectRoomResponse struct {
	Room *Room `json:"room"`
}

// GetMyTurnStatusRequest asks whether a student's group holds the turn.
type GetMyTurnStatusRequest struct {
	StudentID string `json:"student_id"`
}

// GetStudentID returns the student id or an empty string.
func (x *GetMyTurnStatusRequest) GetStudentID() string {
	if x == nil {
		return ""
	}

	return x.StudentID
}

// TurnStatusResponse is a student's view of the run.
type TurnStatusResponse struct {
	IsMyTurn bool       `json:"is_my_turn"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// ListGroupsRequest lists every group.
type ListGroupsRequest struct{}

// ListGroupsResponse carries every group.
type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// FinalizeGroupsRequest locks every group that is not finalized yet.
type FinalizeGroupsRequest struct {
	Actor *SystemActor `json:"actor"`
}

// GetActor returns the actor or nil.
func (x *FinalizeGroupsRequest) GetActor() *SystemActor {
	if x == nil {
		return nil
	}

	return x.Actor
}

// FinalizeGroupsResponse carries the number of groups finalized.
type FinalizeGroupsResponse struct {
	Finalized int `json:"finalized"`
}

// SubscribeRequest opens an event stream for a recipient key.
// Recipient "*" receives every event.
type SubscribeRequest struct {
	Recipient string `json:"recipient"`
}

// GetRecipient returns the recipient or an empty string.
func (x *SubscribeRequest) GetRecipient() string {
	if x == nil {
		return ""
	}

	return x.Recipient
}

// Event is a notification delivered on a Subscribe stream.
type Event struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Recipient string     `json:"recipient,omitempty"`
	Message   string     `json:"message,omitempty"`
	Group     *Group     `json:"group,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
