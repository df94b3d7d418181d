package allotment

import (
	"slices"
	"time"
)

// AllotmentStatus is the per-student outcome of a run.
type AllotmentStatus string

const (
	// StatusNotAllotted is the initial status and the status after a revert.
	StatusNotAllotted AllotmentStatus = "Not Allotted"
	// StatusAllotted marks members of a group that committed a room.
	StatusAllotted AllotmentStatus = "Allotted"
	// StatusSkipped marks members of a group whose turn timed out.
	StatusSkipped AllotmentStatus = "Skipped"
)

// Valid reports whether s is one of the known statuses.
func (s AllotmentStatus) Valid() bool {
	switch s {
	case StatusNotAllotted, StatusAllotted, StatusSkipped:
		return true
	default:
		return false
	}
}

const (
	// MinGroupSize is the smallest group (and room) size.
	MinGroupSize = 3
	// MaxGroupSize is the largest group (and room) size.
	MaxGroupSize = 4
)

// ValidSize reports whether n is an allowed group size or room capacity.
func ValidSize(n int) bool {
	return n >= MinGroupSize && n <= MaxGroupSize
}

// Actor identifies who issued an administrative command.
type Actor struct {
	// Hostname is the machine name the command came from.
	Hostname string
	// Username is the system user who issued the command.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as user@host for logs.
func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return a.Username + "@" + a.Hostname
}

// Student is an applicant. Rank is nil when the rank list has no entry.
type Student struct {
	ID         string
	Name       string
	RollNumber string
	Rank       *int
	GroupID    string
	Status     AllotmentStatus
}

// HasRank reports whether the student has a numeric rank.
func (s *Student) HasRank() bool {
	return s != nil && s.Rank != nil
}

// Clone returns a copy of the student.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}

	cloned := *s
	if s.Rank != nil {
		rank := *s.Rank
		cloned.Rank = &rank
	}

	return &cloned
}

// Group is a pre-formed set of students acting through its leader.
type Group struct {
	ID           string
	LeaderID     string
	MemberIDs    []string
	Size         int
	Finalized    bool
	AllottedRoom string
	CreatedAt    time.Time

	// Leader is populated by reads that join the leader record.
	Leader *Student
	// RoomNumber is populated by reads that join the allotted room.
	RoomNumber string
}

// IsLeader reports whether studentID leads the group.
func (g *Group) IsLeader(studentID string) bool {
	return g != nil && studentID != "" && g.LeaderID == studentID
}

// HasMember reports whether studentID belongs to the group.
func (g *Group) HasMember(studentID string) bool {
	return g != nil && slices.Contains(g.MemberIDs, studentID)
}

// Eligible reports whether the group may enter a queue.
func (g *Group) Eligible() bool {
	if g == nil || !g.Finalized || g.AllottedRoom != "" {
		return false
	}

	return g.Leader == nil || g.Leader.Status != StatusSkipped
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}

	cloned := *g
	cloned.MemberIDs = slices.Clone(g.MemberIDs)
	cloned.Leader = g.Leader.Clone()

	return &cloned
}

// Room is a unit of inventory with a fixed capacity.
type Room struct {
	ID        string
	Number    string
	Capacity  int
	Available bool
}

// Fits reports whether the room can be committed to g right now.
func (r *Room) Fits(g *Group) bool {
	return r != nil && g != nil && r.Available && r.Capacity == g.Size
}
