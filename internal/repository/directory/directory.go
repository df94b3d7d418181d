package directory

import (
	"context"
	"errors"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
)

// ErrAlreadyExists is returned when a write collides with a unique field.
var ErrAlreadyExists = errors.New("record already exists")

// Directory defines the reads and writes the allotment service depends on.
type Directory interface {
	// ListEligibleGroups returns finalized, unallotted, not skipped groups
	// with Leader joined (nil when the leader record is missing).
	ListEligibleGroups(ctx context.Context) ([]*domain.Group, error)
	GetStudent(ctx context.Context, id string) (*domain.Student, error)
	GetGroup(ctx context.Context, id string) (*domain.Group, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)

	// AllotRoom marks the room unavailable, assigns it to the group and marks
	// every member Allotted, all or nothing.
	AllotRoom(ctx context.Context, groupID, roomID string) (*domain.Room, error)
	// SkipGroup finalizes the group and marks every member Skipped.
	SkipGroup(ctx context.Context, groupID string) error
	// RevertAllotments frees every held room and resets the holders' members.
	RevertAllotments(ctx context.Context) (int, error)
}

// AdminDirectory adds the administrative reads and writes.
type AdminDirectory interface {
	Directory

	ListGroups(ctx context.Context) ([]*domain.Group, error)
	FinalizeGroups(ctx context.Context) (int, error)
	SaveStudent(ctx context.Context, student *domain.Student) error
	SaveGroup(ctx context.Context, group *domain.Group) error
	SaveRoom(ctx context.Context, room *domain.Room) error
}
