package allotment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/repository/state"
)

// fakeStore is an in-memory Store with the same transactional semantics as
// the SQLite directory.
type fakeStore struct {
	mu       sync.Mutex
	students map[string]*domain.Student
	groups   map[string]*domain.Group
	rooms    map[string]*domain.Room

	allotErr  error
	skipErr   error
	revertErr error
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students: make(map[string]*domain.Student),
		groups:   make(map[string]*domain.Group),
		rooms:    make(map[string]*domain.Room),
	}
}

func leaderID(groupID string) string {
	return groupID + "-leader"
}

func leaderRoll(groupID string) string {
	return groupID + "-roll"
}

// addGroup stores a finalized group of size members led by a student with rank.
func (f *fakeStore) addGroup(id string, rank *int, size int, createdAt time.Time) *domain.Group {
	f.mu.Lock()
	defer f.mu.Unlock()

	group := &domain.Group{
		ID:        id,
		LeaderID:  leaderID(id),
		Size:      size,
		Finalized: true,
		CreatedAt: createdAt,
	}

	for i := range size {
		student := &domain.Student{
			ID:         fmt.Sprintf("%s-m%d", id, i),
			Name:       fmt.Sprintf("Member %d of %s", i, id),
			RollNumber: fmt.Sprintf("%s-r%d", id, i),
			GroupID:    id,
			Status:     domain.StatusNotAllotted,
		}

		if i == 0 {
			student.ID = leaderID(id)
			student.Name = "Leader of " + id
			student.RollNumber = leaderRoll(id)
			student.Rank = rank
		}

		f.students[student.ID] = student
		group.MemberIDs = append(group.MemberIDs, student.ID)
	}

	f.groups[id] = group

	return group.Clone()
}

func (f *fakeStore) addRoom(id, number string, capacity int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rooms[id] = &domain.Room{ID: id, Number: number, Capacity: capacity, Available: true}
}

func (f *fakeStore) setFailures(allot, skip, revert error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.allotErr, f.skipErr, f.revertErr = allot, skip, revert
}

func (f *fakeStore) statusOf(studentID string) domain.AllotmentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.students[studentID].Status
}

func (f *fakeStore) group(id string) *domain.Group {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.groups[id].Clone()
}

func (f *fakeStore) room(id string) *domain.Room {
	f.mu.Lock()
	defer f.mu.Unlock()

	cloned := *f.rooms[id]

	return &cloned
}

func (f *fakeStore) ListEligibleGroups(_ context.Context) ([]*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	var groups []*domain.Group

	for _, group := range f.groups {
		if !group.Finalized || group.AllottedRoom != "" {
			continue
		}

		leader := f.students[group.LeaderID]
		if leader != nil && leader.Status == domain.StatusSkipped {
			continue
		}

		cloned := group.Clone()
		cloned.Leader = leader.Clone()
		groups = append(groups, cloned)
	}

	// Map order is random; the loader must not depend on store order.
	slices.SortFunc(groups, func(a, b *domain.Group) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})

	return groups, nil
}

func (f *fakeStore) GetStudent(_ context.Context, id string) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	student, ok := f.students[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return student.Clone(), nil
}

func (f *fakeStore) GetGroup(_ context.Context, id string) (*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	group, ok := f.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	cloned := group.Clone()
	cloned.Leader = f.students[group.LeaderID].Clone()

	return cloned, nil
}

func (f *fakeStore) GetRoom(_ context.Context, id string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	room, ok := f.rooms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	cloned := *room

	return &cloned, nil
}

func (f *fakeStore) AllotRoom(_ context.Context, groupID, roomID string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.allotErr != nil {
		return nil, f.allotErr
	}

	group, ok := f.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("%w: group %s", domain.ErrCommitFailed, groupID)
	}

	room, ok := f.rooms[roomID]
	if !ok || !room.Fits(group) {
		return nil, domain.ErrRoomUnavailableOrMismatched
	}

	room.Available = false
	group.AllottedRoom = roomID

	for _, memberID := range group.MemberIDs {
		f.students[memberID].Status = domain.StatusAllotted
	}

	cloned := *room

	return &cloned, nil
}

func (f *fakeStore) SkipGroup(_ context.Context, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.skipErr != nil {
		return f.skipErr
	}

	group, ok := f.groups[groupID]
	if !ok {
		return domain.ErrNotFound
	}

	group.Finalized = true

	for _, memberID := range group.MemberIDs {
		f.students[memberID].Status = domain.StatusSkipped
	}

	return nil
}

func (f *fakeStore) RevertAllotments(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.revertErr != nil {
		return 0, f.revertErr
	}

	var reverted int

	for _, group := range f.groups {
		if group.AllottedRoom == "" {
			continue
		}

		f.rooms[group.AllottedRoom].Available = true
		group.AllottedRoom = ""

		for _, memberID := range group.MemberIDs {
			f.students[memberID].Status = domain.StatusNotAllotted
		}

		reverted++
	}

	return reverted, nil
}

func (f *fakeStore) ListGroups(_ context.Context) ([]*domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	groups := make([]*domain.Group, 0, len(f.groups))
	for _, group := range f.groups {
		groups = append(groups, group.Clone())
	}

	return groups, nil
}

func (f *fakeStore) FinalizeGroups(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var finalized int

	for _, group := range f.groups {
		if !group.Finalized {
			group.Finalized = true
			finalized++
		}
	}

	return finalized, nil
}

// recordingNotifier keeps every published event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *recordingNotifier) Publish(_ context.Context, recipient string, event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	event.Recipient = recipient
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Broadcast(_ context.Context, event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	event.Recipient = ""
	n.events = append(n.events, event)
}

// sent returns the event types delivered to recipient, broadcasts included.
func (n *recordingNotifier) sent(recipient string) []domain.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()

	var types []domain.EventType

	for _, event := range n.events {
		if event.Recipient == recipient || event.Broadcast() {
			types = append(types, event.Type)
		}
	}

	return types
}

// last returns the most recent event of the given type.
func (n *recordingNotifier) last(eventType domain.EventType) (domain.Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Type == eventType {
			return n.events[i], true
		}
	}

	return domain.Event{}, false
}

// memoryCheckpoint is an in-memory state.Repository.
type memoryCheckpoint struct {
	mu       sync.Mutex
	snapshot *domain.RunSnapshot
	saves    int
	clearErr error
}

func (m *memoryCheckpoint) Load(_ context.Context) (*domain.RunSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot == nil {
		return nil, state.ErrNotFound
	}

	return m.snapshot.Clone(), nil
}

func (m *memoryCheckpoint) Save(_ context.Context, snapshot *domain.RunSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot = snapshot.Clone()
	m.saves++

	return nil
}

func (m *memoryCheckpoint) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clearErr != nil {
		return m.clearErr
	}

	m.snapshot = nil

	return nil
}

func (m *memoryCheckpoint) current() *domain.RunSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshot.Clone()
}

var errStoreDown = errors.New("store is down")

func rank(n int) *int {
	return &n
}
