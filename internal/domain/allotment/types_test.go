package allotment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGroupClone verifies that Clone deep-copies members and the joined leader.
func TestGroupClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Group)(nil).Clone())

	rank := 7
	g := &Group{
		ID:        "g1",
		LeaderID:  "s1",
		MemberIDs: []string{"s1", "s2", "s3"},
		Size:      3,
		Leader:    &Student{ID: "s1", Rank: &rank},
	}

	c := g.Clone()
	require.Equal(t, g, c)
	require.NotSame(t, g.Leader, c.Leader)
	require.NotSame(t, g.Leader.Rank, c.Leader.Rank)

	c.MemberIDs[0] = "other"
	require.Equal(t, "s1", g.MemberIDs[0])
}

// TestGroupEligible covers finalized, allotted and skipped-leader combinations.
func TestGroupEligible(t *testing.T) {
	t.Parallel()

	require.False(t, (*Group)(nil).Eligible())
	require.False(t, (&Group{Finalized: false}).Eligible())
	require.False(t, (&Group{Finalized: true, AllottedRoom: "r1"}).Eligible())
	require.True(t, (&Group{Finalized: true}).Eligible())
	require.False(t, (&Group{
		Finalized: true,
		Leader:    &Student{Status: StatusSkipped},
	}).Eligible())
}

// TestRoomFits checks availability and capacity matching.
func TestRoomFits(t *testing.T) {
	t.Parallel()

	g := &Group{Size: 4}

	require.True(t, (&Room{Capacity: 4, Available: true}).Fits(g))
	require.False(t, (&Room{Capacity: 3, Available: true}).Fits(g))
	require.False(t, (&Room{Capacity: 4, Available: false}).Fits(g))
	require.False(t, (*Room)(nil).Fits(g))
}

// TestAllotmentStatusValid rejects unknown status strings.
func TestAllotmentStatusValid(t *testing.T) {
	t.Parallel()

	require.True(t, StatusNotAllotted.Valid())
	require.True(t, StatusAllotted.Valid())
	require.True(t, StatusSkipped.Valid())
	require.False(t, AllotmentStatus("Pending").Valid())
}

// TestActorClone verifies that Clone returns a deep copy and handles nil safely.
func TestActorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Actor)(nil).Clone())

	a := &Actor{Hostname: "warden-pc", Username: "warden"}
	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
	require.Equal(t, "warden@warden-pc", a.String())
}

// TestNewEvent assigns a distinct id to every event.
func TestNewEvent(t *testing.T) {
	t.Parallel()

	first := NewEvent(EventYourTurn, "go")
	second := NewEvent(EventYourTurn, "go")

	require.NotEmpty(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, EventYourTurn, first.Type)
	require.Equal(t, "go", first.Message)
	require.False(t, first.Timestamp.IsZero())
	require.True(t, first.Broadcast())

	first.Recipient = "roll-1"
	require.False(t, first.Broadcast())
}
