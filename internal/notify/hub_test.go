package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
)

// TestHub_PublishRoutesByRecipient checks addressed delivery and the firehose.
func TestHub_PublishRoutesByRecipient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := NewHub(4)

	mine, unsubMine := hub.Subscribe("21CS001")
	defer unsubMine()

	other, unsubOther := hub.Subscribe("21CS002")
	defer unsubOther()

	all, unsubAll := hub.Subscribe(AllRecipients)
	defer unsubAll()

	hub.Publish(ctx, "21CS001", domain.NewEvent(domain.EventYourTurn, ""))

	got := <-mine
	require.Equal(t, domain.EventYourTurn, got.Type)
	require.Equal(t, "21CS001", got.Recipient)
	require.NotEmpty(t, got.ID)

	require.Equal(t, domain.EventYourTurn, (<-all).Type)
	require.Empty(t, other)
}

// TestHub_BroadcastReachesEveryone includes broadcast-only subscribers.
func TestHub_BroadcastReachesEveryone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := NewHub(4)

	a, unsubA := hub.Subscribe("21CS001")
	defer unsubA()

	b, unsubB := hub.Subscribe("")
	defer unsubB()

	hub.Broadcast(ctx, domain.NewEvent(domain.EventAllotmentFinished, "done"))

	for _, ch := range []<-chan domain.Event{a, b} {
		ev := <-ch
		require.Equal(t, domain.EventAllotmentFinished, ev.Type)
		require.True(t, ev.Broadcast())
	}
}

// TestHub_FullBufferDropsInsteadOfBlocking verifies non-blocking delivery.
func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := NewHub(1)

	ch, unsub := hub.Subscribe("x")
	defer unsub()

	hub.Publish(ctx, "x", domain.NewEvent(domain.EventYourTurn, "first"))
	hub.Publish(ctx, "x", domain.NewEvent(domain.EventTurnEnded, "second"))

	require.Equal(t, "first", (<-ch).Message)
	require.Empty(t, ch)
}

// TestHub_UnsubscribeAndClose closes channels exactly once.
func TestHub_UnsubscribeAndClose(t *testing.T) {
	t.Parallel()

	hub := NewHub(1)

	ch, unsub := hub.Subscribe("x")
	require.Equal(t, 1, hub.Subscribers())

	unsub()
	unsub()

	_, ok := <-ch
	require.False(t, ok)
	require.Zero(t, hub.Subscribers())

	kept, _ := hub.Subscribe("y")
	hub.Close()

	_, ok = <-kept
	require.False(t, ok)

	late, _ := hub.Subscribe("z")
	_, ok = <-late
	require.False(t, ok)
}
