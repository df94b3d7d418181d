//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestAdminCalls_NilActor asserts that admin calls without an actor are rejected by the client.
func TestAdminCalls_NilActor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := new(Client)

	_, err := c.StartRun(ctx, nil)
	require.ErrorIs(t, err, errActorRequired)

	_, err = c.CancelRun(ctx, nil)
	require.ErrorIs(t, err, errActorRequired)

	_, err = c.ResetRun(ctx, nil)
	require.ErrorIs(t, err, errActorRequired)

	_, err = c.FinalizeGroups(ctx, nil)
	require.ErrorIs(t, err, errActorRequired)
}

// TestClient_CloseNil checks Close tolerates an unconnected client.
func TestClient_CloseNil(t *testing.T) {
	t.Parallel()

	var c *Client

	require.NoError(t, c.Close())
	require.NoError(t, new(Client).Close())
}
