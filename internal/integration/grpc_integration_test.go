package integration

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/room-allotment/internal/config"
	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/notify"
	pb "github.com/oshokin/room-allotment/internal/pb/v1"
	"github.com/oshokin/room-allotment/internal/repository/directory"
	"github.com/oshokin/room-allotment/internal/service/common"
	"github.com/oshokin/room-allotment/internal/service/server"
)

// testActor is the admin recorded by every admin call in these tests.
var testActor = &pb.SystemActor{Hostname: "warden-pc", Username: "warden"}

// reservePort returns a free local TCP address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// seedDirectory creates a database with one finalized group per rank and the given rooms.
func seedDirectory(t *testing.T, path string, ranks map[string]int, rooms map[string]int) {
	t.Helper()

	ctx := context.Background()

	dir, err := directory.OpenSQLite(ctx, path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, dir.Close())
	}()

	created := time.Now()

	for groupID, rank := range ranks {
		members := make([]string, 0, domain.MinGroupSize)

		for i := range domain.MinGroupSize {
			student := &domain.Student{
				ID:         fmt.Sprintf("%s-m%d", groupID, i),
				Name:       fmt.Sprintf("Student %d of %s", i, groupID),
				RollNumber: fmt.Sprintf("%s-roll%d", groupID, i),
			}

			if i == 0 {
				student.Rank = &rank
			}

			require.NoError(t, dir.SaveStudent(ctx, student))

			members = append(members, student.ID)
		}

		require.NoError(t, dir.SaveGroup(ctx, &domain.Group{
			ID:        groupID,
			LeaderID:  members[0],
			MemberIDs: members,
			Size:      domain.MinGroupSize,
			Finalized: true,
			CreatedAt: created,
		}))
	}

	for roomID, capacity := range rooms {
		require.NoError(t, dir.SaveRoom(ctx, &domain.Room{
			ID:        roomID,
			Number:    "No-" + roomID,
			Capacity:  capacity,
			Available: true,
		}))
	}
}

// startServer runs allotment-server over the database and returns a stop function.
func startServer(t *testing.T, cfg *config.Config) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, cfg))

	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:             cfgPath,
			AllowMultipleInstances: true,
		})
	}()

	// Wait briefly for server to start listening.
	time.Sleep(150 * time.Millisecond)

	return func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	}
}

// watch collects event types for recipient until the returned cancel is called.
func watch(t *testing.T, c *common.Client, recipient string) (<-chan string, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan string, 32)

	go func() {
		_ = c.Watch(ctx, recipient, func(event *pb.Event) error {
			events <- event.Type

			return nil
		})
	}()

	// Give the stream time to subscribe before events are published.
	time.Sleep(100 * time.Millisecond)

	return events, cancel
}

// nextEvents reads n event types or fails after a timeout.
func nextEvents(t *testing.T, events <-chan string, n int) []string {
	t.Helper()

	result := make([]string, 0, n)

	for range n {
		select {
		case event := <-events:
			result = append(result, event)
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", result)
		}
	}

	return result
}

// TestGRPC_AllotmentRoundtrip runs a full allotment against the real server and SQLite database.
//
//nolint:funlen // End-to-end scenario.
func TestGRPC_AllotmentRoundtrip(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	addr := reservePort(t)
	metricsAddr := reservePort(t)
	dbPath := filepath.Join(tmp, "allotment.db")

	seedDirectory(t, dbPath, map[string]int{"g1": 2, "g2": 1}, map[string]int{"r1": 3, "r2": 3})

	stop := startServer(t, &config.Config{
		ServerAddress:  addr,
		DatabasePath:   dbPath,
		CheckpointFile: filepath.Join(tmp, "checkpoint.json"),
		MetricsAddress: metricsAddr,
		TurnWindow:     time.Minute,
		Timeout:        5 * time.Second,
	})
	defer stop()

	ctx := context.Background()

	c, err := common.Dial(ctx, addr)
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	events, stopWatch := watch(t, c, notify.AllRecipients)
	defer stopWatch()

	started, err := c.StartRun(ctx, testActor)
	require.NoError(t, err)
	require.Equal(t, 2, started.QueueSize)

	_, err = c.StartRun(ctx, testActor)
	require.ErrorIs(t, err, domain.ErrAlreadyInProgress)

	status, err := c.GetRunStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.InProgress)
	require.Equal(t, 1, status.QueueLength)

	turn, err := c.GetMyTurnStatus(ctx, "g2-m2")
	require.NoError(t, err)
	require.True(t, turn.IsMyTurn)
	require.NotNil(t, turn.Deadline)

	_, err = c.SelectRoom(ctx, "g1-m0", "r1")
	require.ErrorIs(t, err, domain.ErrNotYourTurn)

	_, err = c.SelectRoom(ctx, "g2-m1", "r1")
	require.ErrorIs(t, err, domain.ErrNotAGroupLeader)

	selected, err := c.SelectRoom(ctx, "g2-m0", "r1")
	require.NoError(t, err)
	require.Equal(t, "No-r1", selected.Room.Number)

	_, err = c.SelectRoom(ctx, "g1-m0", "r1")
	require.ErrorIs(t, err, domain.ErrRoomUnavailableOrMismatched)

	_, err = c.SelectRoom(ctx, "g1-m0", "r2")
	require.NoError(t, err)

	require.Equal(t, []string{
		string(domain.EventYourTurn),
		string(domain.EventSelectionSuccessful),
		string(domain.EventYourTurn),
		string(domain.EventSelectionSuccessful),
		string(domain.EventAllotmentFinished),
	}, nextEvents(t, events, 5))

	status, err = c.GetRunStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.InProgress)

	_, err = c.CancelRun(ctx, testActor)
	require.ErrorIs(t, err, domain.ErrNotInProgress)

	groups, err := c.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups.Groups, 2)

	rooms := make(map[string]string, len(groups.Groups))
	for _, group := range groups.Groups {
		rooms[group.ID] = group.RoomNumber
	}

	require.Equal(t, map[string]string{"g1": "No-r2", "g2": "No-r1"}, rooms)

	response, err := http.Get("http://" + metricsAddr + "/metrics") //nolint:noctx // Test helper.
	require.NoError(t, err)

	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `allotment_turns_total{outcome="selected"} 2`)
}

// TestGRPC_TimeoutThenCancel lets a turn expire and cancels the run afterwards.
func TestGRPC_TimeoutThenCancel(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	addr := reservePort(t)
	dbPath := filepath.Join(tmp, "allotment.db")

	seedDirectory(t, dbPath, map[string]int{"a": 1, "b": 2}, map[string]int{"r1": 3})

	stop := startServer(t, &config.Config{
		ServerAddress:  addr,
		DatabasePath:   dbPath,
		CheckpointFile: filepath.Join(tmp, "checkpoint.json"),
		TurnWindow:     500 * time.Millisecond,
	})
	defer stop()

	ctx := context.Background()

	c, err := common.Dial(ctx, addr)
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	events, stopWatch := watch(t, c, "a-roll0")
	defer stopWatch()

	_, err = c.StartRun(ctx, testActor)
	require.NoError(t, err)

	require.Equal(t,
		[]string{string(domain.EventYourTurn), string(domain.EventTurnEnded)},
		nextEvents(t, events, 2))

	turn, err := c.GetMyTurnStatus(ctx, "b-m1")
	require.NoError(t, err)
	require.True(t, turn.IsMyTurn)

	_, err = c.SelectRoom(ctx, "a-m0", "r1")
	require.ErrorIs(t, err, domain.ErrNotYourTurn)

	cancelled, err := c.CancelRun(ctx, testActor)
	require.NoError(t, err)
	require.Zero(t, cancelled.RevertedGroups)

	require.Equal(t, []string{string(domain.EventAllotmentCancelled)}, nextEvents(t, events, 1))

	status, err := c.GetRunStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.InProgress)
	require.False(t, status.Interrupted)
}
