package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/room-allotment/internal/metrics"
)

// TestResolveListenAddress covers override, port extraction and invalid settings.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	address, err := resolveListenAddress("hostel.example.com:8080", "")
	require.NoError(t, err)
	require.Equal(t, ":8080", address)

	address, err = resolveListenAddress("hostel.example.com:8080", "127.0.0.1:9090")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", address)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

// TestNewMetricsServer is disabled without an address and serves /metrics otherwise.
func TestNewMetricsServer(t *testing.T) {
	t.Parallel()

	require.Nil(t, newMetricsServer("", metrics.New()))

	srv := newMetricsServer("127.0.0.1:9100", metrics.New())
	require.NotNil(t, srv)
	require.Equal(t, "127.0.0.1:9100", srv.Addr)
}

// TestFirstNonEmpty picks the override before the configured value.
func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	require.Equal(t, "cli.db", firstNonEmpty("cli.db", "settings.db"))
	require.Equal(t, "settings.db", firstNonEmpty("", "settings.db"))
	require.Empty(t, firstNonEmpty("", ""))
}
