package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validations and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	settings := new(Config)

	err := Validate(settings)
	require.Error(t, err)

	// Bad socket.
	settings = &Config{
		ServerAddress: "bad:address",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Bad metrics socket.
	settings = &Config{
		ServerAddress:  "127.0.0.1:0",
		MetricsAddress: "nope",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Unknown log level.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		LogLevel:      "verbose",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Defaults.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultTurnWindow, settings.TurnWindow)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, DefaultDatabaseFilename, settings.DatabasePath)
	require.Equal(t, DefaultCheckpointFilename, settings.CheckpointFile)
	require.Equal(t, DefaultLogLevel, settings.LogLevel)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerAddress:  "127.0.0.1:50051",
		DatabasePath:   filepath.Join(dir, "allotment.db"),
		MetricsAddress: "127.0.0.1:9102",
		TurnWindow:     90 * time.Second,
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, settings.DatabasePath, loaded.DatabasePath)
	require.Equal(t, settings.MetricsAddress, loaded.MetricsAddress)
	require.Equal(t, 90*time.Second, loaded.TurnWindow)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_EnvOverrides verifies ALLOTMENT_* variables win over the file.
// Not parallel: it mutates the process environment.
func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, Save(path, &Config{ServerAddress: "127.0.0.1:50051"}))

	t.Setenv("ALLOTMENT_TURN_WINDOW", "2m")
	t.Setenv("ALLOTMENT_SERVER_ADDR", "127.0.0.1:6000")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2*time.Minute, loaded.TurnWindow)
	require.Equal(t, "127.0.0.1:6000", loaded.ServerAddress)

	t.Setenv("ALLOTMENT_TURN_WINDOW", "soon")

	_, err = Load(path)
	require.Error(t, err)
}
