package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/room-allotment/internal/logger"
)

// Config holds the settings of the allotment server and admin client.
type Config struct {
	// ServerAddress is the gRPC server address.
	ServerAddress string `yaml:"server_addr" env:"SERVER_ADDR"`
	// DatabasePath is the SQLite file holding students, groups and rooms.
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"`
	// CheckpointFile is the path of the run checkpoint JSON.
	CheckpointFile string `yaml:"checkpoint_file" env:"CHECKPOINT_FILE"`
	// MetricsAddress is where Prometheus metrics are served; empty disables them.
	MetricsAddress string `yaml:"metrics_addr" env:"METRICS_ADDR"`
	// TurnWindow is how long each group has to pick a room.
	TurnWindow time.Duration `yaml:"turn_window" env:"TURN_WINDOW"`
	// Timeout is the duration for RPC calls made by the admin client.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// LogLevel is the minimum level of emitted log messages.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "allotment-settings.yaml"

	// DefaultDatabaseFilename is the default SQLite database filename.
	DefaultDatabaseFilename = "allotment.db"

	// DefaultCheckpointFilename is the default filename for the run checkpoint.
	DefaultCheckpointFilename = "allotment-checkpoint.json"

	// DefaultTurnWindow is the time a group has to select a room.
	DefaultTurnWindow = 5 * time.Minute

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "ALLOTMENT_"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overrides fields with ALLOTMENT_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics socket: %w", err)
		}
	}

	if settings.TurnWindow <= 0 {
		settings.TurnWindow = DefaultTurnWindow
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.DatabasePath == "" {
		settings.DatabasePath = DefaultDatabaseFilename
	}

	if settings.CheckpointFile == "" {
		settings.CheckpointFile = DefaultCheckpointFilename
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
