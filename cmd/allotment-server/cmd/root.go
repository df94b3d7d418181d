package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/room-allotment/internal/config"
	"github.com/oshokin/room-allotment/internal/service/server"
	"github.com/oshokin/room-allotment/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// databasePath overrides the SQLite database path.
	databasePath string
	// checkpointFile overrides the run checkpoint path.
	checkpointFile string
	// allowMultiple skips the running instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the gRPC server.
	rootCmd = &cobra.Command{
		Use:   "allotment-server [listen-address]",
		Short: "Run the hostel room allotment gRPC server.",
		Long: `Starts the gRPC server that runs turn-based room allotment.

Groups are served one at a time in leader rank order. Each group leader has
a fixed window (turn_window, 5 minutes by default) to select a room of the
group's size; otherwise the group is skipped and the next group is served.

Students, groups and rooms are read from the SQLite database. The run state is
mirrored to a checkpoint file so that a run interrupted by a restart is
reported and can be reset by an admin.

Only the port from server_addr config is used for listening (e.g., :8080).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:             configPath,
				ListenAddress:          listenAddress,
				DatabasePath:           databasePath,
				CheckpointFile:         checkpointFile,
				AllowMultipleInstances: allowMultiple,
			})
		},
	}
)

// Execute runs the allotment-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&databasePath, "database", "d", "", "path to the SQLite database (overrides config)")
	rootCmd.Flags().
		StringVarP(&checkpointFile, "checkpoint-file", "s", "", "path to the run checkpoint (overrides config)")

	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the running instance check")

	err := rootCmd.Flags().MarkHidden("allow-multiple")
	if err != nil {
		panic(err)
	}
}
