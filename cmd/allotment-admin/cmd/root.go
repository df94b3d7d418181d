package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/room-allotment/internal/config"
	"github.com/oshokin/room-allotment/internal/notify"
	client "github.com/oshokin/room-allotment/internal/service/client"
	"github.com/oshokin/room-allotment/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the server address from the configuration.
	serverAddress string
	// waitForTurn makes `turn` block until the student's group is served.
	waitForTurn bool

	// rootCmd represents the base command for administering allotment.
	rootCmd = &cobra.Command{
		Use:   "allotment-admin",
		Short: "Administer hostel room allotment.",
		Long: `Sends administrative and student requests to the allotment server.

Admin commands (start, cancel, reset, finalize) are recorded with the current
username and hostname for audit purposes.`,
		SilenceUsage: true,
	}
)

// session runs fn against a connected admin session with signal handling.
func session(fn func(ctx context.Context, s *client.Session) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	s, err := client.Connect(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = s.Close()
	}()

	return fn(ctx, s)
}

// runSession adapts a Session method to a cobra RunE.
func runSession(call func(*client.Session, context.Context) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		return session(func(ctx context.Context, s *client.Session) error {
			return call(s, ctx)
		})
	}
}

// Execute runs the allotment-admin CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits,funlen // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "a", "", "server address (overrides config)")

	turnCmd := &cobra.Command{
		Use:   "turn <student-id>",
		Short: "Show whether a student's group holds the turn.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return session(func(ctx context.Context, s *client.Session) error {
				if waitForTurn {
					return s.WaitForTurn(ctx, args[0])
				}

				return s.Turn(ctx, args[0])
			})
		},
	}
	turnCmd.Flags().BoolVarP(&waitForTurn, "wait", "w", false, "wait until the group's turn starts")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start an allotment run over every finalized group.",
			Args:  cobra.NoArgs,
			RunE:  runSession((*client.Session).Start),
		},
		&cobra.Command{
			Use:   "cancel",
			Short: "Cancel the running allotment and revert every allotted room.",
			Args:  cobra.NoArgs,
			RunE:  runSession((*client.Session).Cancel),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Discard run state after a restart, keeping allotted rooms.",
			Args:  cobra.NoArgs,
			RunE:  runSession((*client.Session).Reset),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether an allotment run is in progress.",
			Args:  cobra.NoArgs,
			RunE:  runSession((*client.Session).Status),
		},
		turnCmd,
		&cobra.Command{
			Use:   "select <student-id> <room-id>",
			Short: "Select a room on behalf of a group leader.",
			Args:  cobra.ExactArgs(2), //nolint:mnd // Student and room.
			RunE: func(_ *cobra.Command, args []string) error {
				return session(func(ctx context.Context, s *client.Session) error {
					return s.Select(ctx, args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "groups",
			Short: "List every group with its leader and room.",
			Args:  cobra.NoArgs,
			RunE:  runSession((*client.Session).Groups),
		},
		&cobra.Command{
			Use:   "finalize",
			Short: "Lock every group that is not finalized yet.",
			Args:  cobra.NoArgs,
			RunE:  runSession((*client.Session).Finalize),
		},
		&cobra.Command{
			Use:   "watch [recipient]",
			Short: "Stream allotment events for a roll number, or all events.",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				recipient := notify.AllRecipients
				if len(args) > 0 {
					recipient = args[0]
				}

				return session(func(ctx context.Context, s *client.Session) error {
					return s.Watch(ctx, recipient)
				})
			},
		},
	)
}
