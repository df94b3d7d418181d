package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/room-allotment/internal/api/grpc/allotment"
	"github.com/oshokin/room-allotment/internal/config"
	"github.com/oshokin/room-allotment/internal/logger"
	"github.com/oshokin/room-allotment/internal/metrics"
	"github.com/oshokin/room-allotment/internal/notify"
	pb "github.com/oshokin/room-allotment/internal/pb/v1"
	"github.com/oshokin/room-allotment/internal/repository/directory"
	"github.com/oshokin/room-allotment/internal/repository/state"
	"github.com/oshokin/room-allotment/internal/service/allotment"
	"github.com/oshokin/room-allotment/internal/version"
)

// Options controls the allotment-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// DatabasePath overrides the SQLite database path from the settings.
	DatabasePath string
	// CheckpointFile overrides the run checkpoint path from the settings.
	CheckpointFile string
	// AllowMultipleInstances skips the single running server check.
	AllowMultipleInstances bool
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

// Run starts the gRPC server and blocks until context is canceled or server stops.
// Loads configuration first, then determines listen address from config or override.
//
//nolint:funlen // Sequential wiring of every server dependency.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "allotment-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.SetLevelFromString(settings.LogLevel); err != nil {
		return err
	}

	if !opts.AllowMultipleInstances {
		if err = ensureSingleInstance(ctx); err != nil {
			return err
		}
	}

	databasePath := firstNonEmpty(opts.DatabasePath, settings.DatabasePath)
	checkpointFile := firstNonEmpty(opts.CheckpointFile, settings.CheckpointFile)

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	dir, err := directory.OpenSQLite(ctx, databasePath)
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}

	defer func() {
		if closeErr := dir.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Failed to close directory", "error", closeErr)
		}
	}()

	hub := notify.NewHub(notify.DefaultBufferSize)
	defer hub.Close()

	instruments := metrics.New()

	svc, err := allotment.New(ctx, allotment.Options{
		Directory:  dir,
		Notifier:   hub,
		Checkpoint: state.NewFileRepository(checkpointFile),
		Metrics:    instruments,
		TurnWindow: settings.TurnWindow,
	})
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	defer svc.Close(ctx)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterAllotmentServiceServer(grpcServer, api.NewServer(svc, hub))

	metricsServer := newMetricsServer(settings.MetricsAddress, instruments)

	logger.InfoKV(ctx, "Allotment server starting", version.Fields()...)

	logger.InfoKV(ctx, "Allotment server listening",
		"listen_address", listenAddress,
		"database_path", databasePath,
		"checkpoint_file", checkpointFile,
		"metrics_address", settings.MetricsAddress,
		"turn_window", settings.TurnWindow,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")

		// Subscribe streams end when the hub closes; GracefulStop waits for them.
		hub.Close()
		grpcServer.GracefulStop()

		if metricsServer == nil {
			return nil
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics: %w", err)
		}

		return nil
	})

	if err = g.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// newMetricsServer returns the Prometheus endpoint server, or nil when disabled.
func newMetricsServer(address string, instruments *metrics.Metrics) *http.Server {
	if address == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", instruments.Handler())

	return &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
