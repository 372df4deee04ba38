package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/internal/telemetry"
	"github.com/marmos91/fstore/pkg/api"
	"github.com/marmos91/fstore/pkg/config"
	"github.com/marmos91/fstore/pkg/metadata/postgres"
	"github.com/marmos91/fstore/pkg/metrics"
	"github.com/marmos91/fstore/pkg/objectstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fstore HTTP server",
	Long: `Start the fstore server: binds the configured listen endpoint and
serves the full object/bucket/job HTTP API over the Postgres metadata
store and filesystem object tree, until interrupted.

Examples:
  fstore serve
  fstore serve --config /etc/fstore/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, cfg.TelemetryConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := telemetry.InitProfiling(cfg.ProfilingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Error("profiling shutdown failed", "error", err)
		}
	}()

	meta, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to metadata store: %w", err)
	}
	defer meta.Close()

	store, err := objectstore.New(ctx, cfg.Home, meta, objectstore.Config{
		ArchiveDir: cfg.Archive.Dir,
		ArchiveS3:  cfg.ArchiveS3Config(),
		DumpTool:   cfg.Archive.DumpTool,
		DumpDatabase: objectstore.DumpDatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	server := api.NewServer(cfg.API, cfg.ListenConfig(), store, Version)

	if cfg.Metrics.Enabled {
		reg := metrics.Init()
		metricsAddr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		metricsServer := &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			logger.Info("metrics server listening", "address", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = metricsServer.Close()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
