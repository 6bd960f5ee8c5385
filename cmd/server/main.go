package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/damacus/r2-manager/internal/config"
	"github.com/damacus/r2-manager/internal/logger"
	"github.com/damacus/r2-manager/internal/metrics"
	"github.com/damacus/r2-manager/internal/middleware"
	"github.com/damacus/r2-manager/internal/services"
	"github.com/damacus/r2-manager/internal/storage"
	"github.com/damacus/r2-manager/internal/storage/miniostore"
	"github.com/damacus/r2-manager/internal/storage/s3store"
	"github.com/damacus/r2-manager/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "r2-manager",
		Short:        "Web file manager for a Cloudflare R2 or S3 bucket",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	var prefix string
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print the number and total size of the files under a prefix",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, configPath, prefix)
		},
	}
	stats.Flags().StringVar(&prefix, "prefix", "", "only count keys under this prefix")

	root.AddCommand(serve, stats)
	return root
}

func loadConfig(path string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

// openStore builds the configured driver.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverS3:
		return s3store.New(ctx, s3store.Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	default:
		return miniostore.New(miniostore.Config{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		store = metrics.New(reg).InstrumentStore(store)
	}

	var verifier middleware.TokenVerifier
	if cfg.AccessEnabled() {
		verifier = services.NewAccessVerifier(cfg.Access.TeamDomain, cfg.Access.Audience, cfg.Access.JWKSTTL, log)
	} else {
		log.Warn().Msg("cloudflare access is not configured; every request is served unauthenticated")
	}

	e, err := newServer(serverDeps{
		Config:   cfg,
		Store:    store,
		Verifier: verifier,
		Registry: reg,
		Log:      log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", cfg.Server.Address).
			Str("bucket", cfg.Storage.Bucket).
			Str("driver", cfg.Storage.Driver).
			Msg("server starting")
		errCh <- e.Start(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func runStats(cmd *cobra.Command, configPath, prefix string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	return printStats(cmd, services.NewLister(store, cfg.Storage.ListPageSize, log), prefix)
}

func printStats(cmd *cobra.Command, lister *services.Lister, prefix string) error {
	_, stats, err := lister.Inventory(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d files, %s\n", stats.TotalFiles, utils.FormatFileSize(stats.TotalSize))
	return err
}
