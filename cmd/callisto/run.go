package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/audit"
	"mercator-hq/callisto/pkg/audit/storage"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/flags"
	"mercator-hq/callisto/pkg/guard"
	"mercator-hq/callisto/pkg/router"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/server/middleware"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the route guard server",
	Long: `Start the route guard server with the specified configuration.

The server evaluates every request against the guarded route table: routes
whose feature flag is enabled pass through, disabled routes are denied or
redirected, and every decision lands in the audit trail.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:8080

  # Validate config without starting server
  callisto run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Flag service: YAML registry, optionally hot-reloaded, optionally
	// layered under persistent overrides.
	fileSvc, err := flags.NewFileService(flags.FileServiceConfig{
		Path:             cfg.Flags.RegistryPath,
		DebounceInterval: cfg.Flags.DebounceInterval,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to load flag registry: %w", err)
	}

	if cfg.Flags.Watch {
		go func() {
			if err := fileSvc.Watch(ctx); err != nil {
				logger.Error("flag registry watcher exited", "error", err)
			}
		}()
	}

	var flagSvc guard.FlagService = fileSvc
	if cfg.Flags.Overrides.Enabled {
		store, err := flags.NewOverrideStore(cfg.Flags.Overrides.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to open override store: %w", err)
		}
		defer store.Close()
		flagSvc = flags.NewOverlayService(store, fileSvc, logger)
	}

	// Route table
	table, err := buildRoutes(cfg.Routes)
	if err != nil {
		return err
	}

	// Guard
	g, err := guard.New(&guard.Config{
		Keys: guard.Keys{
			FeatureFlag:          cfg.Guard.Keys.FeatureFlag,
			RedirectToIfDisabled: cfg.Guard.Keys.RedirectToIfDisabled,
		},
		ValidIfNone:          cfg.Guard.ValidIfNone,
		RedirectToIfDisabled: cfg.Guard.RedirectToIfDisabled,
	}, flagSvc, fileSvc.Registry(), router.NewParser(), guard.Options{
		Logger:  logger,
		DevMode: cfg.Guard.DevMode,
	})
	if err != nil {
		return err
	}

	// Telemetry
	collector := metrics.NewCollector(metrics.Config{
		Enabled:   cfg.Telemetry.Metrics.Enabled,
		Namespace: cfg.Telemetry.Metrics.Namespace,
	}, nil)
	collector.SetRegistrySize(fileSvc.Registry().Len())

	checker := health.NewChecker(health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
	})

	// Audit trail
	var recorder *audit.Recorder
	var scheduler *audit.Scheduler
	if cfg.Audit.Enabled {
		var store audit.Store
		switch cfg.Audit.Backend {
		case "sqlite":
			store, err = storage.NewSQLiteStore(storage.SQLiteConfig{
				Path:         cfg.Audit.SQLite.Path,
				MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
				MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
				BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to open audit store: %w", err)
			}
		default:
			store = storage.NewMemoryStore()
		}
		defer store.Close()

		recorder, err = audit.NewRecorder(store, audit.RecorderConfig{
			BufferSize:   cfg.Audit.AsyncBuffer,
			WriteTimeout: cfg.Audit.WriteTimeout,
		}, logger)
		if err != nil {
			return err
		}
		defer recorder.Close()

		recorder.SetWriteErrorHook(collector.RecordAuditFailure)
		recorder.SetDropHook(collector.RecordAuditDropped)

		if cfg.Audit.Retention.PruneSchedule != "" &&
			(cfg.Audit.Retention.Days > 0 || cfg.Audit.Retention.MaxRecords > 0) {
			pruner := audit.NewPruner(store, audit.PrunePolicy{
				RetentionDays: cfg.Audit.Retention.Days,
				MaxRecords:    cfg.Audit.Retention.MaxRecords,
			}, logger)
			scheduler, err = audit.NewScheduler(pruner, cfg.Audit.Retention.PruneSchedule, logger)
			if err != nil {
				return err
			}
			if err := scheduler.Start(); err != nil {
				return err
			}
			defer scheduler.Stop()
		}
	}

	handler := buildHandler(cfg, g, table, recorder, collector, checker, logger)

	srv, err := server.New(server.Config{
		ListenAddress:   cfg.Server.ListenAddress,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxHeaderBytes:  cfg.Server.MaxHeaderBytes,
	}, handler, logger)
	if err != nil {
		return err
	}

	logger.Info("starting callisto",
		"version", Version,
		"routes", table.Len(),
		"flags", fileSvc.Registry().Len(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	checker.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	checker.SetReady(false)
	return srv.Shutdown(context.Background())
}

// buildRoutes converts configured routes into the canonical route table.
func buildRoutes(configured []config.RouteConfig) (*router.Table, error) {
	routes := make([]*router.Route, 0, len(configured))
	for _, rc := range configured {
		routes = append(routes, &router.Route{
			Path: rc.Path,
			Data: rc.Data,
		})
	}
	table, err := router.NewTable(routes)
	if err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}
	return table, nil
}

// buildHandler assembles the middleware chain and operational endpoints.
func buildHandler(
	cfg *config.Config,
	g *guard.Guard,
	table *router.Table,
	recorder *audit.Recorder,
	collector *metrics.Collector,
	checker *health.Checker,
	logger *slog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	if cfg.Telemetry.Metrics.Enabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
	}
	if cfg.Telemetry.Health.Enabled {
		mux.Handle(cfg.Telemetry.Health.LivenessPath, checker.LivenessHandler())
		mux.Handle(cfg.Telemetry.Health.ReadinessPath, checker.ReadinessHandler())
		mux.Handle(cfg.Telemetry.Health.VersionPath, checker.VersionHandler())
	}

	guardMW := middleware.NewGuard(g, table, recorder, collector, logger)
	mux.Handle("/", guardMW.Wrap(http.HandlerFunc(serveRoute)))

	var handler http.Handler = mux
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)
	return handler
}

// serveRoute answers for navigations the guard allowed.
func serveRoute(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"path":   r.URL.Path,
		"status": "ok",
	})
}
