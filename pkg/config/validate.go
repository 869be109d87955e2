package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for errors. It returns the first
// problem found, named by its configuration path.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateGuard(&cfg.Guard); err != nil {
		return err
	}
	if err := validateRoutes(cfg.Routes); err != nil {
		return err
	}
	if err := validateFlags(&cfg.Flags); err != nil {
		return err
	}
	if err := validateAudit(&cfg.Audit); err != nil {
		return err
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return err
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.ListenAddress == "" {
		return fmt.Errorf("server.listen_address is required")
	}
	if cfg.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must not be negative")
	}
	if cfg.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must not be negative")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

func validateGuard(cfg *GuardConfig) error {
	if cfg.Keys.FeatureFlag == "" {
		return fmt.Errorf("guard.keys.feature_flag is required")
	}
	if cfg.Keys.RedirectToIfDisabled == "" {
		return fmt.Errorf("guard.keys.redirect_to_if_disabled is required")
	}
	if cfg.Keys.FeatureFlag == cfg.Keys.RedirectToIfDisabled {
		return fmt.Errorf("guard.keys.feature_flag and guard.keys.redirect_to_if_disabled must differ")
	}
	return nil
}

func validateRoutes(routes []RouteConfig) error {
	seen := make(map[string]bool, len(routes))
	for i, route := range routes {
		if route.Path == "" {
			return fmt.Errorf("routes[%d].path is required", i)
		}
		if route.Path[0] != '/' {
			return fmt.Errorf("routes[%d].path %q must begin with /", i, route.Path)
		}
		if seen[route.Path] {
			return fmt.Errorf("routes[%d].path %q is declared twice", i, route.Path)
		}
		seen[route.Path] = true
	}
	return nil
}

func validateFlags(cfg *FlagsConfig) error {
	if cfg.RegistryPath == "" {
		return fmt.Errorf("flags.registry_path is required")
	}
	if cfg.DebounceInterval < 0 {
		return fmt.Errorf("flags.debounce_interval must not be negative")
	}
	if cfg.Overrides.Enabled && cfg.Overrides.Path == "" {
		return fmt.Errorf("flags.overrides.path is required when overrides are enabled")
	}
	return nil
}

func validateAudit(cfg *AuditConfig) error {
	if !cfg.Enabled {
		return nil
	}
	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			return fmt.Errorf("audit.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("audit.backend must be one of: memory, sqlite (got %q)", cfg.Backend)
	}
	if cfg.AsyncBuffer <= 0 {
		return fmt.Errorf("audit.async_buffer must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("audit.write_timeout must be positive")
	}
	if cfg.Retention.Days < 0 {
		return fmt.Errorf("audit.retention.days must not be negative")
	}
	if cfg.Retention.MaxRecords < 0 {
		return fmt.Errorf("audit.retention.max_records must not be negative")
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			return fmt.Errorf("audit.retention.prune_schedule is not a valid cron expression: %w", err)
		}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format must be one of: json, text (got %q)", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		return fmt.Errorf("telemetry.metrics.path is required when metrics are enabled")
	}
	return nil
}
