package config

import "time"

// DefaultConfig returns a configuration populated with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any unset configuration
// fields. Boolean fields that default to true are handled in Load, where
// the distinction between unset and explicitly-false is still visible.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyGuardDefaults(&cfg.Guard)
	applyFlagsDefaults(&cfg.Flags)
	applyAuditDefaults(&cfg.Audit)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = "127.0.0.1:8080"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MaxHeaderBytes == 0 {
		cfg.MaxHeaderBytes = 1 << 20
	}
}

func applyGuardDefaults(cfg *GuardConfig) {
	if cfg.Keys.FeatureFlag == "" {
		cfg.Keys.FeatureFlag = "featureFlag"
	}
	if cfg.Keys.RedirectToIfDisabled == "" {
		cfg.Keys.RedirectToIfDisabled = "redirectToIfDisabled"
	}
}

func applyFlagsDefaults(cfg *FlagsConfig) {
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = "flags.yaml"
	}
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.Overrides.Path == "" {
		cfg.Overrides.Path = "data/overrides.db"
	}
}

func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/audit.db"
	}
	if cfg.SQLite.MaxOpenConns == 0 {
		cfg.SQLite.MaxOpenConns = 10
	}
	if cfg.SQLite.MaxIdleConns == 0 {
		cfg.SQLite.MaxIdleConns = 5
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = 5 * time.Second
	}
	if cfg.AsyncBuffer == 0 {
		cfg.AsyncBuffer = 1000
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = 90
	}
	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = "0 3 * * *"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "callisto"
	}
	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = "/healthz"
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = "/readyz"
	}
	if cfg.Health.VersionPath == "" {
		cfg.Health.VersionPath = "/version"
	}
}
