package config

import "time"

// Config is the root configuration structure for Callisto.
// It contains all configuration sections for the HTTP server, the route
// guard, the route table, flag evaluation, the decision audit trail, and
// telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Guard contains the route guard's decision configuration: which
	// metadata keys it reads and how unflagged or disabled routes are
	// handled.
	Guard GuardConfig `yaml:"guard"`

	// Routes is the guarded route table. Each entry declares a path and
	// a free-form metadata bag.
	Routes []RouteConfig `yaml:"routes"`

	// Flags contains flag registry and override store configuration.
	Flags FlagsConfig `yaml:"flags"`

	// Audit contains decision audit trail configuration including
	// backend selection and retention.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains observability configuration: logging, metrics,
	// and health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire
	// request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// GuardConfig contains the route guard's decision configuration.
type GuardConfig struct {
	// Keys names the route metadata keys the guard reads.
	Keys GuardKeysConfig `yaml:"keys"`

	// ValidIfNone is the decision for routes declaring no feature flag:
	// true allows them, false denies them.
	// Default: true
	ValidIfNone bool `yaml:"valid_if_none"`

	// RedirectToIfDisabled is the default redirect target for routes
	// whose flag is disabled. Routes may override it via their own
	// metadata. Empty means disabled routes are denied, not redirected.
	RedirectToIfDisabled string `yaml:"redirect_to_if_disabled"`

	// DevMode enables advisory diagnostics for routes that declare no
	// feature flag while valid_if_none is false. Diagnostics never
	// affect decisions.
	// Default: false
	DevMode bool `yaml:"dev_mode"`
}

// GuardKeysConfig names the route metadata keys the guard reads.
type GuardKeysConfig struct {
	// FeatureFlag is the metadata key holding a route's flag name.
	// Default: "featureFlag"
	FeatureFlag string `yaml:"feature_flag"`

	// RedirectToIfDisabled is the metadata key holding a route's
	// redirect target override.
	// Default: "redirectToIfDisabled"
	RedirectToIfDisabled string `yaml:"redirect_to_if_disabled"`
}

// RouteConfig declares a single guarded route.
type RouteConfig struct {
	// Path is the route's navigation path (e.g., "/reports").
	Path string `yaml:"path"`

	// Data is the route's free-form metadata bag. The guard reads the
	// keys named in GuardKeysConfig; other keys are carried untouched.
	Data map[string]any `yaml:"data"`
}

// FlagsConfig contains flag registry and override store configuration.
type FlagsConfig struct {
	// RegistryPath is the path to the YAML flag registry file.
	// Default: "flags.yaml"
	RegistryPath string `yaml:"registry_path"`

	// Watch enables hot-reloading the registry when the file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period between detecting registry
	// file changes and reloading.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Overrides contains persistent override store configuration.
	Overrides OverridesConfig `yaml:"overrides"`
}

// OverridesConfig contains configuration for the persistent flag
// override store.
type OverridesConfig struct {
	// Enabled controls whether the override store is active. When
	// enabled, overrides take precedence over registry state and flag
	// answers become deferred.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file path for overrides.
	// Default: "data/overrides.db"
	Path string `yaml:"path"`
}

// AuditConfig contains decision audit trail configuration.
type AuditConfig struct {
	// Enabled controls whether guard decisions are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend specifies the audit storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite AuditSQLiteConfig `yaml:"sqlite"`

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// AuditSQLiteConfig contains SQLite-specific audit storage configuration.
type AuditSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains audit retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain decision records.
	// 0 means keep records forever (no pruning).
	// Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check endpoint configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "callisto"
	Namespace string `yaml:"namespace"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`
}
