package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads, parses, and validates configuration from a YAML file.
// Environment variables override file values, and defaults are applied
// for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse parses configuration from YAML bytes, applies environment
// overrides and defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	// Booleans that default to true are pre-set here; YAML only
	// overwrites fields the file actually declares.
	cfg := &Config{}
	cfg.Guard.ValidIfNone = true
	cfg.Audit.Enabled = true
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Health.Enabled = true

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies CALLISTO_* environment variable overrides.
// Environment values always win over file values.
func applyEnvOverrides(cfg *Config) {
	overrideString("CALLISTO_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	overrideDuration("CALLISTO_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	overrideBool("CALLISTO_GUARD_VALID_IF_NONE", &cfg.Guard.ValidIfNone)
	overrideBool("CALLISTO_GUARD_DEV_MODE", &cfg.Guard.DevMode)
	overrideString("CALLISTO_GUARD_REDIRECT_TO_IF_DISABLED", &cfg.Guard.RedirectToIfDisabled)

	overrideString("CALLISTO_FLAGS_REGISTRY_PATH", &cfg.Flags.RegistryPath)
	overrideBool("CALLISTO_FLAGS_WATCH", &cfg.Flags.Watch)
	overrideBool("CALLISTO_FLAGS_OVERRIDES_ENABLED", &cfg.Flags.Overrides.Enabled)
	overrideString("CALLISTO_FLAGS_OVERRIDES_PATH", &cfg.Flags.Overrides.Path)

	overrideBool("CALLISTO_AUDIT_ENABLED", &cfg.Audit.Enabled)
	overrideString("CALLISTO_AUDIT_BACKEND", &cfg.Audit.Backend)
	overrideString("CALLISTO_AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)

	overrideString("CALLISTO_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	overrideString("CALLISTO_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	overrideBool("CALLISTO_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
}

func overrideString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func overrideDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
