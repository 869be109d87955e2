// Package config defines the configuration model for Callisto and loads
// it from YAML with defaults, validation, and environment overrides.
//
// Configuration is loaded once at startup and treated as read-only
// afterwards; components receive the sections they need by reference.
// Environment variables follow the CALLISTO_SECTION_FIELD convention and
// always win over file values.
package config
