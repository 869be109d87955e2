// Package telemetry groups Callisto's observability subsystems: structured
// logging, Prometheus metrics, and health check endpoints.
package telemetry
