// Package health exposes liveness, readiness, and version endpoints.
package health
