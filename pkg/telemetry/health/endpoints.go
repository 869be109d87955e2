package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// VersionInfo identifies the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// Checker serves liveness, readiness, and version endpoints.
// Liveness is unconditional; readiness flips once startup completes and
// can be withdrawn during shutdown so load balancers drain traffic first.
type Checker struct {
	version VersionInfo
	ready   atomic.Bool
	started time.Time
}

// NewChecker creates a checker. It reports not-ready until SetReady is
// called.
func NewChecker(version VersionInfo) *Checker {
	return &Checker{
		version: version,
		started: time.Now(),
	}
}

// SetReady marks the process ready (or not) to serve traffic.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// Ready reports whether the process is ready.
func (c *Checker) Ready() bool {
	return c.ready.Load()
}

// LivenessHandler responds 200 whenever the process is running.
func (c *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"uptime_seconds": int64(time.Since(c.started).Seconds()),
		})
	})
}

// ReadinessHandler responds 200 when ready, 503 otherwise.
func (c *Checker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !c.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})
}

// VersionHandler responds with build information.
func (c *Checker) VersionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, c.version)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
