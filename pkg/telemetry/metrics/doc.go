// Package metrics collects Prometheus metrics for the route guard: the
// decisions it makes, how long evaluations take, what result shapes the
// flag service produces, and audit trail health.
package metrics
