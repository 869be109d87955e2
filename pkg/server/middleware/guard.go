package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/audit"
	"mercator-hq/callisto/pkg/guard"
	"mercator-hq/callisto/pkg/router"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// Guard gates requests through the route guard. Requests whose path
// matches a guarded route are evaluated before reaching the next
// handler: allowed navigations proceed, denials get 403, redirects get
// 302 to the canonical URL. Paths outside the route table pass through
// untouched.
//
// Asynchronous guard outcomes are awaited with the request's context, so
// a client hanging up abandons the evaluation.
type Guard struct {
	guard    *guard.Guard
	table    *router.Table
	recorder *audit.Recorder
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewGuard creates the guard middleware. recorder and collector may be
// nil to disable auditing and metrics.
func NewGuard(g *guard.Guard, table *router.Table, recorder *audit.Recorder, collector *metrics.Collector, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		guard:    g,
		table:    table,
		recorder: recorder,
		metrics:  collector,
		logger:   logger.With("component", "middleware.guard"),
	}
}

// Wrap returns next gated by the guard.
func (m *Guard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := m.table.Match(r.URL.Path)
		if route == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		outcome, err := m.guard.Evaluate(r.Context(), route)
		if err != nil {
			m.fail(w, r, route, err, time.Since(start))
			return
		}

		m.metrics.RecordFlagResult(outcome.Kind.String())

		decision, err := outcome.Resolve(r.Context())
		if err != nil {
			m.fail(w, r, route, err, time.Since(start))
			return
		}

		elapsed := time.Since(start)
		switch {
		case decision.Allowed:
			m.record(route, audit.OutcomeAllowed, "", "", elapsed)
			m.metrics.RecordDecision(string(audit.OutcomeAllowed), elapsed)
			next.ServeHTTP(w, r)

		case decision.IsRedirect():
			target := decision.Redirect.String()
			m.record(route, audit.OutcomeRedirected, target, "", elapsed)
			m.metrics.RecordDecision(string(audit.OutcomeRedirected), elapsed)
			http.Redirect(w, r, target, http.StatusFound)

		default:
			m.record(route, audit.OutcomeDenied, "", "", elapsed)
			m.metrics.RecordDecision(string(audit.OutcomeDenied), elapsed)
			http.Error(w, "forbidden", http.StatusForbidden)
		}
	})
}

// fail responds to an evaluation error. Guard errors are configuration
// or contract defects, never user error, so they surface as 500.
func (m *Guard) fail(w http.ResponseWriter, r *http.Request, route *router.Route, err error, elapsed time.Duration) {
	var cfgErr *guard.ConfigurationError
	var typeErr *guard.UnhandledResultTypeError

	class := "other"
	switch {
	case errors.As(err, &cfgErr):
		class = "configuration"
	case errors.As(err, &typeErr):
		class = "unhandled_result"
	}

	logging.FromContext(r.Context(), m.logger).Error("guard evaluation failed",
		"path", route.Path,
		"class", class,
		"error", err,
	)

	m.record(route, audit.OutcomeError, "", err.Error(), elapsed)
	m.metrics.RecordEvalError(class)
	m.metrics.RecordDecision(string(audit.OutcomeError), elapsed)

	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (m *Guard) record(route *router.Route, outcome audit.Outcome, redirectTo, detail string, elapsed time.Duration) {
	if m.recorder == nil {
		return
	}

	flag := ""
	if v, ok := route.Meta(m.guard.Keys().FeatureFlag).(string); ok {
		flag = v
	}

	m.recorder.Record(&audit.DecisionRecord{
		RoutePath:  route.Path,
		Flag:       flag,
		Outcome:    outcome,
		RedirectTo: redirectTo,
		Detail:     detail,
		Duration:   elapsed,
	})
}
