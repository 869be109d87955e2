package guard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/callisto/pkg/flags"
	"mercator-hq/callisto/pkg/router"
)

// countingService answers with a fixed result and counts how often it is
// consulted.
type countingService struct {
	result flags.Result
	calls  int
}

func (s *countingService) IsEnabled(_ context.Context, _ flags.Flag) flags.Result {
	s.calls++
	return s.result
}

func testRegistry(t *testing.T, names ...flags.Flag) *flags.Registry {
	t.Helper()
	defs := make(map[flags.Flag]flags.Definition, len(names))
	for _, name := range names {
		defs[name] = flags.Definition{State: flags.StateEnabled}
	}
	return flags.NewRegistry(defs)
}

func testGuard(t *testing.T, cfg *Config, svc FlagService, registry FlagRegistry) *Guard {
	t.Helper()
	g, err := New(cfg, svc, registry, router.NewParser(), Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func route(path string, data map[string]any) *router.Route {
	return &router.Route{Path: path, Data: data}
}

func defaultConfig() *Config {
	return &Config{
		Keys: Keys{
			FeatureFlag:          "featureFlag",
			RedirectToIfDisabled: "redirectToIfDisabled",
		},
		ValidIfNone: true,
	}
}

func TestEvaluateNoFlagDeclared(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		validIfNone bool
		wantAllowed bool
	}{
		{
			name:        "no metadata valid if none",
			data:        nil,
			validIfNone: true,
			wantAllowed: true,
		},
		{
			name:        "no metadata invalid if none",
			data:        nil,
			validIfNone: false,
			wantAllowed: false,
		},
		{
			name:        "key absent",
			data:        map[string]any{"title": "Reports"},
			validIfNone: true,
			wantAllowed: true,
		},
		{
			name:        "empty string value",
			data:        map[string]any{"featureFlag": ""},
			validIfNone: false,
			wantAllowed: false,
		},
		{
			name:        "false value",
			data:        map[string]any{"featureFlag": false},
			validIfNone: true,
			wantAllowed: true,
		},
		{
			name:        "zero value",
			data:        map[string]any{"featureFlag": 0},
			validIfNone: false,
			wantAllowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.ValidIfNone = tt.validIfNone
			svc := &countingService{result: flags.BoolResult(true)}
			g := testGuard(t, cfg, svc, testRegistry(t))

			outcome, err := g.Evaluate(context.Background(), route("/reports", tt.data))
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if outcome.Kind != OutcomeSync {
				t.Errorf("Kind = %v, want sync", outcome.Kind)
			}
			if outcome.Decision.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", outcome.Decision.Allowed, tt.wantAllowed)
			}
			if svc.calls != 0 {
				t.Errorf("flag service consulted %d times, want 0", svc.calls)
			}
		})
	}
}

func TestEvaluateUnknownFlagIsConfigurationError(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{
			name: "flag not in registry",
			data: map[string]any{"featureFlag": "no-such-flag"},
		},
		{
			name: "non-string truthy value",
			data: map[string]any{"featureFlag": 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &countingService{result: flags.BoolResult(true)}
			g := testGuard(t, defaultConfig(), svc, testRegistry(t, "beta-reports"))

			outcome, err := g.Evaluate(context.Background(), route("/reports", tt.data))
			if outcome != nil {
				t.Errorf("outcome = %+v, want nil", outcome)
			}

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %v, want ConfigurationError", err)
			}
			if cfgErr.RoutePath != "/reports" {
				t.Errorf("RoutePath = %q, want /reports", cfgErr.RoutePath)
			}
			if svc.calls != 0 {
				t.Errorf("flag service consulted %d times, want 0", svc.calls)
			}
		})
	}
}

func TestEvaluateBooleanResult(t *testing.T) {
	tests := []struct {
		name            string
		enabled         bool
		defaultRedirect string
		routeData       map[string]any
		wantAllowed     bool
		wantRedirect    string
	}{
		{
			name:        "enabled allows",
			enabled:     true,
			wantAllowed: true,
		},
		{
			name:        "disabled denies without redirect",
			enabled:     false,
			wantAllowed: false,
		},
		{
			name:            "disabled redirects to config default",
			enabled:         false,
			defaultRedirect: "/upgrade",
			wantRedirect:    "/upgrade",
		},
		{
			name:            "enabled ignores redirect target",
			enabled:         true,
			defaultRedirect: "/upgrade",
			wantAllowed:     true,
		},
		{
			name:            "route override wins over config default",
			enabled:         false,
			defaultRedirect: "/upgrade",
			routeData:       map[string]any{"redirectToIfDisabled": "/plans"},
			wantRedirect:    "/plans",
		},
		{
			name:         "redirect target is canonicalized",
			enabled:      false,
			routeData:    map[string]any{"redirectToIfDisabled": "upgrade//pro/?b=2&a=1"},
			wantRedirect: "/upgrade/pro?a=1&b=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.RedirectToIfDisabled = tt.defaultRedirect

			data := map[string]any{"featureFlag": "beta-reports"}
			for k, v := range tt.routeData {
				data[k] = v
			}

			svc := &countingService{result: flags.BoolResult(tt.enabled)}
			g := testGuard(t, cfg, svc, testRegistry(t, "beta-reports"))

			outcome, err := g.Evaluate(context.Background(), route("/reports", data))
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if outcome.Kind != OutcomeSync {
				t.Fatalf("Kind = %v, want sync", outcome.Kind)
			}
			if svc.calls != 1 {
				t.Errorf("flag service consulted %d times, want 1", svc.calls)
			}

			d := outcome.Decision
			if d.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.wantAllowed)
			}
			if tt.wantRedirect == "" {
				if d.Redirect != nil {
					t.Errorf("Redirect = %v, want nil", d.Redirect)
				}
			} else {
				if d.Redirect == nil {
					t.Fatalf("Redirect = nil, want %q", tt.wantRedirect)
				}
				if got := d.Redirect.String(); got != tt.wantRedirect {
					t.Errorf("Redirect = %q, want %q", got, tt.wantRedirect)
				}
			}
		})
	}
}

func TestEvaluateBadRedirectTarget(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{
			name: "non-string override",
			data: map[string]any{
				"featureFlag":          "beta-reports",
				"redirectToIfDisabled": true,
			},
		},
		{
			name: "external target",
			data: map[string]any{
				"featureFlag":          "beta-reports",
				"redirectToIfDisabled": "https://example.com/upgrade",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &countingService{result: flags.BoolResult(false)}
			g := testGuard(t, defaultConfig(), svc, testRegistry(t, "beta-reports"))

			_, err := g.Evaluate(context.Background(), route("/reports", tt.data))

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %v, want ConfigurationError", err)
			}
			if cfgErr.Key != "redirectToIfDisabled" {
				t.Errorf("Key = %q, want redirectToIfDisabled", cfgErr.Key)
			}
		})
	}
}

func TestEvaluatePreservesDeferredShape(t *testing.T) {
	d := flags.NewDeferred()
	svc := &countingService{result: flags.DeferredResult(d)}
	cfg := defaultConfig()
	cfg.RedirectToIfDisabled = "/upgrade"
	g := testGuard(t, cfg, svc, testRegistry(t, "beta-reports"))

	outcome, err := g.Evaluate(context.Background(),
		route("/reports", map[string]any{"featureFlag": "beta-reports"}))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if outcome.Kind != OutcomeDeferred {
		t.Fatalf("Kind = %v, want deferred", outcome.Kind)
	}

	// Evaluate returned before the flag resolved; resolve now and await.
	d.Resolve(false)

	decision, err := outcome.Deferred.Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if !decision.IsRedirect() {
		t.Fatalf("decision = %+v, want redirect", decision)
	}
	if got := decision.Redirect.String(); got != "/upgrade" {
		t.Errorf("Redirect = %q, want /upgrade", got)
	}
}

func TestEvaluatePreservesStreamShape(t *testing.T) {
	svc := &countingService{result: flags.StreamResult(flags.CompletedStream(true))}
	g := testGuard(t, defaultConfig(), svc, testRegistry(t, "beta-reports"))

	outcome, err := g.Evaluate(context.Background(),
		route("/reports", map[string]any{"featureFlag": "beta-reports"}))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if outcome.Kind != OutcomeStream {
		t.Fatalf("Kind = %v, want stream", outcome.Kind)
	}

	decision, ok, err := outcome.Stream.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !ok {
		t.Fatal("Next() ok = false, want emission")
	}
	if !decision.Allowed {
		t.Errorf("Allowed = false, want true")
	}

	// The stream completes after its single emission.
	if _, ok, err := outcome.Stream.Next(context.Background()); err != nil || ok {
		t.Errorf("second Next() = (ok=%v, err=%v), want completed", ok, err)
	}
}

func TestEvaluateUnhandledResultType(t *testing.T) {
	// A zero-valued Result models a service that violated its contract.
	svc := &countingService{result: flags.Result{}}
	g := testGuard(t, defaultConfig(), svc, testRegistry(t, "beta-reports"))

	_, err := g.Evaluate(context.Background(),
		route("/reports", map[string]any{"featureFlag": "beta-reports"}))

	var typeErr *UnhandledResultTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("error = %v, want UnhandledResultTypeError", err)
	}
	if typeErr.RoutePath != "/reports" {
		t.Errorf("RoutePath = %q, want /reports", typeErr.RoutePath)
	}
	if !strings.Contains(typeErr.Error(), "invalid") {
		t.Errorf("Error() = %q, want the offending kind named", typeErr.Error())
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	svc := &countingService{result: flags.BoolResult(true)}
	g := testGuard(t, defaultConfig(), svc, testRegistry(t, "beta-reports"))
	r := route("/reports", map[string]any{"featureFlag": "beta-reports"})

	first, err := g.Evaluate(context.Background(), r)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	second, err := g.Evaluate(context.Background(), r)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if first.Decision != second.Decision {
		t.Errorf("decisions differ: %+v vs %+v", first.Decision, second.Decision)
	}
}

func TestEvaluateDevModeAdvisoryWarning(t *testing.T) {
	tests := []struct {
		name        string
		devMode     bool
		validIfNone bool
		wantWarning bool
	}{
		{
			name:        "dev mode with denying default warns",
			devMode:     true,
			validIfNone: false,
			wantWarning: true,
		},
		{
			name:        "dev mode with allowing default stays quiet",
			devMode:     true,
			validIfNone: true,
			wantWarning: false,
		},
		{
			name:        "production stays quiet",
			devMode:     false,
			validIfNone: false,
			wantWarning: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			cfg := defaultConfig()
			cfg.ValidIfNone = tt.validIfNone
			svc := &countingService{result: flags.BoolResult(true)}
			g, err := New(cfg, svc, testRegistry(t), router.NewParser(), Options{
				Logger:  logger,
				DevMode: tt.devMode,
			})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			outcome, err := g.Evaluate(context.Background(), route("/reports", nil))
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}

			// The warning never changes the decision.
			if outcome.Decision.Allowed != tt.validIfNone {
				t.Errorf("Allowed = %v, want %v", outcome.Decision.Allowed, tt.validIfNone)
			}

			logged := strings.Contains(buf.String(), "declares no feature flag")
			if logged != tt.wantWarning {
				t.Errorf("warning logged = %v, want %v (log: %s)", logged, tt.wantWarning, buf.String())
			}
		})
	}
}

func TestNewValidatesCollaborators(t *testing.T) {
	registry := testRegistry(t)
	svc := &countingService{}
	parser := router.NewParser()

	tests := []struct {
		name     string
		cfg      *Config
		svc      FlagService
		registry FlagRegistry
		urls     URLParser
	}{
		{name: "nil config", cfg: nil, svc: svc, registry: registry, urls: parser},
		{name: "empty flag key", cfg: &Config{}, svc: svc, registry: registry, urls: parser},
		{name: "nil service", cfg: defaultConfig(), svc: nil, registry: registry, urls: parser},
		{name: "nil registry", cfg: defaultConfig(), svc: svc, registry: nil, urls: parser},
		{name: "nil parser", cfg: defaultConfig(), svc: svc, registry: registry, urls: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.svc, tt.registry, tt.urls, Options{}); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}
