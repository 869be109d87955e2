package guard

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/callisto/pkg/flags"
	"mercator-hq/callisto/pkg/router"
)

// Config is the guard's routing configuration.
// It is constructed once at startup, never mutated afterwards, and shared
// by reference across all evaluations.
type Config struct {
	// Keys names the route metadata keys the guard reads.
	Keys Keys

	// ValidIfNone is the decision for routes that declare no feature
	// flag: true allows them, false denies them.
	ValidIfNone bool

	// RedirectToIfDisabled is the default redirect target for routes
	// whose flag is disabled. Routes may override it per-route via
	// Keys.RedirectToIfDisabled. Empty means no default redirect.
	RedirectToIfDisabled string
}

// Keys names the route metadata keys the guard reads.
type Keys struct {
	// FeatureFlag is the metadata key holding a route's flag name.
	FeatureFlag string

	// RedirectToIfDisabled is the metadata key holding a route's
	// redirect target override.
	RedirectToIfDisabled string
}

// FlagService answers whether a feature flag is enabled.
// Satisfied by the implementations in package flags.
type FlagService interface {
	IsEnabled(ctx context.Context, flag flags.Flag) flags.Result
}

// FlagRegistry recognizes valid feature-flag names.
// A metadata value must pass Contains before being used as a lookup key.
type FlagRegistry interface {
	Contains(flag flags.Flag) bool
}

// URLParser resolves redirect targets into canonical URLs.
// Satisfied by *router.Parser.
type URLParser interface {
	ParseURL(target string) (*router.CanonicalURL, error)
}

// Options contains optional guard settings.
type Options struct {
	// Logger receives the guard's advisory diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger

	// DevMode enables the advisory warning for routes that declare no
	// feature flag while ValidIfNone is false. The warning is diagnostic
	// only and never affects a decision.
	// Default: false
	DevMode bool
}

// Guard evaluates whether a navigation to a route should be permitted,
// based on the feature flag declared in the route's metadata.
//
// Guard is stateless and safe for concurrent use: every evaluation is
// computed fresh from its inputs, and identical inputs yield identical
// decisions.
type Guard struct {
	cfg      *Config
	flags    FlagService
	registry FlagRegistry
	urls     URLParser
	logger   *slog.Logger
	devMode  bool
}

// New creates a guard with explicit collaborators.
func New(cfg *Config, svc FlagService, registry FlagRegistry, urls URLParser, opts Options) (*Guard, error) {
	if cfg == nil {
		return nil, fmt.Errorf("guard config is required")
	}
	if cfg.Keys.FeatureFlag == "" {
		return nil, fmt.Errorf("guard config: feature flag metadata key is required")
	}
	if svc == nil {
		return nil, fmt.Errorf("flag service is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("flag registry is required")
	}
	if urls == nil {
		return nil, fmt.Errorf("url parser is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Guard{
		cfg:      cfg,
		flags:    svc,
		registry: registry,
		urls:     urls,
		logger:   logger.With("component", "guard"),
		devMode:  opts.DevMode,
	}, nil
}

// Keys returns the metadata keys the guard reads.
func (g *Guard) Keys() Keys {
	return g.cfg.Keys
}

// Evaluate decides whether navigation to route may proceed.
//
// The decision sequence:
//  1. Routes declaring no feature flag (key absent or falsy) resolve
//     synchronously to ValidIfNone; the flag service is not consulted.
//  2. A declared flag the registry does not recognize is a
//     ConfigurationError, raised before the flag service is consulted.
//  3. Otherwise the flag service is asked; its answer's synchronicity
//     class (boolean, deferred, stream) is preserved in the outcome.
//  4. If a redirect target is configured — the route's own override
//     first, the config default second — a disabled flag becomes a
//     redirect to the target's canonical URL instead of a deny.
//
// Evaluate never blocks; asynchronous answers are transformed by
// attaching a continuation for the caller to await. Errors are never
// mapped to a decision.
func (g *Guard) Evaluate(ctx context.Context, route *router.Route) (*Outcome, error) {
	raw := route.Meta(g.cfg.Keys.FeatureFlag)

	// Absent and explicitly falsy values are treated the same: the
	// route is not flag-gated.
	if !truthy(raw) {
		if g.devMode && !g.cfg.ValidIfNone {
			g.logger.Warn("route declares no feature flag and will be denied",
				"path", route.Path,
				"key", g.cfg.Keys.FeatureFlag,
			)
		}
		if g.cfg.ValidIfNone {
			return SyncOutcome(Allow()), nil
		}
		return SyncOutcome(Deny()), nil
	}

	name, ok := raw.(string)
	if !ok || !g.registry.Contains(flags.Flag(name)) {
		return nil, &ConfigurationError{
			RoutePath: route.Path,
			Key:       g.cfg.Keys.FeatureFlag,
			Value:     fmt.Sprintf("%v", raw),
		}
	}

	result := g.flags.IsEnabled(ctx, flags.Flag(name))

	redirect, err := g.redirectFor(route)
	if err != nil {
		return nil, err
	}

	substitute := func(enabled bool) Decision {
		if enabled {
			return Allow()
		}
		if redirect == nil {
			return Deny()
		}
		return RedirectTo(redirect)
	}

	switch result.Kind {
	case flags.KindBool:
		return SyncOutcome(substitute(result.Bool)), nil
	case flags.KindDeferred:
		return DeferredOutcome(newDeferredDecision(result.Deferred, substitute)), nil
	case flags.KindStream:
		return StreamOutcome(newDecisionStream(result.Stream, substitute)), nil
	default:
		return nil, &UnhandledResultTypeError{RoutePath: route.Path, Kind: result.Kind}
	}
}

// redirectFor resolves the redirect target for a route: the route's own
// metadata override wins over the config default. Returns nil when
// neither is configured.
func (g *Guard) redirectFor(route *router.Route) (*router.CanonicalURL, error) {
	target := g.cfg.RedirectToIfDisabled

	if g.cfg.Keys.RedirectToIfDisabled != "" {
		if raw := route.Meta(g.cfg.Keys.RedirectToIfDisabled); truthy(raw) {
			s, ok := raw.(string)
			if !ok {
				return nil, &ConfigurationError{
					RoutePath: route.Path,
					Key:       g.cfg.Keys.RedirectToIfDisabled,
					Value:     fmt.Sprintf("%v", raw),
				}
			}
			target = s
		}
	}

	if target == "" {
		return nil, nil
	}

	u, err := g.urls.ParseURL(target)
	if err != nil {
		return nil, &ConfigurationError{
			RoutePath: route.Path,
			Key:       g.cfg.Keys.RedirectToIfDisabled,
			Value:     target,
			Cause:     err,
		}
	}
	return u, nil
}

// truthy reports whether a metadata value counts as present.
// Absent keys, empty strings, false booleans, and zero numbers are all
// treated as "no value declared".
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
