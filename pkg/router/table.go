package router

import (
	"fmt"
	"sort"
)

// Route is an externally owned descriptor of a navigable path.
// It carries a free-form metadata bag supplied by route configuration.
// Routes are read-only once the table is built; the guard never mutates them.
type Route struct {
	// Path is the route's navigation path (e.g. "/reports").
	Path string

	// Data is the route's metadata bag. Keys of interest to the guard
	// (the feature-flag key, the per-route redirect key) are configured
	// in the guard configuration, not hardcoded here.
	Data map[string]any
}

// Meta returns the metadata value for key, or nil if the route has no
// metadata or the key is absent.
func (r *Route) Meta(key string) any {
	if r.Data == nil {
		return nil
	}
	return r.Data[key]
}

// Table is an immutable lookup table of configured routes.
// Lookup is by exact canonical path. Table is safe for concurrent use.
type Table struct {
	routes map[string]*Route
}

// NewTable builds a route table from the given routes.
// Route paths are canonicalized before insertion; two routes that
// canonicalize to the same path are a configuration error.
func NewTable(routes []*Route) (*Table, error) {
	t := &Table{routes: make(map[string]*Route, len(routes))}

	for _, r := range routes {
		if r == nil {
			continue
		}
		p := canonicalPath(r.Path)
		if existing, ok := t.routes[p]; ok {
			return nil, fmt.Errorf("duplicate route path %q (declared as %q and %q)",
				p, existing.Path, r.Path)
		}
		t.routes[p] = r
	}

	return t, nil
}

// Match returns the route for the given request path, or nil if no route
// is configured for it. The path is canonicalized before lookup, so
// "/reports/" and "/reports" match the same route.
func (t *Table) Match(requestPath string) *Route {
	return t.routes[canonicalPath(requestPath)]
}

// Paths returns all configured route paths in sorted order.
func (t *Table) Paths() []string {
	paths := make([]string, 0, len(t.routes))
	for p := range t.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of configured routes.
func (t *Table) Len() int {
	return len(t.routes)
}
