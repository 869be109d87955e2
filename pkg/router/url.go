package router

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// CanonicalURL is the normalized internal representation of a navigation
// target. Two targets that navigate to the same place always produce the
// same CanonicalURL, regardless of how they were written (trailing slashes,
// dot segments, query parameter order).
type CanonicalURL struct {
	// Path is the cleaned absolute path (always starts with "/").
	Path string

	// RawQuery is the encoded query string with parameters in sorted order.
	// Empty if the target has no query.
	RawQuery string

	// Fragment is the URL fragment without the leading "#".
	// Empty if the target has no fragment.
	Fragment string
}

// String returns the canonical string form of the URL.
func (u *CanonicalURL) String() string {
	var b strings.Builder
	b.WriteString(u.Path)
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

// Parser converts navigation targets into canonical URLs.
// It is stateless and safe for concurrent use; parsing is deterministic
// for a given input.
type Parser struct{}

// NewParser creates a new URL parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseURL parses a navigation target into its canonical representation.
//
// Targets are application-internal paths (e.g. "/upgrade",
// "settings/billing?tab=plan"). Targets carrying a scheme or host are
// rejected: the guard only redirects within the application.
func (p *Parser) ParseURL(target string) (*CanonicalURL, error) {
	if target == "" {
		return nil, fmt.Errorf("empty navigation target")
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("failed to parse navigation target %q: %w", target, err)
	}

	if u.Scheme != "" || u.Host != "" {
		return nil, fmt.Errorf("navigation target %q is not application-internal", target)
	}

	return &CanonicalURL{
		Path:     canonicalPath(u.Path),
		RawQuery: u.Query().Encode(),
		Fragment: u.Fragment,
	}, nil
}

// canonicalPath cleans a path and forces it to be absolute.
func canonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
