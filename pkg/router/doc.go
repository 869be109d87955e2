// Package router provides the routing surface the guard evaluates against:
// the route table built from configuration, and the URL parsing facility
// that turns redirect targets into canonical navigation URLs.
//
// The package owns no navigation logic itself. It answers two questions:
// which configured route (if any) a request path belongs to, and what the
// normalized form of a navigation target is. The decision about whether a
// matched route may be activated belongs to package guard.
package router
