// Package middleware provides the HTTP middleware chain for guarded
// routes: panic recovery, request IDs, request logging, and the guard
// itself, which turns navigation decisions into HTTP responses.
package middleware
