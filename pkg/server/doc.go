// Package server hosts the route guard behind an HTTP front: guarded
// routes, the metrics endpoint, and health checks, with graceful
// shutdown.
package server
