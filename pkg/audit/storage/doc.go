// Package storage provides audit trail storage backends: an in-memory
// ring suitable for development and tests, and a SQLite backend for
// durable trails.
package storage
