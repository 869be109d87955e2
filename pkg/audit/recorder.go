package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecorderConfig contains recorder configuration.
type RecorderConfig struct {
	// BufferSize is the size of the async write channel buffer.
	// Default: 1000
	BufferSize int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5s
	WriteTimeout time.Duration
}

// Recorder writes decision records to a store asynchronously.
// Record never blocks the caller: records are handed to a background
// worker over a buffered channel, and dropped (with a counter and a log
// line) when the buffer is full. The audit trail is advisory; a slow
// store must not slow down decisions.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	ch      chan *DecisionRecord
	timeout time.Duration

	mu      sync.Mutex
	closing bool
	dropped int64

	wg        sync.WaitGroup
	closeOnce sync.Once

	// metrics hooks, may be nil
	onWriteErr func()
	onDrop     func()
}

// NewRecorder creates a recorder writing to store and starts its
// background worker.
func NewRecorder(store Store, cfg RecorderConfig, logger *slog.Logger) (*Recorder, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		store:   store,
		logger:  logger.With("component", "audit.recorder"),
		ch:      make(chan *DecisionRecord, cfg.BufferSize),
		timeout: cfg.WriteTimeout,
	}

	r.wg.Add(1)
	go r.worker()

	return r, nil
}

// SetWriteErrorHook installs a callback invoked on every failed store
// write. Used to wire a metrics counter.
func (r *Recorder) SetWriteErrorHook(fn func()) {
	r.onWriteErr = fn
}

// SetDropHook installs a callback invoked on every record dropped by a
// full buffer. Used to wire a metrics counter.
func (r *Recorder) SetDropHook(fn func()) {
	r.onDrop = fn
}

// Record enqueues a decision record for asynchronous persistence.
// It assigns the record's ID and timestamp if unset and returns
// immediately; a full buffer drops the record.
func (r *Recorder) Record(record *DecisionRecord) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closing {
		return
	}

	select {
	case r.ch <- record:
	default:
		r.dropped++
		if r.onDrop != nil {
			r.onDrop()
		}
		r.logger.Warn("audit buffer full, record dropped",
			"route", record.RoutePath,
			"total_dropped", r.dropped,
		)
	}
}

// Dropped returns the number of records dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// worker drains the channel, writing each record with a bounded timeout.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for record := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.store.Write(ctx, record)
		cancel()

		if err != nil {
			if r.onWriteErr != nil {
				r.onWriteErr()
			}
			r.logger.Error("failed to write audit record",
				"id", record.ID,
				"route", record.RoutePath,
				"error", err,
			)
		}
	}
}

// Close stops accepting records, flushes the buffer, and waits for the
// worker to finish.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closing = true
		r.mu.Unlock()
		close(r.ch)
	})
	r.wg.Wait()
	return nil
}
