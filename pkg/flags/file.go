package flags

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// registryFile is the on-disk YAML shape of the flag registry.
type registryFile struct {
	Flags map[Flag]Definition `yaml:"flags"`
}

// FileService evaluates flags from a YAML registry file.
// The file maps flag names to definitions:
//
//	flags:
//	  beta-reports:
//	    state: enabled
//	  new-billing:
//	    state: rollout
//	    rollout_percent: 25
//
// All answers are immediate booleans. Watch hot-reloads the registry when
// the file changes, with debouncing to absorb editor write storms.
type FileService struct {
	path     string
	logger   *slog.Logger
	registry *Registry
	svc      *StaticService
	debounce *debouncer
}

// FileServiceConfig contains configuration for the file-backed service.
type FileServiceConfig struct {
	// Path is the registry file path.
	Path string

	// DebounceInterval is the quiet period before a reload after file
	// changes are detected.
	// Default: 100ms
	DebounceInterval time.Duration
}

// NewFileService creates a file-backed flag service and performs the
// initial registry load.
func NewFileService(cfg FileServiceConfig, logger *slog.Logger) (*FileService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.DebounceInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	registry := NewRegistry(nil)
	s := &FileService{
		path:     cfg.Path,
		logger:   logger.With("component", "flags.file"),
		registry: registry,
		svc:      NewStaticService(registry),
		debounce: newDebouncer(interval),
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// Registry returns the service's registry. The registry's contents are
// swapped atomically on reload, so holders always see a consistent set.
func (s *FileService) Registry() *Registry {
	return s.registry
}

// IsEnabled evaluates the flag against the current registry.
func (s *FileService) IsEnabled(ctx context.Context, flag Flag) Result {
	return s.svc.IsEnabled(ctx, flag)
}

// ParseRegistry parses and validates registry file contents, returning
// the definition set. Definitions with no state default to disabled.
func ParseRegistry(data []byte) (map[Flag]Definition, error) {
	var parsed registryFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	defs := parsed.Flags
	if defs == nil {
		defs = make(map[Flag]Definition)
	}

	// Empty state means disabled.
	for name, def := range defs {
		if def.State == "" {
			def.State = StateDisabled
			defs[name] = def
		}
	}

	if err := validateDefinitions(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// Reload re-reads and re-validates the registry file, then swaps the
// registry contents. On failure the previous registry stays in effect.
func (s *FileService) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read flag registry %q: %w", s.path, err)
	}

	defs, err := ParseRegistry(data)
	if err != nil {
		return fmt.Errorf("invalid flag registry %q: %w", s.path, err)
	}

	s.registry.Replace(defs)

	s.logger.Info("loaded flag registry",
		"path", s.path,
		"flag_count", len(defs),
	)

	return nil
}

// Watch watches the registry file for changes and reloads it.
// This is a blocking operation that runs until the context is cancelled.
// Reload failures are logged; the previous registry stays in effect.
func (s *FileService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()
	defer s.debounce.stop()

	// Watch the directory rather than the file itself: editors and config
	// management tools replace files via rename, which drops a watch on
	// the file but not on its directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", s.path, err)
	}

	s.logger.Info("flag registry watcher started", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("flag registry watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !s.shouldProcessEvent(event) {
				continue
			}

			s.logger.Debug("flag registry file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			s.debounce.trigger(func() {
				if err := s.Reload(); err != nil {
					s.logger.Error("flag registry reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			s.logger.Error("flag registry watcher error", "error", err)
			// Continue watching despite errors
		}
	}
}

// shouldProcessEvent filters events down to content changes of the
// registry file.
func (s *FileService) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(s.path)
}

// debouncer collects rapid events and fires the callback only after a
// quiet period.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

// trigger schedules the callback after the debounce interval, resetting
// any pending schedule.
func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.mu.Unlock()

		if cb != nil && !stopped {
			cb()
		}
	})
}

// stop cancels any pending callback.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
