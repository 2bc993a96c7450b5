package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Logger is the logging interface used by the store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store owns the in-memory Configuration and its persisted record.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Each call runs to
//     completion before the next one observes the configuration.
type Store struct {
	mu      sync.Mutex
	backend Backend
	current Configuration
	logger  Logger
}

// NewStore creates a store over backend. Call Load before use; until then
// Current returns Defaults.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		current: Defaults(),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Load reads the persisted record. A missing, unreadable or invalid record
// is replaced by defaults, which are written back. The returned error is
// only ever a failure to write those defaults; the configuration returned
// alongside it is still usable.
func (s *Store) Load(ctx context.Context) (Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			s.logger.Info("no settings record, writing defaults")
		} else {
			s.logger.Warn("settings record unreadable, resetting", "error", err)
		}
		return s.resetLocked(ctx)
	}

	cfg, err := Decode(data)
	if err != nil {
		s.logger.Warn("settings record invalid, resetting", "error", err)
		return s.resetLocked(ctx)
	}

	s.current = cfg
	s.logger.Info("settings loaded",
		"device_name", cfg.DeviceName,
		"board", cfg.Board.String(),
	)
	return cfg, nil
}

// Reset replaces the configuration with factory defaults and persists it.
func (s *Store) Reset(ctx context.Context) (Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked(ctx)
}

func (s *Store) resetLocked(ctx context.Context) (Configuration, error) {
	cfg := Defaults()
	s.current = cfg
	if err := s.backend.Write(ctx, Encode(cfg)); err != nil {
		s.logger.Error("persisting default settings failed", "error", err)
		return cfg, fmt.Errorf("persisting defaults: %w", err)
	}
	return cfg, nil
}

// Save persists cfg as the whole record. The in-memory configuration only
// changes when the write succeeds.
func (s *Store) Save(ctx context.Context, cfg Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, cfg)
}

func (s *Store) saveLocked(ctx context.Context, cfg Configuration) error {
	cfg.Magic = SchemaMagic
	cfg.Version = SchemaVersion
	if err := s.backend.Write(ctx, Encode(cfg)); err != nil {
		return fmt.Errorf("persisting settings: %w", err)
	}
	s.current = cfg
	return nil
}

// ApplyUpdate merges u into the current configuration and persists the
// result. restartRequired is true when the board, a pin or a feature flag
// changed, since those are bound only at start-up. An update that changes
// nothing is not written.
func (s *Store) ApplyUpdate(ctx context.Context, u Update) (cfg Configuration, restartRequired bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current
	next, err := merge(old, u)
	if err != nil {
		return old, false, err
	}
	if next == old {
		return old, false, nil
	}

	if err := s.saveLocked(ctx, next); err != nil {
		return old, false, err
	}

	restartRequired = needsRestart(old, next)
	s.logger.Info("settings updated", "restart_required", restartRequired)
	return next, restartRequired, nil
}

// Current returns a copy of the in-memory configuration.
func (s *Store) Current() Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
