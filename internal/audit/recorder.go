package audit

import (
	"context"
	"sync"
)

// recorderBuffer bounds the queue of pending entries. Entries beyond it are
// dropped.
const recorderBuffer = 256

// Logger defines the logging interface used by the Recorder.
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

// Recorder writes audit entries asynchronously and serially, so callers on
// a request or control path never wait on SQLite.
type Recorder struct {
	repo   Repository
	ch     chan *Entry
	logger Logger

	once sync.Once
	done chan struct{}
}

// NewRecorder creates a recorder. Call Run to start writing.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo:   repo,
		ch:     make(chan *Entry, recorderBuffer),
		logger: noopLogger{},
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Record enqueues an entry. It never blocks; a full queue drops the entry.
func (r *Recorder) Record(action, entityType, entityID, source string, details map[string]any) {
	entry := &Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Source:     source,
		Details:    details,
	}
	select {
	case r.ch <- entry:
	default:
		r.logger.Warn("audit queue full, dropping entry", "action", action, "entity_type", entityType)
	}
}

// Run writes queued entries until ctx is cancelled, then drains what is
// left and returns.
func (r *Recorder) Run(ctx context.Context) {
	defer r.once.Do(func() { close(r.done) })
	for {
		select {
		case entry := <-r.ch:
			r.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.ch:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

// Done is closed when Run returns.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

func (r *Recorder) write(entry *Entry) {
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit log write failed", "action", entry.Action, "error", err)
	}
}
