package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Backend stores the encoded record. Write must replace the previous
// record as a single unit: a reader never sees a new header with an old
// body or a partial write.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, record []byte) error
}

// MemoryBackend keeps the record in process memory.
type MemoryBackend struct {
	mu     sync.Mutex
	record []byte

	// WriteErr, when set, is returned by every Write.
	WriteErr error
}

// NewMemoryBackend returns a backend optionally pre-loaded with record.
func NewMemoryBackend(record []byte) *MemoryBackend {
	return &MemoryBackend{record: clone(record)}
}

// Read returns a copy of the stored record.
func (m *MemoryBackend) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return nil, ErrRecordNotFound
	}
	return clone(m.record), nil
}

// Write stores a copy of record.
func (m *MemoryBackend) Write(_ context.Context, record []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.record = clone(record)
	return nil
}

// FileBackend keeps the record in a single file, replaced atomically by
// writing a sibling temp file and renaming it over the target.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for path. The directory is created on
// first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Read returns the file contents.
func (f *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	return data, nil
}

// Write replaces the file with record.
func (f *FileBackend) Write(ctx context.Context, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(record); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
