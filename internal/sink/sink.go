// Package sink writes encoded documents to their destination.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrEmptyPath is returned when a write has no destination.
var ErrEmptyPath = errors.New("sink: empty path")

// Sink persists a payload under path. Implementations either store the whole
// payload or nothing.
type Sink interface {
	Write(ctx context.Context, path string, payload []byte) error
}

// FileSink writes to the local filesystem. The payload goes to a temporary
// file in the destination directory which is then renamed over path, so
// readers never observe a partial file.
type FileSink struct {
	// Perm is applied to created files; 0o644 when zero.
	Perm os.FileMode

	// MkdirAll creates missing parent directories.
	MkdirAll bool
}

// NewFileSink returns a FileSink with default permissions that creates
// missing directories.
func NewFileSink() *FileSink {
	return &FileSink{Perm: 0o644, MkdirAll: true}
}

func (s *FileSink) Write(ctx context.Context, path string, payload []byte) (err error) {
	if path == "" {
		return ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if s.MkdirAll {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("sink: create %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("sink: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		return fmt.Errorf("sink: write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sink: sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("sink: close %s: %w", path, err)
	}
	perm := s.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("sink: chmod %s: %w", path, err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("sink: rename into %s: %w", path, err)
	}
	return nil
}

// MemorySink keeps payloads in memory. It is safe for concurrent use.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte

	// Fail, when set, is returned by every Write and nothing is stored.
	Fail error
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

func (m *MemorySink) Write(ctx context.Context, path string, payload []byte) error {
	if path == "" {
		return ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.files[path] = append([]byte(nil), payload...)
	return nil
}

// Get returns a copy of the payload stored under path.
func (m *MemorySink) Get(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Paths lists stored paths in sorted order.
func (m *MemorySink) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
