package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSinkWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "level.json")

	s := NewFileSink()
	if err := s.Write(context.Background(), path, []byte("first")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := s.Write(context.Background(), path, []byte("second")); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("content = %q, want second", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory holds %d entries, want only the target (temp files left behind?)", len(entries))
	}
}

func TestFileSinkFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "out.json")

	s := &FileSink{}
	if err := s.Write(context.Background(), path, []byte("x")); err == nil {
		t.Fatalf("expected error writing into a missing directory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Stat after failed write = %v, want not exist", err)
	}
}

func TestFileSinkCanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewFileSink().Write(ctx, path, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Write error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file exists after canceled write")
	}
}

func TestMemorySink(t *testing.T) {
	m := NewMemorySink()
	if err := m.Write(context.Background(), "", nil); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("Write(\"\") error = %v, want ErrEmptyPath", err)
	}

	payload := []byte("abc")
	if err := m.Write(context.Background(), "b.json", payload); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	payload[0] = 'z'
	if got, _ := m.Get("b.json"); string(got) != "abc" {
		t.Fatalf("stored payload aliased caller slice: %q", got)
	}

	m.Fail = errors.New("disk full")
	if err := m.Write(context.Background(), "a.json", payload); err == nil {
		t.Fatalf("expected configured failure")
	}
	if paths := m.Paths(); len(paths) != 1 || paths[0] != "b.json" {
		t.Fatalf("Paths = %v, want [b.json]", paths)
	}
}
