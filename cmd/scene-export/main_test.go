package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/scenekit/core"
	"github.com/signalsfoundry/scenekit/internal/logging"
	"github.com/signalsfoundry/scenekit/internal/observability"
)

const levelSnapshot = `
objects:
  - name: Level
    type: EMPTY
  - name: Crate
    type: MESH
    parent: Level
    location: [1, 0, 0]
    attributes:
      collider: BOX
      File_name: crate.obj
`

func writeSnapshot(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunExportsBatch(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "build")
	a := writeSnapshot(t, in, "a.yaml", levelSnapshot)
	b := writeSnapshot(t, in, "b.yaml", levelSnapshot)

	reg := prometheus.NewRegistry()
	collector, err := observability.NewExportCollector(reg)
	if err != nil {
		t.Fatalf("NewExportCollector: %v", err)
	}

	var stdout bytes.Buffer
	cfg := Config{Inputs: []string{a, b}, OutputDir: out, Format: "scene", Parallelism: 2}
	if err := run(context.Background(), cfg, logging.Noop(), collector, &stdout); err != nil {
		t.Fatalf("run error: %v", err)
	}

	for _, name := range []string{"a.scene", "b.scene"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if !strings.HasPrefix(string(data), "SCENE\n") || !strings.Contains(string(data), "N crate.obj") {
			t.Fatalf("%s content = %q", name, data)
		}
	}
	if got := testutil.ToFloat64(collector.Exports.WithLabelValues("scene", observability.ResultOK)); got != 2 {
		t.Fatalf("scene_exports_total{scene,ok} = %v, want 2", got)
	}
	if strings.Count(stdout.String(), "->") != 2 {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunReportsFailuresAndContinues(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	good := writeSnapshot(t, in, "good.yaml", levelSnapshot)
	bad := writeSnapshot(t, in, "bad.yaml", "objects:\n  - name: A\n    parent: Missing\n")

	cfg := Config{Inputs: []string{bad, good}, OutputDir: out, Format: "json", Parallelism: 1}
	err := run(context.Background(), cfg, logging.Noop(), nil, &bytes.Buffer{})
	if !errors.Is(err, core.ErrInvalidSnapshot) {
		t.Fatalf("run error = %v, want ErrInvalidSnapshot", err)
	}
	if _, err := os.Stat(filepath.Join(out, "good.json")); err != nil {
		t.Fatalf("good snapshot not exported: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "bad.json")); !os.IsNotExist(err) {
		t.Fatalf("bad snapshot produced a file")
	}
}

func TestRunStdout(t *testing.T) {
	in := writeSnapshot(t, t.TempDir(), "level.yaml", levelSnapshot)

	var stdout bytes.Buffer
	cfg := Config{Inputs: []string{in}, Format: "json", Stdout: true}
	if err := run(context.Background(), cfg, logging.Noop(), nil, &stdout); err != nil {
		t.Fatalf("run error: %v", err)
	}
	doc, err := core.LoadDocument(&stdout)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.Count() != 2 {
		t.Fatalf("node count = %d, want 2", doc.Count())
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	if err := run(context.Background(), Config{Format: "json"}, logging.Noop(), nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error without inputs")
	}
	cfg := Config{Inputs: []string{"x.yaml"}, Format: "fbx"}
	if err := run(context.Background(), cfg, logging.Noop(), nil, &bytes.Buffer{}); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Fatalf("run error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestOutputPath(t *testing.T) {
	if got := outputPath("build", "levels/level01.yaml", ".PB"); got != filepath.Join("build", "level01.pb") {
		t.Fatalf("outputPath = %q", got)
	}
}
