package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/core"
	"github.com/signalsfoundry/scenekit/internal/logging"
	"github.com/signalsfoundry/scenekit/model"
)

func TestRunPlaysRouteToEndAndSaves(t *testing.T) {
	save := filepath.Join(t.TempDir(), "route.yaml")
	cfg := Config{
		RouteID:     "patrol",
		Kind:        model.RoutePlayer,
		Points:      []mgl64.Vec3{{10, 0, 0}, {0, 10, 0}},
		Mode:        model.SegmentLine,
		SegmentTime: 1,
		FPS:         4,
		Accelerated: true,
		Every:       1,
		Save:        save,
	}

	var stdout bytes.Buffer
	if err := run(context.Background(), cfg, logging.Noop(), nil, &stdout); err != nil {
		t.Fatalf("run error: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "Preview complete: paused at 2.000s of 2.000s") {
		t.Fatalf("stdout = %s", out)
	}
	if !strings.Contains(out, "(10.000, 10.000, 0.000)") {
		t.Fatalf("end position missing from output: %s", out)
	}

	scene, err := core.LoadSnapshotFile(save)
	if err != nil {
		t.Fatalf("LoadSnapshotFile: %v", err)
	}
	route, err := core.RouteFromScene(context.Background(), scene, "patrol")
	if err != nil {
		t.Fatalf("RouteFromScene: %v", err)
	}
	if len(route.Points) != 3 || !route.Points[2].Position.ApproxEqual(mgl64.Vec3{10, 10, 0}) {
		t.Fatalf("saved route points = %+v", route.Points)
	}
}

func TestRunFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	save := filepath.Join(dir, "route.yaml")
	build := Config{RouteID: "cam", Kind: model.RouteCamera, Points: []mgl64.Vec3{{0, 0, 5}}, SegmentTime: 0.5, FPS: 10, Accelerated: true, Every: 100, Save: save}
	if err := run(context.Background(), build, logging.Noop(), nil, &bytes.Buffer{}); err != nil {
		t.Fatalf("building snapshot: %v", err)
	}

	var stdout bytes.Buffer
	cfg := Config{Snapshot: save, RouteRoot: "cam", FPS: 10, Accelerated: true, Every: 100}
	if err := run(context.Background(), cfg, logging.Noop(), nil, &stdout); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.Contains(stdout.String(), "Route cam") || !strings.Contains(stdout.String(), "0.500s") {
		t.Fatalf("stdout = %s", stdout.String())
	}

	cfg.RouteRoot = ""
	if err := run(context.Background(), cfg, logging.Noop(), nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error without -route")
	}
}

func TestParseVectors(t *testing.T) {
	got, err := parseVectors(" 1,2,3 ; 4, 5, 6;")
	if err != nil {
		t.Fatalf("parseVectors error: %v", err)
	}
	if len(got) != 2 || got[1] != (mgl64.Vec3{4, 5, 6}) {
		t.Fatalf("parseVectors = %v", got)
	}
	for _, bad := range []string{"1,2", "1,x,3"} {
		if _, err := parseVectors(bad); err == nil {
			t.Fatalf("parseVectors(%q) accepted bad input", bad)
		}
	}
}
