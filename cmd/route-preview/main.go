// Command route-preview plays a route back on a frame clock and prints the
// sampled positions. The route is either rebuilt from the route objects of a
// snapshot file or assembled from -points.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/core"
	"github.com/signalsfoundry/scenekit/internal/config"
	"github.com/signalsfoundry/scenekit/internal/logging"
	"github.com/signalsfoundry/scenekit/internal/observability"
	"github.com/signalsfoundry/scenekit/internal/sink"
	"github.com/signalsfoundry/scenekit/kb"
	"github.com/signalsfoundry/scenekit/model"
	"github.com/signalsfoundry/scenekit/timectrl"
)

// Config is the resolved command configuration.
type Config struct {
	Snapshot    string
	RouteRoot   string
	RouteID     string
	Kind        model.RouteKind
	Points      []mgl64.Vec3
	Mode        model.SegmentMode
	SegmentTime float64

	FPS         float64
	Duration    time.Duration
	Accelerated bool
	Every       int
	Save        string
	MetricsAddr string
}

func main() {
	env, err := config.LoadPreview()
	if err != nil {
		fmt.Fprintf(os.Stderr, "route-preview: %v\n", err)
		os.Exit(2)
	}

	snapshot := flag.String("snapshot", "", "snapshot file holding the route objects")
	root := flag.String("route", "", "name of the route root object inside -snapshot")
	id := flag.String("id", "route", "route id when building from -points")
	kind := flag.String("kind", "player", "route type when building from -points: player or camera")
	points := flag.String("points", "1,0,0", "semicolon separated offsets appended after the origin, e.g. \"10,0,0;0,10,0\"")
	mode := flag.String("mode", "line", "segment mode when building from -points: line or curve")
	segTime := flag.Float64("segment-time", model.DefaultSegmentDuration, "segment duration in seconds when building from -points")
	fps := flag.Float64("fps", env.FPS, "frame rate hint; 1/60 s ticks when zero")
	duration := flag.Duration("duration", 0, "how long to run the clock; the route length plus one frame when zero")
	accelerated := flag.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	every := flag.Int("every", 1, "print every Nth frame")
	save := flag.String("save", "", "write the scene with the route applied to this snapshot file")
	metricsAddr := flag.String("metrics-addr", env.MetricsAddr, "HTTP address for Prometheus /metrics (disabled when empty)")
	flag.Parse()

	offsets, err := parseVectors(*points)
	if err != nil {
		fmt.Fprintf(os.Stderr, "route-preview: -points: %v\n", err)
		os.Exit(2)
	}

	cfg := Config{
		Snapshot:    *snapshot,
		RouteRoot:   *root,
		RouteID:     *id,
		Kind:        model.RouteKindFromString(*kind),
		Points:      offsets,
		Mode:        model.SegmentModeFromString(*mode),
		SegmentTime: *segTime,
		FPS:         *fps,
		Duration:    *duration,
		Accelerated: *accelerated,
		Every:       *every,
		Save:        *save,
		MetricsAddr: *metricsAddr,
	}

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	collector, err := observability.NewExportCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}
	if srv := serveMetrics(cfg.MetricsAddr, collector, log); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := run(ctx, cfg, log, collector, os.Stdout); err != nil {
		log.Error(ctx, "route preview failed", logging.Err(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, log logging.Logger, metrics core.MetricsRecorder, stdout io.Writer) error {
	ctx = logging.ContextWithLogger(ctx, log)

	scene, route, err := loadRoute(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	total := core.TotalDuration(route)
	fmt.Fprintf(stdout, "Route %s (%s): %d points, %d segments, %.3fs\n",
		route.ID, route.Kind, len(route.Points), len(route.Segments), total)

	previews := core.NewPreviews(core.WithPlayerMetrics(metrics))
	player, err := previews.Command(route, core.ActionPlay)
	if err != nil {
		return err
	}

	mode := timectrl.RealTime
	if cfg.Accelerated {
		mode = timectrl.Accelerated
	}
	clock := timectrl.NewFrameClock(cfg.FPS, mode)
	every := max(cfg.Every, 1)

	clock.AddListener(func(dt float64) {
		positions := previews.Tick(dt)
		if clock.Frames()%every != 0 && player.State() == core.StatePlaying {
			return
		}
		pos := positions[route.ID]
		fmt.Fprintf(stdout, "[frame %4d t=%7.3fs] %-7s (%.3f, %.3f, %.3f)\n",
			clock.Frames(), player.Elapsed(), player.State(), pos[0], pos[1], pos[2])
	})

	runFor := cfg.Duration
	if runFor <= 0 {
		runFor = time.Duration((total + clock.Delta()) * float64(time.Second))
	}
	log.Info(ctx, "starting route preview",
		logging.String("route", route.ID),
		logging.Float("fps_delta", clock.Delta()),
		logging.String("duration", runFor.String()),
	)
	<-clock.Start(ctx, runFor)
	fmt.Fprintf(stdout, "Preview complete: %s at %.3fs of %.3fs\n", player.State(), player.Elapsed(), total)

	if cfg.Save == "" {
		return nil
	}
	if err := core.ApplyRoute(scene, route); err != nil {
		return err
	}
	payload, err := core.EncodeSnapshot(scene)
	if err != nil {
		return err
	}
	if err := sink.NewFileSink().Write(ctx, cfg.Save, payload); err != nil {
		return fmt.Errorf("%w: %w", core.ErrWriteFailure, err)
	}
	fmt.Fprintf(stdout, "Saved %s\n", cfg.Save)
	return nil
}

// loadRoute returns the scene the route belongs to and the route itself.
func loadRoute(ctx context.Context, cfg Config, metrics core.MetricsRecorder) (*kb.Scene, *model.Route, error) {
	if cfg.Snapshot != "" {
		if cfg.RouteRoot == "" {
			return nil, nil, errors.New("-route is required with -snapshot")
		}
		scene, err := core.LoadSnapshotFile(cfg.Snapshot)
		if err != nil {
			return nil, nil, err
		}
		route, err := core.RouteFromScene(ctx, scene, cfg.RouteRoot, core.WithRouteMetrics(metrics))
		if err != nil {
			return nil, nil, err
		}
		return scene, route, nil
	}

	route, err := core.NewRoute(cfg.RouteID, cfg.Kind, mgl64.Vec3{})
	if err != nil {
		return nil, nil, err
	}
	for _, off := range cfg.Points {
		if _, err := core.AppendRoutePoint(route, off); err != nil {
			return nil, nil, err
		}
		if err := core.SetSegment(route, len(route.Segments)-1, cfg.Mode, cfg.SegmentTime); err != nil {
			return nil, nil, err
		}
	}
	return kb.NewScene(), route, nil
}

// parseVectors reads "x,y,z;x,y,z".
func parseVectors(s string) ([]mgl64.Vec3, error) {
	var out []mgl64.Vec3
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%q: want x,y,z", part)
		}
		var v mgl64.Vec3
		for i, f := range fields {
			n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", part, err)
			}
			v[i] = n
		}
		out = append(out, v)
	}
	return out, nil
}

func serveMetrics(addr string, collector *observability.ExportCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
