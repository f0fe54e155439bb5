// Command scene-export converts scene snapshot files into scene documents.
//
//	scene-export -out build/levels -format json level01.yaml level02.yaml
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
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/scenekit/core"
	"github.com/signalsfoundry/scenekit/internal/config"
	"github.com/signalsfoundry/scenekit/internal/logging"
	"github.com/signalsfoundry/scenekit/internal/observability"
	"github.com/signalsfoundry/scenekit/internal/sink"
)

// Config is the resolved command configuration.
type Config struct {
	Inputs      []string
	OutputDir   string
	Format      string
	Parallelism int
	MetricsAddr string
	Stdout      bool
}

func main() {
	env, err := config.LoadExport()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scene-export: %v\n", err)
		os.Exit(2)
	}

	outDir := flag.String("out", env.OutputDir, "directory that receives the exported documents")
	format := flag.String("format", env.Format, "output format: json, scene or pb")
	parallel := flag.Int("parallel", env.Parallelism, "number of snapshots exported concurrently")
	metricsAddr := flag.String("metrics-addr", env.MetricsAddr, "HTTP address for Prometheus /metrics (disabled when empty)")
	stdout := flag.Bool("stdout", false, "write the document of a single snapshot to stdout instead of a file")
	flag.Parse()

	cfg := Config{
		Inputs:      flag.Args(),
		OutputDir:   *outDir,
		Format:      *format,
		Parallelism: *parallel,
		MetricsAddr: *metricsAddr,
		Stdout:      *stdout,
	}

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Stdout {
		observability.SetStdoutExporterWriter(os.Stderr)
	}
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

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
		log.Error(ctx, "scene export finished with errors", logging.Err(err))
		stop()
		observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
		os.Exit(1)
	}
}

// run exports every input snapshot. Snapshots are independent scenes, so
// they are processed concurrently up to cfg.Parallelism; a failed snapshot
// does not stop the others. The returned error joins every failure.
func run(ctx context.Context, cfg Config, log logging.Logger, metrics core.MetricsRecorder, stdout io.Writer) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("no snapshot files given")
	}
	if _, err := core.EncoderForFormat(cfg.Format); err != nil {
		return err
	}

	exporter := core.NewExporter(log, sink.NewFileSink(), core.WithExportMetrics(metrics))

	if cfg.Stdout {
		if len(cfg.Inputs) != 1 {
			return errors.New("-stdout takes exactly one snapshot file")
		}
		scene, err := core.LoadSnapshotFile(cfg.Inputs[0])
		if err != nil {
			return err
		}
		payload, _, err := exporter.Render(ctx, scene, cfg.Format)
		if err != nil {
			return err
		}
		_, err = stdout.Write(payload)
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parallelism, 1))

	for _, input := range cfg.Inputs {
		g.Go(func() error {
			res, err := exportOne(gctx, exporter, input, outputPath(cfg.OutputDir, input, cfg.Format))
			if err != nil {
				log.Warn(gctx, "snapshot not exported", logging.String("input", input), logging.Err(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", input, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			fmt.Fprintf(stdout, "%s -> %s (%d objects, %d bytes)\n", input, res.Path, res.Objects, res.Bytes)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func exportOne(ctx context.Context, exporter *core.Exporter, input, output string) (core.Result, error) {
	if err := ctx.Err(); err != nil {
		return core.Result{}, err
	}
	scene, err := core.LoadSnapshotFile(input)
	if err != nil {
		return core.Result{}, err
	}
	return exporter.Export(ctx, scene, output)
}

// outputPath maps level01.yaml to <dir>/level01.<format>.
func outputPath(dir, input, format string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"."+strings.TrimPrefix(strings.ToLower(format), "."))
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
