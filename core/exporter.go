package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/scenekit/internal/logging"
	"github.com/signalsfoundry/scenekit/internal/sink"
	"github.com/signalsfoundry/scenekit/kb"
)

// Result is the user-facing outcome of one export.
type Result struct {
	OK      bool
	Message string
	Path    string
	Format  string
	Objects int
	Bytes   int
}

// Exporter serializes a scene, encodes it by file extension and hands the
// payload to a sink. A failed export never reaches the sink with a partial
// document.
type Exporter struct {
	log        logging.Logger
	sink       sink.Sink
	serializer *Serializer
	metrics    MetricsRecorder
	serOpts    []SerializerOption
}

// ExporterOption configures optional Exporter behaviour.
type ExporterOption func(*Exporter)

// WithExportMetrics records export outcomes and forwards curve corrections
// from the serializer to m.
func WithExportMetrics(m MetricsRecorder) ExporterOption {
	return func(e *Exporter) {
		e.metrics = recorderOrNop(m)
		e.serOpts = append(e.serOpts, WithSerializerMetrics(m))
	}
}

// WithSerializerOptions passes opts to the exporter's serializer.
func WithSerializerOptions(opts ...SerializerOption) ExporterOption {
	return func(e *Exporter) {
		e.serOpts = append(e.serOpts, opts...)
	}
}

// NewExporter wires an Exporter writing through s. A nil sink writes to the
// local filesystem.
func NewExporter(log logging.Logger, s sink.Sink, opts ...ExporterOption) *Exporter {
	if log == nil {
		log = logging.Noop()
	}
	if s == nil {
		s = sink.NewFileSink()
	}
	e := &Exporter{
		log:     log,
		sink:    s,
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.serializer = NewSerializer(log, e.serOpts...)
	return e
}

// Render serializes scene and encodes it in format without writing
// anything. It returns the payload and the number of nodes encoded.
func (e *Exporter) Render(ctx context.Context, scene *kb.Scene, format string) ([]byte, int, error) {
	enc, err := EncoderForFormat(format)
	if err != nil {
		return nil, 0, err
	}
	return e.render(ctx, scene, enc)
}

func (e *Exporter) render(ctx context.Context, scene *kb.Scene, enc Encoder) ([]byte, int, error) {
	doc, err := e.serializer.Serialize(ctx, scene)
	if err != nil {
		return nil, 0, err
	}
	payload, err := enc.Encode(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("encode %s: %w", enc.Format(), err)
	}
	return payload, doc.Count(), nil
}

// Export writes scene to path. The encoding is chosen from the extension of
// path. The returned error is also summarised in Result.Message.
func (e *Exporter) Export(ctx context.Context, scene *kb.Scene, path string) (Result, error) {
	start := time.Now()
	ctx, log := logging.WithExportLogger(ctx, e.log)
	ctx = logging.ContextWithLogger(ctx, log)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "scene.export")
	defer span.End()
	span.SetAttributes(attribute.String("scene.path", path))

	res := Result{Path: path}
	fail := func(err error) (Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.ObserveExport(res.Format, resultError, time.Since(start).Seconds())
		log.Error(ctx, "scene export failed", logging.String("path", path), logging.Err(err))
		res.OK = false
		res.Message = failureMessage(err)
		return res, err
	}

	enc, err := EncoderForPath(path)
	if err != nil {
		return fail(err)
	}
	res.Format = enc.Format()
	span.SetAttributes(attribute.String("scene.format", res.Format))

	payload, objects, err := e.render(ctx, scene, enc)
	if err != nil {
		return fail(err)
	}

	if err := e.write(ctx, path, payload); err != nil {
		return fail(err)
	}

	res.OK = true
	res.Objects = objects
	res.Bytes = len(payload)
	res.Message = fmt.Sprintf("exported %d objects to %s", objects, path)
	span.SetAttributes(attribute.Int("scene.objects", objects), attribute.Int("scene.bytes", len(payload)))
	e.metrics.SetExportedObjects(objects)
	e.metrics.ObserveExport(res.Format, resultOK, time.Since(start).Seconds())
	log.Info(ctx, "scene exported",
		logging.String("path", path),
		logging.String("format", res.Format),
		logging.Int("objects", objects),
		logging.Int("bytes", len(payload)),
	)
	return res, nil
}

func (e *Exporter) write(ctx context.Context, path string, payload []byte) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sink.write")
	defer span.End()
	if err := e.sink.Write(ctx, path, payload); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %s: %w", ErrWriteFailure, path, err)
	}
	return nil
}

// Labels passed to MetricsRecorder.ObserveExport.
const (
	resultOK    = "ok"
	resultError = "error"
)

func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrDecompose):
		return "export aborted: " + err.Error()
	case errors.Is(err, ErrWriteFailure):
		return "could not write file: " + err.Error()
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported output format: " + err.Error()
	default:
		return "export failed: " + err.Error()
	}
}
