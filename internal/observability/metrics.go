package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Export results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ExportCollector bundles the Prometheus metrics for scene exports and route
// playback. It satisfies core.MetricsRecorder, so the serializer, exporter
// and players drive it directly.
type ExportCollector struct {
	gatherer prometheus.Gatherer

	Exports         *prometheus.CounterVec
	ExportDurations *prometheus.HistogramVec
	ExportedObjects prometheus.Gauge

	CurveTimeCorrections prometheus.Counter
	SkippedSegments      prometheus.Counter
	PlaybackTicks        prometheus.Counter
}

// NewExportCollector registers the export metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewExportCollector(reg prometheus.Registerer) (*ExportCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_exports_total",
		Help: "Total number of scene exports, labeled by format and result.",
	}, []string{"format", "result"})
	exports, err := registerCounterVec(reg, exports, "scene_exports_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scene_export_duration_seconds",
		Help:    "Scene export latency in seconds, from snapshot walk to sink write.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"format"})
	durations, err = registerHistogramVec(reg, durations, "scene_export_duration_seconds")
	if err != nil {
		return nil, err
	}

	objects, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scene_exported_objects",
		Help: "Number of objects written by the most recent export.",
	}), "scene_exported_objects")
	if err != nil {
		return nil, err
	}

	corrections, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scene_curve_time_corrections_total",
		Help: "Curves whose stored time array was padded or truncated to the point count.",
	}), "scene_curve_time_corrections_total")
	if err != nil {
		return nil, err
	}
	skipped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "route_segments_skipped_total",
		Help: "Route segment objects ignored while rebuilding a route from the scene.",
	}), "route_segments_skipped_total")
	if err != nil {
		return nil, err
	}
	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "route_playback_ticks_total",
		Help: "Ticks applied to playing route previews.",
	}), "route_playback_ticks_total")
	if err != nil {
		return nil, err
	}

	return &ExportCollector{
		gatherer:             gatherer,
		Exports:              exports,
		ExportDurations:      durations,
		ExportedObjects:      objects,
		CurveTimeCorrections: corrections,
		SkippedSegments:      skipped,
		PlaybackTicks:        ticks,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ExportCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ExportCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveExport records one finished export.
func (c *ExportCollector) ObserveExport(format, result string, seconds float64) {
	if c == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	if c.Exports != nil {
		c.Exports.WithLabelValues(format, result).Inc()
	}
	if c.ExportDurations != nil {
		c.ExportDurations.WithLabelValues(format).Observe(seconds)
	}
}

func (c *ExportCollector) SetExportedObjects(n int) {
	if c == nil || c.ExportedObjects == nil {
		return
	}
	c.ExportedObjects.Set(float64(n))
}

func (c *ExportCollector) IncCurveTimeCorrections() {
	if c == nil || c.CurveTimeCorrections == nil {
		return
	}
	c.CurveTimeCorrections.Inc()
}

func (c *ExportCollector) IncSkippedSegments() {
	if c == nil || c.SkippedSegments == nil {
		return
	}
	c.SkippedSegments.Inc()
}

func (c *ExportCollector) IncPlaybackTicks() {
	if c == nil || c.PlaybackTicks == nil {
		return
	}
	c.PlaybackTicks.Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
