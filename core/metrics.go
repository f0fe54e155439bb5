package core

// MetricsRecorder receives counters from exports, route refreshes and
// playback. internal/observability.ExportCollector satisfies it.
type MetricsRecorder interface {
	ObserveExport(format, result string, seconds float64)
	SetExportedObjects(n int)
	IncCurveTimeCorrections()
	IncSkippedSegments()
	IncPlaybackTicks()
}

type nopRecorder struct{}

func (nopRecorder) ObserveExport(string, string, float64) {}
func (nopRecorder) SetExportedObjects(int)                {}
func (nopRecorder) IncCurveTimeCorrections()              {}
func (nopRecorder) IncSkippedSegments()                   {}
func (nopRecorder) IncPlaybackTicks()                     {}

func recorderOrNop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return nopRecorder{}
	}
	return m
}
