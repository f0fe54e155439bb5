package core

import "errors"

var (
	// ErrDecompose is returned when a local matrix cannot be split into
	// translation, rotation and scale (singular or non-finite).
	ErrDecompose = errors.New("transform decomposition failed")
	// ErrMalformedSegmentName is returned for segment objects whose name
	// does not carry two point indices.
	ErrMalformedSegmentName = errors.New("malformed segment name")
	// ErrPointTimeMismatch flags a curve whose timing array length differs
	// from its point count. It is reported, never returned from an export.
	ErrPointTimeMismatch = errors.New("curve point/time count mismatch")
	// ErrWriteFailure wraps any error coming from the output sink.
	ErrWriteFailure = errors.New("write failed")
	// ErrInvalidRoute is returned when a route breaks the segment chain.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrUnsupportedFormat is returned for output paths with an unknown
	// extension.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrInvalidDocument is returned when a document file cannot be read back.
	ErrInvalidDocument = errors.New("invalid scene document")
	// ErrInvalidSnapshot is returned for unreadable or inconsistent snapshots.
	ErrInvalidSnapshot = errors.New("invalid scene snapshot")
)
