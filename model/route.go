package model

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// RouteKind says what moves along a route.
type RouteKind int

const (
	RoutePlayer RouteKind = iota
	RouteCamera
)

func (k RouteKind) String() string {
	if k == RouteCamera {
		return "CAMERA"
	}
	return "PLAYER"
}

// RouteKindFromString is tolerant: anything that is not a camera is a player
// route.
func RouteKindFromString(s string) RouteKind {
	if strings.EqualFold(strings.TrimSpace(s), "camera") {
		return RouteCamera
	}
	return RoutePlayer
}

// SegmentMode is the interpolation mode of a segment.
type SegmentMode int

const (
	SegmentLine SegmentMode = iota
	SegmentCurve
)

func (m SegmentMode) String() string {
	if m == SegmentCurve {
		return "CURVE"
	}
	return "LINE"
}

// SegmentModeFromString maps "CURVE" (any case) to SegmentCurve and
// everything else to SegmentLine.
func SegmentModeFromString(s string) SegmentMode {
	if strings.EqualFold(strings.TrimSpace(s), "curve") {
		return SegmentCurve
	}
	return SegmentLine
}

// DefaultSegmentDuration is the duration given to newly created segments.
const DefaultSegmentDuration = 1.0

// RoutePoint is a point of a route in world space. Index is its position in
// the route's point list.
type RoutePoint struct {
	Index    int
	Position mgl64.Vec3
}

// RouteSegment connects Points[From] to Points[To]. It does not own them.
type RouteSegment struct {
	From     int
	To       int
	Mode     SegmentMode
	Duration float64 // seconds
}

// Route owns its points and the segments chaining them: segment i always
// connects point i to point i+1.
type Route struct {
	ID       string
	Kind     RouteKind
	Points   []RoutePoint
	Segments []RouteSegment
}
