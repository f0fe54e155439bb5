package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

// DefaultPointOffset is the offset used by hosts that append a point without
// asking for one.
var DefaultPointOffset = mgl64.Vec3{1, 0, 0}

// NewRoute creates a route holding a single point at origin.
func NewRoute(id string, kind model.RouteKind, origin mgl64.Vec3) (*model.Route, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: route id is required", ErrInvalidRoute)
	}
	if !finite(origin[:]...) {
		return nil, fmt.Errorf("%w: non-finite origin", ErrInvalidRoute)
	}
	return &model.Route{
		ID:     id,
		Kind:   kind,
		Points: []model.RoutePoint{{Index: 0, Position: origin}},
	}, nil
}

// AppendRoutePoint adds a point at last.Position+offset and the Line segment
// joining them, with the default duration.
func AppendRoutePoint(r *model.Route, offset mgl64.Vec3) (model.RoutePoint, error) {
	if err := ValidateRoute(r); err != nil {
		return model.RoutePoint{}, err
	}
	if len(r.Points) == 0 {
		return model.RoutePoint{}, fmt.Errorf("%w: route %q has no points to extend", ErrInvalidRoute, r.ID)
	}
	if !finite(offset[:]...) {
		return model.RoutePoint{}, fmt.Errorf("%w: non-finite offset", ErrInvalidRoute)
	}

	last := r.Points[len(r.Points)-1]
	p := model.RoutePoint{Index: last.Index + 1, Position: last.Position.Add(offset)}
	r.Points = append(r.Points, p)
	r.Segments = append(r.Segments, model.RouteSegment{
		From:     last.Index,
		To:       p.Index,
		Mode:     model.SegmentLine,
		Duration: model.DefaultSegmentDuration,
	})
	return p, nil
}

// SetSegment changes the mode and duration of segment index.
func SetSegment(r *model.Route, index int, mode model.SegmentMode, duration float64) error {
	if err := ValidateRoute(r); err != nil {
		return err
	}
	if index < 0 || index >= len(r.Segments) {
		return fmt.Errorf("%w: segment %d out of range [0,%d)", ErrInvalidRoute, index, len(r.Segments))
	}
	if duration < 0 || !finite(duration) {
		return fmt.Errorf("%w: segment duration %v must be a finite value >= 0", ErrInvalidRoute, duration)
	}
	if mode != model.SegmentLine && mode != model.SegmentCurve {
		return fmt.Errorf("%w: unknown segment mode %d", ErrInvalidRoute, mode)
	}
	r.Segments[index].Mode = mode
	r.Segments[index].Duration = duration
	return nil
}

// ValidateRoute checks the chain invariant: point i has index i, and segment
// i joins point i to point i+1.
func ValidateRoute(r *model.Route) error {
	if r == nil {
		return fmt.Errorf("%w: nil route", ErrInvalidRoute)
	}
	if len(r.Points) > 0 && len(r.Segments) != len(r.Points)-1 {
		return fmt.Errorf("%w: %d segments for %d points", ErrInvalidRoute, len(r.Segments), len(r.Points))
	}
	if len(r.Points) == 0 && len(r.Segments) != 0 {
		return fmt.Errorf("%w: segments without points", ErrInvalidRoute)
	}
	for i, p := range r.Points {
		if p.Index != i {
			return fmt.Errorf("%w: point %d has index %d", ErrInvalidRoute, i, p.Index)
		}
	}
	for i, s := range r.Segments {
		if s.From != i || s.To != i+1 {
			return fmt.Errorf("%w: segment %d joins %d->%d", ErrInvalidRoute, i, s.From, s.To)
		}
		if s.Duration < 0 || !finite(s.Duration) {
			return fmt.Errorf("%w: segment %d has duration %v", ErrInvalidRoute, i, s.Duration)
		}
	}
	return nil
}

// TotalDuration is the sum of all segment durations. It is derived on every
// call and never cached.
func TotalDuration(r *model.Route) float64 {
	if r == nil {
		return 0
	}
	total := 0.0
	for _, s := range r.Segments {
		total += s.Duration
	}
	return total
}
