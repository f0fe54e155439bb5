package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/internal/logging"
	"github.com/signalsfoundry/scenekit/kb"
	"github.com/signalsfoundry/scenekit/model"
)

// Route objects in a scene: an EMPTY root tagged with route_type, RP_###
// point empties and RouteSeg_###_### segment meshes, all direct children of
// the root. Point numbers start at 1.
const (
	AttrKeyRouteType   = "route_type"
	AttrKeySegmentMode = "segment_mode"
	AttrKeySegmentTime = "segment_time"

	routePointPrefix   = "RP_"
	routeSegmentPrefix = "RouteSeg_"
)

// RoutePointName returns the object name of the point at index i.
func RoutePointName(i int) string {
	return fmt.Sprintf("%s%03d", routePointPrefix, i+1)
}

// RouteSegmentName returns the object name of the segment joining points i
// and i+1.
func RouteSegmentName(i int) string {
	return fmt.Sprintf("%s%03d_%03d", routeSegmentPrefix, i+1, i+2)
}

// ParseSegmentName extracts the two point numbers from a segment name. A name
// that is not exactly RouteSeg_<int>_<int> yields ErrMalformedSegmentName.
func ParseSegmentName(name string) (from, to int, err error) {
	parts := strings.Split(name, "_")
	if len(parts) != 3 || parts[0]+"_" != routeSegmentPrefix {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedSegmentName, name)
	}
	from, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedSegmentName, name)
	}
	to, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedSegmentName, name)
	}
	return from, to, nil
}

// RouteObjects renders r as scene objects, root first. Point positions are
// stored as the points' local translation under an identity root.
func RouteObjects(r *model.Route) ([]*model.SceneObject, error) {
	if err := ValidateRoute(r); err != nil {
		return nil, err
	}

	objs := make([]*model.SceneObject, 0, 1+len(r.Points)+len(r.Segments))
	objs = append(objs, &model.SceneObject{
		Name:       r.ID,
		Kind:       model.KindEmpty,
		Local:      mgl64.Ident4(),
		Attributes: map[string]model.AttrValue{AttrKeyRouteType: model.String(r.Kind.String())},
	})
	for _, p := range r.Points {
		objs = append(objs, &model.SceneObject{
			Name:     RoutePointName(p.Index),
			Kind:     model.KindEmpty,
			ParentID: r.ID,
			Local:    mgl64.Translate3D(p.Position[0], p.Position[1], p.Position[2]),
		})
	}
	for i, s := range r.Segments {
		objs = append(objs, &model.SceneObject{
			Name:     RouteSegmentName(i),
			Kind:     model.KindMesh,
			ParentID: r.ID,
			Local:    mgl64.Ident4(),
			Attributes: map[string]model.AttrValue{
				AttrKeySegmentMode: model.String(s.Mode.String()),
				AttrKeySegmentTime: model.Number(s.Duration),
			},
		})
	}
	return objs, nil
}

// ApplyRoute replaces the route's objects in scene.
func ApplyRoute(scene *kb.Scene, r *model.Route) error {
	objs, err := RouteObjects(r)
	if err != nil {
		return err
	}
	return scene.ReplaceSubtree(r.ID, objs)
}

// RouteOption configures RouteFromScene.
type RouteOption func(*routeReader)

// WithRouteMetrics counts skipped segments on m.
func WithRouteMetrics(m MetricsRecorder) RouteOption {
	return func(rr *routeReader) { rr.metrics = recorderOrNop(m) }
}

type routeReader struct {
	log     logging.Logger
	metrics MetricsRecorder
}

type scenePoint struct {
	number int
	pos    mgl64.Vec3
}

// RouteFromScene rebuilds the route rooted at rootID from scene objects.
//
// Points are ordered by their number. Segment objects that cannot be parsed,
// that reference missing points, or that do not join consecutive points are
// skipped and logged. Chain links with no segment object get a default Line
// segment. The logger is taken from ctx when present.
func RouteFromScene(ctx context.Context, scene *kb.Scene, rootID string, opts ...RouteOption) (*model.Route, error) {
	rr := &routeReader{log: logging.LoggerFromContext(ctx), metrics: nopRecorder{}}
	if rr.log == nil {
		rr.log = logging.Noop()
	}
	for _, opt := range opts {
		opt(rr)
	}

	if scene == nil {
		return nil, fmt.Errorf("%w: scene is nil", ErrInvalidSnapshot)
	}
	root := scene.Object(rootID)
	if root == nil {
		return nil, fmt.Errorf("%w: route root %q not found", ErrInvalidRoute, rootID)
	}
	kindAttr, ok := root.Attributes[AttrKeyRouteType]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no %s attribute", ErrInvalidRoute, rootID, AttrKeyRouteType)
	}

	route := &model.Route{ID: rootID, Kind: model.RouteKindFromString(kindAttr.Text())}

	var points []scenePoint
	var segObjs []*model.SceneObject
	for _, child := range scene.Children(rootID) {
		switch {
		case child.Kind == model.KindEmpty && strings.HasPrefix(child.Name, routePointPrefix):
			n, err := strconv.Atoi(strings.TrimPrefix(child.Name, routePointPrefix))
			if err != nil {
				rr.log.Warn(ctx, "route point name has no number; ignored",
					logging.String("route", rootID), logging.String("object", child.Name))
				continue
			}
			world, err := scene.WorldMatrix(child.Name)
			if err != nil {
				return nil, fmt.Errorf("route %q: %w", rootID, err)
			}
			points = append(points, scenePoint{number: n, pos: world.Col(3).Vec3()})
		case strings.HasPrefix(child.Name, routeSegmentPrefix):
			segObjs = append(segObjs, child)
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].number < points[j].number })
	ordinal := make(map[int]int, len(points))
	for i, p := range points {
		if _, dup := ordinal[p.number]; dup {
			return nil, fmt.Errorf("%w: duplicate point number %d in %q", ErrInvalidRoute, p.number, rootID)
		}
		ordinal[p.number] = i
		route.Points = append(route.Points, model.RoutePoint{Index: i, Position: p.pos})
	}

	bySource := make(map[int]model.RouteSegment)
	for _, obj := range segObjs {
		seg, ok := rr.segment(ctx, rootID, obj, ordinal)
		if !ok {
			continue
		}
		if _, dup := bySource[seg.From]; dup {
			rr.skip(ctx, rootID, obj.Name, "duplicate segment for the same points")
			continue
		}
		bySource[seg.From] = seg
	}

	for i := 0; i+1 < len(route.Points); i++ {
		seg, ok := bySource[i]
		if !ok {
			rr.log.Debug(ctx, "route link has no segment object; using defaults",
				logging.String("route", rootID), logging.Int("from", i), logging.Int("to", i+1))
			seg = model.RouteSegment{From: i, To: i + 1, Mode: model.SegmentLine, Duration: model.DefaultSegmentDuration}
		}
		route.Segments = append(route.Segments, seg)
	}

	if err := ValidateRoute(route); err != nil {
		return nil, err
	}
	return route, nil
}

func (rr *routeReader) segment(ctx context.Context, rootID string, obj *model.SceneObject, ordinal map[int]int) (model.RouteSegment, bool) {
	a, b, err := ParseSegmentName(obj.Name)
	if err != nil {
		rr.skip(ctx, rootID, obj.Name, err.Error())
		return model.RouteSegment{}, false
	}
	from, okA := ordinal[a]
	to, okB := ordinal[b]
	if !okA || !okB {
		rr.skip(ctx, rootID, obj.Name, "segment references a missing point")
		return model.RouteSegment{}, false
	}
	if to != from+1 {
		rr.skip(ctx, rootID, obj.Name, "segment does not join consecutive points")
		return model.RouteSegment{}, false
	}

	seg := model.RouteSegment{From: from, To: to, Mode: model.SegmentLine, Duration: model.DefaultSegmentDuration}
	if v, ok := obj.Attributes[AttrKeySegmentMode]; ok {
		seg.Mode = model.SegmentModeFromString(v.Text())
	}
	if v, ok := obj.Attributes[AttrKeySegmentTime]; ok {
		if v.Kind == model.AttrNumber && v.Number >= 0 && finite(v.Number) {
			seg.Duration = v.Number
		} else {
			rr.log.Warn(ctx, "segment time is not a non-negative number; using default",
				logging.String("route", rootID), logging.String("object", obj.Name))
		}
	}
	return seg, true
}

func (rr *routeReader) skip(ctx context.Context, rootID, name, reason string) {
	rr.metrics.IncSkippedSegments()
	rr.log.Warn(ctx, "route segment skipped",
		logging.String("route", rootID),
		logging.String("object", name),
		logging.String("reason", reason),
	)
}
