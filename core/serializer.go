package core

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/scenekit/internal/logging"
	"github.com/signalsfoundry/scenekit/kb"
	"github.com/signalsfoundry/scenekit/model"
)

const tracerName = "github.com/signalsfoundry/scenekit/core"

// unknownKind is reported for objects whose host kind is empty.
const unknownKind = "UNKNOWN"

// structuralKeys are document fields an attribute may never overwrite.
var structuralKeys = map[string]bool{
	"type":      true,
	"name":      true,
	"transform": true,
	"curve":     true,
	"children":  true,
}

// Serializer turns a scene snapshot into a Document.
type Serializer struct {
	log     logging.Logger
	filter  KeyFilter
	metrics MetricsRecorder
}

// SerializerOption configures optional Serializer behaviour.
type SerializerOption func(*Serializer)

// WithKeyFilter replaces the default reserved-key filter.
func WithKeyFilter(f KeyFilter) SerializerOption {
	return func(s *Serializer) {
		if f != nil {
			s.filter = f
		}
	}
}

// WithSerializerMetrics attaches a recorder for curve time corrections.
func WithSerializerMetrics(m MetricsRecorder) SerializerOption {
	return func(s *Serializer) {
		s.metrics = recorderOrNop(m)
	}
}

// NewSerializer constructs a Serializer. A nil logger is replaced with a
// no-op one.
func NewSerializer(log logging.Logger, opts ...SerializerOption) *Serializer {
	if log == nil {
		log = logging.Noop()
	}
	s := &Serializer{
		log:     log,
		filter:  DefaultKeyFilter(),
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialize walks the scene depth-first from every parentless object, in the
// scene's enumeration order (not sorted), and builds one node per object.
//
// A transform that fails to decompose aborts the whole walk; no partial
// document is returned. Curve timing arrays whose length does not match the
// point count are corrected and written back into scene.
func (s *Serializer) Serialize(ctx context.Context, scene *kb.Scene) (*model.Document, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "scene.serialize")
	defer span.End()

	if scene == nil {
		return nil, fmt.Errorf("%w: scene is nil", ErrInvalidSnapshot)
	}
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	doc := &model.Document{Name: model.DocumentName}
	for _, root := range scene.Roots() {
		node, err := s.node(ctx, scene, root)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		doc.Objects = append(doc.Objects, node)
	}

	span.SetAttributes(attribute.Int("scene.objects", scene.Len()))
	return doc, nil
}

func (s *Serializer) node(ctx context.Context, scene *kb.Scene, o *model.SceneObject) (*model.SceneNode, error) {
	tr, err := DecomposeTransform(o.Local)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", o.Name, err)
	}

	attrs := ExtractAttributes(o.Attributes, s.filter)

	kind := o.Kind
	if kind == "" {
		kind = unknownKind
	}
	if attrs.TypeOverride != "" {
		kind = attrs.TypeOverride
	}

	node := &model.SceneNode{
		Type:      kind,
		Name:      o.Name,
		Transform: tr,
		Disabled:  attrs.Disabled,
		FileName:  attrs.FileName,
		Collider:  attrs.Collider,
	}

	for key, v := range attrs.Generic {
		if structuralKeys[key] {
			s.log.Debug(ctx, "attribute shadows a document field; dropped",
				logging.String("object", o.Name),
				logging.String("key", key),
			)
			continue
		}
		if node.Attributes == nil {
			node.Attributes = make(map[string]model.AttrValue, len(attrs.Generic))
		}
		node.Attributes[key] = v
	}

	if o.Kind == model.KindCurve && o.Curve != nil {
		curve, err := s.curve(ctx, scene, o)
		if err != nil {
			return nil, err
		}
		node.Curve = curve
	}

	for _, child := range scene.Children(o.Name) {
		cn, err := s.node(ctx, scene, child)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, cn)
	}
	return node, nil
}

func (s *Serializer) curve(ctx context.Context, scene *kb.Scene, o *model.SceneObject) (*model.CurveData, error) {
	world, err := scene.WorldMatrix(o.Name)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", o.Name, err)
	}

	n := o.Curve.PointCount()
	had := len(o.Curve.Times)
	mismatch := o.Curve.Times != nil && had != n

	data, aligned := ExtractCurve(o.Curve, world)
	if !mismatch {
		return data, nil
	}

	s.log.Warn(ctx, "curve timing array realigned to point count",
		logging.String("object", o.Name),
		logging.Int("points", n),
		logging.Int("times", had),
		logging.Err(ErrPointTimeMismatch),
	)
	changed, err := scene.SetCurveTimes(o.Name, aligned)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", o.Name, err)
	}
	if changed {
		s.metrics.IncCurveTimeCorrections()
	}
	return data, nil
}
