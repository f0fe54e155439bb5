package model

import "github.com/go-gl/mathgl/mgl64"

// Native object kinds, as reported by the host editor.
const (
	KindMesh   = "MESH"
	KindEmpty  = "EMPTY"
	KindCurve  = "CURVE"
	KindCamera = "CAMERA"
	KindLight  = "LIGHT"
)

// Spline kinds. Anything that is not Bezier is treated as a poly/NURBS spline
// with homogeneous points.
const (
	SplineBezier = "BEZIER"
	SplinePoly   = "POLY"
	SplineNURBS  = "NURBS"
)

// SceneObject is one object of a scene snapshot. Objects are identified by
// name, which the host guarantees to be unique within a scene.
type SceneObject struct {
	Name     string
	Kind     string
	ParentID string // empty for root objects

	// Local is the object's transform relative to its parent.
	Local mgl64.Mat4

	Attributes map[string]AttrValue

	// Curve is only meaningful for KindCurve objects.
	Curve *CurveSnapshot
}

// CurveSnapshot is the spline data of a curve object in object-local space.
type CurveSnapshot struct {
	Splines []SplineSnapshot
	// Times is the per-point timing array stored on the curve. nil means the
	// curve has no timing array at all.
	Times []float64
}

// SplineSnapshot is a single spline of a curve.
type SplineSnapshot struct {
	Kind   string
	Points []PointSnapshot
}

// PointSnapshot is one control point. Bezier splines use Co.Vec3() plus both
// handles; other splines use the full homogeneous Co.
type PointSnapshot struct {
	Co          mgl64.Vec4
	HandleLeft  mgl64.Vec3
	HandleRight mgl64.Vec3
}

// PointCount returns the number of control points across all splines.
func (c *CurveSnapshot) PointCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, s := range c.Splines {
		n += len(s.Points)
	}
	return n
}

// Clone returns a deep copy of the object.
func (o *SceneObject) Clone() *SceneObject {
	if o == nil {
		return nil
	}
	cp := *o
	if o.Attributes != nil {
		cp.Attributes = make(map[string]AttrValue, len(o.Attributes))
		for k, v := range o.Attributes {
			if v.Vec != nil {
				v.Vec = append([]float64(nil), v.Vec...)
			}
			cp.Attributes[k] = v
		}
	}
	if o.Curve != nil {
		c := &CurveSnapshot{Splines: make([]SplineSnapshot, len(o.Curve.Splines))}
		for i, s := range o.Curve.Splines {
			c.Splines[i] = SplineSnapshot{Kind: s.Kind, Points: append([]PointSnapshot(nil), s.Points...)}
		}
		if o.Curve.Times != nil {
			c.Times = append([]float64{}, o.Curve.Times...)
		}
		cp.Curve = c
	}
	return &cp
}
