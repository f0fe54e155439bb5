package model

import "github.com/go-gl/mathgl/mgl64"

// DocumentName is the fixed root name of every scene document.
const DocumentName = "scene"

// Document is the portable scene document. It owns its root nodes.
type Document struct {
	Name    string
	Objects []*SceneNode
}

// Transform is a decomposed local transform. Rotation is always Euler XYZ in
// degrees.
type Transform struct {
	Translation     mgl64.Vec3
	RotationDegrees mgl64.Vec3
	Scale           mgl64.Vec3
}

// ColliderSpec is the legacy collider attribute cluster.
type ColliderSpec struct {
	Shape  string
	Center mgl64.Vec3
	Size   mgl64.Vec3
}

// SceneNode is one serialized object. Nodes are immutable once a document has
// been built.
type SceneNode struct {
	Type      string
	Name      string
	Transform Transform

	// Legacy fields surfaced from well-known attributes.
	Disabled *bool
	FileName *string
	Collider *ColliderSpec

	// Attributes holds every other surfaced custom attribute. They are written
	// flat at node level, next to the fields above.
	Attributes map[string]AttrValue

	Curve    *CurveData
	Children []*SceneNode
}

// CurveData is the exported spline data of a curve object, in world space.
type CurveData struct {
	Splines []Spline
}

// Spline is an exported spline.
type Spline struct {
	Kind   string
	Points []ControlPoint
}

// ControlPoint is an exported control point. Position has 3 components for
// Bezier points and 4 (homogeneous) for everything else.
type ControlPoint struct {
	Position    []float64
	HandleLeft  *mgl64.Vec3
	HandleRight *mgl64.Vec3
	Time        *float64
}

// Walk visits every node of the document in pre-order.
func (d *Document) Walk(fn func(n *SceneNode, depth int)) {
	if d == nil {
		return
	}
	for _, n := range d.Objects {
		n.walk(fn, 0)
	}
}

func (n *SceneNode) walk(fn func(*SceneNode, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the total number of nodes in the document.
func (d *Document) Count() int {
	total := 0
	d.Walk(func(*SceneNode, int) { total++ })
	return total
}
