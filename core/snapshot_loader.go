package core

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/scenekit/kb"
	"github.com/signalsfoundry/scenekit/model"
)

// Snapshot files describe a scene the way a host would hand it over. JSON
// is accepted too since it is valid YAML.
//
//	objects:
//	  - name: Cube
//	    type: MESH
//	    parent: Root
//	    location: [0, 0, 1]        # or matrix: 16 numbers, row-major
//	    rotation: [0, 0, 90]       # degrees, XYZ
//	    scale: [1, 1, 1]
//	    attributes: {hp: 100}
//	    curve:
//	      times: [1, 2]
//	      splines:
//	        - type: BEZIER
//	          points:
//	            - {co: [0, 0, 0], handle_left: [-1, 0, 0], handle_right: [1, 0, 0]}
type snapshotYAML struct {
	Objects []objectYAML `yaml:"objects"`
}

type objectYAML struct {
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Parent     string         `yaml:"parent,omitempty"`
	Matrix     []float64      `yaml:"matrix,omitempty,flow"`
	Location   []float64      `yaml:"location,omitempty,flow"`
	Rotation   []float64      `yaml:"rotation,omitempty,flow"`
	Scale      []float64      `yaml:"scale,omitempty,flow"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
	Curve      *curveYAML     `yaml:"curve,omitempty"`
}

type curveYAML struct {
	Times   []float64    `yaml:"times,omitempty,flow"`
	Splines []splineYAML `yaml:"splines"`
}

type splineYAML struct {
	Type   string      `yaml:"type"`
	Points []pointYAML `yaml:"points"`
}

type pointYAML struct {
	Co          []float64 `yaml:"co,flow"`
	HandleLeft  []float64 `yaml:"handle_left,omitempty,flow"`
	HandleRight []float64 `yaml:"handle_right,omitempty,flow"`
}

// LoadSnapshot reads a snapshot file into a new scene. Objects keep the file
// order, which becomes the scene's enumeration order.
func LoadSnapshot(r io.Reader) (*kb.Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshot: read failed: %w", err)
	}
	var payload snapshotYAML
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode failed: %v", ErrInvalidSnapshot, err)
	}

	scene := kb.NewScene()
	for i, oy := range payload.Objects {
		o, err := oy.object()
		if err != nil {
			return nil, fmt.Errorf("%w: objects[%d]: %w", ErrInvalidSnapshot, i, err)
		}
		if err := scene.AddObject(o); err != nil {
			return nil, fmt.Errorf("%w: objects[%d]: %w", ErrInvalidSnapshot, i, err)
		}
	}
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return scene, nil
}

// LoadSnapshotFile opens path and calls LoadSnapshot.
func LoadSnapshotFile(path string) (*kb.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSnapshotFile: %w", err)
	}
	defer f.Close()
	return LoadSnapshot(f)
}

// EncodeSnapshot writes scene back in the snapshot file format. Local
// transforms are written as row-major matrices.
func EncodeSnapshot(scene *kb.Scene) ([]byte, error) {
	var payload snapshotYAML
	for _, o := range scene.Objects() {
		oy := objectYAML{
			Name:   o.Name,
			Type:   o.Kind,
			Parent: o.ParentID,
			Matrix: rowMajor(o.Local),
		}
		if len(o.Attributes) > 0 {
			oy.Attributes = make(map[string]any, len(o.Attributes))
			for k, v := range o.Attributes {
				oy.Attributes[k] = v.Interface()
			}
		}
		if o.Curve != nil {
			oy.Curve = &curveYAML{Times: o.Curve.Times}
			for _, s := range o.Curve.Splines {
				sy := splineYAML{Type: s.Kind}
				for _, p := range s.Points {
					py := pointYAML{}
					if s.Kind == model.SplineBezier {
						py.Co = []float64{p.Co[0], p.Co[1], p.Co[2]}
						py.HandleLeft = p.HandleLeft[:]
						py.HandleRight = p.HandleRight[:]
					} else {
						py.Co = p.Co[:]
					}
					sy.Points = append(sy.Points, py)
				}
				oy.Curve.Splines = append(oy.Curve.Splines, sy)
			}
		}
		payload.Objects = append(payload.Objects, oy)
	}
	return yaml.Marshal(&payload)
}

func (oy objectYAML) object() (*model.SceneObject, error) {
	if oy.Name == "" {
		return nil, fmt.Errorf("object without name")
	}
	o := &model.SceneObject{
		Name:     oy.Name,
		Kind:     oy.Type,
		ParentID: oy.Parent,
	}

	local, err := oy.local()
	if err != nil {
		return nil, fmt.Errorf("%q: %w", oy.Name, err)
	}
	o.Local = local

	if len(oy.Attributes) > 0 {
		o.Attributes = make(map[string]model.AttrValue, len(oy.Attributes))
		keys := make([]string, 0, len(oy.Attributes))
		for k := range oy.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := attrFromYAML(oy.Attributes[k])
			if err != nil {
				return nil, fmt.Errorf("%q: attribute %q: %w", oy.Name, k, err)
			}
			o.Attributes[k] = v
		}
	}

	if oy.Curve != nil {
		c, err := oy.Curve.snapshot()
		if err != nil {
			return nil, fmt.Errorf("%q: %w", oy.Name, err)
		}
		o.Curve = c
	}
	return o, nil
}

func (oy objectYAML) local() (mgl64.Mat4, error) {
	if oy.Matrix != nil {
		if len(oy.Matrix) != 16 {
			return mgl64.Mat4{}, fmt.Errorf("matrix has %d entries, want 16", len(oy.Matrix))
		}
		var m mgl64.Mat4
		copy(m[:], oy.Matrix)
		// Stored row-major; mgl64 is column-major.
		return m.Transpose(), nil
	}

	t := IdentityTransform()
	var err error
	if oy.Location != nil {
		if t.Translation, err = vec3Field("location", oy.Location); err != nil {
			return mgl64.Mat4{}, err
		}
	}
	if oy.Rotation != nil {
		if t.RotationDegrees, err = vec3Field("rotation", oy.Rotation); err != nil {
			return mgl64.Mat4{}, err
		}
	}
	if oy.Scale != nil {
		if t.Scale, err = vec3Field("scale", oy.Scale); err != nil {
			return mgl64.Mat4{}, err
		}
	}
	return ComposeTransform(t), nil
}

func (cy *curveYAML) snapshot() (*model.CurveSnapshot, error) {
	c := &model.CurveSnapshot{Times: cy.Times}
	for i, sy := range cy.Splines {
		s := model.SplineSnapshot{Kind: sy.Type}
		if s.Kind == "" {
			s.Kind = model.SplineBezier
		}
		for j, py := range sy.Points {
			var p model.PointSnapshot
			switch len(py.Co) {
			case 3:
				p.Co = mgl64.Vec4{py.Co[0], py.Co[1], py.Co[2], 1}
			case 4:
				p.Co = mgl64.Vec4{py.Co[0], py.Co[1], py.Co[2], py.Co[3]}
			default:
				return nil, fmt.Errorf("splines[%d].points[%d]: co has %d components", i, j, len(py.Co))
			}
			var err error
			if py.HandleLeft != nil {
				if p.HandleLeft, err = vec3Field("handle_left", py.HandleLeft); err != nil {
					return nil, err
				}
			} else {
				p.HandleLeft = p.Co.Vec3()
			}
			if py.HandleRight != nil {
				if p.HandleRight, err = vec3Field("handle_right", py.HandleRight); err != nil {
					return nil, err
				}
			} else {
				p.HandleRight = p.Co.Vec3()
			}
			s.Points = append(s.Points, p)
		}
		c.Splines = append(c.Splines, s)
	}
	return c, nil
}

// attrFromYAML maps decoded YAML scalars and number lists onto AttrValue.
func attrFromYAML(v any) (model.AttrValue, error) {
	switch x := v.(type) {
	case bool:
		return model.Bool(x), nil
	case int:
		return model.Number(float64(x)), nil
	case int64:
		return model.Number(float64(x)), nil
	case float64:
		return model.Number(x), nil
	case string:
		return model.String(x), nil
	case []any:
		nums := make([]float64, 0, len(x))
		for _, e := range x {
			switch n := e.(type) {
			case int:
				nums = append(nums, float64(n))
			case int64:
				nums = append(nums, float64(n))
			case float64:
				nums = append(nums, n)
			default:
				return model.AttrValue{}, fmt.Errorf("list element %v is not a number", e)
			}
		}
		return model.Numbers(nums), nil
	}
	return model.AttrValue{}, fmt.Errorf("unsupported value %T", v)
}

func vec3Field(field string, vs []float64) (mgl64.Vec3, error) {
	if len(vs) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%s has %d components, want 3", field, len(vs))
	}
	return mgl64.Vec3{vs[0], vs[1], vs[2]}, nil
}

func rowMajor(m mgl64.Mat4) []float64 {
	t := m.Transpose()
	return append([]float64(nil), t[:]...)
}
