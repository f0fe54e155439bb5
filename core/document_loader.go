package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/scenekit/model"
)

// internal JSON shapes; unexported so the wire layout can evolve.
type documentJSON struct {
	Name    string            `json:"name"`
	Objects []json.RawMessage `json:"objects"`
}

type transformJSON struct {
	Translation []float64 `json:"translation"`
	Rotation    []float64 `json:"rotation"`
	Scale       []float64 `json:"scale"`
}

type colliderJSON struct {
	Type   string    `json:"type"`
	Center []float64 `json:"center"`
	Size   []float64 `json:"size"`
}

type curveJSON struct {
	Splines []struct {
		Type   string `json:"type"`
		Points []struct {
			Co          []float64 `json:"co"`
			HandleLeft  []float64 `json:"handle_left"`
			HandleRight []float64 `json:"handle_right"`
			Time        *float64  `json:"time"`
		} `json:"points"`
	} `json:"splines"`
}

// LoadDocument reads a JSON scene document. Fields other than the known
// structural and legacy ones are read back as attributes; values that are
// neither scalars nor flat number arrays are ignored.
func LoadDocument(r io.Reader) (*model.Document, error) {
	var payload documentJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadDocument: decode failed: %w", err)
	}
	if payload.Name != model.DocumentName {
		return nil, fmt.Errorf("%w: root name %q, want %q", ErrInvalidDocument, payload.Name, model.DocumentName)
	}

	doc := &model.Document{Name: payload.Name}
	for i, raw := range payload.Objects {
		n, err := decodeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("LoadDocument: objects[%d]: %w", i, err)
		}
		doc.Objects = append(doc.Objects, n)
	}
	return doc, nil
}

// LoadDocumentProto reads a document written by ProtoEncoder.
func LoadDocumentProto(b []byte) (*model.Document, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("LoadDocumentProto: decode failed: %w", err)
	}
	js, err := json.Marshal(st.AsMap())
	if err != nil {
		return nil, fmt.Errorf("LoadDocumentProto: %w", err)
	}
	return LoadDocument(bytes.NewReader(js))
}

func decodeNode(raw json.RawMessage) (*model.SceneNode, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	n := &model.SceneNode{}
	if err := unmarshalField(fields, "type", &n.Type); err != nil {
		return nil, err
	}
	if err := unmarshalField(fields, "name", &n.Name); err != nil {
		return nil, err
	}
	if n.Name == "" {
		return nil, fmt.Errorf("%w: object without name", ErrInvalidDocument)
	}

	var tr transformJSON
	if err := unmarshalField(fields, "transform", &tr); err != nil {
		return nil, err
	}
	var err error
	if n.Transform, err = decodeTransform(tr); err != nil {
		return nil, fmt.Errorf("object %q: %w", n.Name, err)
	}

	for key, v := range fields {
		switch key {
		case "type", "name", "transform", "curve", "children", "collider_center", "collider_size":
		case "disabled":
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				return nil, fmt.Errorf("%w: object %q: disabled: %v", ErrInvalidDocument, n.Name, err)
			}
			n.Disabled = &b
		case "file_name", "File_name":
			if n.FileName != nil && key == "File_name" {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, fmt.Errorf("%w: object %q: %s: %v", ErrInvalidDocument, n.Name, key, err)
			}
			n.FileName = &s
		case "collider":
			c, err := decodeCollider(v, fields)
			if err != nil {
				return nil, fmt.Errorf("object %q: %w", n.Name, err)
			}
			n.Collider = c
		default:
			if av, ok := decodeAttr(v); ok {
				if n.Attributes == nil {
					n.Attributes = make(map[string]model.AttrValue)
				}
				n.Attributes[key] = av
			}
		}
	}

	if raw, ok := fields["curve"]; ok {
		c, err := decodeCurve(raw)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", n.Name, err)
		}
		n.Curve = c
	}

	var children []json.RawMessage
	if err := unmarshalField(fields, "children", &children); err != nil {
		return nil, err
	}
	for _, c := range children {
		child, err := decodeNode(c)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func unmarshalField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, key, err)
	}
	return nil
}

func decodeTransform(tr transformJSON) (model.Transform, error) {
	out := IdentityTransform()
	var err error
	if tr.Translation != nil {
		if out.Translation, err = toVec3("translation", tr.Translation); err != nil {
			return out, err
		}
	}
	if tr.Rotation != nil {
		if out.RotationDegrees, err = toVec3("rotation", tr.Rotation); err != nil {
			return out, err
		}
	}
	if tr.Scale != nil {
		if out.Scale, err = toVec3("scale", tr.Scale); err != nil {
			return out, err
		}
	}
	return out, nil
}

// decodeCollider accepts both the nested object and the flat legacy cluster
// ("collider": "<shape>" with collider_center / collider_size siblings).
func decodeCollider(raw json.RawMessage, fields map[string]json.RawMessage) (*model.ColliderSpec, error) {
	c := &model.ColliderSpec{Size: defaultColliderSize}

	var shape string
	if err := json.Unmarshal(raw, &shape); err == nil {
		c.Shape = shape
		var center, size []float64
		if err := unmarshalField(fields, "collider_center", &center); err != nil {
			return nil, err
		}
		if err := unmarshalField(fields, "collider_size", &size); err != nil {
			return nil, err
		}
		return fillCollider(c, center, size)
	}

	var cj colliderJSON
	if err := json.Unmarshal(raw, &cj); err != nil {
		return nil, fmt.Errorf("%w: collider: %v", ErrInvalidDocument, err)
	}
	c.Shape = cj.Type
	return fillCollider(c, cj.Center, cj.Size)
}

func fillCollider(c *model.ColliderSpec, center, size []float64) (*model.ColliderSpec, error) {
	var err error
	if center != nil {
		if c.Center, err = toVec3("collider center", center); err != nil {
			return nil, err
		}
	}
	if size != nil {
		if c.Size, err = toVec3("collider size", size); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func decodeCurve(raw json.RawMessage) (*model.CurveData, error) {
	var cj curveJSON
	if err := json.Unmarshal(raw, &cj); err != nil {
		return nil, fmt.Errorf("%w: curve: %v", ErrInvalidDocument, err)
	}

	out := &model.CurveData{Splines: make([]model.Spline, 0, len(cj.Splines))}
	for _, s := range cj.Splines {
		spline := model.Spline{Kind: s.Type, Points: make([]model.ControlPoint, 0, len(s.Points))}
		for _, p := range s.Points {
			if len(p.Co) != 3 && len(p.Co) != 4 {
				return nil, fmt.Errorf("%w: curve point co has %d components", ErrInvalidDocument, len(p.Co))
			}
			cp := model.ControlPoint{Position: p.Co, Time: p.Time}
			if p.HandleLeft != nil {
				v, err := toVec3("handle_left", p.HandleLeft)
				if err != nil {
					return nil, err
				}
				cp.HandleLeft = &v
			}
			if p.HandleRight != nil {
				v, err := toVec3("handle_right", p.HandleRight)
				if err != nil {
					return nil, err
				}
				cp.HandleRight = &v
			}
			spline.Points = append(spline.Points, cp)
		}
		out.Splines = append(out.Splines, spline)
	}
	return out, nil
}

// decodeAttr maps a JSON value onto AttrValue. Number arrays of length 2-4
// become vectors, other lengths a list.
func decodeAttr(raw json.RawMessage) (model.AttrValue, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.AttrValue{}, false
	}
	switch x := v.(type) {
	case bool:
		return model.Bool(x), true
	case float64:
		return model.Number(x), true
	case string:
		return model.String(x), true
	case []any:
		nums := make([]float64, 0, len(x))
		for _, e := range x {
			f, ok := e.(float64)
			if !ok {
				return model.AttrValue{}, false
			}
			nums = append(nums, f)
		}
		return model.Numbers(nums), true
	}
	return model.AttrValue{}, false
}

func toVec3(field string, vs []float64) (mgl64.Vec3, error) {
	if len(vs) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%w: %s has %d components, want 3", ErrInvalidDocument, field, len(vs))
	}
	return mgl64.Vec3{vs[0], vs[1], vs[2]}, nil
}
