package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/signalsfoundry/scenekit/model"
)

const jsonIndent = "    "

// JSONEncoder writes the document as pretty-printed JSON with a fixed field
// order: type, name, transform, the legacy fields, the remaining attributes
// in key order, curve, children.
type JSONEncoder struct{}

func (JSONEncoder) Format() string { return FormatJSON }

func (JSONEncoder) Encode(doc *model.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}

	w := &objectWriter{}
	w.open()
	w.field("name", doc.Name)
	w.key("objects")
	w.buf.WriteByte('[')
	for i, n := range doc.Objects {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		writeNodeJSON(w, n)
	}
	w.buf.WriteByte(']')
	w.close()

	if w.err != nil {
		return nil, fmt.Errorf("encode json: %w", w.err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, w.buf.Bytes(), "", jsonIndent); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeNodeJSON(w *objectWriter, n *model.SceneNode) {
	w.open()
	w.field("type", n.Type)
	w.field("name", n.Name)
	w.key("transform")
	w.open()
	w.field("translation", n.Transform.Translation[:])
	w.field("rotation", n.Transform.RotationDegrees[:])
	w.field("scale", n.Transform.Scale[:])
	w.close()

	if n.Disabled != nil {
		w.field("disabled", *n.Disabled)
	}
	if n.FileName != nil {
		w.field("file_name", *n.FileName)
	}
	if n.Collider != nil {
		w.key("collider")
		w.open()
		w.field("type", n.Collider.Shape)
		w.field("center", n.Collider.Center[:])
		w.field("size", n.Collider.Size[:])
		w.close()
	}
	for _, k := range sortedKeys(n.Attributes) {
		w.field(k, n.Attributes[k].Interface())
	}

	if n.Curve != nil {
		w.key("curve")
		w.open()
		w.key("splines")
		w.buf.WriteByte('[')
		for i, s := range n.Curve.Splines {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.open()
			w.field("type", s.Kind)
			w.key("points")
			w.buf.WriteByte('[')
			for j, p := range s.Points {
				if j > 0 {
					w.buf.WriteByte(',')
				}
				w.open()
				w.field("co", p.Position)
				if p.HandleLeft != nil {
					w.field("handle_left", p.HandleLeft[:])
				}
				if p.HandleRight != nil {
					w.field("handle_right", p.HandleRight[:])
				}
				if p.Time != nil {
					w.field("time", *p.Time)
				}
				w.close()
			}
			w.buf.WriteByte(']')
			w.close()
		}
		w.buf.WriteByte(']')
		w.close()
	}

	if len(n.Children) > 0 {
		w.key("children")
		w.buf.WriteByte('[')
		for i, c := range n.Children {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			writeNodeJSON(w, c)
		}
		w.buf.WriteByte(']')
	}
	w.close()
}

// objectWriter emits compact JSON objects with keys in call order. The first
// marshal error sticks and later writes become no-ops.
type objectWriter struct {
	buf   bytes.Buffer
	first []bool
	err   error
}

func (w *objectWriter) open() {
	w.buf.WriteByte('{')
	w.first = append(w.first, true)
}

func (w *objectWriter) close() {
	w.buf.WriteByte('}')
	w.first = w.first[:len(w.first)-1]
}

func (w *objectWriter) key(k string) {
	top := len(w.first) - 1
	if !w.first[top] {
		w.buf.WriteByte(',')
	}
	w.first[top] = false
	w.raw(k)
	w.buf.WriteByte(':')
}

func (w *objectWriter) field(k string, v any) {
	w.key(k)
	w.raw(v)
}

func (w *objectWriter) raw(v any) {
	if w.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.buf.Write(b)
}
