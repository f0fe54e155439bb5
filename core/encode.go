package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/signalsfoundry/scenekit/model"
)

// Output formats, named after their file extensions.
const (
	FormatJSON  = "json"
	FormatText  = "scene"
	FormatProto = "pb"
)

// Encoder renders a document into a file payload.
type Encoder interface {
	Format() string
	Encode(doc *model.Document) ([]byte, error)
}

// EncoderForFormat returns the encoder registered for format.
func EncoderForFormat(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case FormatJSON:
		return JSONEncoder{}, nil
	case FormatText:
		return TextEncoder{}, nil
	case FormatProto:
		return ProtoEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// EncoderForPath picks an encoder from the file extension of path.
func EncoderForPath(path string) (Encoder, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, path)
	}
	return EncoderForFormat(ext)
}

// sortedKeys returns the attribute keys in lexical order so encodings are
// stable across runs.
func sortedKeys(m map[string]model.AttrValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// documentValue converts doc into plain maps and slices, the shape generic
// encoders such as structpb accept.
func documentValue(doc *model.Document) map[string]any {
	objects := make([]any, 0, len(doc.Objects))
	for _, n := range doc.Objects {
		objects = append(objects, nodeValue(n))
	}
	return map[string]any{
		"name":    doc.Name,
		"objects": objects,
	}
}

func nodeValue(n *model.SceneNode) map[string]any {
	out := map[string]any{
		"type": n.Type,
		"name": n.Name,
		"transform": map[string]any{
			"translation": floats(n.Transform.Translation[:]),
			"rotation":    floats(n.Transform.RotationDegrees[:]),
			"scale":       floats(n.Transform.Scale[:]),
		},
	}
	for k, v := range n.Attributes {
		out[k] = v.Interface()
	}
	if n.Disabled != nil {
		out["disabled"] = *n.Disabled
	}
	if n.FileName != nil {
		out["file_name"] = *n.FileName
	}
	if n.Collider != nil {
		out["collider"] = map[string]any{
			"type":   n.Collider.Shape,
			"center": floats(n.Collider.Center[:]),
			"size":   floats(n.Collider.Size[:]),
		}
	}
	if n.Curve != nil {
		out["curve"] = curveValue(n.Curve)
	}
	if len(n.Children) > 0 {
		children := make([]any, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, nodeValue(c))
		}
		out["children"] = children
	}
	return out
}

func curveValue(c *model.CurveData) map[string]any {
	splines := make([]any, 0, len(c.Splines))
	for _, s := range c.Splines {
		points := make([]any, 0, len(s.Points))
		for _, p := range s.Points {
			pt := map[string]any{"co": floats(p.Position)}
			if p.HandleLeft != nil {
				pt["handle_left"] = floats(p.HandleLeft[:])
			}
			if p.HandleRight != nil {
				pt["handle_right"] = floats(p.HandleRight[:])
			}
			if p.Time != nil {
				pt["time"] = *p.Time
			}
			points = append(points, pt)
		}
		splines = append(splines, map[string]any{"type": s.Kind, "points": points})
	}
	return map[string]any{"splines": splines}
}

func floats(vs []float64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
