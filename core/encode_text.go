package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

// TextEncoder writes the legacy line-oriented format:
//
//	SCENE
//	 MESH
//	 T 0.000000 0.000000 0.000000
//	 R ...
//	 S ...
//	 END
//
// Every line of a node is prefixed with a space plus one tab per depth level.
// Generic attributes and curve data have no representation here.
type TextEncoder struct{}

func (TextEncoder) Format() string { return FormatText }

func (TextEncoder) Encode(doc *model.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}

	var buf bytes.Buffer
	buf.WriteString("SCENE\n")
	doc.Walk(func(n *model.SceneNode, depth int) {
		writeNodeText(&buf, n, " "+strings.Repeat("\t", depth))
	})
	return buf.Bytes(), nil
}

func writeNodeText(buf *bytes.Buffer, n *model.SceneNode, indent string) {
	line := func(format string, args ...any) {
		buf.WriteString(indent)
		fmt.Fprintf(buf, format, args...)
		buf.WriteByte('\n')
	}
	vec := func(tag string, v mgl64.Vec3) {
		line("%s %f %f %f", tag, v[0], v[1], v[2])
	}

	line("%s", n.Type)
	vec("T", n.Transform.Translation)
	vec("R", n.Transform.RotationDegrees)
	vec("S", n.Transform.Scale)
	if n.Disabled != nil {
		line("D %s", model.Bool(*n.Disabled).Text())
	}
	if n.FileName != nil {
		line("N %s", *n.FileName)
	}
	if n.Collider != nil {
		line("C %s", n.Collider.Shape)
		vec("CC", n.Collider.Center)
		vec("CS", n.Collider.Size)
	}
	line("END")
	buf.WriteByte('\n')
}
