package model

import (
	"fmt"
	"math"
)

// AttrKind tags the value held by an AttrValue.
type AttrKind int

const (
	AttrInvalid AttrKind = iota
	AttrBool
	AttrNumber
	AttrString
	AttrVec2
	AttrVec3
	AttrVec4
	AttrList // list of numbers whose length is not 2, 3 or 4
)

func (k AttrKind) String() string {
	switch k {
	case AttrBool:
		return "bool"
	case AttrNumber:
		return "number"
	case AttrString:
		return "string"
	case AttrVec2:
		return "vec2"
	case AttrVec3:
		return "vec3"
	case AttrVec4:
		return "vec4"
	case AttrList:
		return "list"
	default:
		return "invalid"
	}
}

// AttrValue is a custom attribute value. Host-specific property systems are
// mapped onto it at the collaborator boundary.
type AttrValue struct {
	Kind   AttrKind
	Bool   bool
	Number float64
	String string
	// Vec backs every vector and list kind.
	Vec []float64
}

// Bool wraps a boolean.
func Bool(v bool) AttrValue { return AttrValue{Kind: AttrBool, Bool: v} }

// Number wraps a float.
func Number(v float64) AttrValue { return AttrValue{Kind: AttrNumber, Number: v} }

// String wraps a string.
func String(v string) AttrValue { return AttrValue{Kind: AttrString, String: v} }

func Vec2(x, y float64) AttrValue { return AttrValue{Kind: AttrVec2, Vec: []float64{x, y}} }

func Vec3(x, y, z float64) AttrValue {
	return AttrValue{Kind: AttrVec3, Vec: []float64{x, y, z}}
}

func Vec4(x, y, z, w float64) AttrValue {
	return AttrValue{Kind: AttrVec4, Vec: []float64{x, y, z, w}}
}

// Numbers picks the vector kind matching len(vs), falling back to AttrList.
// The slice is copied.
func Numbers(vs []float64) AttrValue {
	cp := append([]float64(nil), vs...)
	switch len(cp) {
	case 2:
		return AttrValue{Kind: AttrVec2, Vec: cp}
	case 3:
		return AttrValue{Kind: AttrVec3, Vec: cp}
	case 4:
		return AttrValue{Kind: AttrVec4, Vec: cp}
	default:
		if cp == nil {
			cp = []float64{}
		}
		return AttrValue{Kind: AttrList, Vec: cp}
	}
}

// List always produces an AttrList regardless of length.
func List(vs []float64) AttrValue {
	cp := append([]float64{}, vs...)
	return AttrValue{Kind: AttrList, Vec: cp}
}

// IsVector reports whether the value carries numeric components.
func (v AttrValue) IsVector() bool {
	switch v.Kind {
	case AttrVec2, AttrVec3, AttrVec4, AttrList:
		return true
	}
	return false
}

// Truthy coerces the value to a boolean the way loosely typed property
// systems do: non-zero numbers, non-empty strings and vectors are true.
func (v AttrValue) Truthy() bool {
	switch v.Kind {
	case AttrBool:
		return v.Bool
	case AttrNumber:
		return v.Number != 0
	case AttrString:
		return v.String != ""
	case AttrVec2, AttrVec3, AttrVec4, AttrList:
		return len(v.Vec) > 0
	}
	return false
}

// Text renders the value for single-line text output.
func (v AttrValue) Text() string {
	switch v.Kind {
	case AttrBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case AttrNumber:
		if v.Number == math.Trunc(v.Number) && math.Abs(v.Number) < 1e15 {
			return fmt.Sprintf("%d", int64(v.Number))
		}
		return fmt.Sprintf("%g", v.Number)
	case AttrString:
		return v.String
	case AttrVec2, AttrVec3, AttrVec4, AttrList:
		return fmt.Sprint(v.Vec)
	}
	return ""
}

// Interface returns the value as a plain Go value (bool, float64, string or
// []any of float64), the shape generic encoders expect.
func (v AttrValue) Interface() any {
	switch v.Kind {
	case AttrBool:
		return v.Bool
	case AttrNumber:
		return v.Number
	case AttrString:
		return v.String
	case AttrVec2, AttrVec3, AttrVec4, AttrList:
		out := make([]any, len(v.Vec))
		for i, f := range v.Vec {
			out[i] = f
		}
		return out
	}
	return nil
}

// Equal compares two values including kind.
func (v AttrValue) Equal(o AttrValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case AttrBool:
		return v.Bool == o.Bool
	case AttrNumber:
		return v.Number == o.Number
	case AttrString:
		return v.String == o.String
	}
	if len(v.Vec) != len(o.Vec) {
		return false
	}
	for i := range v.Vec {
		if v.Vec[i] != o.Vec[i] {
			return false
		}
	}
	return true
}
