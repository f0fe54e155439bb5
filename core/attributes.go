package core

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

// Well-known attribute keys surfaced as dedicated document fields.
const (
	AttrKeyType           = "type"
	AttrKeyDisabled       = "disabled"
	AttrKeyFileName       = "file_name"
	AttrKeyFileNameLegacy = "File_name"
	AttrKeyCollider       = "collider"
	AttrKeyColliderCenter = "collider_center"
	AttrKeyColliderSize   = "collider_size"
)

// DefaultReservedPrefixes lists the key prefixes of host bookkeeping
// properties. "_" covers "_RNA_UI".
var DefaultReservedPrefixes = []string{"_", "rna_", "cycles"}

var defaultColliderSize = mgl64.Vec3{2, 2, 2}

// KeyFilter reports whether a key is reserved and must not be surfaced.
type KeyFilter func(key string) bool

// ReservedPrefixFilter rejects every key starting with one of prefixes.
func ReservedPrefixFilter(prefixes ...string) KeyFilter {
	ps := append([]string(nil), prefixes...)
	return func(key string) bool {
		for _, p := range ps {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	}
}

// DefaultKeyFilter is ReservedPrefixFilter(DefaultReservedPrefixes...).
func DefaultKeyFilter() KeyFilter {
	return ReservedPrefixFilter(DefaultReservedPrefixes...)
}

// Attributes is the typed view of an object's attribute bag.
type Attributes struct {
	// TypeOverride is the string "type" attribute, if any.
	TypeOverride string

	Disabled *bool
	FileName *string
	Collider *model.ColliderSpec

	// Generic holds every other surfaced key, verbatim.
	Generic map[string]model.AttrValue
}

// ExtractAttributes filters bag through reserved and maps the well-known keys
// onto dedicated fields. A nil filter surfaces everything. Unknown keys pass
// through untouched; their meaning is not validated.
func ExtractAttributes(bag map[string]model.AttrValue, reserved KeyFilter) Attributes {
	out := Attributes{Generic: make(map[string]model.AttrValue)}
	if reserved == nil {
		reserved = func(string) bool { return false }
	}

	for key, v := range bag {
		if reserved(key) {
			continue
		}
		switch key {
		case AttrKeyType:
			if v.Kind == model.AttrString && v.String != "" {
				out.TypeOverride = v.String
			} else {
				out.Generic[key] = v
			}
		case AttrKeyDisabled:
			b := v.Truthy()
			out.Disabled = &b
		case AttrKeyFileName, AttrKeyFileNameLegacy:
			// The current spelling wins when both are present.
			if out.FileName != nil && key == AttrKeyFileNameLegacy {
				continue
			}
			s := v.Text()
			out.FileName = &s
		case AttrKeyCollider:
			out.Collider = &model.ColliderSpec{Shape: v.Text(), Size: defaultColliderSize}
		case AttrKeyColliderCenter, AttrKeyColliderSize:
			// Folded into the collider below.
		default:
			out.Generic[key] = v
		}
	}

	if out.Collider != nil {
		if v, ok := bag[AttrKeyColliderCenter]; ok {
			if c, ok := vec3Of(v); ok {
				out.Collider.Center = c
			}
		}
		if v, ok := bag[AttrKeyColliderSize]; ok {
			if s, ok := vec3Of(v); ok {
				out.Collider.Size = s
			}
		}
	} else {
		// Without a shape the cluster is just two custom vectors.
		for _, key := range []string{AttrKeyColliderCenter, AttrKeyColliderSize} {
			if v, ok := bag[key]; ok && !reserved(key) {
				out.Generic[key] = v
			}
		}
	}

	return out
}

func vec3Of(v model.AttrValue) (mgl64.Vec3, bool) {
	if !v.IsVector() || len(v.Vec) < 3 {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{v.Vec[0], v.Vec[1], v.Vec[2]}, true
}
