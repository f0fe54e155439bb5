package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Lerp returns the point at fraction t along a→b. t is clamped to [0,1].
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = clamp01(t)
	return a.Add(b.Sub(a).Mul(t))
}

// TransformPoint applies m to a point (w = 1).
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformHomogeneous applies m to the xyz part of a homogeneous control
// point and keeps its weight.
func TransformHomogeneous(m mgl64.Mat4, p mgl64.Vec4) mgl64.Vec4 {
	return TransformPoint(m, p.Vec3()).Vec4(p.W())
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
