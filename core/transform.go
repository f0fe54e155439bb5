package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

const (
	minScale     = 1e-12
	gimbalLockEp = 1e-9
)

// DecomposeTransform splits a local 4x4 matrix into translation, Euler XYZ
// rotation in degrees, and scale.
//
// Rotation follows R = Rz·Ry·Rx. Near ±90° pitch the roll/yaw split is
// ambiguous and yaw is pinned to zero. A matrix with negative determinant
// reports all three scale components negated.
func DecomposeTransform(m mgl64.Mat4) (model.Transform, error) {
	for i := 0; i < 16; i++ {
		if !finite(m[i]) {
			return model.Transform{}, fmt.Errorf("%w: non-finite matrix entry", ErrDecompose)
		}
	}

	c0 := m.Col(0).Vec3()
	c1 := m.Col(1).Vec3()
	c2 := m.Col(2).Vec3()
	scale := mgl64.Vec3{c0.Len(), c1.Len(), c2.Len()}
	for i := 0; i < 3; i++ {
		if scale[i] < minScale {
			return model.Transform{}, fmt.Errorf("%w: degenerate scale on axis %d", ErrDecompose, i)
		}
	}
	if m.Mat3().Det() < 0 {
		scale = scale.Mul(-1)
	}

	r := mgl64.Mat3FromCols(c0.Mul(1/scale[0]), c1.Mul(1/scale[1]), c2.Mul(1/scale[2]))
	euler := eulerXYZ(r)

	return model.Transform{
		Translation: m.Col(3).Vec3(),
		RotationDegrees: mgl64.Vec3{
			mgl64.RadToDeg(euler[0]),
			mgl64.RadToDeg(euler[1]),
			mgl64.RadToDeg(euler[2]),
		},
		Scale: scale,
	}, nil
}

// eulerXYZ returns (x, y, z) radians for a pure rotation matrix.
func eulerXYZ(r mgl64.Mat3) mgl64.Vec3 {
	cy := math.Hypot(r.At(0, 0), r.At(1, 0))
	y := math.Atan2(-r.At(2, 0), cy)
	if cy > gimbalLockEp {
		return mgl64.Vec3{
			math.Atan2(r.At(2, 1), r.At(2, 2)),
			y,
			math.Atan2(r.At(1, 0), r.At(0, 0)),
		}
	}
	return mgl64.Vec3{math.Atan2(-r.At(1, 2), r.At(1, 1)), y, 0}
}

// ComposeTransform builds T·Rz·Ry·Rx·S from a decomposed transform.
func ComposeTransform(t model.Transform) mgl64.Mat4 {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(t.RotationDegrees[0]))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(t.RotationDegrees[1]))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(t.RotationDegrees[2]))
	tr := mgl64.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2])
	sc := mgl64.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return tr.Mul4(rz).Mul4(ry).Mul4(rx).Mul4(sc)
}

// IdentityTransform is the decomposition of the identity matrix.
func IdentityTransform() model.Transform {
	return model.Transform{Scale: mgl64.Vec3{1, 1, 1}}
}
