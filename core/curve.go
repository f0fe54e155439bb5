package core

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

// DefaultPointTime is the duration given to points that had no timing entry.
const DefaultPointTime = 1.0

// AlignTimes returns times resized to n entries: missing entries are
// right-padded with DefaultPointTime, extra entries are dropped. A nil array
// stays nil. Aligning an aligned array returns an equal array.
func AlignTimes(times []float64, n int) []float64 {
	if times == nil {
		return nil
	}
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	copied := copy(out, times)
	for i := copied; i < n; i++ {
		out[i] = DefaultPointTime
	}
	return out
}

// ExtractCurve converts a curve snapshot into world-space document data.
//
// Bezier points carry their position and both handles; every other spline
// kind keeps the homogeneous 4-component position. When the curve has a
// timing array, each point gets the entry at its running index across all
// splines, taken from the aligned array, which is also returned so the caller
// can write it back as the array of record.
func ExtractCurve(curve *model.CurveSnapshot, world mgl64.Mat4) (*model.CurveData, []float64) {
	if curve == nil {
		return nil, nil
	}

	aligned := AlignTimes(curve.Times, curve.PointCount())
	data := &model.CurveData{Splines: make([]model.Spline, 0, len(curve.Splines))}

	idx := 0
	for _, s := range curve.Splines {
		spline := model.Spline{Kind: s.Kind, Points: make([]model.ControlPoint, 0, len(s.Points))}
		for _, p := range s.Points {
			var cp model.ControlPoint
			if s.Kind == model.SplineBezier {
				co := TransformPoint(world, p.Co.Vec3())
				hl := TransformPoint(world, p.HandleLeft)
				hr := TransformPoint(world, p.HandleRight)
				cp = model.ControlPoint{Position: co[:], HandleLeft: &hl, HandleRight: &hr}
			} else {
				co := TransformHomogeneous(world, p.Co)
				cp = model.ControlPoint{Position: co[:]}
			}
			if aligned != nil {
				t := aligned[idx]
				cp.Time = &t
			}
			spline.Points = append(spline.Points, cp)
			idx++
		}
		data.Splines = append(data.Splines, spline)
	}
	return data, aligned
}
