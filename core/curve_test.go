package core

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

func TestAlignTimes(t *testing.T) {
	cases := []struct {
		name  string
		times []float64
		n     int
		want  []float64
	}{
		{name: "absent", times: nil, n: 3, want: nil},
		{name: "pad", times: []float64{0.5}, n: 3, want: []float64{0.5, 1, 1}},
		{name: "truncate", times: []float64{1, 2, 3, 4}, n: 2, want: []float64{1, 2}},
		{name: "exact", times: []float64{2, 3}, n: 2, want: []float64{2, 3}},
		{name: "empty array", times: []float64{}, n: 2, want: []float64{1, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AlignTimes(tc.times, tc.n)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("AlignTimes(%v, %d) = %v, want %v", tc.times, tc.n, got, tc.want)
			}
			if again := AlignTimes(got, tc.n); !reflect.DeepEqual(again, got) {
				t.Fatalf("AlignTimes is not idempotent: %v then %v", got, again)
			}
		})
	}
}

func TestAlignTimesDoesNotAliasInput(t *testing.T) {
	in := []float64{1, 2, 3}
	out := AlignTimes(in, 3)
	out[0] = 99
	if in[0] != 1 {
		t.Fatalf("AlignTimes modified its input")
	}
}

func TestExtractCurveBezierAndPoly(t *testing.T) {
	curve := &model.CurveSnapshot{
		Splines: []model.SplineSnapshot{
			{Kind: model.SplineBezier, Points: []model.PointSnapshot{
				{Co: mgl64.Vec4{0, 0, 0, 1}, HandleLeft: mgl64.Vec3{-1, 0, 0}, HandleRight: mgl64.Vec3{1, 0, 0}},
			}},
			{Kind: model.SplinePoly, Points: []model.PointSnapshot{
				{Co: mgl64.Vec4{1, 1, 1, 0.5}},
				{Co: mgl64.Vec4{2, 2, 2, 1}},
			}},
		},
		Times: []float64{0.25, 0.5},
	}
	world := mgl64.Translate3D(10, 0, 0)

	data, aligned := ExtractCurve(curve, world)

	if !reflect.DeepEqual(aligned, []float64{0.25, 0.5, 1}) {
		t.Fatalf("aligned = %v, want [0.25 0.5 1]", aligned)
	}
	if len(data.Splines) != 2 {
		t.Fatalf("splines = %d, want 2", len(data.Splines))
	}

	bez := data.Splines[0].Points[0]
	if len(bez.Position) != 3 || bez.Position[0] != 10 {
		t.Fatalf("bezier co = %v, want [10 0 0]", bez.Position)
	}
	if bez.HandleLeft == nil || *bez.HandleLeft != (mgl64.Vec3{9, 0, 0}) {
		t.Fatalf("handle_left = %v, want [9 0 0]", bez.HandleLeft)
	}
	if bez.HandleRight == nil || *bez.HandleRight != (mgl64.Vec3{11, 0, 0}) {
		t.Fatalf("handle_right = %v, want [11 0 0]", bez.HandleRight)
	}
	if bez.Time == nil || *bez.Time != 0.25 {
		t.Fatalf("bezier time = %v, want 0.25", bez.Time)
	}

	poly := data.Splines[1].Points
	if len(poly[0].Position) != 4 || poly[0].Position[3] != 0.5 || poly[0].Position[0] != 11 {
		t.Fatalf("poly co = %v, want [11 1 1 0.5]", poly[0].Position)
	}
	if poly[0].HandleLeft != nil {
		t.Fatalf("poly point should not carry handles")
	}
	// Time indices run across splines.
	if *poly[0].Time != 0.5 || *poly[1].Time != 1 {
		t.Fatalf("poly times = %v, %v, want 0.5, 1", *poly[0].Time, *poly[1].Time)
	}
}

func TestExtractCurveWithoutTimes(t *testing.T) {
	curve := &model.CurveSnapshot{
		Splines: []model.SplineSnapshot{{Kind: model.SplineBezier, Points: make([]model.PointSnapshot, 2)}},
	}
	data, aligned := ExtractCurve(curve, mgl64.Ident4())
	if aligned != nil {
		t.Fatalf("aligned = %v, want nil", aligned)
	}
	for _, p := range data.Splines[0].Points {
		if p.Time != nil {
			t.Fatalf("point has time %v without a timing array", *p.Time)
		}
	}
}
