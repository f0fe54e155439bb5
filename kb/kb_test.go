package kb

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

func obj(name, parent string) *model.SceneObject {
	return &model.SceneObject{Name: name, Kind: model.KindEmpty, ParentID: parent, Local: mgl64.Ident4()}
}

func names(objs []*model.SceneObject) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Name)
	}
	return out
}

func TestAddAndGetObject(t *testing.T) {
	scene := NewScene()
	if err := scene.AddObject(obj("Cube", "")); err != nil {
		t.Fatalf("AddObject error: %v", err)
	}
	got := scene.Object("Cube")
	if got == nil || got.Kind != model.KindEmpty {
		t.Fatalf("Object returned %#v, want EMPTY Cube", got)
	}
	if scene.Object("missing") != nil {
		t.Fatalf("Object(missing) should be nil")
	}
}

func TestAddObjectDuplicate(t *testing.T) {
	scene := NewScene()
	if err := scene.AddObject(obj("a", "")); err != nil {
		t.Fatalf("first AddObject error: %v", err)
	}
	if err := scene.AddObject(obj("a", "")); !errors.Is(err, ErrObjectExists) {
		t.Fatalf("duplicate AddObject error = %v, want ErrObjectExists", err)
	}
	if err := scene.AddObject(obj("", "")); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestRootsAndChildrenKeepEnumerationOrder(t *testing.T) {
	scene := NewScene()
	// Child listed before its parent, roots in non-alphabetical order.
	for _, o := range []*model.SceneObject{
		obj("zeta", ""),
		obj("child2", "alpha"),
		obj("alpha", ""),
		obj("child1", "alpha"),
	} {
		if err := scene.AddObject(o); err != nil {
			t.Fatalf("AddObject(%s) error: %v", o.Name, err)
		}
	}

	if got := fmt.Sprint(names(scene.Roots())); got != "[zeta alpha]" {
		t.Fatalf("Roots = %s, want [zeta alpha]", got)
	}
	if got := fmt.Sprint(names(scene.Children("alpha"))); got != "[child2 child1]" {
		t.Fatalf("Children(alpha) = %s, want [child2 child1]", got)
	}
	if err := scene.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestValidateDetectsBrokenHierarchy(t *testing.T) {
	scene := NewScene()
	_ = scene.AddObject(obj("orphan", "ghost"))
	if err := scene.Validate(); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("Validate error = %v, want ErrInvalidHierarchy", err)
	}

	cyclic := NewScene()
	_ = cyclic.AddObject(obj("a", "b"))
	_ = cyclic.AddObject(obj("b", "a"))
	if err := cyclic.Validate(); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("Validate on cycle error = %v, want ErrInvalidHierarchy", err)
	}
}

func TestWorldMatrixComposesParents(t *testing.T) {
	scene := NewScene()
	parent := obj("parent", "")
	parent.Local = mgl64.Translate3D(1, 0, 0)
	child := obj("child", "parent")
	child.Local = mgl64.Translate3D(0, 2, 0)
	_ = scene.AddObject(parent)
	_ = scene.AddObject(child)

	world, err := scene.WorldMatrix("child")
	if err != nil {
		t.Fatalf("WorldMatrix error: %v", err)
	}
	got := world.Col(3).Vec3()
	if !got.ApproxEqual(mgl64.Vec3{1, 2, 0}) {
		t.Fatalf("world translation = %v, want [1 2 0]", got)
	}

	if _, err := scene.WorldMatrix("nope"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("WorldMatrix(nope) error = %v, want ErrObjectNotFound", err)
	}
}

func TestSetCurveTimesEmitsOnlyOnChange(t *testing.T) {
	scene := NewScene()
	curve := obj("Path", "")
	curve.Kind = model.KindCurve
	curve.Curve = &model.CurveSnapshot{Times: []float64{1}}
	_ = scene.AddObject(curve)

	var events []Event
	unsubscribe := scene.Subscribe(func(e Event) { events = append(events, e) })
	defer unsubscribe()

	changed, err := scene.SetCurveTimes("Path", []float64{1, 1})
	if err != nil || !changed {
		t.Fatalf("SetCurveTimes = (%v, %v), want (true, nil)", changed, err)
	}
	changed, err = scene.SetCurveTimes("Path", []float64{1, 1})
	if err != nil || changed {
		t.Fatalf("second SetCurveTimes = (%v, %v), want (false, nil)", changed, err)
	}

	if len(events) != 1 || events[0].Type != EventCurveTimesCorrected || events[0].Object != "Path" {
		t.Fatalf("events = %#v, want one EventCurveTimesCorrected for Path", events)
	}

	if _, err := scene.SetCurveTimes("missing", nil); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("SetCurveTimes(missing) error = %v, want ErrObjectNotFound", err)
	}
}

func TestReplaceSubtree(t *testing.T) {
	scene := NewScene()
	_ = scene.AddObject(obj("other", ""))
	_ = scene.AddObject(obj("Route", ""))
	_ = scene.AddObject(obj("RP_000", "Route"))
	_ = scene.AddObject(obj("RP_001", "Route"))

	var removed []string
	scene.Subscribe(func(e Event) {
		if e.Type == EventObjectRemoved {
			removed = append(removed, e.Object)
		}
	})

	err := scene.ReplaceSubtree("Route", []*model.SceneObject{
		obj("Route", ""),
		obj("RP_000", "Route"),
	})
	if err != nil {
		t.Fatalf("ReplaceSubtree error: %v", err)
	}

	if got := fmt.Sprint(names(scene.Objects())); got != "[other Route RP_000]" {
		t.Fatalf("Objects = %s, want [other Route RP_000]", got)
	}
	if len(removed) != 3 {
		t.Fatalf("removed events = %v, want 3", removed)
	}
	if got := len(scene.Children("Route")); got != 1 {
		t.Fatalf("Children(Route) len = %d, want 1", got)
	}
}

func TestReplaceObjectRejectsReparent(t *testing.T) {
	scene := NewScene()
	_ = scene.AddObject(obj("a", ""))
	_ = scene.AddObject(obj("b", ""))

	if err := scene.ReplaceObject(obj("b", "a")); !errors.Is(err, ErrInvalidHierarchy) {
		t.Fatalf("ReplaceObject error = %v, want ErrInvalidHierarchy", err)
	}
	updated := obj("b", "")
	updated.Kind = model.KindMesh
	if err := scene.ReplaceObject(updated); err != nil {
		t.Fatalf("ReplaceObject error: %v", err)
	}
	if scene.Object("b").Kind != model.KindMesh {
		t.Fatalf("ReplaceObject did not store the new object")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	scene := NewScene()
	curve := obj("Path", "")
	curve.Curve = &model.CurveSnapshot{Times: []float64{1, 2}}
	_ = scene.AddObject(curve)

	cp := scene.Clone()
	if _, err := cp.SetCurveTimes("Path", []float64{5}); err != nil {
		t.Fatalf("SetCurveTimes on clone error: %v", err)
	}
	if got := scene.Object("Path").Curve.Times; len(got) != 2 {
		t.Fatalf("original times mutated: %v", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	scene := NewScene()
	_ = scene.AddObject(obj("root", ""))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = scene.Roots()
			_, _ = scene.WorldMatrix("root")
		}()
		go func(i int) {
			defer wg.Done()
			_ = scene.AddObject(obj(fmt.Sprintf("child-%d", i), "root"))
		}(i)
	}
	wg.Wait()

	if got := len(scene.Children("root")); got != 10 {
		t.Fatalf("Children(root) len = %d, want 10", got)
	}
}

func TestSetCurveTimesLeavesHandedOutObjectsAlone(t *testing.T) {
	scene := NewScene()
	curve := obj("Path", "")
	curve.Kind = model.KindCurve
	curve.Curve = &model.CurveSnapshot{Times: []float64{1}}
	_ = scene.AddObject(curve)

	before := scene.Object("Path")
	if _, err := scene.SetCurveTimes("Path", []float64{1, 2}); err != nil {
		t.Fatalf("SetCurveTimes error: %v", err)
	}
	if got := before.Curve.Times; len(got) != 1 {
		t.Fatalf("earlier lookup sees times %v, want unchanged [1]", got)
	}
	if got := scene.Object("Path").Curve.Times; len(got) != 2 || got[1] != 2 {
		t.Fatalf("stored times = %v, want [1 2]", got)
	}
}

func TestReplaceSubtreeCollisionLeavesSceneUntouched(t *testing.T) {
	scene := NewScene()
	for _, o := range []*model.SceneObject{obj("A", ""), obj("A_pt", "A"), obj("B", ""), obj("B_pt", "B")} {
		if err := scene.AddObject(o); err != nil {
			t.Fatalf("AddObject(%s) error: %v", o.Name, err)
		}
	}
	before := names(scene.Objects())

	err := scene.ReplaceSubtree("B", []*model.SceneObject{obj("B", ""), obj("A_pt", "B")})
	if !errors.Is(err, ErrObjectExists) {
		t.Fatalf("ReplaceSubtree error = %v, want ErrObjectExists", err)
	}
	if got := names(scene.Objects()); fmt.Sprint(got) != fmt.Sprint(before) {
		t.Fatalf("objects after failed replace = %v, want %v", got, before)
	}
	if got := names(scene.Children("B")); len(got) != 1 || got[0] != "B_pt" {
		t.Fatalf("children of B = %v, want [B_pt]", got)
	}

	err = scene.ReplaceSubtree("B", []*model.SceneObject{obj("B", ""), obj("X", "B"), obj("X", "B")})
	if !errors.Is(err, ErrObjectExists) {
		t.Fatalf("duplicate names in replacement: error = %v, want ErrObjectExists", err)
	}
	if scene.Object("X") != nil || scene.Len() != 4 {
		t.Fatalf("scene changed after rejected replacement")
	}

	// Names inside the replaced subtree may be reused.
	if err := scene.ReplaceSubtree("B", []*model.SceneObject{obj("B", ""), obj("B_pt", "B"), obj("B_extra", "B")}); err != nil {
		t.Fatalf("ReplaceSubtree reusing own names error: %v", err)
	}
	if scene.Len() != 5 {
		t.Fatalf("Len = %d, want 5", scene.Len())
	}
}
