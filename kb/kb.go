package kb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/scenekit/model"
)

var (
	// ErrObjectExists is returned when an object name is already taken.
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound is returned when an object cannot be located.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidHierarchy is returned by Validate for broken parent links.
	ErrInvalidHierarchy = errors.New("invalid hierarchy")
)

// EventType indicates what kind of change happened in the scene.
type EventType int

const (
	EventObjectAdded EventType = iota
	EventObjectUpdated
	EventObjectRemoved
	EventCurveTimesCorrected
)

// Event is emitted to subscribers when the scene changes.
type Event struct {
	Type   EventType
	Object string
}

// Scene is an in-memory scene snapshot: an arena of objects keyed by name,
// kept in the host's enumeration order. It is safe for concurrent use;
// stored objects are never mutated in place, so an object returned by a
// lookup stays a stable snapshot.
//
// Parent links may point forward (a child can be added before its parent);
// Validate reports links that never resolve.
type Scene struct {
	mu sync.RWMutex

	objects  map[string]*model.SceneObject
	order    []string
	children map[string][]string

	subs map[int]func(Event)
	next int
}

// NewScene constructs an empty scene.
func NewScene() *Scene {
	return &Scene{
		objects:  make(map[string]*model.SceneObject),
		children: make(map[string][]string),
		subs:     make(map[int]func(Event)),
	}
}

// AddObject appends an object to the scene. It returns an error if the name
// is empty or already exists.
func (s *Scene) AddObject(o *model.SceneObject) error {
	if o == nil || o.Name == "" {
		return fmt.Errorf("%w: object name is required", ErrInvalidHierarchy)
	}

	s.mu.Lock()
	if _, exists := s.objects[o.Name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrObjectExists, o.Name)
	}
	s.addLocked(o)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventObjectAdded, Object: o.Name})
	return nil
}

// ReplaceObject swaps the stored object with the same name, keeping its
// position in the enumeration order. The parent link may not change.
func (s *Scene) ReplaceObject(o *model.SceneObject) error {
	if o == nil {
		return fmt.Errorf("%w: nil object", ErrInvalidHierarchy)
	}

	s.mu.Lock()
	old, ok := s.objects[o.Name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrObjectNotFound, o.Name)
	}
	if old.ParentID != o.ParentID {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot reparent %q", ErrInvalidHierarchy, o.Name)
	}
	s.objects[o.Name] = o
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventObjectUpdated, Object: o.Name})
	return nil
}

// RemoveSubtree removes an object and all of its descendants.
func (s *Scene) RemoveSubtree(name string) error {
	s.mu.Lock()
	if _, ok := s.objects[name]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrObjectNotFound, name)
	}
	removed := s.removeSubtreeLocked(name)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, n := range removed {
		notify(subs, Event{Type: EventObjectRemoved, Object: n})
	}
	return nil
}

// ReplaceSubtree removes the subtree rooted at root (if present) and appends
// objs in order. objs[0] is expected to be the new root; the rest may only
// reference objects in objs or already in the scene.
//
// The swap is all or nothing: every name in objs is checked first, and on
// any collision with an object outside the old subtree the scene is left
// untouched.
func (s *Scene) ReplaceSubtree(root string, objs []*model.SceneObject) error {
	s.mu.Lock()
	doomed := map[string]bool{}
	if _, ok := s.objects[root]; ok {
		doomed = s.subtreeLocked(root)
	}
	incoming := make(map[string]bool, len(objs))
	for _, o := range objs {
		if o == nil || o.Name == "" {
			s.mu.Unlock()
			return fmt.Errorf("replace subtree %q: %w: object name is required", root, ErrInvalidHierarchy)
		}
		_, exists := s.objects[o.Name]
		if incoming[o.Name] || (exists && !doomed[o.Name]) {
			s.mu.Unlock()
			return fmt.Errorf("replace subtree %q: %w: %q", root, ErrObjectExists, o.Name)
		}
		incoming[o.Name] = true
	}

	var removed []string
	if len(doomed) > 0 {
		removed = s.removeSubtreeLocked(root)
	}
	for _, o := range objs {
		s.addLocked(o)
	}
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, n := range removed {
		notify(subs, Event{Type: EventObjectRemoved, Object: n})
	}
	for _, o := range objs {
		notify(subs, Event{Type: EventObjectAdded, Object: o.Name})
	}
	return nil
}

func (s *Scene) addLocked(o *model.SceneObject) {
	s.objects[o.Name] = o
	s.order = append(s.order, o.Name)
	if o.ParentID != "" {
		s.children[o.ParentID] = append(s.children[o.ParentID], o.Name)
	}
}

// subtreeLocked returns name and all of its descendants.
func (s *Scene) subtreeLocked(name string) map[string]bool {
	doomed := map[string]bool{}
	var collect func(string)
	collect = func(n string) {
		if doomed[n] {
			return
		}
		doomed[n] = true
		for _, c := range s.children[n] {
			collect(c)
		}
	}
	collect(name)
	return doomed
}

// removeSubtreeLocked deletes the subtree rooted at name and returns the
// removed names in enumeration order.
func (s *Scene) removeSubtreeLocked(name string) []string {
	doomed := s.subtreeLocked(name)

	kept := s.order[:0]
	var removed []string
	for _, n := range s.order {
		if doomed[n] {
			removed = append(removed, n)
			continue
		}
		kept = append(kept, n)
	}
	s.order = kept

	for _, n := range removed {
		parent := s.objects[n].ParentID
		delete(s.objects, n)
		delete(s.children, n)
		if parent != "" && !doomed[parent] {
			s.children[parent] = without(s.children[parent], n)
		}
	}
	return removed
}

// Object returns the object with the given name, or nil if not found. The
// returned object must be treated as read-only.
func (s *Scene) Object(name string) *model.SceneObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[name]
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Objects returns all objects in enumeration order.
func (s *Scene) Objects() []*model.SceneObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*model.SceneObject, 0, len(s.order))
	for _, n := range s.order {
		res = append(res, s.objects[n])
	}
	return res
}

// Roots returns every object without a parent, in enumeration order. The
// order is whatever the host supplied; it is not sorted.
func (s *Scene) Roots() []*model.SceneObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.SceneObject
	for _, n := range s.order {
		if o := s.objects[n]; o.ParentID == "" {
			res = append(res, o)
		}
	}
	return res
}

// Children returns the direct children of name in enumeration order.
func (s *Scene) Children(name string) []*model.SceneObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.children[name]
	res := make([]*model.SceneObject, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.objects[id]; ok {
			res = append(res, o)
		}
	}
	return res
}

// WorldMatrix returns the product of the local matrices from the root down to
// name.
func (s *Scene) WorldMatrix(name string) (mgl64.Mat4, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	world := mgl64.Ident4()
	seen := map[string]bool{}
	for cur := name; cur != ""; {
		o, ok := s.objects[cur]
		if !ok {
			return mgl64.Mat4{}, fmt.Errorf("%w: %q", ErrObjectNotFound, cur)
		}
		if seen[cur] {
			return mgl64.Mat4{}, fmt.Errorf("%w: parent cycle at %q", ErrInvalidHierarchy, cur)
		}
		seen[cur] = true
		world = o.Local.Mul4(world)
		cur = o.ParentID
	}
	return world, nil
}

// SetCurveTimes replaces the timing array of a curve object. It reports
// whether the stored array changed; subscribers only hear about real changes.
func (s *Scene) SetCurveTimes(name string, times []float64) (bool, error) {
	s.mu.Lock()
	o, ok := s.objects[name]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrObjectNotFound, name)
	}
	if o.Curve == nil {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %q has no curve data", ErrInvalidHierarchy, name)
	}
	if sameTimes(o.Curve.Times, times) {
		s.mu.Unlock()
		return false, nil
	}
	// Objects already handed out stay unchanged; the corrected copy replaces
	// the stored one.
	cp := o.Clone()
	if times == nil {
		cp.Curve.Times = nil
	} else {
		cp.Curve.Times = append([]float64{}, times...)
	}
	s.objects[name] = cp
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, Event{Type: EventCurveTimesCorrected, Object: name})
	return true, nil
}

// Validate checks that every parent link resolves and that there are no
// cycles.
func (s *Scene) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.order {
		seen := map[string]bool{}
		for cur := n; cur != ""; {
			o, ok := s.objects[cur]
			if !ok {
				return fmt.Errorf("%w: %q references missing parent %q", ErrInvalidHierarchy, n, cur)
			}
			if seen[cur] {
				return fmt.Errorf("%w: parent cycle through %q", ErrInvalidHierarchy, cur)
			}
			seen[cur] = true
			cur = o.ParentID
		}
	}
	return nil
}

// Clone returns an independent deep copy without subscribers.
func (s *Scene) Clone() *Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := NewScene()
	for _, n := range s.order {
		o := s.objects[n].Clone()
		cp.objects[n] = o
		cp.order = append(cp.order, n)
		if o.ParentID != "" {
			cp.children[o.ParentID] = append(cp.children[o.ParentID], n)
		}
	}
	return cp
}

// Subscribe registers a callback for scene events. It returns an unsubscribe
// function.
func (s *Scene) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Scene) subscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(s.subs))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

// notify runs outside the lock so callbacks may read the scene.
func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}

func without(ids []string, name string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != name {
			out = append(out, id)
		}
	}
	return out
}

func sameTimes(a, b []float64) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
