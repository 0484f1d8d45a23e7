package scene

import (
	"errors"
	"fmt"
	"strings"

	"zone-editor/core"
)

var (
	// ErrNotFound is returned for ids that do not name a live object
	ErrNotFound = errors.New("object not found")
	// ErrInvalidParent is returned when a part is added without a live owner
	ErrInvalidParent = errors.New("invalid parent")
)

type slot struct {
	obj   Object
	alive bool
}

// World is an arena of placed objects. Ids index the arena and are never
// reused, so a despawned object can be restored under its original id.
// Parents are referenced by id; children are found by filtering.
type World struct {
	slots []slot
	live  int
}

func NewWorld() *World {
	return &World{slots: make([]slot, 0, 256)}
}

// Spawn creates an object with default properties and returns its id
func (w *World) Spawn(kind Kind, transform core.Transform, sourceRef int) (ObjectID, error) {
	spec := NewSpec(kind, sourceRef)
	spec.Transform = transform
	return w.Add(spec)
}

// Add creates an object from spec and returns its id
func (w *World) Add(spec Spec) (ObjectID, error) {
	if err := w.checkParent(spec.Kind, spec.Parent); err != nil {
		return 0, err
	}
	id := ObjectID(len(w.slots) + 1)
	w.slots = append(w.slots, slot{
		obj: Object{
			ID:        id,
			Kind:      spec.Kind,
			Name:      spec.Name,
			Transform: spec.Transform,
			SourceRef: spec.SourceRef,
			Parent:    spec.Parent,
			Props:     spec.Props,
		},
		alive: true,
	})
	w.live++
	return id, nil
}

// Restore brings a despawned object back under its original id
func (w *World) Restore(obj Object) error {
	s, err := w.slot(obj.ID)
	if err != nil {
		return err
	}
	if s.alive {
		return fmt.Errorf("restore %d: object is alive", obj.ID)
	}
	if err := w.checkParent(obj.Kind, obj.Parent); err != nil {
		return err
	}
	s.obj = obj
	s.alive = true
	w.live++
	return nil
}

func (w *World) Despawn(id ObjectID) error {
	s, err := w.liveSlot(id)
	if err != nil {
		return err
	}
	s.alive = false
	w.live--
	return nil
}

func (w *World) SetTransform(id ObjectID, t core.Transform) error {
	s, err := w.liveSlot(id)
	if err != nil {
		return err
	}
	s.obj.Transform = t
	return nil
}

func (w *World) SetProperties(id ObjectID, p Properties) error {
	s, err := w.liveSlot(id)
	if err != nil {
		return err
	}
	s.obj.Props = p
	return nil
}

func (w *World) SetName(id ObjectID, name string) error {
	s, err := w.liveSlot(id)
	if err != nil {
		return err
	}
	s.obj.Name = name
	return nil
}

// Get returns a copy of a live object
func (w *World) Get(id ObjectID) (Object, bool) {
	s, err := w.liveSlot(id)
	if err != nil {
		return Object{}, false
	}
	return s.obj, true
}

func (w *World) Exists(id ObjectID) bool {
	_, err := w.liveSlot(id)
	return err == nil
}

// Len returns the number of live objects
func (w *World) Len() int { return w.live }

// Objects returns copies of all live objects ordered by id
func (w *World) Objects() []Object {
	out := make([]Object, 0, w.live)
	for _, s := range w.slots {
		if s.alive {
			out = append(out, s.obj)
		}
	}
	return out
}

// QueryByKind returns live objects of kind ordered by id
func (w *World) QueryByKind(kind Kind) []Object {
	var out []Object
	for _, s := range w.slots {
		if s.alive && s.obj.Kind == kind {
			out = append(out, s.obj)
		}
	}
	return out
}

// Children derives the live parts owned by id
func (w *World) Children(id ObjectID) []Object {
	var out []Object
	for _, s := range w.slots {
		if s.alive && s.obj.Parent == id {
			out = append(out, s.obj)
		}
	}
	return out
}

// Filter returns live objects whose kind is in kinds (all kinds when empty)
// and whose name contains search, case-insensitively.
func (w *World) Filter(kinds []Kind, search string) []Object {
	search = strings.ToLower(search)
	var out []Object
	for _, s := range w.slots {
		if !s.alive {
			continue
		}
		if len(kinds) > 0 && !containsKind(kinds, s.obj.Kind) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.obj.Name), search) {
			continue
		}
		out = append(out, s.obj)
	}
	return out
}

func (w *World) checkParent(kind Kind, parent ObjectID) error {
	if !kind.IsPart() {
		if parent != 0 {
			return fmt.Errorf("%w: %s objects cannot have a parent", ErrInvalidParent, kind)
		}
		return nil
	}
	owner, ok := w.Get(parent)
	if !ok {
		return fmt.Errorf("%w: %s needs a live owner, got %d", ErrInvalidParent, kind, parent)
	}
	if owner.Kind != kind.OwnerKind() {
		return fmt.Errorf("%w: %s cannot belong to %s", ErrInvalidParent, kind, owner.Kind)
	}
	return nil
}

func (w *World) slot(id ObjectID) (*slot, error) {
	if id == 0 || int(id) > len(w.slots) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return &w.slots[id-1], nil
}

func (w *World) liveSlot(id ObjectID) (*slot, error) {
	s, err := w.slot(id)
	if err != nil {
		return nil, err
	}
	if !s.alive {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return s, nil
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}
