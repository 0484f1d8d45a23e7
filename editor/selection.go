package editor

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/scene"
)

// SelectionMode describes how the current set was built
type SelectionMode int

const (
	SelectSingle SelectionMode = iota
	SelectMulti
	SelectArea
)

func (m SelectionMode) String() string {
	switch m {
	case SelectMulti:
		return "Multi"
	case SelectArea:
		return "Area"
	}
	return "Single"
}

// Selection tracks the selected objects of a session. Primary is the most
// recently affected member and is zero when nothing is selected.
type Selection struct {
	ids     []scene.ObjectID
	primary scene.ObjectID
	Mode    SelectionMode

	// toggled records when each member was last toggled
	toggled map[scene.ObjectID]uint64
	seq     uint64

	last *toggleMark
}

// toggleMark remembers the state before the latest Toggle, so toggling the
// same id again restores order, primary and mode exactly
type toggleMark struct {
	id      scene.ObjectID
	index   int // slot of a removed member, -1 after an add
	seq     uint64
	primary scene.ObjectID
	mode    SelectionMode
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{toggled: make(map[scene.ObjectID]uint64)}
}

// IDs returns the selected ids in selection order
func (s *Selection) IDs() []scene.ObjectID {
	return slices.Clone(s.ids)
}

func (s *Selection) Primary() scene.ObjectID { return s.primary }

func (s *Selection) Len() int { return len(s.ids) }

// HasSelection returns true if anything is selected
func (s *Selection) HasSelection() bool { return len(s.ids) > 0 }

// IsSelected checks if an object is selected
func (s *Selection) IsSelected(id scene.ObjectID) bool {
	return slices.Contains(s.ids, id)
}

// Clear removes all selections
func (s *Selection) Clear() {
	s.ids = s.ids[:0]
	s.primary = 0
	s.Mode = SelectSingle
	s.last = nil
	clear(s.toggled)
}

// SelectSingle selects one object, clearing the previous selection
func (s *Selection) SelectSingle(id scene.ObjectID) {
	s.Clear()
	s.add(id)
}

// Set replaces the selection. The last id becomes primary.
func (s *Selection) Set(ids []scene.ObjectID, mode SelectionMode) {
	s.Clear()
	for _, id := range ids {
		if !s.IsSelected(id) {
			s.add(id)
		}
	}
	s.Mode = mode
}

// Toggle adds or removes an object. On removal the primary falls back to
// the member toggled most recently, or to none. Toggling the same id twice
// in a row leaves the selection as it was.
func (s *Selection) Toggle(id scene.ObjectID) {
	prev := s.last
	s.last = nil
	if prev != nil && prev.id == id {
		s.revert(prev)
		return
	}

	mark := &toggleMark{id: id, index: -1, primary: s.primary, mode: s.Mode}
	if i := slices.Index(s.ids, id); i >= 0 {
		mark.index, mark.seq = i, s.toggled[id]
		s.ids = slices.Delete(s.ids, i, i+1)
		delete(s.toggled, id)
		if s.primary == id {
			s.primary = s.latest()
		}
	} else {
		s.add(id)
	}
	switch {
	case s.Mode == SelectArea:
	case len(s.ids) > 1:
		s.Mode = SelectMulti
	default:
		s.Mode = SelectSingle
	}
	s.last = mark
}

func (s *Selection) revert(m *toggleMark) {
	if m.index < 0 {
		if i := slices.Index(s.ids, m.id); i >= 0 {
			s.ids = slices.Delete(s.ids, i, i+1)
		}
		delete(s.toggled, m.id)
	} else {
		s.ids = slices.Insert(s.ids, min(m.index, len(s.ids)), m.id)
		s.toggled[m.id] = m.seq
	}
	s.primary = m.primary
	s.Mode = m.mode
}

// Click applies one pointer click. Without modifier a hit selects only that
// object and a miss clears; with modifier a hit toggles and a miss does
// nothing.
func (s *Selection) Click(hit scene.ObjectID, ok, modifier bool) {
	switch {
	case !modifier && ok:
		s.SelectSingle(hit)
	case !modifier:
		s.Clear()
	case ok:
		s.Toggle(hit)
	}
}

// Remove drops ids that no longer exist in the world
func (s *Selection) Remove(ids ...scene.ObjectID) {
	for _, id := range ids {
		if s.IsSelected(id) {
			s.Toggle(id)
		}
	}
	s.last = nil
}

// Prune drops members that are no longer alive in w
func (s *Selection) Prune(w *scene.World) {
	for _, id := range s.IDs() {
		if !w.Exists(id) {
			s.Remove(id)
		}
	}
}

// Center returns the mean position of the selected objects
func (s *Selection) Center(w *scene.World) mgl32.Vec3 {
	var center mgl32.Vec3
	n := 0
	for _, id := range s.ids {
		if obj, ok := w.Get(id); ok {
			center = center.Add(obj.Transform.Position)
			n++
		}
	}
	if n == 0 {
		return mgl32.Vec3{}
	}
	return center.Mul(1 / float32(n))
}

func (s *Selection) add(id scene.ObjectID) {
	s.seq++
	s.ids = append(s.ids, id)
	s.toggled[id] = s.seq
	s.primary = id
}

func (s *Selection) latest() scene.ObjectID {
	var best scene.ObjectID
	var bestSeq uint64
	for _, id := range s.ids {
		if seq := s.toggled[id]; seq >= bestSeq {
			best, bestSeq = id, seq
		}
	}
	return best
}
