package editor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"zone-editor/scene"
)

func TestSelectionClickRules(t *testing.T) {
	tests := []struct {
		name     string
		start    []scene.ObjectID
		hit      scene.ObjectID
		ok       bool
		modifier bool
		want     []scene.ObjectID
		primary  scene.ObjectID
	}{
		{"hit replaces", []scene.ObjectID{1, 2}, 3, true, false, []scene.ObjectID{3}, 3},
		{"miss clears", []scene.ObjectID{1, 2}, 0, false, false, []scene.ObjectID{}, 0},
		{"modifier hit adds", []scene.ObjectID{1}, 2, true, true, []scene.ObjectID{1, 2}, 2},
		{"modifier hit removes", []scene.ObjectID{1, 2}, 2, true, true, []scene.ObjectID{1}, 1},
		{"modifier miss keeps", []scene.ObjectID{1, 2}, 0, false, true, []scene.ObjectID{1, 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelection()
			for _, id := range tt.start {
				s.Toggle(id)
			}
			s.Click(tt.hit, tt.ok, tt.modifier)

			got := s.IDs()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
			if s.Primary() != tt.primary {
				t.Errorf("expected primary %d, got %d", tt.primary, s.Primary())
			}
		})
	}
}

func TestSelectionToggleTwiceRestores(t *testing.T) {
	s := NewSelection()
	s.Toggle(4)
	s.Toggle(7)
	before := s.IDs()

	s.Toggle(9)
	s.Toggle(9)
	assert.Equal(t, before, s.IDs())
	assert.False(t, s.IsSelected(9))
	assert.Equal(t, scene.ObjectID(7), s.Primary())
}

func TestSelectionToggleMemberTwiceKeepsSlot(t *testing.T) {
	s := NewSelection()
	s.Toggle(4)
	s.Toggle(7)
	s.Toggle(2)
	before := s.IDs()

	s.Toggle(4)
	assert.Equal(t, []scene.ObjectID{7, 2}, s.IDs())
	s.Toggle(4)
	assert.Equal(t, before, s.IDs())
	assert.Equal(t, scene.ObjectID(2), s.Primary())
	assert.Equal(t, SelectMulti, s.Mode)

	// Only the latest toggle is reverted; a later re-add appends
	s.Toggle(4)
	s.Toggle(7)
	s.Toggle(4)
	assert.Equal(t, []scene.ObjectID{2, 4}, s.IDs())
	assert.Equal(t, scene.ObjectID(4), s.Primary())
}

func TestSelectionPrimaryFallsBackToLatest(t *testing.T) {
	s := NewSelection()
	s.Toggle(3)
	s.Toggle(1)
	s.Toggle(2)

	// Removing a non-primary member keeps the primary
	s.Toggle(1)
	assert.Equal(t, scene.ObjectID(2), s.Primary())

	s.Toggle(2)
	assert.Equal(t, scene.ObjectID(3), s.Primary())

	s.Toggle(3)
	assert.Equal(t, scene.ObjectID(0), s.Primary())
	assert.False(t, s.HasSelection())
}

func TestSelectionModes(t *testing.T) {
	s := NewSelection()
	s.Toggle(1)
	assert.Equal(t, SelectSingle, s.Mode)
	s.Toggle(2)
	assert.Equal(t, SelectMulti, s.Mode)
	s.Toggle(2)
	assert.Equal(t, SelectSingle, s.Mode)

	s.Set([]scene.ObjectID{5, 6, 5}, SelectArea)
	assert.Equal(t, []scene.ObjectID{5, 6}, s.IDs())
	assert.Equal(t, scene.ObjectID(6), s.Primary())
	s.Toggle(6)
	assert.Equal(t, SelectArea, s.Mode)

	s.Clear()
	assert.Equal(t, SelectSingle, s.Mode)
	assert.Equal(t, 0, s.Len())
}

func TestSelectionPruneAndCenter(t *testing.T) {
	w := scene.NewWorld()
	a := spawn(t, w, scene.KindDecoration, mgl32.Vec3{0, 0, 0})
	b := spawn(t, w, scene.KindDecoration, mgl32.Vec3{4, 2, 0})
	c := spawn(t, w, scene.KindDecoration, mgl32.Vec3{100, 0, 0})

	s := NewSelection()
	s.Set([]scene.ObjectID{a, b, c}, SelectMulti)
	assert.NoError(t, w.Despawn(c))

	s.Prune(w)
	assert.Equal(t, []scene.ObjectID{a, b}, s.IDs())
	assert.Equal(t, b, s.Primary())
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, s.Center(w))
}
