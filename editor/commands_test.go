package editor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-editor/core"
	"zone-editor/scene"
)

func spawn(t *testing.T, w *scene.World, kind scene.Kind, pos mgl32.Vec3) scene.ObjectID {
	t.Helper()
	id, err := w.Spawn(kind, core.TransformAt(pos), 1)
	require.NoError(t, err)
	return id
}

func spawnPart(t *testing.T, w *scene.World, owner scene.ObjectID, pos mgl32.Vec3) scene.ObjectID {
	t.Helper()
	spec := scene.NewSpec(scene.KindDecorationPart, 1)
	spec.Parent = owner
	spec.Transform = core.TransformAt(pos)
	id, err := w.Add(spec)
	require.NoError(t, err)
	return id
}

func moved(w *scene.World, id scene.ObjectID, pos mgl32.Vec3) *TransformChange {
	obj, _ := w.Get(id)
	after := obj.Transform
	after.Position = pos
	return NewTransformChange(id, obj.Transform, after, "")
}

func seedWorld(t *testing.T) *scene.World {
	t.Helper()
	w := scene.NewWorld()
	spawn(t, w, scene.KindDecoration, mgl32.Vec3{1, 0, 1})
	spawn(t, w, scene.KindEvent, mgl32.Vec3{2, 0, 2})
	spawn(t, w, scene.KindConstruction, mgl32.Vec3{3, 0, 3})
	return w
}

// pushEdits pushes one action of every kind onto a seeded world and
// returns how many
func pushEdits(t *testing.T, w *scene.World, h *History) int {
	t.Helper()
	victim, _ := w.Get(3)
	ownerSpec := scene.NewSpec(scene.KindDecoration, 4)
	partSpec := scene.NewSpec(scene.KindDecorationPart, 4)

	actions := []Action{
		moved(w, 1, mgl32.Vec3{10, 0, 10}),
		&PropertyChange{ID: 2, Field: "quest_trigger", Before: StringValue(""), After: StringValue("q_start")},
		NewAddObject(ownerSpec, partSpec, partSpec),
		&RemoveObject{Object: victim},
	}
	for _, act := range actions {
		require.NoError(t, h.Push(act), act.Description())
	}
	batch := &Batch{Actions: []Action{
		moved(w, 1, mgl32.Vec3{20, 0, 20}),
		moved(w, 2, mgl32.Vec3{30, 0, 30}),
	}}
	require.NoError(t, h.Push(batch))
	return len(actions) + 1
}

func TestUndoInverseLaw(t *testing.T) {
	w := seedWorld(t)
	h := NewHistory(w, 50)
	before := w.Objects()

	n := pushEdits(t, w, h)
	require.NotEqual(t, before, w.Objects())

	for i := 0; i < n; i++ {
		ok, err := h.Undo()
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, before, w.Objects())
	assert.False(t, h.CanUndo())
}

func TestRedoFidelity(t *testing.T) {
	w := seedWorld(t)
	h := NewHistory(w, 50)
	n := pushEdits(t, w, h)

	for i := 0; i < n; i++ {
		after := w.Objects()
		ok, err := h.Undo()
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = h.Redo()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, after, w.Objects(), "redo after undo #%d", i+1)
		_, err = h.Undo()
		require.NoError(t, err)
	}
}

func TestBranchDiscard(t *testing.T) {
	w := scene.NewWorld()
	id := spawn(t, w, scene.KindDecoration, mgl32.Vec3{})
	h := NewHistory(w, 50)

	require.NoError(t, h.Push(moved(w, id, mgl32.Vec3{1, 0, 0})))
	require.NoError(t, h.Push(moved(w, id, mgl32.Vec3{2, 0, 0})))
	_, err := h.Undo()
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	require.NoError(t, h.Push(moved(w, id, mgl32.Vec3{5, 0, 0})))
	ok, err := h.Redo()
	require.NoError(t, err)
	assert.False(t, ok)

	obj, _ := w.Get(id)
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, obj.Transform.Position)
}

func TestHistoryBound(t *testing.T) {
	w := scene.NewWorld()
	id := spawn(t, w, scene.KindDecoration, mgl32.Vec3{})
	h := NewHistory(w, 50)

	for i := 1; i <= 51; i++ {
		require.NoError(t, h.Push(moved(w, id, mgl32.Vec3{float32(i), 0, 0})))
	}
	if h.Len() != 50 {
		t.Errorf("expected 50 undoable actions, got %d", h.Len())
	}

	undone := 0
	for i := 0; i < 51; i++ {
		ok, err := h.Undo()
		require.NoError(t, err)
		if ok {
			undone++
		}
	}
	assert.Equal(t, 50, undone)

	// State before push #2, not before push #1
	obj, _ := w.Get(id)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, obj.Transform.Position)
}

func TestUndoRedoOnEmptyHistory(t *testing.T) {
	h := NewHistory(scene.NewWorld(), 10)
	ok, err := h.Undo()
	assert.False(t, ok)
	assert.NoError(t, err)
	ok, err = h.Redo()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestFailedPushIsNotRecorded(t *testing.T) {
	w := scene.NewWorld()
	h := NewHistory(w, 10)

	err := h.Push(NewTransformChange(99, core.NewTransform(), core.NewTransform(), "ghost"))
	assert.ErrorIs(t, err, scene.ErrNotFound)
	assert.Equal(t, 0, h.Len())
}

func TestBatchRollsBackOnFailure(t *testing.T) {
	w := scene.NewWorld()
	id := spawn(t, w, scene.KindDecoration, mgl32.Vec3{})
	h := NewHistory(w, 10)

	batch := &Batch{Actions: []Action{
		moved(w, id, mgl32.Vec3{7, 0, 0}),
		NewTransformChange(99, core.NewTransform(), core.NewTransform(), ""),
	}}
	require.Error(t, h.Push(batch))

	obj, _ := w.Get(id)
	assert.Equal(t, mgl32.Vec3{}, obj.Transform.Position)
	assert.False(t, h.CanUndo())
}

func TestAddObjectKeepsIDsAcrossRedo(t *testing.T) {
	w := scene.NewWorld()
	h := NewHistory(w, 10)

	add := NewAddObject(scene.NewSpec(scene.KindConstruction, 2), scene.NewSpec(scene.KindConstructionPart, 2))
	require.NoError(t, h.Push(add))
	owner, parts := add.ID, append([]scene.ObjectID(nil), add.PartIDs...)
	require.Len(t, parts, 1)
	assert.Equal(t, 2, w.Len())

	_, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, 0, w.Len())

	_, err = h.Redo()
	require.NoError(t, err)
	assert.Equal(t, owner, add.ID)
	assert.Equal(t, parts, add.PartIDs)

	part, ok := w.Get(parts[0])
	require.True(t, ok)
	assert.Equal(t, owner, part.Parent)
}

func TestRemoveCompositePartsFirst(t *testing.T) {
	w := scene.NewWorld()
	owner := spawn(t, w, scene.KindDecoration, mgl32.Vec3{})
	part := spawnPart(t, w, owner, mgl32.Vec3{1, 0, 0})
	ownerObj, _ := w.Get(owner)
	partObj, _ := w.Get(part)
	h := NewHistory(w, 10)

	require.NoError(t, h.Push(&Batch{Actions: []Action{
		&RemoveObject{Object: partObj},
		&RemoveObject{Object: ownerObj},
	}}))
	assert.Equal(t, 0, w.Len())

	// Revert runs in reverse, so the owner is back before its part
	_, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, 2, w.Len())
	children := w.Children(owner)
	require.Len(t, children, 1)
	assert.Equal(t, part, children[0].ID)
}

func TestHistoryClear(t *testing.T) {
	w := scene.NewWorld()
	id := spawn(t, w, scene.KindDecoration, mgl32.Vec3{})
	h := NewHistory(w, 10)
	require.NoError(t, h.Push(moved(w, id, mgl32.Vec3{1, 0, 0})))
	_, err := h.Undo()
	require.NoError(t, err)
	require.NoError(t, h.Push(moved(w, id, mgl32.Vec3{2, 0, 0})))

	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}
