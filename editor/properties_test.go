package editor

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-editor/core"
	"zone-editor/internal/config"
	"zone-editor/scene"
)

func testRegistry() *PropertyRegistry {
	return NewPropertyRegistry([]config.WarpConfig{
		{ID: 7, Name: "Harbor"},
		{ID: 2, Name: "Town gate"},
	})
}

func fieldNames(fields []Field) []string {
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func TestFieldsPerKind(t *testing.T) {
	r := testRegistry()
	transform := []string{FieldPosition, FieldRotation, FieldScale}

	assert.Equal(t, transform, fieldNames(r.Fields(scene.KindDecoration)))
	assert.Equal(t, append(transform, "quest_trigger", "script_function"), fieldNames(r.Fields(scene.KindEvent)))
	assert.Equal(t, append(transform, "sound_path", "range"), fieldNames(r.Fields(scene.KindSound)))
	assert.Equal(t, append(transform, "effect_path"), fieldNames(r.Fields(scene.KindEffect)))
	assert.Equal(t, []string{FieldPosition, FieldScale, "water_size"}, fieldNames(r.Fields(scene.KindWater)))

	warp := r.Fields(scene.KindWarp)
	require.Len(t, warp, 4)
	assert.Equal(t, FieldEnum, warp[3].Kind)
	assert.Equal(t, []EnumOption{{Value: 2, Label: "Town gate"}, {Value: 7, Label: "Harbor"}}, warp[3].Options)
}

func TestValidate(t *testing.T) {
	r := testRegistry()
	tests := []struct {
		name  string
		kind  scene.Kind
		field string
		value FieldValue
		ok    bool
	}{
		{"identifier", scene.KindEvent, "quest_trigger", StringValue("quest.start_1"), true},
		{"empty identifier", scene.KindEvent, "quest_trigger", StringValue("  "), false},
		{"bad identifier", scene.KindEvent, "script_function", StringValue("1bad name"), false},
		{"known warp", scene.KindWarp, "warp_id", EnumValue(7), true},
		{"unknown warp", scene.KindWarp, "warp_id", EnumValue(3), false},
		{"wav", scene.KindSound, "sound_path", StringValue("3ddata/sound/bird.WAV"), true},
		{"mp3", scene.KindSound, "sound_path", StringValue("bird.mp3"), false},
		{"range", scene.KindSound, "range", FloatValue(250), true},
		{"range too small", scene.KindSound, "range", FloatValue(0.5), false},
		{"range nan", scene.KindSound, "range", FloatValue(math32.NaN()), false},
		{"effect", scene.KindEffect, "effect_path", StringValue("fx/torch.eft"), true},
		{"water size", scene.KindWater, "water_size", FloatValue(0), false},
		{"water rotation", scene.KindWater, FieldRotation, VectorValue(mgl32.Vec3{0, 40, 0}), false},
		{"water identity rotation", scene.KindWater, FieldRotation, VectorValue(mgl32.Vec3{}), true},
		{"scale", scene.KindDecoration, FieldScale, VectorValue(mgl32.Vec3{1, 2, 3}), true},
		{"negative scale", scene.KindDecoration, FieldScale, VectorValue(mgl32.Vec3{1, -2, 3}), false},
		{"infinite position", scene.KindDecoration, FieldPosition, VectorValue(mgl32.Vec3{math32.Inf(1), 0, 0}), false},
		{"wrong value kind", scene.KindSound, "range", StringValue("far"), false},
		{"foreign field", scene.KindDecoration, "quest_trigger", StringValue("q"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.kind, tt.field, tt.value)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			if assert.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err) {
				assert.Equal(t, tt.field, verr.Field)
			}
		})
	}
}

func TestCommitLeavesWorldUntouched(t *testing.T) {
	r := testRegistry()
	w := scene.NewWorld()
	id := spawn(t, w, scene.KindSound, mgl32.Vec3{})
	before := w.Objects()

	act, err := r.Commit(w, id, "range", FloatValue(400))
	require.NoError(t, err)
	assert.Equal(t, before, w.Objects())

	_, err = r.Commit(w, id, "range", FloatValue(-1))
	assert.Error(t, err)
	assert.Equal(t, before, w.Objects())

	require.NoError(t, act.Apply(w))
	obj, _ := w.Get(id)
	assert.Equal(t, float32(400), obj.Props.SoundRange)

	require.NoError(t, act.Revert(w))
	obj, _ = w.Get(id)
	assert.Equal(t, float32(100), obj.Props.SoundRange)
}

func TestCommitTransformField(t *testing.T) {
	r := testRegistry()
	w := scene.NewWorld()
	id := spawn(t, w, scene.KindDecoration, mgl32.Vec3{1, 2, 3})
	original, _ := w.Get(id)

	act, err := r.Commit(w, id, FieldRotation, VectorValue(mgl32.Vec3{0, 30, 0}))
	require.NoError(t, err)
	_, isTransform := act.(*TransformChange)
	assert.True(t, isTransform)

	require.NoError(t, act.Apply(w))
	obj, _ := w.Get(id)
	got, err := r.Get(obj, FieldRotation)
	require.NoError(t, err)
	assert.InDelta(t, 30, got.Vector.Y(), 1e-2)

	require.NoError(t, act.Revert(w))
	obj, _ = w.Get(id)
	assert.Equal(t, original.Transform, obj.Transform)
}

func TestCommitTransformCarriesParts(t *testing.T) {
	r := testRegistry()
	w := scene.NewWorld()
	owner := spawn(t, w, scene.KindDecoration, mgl32.Vec3{10, 0, 10})
	part := spawnPart(t, w, owner, mgl32.Vec3{12, 0, 10})

	act, err := r.Commit(w, owner, FieldPosition, VectorValue(mgl32.Vec3{10, 0, 15}))
	require.NoError(t, err)
	batch, ok := act.(*Batch)
	require.True(t, ok, "got %T", act)
	assert.Len(t, batch.Actions, 2)

	require.NoError(t, act.Apply(w))
	p, _ := w.Get(part)
	assert.True(t, p.Transform.Position.ApproxEqualThreshold(mgl32.Vec3{12, 0, 15}, 1e-4), "part at %v", p.Transform.Position)

	// A quarter turn swings the part around the owner
	act, err = r.Commit(w, owner, FieldRotation, VectorValue(mgl32.Vec3{0, 90, 0}))
	require.NoError(t, err)
	require.NoError(t, act.Apply(w))
	p, _ = w.Get(part)
	assert.InDelta(t, 10, p.Transform.Position.X(), 1e-3)
	assert.InDelta(t, 13, p.Transform.Position.Z(), 1e-3)

	require.NoError(t, act.Revert(w))
	p, _ = w.Get(part)
	assert.True(t, p.Transform.Position.ApproxEqualThreshold(mgl32.Vec3{12, 0, 15}, 1e-4))
}

func TestCommitRejectsWaterRotation(t *testing.T) {
	r := testRegistry()
	w := scene.NewWorld()
	id := spawn(t, w, scene.KindWater, mgl32.Vec3{})

	_, err := r.Commit(w, id, FieldRotation, VectorValue(mgl32.Vec3{0, 20, 0}))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldRotation, verr.Field)
	obj, _ := w.Get(id)
	assert.Equal(t, mgl32.QuatIdent(), obj.Transform.Rotation)
}

func TestCommitUnknownObject(t *testing.T) {
	_, err := testRegistry().Commit(scene.NewWorld(), 42, FieldPosition, VectorValue(mgl32.Vec3{}))
	assert.ErrorIs(t, err, scene.ErrNotFound)
}

func TestGetFieldValue(t *testing.T) {
	r := testRegistry()
	obj := scene.Object{Kind: scene.KindWarp, Transform: core.NewTransform(), Props: scene.Properties{WarpID: 7}}

	v, err := r.Get(obj, "warp_id")
	require.NoError(t, err)
	assert.Equal(t, 7, v.Enum)
	assert.Equal(t, "#7", v.Format())

	_, err = r.Get(obj, "water_size")
	assert.Error(t, err)
}
