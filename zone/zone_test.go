package zone

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-editor/core"
	"zone-editor/io"
	"zone-editor/scene"
)

func TestToBlockConcreteMapping(t *testing.T) {
	m := DefaultMapper()
	got := m.ToBlock(mgl32.Vec3{325, 0, -150})
	if got != (BlockCoord{X: 2, Y: 65}) {
		t.Errorf("ToBlock: expected (2, 65), got %v", got)
	}
}

func TestToBlockDeterministic(t *testing.T) {
	m := DefaultMapper()
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {159.99, 3, 0.01}, {-1, 0, -1}, {5000, -20, 8000}} {
		if a, b := m.ToBlock(p), m.ToBlock(p); a != b {
			t.Errorf("ToBlock(%v): %v then %v", p, a, b)
		}
	}
}

func TestToBlockEdges(t *testing.T) {
	m := DefaultMapper()
	cases := []struct {
		pos  mgl32.Vec3
		want BlockCoord
	}{
		{mgl32.Vec3{0, 0, 0}, BlockCoord{0, 65}},
		{mgl32.Vec3{160, 0, 0}, BlockCoord{1, 65}},
		{mgl32.Vec3{159.5, 0, 0.5}, BlockCoord{0, 64}},
		{mgl32.Vec3{-0.5, 0, 0}, BlockCoord{-1, 65}},
	}
	for _, c := range cases {
		if got := m.ToBlock(c.pos); got != c.want {
			t.Errorf("ToBlock(%v): expected %v, got %v", c.pos, c.want, got)
		}
	}

	x, z := m.BlockOrigin(BlockCoord{2, 65})
	assert.Equal(t, float32(320), x)
	assert.Equal(t, float32(0), z)
}

func TestFileUnitsRoundTrip(t *testing.T) {
	m := DefaultMapper()
	f := m.ToFileUnits(mgl32.Vec3{1.5, 2, -3})
	assert.Equal(t, [3]float32{150, 300, 200}, f)

	for _, p := range []mgl32.Vec3{{0, 0, 0}, {1.25, -7.5, 1000.125}, {5200.3, 12.7, -10239.9}, {-0.01, 0.02, 0.03}} {
		back := m.FromFileUnits(m.ToFileUnits(p))
		if !back.ApproxEqualThreshold(p, 1e-3) {
			t.Errorf("FromFileUnits(ToFileUnits(%v)) = %v", p, back)
		}
	}

	q := mgl32.QuatRotate(0.8, mgl32.Vec3{1, 2, 3}.Normalize())
	assert.True(t, m.RotationFromFile(m.RotationToFile(q)).ApproxEqual(q))
	s := mgl32.Vec3{1, 2, 3}
	assert.Equal(t, [3]float32{1, 3, 2}, m.ScaleToFile(s))
	assert.Equal(t, s, m.ScaleFromFile(m.ScaleToFile(s)))
}

func buildWorld(t *testing.T) *scene.World {
	t.Helper()
	w := scene.NewWorld()
	add := func(spec scene.Spec) scene.ObjectID {
		id, err := w.Add(spec)
		require.NoError(t, err)
		return id
	}

	deco := scene.NewSpec(scene.KindDecoration, 11)
	deco.Transform = core.TransformAt(mgl32.Vec3{5285, 4, 5130})
	deco.Transform.Rotation = mgl32.QuatRotate(1.2, mgl32.Vec3{0, 1, 0})
	deco.Transform.Scale = mgl32.Vec3{2, 3, 4}
	decoID := add(deco)

	part := scene.NewSpec(scene.KindDecorationPart, 11)
	part.Parent = decoID
	part.Transform = core.TransformAt(mgl32.Vec3{5285, 5, 5130})
	add(part)

	event := scene.NewSpec(scene.KindEvent, 3)
	event.Transform = core.TransformAt(mgl32.Vec3{5010, 0, 5010})
	event.Props.QuestTrigger = "q_open_gate"
	event.Props.ScriptFunction = "OnGateOpen"
	add(event)

	warp := scene.NewSpec(scene.KindWarp, 4)
	warp.Transform = core.TransformAt(mgl32.Vec3{5290, 0, 5125})
	warp.Props.WarpID = 12
	add(warp)

	sound := scene.NewSpec(scene.KindSound, 5)
	sound.Transform = core.TransformAt(mgl32.Vec3{6000, 1, 6000})
	sound.Props.SoundPath = "sound/birds.wav"
	add(sound)

	effect := scene.NewSpec(scene.KindEffect, 6)
	effect.Transform = core.TransformAt(mgl32.Vec3{6001, 1, 6001})
	effect.Props.EffectPath = "effect/smoke.eft"
	add(effect)

	water := scene.NewSpec(scene.KindWater, 0)
	water.Transform = core.TransformAt(mgl32.Vec3{5500, -1, 5500})
	water.Transform.Scale = mgl32.Vec3{40, 1, 60}
	water.Props.WaterSize = 3
	add(water)

	add(scene.Spec{Kind: scene.KindConstruction, SourceRef: 8, Transform: core.TransformAt(mgl32.Vec3{5020, 0, 5020})})
	add(scene.Spec{Kind: scene.KindAnimated, SourceRef: 9, Transform: core.TransformAt(mgl32.Vec3{5021, 0, 5021})})
	add(scene.Spec{Kind: scene.KindTerrain, SourceRef: 1, Transform: core.NewTransform()})
	return w
}

func TestExportGroupsByBlockAndCategory(t *testing.T) {
	w := buildWorld(t)
	s := NewSerializer(DefaultMapper(), 63, nil)

	z, err := s.Export(w)
	require.NoError(t, err)
	assert.Equal(t, 8, z.Objects, "parts and terrain are not exported on their own")

	b := z.Blocks[BlockCoord{33, 32}]
	require.NotNil(t, b)
	require.Len(t, b.Decorations, 1)
	require.Len(t, b.Warps, 1)
	assert.Equal(t, uint32(11), b.Decorations[0].ObjectID)
	assert.Equal(t, [3]float32{528500, -513000, 400}, b.Decorations[0].Position)
	assert.Equal(t, uint16(12), b.Warps[0].WarpID)

	total := 0
	for _, blk := range z.Blocks {
		total += blk.Len()
	}
	assert.Equal(t, z.Objects, total, "every object lands in exactly one block")
}

func TestExportIsIdempotent(t *testing.T) {
	w := buildWorld(t)
	s := NewSerializer(DefaultMapper(), 63, nil)
	a, err := s.Export(w)
	require.NoError(t, err)
	b, err := s.Export(w)
	require.NoError(t, err)
	assert.Equal(t, a.Sorted(), b.Sorted())
}

func TestLoadExportRoundTrip(t *testing.T) {
	w := buildWorld(t)
	s := NewSerializer(DefaultMapper(), 63, nil)
	z, err := s.Export(w)
	require.NoError(t, err)

	// Through the binary codec as well
	var blocks []*io.Block
	for _, b := range z.Sorted() {
		data, err := io.Marshal(b)
		require.NoError(t, err)
		decoded, err := io.Unmarshal(data)
		require.NoError(t, err)
		blocks = append(blocks, decoded)
	}

	loaded, err := s.LoadWorld(blocks)
	require.NoError(t, err)
	assert.Equal(t, z.Objects, loaded.Len())

	for _, kind := range scene.AllKinds {
		if !kind.Persisted() {
			continue
		}
		want := w.QueryByKind(kind)
		got := loaded.QueryByKind(kind)
		require.Len(t, got, len(want), "kind %s", kind)
		for _, o := range want {
			found := false
			for _, g := range got {
				if g.SourceRef == o.SourceRef && g.Props == o.Props && g.Transform.ApproxEqual(o.Transform, 1e-3) {
					found = true
					break
				}
			}
			assert.True(t, found, "object %d (%s) not reproduced", o.ID, kind)
		}
	}
}

func TestExportRejectsObjectsOutsideZone(t *testing.T) {
	w := scene.NewWorld()
	id, err := w.Spawn(scene.KindDecoration, core.TransformAt(mgl32.Vec3{-10, 0, 0}), 1)
	require.NoError(t, err)

	_, err = NewSerializer(DefaultMapper(), 63, nil).Export(w)
	var oz *OutOfZoneError
	require.True(t, errors.As(err, &oz))
	assert.Equal(t, id, oz.ID)

	_, err = NewSerializer(DefaultMapper(), -1, nil).Export(w)
	assert.NoError(t, err)
}

func TestClearStale(t *testing.T) {
	z := &Zone{Blocks: map[BlockCoord]*io.Block{{1, 1}: {X: 1, Y: 1, Decorations: []io.Record{{}}}}}
	z.ClearStale([]BlockCoord{{1, 1}, {2, 1}})
	require.Len(t, z.Blocks, 2)
	assert.Equal(t, 1, z.Blocks[BlockCoord{1, 1}].Len())
	assert.Equal(t, 0, z.Blocks[BlockCoord{2, 1}].Len())
	assert.Equal(t, []BlockCoord{{1, 1}, {2, 1}}, z.Coords())
}

func TestOverview(t *testing.T) {
	z := &Zone{Blocks: map[BlockCoord]*io.Block{
		{1, 2}: {X: 1, Y: 2, Decorations: []io.Record{{}, {}}},
		{3, 0}: {X: 3, Y: 0, Water: []io.WaterPlane{{}}},
	}}
	img := Overview(z, 3, 4)
	assert.Equal(t, 16, img.Bounds().Dx())

	assert.Equal(t, overviewEmpty, img.RGBAAt(0, 0))
	assert.Equal(t, overviewWater, img.RGBAAt(3*4+1, 0*4+1))
	lit := img.RGBAAt(1*4+2, 2*4+2)
	assert.Equal(t, uint8(255), lit.R)
}

func TestExportStatsSummary(t *testing.T) {
	s := ExportStats{Blocks: 3, Objects: 10, Bytes: 2048}
	assert.True(t, s.Success())
	assert.Equal(t, "Exported 3 blocks (10 objects, 2048 bytes), 0 failed", s.Summary())
}
