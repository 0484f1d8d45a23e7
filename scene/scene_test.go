package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-editor/core"
)

func TestWorldSpawnDespawnRestore(t *testing.T) {
	w := NewWorld()
	id, err := w.Spawn(KindDecoration, core.TransformAt(mgl32.Vec3{1, 2, 3}), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Len())

	obj, ok := w.Get(id)
	require.True(t, ok)
	assert.Equal(t, 7, obj.SourceRef)

	require.NoError(t, w.Despawn(id))
	assert.Equal(t, 0, w.Len())
	assert.False(t, w.Exists(id))
	assert.True(t, errors.Is(w.Despawn(id), ErrNotFound))

	require.NoError(t, w.Restore(obj))
	restored, ok := w.Get(id)
	require.True(t, ok)
	assert.Equal(t, obj, restored)

	assert.Error(t, w.Restore(obj), "restoring a live object must fail")
}

func TestWorldIdsAreNotReused(t *testing.T) {
	w := NewWorld()
	a, _ := w.Spawn(KindDecoration, core.NewTransform(), 0)
	require.NoError(t, w.Despawn(a))
	b, _ := w.Spawn(KindDecoration, core.NewTransform(), 0)
	if a == b {
		t.Errorf("Spawn: id %d reused", a)
	}
}

func TestWorldParts(t *testing.T) {
	w := NewWorld()
	owner, err := w.Spawn(KindConstruction, core.NewTransform(), 1)
	require.NoError(t, err)

	spec := NewSpec(KindConstructionPart, 1)
	spec.Parent = owner
	part, err := w.Add(spec)
	require.NoError(t, err)

	children := w.Children(owner)
	require.Len(t, children, 1)
	assert.Equal(t, part, children[0].ID)

	orphan := NewSpec(KindDecorationPart, 1)
	_, err = w.Add(orphan)
	assert.True(t, errors.Is(err, ErrInvalidParent))

	wrongOwner := NewSpec(KindDecorationPart, 1)
	wrongOwner.Parent = owner
	_, err = w.Add(wrongOwner)
	assert.True(t, errors.Is(err, ErrInvalidParent))
}

func TestWorldQueryAndFilter(t *testing.T) {
	w := NewWorld()
	for i, kind := range []Kind{KindDecoration, KindEvent, KindDecoration, KindSound} {
		spec := NewSpec(kind, i)
		spec.Name = []string{"Tree", "Gate trigger", "Rock", "Birds"}[i]
		_, err := w.Add(spec)
		require.NoError(t, err)
	}

	assert.Len(t, w.QueryByKind(KindDecoration), 2)
	assert.Len(t, w.QueryByKind(KindWarp), 0)
	assert.Len(t, w.Filter(nil, "r"), 4)
	assert.Len(t, w.Filter([]Kind{KindDecoration}, "tree"), 1)
	assert.Len(t, w.Filter([]Kind{KindEvent, KindSound}, ""), 2)
}

func TestKindText(t *testing.T) {
	for _, k := range AllKinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("spaceship")
	assert.Error(t, err)
	assert.False(t, KindTerrain.Persisted())
	assert.False(t, KindDecorationPart.Persisted())
	assert.True(t, KindWater.Persisted())
}

func TestColliderSelectableIgnoresTerrain(t *testing.T) {
	w := NewWorld()
	near, _ := w.Spawn(KindDecoration, core.TransformAt(mgl32.Vec3{0, 5, 0}), 0)
	_, _ = w.Spawn(KindDecoration, core.TransformAt(mgl32.Vec3{0, 2, 0}), 0)
	ground, _ := w.Spawn(KindTerrain, core.TransformAt(mgl32.Vec3{0, 8, 0}), 0)

	c := NewVolumeCollider(w, nil, FlatGround{Height: 0})
	down := core.NewRay(mgl32.Vec3{0.1, 20, 0.1}, mgl32.Vec3{0, -1, 0})

	hit, ok := c.CastRay(down, FilterSelectable)
	require.True(t, ok)
	assert.Equal(t, near, hit.ID)

	hit, ok = c.CastRay(down, FilterTerrain)
	require.True(t, ok)
	assert.Equal(t, ground, hit.ID)

	require.NoError(t, w.Despawn(ground))
	hit, ok = c.CastRay(down, FilterTerrain)
	require.True(t, ok)
	assert.Equal(t, ObjectID(0), hit.ID)
	assert.InDelta(t, 0, hit.Point.Y(), 1e-4)

	up := core.NewRay(mgl32.Vec3{0.1, 20, 0.1}, mgl32.Vec3{0, 1, 0})
	_, ok = c.CastRay(up, FilterTerrain)
	assert.False(t, ok)
}

func TestColliderUsesBounds(t *testing.T) {
	w := NewWorld()
	id, _ := w.Spawn(KindConstruction, core.TransformAt(mgl32.Vec3{10, 0, 0}), 3)
	big := core.AABB{Min: mgl32.Vec3{-5, 0, -5}, Max: mgl32.Vec3{5, 10, 5}}
	c := NewVolumeCollider(w, func(obj Object) core.AABB {
		if obj.SourceRef == 3 {
			return big
		}
		return core.UnitAABB
	}, nil)

	ray := core.NewRay(mgl32.Vec3{14, 50, 0.5}, mgl32.Vec3{0, -1, 0})
	hit, ok := c.CastRay(ray, FilterSelectable)
	require.True(t, ok)
	assert.Equal(t, id, hit.ID)
	assert.InDelta(t, 40, hit.Distance, 1e-3)
}

func TestHeightfieldRaycast(t *testing.T) {
	h := &Heightfield{
		Origin:   mgl32.Vec2{0, 0},
		CellSize: 10,
		Width:    3,
		Depth:    3,
		Heights:  []float32{5, 5, 5, 5, 5, 5, 5, 5, 5},
	}
	y, ok := h.HeightAt(12, 7)
	require.True(t, ok)
	assert.InDelta(t, 5, y, 1e-5)

	_, ok = h.HeightAt(-1, 0)
	assert.False(t, ok)

	ray := core.NewRay(mgl32.Vec3{10, 50, 10}, mgl32.Vec3{0, -1, 0})
	d, ok := h.Raycast(ray)
	require.True(t, ok)
	assert.InDelta(t, 45, d, 1e-2)

	outside := core.NewRay(mgl32.Vec3{100, 50, 100}, mgl32.Vec3{0, -1, 0})
	_, ok = h.Raycast(outside)
	assert.False(t, ok)
}

func TestPerlinHeightfieldDeterministic(t *testing.T) {
	a := NewPerlinHeightfield(mgl32.Vec2{0, 0}, 4, 16, 16, DefaultPerlinParams(42))
	b := NewPerlinHeightfield(mgl32.Vec2{0, 0}, 4, 16, 16, DefaultPerlinParams(42))
	assert.Equal(t, a.Heights, b.Heights)
	minX, minZ, maxX, maxZ := a.Bounds()
	assert.Equal(t, []float32{0, 0, 60, 60}, []float32{minX, minZ, maxX, maxZ})
}

func TestWorldJSONRoundTrip(t *testing.T) {
	w := NewWorld()
	owner := NewSpec(KindDecoration, 4)
	owner.Name = "Fountain"
	owner.Transform = core.TransformAt(mgl32.Vec3{1, 2, 3})
	owner.Transform.Rotation = mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	ownerID, err := w.Add(owner)
	require.NoError(t, err)

	part := NewSpec(KindDecorationPart, 4)
	part.Parent = ownerID
	_, err = w.Add(part)
	require.NoError(t, err)

	sound := NewSpec(KindSound, 9)
	sound.Props.SoundPath = "sound/water.wav"
	_, err = w.Add(sound)
	require.NoError(t, err)

	data, err := MarshalWorld(w)
	require.NoError(t, err)
	loaded, err := UnmarshalWorld(data)
	require.NoError(t, err)

	require.Equal(t, w.Len(), loaded.Len())
	got := loaded.QueryByKind(KindDecoration)
	require.Len(t, got, 1)
	assert.Equal(t, "Fountain", got[0].Name)
	assert.True(t, got[0].Transform.ApproxEqual(owner.Transform, 1e-6))
	assert.Len(t, loaded.Children(got[0].ID), 1)

	sounds := loaded.QueryByKind(KindSound)
	require.Len(t, sounds, 1)
	assert.Equal(t, "sound/water.wav", sounds[0].Props.SoundPath)
	assert.Equal(t, float32(100), sounds[0].Props.SoundRange)
}

func TestFrustumFromCamera(t *testing.T) {
	cam := NewCamera(mgl32.DegToRad(60), 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 5})
	cam.LookAt(mgl32.Vec3{0, 0, 0})
	f := FrustumFromVP(cam.GetProjectionMatrix().Mul4(cam.GetViewMatrix()))

	assert.True(t, f.Contains(mgl32.Vec3{0, 0, 0}))
	assert.False(t, f.Contains(mgl32.Vec3{0, 0, 10}), "behind the camera")
	assert.False(t, f.Contains(mgl32.Vec3{0, 0, -200}), "beyond the far plane")

	assert.True(t, f.IntersectsAABB(core.UnitAABB))
	far := core.AABB{Min: mgl32.Vec3{99, -1, -1}, Max: mgl32.Vec3{101, 1, 1}}
	assert.False(t, f.IntersectsAABB(far))

	// A box straddling the left plane still counts
	edge := core.AABB{Min: mgl32.Vec3{-20, -1, -30}, Max: mgl32.Vec3{0, 1, -28}}
	assert.True(t, f.IntersectsAABB(edge))
}

func TestOrbitCameraKeepsDistance(t *testing.T) {
	target := mgl32.Vec3{10, 0, 10}
	cam := NewOrbitCamera(target, 50, mgl32.DegToRad(60), 1)
	assert.InDelta(t, 50, cam.Position.Sub(target).Len(), 1e-3)

	cam.Orbit(1.2, 5)
	assert.Equal(t, float32(1.5), cam.Pitch, "pitch is clamped")
	assert.InDelta(t, 50, cam.Position.Sub(target).Len(), 1e-3)

	cam.Zoom(-100)
	assert.InDelta(t, 0.1, cam.Distance, 1e-6)
	assert.True(t, cam.GetForward().ApproxEqualThreshold(target.Sub(cam.Position).Normalize(), 1e-4))
}
