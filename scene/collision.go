package scene

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
)

// Filter selects which geometry a ray cast considers
type Filter int

const (
	// FilterSelectable hits only pickable object volumes
	FilterSelectable Filter = iota
	// FilterTerrain hits only the ground surface and Terrain objects
	FilterTerrain
)

func (f Filter) String() string {
	if f == FilterTerrain {
		return "terrain"
	}
	return "selectable"
}

// Hit is the nearest intersection of a ray cast. ID is zero when the ray hit
// ground geometry that is not an object.
type Hit struct {
	ID       ObjectID
	Distance float32
	Point    mgl32.Vec3
}

// Collider answers ray queries against the world
type Collider interface {
	CastRay(ray core.Ray, filter Filter) (Hit, bool)
}

// BoundsFunc returns the model-space pickable volume of an object
type BoundsFunc func(obj Object) core.AABB

// VolumeCollider intersects rays with per-object AABB proxies computed from
// BoundsFunc and the current transform, plus an optional ground Surface.
type VolumeCollider struct {
	World   *World
	Bounds  BoundsFunc
	Surface Surface
}

func NewVolumeCollider(w *World, bounds BoundsFunc, surface Surface) *VolumeCollider {
	if bounds == nil {
		bounds = func(Object) core.AABB { return core.UnitAABB }
	}
	return &VolumeCollider{World: w, Bounds: bounds, Surface: surface}
}

// Volume returns the world-space pickable box of obj
func (c *VolumeCollider) Volume(obj Object) core.AABB {
	return c.Bounds(obj).Transformed(obj.Transform.GetMatrix())
}

func (c *VolumeCollider) CastRay(ray core.Ray, filter Filter) (Hit, bool) {
	closest := Hit{Distance: float32(stdmath.MaxFloat32)}
	found := false

	for _, obj := range c.World.Objects() {
		if !c.accepts(obj.Kind, filter) {
			continue
		}
		t, hit := core.RayAABB(ray, c.Volume(obj))
		if hit && t < closest.Distance {
			closest = Hit{ID: obj.ID, Distance: t, Point: ray.At(t)}
			found = true
		}
	}

	if filter == FilterTerrain && c.Surface != nil {
		if t, hit := c.Surface.Raycast(ray); hit && t < closest.Distance {
			closest = Hit{Distance: t, Point: ray.At(t)}
			found = true
		}
	}

	return closest, found
}

func (c *VolumeCollider) accepts(kind Kind, filter Filter) bool {
	switch filter {
	case FilterTerrain:
		return kind == KindTerrain
	default:
		return kind.Selectable()
	}
}
