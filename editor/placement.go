package editor

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
	"zone-editor/scene"
)

// PlacementRequest is the pending "place this asset" state of Add mode
type PlacementRequest struct {
	Kind      scene.Kind
	SourceRef int
	Name      string

	// Position is the last resolved ground point, valid when Resolved
	Position mgl32.Vec3
	Resolved bool
}

// Planner resolves pointer rays to ground positions and builds the actions
// that place new objects there. Rays only consider terrain, so objects can
// be placed on top of others.
type Planner struct {
	Collider scene.Collider
	Snap     bool
	GridSize float32
}

func NewPlanner(c scene.Collider, snap bool, gridSize float32) *Planner {
	return &Planner{Collider: c, Snap: snap, GridSize: gridSize}
}

// Resolve returns the ground point under ray, snapped to the grid when
// enabled
func (p *Planner) Resolve(ray core.Ray) (mgl32.Vec3, bool) {
	hit, ok := p.Collider.CastRay(ray, scene.FilterTerrain)
	if !ok {
		return mgl32.Vec3{}, false
	}
	if p.Snap {
		return SnapVec(hit.Point, p.GridSize), true
	}
	return hit.Point, true
}

// Track updates req with the point under ray, for placement previews
func (p *Planner) Track(req *PlacementRequest, ray core.Ray) {
	req.Position, req.Resolved = p.Resolve(ray)
}

// Place builds the action that creates req's asset under ray, with identity
// rotation and unit scale. It returns false and no action when the ray
// misses the ground.
func (p *Planner) Place(req *PlacementRequest, ray core.Ray) (*AddObject, bool) {
	p.Track(req, ray)
	if !req.Resolved {
		return nil, false
	}
	spec := scene.NewSpec(req.Kind, req.SourceRef)
	spec.Name = req.Name
	spec.Transform = core.TransformAt(req.Position)
	return NewAddObject(spec), true
}

// Snap rounds v to the nearest multiple of step, halves rounding up. A
// non-positive step disables snapping.
func Snap(v, step float32) float32 {
	if step <= 0 {
		return v
	}
	return math32.Floor(v/step+0.5) * step
}

func SnapVec(v mgl32.Vec3, step float32) mgl32.Vec3 {
	return mgl32.Vec3{Snap(v.X(), step), Snap(v.Y(), step), Snap(v.Z(), step)}
}
