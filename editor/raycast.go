package editor

import (
	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
	"zone-editor/scene"
)

// Viewport is the pixel area rays are cast from
type Viewport struct {
	Width, Height float32
}

// ScreenToRay converts a screen-space mouse position to a world-space ray
func ScreenToRay(mouseX, mouseY float32, vp Viewport, camera *scene.Camera) core.Ray {
	// Convert to normalized device coordinates (-1 to 1)
	ndcX := (2.0*mouseX)/vp.Width - 1.0
	ndcY := 1.0 - (2.0*mouseY)/vp.Height // flip Y

	invProj := camera.GetProjectionMatrix().Inv()
	invView := camera.GetViewMatrix().Inv()

	// Near plane point in view space, then world space
	viewNear := invProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	viewNear = viewNear.Mul(1 / viewNear.W())
	worldNear := invView.Mul4x1(mgl32.Vec4{viewNear.X(), viewNear.Y(), viewNear.Z(), 1})

	return core.NewRay(camera.Position, worldNear.Vec3().Sub(camera.Position))
}

// WorldToScreen projects p into viewport pixels. ok is false for points
// behind the camera.
func WorldToScreen(p mgl32.Vec3, vp Viewport, camera *scene.Camera) (x, y float32, ok bool) {
	clip := camera.GetProjectionMatrix().Mul4(camera.GetViewMatrix()).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	return (ndc.X() + 1) / 2 * vp.Width, (1 - ndc.Y()) / 2 * vp.Height, true
}

// Picker finds the selectable object under a ray. Hits on a part resolve
// to the owning composite, which is what the editor selects and edits.
type Picker struct {
	World    *scene.World
	Collider scene.Collider
}

func NewPicker(w *scene.World, c scene.Collider) *Picker {
	return &Picker{World: w, Collider: c}
}

// Pick returns the nearest selectable object hit by ray
func (p *Picker) Pick(ray core.Ray) (scene.ObjectID, bool) {
	hit, ok := p.Collider.CastRay(ray, scene.FilterSelectable)
	if !ok || hit.ID == 0 {
		return 0, false
	}
	return p.owner(hit.ID), true
}

// PickRect returns the selectable objects whose pickable volume overlaps
// the view volume under rect, owners only, in id order. Colliders without
// volumes fall back to testing object positions.
func (p *Picker) PickRect(rect core.Rect, vp Viewport, camera *scene.Camera) []scene.ObjectID {
	x0, x1 := min(rect.X, rect.X+rect.Width), max(rect.X, rect.X+rect.Width)
	y0, y1 := min(rect.Y, rect.Y+rect.Height), max(rect.Y, rect.Y+rect.Height)
	if x1-x0 < 1 || y1-y0 < 1 {
		return nil
	}

	vpm := rectMatrix(x0, y0, x1, y1, vp).Mul4(camera.GetProjectionMatrix()).Mul4(camera.GetViewMatrix())
	f := scene.FrustumFromVP(vpm)
	volumes, hasVolumes := p.Collider.(interface {
		Volume(obj scene.Object) core.AABB
	})

	var ids []scene.ObjectID
	for _, obj := range p.World.Objects() {
		if !obj.Kind.Selectable() || obj.Kind.IsPart() {
			continue
		}
		var inside bool
		if hasVolumes {
			inside = f.IntersectsAABB(volumes.Volume(obj))
		} else {
			inside = f.Contains(obj.Transform.Position)
		}
		if inside {
			ids = append(ids, obj.ID)
		}
	}
	return ids
}

// rectMatrix maps the clip-space region under a pixel rectangle onto the
// whole clip volume
func rectMatrix(x0, y0, x1, y1 float32, vp Viewport) mgl32.Mat4 {
	nx0, nx1 := 2*x0/vp.Width-1, 2*x1/vp.Width-1
	ny0, ny1 := 1-2*y1/vp.Height, 1-2*y0/vp.Height
	return mgl32.Translate3D(-(nx1+nx0)/(nx1-nx0), -(ny1+ny0)/(ny1-ny0), 0).
		Mul4(mgl32.Scale3D(2/(nx1-nx0), 2/(ny1-ny0), 1))
}

func (p *Picker) owner(id scene.ObjectID) scene.ObjectID {
	obj, ok := p.World.Get(id)
	if ok && obj.Kind.IsPart() && obj.Parent != 0 {
		return obj.Parent
	}
	return id
}
