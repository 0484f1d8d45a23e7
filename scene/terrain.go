package scene

import (
	"github.com/aquilax/go-perlin"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
)

// Surface is ground geometry that placement rays can land on
type Surface interface {
	Raycast(ray core.Ray) (float32, bool)
}

// FlatGround is an infinite horizontal plane at Height
type FlatGround struct {
	Height float32
}

func (g FlatGround) Raycast(ray core.Ray) (float32, bool) {
	dy := ray.Direction.Y()
	if math32.Abs(dy) < 1e-6 {
		return 0, false
	}
	t := (g.Height - ray.Origin.Y()) / dy
	return t, t >= 0
}

// Heightfield is a regular grid of terrain heights on the XZ plane
type Heightfield struct {
	Origin   mgl32.Vec2 // world (x, z) of sample (0, 0)
	CellSize float32
	Width    int // samples along X
	Depth    int // samples along Z
	Heights  []float32
}

// PerlinParams configures NewPerlinHeightfield
type PerlinParams struct {
	Seed      int64
	Alpha     float64
	Beta      float64
	Octaves   int32
	Frequency float64
	Amplitude float32
	BaseY     float32
}

func DefaultPerlinParams(seed int64) PerlinParams {
	return PerlinParams{
		Seed:      seed,
		Alpha:     2.0,
		Beta:      2.0,
		Octaves:   3,
		Frequency: 0.01,
		Amplitude: 20,
	}
}

// NewPerlinHeightfield samples perlin noise into a width x depth grid
func NewPerlinHeightfield(origin mgl32.Vec2, cellSize float32, width, depth int, p PerlinParams) *Heightfield {
	noise := perlin.NewPerlin(p.Alpha, p.Beta, p.Octaves, p.Seed)
	h := &Heightfield{
		Origin:   origin,
		CellSize: cellSize,
		Width:    width,
		Depth:    depth,
		Heights:  make([]float32, width*depth),
	}
	for z := 0; z < depth; z++ {
		for x := 0; x < width; x++ {
			wx := float64(origin.X() + float32(x)*cellSize)
			wz := float64(origin.Y() + float32(z)*cellSize)
			n := noise.Noise2D(wx*p.Frequency, wz*p.Frequency)
			h.Heights[z*width+x] = p.BaseY + float32(n)*p.Amplitude
		}
	}
	return h
}

// Bounds returns the world-space XZ extent covered by samples
func (h *Heightfield) Bounds() (minX, minZ, maxX, maxZ float32) {
	minX, minZ = h.Origin.X(), h.Origin.Y()
	maxX = minX + float32(h.Width-1)*h.CellSize
	maxZ = minZ + float32(h.Depth-1)*h.CellSize
	return
}

// HeightAt bilinearly interpolates the terrain height at (x, z)
func (h *Heightfield) HeightAt(x, z float32) (float32, bool) {
	if h.Width < 2 || h.Depth < 2 {
		return 0, false
	}
	fx := (x - h.Origin.X()) / h.CellSize
	fz := (z - h.Origin.Y()) / h.CellSize
	if fx < 0 || fz < 0 || fx > float32(h.Width-1) || fz > float32(h.Depth-1) {
		return 0, false
	}
	x0 := min(int(fx), h.Width-2)
	z0 := min(int(fz), h.Depth-2)
	tx := fx - float32(x0)
	tz := fz - float32(z0)

	h00 := h.Heights[z0*h.Width+x0]
	h10 := h.Heights[z0*h.Width+x0+1]
	h01 := h.Heights[(z0+1)*h.Width+x0]
	h11 := h.Heights[(z0+1)*h.Width+x0+1]

	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return top + (bottom-top)*tz, true
}

// Raycast marches the ray in half-cell steps until it crosses the surface,
// then refines the crossing by bisection.
func (h *Heightfield) Raycast(ray core.Ray) (float32, bool) {
	const (
		maxDistance = 10000
		refineSteps = 20
	)
	step := h.CellSize * 0.5
	if step <= 0 {
		return 0, false
	}

	above := func(t float32) (bool, bool) {
		p := ray.At(t)
		y, ok := h.HeightAt(p.X(), p.Z())
		if !ok {
			return false, false
		}
		return p.Y() >= y, true
	}

	prevT := float32(0)
	prevAbove, prevOK := above(0)
	for t := step; t <= maxDistance; t += step {
		curAbove, ok := above(t)
		if ok && prevOK && prevAbove && !curAbove {
			lo, hi := prevT, t
			for i := 0; i < refineSteps; i++ {
				mid := (lo + hi) * 0.5
				if a, _ := above(mid); a {
					lo = mid
				} else {
					hi = mid
				}
			}
			return hi, true
		}
		prevT, prevAbove, prevOK = t, curAbove, ok
	}
	return 0, false
}
