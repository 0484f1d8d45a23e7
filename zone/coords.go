package zone

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// FileUnitScale converts scene units to the centi-units of block files
const FileUnitScale = 100

// BlockCoord identifies one block of the zone grid
type BlockCoord struct {
	X, Y int
}

func (b BlockCoord) String() string { return fmt.Sprintf("(%d, %d)", b.X, b.Y) }

// InRange reports whether both coordinates lie in [0, maxBlock]
func (b BlockCoord) InRange(maxBlock int) bool {
	return b.X >= 0 && b.Y >= 0 && b.X <= maxBlock && b.Y <= maxBlock
}

// Mapper converts scene positions to block coordinates and file units.
// It is a plain value with no state beyond its constants.
type Mapper struct {
	BlockSize float32
	OriginY   float32
}

// DefaultMapper uses the geometry of the stock zones: 160-unit blocks with
// block row 65 at z = 0.
func DefaultMapper() Mapper {
	return Mapper{BlockSize: 160, OriginY: 65}
}

// ToBlock returns the block containing pos. X grows with +x, Y grows with -z.
func (m Mapper) ToBlock(pos mgl32.Vec3) BlockCoord {
	return BlockCoord{
		X: int(math32.Floor(pos.X() / m.BlockSize)),
		Y: int(math32.Floor(m.OriginY - pos.Z()/m.BlockSize)),
	}
}

// BlockOrigin returns the scene-space (x, z) corner of b with the smallest x
// and largest z.
func (m Mapper) BlockOrigin(b BlockCoord) (x, z float32) {
	return float32(b.X) * m.BlockSize, (m.OriginY - float32(b.Y)) * m.BlockSize
}

// ToFileUnits scales to centi-units and swaps Y/Z: (x, -z, y) * 100
func (m Mapper) ToFileUnits(pos mgl32.Vec3) [3]float32 {
	return [3]float32{
		pos.X() * FileUnitScale,
		-pos.Z() * FileUnitScale,
		pos.Y() * FileUnitScale,
	}
}

// FromFileUnits is the inverse of ToFileUnits
func (m Mapper) FromFileUnits(f [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{
		f[0] / FileUnitScale,
		f[2] / FileUnitScale,
		-f[1] / FileUnitScale,
	}
}

// RotationToFile applies the same axis swap to a quaternion: (x, -z, y, w)
func (m Mapper) RotationToFile(q mgl32.Quat) [4]float32 {
	return [4]float32{q.V.X(), -q.V.Z(), q.V.Y(), q.W}
}

func (m Mapper) RotationFromFile(r [4]float32) mgl32.Quat {
	return mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[2], -r[1]}}
}

// ScaleToFile swaps Y/Z without scaling: (x, z, y)
func (m Mapper) ScaleToFile(s mgl32.Vec3) [3]float32 {
	return [3]float32{s.X(), s.Z(), s.Y()}
}

func (m Mapper) ScaleFromFile(s [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{s[0], s[2], s[1]}
}
