package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	Vec3Zero  = mgl32.Vec3{0, 0, 0}
	Vec3One   = mgl32.Vec3{1, 1, 1}
	Vec3Up    = mgl32.Vec3{0, 1, 0}
	Vec3Right = mgl32.Vec3{1, 0, 0}
	Vec3Front = mgl32.Vec3{0, 0, -1}
)

// Transform is the placement of an object in scene units
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: Vec3Zero,
		Rotation: mgl32.QuatIdent(),
		Scale:    Vec3One,
	}
}

// TransformAt returns an identity-rotation, unit-scale transform at pos
func TransformAt(pos mgl32.Vec3) Transform {
	t := NewTransform()
	t.Position = pos
	return t
}

func (t Transform) GetMatrix() mgl32.Mat4 {
	translation := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotation := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translation.Mul4(rotation).Mul4(scale)
}

// ApproxEqual compares two transforms component-wise within eps.
// Quaternions q and -q describe the same rotation and compare equal.
func (t Transform) ApproxEqual(o Transform, eps float32) bool {
	if !t.Position.ApproxEqualThreshold(o.Position, eps) || !t.Scale.ApproxEqualThreshold(o.Scale, eps) {
		return false
	}
	dot := math32.Abs(t.Rotation.Dot(o.Rotation))
	return math32.Abs(1-dot) <= eps
}

// EulerDegrees returns the XYZ euler angles of q in degrees
func EulerDegrees(q mgl32.Quat) mgl32.Vec3 {
	x, y, z, w := q.V.X(), q.V.Y(), q.V.Z(), q.W

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll := math32.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*y - z*x)
	var pitch float32
	if math32.Abs(sinp) >= 1 {
		pitch = math32.Copysign(math32.Pi/2, sinp)
	} else {
		pitch = math32.Asin(sinp)
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw := math32.Atan2(sinyCosp, cosyCosp)

	return mgl32.Vec3{mgl32.RadToDeg(roll), mgl32.RadToDeg(pitch), mgl32.RadToDeg(yaw)}
}

// QuatFromEulerDegrees is the inverse of EulerDegrees
func QuatFromEulerDegrees(deg mgl32.Vec3) mgl32.Quat {
	return mgl32.AnglesToQuat(
		mgl32.DegToRad(deg.Z()),
		mgl32.DegToRad(deg.Y()),
		mgl32.DegToRad(deg.X()),
		mgl32.ZYX,
	).Normalize()
}

type Rect struct {
	X, Y, Width, Height float32
}
