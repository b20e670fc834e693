package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a node's local position, Euler rotation (radians, XYZ order) and scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix composes translation, rotation (X then Y then Z) and scale.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	m = m.Mul4(t.RotationMatrix())
	return m.Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// RotationMatrix returns only the rotational part of the transform.
func (t Transform) RotationMatrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(t.Rotation.X()).
		Mul4(mgl32.HomogRotate3DY(t.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z()))
}

// SetRotationDegrees sets the Euler rotation from degrees.
func (t *Transform) SetRotationDegrees(x, y, z float32) {
	t.Rotation = mgl32.Vec3{mgl32.DegToRad(x), mgl32.DegToRad(y), mgl32.DegToRad(z)}
}

// EulerFromQuat converts a unit quaternion to XYZ-order Euler angles in radians.
func EulerFromQuat(q mgl32.Quat) mgl32.Vec3 {
	w, x, y, z := float64(q.W), float64(q.V[0]), float64(q.V[1]), float64(q.V[2])
	n := math.Sqrt(w*w + x*x + y*y + z*z)
	if n == 0 {
		return mgl32.Vec3{}
	}
	w, x, y, z = w/n, x/n, y/n, z/n

	return eulerXYZ([3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	})
}

// EulerFromMatrix extracts XYZ-order Euler angles from the rotation part of m, which
// must carry no scale.
func EulerFromMatrix(m mgl32.Mat4) mgl32.Vec3 {
	var r [3][3]float64
	for row := range 3 {
		for col := range 3 {
			r[row][col] = float64(m.At(row, col))
		}
	}
	return eulerXYZ(r)
}

// eulerXYZ works in float64 and takes the Y angle from atan2 so that rotations near
// ±90° about Y keep full precision.
func eulerXYZ(m [3][3]float64) mgl32.Vec3 {
	cy := math.Hypot(m[1][2], m[2][2])
	y := math.Atan2(m[0][2], cy)

	var x, z float64
	if cy > 1e-6 {
		x = math.Atan2(-m[1][2], m[2][2])
		z = math.Atan2(-m[0][1], m[0][0])
	} else {
		// gimbal lock
		x = math.Atan2(m[2][1], m[1][1])
	}

	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}
