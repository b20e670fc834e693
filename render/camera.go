// Package render turns a scene graph into a flat, depth-sorted list of shaded
// screen-space triangles. It has no graphics dependency; render/ebiten rasterises
// the list.
package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera looking from Position at Target.
type Camera struct {
	Fov      float32 // vertical, degrees
	Near     float32
	Far      float32
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
}

func NewCamera(fov, near, far float32, position, target mgl32.Vec3) *Camera {
	return &Camera{
		Fov:      fov,
		Near:     near,
		Far:      far,
		Position: position,
		Target:   target,
		Up:       mgl32.Vec3{0, 1, 0},
	}
}

// DefaultCamera frames the desk lamp.
func DefaultCamera() *Camera {
	return NewCamera(75, 0.1, 1000, mgl32.Vec3{5, 5, 10}, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

func (c *Camera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}
