package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitInput is one frame of pointer input for an OrbitController.
type OrbitInput struct {
	// DragX and DragY are the pointer movement in pixels while the rotate button is held.
	DragX, DragY float32
	// Wheel is the scroll amount; positive zooms in.
	Wheel float32
	// Height is the viewport height; a drag across the full height turns one revolution.
	Height float32
}

// OrbitController orbits a camera around its target. Rotation input accumulates into
// a velocity that is applied a fraction at a time and decays by Damping every frame.
type OrbitController struct {
	Damping     float32
	RotateSpeed float32
	ZoomSpeed   float32
	MinDistance float32
	MaxDistance float32

	theta, phi, radius float32
	dTheta, dPhi       float32
}

const minPolar = 1e-4

// NewOrbitController starts from the camera's current placement.
func NewOrbitController(cam *Camera) *OrbitController {
	o := &OrbitController{
		Damping:     0.05,
		RotateSpeed: 1,
		ZoomSpeed:   1,
		MinDistance: 0.5,
		MaxDistance: 500,
	}
	offset := cam.Position.Sub(cam.Target)
	o.radius = offset.Len()
	if o.radius > 0 {
		o.theta = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
		o.phi = float32(math.Acos(float64(mgl32.Clamp(offset.Y()/o.radius, -1, 1))))
	}
	return o
}

// Update folds input into the orbit state and moves the camera. It reports whether the
// camera moved noticeably.
func (o *OrbitController) Update(cam *Camera, in OrbitInput) bool {
	if in.Height > 0 {
		o.dTheta -= 2 * math.Pi * in.DragX / in.Height * o.RotateSpeed
		o.dPhi -= 2 * math.Pi * in.DragY / in.Height * o.RotateSpeed
	}

	moved := false
	if in.Wheel != 0 {
		scale := float32(math.Pow(0.95, float64(in.Wheel*o.ZoomSpeed)))
		o.radius = mgl32.Clamp(o.radius*scale, o.MinDistance, o.MaxDistance)
		moved = true
	}

	step := o.Damping
	if step <= 0 || step > 1 {
		step = 1
	}
	o.theta += o.dTheta * step
	o.phi = mgl32.Clamp(o.phi+o.dPhi*step, minPolar, math.Pi-minPolar)
	if abs(o.dTheta*step) > 1e-6 || abs(o.dPhi*step) > 1e-6 {
		moved = true
	}
	o.dTheta *= 1 - step
	o.dPhi *= 1 - step

	sinPhi := float32(math.Sin(float64(o.phi)))
	offset := mgl32.Vec3{
		o.radius * sinPhi * float32(math.Sin(float64(o.theta))),
		o.radius * float32(math.Cos(float64(o.phi))),
		o.radius * sinPhi * float32(math.Cos(float64(o.theta))),
	}
	cam.Position = cam.Target.Add(offset)
	return moved
}

// Distance is the current camera to target distance.
func (o *OrbitController) Distance() float32 {
	return o.radius
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
