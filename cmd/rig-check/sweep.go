package main

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/lamprig/rig"
	"github.com/plus3/lamprig/scene"
)

// SweepResult records where the geometry under a control's joint ends up at each end of
// the control's range.
type SweepResult struct {
	Control  string
	Joint    string
	Applied  bool
	AtMin    mgl32.Vec3
	AtMax    mgl32.Vec3
	Restored bool
}

// Sweep drives every control to its minimum and maximum, running a frame after each
// change, and then restores the initial values.
func Sweep(controls *rig.Controls, joints *rig.Joints, scheduler *scene.Scheduler) []SweepResult {
	var out []SweepResult
	for _, b := range controls.Bindings() {
		res := SweepResult{Control: b.Id, Joint: b.Joint}
		joint, ok := joints.Get(b.Joint)
		if !ok {
			out = append(out, res)
			continue
		}
		before := joint.Transform

		res.Applied, _ = controls.Set(b.Id, b.Min)
		scheduler.Once(0)
		res.AtMin = Centroid(joint)

		_, _ = controls.Set(b.Id, b.Max)
		scheduler.Once(0)
		res.AtMax = Centroid(joint)

		_, _ = controls.Set(b.Id, b.Initial)
		scheduler.Once(0)
		res.Restored = joint.Transform == before

		out = append(out, res)
	}
	return out
}

// Centroid averages the world-space bounding box centers of every mesh under n. A
// subtree without meshes yields n's world position.
func Centroid(n *scene.Node) mgl32.Vec3 {
	var sum mgl32.Vec3
	count := 0
	n.Traverse(func(c *scene.Node) bool {
		if c.Mesh == nil || len(c.Mesh.Positions) == 0 {
			return true
		}
		lo, hi := c.Mesh.Bounds()
		center := lo.Add(hi).Mul(0.5)
		sum = sum.Add(c.WorldMatrix().Mul4x1(center.Vec4(1)).Vec3())
		count++
		return true
	})
	if count == 0 {
		return n.WorldPosition()
	}
	return sum.Mul(1 / float32(count))
}
