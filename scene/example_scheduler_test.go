package scene_test

import (
	"fmt"

	"github.com/plus3/lamprig/scene"
)

type TurntableSystem struct {
	Platter *scene.Node
	Speed   float32
}

func (s *TurntableSystem) Execute(frame *scene.UpdateFrame) {
	s.Platter.Transform.Rotation[1] += s.Speed * float32(frame.DeltaTime)
}

type SpawnOnceSystem struct {
	Parent  *scene.Node
	spawned bool
}

func (s *SpawnOnceSystem) Execute(frame *scene.UpdateFrame) {
	if s.spawned {
		return
	}
	s.spawned = true
	frame.Commands.Attach(s.Parent, scene.NewNode("record"), func(err error) {
		fmt.Println("record attached:", err == nil)
	})
}

// ExampleScheduler demonstrates a frame loop over a scene graph. Systems run in
// registration order; structural changes queued on frame.Commands are applied
// after every system has run, so no system sees a half-built hierarchy.
func ExampleScheduler() {
	graph := scene.NewGraph()
	platter := scene.NewNode("platter")
	if err := graph.Attach(graph.Root(), platter); err != nil {
		panic(err)
	}

	scheduler := scene.NewScheduler(graph)
	scheduler.Register(&TurntableSystem{Platter: platter, Speed: 1})
	scheduler.Register(&SpawnOnceSystem{Parent: platter})

	scheduler.Once(0.5)
	scheduler.Once(0.5)

	fmt.Printf("rotation: %.1f rad\n", platter.Transform.Rotation.Y())
	fmt.Print(graph.Root().TreeString())

	// Output:
	// record attached: true
	// rotation: 1.0 rad
	// scene
	//   platter
	//     record
}
