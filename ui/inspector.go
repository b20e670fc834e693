package ui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/lamprig/scene"
)

// Inspector edits the transform of the selected node and lists its mesh, material and
// light properties.
type Inspector struct {
	selection *Selection
}

func NewInspector(selection *Selection) *Inspector {
	return &Inspector{selection: selection}
}

func (in *Inspector) Render() {
	if !imgui.BeginV("Node Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	n, ok := in.selection.Node()
	if !ok {
		imgui.Text("No node selected")
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Node %d: %s", n.Id(), n.Path()))
	imgui.Checkbox("Visible", &n.Visible)
	imgui.Separator()

	t := &n.Transform
	imgui.DragFloat3V("Position", (*[3]float32)(&t.Position), 0.01, 0, 0, "%.3f", imgui.SliderFlagsNone)
	degrees := RotationDegrees(t)
	if imgui.DragFloat3V("Rotation", &degrees, 0.5, -360, 360, "%.1f°", imgui.SliderFlagsNone) {
		t.SetRotationDegrees(degrees[0], degrees[1], degrees[2])
	}
	imgui.DragFloat3V("Scale", (*[3]float32)(&t.Scale), 0.01, 0, 0, "%.3f", imgui.SliderFlagsNone)

	world := n.WorldPosition()
	imgui.Text(fmt.Sprintf("World: (%.3f, %.3f, %.3f)", world[0], world[1], world[2]))

	in.section("Mesh", n.Mesh)
	in.section("Material", n.Material)
	in.section("Light", n.Light)

	imgui.End()
}

func (in *Inspector) section(title string, v any) {
	fields := Describe(v)
	if len(fields) == 0 {
		return
	}
	if imgui.TreeNodeStr(title) {
		for _, f := range fields {
			imgui.Text(fmt.Sprintf("%s: %s", f.Name, f.Value))
		}
		imgui.TreePop()
	}
}

// RotationDegrees returns the Euler rotation of t in degrees.
func RotationDegrees(t *scene.Transform) [3]float32 {
	return [3]float32{
		mgl32.RadToDeg(t.Rotation[0]),
		mgl32.RadToDeg(t.Rotation[1]),
		mgl32.RadToDeg(t.Rotation[2]),
	}
}
