package ui

import (
	"log/slog"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/lamprig/rig"
	"github.com/plus3/lamprig/scene"
)

// placed positions a panel the first time it is shown.
type placed struct {
	Panel
	x, y, w, h float32
}

func (p placed) Render() {
	imgui.SetNextWindowPosV(imgui.NewVec2(p.x, p.y), imgui.CondOnce, imgui.NewVec2(0, 0))
	if p.w > 0 {
		imgui.SetNextWindowSizeV(imgui.NewVec2(p.w, p.h), imgui.CondOnce)
	}
	p.Panel.Render()
}

// Install registers the lamp controls and, when debug is set, the scene tree, node
// inspector, asset loads and performance panels.
func Install(system *ImguiSystem, scheduler *scene.Scheduler, assembler *rig.Assembler, debug bool, draw func() DrawStats, logger *slog.Logger) {
	system.Add(placed{Panel: NewControlsPanel(assembler.Controls(), assembler.Joints(), logger), x: 10, y: 10})
	if !debug {
		return
	}

	selection := NewSelection(scheduler.Graph())
	system.Add(placed{Panel: NewSceneTree(scheduler.Graph(), selection, 100), x: 10, y: 380, w: 360, h: 320})
	system.Add(placed{Panel: NewInspector(selection), x: 380, y: 380, w: 320, h: 320})
	system.Add(placed{Panel: NewLoadsPanel(assembler), x: 710, y: 10, w: 520, h: 230})
	system.Add(placed{Panel: NewPerformanceStats(scheduler, 120, draw), x: 710, y: 250, w: 520, h: 300})
}
