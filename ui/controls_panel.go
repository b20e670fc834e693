package ui

import (
	"log/slog"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/lamprig/rig"
)

// ControlsPanel shows one slider per control binding.
type ControlsPanel struct {
	controls *rig.Controls
	joints   *rig.Joints
	logger   *slog.Logger
}

func NewControlsPanel(controls *rig.Controls, joints *rig.Joints, logger *slog.Logger) *ControlsPanel {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlsPanel{controls: controls, joints: joints, logger: logger}
}

func (cp *ControlsPanel) Render() {
	if !imgui.BeginV("Lamp Controls", nil, imgui.WindowFlagsAlwaysAutoResize) {
		imgui.End()
		return
	}

	for _, b := range cp.controls.Bindings() {
		v, _ := cp.controls.Value(b.Id)
		if imgui.SliderFloatV(b.Label, &v, b.Min, b.Max, SliderFormat(b.Unit), imgui.SliderFlagsNone) {
			cp.set(b.Id, v)
		}
		if _, ok := cp.joints.Get(b.Joint); !ok {
			imgui.SameLine()
			imgui.Text("(loading)")
		}
	}

	imgui.Separator()
	if imgui.Button("Reset") {
		cp.controls.Reset()
	}

	imgui.End()
}

func (cp *ControlsPanel) set(id string, v float32) {
	if _, err := cp.controls.Set(id, v); err != nil {
		cp.logger.Warn("control rejected", "control", id, "error", err)
	}
}

// SliderFormat is the printf format a slider uses to show a value in unit.
func SliderFormat(unit rig.Unit) string {
	if unit == rig.Degrees {
		return "%.0f°"
	}
	return "%.2f"
}
