// Package ui provides the Dear ImGui panels of the lamp viewer: joint sliders, a scene
// tree with a node inspector, asset load status and performance stats.
package ui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/lamprig/scene"
)

// Panel renders one ImGui window. Render is called on the frame thread once per frame
// while an ImGui frame is open.
type Panel interface {
	Render()
}

// PanelFunc adapts a plain function to the Panel interface.
type PanelFunc func()

func (f PanelFunc) Render() {
	f()
}

// InputState tracks whether Dear ImGui is consuming mouse or keyboard input.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem defers every registered panel's Render to the end of the frame so panels
// see the graph after all systems and structural commands have run.
type ImguiSystem struct {
	// Capture samples input capture state. Nil reads the current ImGui IO.
	Capture func() InputState

	panels []Panel
	input  InputState
}

func NewImguiSystem() *ImguiSystem {
	return &ImguiSystem{}
}

// Add registers a panel. Panels render in registration order.
func (s *ImguiSystem) Add(p Panel) {
	s.panels = append(s.panels, p)
}

func (s *ImguiSystem) Panels() int {
	return len(s.panels)
}

// Input returns the capture state sampled at the last Execute.
func (s *ImguiSystem) Input() InputState {
	return s.input
}

func (s *ImguiSystem) Execute(frame *scene.UpdateFrame) {
	if s.Capture != nil {
		s.input = s.Capture()
	} else {
		io := imgui.CurrentIO()
		s.input.WantCaptureMouse = io.WantCaptureMouse()
		s.input.WantCaptureKeyboard = io.WantCaptureKeyboard()
	}

	for _, p := range s.panels {
		frame.Commands.Defer(p.Render)
	}
}
