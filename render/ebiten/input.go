package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/lamprig/render"
)

// Pointer turns Ebitengine mouse state into orbit input. A drag starts when the left
// button goes down outside any captured area and lasts until the button is released.
type Pointer struct {
	dragging     bool
	lastX, lastY int
}

// Read samples the mouse. When captured is true another layer owns the mouse and no new
// drag or zoom starts, though a drag already in progress continues.
func (p *Pointer) Read(height int, captured bool) render.OrbitInput {
	in := render.OrbitInput{Height: float32(height)}
	x, y := ebiten.CursorPosition()

	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case !pressed:
		p.dragging = false
	case p.dragging:
		in.DragX = float32(x - p.lastX)
		in.DragY = float32(y - p.lastY)
	case !captured:
		p.dragging = true
	}
	p.lastX, p.lastY = x, y

	if !captured {
		_, wheel := ebiten.Wheel()
		in.Wheel = float32(wheel)
	}
	return in
}
