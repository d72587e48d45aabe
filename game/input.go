package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orbfield/ui"
)

// clickSlop is how far in pixels the pointer may travel between press and
// release for the release to count as a click rather than an orbit drag.
const clickSlop = 4

func frameTime() float64 {
	return float64(rl.GetFrameTime())
}

// pollInput reads raylib input for this frame, applies camera and hotkey
// controls, and returns what the interaction layer needs.
func (g *Game) pollInput() FrameInput {
	v := g.view
	g.handleResize()

	in := FrameInput{Action: v.pending}
	v.pending = ui.ActionNone

	if g.editor.IsOpen() {
		in.Keys = ui.PollKeys()
	} else {
		g.handleHotkeys()
	}

	mouse := rl.GetMousePosition()
	layout := ui.LayoutEditor(float32(v.screenW), float32(v.screenH))
	overEditor := g.editor.IsOpen() && layout.Contains(mouse.X, mouse.Y)

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		v.dragging = true
		v.dragDist = 0
		v.overPanel = overEditor
	}
	if v.dragging && !v.overPanel {
		d := rl.GetMouseDelta()
		v.dragDist += abs32(d.X) + abs32(d.Y)
		if v.dragDist >= clickSlop && (d.X != 0 || d.Y != 0) {
			speed := g.cfg.Camera.OrbitSpeed
			g.cam.Orbit(-float64(d.X)*speed, -float64(d.Y)*speed)
		}
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) && v.dragging {
		v.dragging = false
		in.Click = !v.overPanel && !overEditor && v.dragDist < clickSlop
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !overEditor {
		g.cam.ZoomBy(1 - float64(wheel)*g.cfg.Camera.ZoomStep)
	}

	if !overEditor {
		in.Ray, in.RayOK = g.cam.ScreenRay(float64(mouse.X), float64(mouse.Y))
	}
	return in
}

// handleHotkeys processes keyboard shortcuts. They are off while the
// editor has the keyboard.
func (g *Game) handleHotkeys() {
	v := g.view
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.cam.Reset()
	}
	if rl.IsKeyPressed(rl.KeyF1) {
		v.controls.Toggle()
	}
	for _, key := range v.overlays.Keys() {
		if rl.IsKeyPressed(key) {
			v.overlays.HandleKeyPress(key)
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	v := g.view
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW, v.screenH = w, h
	g.cam.Resize(float64(w), float64(h))
	v.background.Resize(w, h)
	v.statsPanel.SetPosition(w-250, 10)
	v.perfPanel.SetPosition(w-250, 10)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
