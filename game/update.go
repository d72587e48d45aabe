package game

import (
	"github.com/pthm-cable/orbfield/camera"
	"github.com/pthm-cable/orbfield/telemetry"
	"github.com/pthm-cable/orbfield/ui"
)

// FrameInput is the pointer and keyboard state for one frame.
type FrameInput struct {
	Ray    camera.Ray
	RayOK  bool // false when the pointer is off the scene
	Click  bool // primary click released without dragging
	Keys   []ui.KeyEvent
	Action ui.Action // editor button pressed
}

// Update runs one graphical frame: input, simulation and interaction.
// Draw must follow.
func (g *Game) Update() {
	g.perf.StartTick()
	in := g.pollInput()
	g.step(frameTime(), in)
}

// UpdateHeadless runs one frame at the fixed step with no input and no
// raylib calls.
func (g *Game) UpdateHeadless() {
	g.perf.StartTick()
	g.step(g.dt, FrameInput{})
	g.perf.EndTick()
}

// Step runs one frame with the given input. It is the whole frame minus
// drawing and is safe to call without a window.
func (g *Game) Step(dt float64, in FrameInput) {
	g.perf.StartTick()
	g.step(dt, in)
	g.perf.EndTick()
}

func (g *Game) step(dt float64, in FrameInput) {
	g.perf.StartPhase(telemetry.PhaseSwarm)
	if !g.paused {
		g.swarm.Step(dt)
	}
	g.orbs = g.swarm.Orbs()

	g.perf.StartPhase(telemetry.PhasePick)
	prev := g.session.Hovered()
	if g.session.PointerMove(in.Ray, in.RayOK, g.orbs) != prev {
		g.collector.RecordHoverChange()
	}

	g.perf.StartPhase(telemetry.PhaseInteract)
	g.interact(in)
	g.applyConfigUpdates()
	g.pollRebuild()

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.tick++
}

// interact feeds clicks and editor input to the session and keeps the
// editor in step with it.
func (g *Game) interact(in FrameInput) {
	if in.Click {
		wasOpen := g.session.IsOpen()
		g.session.Click()
		if !wasOpen && g.session.IsOpen() {
			g.collector.RecordOpen()
		}
	}

	g.syncEditor()
	action := g.editor.HandleKeys(in.Keys)
	if action == ui.ActionNone {
		action = in.Action
	}
	switch action {
	case ui.ActionSave:
		if g.session.Save(g.editor.Title.Text(), g.editor.Body.Text()) {
			g.collector.RecordSave()
		}
	case ui.ActionDelete:
		g.session.Delete()
	case ui.ActionClose:
		g.session.Close()
	}

	g.session.Poll()
	g.syncEditor()
}

func (g *Game) syncEditor() {
	d := g.session.Draft()
	g.editor.Sync(g.session.Open(), d.Title, d.Body, d.Loading)
}
