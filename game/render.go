package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orbfield/cloud"
	"github.com/pthm-cable/orbfield/config"
	"github.com/pthm-cable/orbfield/pick"
	"github.com/pthm-cable/orbfield/renderer"
	"github.com/pthm-cable/orbfield/telemetry"
	"github.com/pthm-cable/orbfield/ui"
)

const controlsLegend = "Drag: orbit | Wheel: zoom | Click orb: note | Home: reset view | Space: pause | F1: controls"

var perfPhases = []string{
	telemetry.PhaseSwarm,
	telemetry.PhasePick,
	telemetry.PhaseInteract,
	telemetry.PhaseRender,
	telemetry.PhaseTelemetry,
}

var (
	skyTop    = rl.Color{R: 6, G: 8, B: 20, A: 255}
	skyBottom = rl.Color{R: 22, G: 28, B: 52, A: 255}
)

func newView(cfg *config.Config) *view {
	w, h := int32(cfg.Screen.Width), int32(cfg.Screen.Height)
	return &view{
		scene:      renderer.NewSceneRenderer(),
		background: renderer.NewBackgroundRenderer(w, h, skyTop, skyBottom),
		ui:         ui.NewRenderer(),
		hud:        ui.NewHUD(),
		overlays:   ui.NewOverlayRegistry(configShellNames(cfg)),
		controls:   ui.NewControlsPanel(10, 100, 220),
		perfPanel:  ui.NewPerfPanel(w-250, 10, 240),
		statsPanel: ui.NewStatsPanel(w-250, 10, 240),
		screenW:    w,
		screenH:    h,
	}
}

func (v *view) unload() {
	v.scene.Unload()
}

// Draw renders the frame and closes the frame's perf sample.
func (g *Game) Draw() {
	v := g.view
	g.perf.StartPhase(telemetry.PhaseRender)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	v.background.Draw()

	cam3d := renderer.Camera3D(g.cam)
	hovered := g.session.Hovered()
	rl.BeginMode3D(cam3d)
	v.scene.DrawCloud(cam3d, g.cloud, v.overlays.ShellVisible)
	if v.overlays.IsEnabled(ui.OverlayOrbs) {
		v.scene.DrawOrbs(cam3d, g.cam, g.orbs, g.session.Scales(), hovered)
	}
	if v.overlays.IsEnabled(ui.OverlayPickSpheres) {
		v.scene.DrawPickSpheres(g.pickSpheres(), hovered)
	}
	if v.overlays.IsEnabled(ui.OverlayBounds) {
		v.scene.DrawBounds(g.swarm.Params())
	}
	rl.EndMode3D()

	g.drawUI()

	rl.EndDrawing()

	g.perf.EndTick()
	g.perf.RecordFrame()
}

func configShellNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.Cloud.Shells))
	for i, s := range cfg.Cloud.Shells {
		names[i] = s.Name
	}
	return names
}

func cloudShellNames(c *cloud.Cloud) []string {
	names := make([]string, len(c.Shells))
	for i, s := range c.Shells {
		names[i] = s.Spec.Name
	}
	return names
}

func (g *Game) pickSpheres() []pick.Sphere {
	factor := g.cfg.Interaction.PickFactor
	spheres := make([]pick.Sphere, len(g.orbs))
	for i, o := range g.orbs {
		spheres[i] = pick.Sphere{ID: o.ID, Center: o.Position, Radius: g.session.Scale(o.ID) * factor}
	}
	return spheres
}

func (g *Game) drawUI() {
	v := g.view

	v.hud.Draw(ui.HUDData{
		Title:    "orbfield",
		Orbs:     g.swarm.Len(),
		Points:   g.cloud.Len(),
		Hovered:  g.session.Hovered(),
		Open:     g.session.Open(),
		FPS:      rl.GetFPS(),
		SimTime:  g.swarm.Elapsed(),
		Paused:   g.paused,
		Building: g.rebuild.running(),
	})

	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perfPanel.Draw(g.perf.Stats(), perfPhases)
	}
	if v.overlays.IsEnabled(ui.OverlayStats) {
		v.statsPanel.Draw(telemetry.SampleSwarm(g.orbs, g.swarm.Params()))
	}
	v.controls.Draw(v.overlays)

	layout := ui.LayoutEditor(float32(v.screenW), float32(v.screenH))
	if a := g.editor.Draw(v.ui, layout); a != ui.ActionNone {
		v.pending = a
	}

	toasts := g.session.Toasts()
	texts := make([]string, len(toasts))
	for i, t := range toasts {
		texts[i] = t.Text
	}
	ui.DrawToasts(v.ui, v.screenW, v.screenH, texts)

	v.hud.DrawControls(v.screenH, controlsLegend)
}
