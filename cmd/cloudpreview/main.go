// Cloud preview tool - interactive cloud sculpting with sliders.
//
// Usage: go run ./cmd/cloudpreview [-config config.yaml] [-out dir]
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mazznoer/colorgrad"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/orbfield/camera"
	"github.com/pthm-cable/orbfield/cloud"
	"github.com/pthm-cable/orbfield/config"
	"github.com/pthm-cable/orbfield/renderer"
)

const (
	windowWidth  = 1200
	windowHeight = 760
	viewSize     = 720
	sliceSize    = 160
	sliceGrid    = 128
	panelX       = viewSize + 20
	panelWidth   = windowWidth - viewSize - 30
)

// previewParams are the slider-controlled cloud settings.
type previewParams struct {
	DetailScale  float32
	DetailWeight float32
	Threshold    float32
	BiasSlope    float32
	Octaves      float32
	Gain         float32
	Frequency    float32
	Density      float32 // multiplier on every shell count
	Seed         float32
}

func paramsFrom(cfg *config.Config) previewParams {
	return previewParams{
		DetailScale:  float32(cfg.Cloud.DetailScale),
		DetailWeight: float32(cfg.Cloud.DetailWeight),
		Threshold:    float32(cfg.Cloud.Threshold),
		BiasSlope:    float32(cfg.Cloud.BiasSlope),
		Octaves:      float32(cfg.Noise.Octaves),
		Gain:         float32(cfg.Noise.Gain),
		Frequency:    float32(cfg.Noise.Frequency),
		Density:      1,
		Seed:         float32(cfg.Cloud.Seed),
	}
}

// apply returns a copy of base with the slider values written in.
func (p previewParams) apply(base *config.Config) *config.Config {
	cfg := *base
	cfg.Cloud.DetailScale = float64(p.DetailScale)
	cfg.Cloud.DetailWeight = float64(p.DetailWeight)
	cfg.Cloud.Threshold = float64(p.Threshold)
	cfg.Cloud.BiasSlope = float64(p.BiasSlope)
	cfg.Cloud.Seed = int64(p.Seed)
	cfg.Noise.Octaves = int(p.Octaves)
	cfg.Noise.Gain = float64(p.Gain)
	cfg.Noise.Frequency = float64(p.Frequency)

	cfg.Cloud.Shells = append([]config.ShellConfig(nil), base.Cloud.Shells...)
	for i := range cfg.Cloud.Shells {
		cfg.Cloud.Shells[i].Count = int(float32(cfg.Cloud.Shells[i].Count) * p.Density)
	}
	return &cfg
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outDir := flag.String("out", ".", "Directory for exported points and config")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	base, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rl.SetConfigFlags(rl.FlagMsaa4xHint)
	rl.InitWindow(windowWidth, windowHeight, "Cloud Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	cam := camera.New(viewSize, viewSize, r3.Vec{X: 0, Y: 0.6, Z: 4}, r3.Vec{}, 50, 0.1, 100)
	cam.MarkHome()
	scene := renderer.NewSceneRenderer()
	defer scene.Unload()

	img := rl.GenImageColor(sliceGrid, sliceGrid, rl.Black)
	sliceTex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(sliceTex)
	sliceGrad := colorgrad.Viridis()

	params := paramsFrom(base)
	cfg := base
	var current *cloud.Cloud
	var sampler *cloud.Sampler
	var status string
	spinning := true
	needsRebuild := true
	dirty := false

	for !rl.WindowShouldClose() {
		if needsRebuild {
			cfg = params.apply(base)
			s, c, err := build(cfg)
			if err != nil {
				status = err.Error()
			} else {
				sampler, current = s, c
				status = fmt.Sprintf("%d points", current.Len())
				updateSlice(sliceTex, sampler, sliceGrad)
			}
			needsRebuild = false
		}

		// Camera: drag to orbit over the 3D view, wheel to zoom
		mouse := rl.GetMousePosition()
		overView := mouse.X < viewSize && mouse.Y < viewSize
		if overView && rl.IsMouseButtonDown(rl.MouseButtonLeft) {
			d := rl.GetMouseDelta()
			cam.Orbit(-float64(d.X)*0.01, -float64(d.Y)*0.01)
		} else if spinning {
			cam.Orbit(float64(rl.GetFrameTime())*0.3, 0)
		}
		if wheel := rl.GetMouseWheelMove(); wheel != 0 && overView {
			cam.ZoomBy(1 - float64(wheel)*0.1)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 12, G: 14, B: 28, A: 255})

		rl.BeginScissorMode(0, 0, viewSize, viewSize)
		cam3d := renderer.Camera3D(cam)
		rl.BeginMode3D(cam3d)
		scene.DrawCloud(cam3d, current, nil)
		rl.EndMode3D()
		rl.EndScissorMode()
		rl.DrawRectangleLines(0, 0, viewSize, viewSize, rl.DarkGray)

		rl.DrawText(status, 10, viewSize+10, 16, rl.LightGray)
		if current != nil {
			y := int32(viewSize + 10)
			for _, sh := range current.Shells {
				rl.DrawText(fmt.Sprintf("%s %d/%d (%.0f%%)", sh.Spec.Name, len(sh.Points), sh.Spec.Count, sh.Filled()*100), 200, y, 14, rl.Gray)
				y += 16
			}
		}

		// Control panel
		y := float32(10)
		rl.DrawText("Cloud Parameters", panelX, int32(y), 20, rl.LightGray)
		y += 35

		changed := false
		changed = slider(&y, "Detail scale", &params.DetailScale, 0.5, 6, "%.2f") || changed
		changed = slider(&y, "Detail weight", &params.DetailWeight, 0, 1.5, "%.2f") || changed
		changed = slider(&y, "Threshold", &params.Threshold, -0.5, 0.5, "%.3f") || changed
		changed = slider(&y, "Bias slope", &params.BiasSlope, 0, 1, "%.2f") || changed
		changed = slider(&y, "Noise octaves", &params.Octaves, 1, 8, "%.0f") || changed
		changed = slider(&y, "Noise gain", &params.Gain, 0.2, 0.9, "%.2f") || changed
		changed = slider(&y, "Noise frequency", &params.Frequency, 0.25, 4, "%.2f") || changed
		changed = slider(&y, "Point density", &params.Density, 0.1, 2, "%.2fx") || changed
		changed = slider(&y, "Seed", &params.Seed, 0, 9999, "%.0f") || changed
		params.Octaves = float32(int(params.Octaves))
		params.Seed = float32(int(params.Seed))
		// Rebuild once the slider is let go
		dirty = dirty || changed
		if dirty && !rl.IsMouseButtonDown(rl.MouseButtonLeft) {
			needsRebuild = true
			dirty = false
		}

		// Buttons
		y += 10
		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 140, Height: 30}, toggleText(spinning, "Stop Spin", "Spin")) {
			spinning = !spinning
		}
		if gui.Button(rl.Rectangle{X: panelX + 150, Y: y, Width: 140, Height: 30}, "Rebuild") {
			needsRebuild = true
		}
		y += 40
		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 140, Height: 30}, "Random Seed") {
			params.Seed = float32(rl.GetRandomValue(0, 9999))
			needsRebuild = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 150, Y: y, Width: 140, Height: 30}, "Reset All") {
			params = paramsFrom(base)
			cam.Reset()
			needsRebuild = true
		}
		y += 40
		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 140, Height: 30}, "Export Points") {
			status = export(current, filepath.Join(*outDir, "cloud_points.csv"))
		}
		if gui.Button(rl.Rectangle{X: panelX + 150, Y: y, Width: 140, Height: 30}, "Save Config") {
			status = saveConfig(cfg, filepath.Join(*outDir, "cloud_config.yaml"))
		}
		y += 45

		// Density slice through y = 0
		rl.DrawText("Slice y=0 (score vs threshold)", panelX, int32(y), 14, rl.Gray)
		y += 18
		rl.DrawTexturePro(
			sliceTex,
			rl.Rectangle{X: 0, Y: 0, Width: sliceGrid, Height: sliceGrid},
			rl.Rectangle{X: panelX, Y: y, Width: sliceSize, Height: sliceSize},
			rl.Vector2{}, 0, rl.White,
		)
		rl.DrawRectangleLines(panelX, int32(y), sliceSize, sliceSize, rl.DarkGray)

		rl.DrawText("Press C to copy cloud YAML to clipboard", panelX, windowHeight-30, 12, rl.Gray)
		if rl.IsKeyPressed(rl.KeyC) {
			if out, err := yaml.Marshal(map[string]any{"cloud": cfg.Cloud, "noise": cfg.Noise}); err == nil {
				rl.SetClipboardText(string(out))
				status = "copied YAML"
			}
		}

		rl.EndDrawing()
	}
}

// slider draws one labelled slider and reports whether it moved.
func slider(y *float32, label string, v *float32, lo, hi float32, format string) bool {
	rl.DrawText(label, panelX, int32(*y), 14, rl.Gray)
	*y += 18
	next := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: *y, Width: panelWidth - 80, Height: 20},
		"", "",
		*v, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, *v), int32(panelX+panelWidth-70), int32(*y+2), 16, rl.LightGray)
	*y += 32
	if next == *v {
		return false
	}
	*v = next
	return true
}

func build(cfg *config.Config) (*cloud.Sampler, *cloud.Cloud, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sampler, err := cfg.NewSampler()
	if err != nil {
		return nil, nil, err
	}
	c, err := sampler.Build(context.Background())
	if err != nil {
		return nil, nil, err
	}
	return sampler, c, nil
}

// updateSlice renders sampler scores over the y = 0 plane of the warped
// unit ball. Accepted cells are bright, rejected cells dark.
func updateSlice(tex rl.Texture2D, s *cloud.Sampler, grad colorgrad.Gradient) {
	pixels := make([]color.RGBA, sliceGrid*sliceGrid)
	th := s.Threshold()
	const extent = 2.0
	for j := 0; j < sliceGrid; j++ {
		z := (float64(j)+0.5)/sliceGrid*2*extent - extent
		for i := 0; i < sliceGrid; i++ {
			x := (float64(i)+0.5)/sliceGrid*2*extent - extent
			score := s.Score(r3.Vec{X: x, Z: z})
			t := (score - th + 1) / 2
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			r, g, b := grad.At(t).RGB255()
			if score < th {
				r, g, b = r/3, g/3, b/3
			}
			pixels[j*sliceGrid+i] = color.RGBA{R: r, G: g, B: b, A: 255}
		}
	}
	rl.UpdateTexture(tex, pixels)
}

func export(c *cloud.Cloud, path string) string {
	if c == nil {
		return "nothing to export"
	}
	f, err := os.Create(path)
	if err != nil {
		return err.Error()
	}
	defer f.Close()
	if err := c.WriteCSV(f); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("wrote %s", path)
}

func saveConfig(cfg *config.Config, path string) string {
	if err := cfg.WriteYAML(path); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("wrote %s", path)
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
