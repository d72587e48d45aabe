// Package game runs the orb field one frame at a time: swarm step, hit
// testing, the note editor, the cloud and telemetry.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/orbfield/camera"
	"github.com/pthm-cable/orbfield/cloud"
	"github.com/pthm-cable/orbfield/config"
	"github.com/pthm-cable/orbfield/interact"
	"github.com/pthm-cable/orbfield/notes"
	"github.com/pthm-cable/orbfield/renderer"
	"github.com/pthm-cable/orbfield/swarm"
	"github.com/pthm-cable/orbfield/telemetry"
	"github.com/pthm-cable/orbfield/ui"
)

// DT is the fixed headless step in seconds.
const DT = 1.0 / 60.0

// shutdownTimeout bounds how long Unload waits for in-flight note I/O.
const shutdownTimeout = 2 * time.Second

// Options configures a Game.
type Options struct {
	Seed           int64
	LogStats       bool    // log telemetry windows via slog
	StatsWindowSec float64 // 0 = use config
	SnapshotDir    string  // swarm snapshot written on Unload; empty disables
	OutputDir      string  // CSV telemetry; empty disables
	Headless       bool    // no raylib calls
	ConfigPath     string  // file to watch when Watch is set
	Watch          bool
	ResumePath     string      // snapshot to restore the swarm from
	Store          notes.Store // overrides cfg.Notes; not closed by Unload
	DT             float64     // headless step; 0 = DT

	// OnStats is called with every flushed telemetry window.
	OnStats func(telemetry.WindowStats)
}

// Game holds the complete orb field state.
type Game struct {
	cfg      *config.Config
	rngSeed  int64
	headless bool
	dt       float64
	paused   bool
	tick     int

	swarm   *swarm.Swarm
	orbs    []swarm.Orb
	cam     *camera.Camera
	session *interact.Session
	editor  *ui.Editor

	store     notes.Store
	ownsStore bool

	cloud    *cloud.Cloud
	rebuild  rebuildState
	updates  chan *config.Config
	watchCtx context.CancelFunc
	watchWG  sync.WaitGroup

	// Telemetry
	collector    *telemetry.Collector
	perf         *telemetry.PerfCollector
	output       *telemetry.OutputManager
	logStats     bool
	snapshotDir  string
	onStats      func(telemetry.WindowStats)
	lastFailures int

	// Rendering and UI, nil when headless
	view *view
}

// New creates a game from cfg. The cloud is built before New returns.
func New(cfg *config.Config, opts Options) (*Game, error) {
	if cfg == nil {
		return nil, fmt.Errorf("game: config is required")
	}
	g := &Game{
		cfg:         cfg,
		rngSeed:     opts.Seed,
		headless:    opts.Headless,
		dt:          opts.DT,
		logStats:    opts.LogStats,
		snapshotDir: opts.SnapshotDir,
		onStats:     opts.OnStats,
		updates:     make(chan *config.Config, 1),
	}
	if g.dt <= 0 {
		g.dt = DT
	}

	if err := g.initSwarm(opts.ResumePath); err != nil {
		return nil, err
	}

	g.store, g.ownsStore = opts.Store, false
	if g.store == nil {
		store, err := notes.Open(cfg.Notes.Options())
		if err != nil {
			return nil, fmt.Errorf("game: open note store: %w", err)
		}
		g.store, g.ownsStore = store, true
	}

	scales := make([]float64, g.swarm.Len())
	for i := range scales {
		scales[i] = g.swarm.BaseScale(i)
	}
	g.session = interact.NewSession(g.store, scales, cfg.Interaction.Options())
	g.editor = ui.NewEditor()
	g.cam = cfg.NewCamera()
	g.orbs = g.swarm.Orbs()

	if err := g.buildCloud(cfg); err != nil {
		g.closeStore()
		return nil, err
	}

	if err := g.initTelemetry(cfg, opts); err != nil {
		g.closeStore()
		return nil, err
	}

	if opts.Watch {
		g.startWatch(opts.ConfigPath)
	}

	if !g.headless {
		g.view = newView(cfg)
	}

	slog.Info("orb field ready",
		"seed", g.rngSeed,
		"orbs", g.swarm.Len(),
		"cloud_points", g.cloud.Len(),
		"store", cfg.Notes.Backend,
		"headless", g.headless,
	)
	return g, nil
}

// initSwarm creates the swarm, or restores it from a snapshot.
func (g *Game) initSwarm(resumePath string) error {
	if resumePath != "" {
		snap, err := telemetry.LoadSnapshot(resumePath)
		if err != nil {
			return fmt.Errorf("game: %w", err)
		}
		sw, err := snap.Restore()
		if err != nil {
			return fmt.Errorf("game: %w", err)
		}
		g.swarm = sw
		g.rngSeed = snap.RNGSeed
		slog.Info("swarm restored", "path", resumePath, "step", sw.Steps(), "elapsed", sw.Elapsed())
		return nil
	}

	sw, err := swarm.New(g.cfg.Swarm.Params(), rand.New(rand.NewSource(g.rngSeed)))
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}
	g.swarm = sw
	return nil
}

// buildCloud samples the cloud synchronously.
func (g *Game) buildCloud(cfg *config.Config) error {
	sampler, err := cfg.NewSampler()
	if err != nil {
		return fmt.Errorf("game: cloud sampler: %w", err)
	}
	c, err := sampler.Build(context.Background())
	if err != nil {
		return fmt.Errorf("game: build cloud: %w", err)
	}
	g.cloud = c
	return nil
}

func (g *Game) closeStore() {
	if !g.ownsStore {
		return
	}
	if err := g.store.Close(); err != nil {
		slog.Error("failed to close note store", "error", err)
	}
}

// Unload stops background work, flushes outputs and releases resources.
func (g *Game) Unload() {
	g.stopWatch()
	g.rebuild.stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := g.session.Shutdown(ctx); err != nil {
		slog.Warn("note I/O abandoned at shutdown", "error", err)
	}
	g.closeStore()

	if g.snapshotDir != "" {
		g.saveSnapshot()
	}
	if err := g.output.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if g.view != nil {
		g.view.unload()
	}
}

// Tick returns the number of frames run.
func (g *Game) Tick() int {
	return g.tick
}

// Swarm returns the orb swarm.
func (g *Game) Swarm() *swarm.Swarm {
	return g.swarm
}

// Session returns the interaction session.
func (g *Game) Session() *interact.Session {
	return g.session
}

// Editor returns the note editor state.
func (g *Game) Editor() *ui.Editor {
	return g.editor
}

// Cloud returns the current cloud.
func (g *Game) Cloud() *cloud.Cloud {
	return g.cloud
}

// Camera returns the orbit camera.
func (g *Game) Camera() *camera.Camera {
	return g.cam
}

// Paused reports whether the swarm is frozen.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused freezes or resumes the swarm.
func (g *Game) SetPaused(p bool) {
	g.paused = p
}

// view holds raylib-side state.
type view struct {
	scene      *renderer.SceneRenderer
	background *renderer.BackgroundRenderer
	ui         *ui.Renderer
	hud        *ui.HUD
	overlays   *ui.OverlayRegistry
	controls   *ui.ControlsPanel
	perfPanel  *ui.PerfPanel
	statsPanel *ui.StatsPanel

	screenW, screenH int32

	pending   ui.Action // button pressed during the last draw
	dragging  bool
	dragDist  float32
	overPanel bool // press started on the editor panel
}
