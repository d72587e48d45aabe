package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pthm-cable/orbfield/cloud"
	"github.com/pthm-cable/orbfield/config"
)

type rebuildResult struct {
	gen   uint64
	cloud *cloud.Cloud
	err   error
}

// rebuildState tracks the cloud build started by the latest config reload.
// A newer reload cancels the build in flight; only the latest result is
// applied.
type rebuildState struct {
	gen     uint64
	cancel  context.CancelFunc
	results chan rebuildResult
	wg      sync.WaitGroup
	busy    bool
}

func (r *rebuildState) running() bool {
	return r.busy
}

// start cancels any build in flight and samples cfg's cloud on a goroutine.
func (r *rebuildState) start(cfg *config.Config) {
	if r.cancel != nil {
		r.cancel()
	}
	if r.results == nil {
		r.results = make(chan rebuildResult, 1)
	}
	r.gen++
	r.busy = true
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	gen, results := r.gen, r.results
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		res := rebuildResult{gen: gen}
		sampler, err := cfg.NewSampler()
		if err == nil {
			res.cloud, err = sampler.Build(ctx)
		}
		res.err = err
		select {
		case results <- res:
		case <-ctx.Done():
		}
	}()
}

// poll returns the latest finished build, if any. Stale results are
// dropped.
func (r *rebuildState) poll() (rebuildResult, bool) {
	for {
		select {
		case res := <-r.results:
			if res.gen != r.gen {
				continue
			}
			r.busy = false
			return res, true
		default:
			return rebuildResult{}, false
		}
	}
}

func (r *rebuildState) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.busy = false
}

// startWatch reloads the config file on change and hands each new config
// to the frame thread.
func (g *Game) startWatch(path string) {
	ctx, cancel := context.WithCancel(context.Background())
	g.watchCtx = cancel
	g.watchWG.Add(1)
	go func() {
		defer g.watchWG.Done()
		err := config.Watch(ctx, path, slog.Default(), func(cfg *config.Config) {
			// Keep only the newest config if the frame thread is behind.
			select {
			case <-g.updates:
			default:
			}
			select {
			case g.updates <- cfg:
			case <-ctx.Done():
			}
		})
		if err != nil {
			slog.Error("config watch failed", "error", err)
		}
	}()
}

func (g *Game) stopWatch() {
	if g.watchCtx == nil {
		return
	}
	g.watchCtx()
	g.watchWG.Wait()
	g.watchCtx = nil
}

// Reload applies a new config: it becomes the global config and the cloud
// is rebuilt in the background. The swarm, camera and note store are left
// as they are.
func (g *Game) Reload(cfg *config.Config) {
	config.Set(cfg)
	g.cfg = cfg
	g.rebuild.start(cfg)
}

// applyConfigUpdates applies a config delivered by the watcher.
func (g *Game) applyConfigUpdates() {
	select {
	case cfg := <-g.updates:
		slog.Info("config reloaded, rebuilding cloud", "points", cfg.Derived.TotalPoints)
		g.Reload(cfg)
	default:
	}
}

// pollRebuild swaps in a finished cloud.
func (g *Game) pollRebuild() {
	res, ok := g.rebuild.poll()
	if !ok {
		return
	}
	if res.err != nil {
		if !errors.Is(res.err, context.Canceled) {
			slog.Warn("cloud rebuild failed", "error", res.err)
		}
		return
	}
	g.cloud = res.cloud
	if g.view != nil {
		g.view.overlays.SyncShells(cloudShellNames(g.cloud))
	}
	slog.Info("cloud rebuilt", "points", g.cloud.Len())
	if err := g.output.WriteCloud(g.cloud); err != nil {
		slog.Error("failed to write cloud points", "error", err)
	}
}
