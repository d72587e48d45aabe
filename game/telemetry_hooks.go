package game

import (
	"log/slog"

	"github.com/pthm-cable/orbfield/config"
	"github.com/pthm-cable/orbfield/telemetry"
)

// initTelemetry sets up the stats collector, perf timing and CSV output.
func (g *Game) initTelemetry(cfg *config.Config, opts Options) error {
	window := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		window = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(window)
	g.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return err
	}
	g.output = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	if err := om.WriteCloud(g.cloud); err != nil {
		slog.Error("failed to write cloud points", "error", err)
	}
	return nil
}

// flushTelemetry counts new note I/O failures and, when the stats window
// has elapsed, emits the window.
func (g *Game) flushTelemetry() {
	for f := g.session.Failures(); g.lastFailures < f; g.lastFailures++ {
		g.collector.RecordIOFailure()
	}

	if !g.collector.ShouldFlush(g.swarm.Elapsed()) {
		return
	}

	stats := g.collector.Flush(g.swarm)
	perfStats := g.perf.Stats()

	if g.onStats != nil {
		g.onStats(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.output != nil {
		if err := g.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.WindowEndStep); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// saveSnapshot writes the swarm state to the snapshot directory.
func (g *Game) saveSnapshot() {
	path, err := telemetry.SaveSnapshot(telemetry.NewSnapshot(g.swarm, g.rngSeed), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "step", g.swarm.Steps())
}
