package game

import (
	"log/slog"

	"github.com/pthm-cable/particles/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	frame := int32(g.engine.Frames())
	if !g.collector.ShouldFlush(frame) {
		return
	}

	counters := g.engine.Counters()
	stats := g.collector.Flush(telemetry.Sample{
		Frame:        frame,
		SimTime:      g.engine.Time(),
		Mode:         g.engine.Mode().String(),
		Alive:        g.engine.NumAlive(),
		Capacity:     g.engine.Capacity(),
		SpawnedTotal: int64(counters.Spawned),
		KilledTotal:  int64(counters.Killed),
		Positions:    g.engine.Positions(),
		Velocities:   g.engine.Velocities(),
		Lifetimes:    g.engine.Lifetimes(),
	})
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteFrames(stats); err != nil {
			slog.Error("failed to write frames", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}
