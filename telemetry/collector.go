package telemetry

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Sample is what the collector reads from a simulation at flush time.
type Sample struct {
	Frame    int32
	SimTime  float64
	Mode     string
	Alive    int
	Capacity int

	// Cumulative counters from the atomics buffer
	SpawnedTotal int64
	KilledTotal  int64

	Positions  []mgl32.Vec4
	Velocities []mgl32.Vec4
	Lifetimes  []float32
}

// Collector turns cumulative counters into per-window stats.
type Collector struct {
	windowDurationSec    float64
	windowDurationFrames int32

	// Current window tracking
	windowStartFrame int32
	lastSpawned      int64
	lastKilled       int64

	speeds []float64 // scratch
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// frameDT: simulated seconds per frame
func NewCollector(windowDurationSec, frameDT float64) *Collector {
	framesPerWindow := int32(1)
	if frameDT > 0 {
		framesPerWindow = max(int32(windowDurationSec/frameDT), 1)
	}
	return &Collector{
		windowDurationSec:    windowDurationSec,
		windowDurationFrames: framesPerWindow,
	}
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int32) bool {
	return currentFrame-c.windowStartFrame >= c.windowDurationFrames
}

// Flush produces a WindowStats and starts the next window.
func (c *Collector) Flush(s Sample) WindowStats {
	c.speeds = c.speeds[:0]
	var heightSum float64
	for i, life := range s.Lifetimes {
		if life < 0 {
			continue
		}
		c.speeds = append(c.speeds, float64(s.Velocities[i].Vec3().Len()))
		heightSum += float64(s.Positions[i][2])
	}

	mean, std, p10, p50, p90 := ComputeSpeedStats(c.speeds)
	var heightMean float64
	if n := len(c.speeds); n > 0 {
		heightMean = heightSum / float64(n)
	}

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   s.Frame,
		SimTimeSec:       s.SimTime,
		Mode:             s.Mode,
		Alive:            s.Alive,
		Capacity:         s.Capacity,
		Spawned:          int(s.SpawnedTotal - c.lastSpawned),
		Killed:           int(s.KilledTotal - c.lastKilled),
		SpeedMean:        mean,
		SpeedStd:         std,
		SpeedP10:         p10,
		SpeedP50:         p50,
		SpeedP90:         p90,
		HeightMean:       heightMean,
	}

	// Reset for next window
	c.windowStartFrame = s.Frame
	c.lastSpawned = s.SpawnedTotal
	c.lastKilled = s.KilledTotal

	return stats
}

// WindowDurationFrames returns the number of frames per window.
func (c *Collector) WindowDurationFrames() int32 {
	return c.windowDurationFrames
}
