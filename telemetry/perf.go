package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one frame. The first five are reported by the engine and
// match the sim stage names; force and integrate start once per sub-step.
const (
	PhaseParams    = "params"
	PhaseSpawn     = "spawn"
	PhaseForce     = "force"
	PhaseIntegrate = "integrate"
	PhaseReadback  = "readback"
	PhaseRender    = "render"
	PhaseTelemetry = "telemetry"
)

var phaseOrder = [...]string{
	PhaseParams, PhaseSpawn, PhaseForce, PhaseIntegrate,
	PhaseReadback, PhaseRender, PhaseTelemetry,
}

const numPhases = len(phaseOrder)

// phaseIndex maps a phase name to its slot, or -1 for names outside the frame.
func phaseIndex(name string) int {
	for i, p := range phaseOrder {
		if p == name {
			return i
		}
	}
	return -1
}

// phaseSlot accumulates one phase within a tick.
type phaseSlot struct {
	total time.Duration
	calls int
}

// tickSample is one recorded tick.
type tickSample struct {
	duration time.Duration
	phases   [numPhases]phaseSlot
}

// PerfCollector attributes wall time to the phases of each engine frame and
// keeps the last windowSize ticks. It implements sim.PhaseTimer.
type PerfCollector struct {
	now func() time.Time

	ring  []tickSample
	next  int
	count int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int // -1 when no phase is open

	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	return newPerfCollector(windowSize, time.Now)
}

func newPerfCollector(windowSize int, now func() time.Time) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		now:   now,
		ring:  make([]tickSample, windowSize),
		phase: -1,
	}
}

// StartTick opens a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.cur = tickSample{}
	p.phase = -1
}

// StartPhase closes the open phase and opens the named one. Starting a phase
// again within the same tick adds a call to it, which is how sub-steps are
// counted. Unknown names close the open phase without opening another.
func (p *PerfCollector) StartPhase(name string) {
	now := p.now()
	p.closePhase(now)
	p.phase = phaseIndex(name)
	if p.phase >= 0 {
		p.cur.phases[p.phase].calls++
	}
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.cur.phases[p.phase].total += now.Sub(p.phaseStart)
	}
	p.phase = -1
}

// EndTick closes the tick and stores it in the window.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.cur.duration = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// RecordFrame marks a presented frame in graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseStats is the window average of one phase.
type PhaseStats struct {
	PerTick time.Duration // average time per tick
	PerCall time.Duration // average time per start of the phase
	Calls   float64       // average starts per tick
	Pct     float64       // share of the average tick
}

// PerfStats is the window summary.
type PerfStats struct {
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration

	// Phases holds only the phases seen in the window.
	Phases map[string]PhaseStats

	// Substeps is the average number of force dispatches per tick.
	Substeps float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats summarizes the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Phases:        make(map[string]PhaseStats),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.count == 0 {
		return s
	}

	var total time.Duration
	var sums [numPhases]phaseSlot
	for i := 0; i < p.count; i++ {
		t := p.ring[i]
		total += t.duration
		if i == 0 || t.duration < s.MinTick {
			s.MinTick = t.duration
		}
		s.MaxTick = max(s.MaxTick, t.duration)
		for j := range sums {
			sums[j].total += t.phases[j].total
			sums[j].calls += t.phases[j].calls
		}
	}

	n := time.Duration(p.count)
	s.AvgTick = total / n
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}

	for j, sum := range sums {
		if sum.calls == 0 {
			continue
		}
		ps := PhaseStats{
			PerTick: sum.total / n,
			PerCall: sum.total / time.Duration(sum.calls),
			Calls:   float64(sum.calls) / float64(p.count),
		}
		if s.AvgTick > 0 {
			ps.Pct = float64(ps.PerTick) / float64(s.AvgTick) * 100
		}
		s.Phases[phaseOrder[j]] = ps
	}
	s.Substeps = s.Phases[PhaseForce].Calls
	return s
}

// LogStats logs the summary with the per-sub-step cost of the kernels.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("min_tick_us", s.MinTick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("substeps", s.Substeps),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, name := range phaseOrder {
		ps, ok := s.Phases[name]
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Group(name,
			slog.Int64("us", ps.PerTick.Microseconds()),
			slog.Float64("pct", ps.Pct),
			slog.Float64("calls", ps.Calls),
		))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row. Kernel columns are per sub-step.
type PerfStatsCSV struct {
	WindowEnd     int32   `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	FPS           float64 `csv:"fps"`
	Substeps      float64 `csv:"substeps"`
	SpawnUS       int64   `csv:"spawn_us"`
	ForceStepUS   int64   `csv:"force_step_us"`
	IntegrateStep int64   `csv:"integrate_step_us"`
	KernelPct     float64 `csv:"kernel_pct"`
	RenderPct     float64 `csv:"render_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the summary for perf.csv.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTick.Microseconds(),
		MaxTickUS:     s.MaxTick.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		FPS:           s.FPS,
		Substeps:      s.Substeps,
		SpawnUS:       s.Phases[PhaseSpawn].PerCall.Microseconds(),
		ForceStepUS:   s.Phases[PhaseForce].PerCall.Microseconds(),
		IntegrateStep: s.Phases[PhaseIntegrate].PerCall.Microseconds(),
		KernelPct:     s.KernelPct(),
		RenderPct:     s.Phases[PhaseRender].Pct,
		TelemetryPct:  s.Phases[PhaseTelemetry].Pct,
	}
}

// KernelPct is the share of the tick spent in spawn, force and integrate.
func (s PerfStats) KernelPct() float64 {
	return s.Phases[PhaseSpawn].Pct + s.Phases[PhaseForce].Pct + s.Phases[PhaseIntegrate].Pct
}

// PhaseOrder returns the phases in display order.
func PhaseOrder() []string {
	return append([]string(nil), phaseOrder[:]...)
}
