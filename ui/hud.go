package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particles/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Mode         string
	Alive        int
	Capacity     int
	Springs      int
	Frame        int64
	SimTime      float32
	Substeps     int
	FPS          int32
	Paused       bool
	Fireball     string // phase name, empty outside fireball mode
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer

	// Title
	rl.DrawText(fmt.Sprintf("%s [%s]", data.Title, data.Mode), 10, 10, 20, rl.White)

	// Population
	y := r.DrawOccupancyBar(10, 38, "Population", data.Alive, data.Capacity, 360)
	if data.Springs > 0 {
		y = r.DrawLabelValue(10, y, "Links", fmt.Sprintf("%d", data.Springs))
	}

	// Simulation info
	rl.DrawText(
		fmt.Sprintf("Frame: %d | Time: %.2fs | Substeps: %d | FPS: %d", data.Frame, data.SimTime, data.Substeps, data.FPS),
		10, y, 16, rl.LightGray,
	)
	y += 20

	if data.Fireball != "" {
		rl.DrawText("Fireball: "+data.Fireball, 10, y, 16, rl.Orange)
		y += 20
	}

	// Status
	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, y, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the frame phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s) x%.0f substeps", stats.AvgTick.Round(time.Microsecond), stats.TicksPerSecond, stats.Substeps), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.PhaseOrder() {
		ps, ok := stats.Phases[phase]
		if !ok {
			continue
		}

		color := rl.LightGray
		if ps.Pct > 50 {
			color = rl.Red
		} else if ps.Pct > 25 {
			color = rl.Orange
		}

		// Kernels started once per sub-step also show their per-step cost.
		line := fmt.Sprintf("%-10s %8s %5.1f%%", phase, ps.PerTick.Round(time.Microsecond), ps.Pct)
		if ps.Calls > 1 {
			line += fmt.Sprintf("  %s/step", ps.PerCall.Round(time.Microsecond))
		}
		rl.DrawText(line, x, y, 12, color)
		y += 14
	}
}
