package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Tunables are the runtime-adjustable parameters shown as sliders.
type Tunables struct {
	SpawnRate     float32
	MaxSpawnRate  float32
	SimSpeed      float32
	GravityFactor float32
	HasSpawning   bool // false for mass modes
}

// ControlActions reports what the user did in the panel this frame.
type ControlActions struct {
	Changed     bool
	Tunables    Tunables
	ResetCamera bool
	Restart     bool
}

// ControlsPanel renders the left-side controls panel with sliders and
// overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Draw renders the panel and returns the user's edits.
func (c *ControlsPanel) Draw(t Tunables, overlays *OverlayRegistry) ControlActions {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	sliders := 2
	if t.HasSpawning {
		sliders++
	}
	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(sliders)*(lineHeight+24) + int32(totalItems)*lineHeight + padding*4 + lineHeight + 34

	// Draw panel background
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	x := c.x + padding
	inner := c.width - padding*2

	// Title
	rl.DrawText("Parameters", x, y, 16, rl.White)
	y += lineHeight + 4

	out := ControlActions{Tunables: t}
	if t.HasSpawning {
		out.Tunables.SpawnRate, y = c.slider(x, y, inner, "Spawn rate", "%.0f/s", t.SpawnRate, 0, t.MaxSpawnRate)
	}
	out.Tunables.SimSpeed, y = c.slider(x, y, inner, "Sim speed", "%.2fx", t.SimSpeed, 0, 4)
	out.Tunables.GravityFactor, y = c.slider(x, y, inner, "Attraction", "%.1f", t.GravityFactor, 0, 50)
	out.Changed = out.Tunables != t

	half := float32(inner-padding) / 2
	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: half, Height: 24}, "Reset Camera") {
		out.ResetCamera = true
	}
	if gui.Button(rl.Rectangle{X: float32(x) + half + float32(padding), Y: float32(y), Width: half, Height: 24}, "Restart") {
		out.Restart = true
	}
	y += 34

	// Draw overlays by category
	for _, category := range categories {
		rl.DrawText(categoryLabel(category), x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(x, y, desc, overlays.IsEnabled(desc.ID), inner)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return out
}

// slider draws a labelled raygui slider bar and returns the new value and Y.
func (c *ControlsPanel) slider(x, y, width int32, label, format string, value, lo, hi float32) (float32, int32) {
	r := c.renderer
	rl.DrawText(label, x, y, r.Theme.FontSize, r.Theme.LabelColor)
	valueText := fmt.Sprintf(format, value)
	rl.DrawText(valueText, x+width-rl.MeasureText(valueText, r.Theme.FontSize), y, r.Theme.FontSize, r.Theme.ValueColor)
	y += r.Theme.LineHeight

	next := gui.SliderBar(
		rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: 16},
		"", "",
		value, lo, hi,
	)
	return next, y + 24
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	// Name
	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "debug":
		return "Debug"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}
