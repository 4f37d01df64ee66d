package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCollectorWindows(t *testing.T) {
	c := NewCollector(1.0, 0.25)
	if got := c.WindowDurationFrames(); got != 4 {
		t.Fatalf("WindowDurationFrames = %d, want 4", got)
	}
	if c.ShouldFlush(3) {
		t.Error("should not flush before a full window")
	}
	if !c.ShouldFlush(4) {
		t.Error("should flush after a full window")
	}

	sample := Sample{
		Frame:        4,
		SimTime:      1,
		Mode:         "water",
		Alive:        2,
		Capacity:     3,
		SpawnedTotal: 5,
		KilledTotal:  3,
		Positions:    []mgl32.Vec4{{0, 0, 2, 1}, {0, 0, 9, 1}, {0, 0, 4, 1}},
		Velocities:   []mgl32.Vec4{{3, 4, 0, 0}, {100, 0, 0, 0}, {0, 0, 1, 0}},
		Lifetimes:    []float32{1, -1, 2},
	}
	s := c.Flush(sample)

	if s.WindowStartFrame != 0 || s.WindowEndFrame != 4 {
		t.Errorf("window = [%d, %d], want [0, 4]", s.WindowStartFrame, s.WindowEndFrame)
	}
	if s.Spawned != 5 || s.Killed != 3 {
		t.Errorf("spawned=%d killed=%d, want 5 and 3", s.Spawned, s.Killed)
	}
	// dead slot 1 is ignored
	if s.SpeedMean != 3 {
		t.Errorf("SpeedMean = %v, want 3", s.SpeedMean)
	}
	if s.HeightMean != 3 {
		t.Errorf("HeightMean = %v, want 3", s.HeightMean)
	}

	sample.Frame = 8
	sample.SpawnedTotal = 9
	sample.KilledTotal = 3
	s = c.Flush(sample)
	if s.WindowStartFrame != 4 || s.Spawned != 4 || s.Killed != 0 {
		t.Errorf("second window: start=%d spawned=%d killed=%d", s.WindowStartFrame, s.Spawned, s.Killed)
	}
	if c.ShouldFlush(11) {
		t.Error("window should restart at the last flush")
	}
}

func TestNewCollectorZeroFrameDT(t *testing.T) {
	if got := NewCollector(1, 0).WindowDurationFrames(); got != 1 {
		t.Errorf("WindowDurationFrames = %d, want 1", got)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	if err := om.WriteFrames(WindowStats{}); err != nil {
		t.Errorf("WriteFrames on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManagerWritesFrames(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := int32(1); i <= 3; i++ {
		if err := om.WriteFrames(WindowStats{WindowEndFrame: i * 10, Mode: "free", Alive: int(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header plus 3 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,mode,alive") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "30,") {
		t.Errorf("unexpected last row %q", lines[3])
	}
}
