package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	domainMin = mgl32.Vec3{-50, -50, 0}
	domainMax = mgl32.Vec3{50, 50, 100}
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)

	// Should target the domain center
	if cam.Target != (mgl32.Vec3{0, 0, 50}) {
		t.Errorf("expected target (0, 0, 50), got %v", cam.Target)
	}
	// Whole domain fits inside the orbit sphere
	radius := domainMax.Sub(domainMin).Len() / 2
	if cam.Distance <= radius {
		t.Errorf("distance %f should exceed bounding radius %f", cam.Distance, radius)
	}
}

func TestTargetProjectsToScreenCenter(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)

	sx, sy, ok := cam.WorldToScreen(cam.Target)
	if !ok || !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f, %v)", sx, sy, ok)
	}
}

func TestHigherPointsAppearHigherOnScreen(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)

	_, low, _ := cam.WorldToScreen(cam.Target)
	_, high, _ := cam.WorldToScreen(cam.Target.Add(mgl32.Vec3{0, 0, 10}))
	if high >= low {
		t.Errorf("expected +Z to move up the screen: low=%f high=%f", low, high)
	}
}

func TestOrbitKeepsDistance(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)
	d := cam.Distance

	cam.Orbit(1.2, 0.3)
	got := cam.Position().Sub(cam.Target).Len()
	if !near(got, d) {
		t.Errorf("orbit changed distance: %f != %f", got, d)
	}
}

func TestPitchClamp(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)

	cam.Orbit(0, 10)
	if cam.Pitch != MaxPitch {
		t.Errorf("expected pitch clamped to %f, got %f", MaxPitch, cam.Pitch)
	}
	cam.Orbit(0, -20)
	if cam.Pitch != -MaxPitch {
		t.Errorf("expected pitch clamped to %f, got %f", -MaxPitch, cam.Pitch)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)

	cam.ZoomBy(1e6)
	if cam.Distance != cam.MinDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MinDistance, cam.Distance)
	}
	cam.ZoomBy(1e-6)
	if cam.Distance != cam.MaxDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MaxDistance, cam.Distance)
	}

	before := cam.Distance
	cam.ZoomBy(0)
	if cam.Distance != before {
		t.Error("non-positive zoom factor should be ignored")
	}
}

func TestPanMovesTargetSideways(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)
	start := cam.Target

	cam.Pan(-100, 0)
	moved := cam.Target.Sub(start)
	if moved.Len() == 0 {
		t.Fatal("pan did not move target")
	}
	// dragging left moves the view right
	if moved.Dot(cam.Right()) <= 0 {
		t.Errorf("expected target to move along camera right, moved %v", moved)
	}
	if !near(moved.Dot(cam.Forward()), 0) {
		t.Errorf("pan should not move along view direction, moved %v", moved)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)

	if !cam.IsVisible(cam.Target, 1) {
		t.Error("target should be visible")
	}
	behind := cam.Position().Sub(cam.Forward().Mul(50))
	if cam.IsVisible(behind, 1) {
		t.Error("point behind the camera should not be visible")
	}
	for _, corner := range []mgl32.Vec3{domainMin, domainMax} {
		if !cam.IsVisible(corner, 1) {
			t.Errorf("domain corner %v should be visible", corner)
		}
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, domainMin, domainMax)
	home := cam.Position()

	cam.Orbit(2, -0.4)
	cam.Pan(300, 50)
	cam.ZoomBy(3)
	cam.Resize(800, 600)
	cam.Reset()

	if cam.Position().Sub(home).Len() > 0.01 {
		t.Errorf("expected position %v after reset, got %v", home, cam.Position())
	}
	if cam.ViewportW != 800 || cam.ViewportH != 600 {
		t.Error("reset should keep the current viewport")
	}
}
