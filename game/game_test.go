package game

import (
	"testing"

	"github.com/pthm-cable/particles/config"
)

func headlessGame(t *testing.T) *Game {
	t.Helper()
	cfg := config.Default()
	cfg.Simulation.Mode = "chain"
	cfg.Simulation.Seed = 5
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("config: %v", err)
	}
	g, err := NewGameWithOptions(cfg, Options{Headless: true, Workers: 1})
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func TestReloadRestartsOnModeChange(t *testing.T) {
	g := headlessGame(t)

	next := g.Config().Clone()
	next.Simulation.Mode = "free"
	if err := next.Refresh(); err != nil {
		t.Fatalf("config: %v", err)
	}
	g.RequestReload(next)
	g.UpdateHeadless()

	if g.Engine().Mode() != config.ModeFree {
		t.Errorf("expected free engine after reload, got %v", g.Engine().Mode())
	}
	if g.Config().Derived.Mode != config.ModeFree {
		t.Errorf("expected free config after reload, got %v", g.Config().Derived.Mode)
	}
}

func TestFailedRestartKeepsPreviousConfig(t *testing.T) {
	g := headlessGame(t)
	before := g.Engine()

	// Derived values are filled before validation rejects the grid.
	bad := g.Config().Clone()
	bad.Simulation.Mode = "cloth"
	bad.Cloth.Threads = 2048
	bad.Cloth.MassesPerThread = 64
	if err := bad.Refresh(); err == nil {
		t.Fatal("expected the oversized cloth to be rejected")
	}
	g.RequestReload(bad)
	g.UpdateHeadless()

	if g.Engine() != before {
		t.Error("engine should not be replaced by a failed restart")
	}
	if g.Config().Derived.Mode != config.ModeChain {
		t.Errorf("config should stay chain, got %v", g.Config().Derived.Mode)
	}
	if g.Config().Derived.Capacity != before.Capacity() {
		t.Errorf("config capacity %d no longer matches engine capacity %d",
			g.Config().Derived.Capacity, before.Capacity())
	}
	if g.Frames() != 1 {
		t.Errorf("expected the kept engine to keep stepping, got %d frames", g.Frames())
	}
}

func TestRuntimeReloadKeepsEngine(t *testing.T) {
	g := headlessGame(t)
	before := g.Engine()

	next := g.Config().Clone()
	next.Simulation.SimSpeed = 2
	if err := next.Refresh(); err != nil {
		t.Fatalf("config: %v", err)
	}
	g.RequestReload(next)
	g.UpdateHeadless()

	if g.Engine() != before {
		t.Error("runtime-only reload should not restart the engine")
	}
	if g.Engine().SimSpeed() != 2 {
		t.Errorf("expected sim speed 2, got %v", g.Engine().SimSpeed())
	}
	if g.Config().Simulation.SimSpeed != 2 {
		t.Errorf("expected config sim speed 2, got %v", g.Config().Simulation.SimSpeed)
	}
}
