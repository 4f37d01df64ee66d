package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/particles/config"
	"github.com/pthm-cable/particles/sim"
)

// Settling thresholds for the two-mass chain.
const (
	lengthTolerance = 0.01 // fraction of rest length
	speedTolerance  = 0.01 // world units per second
)

// unstablePenalty is added to the capped settle time when a run blows up.
const unstablePenalty = 1000.0

// FitnessEvaluator runs headless two-mass chain scenarios and scores how
// quickly they settle.
type FitnessEvaluator struct {
	params     *ParamVector
	maxFrames  int
	stretches  []float64 // initial stretch of each scenario
	baseConfig *config.Config

	mu          sync.Mutex
	lastSettled float64 // fraction of scenarios that settled in the last Evaluate
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxFrames int, stretches []float64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxFrames:  maxFrames,
		stretches:  stretches,
		baseConfig: baseCfg,
	}
}

// LastSettled returns the fraction of scenarios that settled in the most
// recent evaluation.
func (fe *FitnessEvaluator) LastSettled() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSettled
}

// runResult holds the outcome of one scenario.
type runResult struct {
	settleSec float64 // simulated seconds until the chain stays settled
	settled   bool
	unstable  bool // the run produced non-finite or runaway state
}

// Evaluate computes fitness for a parameter vector (lower = better): the
// mean settle time over all scenarios, which run concurrently.
func (fe *FitnessEvaluator) Evaluate(x []float64) (float64, error) {
	results := make([]runResult, len(fe.stretches))

	g, ctx := errgroup.WithContext(context.Background())
	for i, stretch := range fe.stretches {
		g.Go(func() error {
			r, err := fe.runScenario(ctx, x, stretch)
			if err != nil {
				return fmt.Errorf("scenario stretch=%.2f: %w", stretch, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total float64
	settled := 0
	for _, r := range results {
		total += r.settleSec
		if r.unstable {
			total += unstablePenalty
		}
		if r.settled {
			settled++
		}
	}

	fe.mu.Lock()
	fe.lastSettled = float64(settled) / float64(len(results))
	fe.mu.Unlock()

	return total / float64(len(results)), nil
}

// scenarioConfig returns the two-mass chain configuration for x.
func (fe *FitnessEvaluator) scenarioConfig(x []float64, stretch float64) (*config.Config, error) {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Simulation.Mode = "chain"
	cfg.Simulation.WorkGroupSize = 2
	cfg.Simulation.Seed = 1
	cfg.Chain.Masses = 2
	cfg.Chain.SpringCapacity = max(cfg.Chain.SpringCapacity, 1)
	cfg.Chain.Stretch = stretch
	cfg.Gravity.Accel = 0
	cfg.Gravity.Drag = 0
	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runScenario steps one engine until maxFrames and reports when the free
// mass last left the settled band.
func (fe *FitnessEvaluator) runScenario(ctx context.Context, x []float64, stretch float64) (runResult, error) {
	cfg, err := fe.scenarioConfig(x, stretch)
	if err != nil {
		return runResult{}, err
	}

	e, err := sim.New(cfg, sim.Options{Workers: 1})
	if err != nil {
		return runResult{}, err
	}
	defer e.Close()

	rest := cfg.Chain.RestLength
	frameDT := e.FrameDT()
	lastUnsettled := -1
	for f := 0; f < fe.maxFrames; f++ {
		if f%256 == 0 && ctx.Err() != nil {
			return runResult{}, ctx.Err()
		}
		e.Frame()

		pos := e.Positions()
		length := float64(pos[1].Vec3().Sub(pos[0].Vec3()).Len())
		speed := float64(e.Velocities()[1].Vec3().Len())
		if math.IsNaN(length) || math.IsInf(length, 0) || length > 1000*rest {
			return runResult{settleSec: float64(fe.maxFrames) * frameDT, unstable: true}, nil
		}
		if math.Abs(length-rest) > lengthTolerance*rest || speed > speedTolerance {
			lastUnsettled = f
		}
	}

	settleFrames := lastUnsettled + 1
	return runResult{
		settleSec: float64(settleFrames) * frameDT,
		settled:   settleFrames < fe.maxFrames,
	}, nil
}
