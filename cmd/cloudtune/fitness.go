package main

import (
	"context"
	"math"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/orbfield/cloud"
	"github.com/pthm-cable/orbfield/config"
)

// Targets the tuner pulls toward.
const (
	targetAcceptance = 0.35 // accepted / attempted candidates in the core shell
	bottomCut        = 0.6  // fraction of Warp.Y below centre counted as "under the base"

	weightFill       = 4.0
	weightAcceptance = 2.0
	weightBottom     = 1.0
)

// FitnessEvaluator builds scaled-down clouds and scores their shape.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	scale      float64 // shell count multiplier

	mu       sync.Mutex
	lastRate float64 // acceptance from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. scale shrinks every shell's
// point count so one evaluation stays cheap.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config, scale float64) *FitnessEvaluator {
	if scale <= 0 {
		scale = 1
	}
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		scale:      scale,
	}
}

// LastRate returns the mean core acceptance rate from the most recent evaluation.
func (fe *FitnessEvaluator) LastRate() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRate
}

// cloudResult holds the measurements from one build.
type cloudResult struct {
	fill       float64 // mean squared shortfall across shells
	acceptance float64
	bottom     float64 // fraction of core points below the base
}

// Evaluate computes fitness for a parameter vector (lower = better).
// A config the sampler rejects scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]cloudResult, len(fe.seeds))

	g, ctx := errgroup.WithContext(context.Background())
	for i, seed := range fe.seeds {
		g.Go(func() error {
			r, err := fe.build(ctx, x, seed)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1)
	}

	var total, rate float64
	for _, r := range results {
		total += computeFitness(r)
		rate += r.acceptance
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastRate = rate / n
	fe.mu.Unlock()

	return total / n
}

// build samples one cloud with the candidate parameters and cloud seed.
func (fe *FitnessEvaluator) build(ctx context.Context, x []float64, seed int64) (cloudResult, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Cloud.Seed = seed
	for i := range cfg.Cloud.Shells {
		cfg.Cloud.Shells[i].Count = max(1, int(float64(cfg.Cloud.Shells[i].Count)*fe.scale))
	}

	s, err := cfg.NewSampler()
	if err != nil {
		return cloudResult{}, err
	}
	c, err := s.Build(ctx)
	if err != nil {
		return cloudResult{}, err
	}
	return measure(c, &cfg.Cloud), nil
}

// copyConfig returns a copy of the base config whose cloud slices can be
// modified freely.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Cloud.Shells = slices.Clone(fe.baseConfig.Cloud.Shells)
	cfg.Cloud.Lobes = slices.Clone(fe.baseConfig.Cloud.Lobes)
	return &cfg
}

// measure scores a built cloud. The first shell is the core.
func measure(c *cloud.Cloud, cc *config.CloudConfig) cloudResult {
	var r cloudResult
	if len(c.Shells) == 0 {
		return r
	}
	for _, sh := range c.Shells {
		short := 1 - sh.Filled()
		r.fill += short * short
	}
	r.fill /= float64(len(c.Shells))

	core := c.Shells[0]
	if core.Attempts > 0 {
		r.acceptance = float64(len(core.Points)) / float64(core.Attempts)
	}
	if len(core.Points) == 0 || len(cc.Warp) < 2 {
		return r
	}

	size := cc.Size
	if size == 0 {
		size = 1
	}
	var originY float64
	if len(cc.Origin) >= 2 {
		originY = cc.Origin[1]
	}
	cut := -bottomCut * cc.Warp[1]
	under := 0
	for _, p := range core.Points {
		if (p.Position.Y-originY)/size < cut {
			under++
		}
	}
	r.bottom = float64(under) / float64(len(core.Points))
	return r
}

// computeFitness combines the measurements (lower = better).
// Unfilled shells dominate, then distance from the target acceptance, then
// how much of the core hangs below the flat base.
func computeFitness(r cloudResult) float64 {
	d := (r.acceptance - targetAcceptance) / targetAcceptance
	return weightFill*r.fill + weightAcceptance*d*d + weightBottom*r.bottom
}
