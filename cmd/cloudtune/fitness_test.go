package main

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/orbfield/cloud"
	"github.com/pthm-cable/orbfield/config"
)

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return cfg
}

func TestParamVectorRoundTrip(t *testing.T) {
	cfg := baseConfig(t)
	pv := NewParamVector(cfg)

	got := pv.Denormalize(pv.Normalize(pv.DefaultVector()))
	for i, v := range pv.DefaultVector() {
		if math.Abs(got[i]-v) > 1e-12 {
			t.Errorf("%s: %v after round trip, want %v", pv.Specs[i].Name, got[i], v)
		}
	}

	if want := pv.ExtractFromConfig(cfg); len(want) != pv.Dim() {
		t.Fatalf("extract returned %d values, want %d", len(want), pv.Dim())
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	cfg := baseConfig(t)
	pv := NewParamVector(cfg)

	wild := make([]float64, pv.Dim())
	for i := range wild {
		wild[i] = 100
	}
	pv.ApplyToConfig(cfg, wild)

	got := pv.ExtractFromConfig(cfg)
	for i, spec := range pv.Specs {
		if got[i] != spec.Max {
			t.Errorf("%s = %v, want clamped to %v", spec.Name, got[i], spec.Max)
		}
	}
}

func TestComputeFitnessOrdering(t *testing.T) {
	tests := []struct {
		name   string
		better cloudResult
		worse  cloudResult
	}{
		{"fill", cloudResult{acceptance: targetAcceptance}, cloudResult{fill: 0.25, acceptance: targetAcceptance}},
		{"acceptance", cloudResult{acceptance: targetAcceptance}, cloudResult{acceptance: 0.05}},
		{"bottom", cloudResult{acceptance: targetAcceptance, bottom: 0.01}, cloudResult{acceptance: targetAcceptance, bottom: 0.3}},
	}
	for _, tt := range tests {
		if computeFitness(tt.better) >= computeFitness(tt.worse) {
			t.Errorf("%s: %v not better than %v", tt.name, tt.better, tt.worse)
		}
	}
}

func TestMeasureBottom(t *testing.T) {
	cc := &config.CloudConfig{Warp: config.Vec3{1, 1, 1}, Size: 2, Origin: config.Vec3{0, 10, 0}}
	c := &cloud.Cloud{Shells: []cloud.Shell{{
		Spec:     cloud.ShellSpec{Count: 4},
		Attempts: 8,
		Points: []cloud.Point{
			{Position: r3.Vec{Y: 10}},  // centre
			{Position: r3.Vec{Y: 11}},  // above
			{Position: r3.Vec{Y: 8.6}}, // -0.7 in shape space
			{Position: r3.Vec{Y: 9.0}}, // -0.5
		},
	}}}

	r := measure(c, cc)
	if r.fill != 0 {
		t.Errorf("fill = %v, want 0", r.fill)
	}
	if r.acceptance != 0.5 {
		t.Errorf("acceptance = %v, want 0.5", r.acceptance)
	}
	if r.bottom != 0.25 {
		t.Errorf("bottom = %v, want 0.25", r.bottom)
	}
}

func TestEvaluateDefaults(t *testing.T) {
	cfg := baseConfig(t)
	pv := NewParamVector(cfg)
	fe := NewFitnessEvaluator(pv, []int64{1, 2}, cfg, 0.02)

	f := fe.Evaluate(pv.DefaultVector())
	if math.IsInf(f, 0) || math.IsNaN(f) {
		t.Fatalf("fitness = %v", f)
	}
	if r := fe.LastRate(); r <= 0 || r > 1 {
		t.Errorf("acceptance = %v, want in (0, 1]", r)
	}
	// Evaluation must not leak into the base config.
	if cfg.Cloud.Shells[0].Count < 100 {
		t.Errorf("base shell count changed to %d", cfg.Cloud.Shells[0].Count)
	}
}
