package main

import (
	"github.com/pthm-cable/orbfield/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable cloud parameters.
// Defaults are taken from base.
func NewParamVector(base *config.Config) *ParamVector {
	c := &base.Cloud
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "threshold", Path: "cloud.threshold", Min: -0.4, Max: 0.4, Default: c.Threshold},
			{Name: "detail_scale", Path: "cloud.detail_scale", Min: 0.5, Max: 6.0, Default: c.DetailScale},
			{Name: "detail_weight", Path: "cloud.detail_weight", Min: 0.0, Max: 1.5, Default: c.DetailWeight},
			{Name: "bias_slope", Path: "cloud.bias_slope", Min: 0.0, Max: 1.0, Default: c.BiasSlope},
			{Name: "bias_min", Path: "cloud.bias_min", Min: -0.5, Max: 0.0, Default: c.BiasMin},
			{Name: "bias_max", Path: "cloud.bias_max", Min: 0.0, Max: 0.6, Default: c.BiasMax},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Cloud.Threshold = clamped[0]
	cfg.Cloud.DetailScale = clamped[1]
	cfg.Cloud.DetailWeight = clamped[2]
	cfg.Cloud.BiasSlope = clamped[3]
	cfg.Cloud.BiasMin = clamped[4]
	cfg.Cloud.BiasMax = clamped[5]
}

// ExtractFromConfig extracts current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Cloud.Threshold,
		cfg.Cloud.DetailScale,
		cfg.Cloud.DetailWeight,
		cfg.Cloud.BiasSlope,
		cfg.Cloud.BiasMin,
		cfg.Cloud.BiasMax,
	}
}
