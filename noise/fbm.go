package noise

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadParams is returned when fractal parameters cannot produce a usable field.
var ErrBadParams = errors.New("noise: invalid parameters")

// Params configures fractal composition.
type Params struct {
	Octaves    int     // number of summed octaves
	Frequency  float64 // base frequency multiplier
	Lacunarity float64 // frequency multiplier per octave
	Gain       float64 // amplitude multiplier per octave
	Amplitude  float64 // amplitude of the first octave
}

// DefaultParams returns 4 octaves, frequency doubling and amplitude halving.
func DefaultParams() Params {
	return Params{
		Octaves:    4,
		Frequency:  1.0,
		Lacunarity: 2.0,
		Gain:       0.5,
		Amplitude:  0.5,
	}
}

// Validate checks the parameters are finite and meaningful.
func (p Params) Validate() error {
	if p.Octaves < 1 {
		return fmt.Errorf("%w: octaves must be >= 1, got %d", ErrBadParams, p.Octaves)
	}
	for name, v := range map[string]float64{
		"frequency":  p.Frequency,
		"lacunarity": p.Lacunarity,
		"gain":       p.Gain,
		"amplitude":  p.Amplitude,
	} {
		if !finite(v) || v <= 0 {
			return fmt.Errorf("%w: %s must be finite and > 0, got %v", ErrBadParams, name, v)
		}
	}
	return nil
}

// Field is fractal value noise. It holds only parameters and is safe to
// share between goroutines.
type Field struct {
	params Params
}

// NewField creates a fractal value-noise field.
func NewField(p Params) (*Field, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Field{params: p}, nil
}

// Params returns the field parameters.
func (f *Field) Params() Params {
	return f.params
}

// Eval3 returns fbm at (x, y, z). The result lies roughly in [0, 1] for the
// default parameters and is not renormalized.
func (f *Field) Eval3(x, y, z float64) float64 {
	return fbm(Value, f.params, x, y, z)
}

// fbm sums octaves of base at geometrically growing frequency and shrinking
// amplitude. NaN from base propagates through the sum.
func fbm(base func(x, y, z float64) float64, p Params, x, y, z float64) float64 {
	if !finite(x) || !finite(y) || !finite(z) {
		return math.NaN()
	}
	var sum float64
	freq := p.Frequency
	amp := p.Amplitude
	for o := 0; o < p.Octaves; o++ {
		sum += amp * base(x*freq, y*freq, z*freq)
		freq *= p.Lacunarity
		amp *= p.Gain
	}
	return sum
}
