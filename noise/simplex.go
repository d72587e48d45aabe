package noise

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"
)

// Simplex is fractal OpenSimplex noise composed the same way as Field.
// It is an alternative detail source with fewer axis-aligned artefacts.
type Simplex struct {
	params Params
	os     opensimplex.Noise
}

// NewSimplex creates a seeded fractal OpenSimplex source. Values of the
// underlying noise are normalized to [0, 1] so it is a drop-in for Field.
func NewSimplex(p Params, seed int64) (*Simplex, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Simplex{
		params: p,
		os:     opensimplex.NewNormalized(seed),
	}, nil
}

// Eval3 returns fractal simplex noise at (x, y, z).
func (s *Simplex) Eval3(x, y, z float64) float64 {
	return fbm(s.os.Eval3, s.params, x, y, z)
}

// New returns the detail source named by kind ("value" or "simplex").
func New(kind string, p Params, seed int64) (Source, error) {
	switch kind {
	case "", "value":
		return NewField(p)
	case "simplex":
		return NewSimplex(p, seed)
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrBadParams, kind)
	}
}
