// Package cloud sculpts a lumpy volumetric cloud out of point samples.
//
// A ShapeField of spherical lobes gives the base silhouette, a noise Source
// adds detail, and a Sampler rejection-samples the resulting density into
// layered shells (core, mid, fringe) of coloured points.
package cloud

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoLobes is returned when a shape field has no lobes.
	ErrNoLobes = errors.New("cloud: shape field needs at least one lobe")
	// ErrBadLobe is returned for a lobe with a non-positive or non-finite radius or centre.
	ErrBadLobe = errors.New("cloud: invalid lobe")
)

// Lobe is one spherical puff of the silhouette.
type Lobe struct {
	Center r3.Vec
	Radius float64
}

// ShapeField is a blobby union of lobes.
type ShapeField struct {
	lobes []Lobe
}

// DefaultLobes returns the two-puff silhouette: a unit lobe at the origin and
// a smaller one offset along the primary (x) axis.
func DefaultLobes() []Lobe {
	return []Lobe{
		{Center: r3.Vec{}, Radius: 1.0},
		{Center: r3.Vec{X: 0.75, Y: 0.05}, Radius: 0.65},
	}
}

// NewShapeField validates and copies lobes into a field.
func NewShapeField(lobes []Lobe) (*ShapeField, error) {
	if len(lobes) == 0 {
		return nil, ErrNoLobes
	}
	out := make([]Lobe, len(lobes))
	for i, l := range lobes {
		if !finiteVec(l.Center) {
			return nil, fmt.Errorf("%w: lobe %d centre %v", ErrBadLobe, i, l.Center)
		}
		if !(l.Radius > 0) || math.IsInf(l.Radius, 0) {
			return nil, fmt.Errorf("%w: lobe %d radius %v", ErrBadLobe, i, l.Radius)
		}
		out[i] = l
	}
	return &ShapeField{lobes: out}, nil
}

// Lobes returns a copy of the field's lobes.
func (s *ShapeField) Lobes() []Lobe {
	out := make([]Lobe, len(s.lobes))
	copy(out, s.lobes)
	return out
}

// Density returns the minimum normalized distance from p to any lobe centre.
// Values below 1 are inside at least one lobe. This is a cheap estimate, not
// an exact signed distance.
func (s *ShapeField) Density(p r3.Vec) float64 {
	d := math.Inf(1)
	for _, l := range s.lobes {
		if v := r3.Norm(r3.Sub(p, l.Center)) / l.Radius; v < d {
			d = v
		}
	}
	return d
}

func finiteVec(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
