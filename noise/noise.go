// Package noise provides deterministic 3D value noise and fractal (fbm)
// composition used to add detail to procedural volumes.
package noise

import "math"

// Lattice hash constants. Chosen for low visible periodicity over the
// coordinate ranges the cloud sampler uses.
const (
	hashKX    = 127.1
	hashKY    = 311.7
	hashKZ    = 74.7
	hashScale = 43758.5453
)

// Source is anything that can be sampled as a scalar field over 3D space.
type Source interface {
	Eval3(x, y, z float64) float64
}

// Hash maps integer lattice coordinates to a pseudo-random value in [0, 1).
// It is pure: the same input always yields the same output.
func Hash(xi, yi, zi int) float64 {
	return fract(math.Sin(float64(xi)*hashKX+float64(yi)*hashKY+float64(zi)*hashKZ) * hashScale)
}

// Value returns value noise at (x, y, z): the corner hashes of the enclosing
// lattice cell blended trilinearly with smoothstep weights.
// Non-finite input yields NaN.
func Value(x, y, z float64) float64 {
	if !finite(x) || !finite(y) || !finite(z) {
		return math.NaN()
	}

	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	xi, yi, zi := int(fx), int(fy), int(fz)

	u := smooth(x - fx)
	v := smooth(y - fy)
	w := smooth(z - fz)

	c000 := Hash(xi, yi, zi)
	c100 := Hash(xi+1, yi, zi)
	c010 := Hash(xi, yi+1, zi)
	c110 := Hash(xi+1, yi+1, zi)
	c001 := Hash(xi, yi, zi+1)
	c101 := Hash(xi+1, yi, zi+1)
	c011 := Hash(xi, yi+1, zi+1)
	c111 := Hash(xi+1, yi+1, zi+1)

	return lerp(w,
		lerp(v, lerp(u, c000, c100), lerp(u, c010, c110)),
		lerp(v, lerp(u, c001, c101), lerp(u, c011, c111)),
	)
}

// fract returns the fractional part of x in [0, 1).
func fract(x float64) float64 {
	f := x - math.Floor(x)
	if f >= 1 {
		// x - Floor(x) rounds up to 1 for tiny negative x.
		return 0
	}
	return f
}

// smooth is the C1 smoothstep curve t²(3−2t).
func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
