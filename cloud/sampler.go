package cloud

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"github.com/mazznoer/colorgrad"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/orbfield/noise"
)

var (
	// ErrBadShell is returned for a shell spec that cannot be sampled.
	ErrBadShell = errors.New("cloud: invalid shell")
	// ErrBadParams is returned for sampler parameters that cannot be used.
	ErrBadParams = errors.New("cloud: invalid sampler parameters")
)

// checkEvery is how many candidates are drawn between context checks.
const checkEvery = 1024

// RGB is a linear colour with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// RGBA returns the colour as 8-bit RGBA with the given opacity.
func (c RGB) RGBA(opacity float64) color.RGBA {
	return color.RGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(opacity),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// ShellSpec describes one point layer of the cloud.
type ShellSpec struct {
	Name      string
	Count     int     // target number of points
	Jitter    float64 // outward perturbation scale for ragged edges
	PointSize float64 // render size hint
	Opacity   float64 // render opacity hint in [0, 1]
}

// DefaultShells returns the core, mid and fringe layers.
func DefaultShells() []ShellSpec {
	return []ShellSpec{
		{Name: "core", Count: 6000, Jitter: 0.05, PointSize: 0.06, Opacity: 0.85},
		{Name: "mid", Count: 4000, Jitter: 0.12, PointSize: 0.08, Opacity: 0.45},
		{Name: "fringe", Count: 2500, Jitter: 0.25, PointSize: 0.11, Opacity: 0.2},
	}
}

// Point is one accepted cloud sample.
type Point struct {
	Position r3.Vec
	Color    RGB
}

// Shell is a sampled layer. Len(Points) may be below Spec.Count when the
// attempt budget ran out.
type Shell struct {
	Spec     ShellSpec
	Points   []Point
	Attempts int
}

// Filled reports the fraction of the requested points that were accepted.
func (s Shell) Filled() float64 {
	if s.Spec.Count == 0 {
		return 1
	}
	return float64(len(s.Points)) / float64(s.Spec.Count)
}

// Cloud is an immutable set of sampled shells.
type Cloud struct {
	Shells []Shell
}

// Len returns the total number of points across shells.
func (c *Cloud) Len() int {
	n := 0
	for _, s := range c.Shells {
		n += len(s.Points)
	}
	return n
}

// Params controls the density field and output transform.
type Params struct {
	Warp          r3.Vec  // anisotropic scale applied to unit-ball samples
	DetailScale   float64 // frequency multiplier for the noise term
	DetailWeight  float64 // weight of the noise term in the density
	Threshold     float64 // acceptance threshold on density+bias
	BiasSlope     float64 // bias gained per unit of descent in y
	BiasMin       float64
	BiasMax       float64
	AttemptFactor int // candidate budget as a multiple of the shell count
	Origin        r3.Vec
	Size          float64 // world units per shape unit
	BottomColor   RGB
	TopColor      RGB
	Seed          int64
}

// DefaultParams returns a wide, flat-bottomed cumulus.
func DefaultParams() Params {
	return Params{
		Warp:          r3.Vec{X: 1.6, Y: 0.85, Z: 1.1},
		DetailScale:   2.2,
		DetailWeight:  0.55,
		Threshold:     0.02,
		BiasSlope:     0.35,
		BiasMin:       -0.1,
		BiasMax:       0.2,
		AttemptFactor: 8,
		Size:          1.0,
		BottomColor:   RGB{R: 0.62, G: 0.66, B: 0.75},
		TopColor:      RGB{R: 1.0, G: 1.0, B: 1.0},
		Seed:          1,
	}
}

func (p Params) validate() error {
	if !finiteVec(p.Warp) || p.Warp.X <= 0 || p.Warp.Y <= 0 || p.Warp.Z <= 0 {
		return fmt.Errorf("%w: warp %v", ErrBadParams, p.Warp)
	}
	if !finiteVec(p.Origin) {
		return fmt.Errorf("%w: origin %v", ErrBadParams, p.Origin)
	}
	for name, v := range map[string]float64{
		"detail_scale":  p.DetailScale,
		"detail_weight": p.DetailWeight,
		"threshold":     p.Threshold,
		"bias_slope":    p.BiasSlope,
		"bias_min":      p.BiasMin,
		"bias_max":      p.BiasMax,
		"size":          p.Size,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrBadParams, name)
		}
	}
	if p.BiasMin > p.BiasMax {
		return fmt.Errorf("%w: bias_min %v > bias_max %v", ErrBadParams, p.BiasMin, p.BiasMax)
	}
	if p.Size <= 0 {
		return fmt.Errorf("%w: size must be > 0", ErrBadParams)
	}
	if p.AttemptFactor < 1 {
		return fmt.Errorf("%w: attempt_factor must be >= 1", ErrBadParams)
	}
	return nil
}

func (s ShellSpec) validate() error {
	if s.Count < 0 {
		return fmt.Errorf("%w: %q count %d", ErrBadShell, s.Name, s.Count)
	}
	for name, v := range map[string]float64{
		"jitter":     s.Jitter,
		"point_size": s.PointSize,
		"opacity":    s.Opacity,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %q %s %v", ErrBadShell, s.Name, name, v)
		}
	}
	if s.Opacity > 1 {
		return fmt.Errorf("%w: %q opacity %v > 1", ErrBadShell, s.Name, s.Opacity)
	}
	return nil
}

// Sampler turns a shape field and a detail source into a Cloud.
type Sampler struct {
	shape  *ShapeField
	detail noise.Source
	shells []ShellSpec
	params Params
	grad   colorgrad.Gradient
}

// NewSampler validates its inputs and prepares the colour gradient.
func NewSampler(shape *ShapeField, detail noise.Source, shells []ShellSpec, p Params) (*Sampler, error) {
	if shape == nil || detail == nil {
		return nil, fmt.Errorf("%w: shape and detail source are required", ErrBadParams)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	for _, s := range shells {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	grad, err := colorgrad.NewGradient().
		Colors(p.BottomColor.RGBA(1), p.TopColor.RGBA(1)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("cloud: building colour gradient: %w", err)
	}
	return &Sampler{
		shape:  shape,
		detail: detail,
		shells: append([]ShellSpec(nil), shells...),
		params: p,
		grad:   grad,
	}, nil
}

// Build samples every shell. Shells are sampled concurrently, each from its
// own RNG seeded by Seed+index, so the result does not depend on scheduling.
func (s *Sampler) Build(ctx context.Context) (*Cloud, error) {
	out := &Cloud{Shells: make([]Shell, len(s.shells))}

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range s.shells {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(s.params.Seed + int64(i)))
			shell, err := s.sampleShell(gctx, spec, rng)
			if err != nil {
				return err
			}
			out.Shells[i] = shell
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// sampleShell rejection-samples one shell within AttemptFactor*Count candidates.
func (s *Sampler) sampleShell(ctx context.Context, spec ShellSpec, rng *rand.Rand) (Shell, error) {
	shell := Shell{Spec: spec, Points: make([]Point, 0, spec.Count)}
	budget := spec.Count * s.params.AttemptFactor

	for shell.Attempts < budget && len(shell.Points) < spec.Count {
		if shell.Attempts%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Shell{}, err
			}
		}
		shell.Attempts++

		p, n3, ok := s.candidate(rng)
		if !ok {
			continue
		}
		shell.Points = append(shell.Points, s.accept(p, n3, spec.Jitter))
	}
	return shell, nil
}

// candidate draws one warped point and reports whether the density accepts it.
func (s *Sampler) candidate(rng *rand.Rand) (p r3.Vec, n3 float64, ok bool) {
	prm := &s.params
	b := unitBall(rng)
	p = r3.Vec{X: b.X * prm.Warp.X, Y: b.Y * prm.Warp.Y, Z: b.Z * prm.Warp.Z}

	score, n3 := s.score(p)
	return p, n3, score >= prm.Threshold
}

// Score returns density plus height bias at p in shape space (before Size
// and Origin are applied). A point is accepted when Score reaches the
// threshold.
func (s *Sampler) Score(p r3.Vec) float64 {
	v, _ := s.score(p)
	return v
}

// Threshold returns the acceptance threshold for Score.
func (s *Sampler) Threshold() float64 {
	return s.params.Threshold
}

func (s *Sampler) score(p r3.Vec) (score, n3 float64) {
	prm := &s.params
	sdf := s.shape.Density(p)
	q := r3.Scale(prm.DetailScale, p)
	n3 = s.detail.Eval3(q.X, q.Y, q.Z)

	density := (1.2 - sdf) + (n3-0.5)*prm.DetailWeight
	bias := clamp(-p.Y*prm.BiasSlope, prm.BiasMin, prm.BiasMax)
	return density + bias, n3
}

// accept perturbs p outward for a ragged edge, colours it by height and
// moves it into world space.
func (s *Sampler) accept(p r3.Vec, n3, jitter float64) Point {
	prm := &s.params
	t := clamp((p.Y+prm.Warp.Y)/(2*prm.Warp.Y), 0, 1)
	c := s.grad.At(t)

	if l := r3.Norm(p); l > 0 {
		p = r3.Add(p, r3.Scale((n3-0.5)*jitter/l, p))
	}
	return Point{
		Position: r3.Add(prm.Origin, r3.Scale(prm.Size, p)),
		Color:    RGB{R: c.R, G: c.G, B: c.B},
	}
}

// unitBall returns a uniformly distributed point inside the unit ball.
func unitBall(rng *rand.Rand) r3.Vec {
	for {
		v := r3.Vec{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*2 - 1,
			Z: rng.Float64()*2 - 1,
		}
		if r3.Norm2(v) <= 1 {
			return v
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
