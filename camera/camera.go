// Package camera provides a 3D orbit camera for viewing the orb field.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// Ray is a half-line in world space. Direction is unit length.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// Limits bounds the orbit.
type Limits struct {
	MinDistance, MaxDistance float64
	MinPolar, MaxPolar       float64 // radians from +Y
}

// DefaultLimits keeps the camera between 2 and 12 units from the target and
// away from the poles.
func DefaultLimits() Limits {
	return Limits{
		MinDistance: 2,
		MaxDistance: 12,
		MinPolar:    0.05,
		MaxPolar:    math.Pi - 0.05,
	}
}

// Camera orbits a target point. The position is derived from distance,
// azimuth (around +Y, 0 looks down -Z) and polar angle (from +Y).
type Camera struct {
	Target r3.Vec

	Distance float64
	Azimuth  float64
	Polar    float64

	// Vertical field of view in degrees.
	FovY      float64
	Near, Far float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	Limits Limits

	home struct{ distance, azimuth, polar float64 }
}

// New creates a camera at eye looking at target. The eye is clamped into
// the default limits.
func New(viewportW, viewportH float64, eye, target r3.Vec, fovY, near, far float64) *Camera {
	c := &Camera{
		Target:    target,
		FovY:      fovY,
		Near:      near,
		Far:       far,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Limits:    DefaultLimits(),
	}
	c.SetEye(eye)
	c.MarkHome()
	return c
}

// MarkHome records the current orbit as the Reset position.
func (c *Camera) MarkHome() {
	c.home.distance, c.home.azimuth, c.home.polar = c.Distance, c.Azimuth, c.Polar
}

// SetEye places the camera at eye, keeping the current target.
func (c *Camera) SetEye(eye r3.Vec) {
	d := r3.Sub(eye, c.Target)
	dist := r3.Norm(d)
	if dist == 0 {
		d, dist = r3.Vec{Z: 1}, 1
	}
	c.Distance = dist
	c.Azimuth = math.Atan2(d.X, d.Z)
	c.Polar = math.Acos(clamp(d.Y/dist, -1, 1))
	c.applyLimits()
}

// Position returns the eye position in world space.
func (c *Camera) Position() r3.Vec {
	sp, cp := math.Sincos(c.Polar)
	sa, ca := math.Sincos(c.Azimuth)
	return r3.Add(c.Target, r3.Scale(c.Distance, r3.Vec{X: sp * sa, Y: cp, Z: sp * ca}))
}

// Aspect returns the viewport aspect ratio, or 1 for an empty viewport.
func (c *Camera) Aspect() float64 {
	if c.ViewportW <= 0 || c.ViewportH <= 0 {
		return 1
	}
	return c.ViewportW / c.ViewportH
}

// View returns the world-to-eye matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(toMgl(c.Position()), toMgl(c.Target), mgl64.Vec3{0, 1, 0})
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect(), c.Near, c.Far)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Orbit rotates the camera around the target by the given angles in radians.
func (c *Camera) Orbit(dAzimuth, dPolar float64) {
	c.Azimuth = math.Mod(c.Azimuth+dAzimuth, 2*math.Pi)
	c.Polar += dPolar
	c.applyLimits()
}

// ZoomBy multiplies the distance to the target by factor.
func (c *Camera) ZoomBy(factor float64) {
	if !(factor > 0) {
		return
	}
	c.Distance *= factor
	c.applyLimits()
}

// Reset returns the camera to where it was created.
func (c *Camera) Reset() {
	c.Distance, c.Azimuth, c.Polar = c.home.distance, c.home.azimuth, c.home.polar
}

// PixelToNDC maps a screen pixel (origin top-left, y down) to normalized
// device coordinates in [-1, 1] with y up.
func (c *Camera) PixelToNDC(px, py float64) (x, y float64) {
	if c.ViewportW <= 0 || c.ViewportH <= 0 {
		return 0, 0
	}
	return 2*px/c.ViewportW - 1, 1 - 2*py/c.ViewportH
}

// Ray returns the world-space ray through the given NDC point, starting on
// the near plane.
func (c *Camera) Ray(ndcX, ndcY float64) (Ray, bool) {
	view, proj := c.View(), c.Projection()
	// Unproject against a unit viewport so window coords are NDC remapped
	// to [0, 1].
	wx, wy := (ndcX+1)/2, (ndcY+1)/2
	near, err := mgl64.UnProject(mgl64.Vec3{wx, wy, 0}, view, proj, 0, 0, 1, 1)
	if err != nil {
		return Ray{}, false
	}
	far, err := mgl64.UnProject(mgl64.Vec3{wx, wy, 1}, view, proj, 0, 0, 1, 1)
	if err != nil {
		return Ray{}, false
	}
	dir := far.Sub(near)
	if dir.Len() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: fromMgl(near), Direction: fromMgl(dir.Normalize())}, true
}

// ScreenRay is Ray for a screen pixel.
func (c *Camera) ScreenRay(px, py float64) (Ray, bool) {
	return c.Ray(c.PixelToNDC(px, py))
}

// WorldToScreen projects p to screen pixels. ok is false when p is behind
// the camera.
func (c *Camera) WorldToScreen(p r3.Vec) (sx, sy float64, ok bool) {
	eye := c.View().Mul4x1(toMgl(p).Vec4(1))
	if eye.Z() >= 0 {
		return 0, 0, false
	}
	clip := c.Projection().Mul4x1(eye)
	x, y := clip.X()/clip.W(), clip.Y()/clip.W()
	return (x + 1) / 2 * c.ViewportW, (1 - y) / 2 * c.ViewportH, true
}

// IsVisible reports whether a sphere at p with the given radius could be on
// screen (conservative check for culling).
func (c *Camera) IsVisible(p r3.Vec, radius float64) bool {
	eye := c.View().Mul4x1(toMgl(p).Vec4(1))
	depth := -eye.Z()
	if depth+radius < c.Near || depth-radius > c.Far {
		return false
	}
	halfH := math.Tan(mgl64.DegToRad(c.FovY)/2) * math.Max(depth, c.Near)
	halfW := halfH * c.Aspect()
	return math.Abs(eye.X()) <= halfW+radius && math.Abs(eye.Y()) <= halfH+radius
}

func (c *Camera) applyLimits() {
	l := c.Limits
	c.Distance = clamp(c.Distance, l.MinDistance, l.MaxDistance)
	c.Polar = clamp(c.Polar, l.MinPolar, l.MaxPolar)
}

func toMgl(v r3.Vec) mgl64.Vec3   { return mgl64.Vec3{v.X, v.Y, v.Z} }
func fromMgl(v mgl64.Vec3) r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
