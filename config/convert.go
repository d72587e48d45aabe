package config

import (
	"github.com/pthm-cable/orbfield/camera"
	"github.com/pthm-cable/orbfield/cloud"
	"github.com/pthm-cable/orbfield/interact"
	"github.com/pthm-cable/orbfield/noise"
	"github.com/pthm-cable/orbfield/notes"
	"github.com/pthm-cable/orbfield/swarm"
)

// Params returns the swarm parameters.
func (c *SwarmConfig) Params() swarm.Params {
	return swarm.Params{
		Count:     c.Count,
		RMin:      c.RMin,
		RMax:      c.RMax,
		Speed:     c.Speed,
		SteerRate: c.SteerRate,
		MaxDT:     c.MaxDT,
		Epsilon:   c.Epsilon,
		BaseScale: c.BaseScale,
	}
}

// Params returns the noise octave parameters.
func (c *NoiseConfig) Params() noise.Params {
	return noise.Params{
		Octaves:    c.Octaves,
		Frequency:  c.Frequency,
		Lacunarity: c.Lacunarity,
		Gain:       c.Gain,
		Amplitude:  c.Amplitude,
	}
}

// NewSource builds the configured noise source, seeded for simplex.
func (c *NoiseConfig) NewSource(seed int64) (noise.Source, error) {
	return noise.New(c.Source, c.Params(), seed)
}

// Params returns the sampler parameters.
func (c *CloudConfig) Params() cloud.Params {
	return cloud.Params{
		Warp:          c.Warp.R3(),
		DetailScale:   c.DetailScale,
		DetailWeight:  c.DetailWeight,
		Threshold:     c.Threshold,
		BiasSlope:     c.BiasSlope,
		BiasMin:       c.BiasMin,
		BiasMax:       c.BiasMax,
		AttemptFactor: c.AttemptFactor,
		Origin:        c.Origin.R3(),
		Size:          c.Size,
		BottomColor:   rgb(c.BottomColor),
		TopColor:      rgb(c.TopColor),
		Seed:          c.Seed,
	}
}

// LobeList returns the configured lobes.
func (c *CloudConfig) LobeList() []cloud.Lobe {
	out := make([]cloud.Lobe, len(c.Lobes))
	for i, l := range c.Lobes {
		out[i] = cloud.Lobe{Center: l.Center.R3(), Radius: l.Radius}
	}
	return out
}

// ShellList returns the configured shells.
func (c *CloudConfig) ShellList() []cloud.ShellSpec {
	out := make([]cloud.ShellSpec, len(c.Shells))
	for i, s := range c.Shells {
		out[i] = cloud.ShellSpec{
			Name:      s.Name,
			Count:     s.Count,
			Jitter:    s.Jitter,
			PointSize: s.PointSize,
			Opacity:   s.Opacity,
		}
	}
	return out
}

// NewSampler builds a cloud sampler from the cloud and noise sections.
func (c *Config) NewSampler() (*cloud.Sampler, error) {
	shape, err := cloud.NewShapeField(c.Cloud.LobeList())
	if err != nil {
		return nil, err
	}
	src, err := c.Noise.NewSource(c.Cloud.Seed)
	if err != nil {
		return nil, err
	}
	return cloud.NewSampler(shape, src, c.Cloud.ShellList(), c.Cloud.Params())
}

// Options returns the note store options.
func (c *NotesConfig) Options() notes.Options {
	return notes.Options{
		Backend:       c.Backend,
		SQLitePath:    c.SQLitePath,
		RemoteURL:     c.RemoteURL,
		RemoteToken:   c.RemoteToken,
		AllowInsecure: c.AllowInsecure,
		Timeout:       c.Timeout,
	}
}

// Options returns the interaction session options.
func (c *InteractionConfig) Options() interact.Options {
	opts := interact.DefaultOptions()
	opts.PickFactor = c.PickFactor
	opts.HoverScale = c.HoverScale
	opts.ToastTTL = c.ToastTTL
	opts.IOTimeout = c.IOTimeout
	return opts
}

// NewCamera builds the orbit camera for the configured screen.
func (c *Config) NewCamera() *camera.Camera {
	cc := &c.Camera
	cam := camera.New(float64(c.Screen.Width), float64(c.Screen.Height),
		cc.Eye.R3(), cc.Target.R3(), cc.FovY, cc.Near, cc.Far)
	cam.Limits = camera.Limits{
		MinDistance: cc.MinDistance,
		MaxDistance: cc.MaxDistance,
		MinPolar:    cc.MinPolar,
		MaxPolar:    cc.MaxPolar,
	}
	cam.SetEye(cc.Eye.R3())
	cam.MarkHome()
	return cam
}

func rgb(v Vec3) cloud.RGB {
	p := v.R3()
	return cloud.RGB{R: p.X, G: p.Y, B: p.Z}
}
