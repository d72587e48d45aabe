package config

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// vec3Rule requires exactly three components.
var vec3Rule = validation.Length(3, 3)

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		&c.App, &c.Screen, &c.Camera, &c.Swarm, &c.Noise, &c.Cloud, &c.Notes, &c.Interaction, &c.Telemetry,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("app.http: %w", err)
	}
	return nil
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Validate validates the screen configuration.
func (c *ScreenConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1)),
		validation.Field(&c.Height, validation.Required, validation.Min(1)),
		validation.Field(&c.TargetFPS, validation.Min(0)),
	)
}

// Validate validates the camera configuration.
func (c *CameraConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.FovY, validation.Required, validation.Min(1.0), validation.Max(179.0)),
		validation.Field(&c.Near, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Far, validation.Required, validation.Min(c.Near).Exclusive()),
		validation.Field(&c.Eye, validation.Required, vec3Rule),
		validation.Field(&c.Target, vec3Rule),
		validation.Field(&c.MinDistance, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.MaxDistance, validation.Required, validation.Min(c.MinDistance)),
		validation.Field(&c.MinPolar, validation.Min(0.0)),
		validation.Field(&c.MaxPolar, validation.Required, validation.Min(c.MinPolar), validation.Max(3.1416)),
		validation.Field(&c.OrbitSpeed, validation.Min(0.0)),
		validation.Field(&c.ZoomStep, validation.Min(0.0), validation.Max(0.9)),
	); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	return nil
}

// Validate validates the swarm configuration.
func (c *SwarmConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Count, validation.Min(0)),
		validation.Field(&c.RMin, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.RMax, validation.Required, validation.Min(c.RMin)),
		validation.Field(&c.Speed, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.SteerRate, validation.Min(0.0)),
		validation.Field(&c.MaxDT, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Epsilon, validation.Min(0.0)),
		validation.Field(&c.BaseScale, validation.Required, validation.Min(0.0).Exclusive()),
	); err != nil {
		return fmt.Errorf("swarm: %w", err)
	}
	return nil
}

// Validate validates the noise configuration.
func (c *NoiseConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.In("", "value", "simplex")),
		validation.Field(&c.Octaves, validation.Required, validation.Min(1), validation.Max(16)),
		validation.Field(&c.Frequency, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Lacunarity, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Gain, validation.Min(0.0)),
		validation.Field(&c.Amplitude, validation.Min(0.0)),
	); err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	return nil
}

// Validate validates a lobe.
func (c LobeConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Center, validation.Required, vec3Rule),
		validation.Field(&c.Radius, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// Validate validates a shell.
func (c ShellConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Count, validation.Min(0)),
		validation.Field(&c.Jitter, validation.Min(0.0)),
		validation.Field(&c.PointSize, validation.Min(0.0)),
		validation.Field(&c.Opacity, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Validate validates the cloud configuration.
func (c *CloudConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Warp, validation.Required, vec3Rule),
		validation.Field(&c.DetailWeight, validation.Min(0.0)),
		validation.Field(&c.AttemptFactor, validation.Required, validation.Min(1)),
		validation.Field(&c.Origin, vec3Rule),
		validation.Field(&c.Size, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.BottomColor, validation.Required, vec3Rule),
		validation.Field(&c.TopColor, validation.Required, vec3Rule),
		validation.Field(&c.Lobes, validation.Required),
		validation.Field(&c.Shells, validation.Required),
	); err != nil {
		return fmt.Errorf("cloud: %w", err)
	}
	if c.BiasMin > c.BiasMax {
		return errors.New("cloud: bias_min must not exceed bias_max")
	}
	return nil
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In("memory", "sqlite", "remote")),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == "sqlite", validation.Required)),
		validation.Field(&c.RemoteURL, validation.When(c.Backend == "remote", validation.Required)),
		validation.Field(&c.Timeout, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("notes: %w", err)
	}
	return nil
}

// Validate validates the interaction configuration.
func (c *InteractionConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.PickFactor, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.HoverScale, validation.Required, validation.Min(1.0)),
		validation.Field(&c.ToastTTL, validation.Required),
		validation.Field(&c.IOTimeout, validation.Required),
	); err != nil {
		return fmt.Errorf("interaction: %w", err)
	}
	return nil
}

// Validate validates the telemetry configuration.
func (c *TelemetryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StatsWindow, validation.Min(0.0)),
		validation.Field(&c.PerfCollectorWindow, validation.Min(0)),
	)
}
