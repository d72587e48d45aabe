// Package config provides configuration loading and access for the orb field.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Screen      ScreenConfig      `yaml:"screen"`
	Camera      CameraConfig      `yaml:"camera"`
	Swarm       SwarmConfig       `yaml:"swarm"`
	Noise       NoiseConfig       `yaml:"noise"`
	Cloud       CloudConfig       `yaml:"cloud"`
	Notes       NotesConfig       `yaml:"notes"`
	Interaction InteractionConfig `yaml:"interaction"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	LogLevel    slog.Level `yaml:"log_level"`
	HTTP        HTTPConfig `yaml:"http"`
	AllowOrigin string     `yaml:"allow_origin"`
	AuthToken   string     `yaml:"auth_token"` // empty disables auth
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// Vec3 is a YAML-friendly 3-vector.
type Vec3 []float64

// R3 converts v to an r3.Vec. Missing components are zero.
func (v Vec3) R3() r3.Vec {
	var out [3]float64
	copy(out[:], v)
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}
}

// CameraConfig holds the orbit camera setup.
type CameraConfig struct {
	FovY        float64 `yaml:"fov_y"` // degrees
	Near        float64 `yaml:"near"`
	Far         float64 `yaml:"far"`
	Eye         Vec3    `yaml:"eye"`
	Target      Vec3    `yaml:"target"`
	MinDistance float64 `yaml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance"`
	MinPolar    float64 `yaml:"min_polar"`
	MaxPolar    float64 `yaml:"max_polar"`
	OrbitSpeed  float64 `yaml:"orbit_speed"` // radians per dragged pixel
	ZoomStep    float64 `yaml:"zoom_step"`   // fractional distance change per wheel notch
}

// SwarmConfig holds orb swarm parameters.
type SwarmConfig struct {
	Count     int     `yaml:"count"`
	RMin      float64 `yaml:"r_min"`
	RMax      float64 `yaml:"r_max"`
	Speed     float64 `yaml:"speed"`
	SteerRate float64 `yaml:"steer_rate"`
	MaxDT     float64 `yaml:"max_dt"`
	Epsilon   float64 `yaml:"epsilon"`
	BaseScale float64 `yaml:"base_scale"`
}

// NoiseConfig holds the cloud detail noise parameters.
type NoiseConfig struct {
	Source     string  `yaml:"source"` // value | simplex
	Octaves    int     `yaml:"octaves"`
	Frequency  float64 `yaml:"frequency"`
	Lacunarity float64 `yaml:"lacunarity"`
	Gain       float64 `yaml:"gain"`
	Amplitude  float64 `yaml:"amplitude"`
}

// LobeConfig is one sphere of the cloud silhouette.
type LobeConfig struct {
	Center Vec3    `yaml:"center"`
	Radius float64 `yaml:"radius"`
}

// ShellConfig is one point layer of the cloud.
type ShellConfig struct {
	Name      string  `yaml:"name"`
	Count     int     `yaml:"count"`
	Jitter    float64 `yaml:"jitter"`
	PointSize float64 `yaml:"point_size"`
	Opacity   float64 `yaml:"opacity"`
}

// CloudConfig holds cloud shape and sampling parameters.
type CloudConfig struct {
	Seed          int64         `yaml:"seed"`
	Warp          Vec3          `yaml:"warp"`
	DetailScale   float64       `yaml:"detail_scale"`
	DetailWeight  float64       `yaml:"detail_weight"`
	Threshold     float64       `yaml:"threshold"`
	BiasSlope     float64       `yaml:"bias_slope"`
	BiasMin       float64       `yaml:"bias_min"`
	BiasMax       float64       `yaml:"bias_max"`
	AttemptFactor int           `yaml:"attempt_factor"`
	Origin        Vec3          `yaml:"origin"`
	Size          float64       `yaml:"size"`
	BottomColor   Vec3          `yaml:"bottom_color"`
	TopColor      Vec3          `yaml:"top_color"`
	Lobes         []LobeConfig  `yaml:"lobes"`
	Shells        []ShellConfig `yaml:"shells"`
}

// NotesConfig selects and configures the note store.
type NotesConfig struct {
	Backend       string        `yaml:"backend"` // memory | sqlite | remote
	SQLitePath    string        `yaml:"sqlite_path"`
	RemoteURL     string        `yaml:"remote_url"`
	RemoteToken   string        `yaml:"remote_token"`
	AllowInsecure bool          `yaml:"allow_insecure"`
	Timeout       time.Duration `yaml:"timeout"`
}

// InteractionConfig holds hover, pick and notification settings.
type InteractionConfig struct {
	PickFactor float64       `yaml:"pick_factor"` // pick radius as a multiple of orb scale
	HoverScale float64       `yaml:"hover_scale"`
	ToastTTL   time.Duration `yaml:"toast_ttl"`
	IOTimeout  time.Duration `yaml:"io_timeout"`
}

// TelemetryConfig holds telemetry settings.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32    float32 // Screen.Width as float32
	ScreenH32    float32 // Screen.Height as float32
	CameraEye    r3.Vec
	CameraTarget r3.Vec
	TotalPoints  int // sum of cloud shell counts
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Set replaces the global configuration, e.g. after a reload.
func Set(cfg *Config) {
	global = cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. ${VAR} references are
// expanded from the environment in both.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(defaultsYAML))), cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.CameraEye = c.Camera.Eye.R3()
	c.Derived.CameraTarget = c.Camera.Target.R3()

	c.Derived.TotalPoints = 0
	for _, s := range c.Cloud.Shells {
		c.Derived.TotalPoints += s.Count
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
