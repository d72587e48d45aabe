package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/orbfield/cloud"
	"github.com/pthm-cable/orbfield/swarm"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Swarm.Count != 500 || cfg.Swarm.RMin != 12 || cfg.Swarm.RMax != 30 || cfg.Swarm.Speed != 0.35 {
		t.Errorf("unexpected swarm defaults: %+v", cfg.Swarm)
	}
	if cfg.App.LogLevel != slog.LevelInfo {
		t.Errorf("expected info log level, got %v", cfg.App.LogLevel)
	}
	if cfg.Interaction.ToastTTL != 3*time.Second {
		t.Errorf("expected 3s toast ttl, got %v", cfg.Interaction.ToastTTL)
	}
	if len(cfg.Cloud.Lobes) != 2 || len(cfg.Cloud.Shells) != 3 {
		t.Errorf("expected 2 lobes and 3 shells, got %d and %d", len(cfg.Cloud.Lobes), len(cfg.Cloud.Shells))
	}
	if cfg.Derived.TotalPoints != 12500 {
		t.Errorf("expected 12500 total points, got %d", cfg.Derived.TotalPoints)
	}
}

// The embedded defaults match the package defaults of the domain types.
func TestDefaultsMatchDomain(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if got, want := cfg.Swarm.Params(), swarm.DefaultParams(); got != want {
		t.Errorf("swarm params %+v, want %+v", got, want)
	}
	if got, want := cfg.Cloud.Params(), cloud.DefaultParams(); got != want {
		t.Errorf("cloud params %+v, want %+v", got, want)
	}
	lobes := cfg.Cloud.LobeList()
	for i, want := range cloud.DefaultLobes() {
		if lobes[i] != want {
			t.Errorf("lobe %d = %+v, want %+v", i, lobes[i], want)
		}
	}
	shells := cfg.Cloud.ShellList()
	for i, want := range cloud.DefaultShells() {
		if shells[i] != want {
			t.Errorf("shell %d = %+v, want %+v", i, shells[i], want)
		}
	}
}

func TestLoadOverlay(t *testing.T) {
	path := writeFile(t, `
swarm:
  count: 42
notes:
  backend: sqlite
  sqlite_path: /tmp/x.db
app:
  log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Swarm.Count != 42 {
		t.Errorf("expected count 42, got %d", cfg.Swarm.Count)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Swarm.RMax != 30 {
		t.Errorf("expected r_max 30, got %v", cfg.Swarm.RMax)
	}
	if cfg.Notes.Backend != "sqlite" || cfg.Notes.SQLitePath != "/tmp/x.db" {
		t.Errorf("unexpected notes config: %+v", cfg.Notes)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug log level, got %v", cfg.App.LogLevel)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("ORBFIELD_TOKEN", "from-env")
	t.Setenv("ORBFIELD_TEST_URL", "https://notes.example")
	path := writeFile(t, `
notes:
  backend: remote
  remote_url: ${ORBFIELD_TEST_URL}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.AuthToken != "from-env" {
		t.Errorf("expected auth token from env, got %q", cfg.App.AuthToken)
	}
	if cfg.Notes.RemoteURL != "https://notes.example" {
		t.Errorf("expected remote url from env, got %q", cfg.Notes.RemoteURL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"rmax below rmin", "swarm:\n  r_min: 20\n  r_max: 10\n", "swarm"},
		{"zero speed", "swarm:\n  speed: 0\n", "swarm"},
		{"bad backend", "notes:\n  backend: redis\n", "notes"},
		{"remote without url", "notes:\n  backend: remote\n  remote_url: \"\"\n", "notes"},
		{"short warp", "cloud:\n  warp: [1, 2]\n", "cloud"},
		{"no lobes", "cloud:\n  lobes: []\n", "cloud"},
		{"zero radius lobe", "cloud:\n  lobes:\n    - center: [0, 0, 0]\n      radius: 0\n", "cloud"},
		{"opacity above one", "cloud:\n  shells:\n    - name: x\n      count: 1\n      opacity: 2\n", "cloud"},
		{"bias inverted", "cloud:\n  bias_min: 0.5\n  bias_max: 0.1\n", "cloud"},
		{"unknown noise", "noise:\n  source: perlin\n", "noise"},
		{"zero octaves", "noise:\n  octaves: 0\n", "noise"},
		{"bad port", "app:\n  http:\n    port: 70000\n", "app.http"},
		{"hover shrinks", "interaction:\n  hover_scale: 0.5\n", "interaction"},
		{"far before near", "camera:\n  near: 10\n  far: 5\n", "camera"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	cfg.Swarm.Count = 77

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	if back.Swarm.Count != 77 {
		t.Errorf("expected count 77 after reload, got %d", back.Swarm.Count)
	}
	if back.Interaction.ToastTTL != cfg.Interaction.ToastTTL {
		t.Errorf("toast ttl %v after reload, want %v", back.Interaction.ToastTTL, cfg.Interaction.ToastTTL)
	}
}

func TestNewSamplerAndCamera(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if _, err := cfg.NewSampler(); err != nil {
		t.Errorf("NewSampler: %v", err)
	}
	cam := cfg.NewCamera()
	if cam.Limits.MaxDistance != 12 || cam.Limits.MinDistance != 2 {
		t.Errorf("unexpected camera limits: %+v", cam.Limits)
	}
}

func TestInteractionOptions(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	opts := cfg.Interaction.Options()
	if opts.PickFactor != 1.5 || opts.HoverScale != 1.6 {
		t.Errorf("unexpected pick settings: %+v", opts)
	}
	if opts.ToastTTL != 3*time.Second || opts.IOTimeout != 5*time.Second {
		t.Errorf("unexpected timings: ttl=%v io=%v", opts.ToastTTL, opts.IOTimeout)
	}
	if opts.Now == nil {
		t.Error("Now should default to time.Now")
	}
}

func TestInitAndCfg(t *testing.T) {
	defer func() { global = nil }()

	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Cfg().Screen.Width != 1280 {
		t.Errorf("expected width 1280, got %d", Cfg().Screen.Width)
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeFile(t, "swarm:\n  count: 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, slog.New(slog.NewTextHandler(io.Discard, nil)), func(c *Config) { got <- c })
	}()

	// Keep rewriting until the watcher has picked up a change; the first
	// write may race the watcher's startup.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	var cfg *Config
	for cfg == nil {
		select {
		case cfg = <-got:
		case <-tick.C:
			if err := os.WriteFile(path, []byte("swarm:\n  count: 42\n"), 0644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no reload within 5s")
		}
	}
	if cfg.Swarm.Count != 42 {
		t.Errorf("reloaded count = %d, want 42", cfg.Swarm.Count)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWatchSkipsInvalid(t *testing.T) {
	path := writeFile(t, "swarm:\n  count: 10\n")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	called := false
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(path, []byte("swarm:\n  speed: -1\n"), 0644)
	}()
	if err := Watch(ctx, path, slog.New(slog.NewTextHandler(io.Discard, nil)), func(*Config) { called = true }); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if called {
		t.Error("invalid config should not be delivered")
	}
}

func TestWatchNeedsPath(t *testing.T) {
	if err := Watch(context.Background(), "", slog.Default(), func(*Config) {}); err == nil {
		t.Error("expected error for empty path")
	}
}
