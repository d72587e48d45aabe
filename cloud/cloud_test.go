package cloud

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/orbfield/noise"
)

func testSampler(t *testing.T, lobes []Lobe, shells []ShellSpec) *Sampler {
	t.Helper()
	shape, err := NewShapeField(lobes)
	if err != nil {
		t.Fatalf("NewShapeField: %v", err)
	}
	src, err := noise.NewField(noise.DefaultParams())
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	s, err := NewSampler(shape, src, shells, DefaultParams())
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	return s
}

func TestShapeFieldDensity(t *testing.T) {
	shape, err := NewShapeField(DefaultLobes())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		p    r3.Vec
		want float64
	}{
		{"origin", r3.Vec{}, 0},
		{"unit along z", r3.Vec{Z: 1}, 1},
		{"second lobe centre", r3.Vec{X: 0.75, Y: 0.05}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shape.Density(tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Density(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	// Beyond x=1 the smaller, offset lobe is closer in normalized terms.
	p := r3.Vec{X: 1.2}
	want := math.Min(1.2, r3.Norm(r3.Sub(p, r3.Vec{X: 0.75, Y: 0.05}))/0.65)
	if got := shape.Density(p); math.Abs(got-want) > 1e-9 {
		t.Errorf("Density(%v) = %v, want %v", p, got, want)
	}
}

func TestShapeFieldRejectsBadLobes(t *testing.T) {
	tests := []struct {
		name  string
		lobes []Lobe
		want  error
	}{
		{"empty", nil, ErrNoLobes},
		{"zero radius", []Lobe{{Radius: 0}}, ErrBadLobe},
		{"negative radius", []Lobe{{Radius: -1}}, ErrBadLobe},
		{"nan radius", []Lobe{{Radius: math.NaN()}}, ErrBadLobe},
		{"inf centre", []Lobe{{Center: r3.Vec{X: math.Inf(1)}, Radius: 1}}, ErrBadLobe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShapeField(tt.lobes)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSamplerRejectsBadShells(t *testing.T) {
	shape, _ := NewShapeField(DefaultLobes())
	src, _ := noise.NewField(noise.DefaultParams())

	tests := []struct {
		name  string
		shell ShellSpec
	}{
		{"negative count", ShellSpec{Name: "x", Count: -1}},
		{"opacity above one", ShellSpec{Name: "x", Count: 1, Opacity: 1.5}},
		{"nan jitter", ShellSpec{Name: "x", Count: 1, Jitter: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSampler(shape, src, []ShellSpec{tt.shell}, DefaultParams())
			if !errors.Is(err, ErrBadShell) {
				t.Errorf("err = %v, want ErrBadShell", err)
			}
		})
	}

	p := DefaultParams()
	p.AttemptFactor = 0
	if _, err := NewSampler(shape, src, DefaultShells(), p); !errors.Is(err, ErrBadParams) {
		t.Errorf("attempt factor 0: err = %v, want ErrBadParams", err)
	}
}

func TestBuildFillsShells(t *testing.T) {
	shells := []ShellSpec{
		{Name: "core", Count: 500, Jitter: 0.05, PointSize: 0.06, Opacity: 0.9},
		{Name: "mid", Count: 300, Jitter: 0.12, PointSize: 0.08, Opacity: 0.5},
		{Name: "fringe", Count: 200, Jitter: 0.25, PointSize: 0.1, Opacity: 0.25},
	}
	c, err := testSampler(t, DefaultLobes(), shells).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(c.Shells) != 3 {
		t.Fatalf("got %d shells, want 3", len(c.Shells))
	}

	warp := DefaultParams().Warp
	maxR := math.Max(warp.X, math.Max(warp.Y, warp.Z)) + 0.25
	for _, s := range c.Shells {
		if len(s.Points) != s.Spec.Count {
			t.Errorf("shell %s: %d points, want %d", s.Spec.Name, len(s.Points), s.Spec.Count)
		}
		if s.Attempts > s.Spec.Count*DefaultParams().AttemptFactor {
			t.Errorf("shell %s: %d attempts exceeds budget", s.Spec.Name, s.Attempts)
		}
		for _, p := range s.Points {
			if r := r3.Norm(p.Position); r > maxR {
				t.Fatalf("shell %s: point %v outside warped ball", s.Spec.Name, p.Position)
			}
			for _, ch := range []float64{p.Color.R, p.Color.G, p.Color.B} {
				if ch < 0 || ch > 1 {
					t.Fatalf("colour %v out of range", p.Color)
				}
			}
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	shells := []ShellSpec{{Name: "core", Count: 200, Jitter: 0.1, Opacity: 1}}
	a, err := testSampler(t, DefaultLobes(), shells).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := testSampler(t, DefaultLobes(), shells).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Shells[0].Points {
		if a.Shells[0].Points[i] != b.Shells[0].Points[i] {
			t.Fatalf("point %d differs between builds", i)
		}
	}
}

func TestBuildTerminatesOnDegenerateShape(t *testing.T) {
	lobes := []Lobe{
		{Center: r3.Vec{}, Radius: 1e-9},
		{Center: r3.Vec{X: 0.5}, Radius: 1e-9},
	}
	shells := []ShellSpec{{Name: "core", Count: 2000, Opacity: 1}}

	done := make(chan *Cloud, 1)
	go func() {
		c, err := testSampler(t, lobes, shells).Build(context.Background())
		if err != nil {
			t.Errorf("Build: %v", err)
		}
		done <- c
	}()

	select {
	case c := <-done:
		if c == nil {
			return
		}
		s := c.Shells[0]
		if s.Attempts != 2000*DefaultParams().AttemptFactor {
			t.Errorf("attempts = %d, want full budget", s.Attempts)
		}
		if len(s.Points) > 10 {
			t.Errorf("degenerate shape accepted %d points", len(s.Points))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Build did not terminate")
	}
}

func TestBuildZeroCount(t *testing.T) {
	c, err := testSampler(t, DefaultLobes(), []ShellSpec{{Name: "empty"}}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 || c.Shells[0].Filled() != 1 {
		t.Errorf("empty shell: len=%d filled=%v", c.Len(), c.Shells[0].Filled())
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testSampler(t, DefaultLobes(), DefaultShells()).Build(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWriteCSV(t *testing.T) {
	shells := []ShellSpec{{Name: "core", Count: 10, Opacity: 1}}
	c, err := testSampler(t, DefaultLobes(), shells).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := c.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 11 {
		t.Fatalf("got %d lines, want header + 10", len(lines))
	}
	if lines[0] != "shell,x,y,z,r,g,b" {
		t.Errorf("header = %q", lines[0])
	}
}

func TestScoreCentreAndFarField(t *testing.T) {
	s := testSampler(t, DefaultLobes(), DefaultShells())

	if got := s.Score(r3.Vec{}); got < s.Threshold() {
		t.Errorf("centre score %v below threshold %v", got, s.Threshold())
	}
	if got := s.Score(r3.Vec{X: 10}); got >= s.Threshold() {
		t.Errorf("far score %v reaches threshold %v", got, s.Threshold())
	}
}
