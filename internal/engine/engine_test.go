package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ivlev/keyscroll/internal/config"
	"github.com/ivlev/keyscroll/internal/director"
	"github.com/ivlev/keyscroll/internal/effects"
	"github.com/ivlev/keyscroll/internal/player"
)

func grayLevel(i int) uint8 { return uint8(20 + 40*i) }

// graySource is a sequence of uniform gray frames, brighter with every index
type graySource struct {
	frames []image.Image
	fail   map[int]bool
}

func newGraySource(n int) *graySource {
	s := &graySource{fail: map[int]bool{}}
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 16, 9))
		g := grayLevel(i)
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = g, g, g, 255
		}
		s.frames = append(s.frames, img)
	}
	return s
}

func (s *graySource) FrameCount() int { return len(s.frames) }

func (s *graySource) FrameDimensions(int) (float64, float64, error) { return 16, 9, nil }

func (s *graySource) LoadFrame(_ context.Context, i int) (image.Image, error) {
	if s.fail[i] {
		return nil, errors.New("broken frame")
	}
	return s.frames[i], nil
}

func (s *graySource) Close() error { return nil }

// memSink keeps the centre pixel of every captured frame
type memSink struct {
	mu     sync.Mutex
	center []color.RGBA
	closed bool
}

func (s *memSink) WriteFrame(img *image.RGBA) error {
	b := img.Bounds()
	s.mu.Lock()
	s.center = append(s.center, img.RGBAAt(b.Dx()/2, b.Dy()/2))
	s.mu.Unlock()
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

type overlayFunc func(*image.RGBA, effects.FrameState)

func (f overlayFunc) Apply(dst *image.RGBA, st effects.FrameState) { f(dst, st) }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Width, cfg.Height = 32, 18
	cfg.FPS = 10
	cfg.TotalDuration = 2
	cfg.LoadTimeout = 5
	cfg.Theme.Threshold = 2
	return cfg
}

func TestCaptureProject(t *testing.T) {
	src := newGraySource(5)
	sink := &memSink{}

	var drawn []int
	var states []effects.FrameState
	p := NewCaptureProject(testConfig(), src)
	p.Sink = sink
	p.OnFrame = func(i int) { drawn = append(drawn, i) }
	p.Overlays = effects.Chain{overlayFunc(func(_ *image.RGBA, st effects.FrameState) {
		states = append(states, st)
	})}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 2s at 10 fps, both ends included
	if p.Report.Frames != 21 || len(sink.center) != 21 {
		t.Fatalf("captured %d frames (sink %d), want 21", p.Report.Frames, len(sink.center))
	}
	if !sink.closed {
		t.Error("sink not closed")
	}

	if len(drawn) == 0 || drawn[0] != 0 {
		t.Fatalf("first drawn frame must be 0, got %v", drawn)
	}
	for i := 1; i < len(drawn); i++ {
		if drawn[i] == drawn[i-1] {
			t.Errorf("frame %d drawn twice in a row: %v", drawn[i], drawn)
		}
	}
	if p.Report.Draws != len(drawn) {
		t.Errorf("Draws = %d, OnFrame saw %d", p.Report.Draws, len(drawn))
	}

	maxIndex := 0
	for i, st := range states {
		if st.Total != 5 {
			t.Fatalf("FrameState.Total = %d", st.Total)
		}
		if got, want := sink.center[i].R, grayLevel(st.Index); absDiff(got, want) > 1 {
			t.Errorf("output frame %d shows gray %d, want frame %d (%d)", i, got, st.Index, want)
		}
		maxIndex = max(maxIndex, st.Index)
	}
	if maxIndex < 2 {
		t.Errorf("script never scrolled past frame %d", maxIndex)
	}
	if last := states[len(states)-1]; last.Theme != effects.Dark || p.Theme.Theme() != effects.Dark {
		t.Errorf("theme after frame %d = %s, want dark", last.Index, last.Theme)
	}
	if states[0].Theme != effects.Light || states[0].Progress != 0 {
		t.Errorf("unexpected first state %+v", states[0])
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestCaptureProjectAutoTheme(t *testing.T) {
	// luma of gray 100 is 0.39, its L* is 0.42; cutoff 0.4 tells them apart
	tests := []struct {
		measurer string
		want     int
		wantErr  bool
	}{
		{"luma", 3, false},
		{"", 3, false},
		{"lab", 2, false},
		{"hsv", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.measurer, func(t *testing.T) {
			cfg := testConfig()
			cfg.Theme.Auto = true
			cfg.Theme.Cutoff = 0.4
			cfg.Theme.Measurer = tt.measurer

			p := NewCaptureProject(cfg, newGraySource(5))
			p.Sink = &memSink{}
			err := p.Run(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown measurer")
				}
				return
			}
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if p.Report.Threshold != tt.want || p.Theme.Threshold() != tt.want {
				t.Errorf("threshold = %d, want %d", p.Report.Threshold, tt.want)
			}
		})
	}
}

// reachTime captures a jump to the end of an n-frame sequence at fps and
// returns the video time at which the last frame first appears.
func reachTime(t *testing.T, n, fps int) float64 {
	t.Helper()
	cfg := testConfig()
	cfg.FPS = fps

	var states []effects.FrameState
	p := NewCaptureProject(cfg, newGraySource(n))
	p.Sink = &memSink{}
	p.Scenario = &director.Scenario{
		Version:  "1.0",
		Duration: 3,
		Keyframes: []director.Keyframe{
			{Time: 0, Progress: 1},
			{Time: 3, Progress: 1},
		},
	}
	p.Overlays = effects.Chain{overlayFunc(func(_ *image.RGBA, st effects.FrameState) {
		states = append(states, st)
	})}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run at %d fps failed: %v", fps, err)
	}
	for f, st := range states {
		if st.Index == n-1 {
			return float64(f) / float64(fps)
		}
	}
	t.Fatalf("last frame never shown at %d fps", fps)
	return 0
}

func TestCaptureTickRateIndependentOfFPS(t *testing.T) {
	const n = 82
	cfg := testConfig()

	// ticks the stepper needs to bring frame n-1 on screen
	stepper := player.NewStepper(cfg.Player)
	ticks, display := 0, 0.0
	for math.Round(display) < n-1 {
		next, moved := stepper.Step(display, n-1)
		if !moved {
			t.Fatalf("stepper stalled at %.3f", display)
		}
		display = next
		ticks++
	}
	want := float64(ticks) / float64(cfg.Player.TickRate)

	for _, fps := range []int{30, 60} {
		if got := reachTime(t, n, fps); math.Abs(got-want) > 1e-9 {
			t.Errorf("fps=%d reaches frame %d after %.3fs, want %.3fs", fps, n-1, got, want)
		}
	}
}

func TestTicksDue(t *testing.T) {
	tests := []struct {
		f, fps, rate int
		want         int
	}{
		{0, 30, 30, 0},
		{1, 30, 30, 1},
		{1, 60, 30, 0},
		{2, 60, 30, 1},
		{1, 10, 30, 3},
		{7, 24, 30, 8},
	}
	for _, tt := range tests {
		if got := ticksDue(tt.f, tt.fps, tt.rate); got != tt.want {
			t.Errorf("ticksDue(%d, %d, %d) = %d, want %d", tt.f, tt.fps, tt.rate, got, tt.want)
		}
	}
}

func TestCaptureProjectLoadTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.LoadTimeout = 0.2

	src := newGraySource(5)
	src.fail[3] = true
	sink := &memSink{}
	p := NewCaptureProject(cfg, src)
	p.Sink = sink

	err := p.Run(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if len(sink.center) != 0 {
		t.Error("nothing may be captured before the sequence is ready")
	}
}

func TestCaptureProjectScenarioFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	err := director.WriteScenario(&director.Scenario{
		Version:  "1.0",
		Duration: 4,
		Keyframes: []director.Keyframe{
			{Time: 0, Progress: 0},
			{Time: 4, Progress: 1, Ease: "linear"},
		},
	}, path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.ScenarioInput = path
	cfg.TotalDuration = 1
	cfg.FramesDir = filepath.Join(dir, "frames")
	cfg.ShowStats = true

	orig := BenchmarkLog
	BenchmarkLog = filepath.Join(dir, "benchmark.log")
	defer func() { BenchmarkLog = orig }()

	p := NewCaptureProject(cfg, newGraySource(5))
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if p.Scenario.Duration != 1 || p.Report.Frames != 11 {
		t.Errorf("scenario not scaled: duration %.2f, frames %d", p.Scenario.Duration, p.Report.Frames)
	}
	if _, err := os.Stat(filepath.Join(cfg.FramesDir, "010.png")); err != nil {
		t.Errorf("last png frame missing: %v", err)
	}

	data, err := os.ReadFile(BenchmarkLog)
	if err != nil {
		t.Fatalf("benchmark log not written: %v", err)
	}
	if !strings.Contains(string(data), "Frames: 11") {
		t.Errorf("unexpected benchmark entry: %s", data)
	}
}

func TestCaptureProjectNoSink(t *testing.T) {
	p := NewCaptureProject(testConfig(), newGraySource(2))
	if err := p.Run(context.Background()); err == nil {
		t.Error("expected error without output video or frames dir")
	}
}

func TestGenerateScenarioFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scenario.yaml")
	path, err := GenerateScenarioFile(testConfig(), out)
	if err != nil {
		t.Fatalf("GenerateScenarioFile failed: %v", err)
	}
	s, err := director.ReadScenario(path)
	if err != nil {
		t.Fatalf("generated file unreadable: %v", err)
	}
	if s.Duration != 2 {
		t.Errorf("duration = %.2f, want 2", s.Duration)
	}
}
