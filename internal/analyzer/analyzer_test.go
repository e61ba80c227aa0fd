package analyzer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestLuminanceProfile(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want float64
	}{
		{"black", solid(10, 10, color.Black), 0},
		{"white", solid(10, 10, color.White), 1},
		{"gray", solid(10, 10, color.Gray{Y: 51}), 0.2},
		{"large", solid(1000, 700, color.White), 1},
		{"empty", image.NewRGBA(image.Rectangle{}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LuminanceProfile(tt.img); math.Abs(got-tt.want) > 0.01 {
				t.Errorf("LuminanceProfile() = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestLabLightness(t *testing.T) {
	if got := LabLightness(solid(8, 8, color.White)); math.Abs(got-1) > 0.01 {
		t.Errorf("white L* = %.3f", got)
	}
	if got := LabLightness(solid(8, 8, color.Black)); got > 0.01 {
		t.Errorf("black L* = %.3f", got)
	}
	// transparent pixels are not counted
	img := solid(8, 8, color.White)
	for x := 0; x < 8; x++ {
		img.Set(x, 0, color.Transparent)
	}
	if got := LabLightness(img); math.Abs(got-1) > 0.01 {
		t.Errorf("half transparent L* = %.3f", got)
	}
}

func TestCrossing(t *testing.T) {
	luma := func(values ...float64) []Sample {
		samples := make([]Sample, len(values))
		for i, v := range values {
			samples[i] = Sample{Index: i, Luma: v}
		}
		return samples
	}

	tests := []struct {
		name    string
		samples []Sample
		want    int
		ok      bool
	}{
		{"light to dark", luma(1, 1, 0, 0), 2, true},
		{"dark to light", luma(0, 1), 1, true},
		{"cutoff counts as above", luma(0.2, 0.5), 1, true},
		{"no crossing", luma(1, 1), -1, false},
		{"empty", nil, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Crossing(tt.samples, 0.5)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Crossing() = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

type frames []image.Image

func (f frames) FrameCount() int { return len(f) }
func (f frames) FrameDimensions(i int) (float64, float64, error) {
	b := f[i].Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}
func (f frames) LoadFrame(_ context.Context, i int) (image.Image, error) {
	if f[i] == nil {
		return nil, errors.New("missing")
	}
	return f[i], nil
}
func (f frames) Close() error { return nil }

func TestScanSource(t *testing.T) {
	src := frames{solid(4, 4, color.White), solid(4, 4, color.Gray{Y: 128}), solid(4, 4, color.Black)}
	m, _ := NewMeasurer("luma")

	samples, err := ScanSource(context.Background(), src, m, 2)
	if err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}
	if len(samples) != 3 || samples[2].Index != 2 || samples[0].Luma < samples[2].Luma {
		t.Errorf("unexpected samples %+v", samples)
	}
	if i, ok := Crossing(samples, 0.4); !ok || i != 2 {
		t.Errorf("Crossing() = %d, %v", i, ok)
	}

	if _, err := ScanSource(context.Background(), frames{nil}, m, 1); err == nil {
		t.Error("expected error for a missing frame")
	}
}

func TestMeasurerRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"luma", false},
		{"", false}, // default
		{"lab", false},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			m, err := NewMeasurer(tt.variant)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMeasurer(%q) error = %v, wantErr %v", tt.variant, err, tt.wantErr)
			}
			if !tt.wantErr && m == nil {
				t.Error("Expected non-nil measurer")
			}
		})
	}
}
