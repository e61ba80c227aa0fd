package effects

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// ThemeBar draws a scroll progress bar along the bottom edge. The track
// takes the current theme's colour and the fill blends toward the opposite
// one as progress grows.
type ThemeBar struct {
	Light  colorful.Color
	Dark   colorful.Color
	Height int // 0 picks a height from the frame size
}

func NewThemeBar(light, dark string, height int) (*ThemeBar, error) {
	l, err := colorful.Hex(light)
	if err != nil {
		return nil, fmt.Errorf("theme bar light colour: %w", err)
	}
	d, err := colorful.Hex(dark)
	if err != nil {
		return nil, fmt.Errorf("theme bar dark colour: %w", err)
	}
	return &ThemeBar{Light: l, Dark: d, Height: height}, nil
}

// Colors returns the track and fill colours for a frame
func (b *ThemeBar) Colors(st FrameState) (track, fill colorful.Color) {
	track, opposite := b.Light, b.Dark
	if st.Theme == Dark {
		track, opposite = b.Dark, b.Light
	}
	return track, track.BlendLab(opposite, 0.35+0.65*clamp01(st.Progress)).Clamped()
}

func (b *ThemeBar) Apply(dst *image.RGBA, st FrameState) {
	bounds := dst.Bounds()
	if bounds.Empty() {
		return
	}
	h := b.Height
	if h <= 0 {
		h = max(2, bounds.Dy()/120)
	}
	h = min(h, bounds.Dy())

	track, fill := b.Colors(st)
	bar := image.Rect(bounds.Min.X, bounds.Max.Y-h, bounds.Max.X, bounds.Max.Y)
	draw.Draw(dst, bar, image.NewUniform(track), image.Point{}, draw.Src)

	w := int(math.Round(float64(bounds.Dx()) * clamp01(st.Progress)))
	if w > 0 {
		filled := image.Rect(bar.Min.X, bar.Min.Y, bar.Min.X+w, bar.Max.Y)
		draw.Draw(dst, filled, image.NewUniform(fill), image.Point{}, draw.Src)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
