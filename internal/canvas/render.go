package canvas

import (
	"image"
	"image/color"
)

// Render clears s to bg and draws img with a cover fit. A nil surface or
// image makes it a no-op; it reports whether anything was drawn.
func Render(s Surface, img image.Image, bg color.Color) bool {
	if s == nil || img == nil {
		return false
	}
	w, h := s.Size()
	b := img.Bounds()
	dst := Cover(float64(b.Dx()), float64(b.Dy()), w, h)

	s.Clear(bg)
	if dst.W > 0 && dst.H > 0 {
		s.DrawImage(img, dst)
	}
	return true
}
