package analyzer

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// sampleGrid caps the number of pixels read per axis; frames of a scroll
// sequence are large and the mean settles long before every pixel is seen.
const sampleGrid = 256

// LuminanceProfile returns the mean Rec. 601 luma of img in [0,1]
func LuminanceProfile(img image.Image) float64 {
	var sum float64
	n := walk(img, func(c color.Color) bool {
		sum += float64(color.GrayModel.Convert(c).(color.Gray).Y) / 255
		return true
	})
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// LabLightness returns the mean CIE L* of img in [0,1]. It tracks perceived
// brightness better than luma on saturated frames.
func LabLightness(img image.Image) float64 {
	var sum float64
	n := walk(img, func(c color.Color) bool {
		cf, ok := colorful.MakeColor(c)
		if !ok {
			// fully transparent pixel
			return false
		}
		l, _, _ := cf.Lab()
		sum += l
		return true
	})
	if n == 0 {
		return 0
	}
	v := sum / float64(n)
	if v > 1 {
		v = 1
	}
	return v
}

// walk visits a grid of at most sampleGrid x sampleGrid pixels of img and
// returns how many of them visit counted
func walk(img image.Image, visit func(c color.Color) bool) int {
	if img == nil {
		return 0
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	stepX := max(1, bounds.Dx()/sampleGrid)
	stepY := max(1, bounds.Dy()/sampleGrid)

	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			if visit(img.At(x, y)) {
				n++
			}
		}
	}
	return n
}
