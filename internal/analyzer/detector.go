package analyzer

import "image"

// Sample is the measured brightness of one frame of a sequence
type Sample struct {
	Index int
	Luma  float64 // 0.0-1.0
}

// Measurer is the interface for frame brightness strategies
type Measurer interface {
	Measure(img image.Image) float64
}

// MeasureFunc adapts a plain function to Measurer
type MeasureFunc func(img image.Image) float64

func (f MeasureFunc) Measure(img image.Image) float64 {
	return f(img)
}
