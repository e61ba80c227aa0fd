package canvas

import "image"

// Rect is a destination rectangle in logical (CSS-like) pixels.
type Rect struct {
	X, Y, W, H float64
}

// Cover scales a src-sized image so it fills the dst box completely,
// preserving aspect ratio. The overflowing axis is cropped evenly on both
// sides, so X or Y may be negative.
func Cover(srcW, srcH, dstW, dstH float64) Rect {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Rect{}
	}

	srcAspect := srcW / srcH
	dstAspect := dstW / dstH

	if srcAspect > dstAspect {
		// wider than the box: fit height, crop the sides
		w := dstH * srcAspect
		return Rect{X: (dstW - w) / 2, Y: 0, W: w, H: dstH}
	}
	// taller: fit width, crop top and bottom
	h := dstW / srcAspect
	return Rect{X: 0, Y: (dstH - h) / 2, W: dstW, H: h}
}

// Scale multiplies the rect by a device pixel ratio.
func (r Rect) Scale(k float64) Rect {
	return Rect{X: r.X * k, Y: r.Y * k, W: r.W * k, H: r.H * k}
}

// Pixels rounds the rect to integer backing-store coordinates.
func (r Rect) Pixels() image.Rectangle {
	return image.Rect(round(r.X), round(r.Y), round(r.X+r.W), round(r.Y+r.H))
}

func round(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}
	return int(v + 0.5)
}
