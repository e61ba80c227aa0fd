package effects

import (
	"image"
)

// Theme is the companion visual style that follows the sequence.
type Theme int

const (
	Light Theme = iota
	Dark
)

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// FrameState describes the captured frame an overlay is drawn on
type FrameState struct {
	Index    int
	Total    int
	Progress float64
	Theme    Theme
}

// Overlay draws on top of a captured frame in place
type Overlay interface {
	Apply(dst *image.RGBA, st FrameState)
}

// Chain applies overlays in order
type Chain []Overlay

func (c Chain) Apply(dst *image.RGBA, st FrameState) {
	for _, o := range c {
		if o != nil {
			o.Apply(dst, st)
		}
	}
}

// Fanout returns an OnFrame callback that forwards every rendered frame
// index to all consumers in order.
func Fanout(consumers ...func(index int)) func(index int) {
	return func(index int) {
		for _, fn := range consumers {
			if fn != nil {
				fn(index)
			}
		}
	}
}
