// Package input maps wheel and key input of the preview window onto the
// scroll observer.
package input

import (
	"fmt"

	"github.com/ivlev/keyscroll/internal/effects"
	"github.com/ivlev/keyscroll/internal/player"
	"github.com/ivlev/keyscroll/internal/scroll"
)

const (
	// wheelStep is the page offset of one wheel notch, in logical pixels
	wheelStep = 60
	// arrowStep is the offset per tick while an arrow key is held
	arrowStep = 18
)

// Input is the scroll-relevant input of one tick
type Input struct {
	WheelY   float64 // positive scrolls up, as reported by the wheel
	Up       bool
	Down     bool
	PageUp   bool
	PageDown bool
	Home     bool
	End      bool
}

// Delta converts input into a scroll offset change for a viewport of
// height viewportH.
func (in Input) Delta(viewportH float64) float64 {
	d := -in.WheelY * wheelStep
	if in.Up {
		d -= arrowStep
	}
	if in.Down {
		d += arrowStep
	}
	// a page keeps a tenth of the viewport on screen
	page := viewportH * 0.9
	if in.PageUp {
		d -= page
	}
	if in.PageDown {
		d += page
	}
	return d
}

// Apply moves the observer for one tick of input. Home and End jump to the
// region edges; the page never scrolls past the end of the region.
func Apply(o *scroll.Observer, in Input, viewportH float64) {
	switch {
	case in.Home:
		o.ScrollToProgress(0)
		return
	case in.End:
		o.ScrollToProgress(1)
		return
	}

	d := in.Delta(viewportH)
	if d == 0 {
		return
	}
	y := o.ScrollY() + d
	if limit := o.MaxScroll(); y > limit {
		y = limit
	}
	o.Scroll(y)
}

func LoadingLine(st player.Status) string {
	return fmt.Sprintf("loading %d/%d", st.Loaded, st.Total)
}

func HUDLine(st player.Status, theme effects.Theme, progress float64) string {
	return fmt.Sprintf("frame %d/%d  target %.2f  scroll %3.0f%%  theme %s",
		st.LastRendered, st.Total-1, st.Target, progress*100, theme)
}
