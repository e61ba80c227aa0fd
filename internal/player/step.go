package player

import (
	"math"

	"github.com/ivlev/keyscroll/internal/config"
)

// Stepper moves the display frame toward the target frame: a lerp by
// Smoothing, capped at MaxSpeed frames per tick, with a MinStep floor so the
// tail of the lerp does not creep forever.
type Stepper struct {
	Smoothing float64
	MaxSpeed  float64
	Epsilon   float64
	MinStep   float64
}

func NewStepper(cfg config.Player) Stepper {
	return Stepper{
		Smoothing: cfg.Smoothing,
		MaxSpeed:  cfg.MaxSpeed,
		Epsilon:   cfg.Epsilon,
		MinStep:   cfg.MinStep,
	}
}

// Step returns the next display position; moved is false once the display
// is within Epsilon of the target.
func (s Stepper) Step(display, target float64) (next float64, moved bool) {
	distance := target - display
	if math.Abs(distance) < s.Epsilon {
		return display, false
	}

	step := distance * s.Smoothing
	if math.Abs(step) > s.MaxSpeed {
		step = math.Copysign(s.MaxSpeed, step)
	}
	if math.Abs(step) < s.MinStep && math.Abs(distance) > s.MinStep {
		step = math.Copysign(s.MinStep, distance)
	}
	return display + step, true
}

// frameIndex rounds a display position to a drawable frame in [0, n-1].
func frameIndex(display float64, n int) int {
	i := int(math.Round(display))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
