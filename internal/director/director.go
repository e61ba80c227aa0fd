package director

import (
	"fmt"
)

// Director writes default scroll scripts for a capture
type Director struct {
	HoldIntro  float64 // Share of the script spent at the top before scrolling
	HoldBottom float64 // Share spent resting at the bottom
	ReturnTo   float64 // Progress the script scrolls back to at the end
}

// NewDirector creates a Director with default pacing
func NewDirector() *Director {
	return &Director{
		HoldIntro:  0.1,
		HoldBottom: 0.15,
		ReturnTo:   0.5,
	}
}

// GenerateScenario builds the default script: rest at the top, scroll down
// through the whole region, rest, then scroll back up to ReturnTo
func (d *Director) GenerateScenario(totalDuration float64) (*Scenario, error) {
	if totalDuration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %.2f", totalDuration)
	}

	intro := totalDuration * d.HoldIntro
	rest := totalDuration * d.HoldBottom
	// scroll down takes twice as long as the way back up
	moving := totalDuration - intro - rest
	if moving <= 0 {
		moving = totalDuration
		intro, rest = 0, 0
	}
	down := moving * 2 / 3

	keyframes := []Keyframe{
		{Time: 0, Progress: 0, Label: "top"},
		{Time: intro, Progress: 0, Ease: "linear", Label: "start"},
		{Time: intro + down, Progress: 1, Ease: "in-out-cubic", Label: "bottom"},
		{Time: intro + down + rest, Progress: 1, Ease: "linear", Label: "rest"},
		{Time: totalDuration, Progress: clamp01(d.ReturnTo), Ease: "out-quad", Label: "return"},
	}

	return &Scenario{
		Version:   "1.0",
		Duration:  totalDuration,
		Keyframes: keyframes,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
