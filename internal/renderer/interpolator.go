package renderer

import (
	"fmt"
	"strings"

	"github.com/fogleman/ease"

	"github.com/ivlev/keyscroll/internal/director"
)

var easings = map[string]func(float64) float64{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"out-bounce":   ease.OutBounce,
}

// Easing returns the easing function by name; "" means in-out-cubic.
func Easing(name string) (func(float64) float64, error) {
	if name == "" {
		return ease.InOutCubic, nil
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown easing: %s", name)
	}
	return fn, nil
}

// ProgressAt calculates the scroll progress at a given time by interpolating
// between keyframes with the easing of the segment being played.
func ProgressAt(keyframes []director.Keyframe, currentTime float64) float64 {
	if len(keyframes) == 0 {
		return 0
	}

	// If before first keyframe, use first keyframe
	if currentTime <= keyframes[0].Time {
		return clamp01(keyframes[0].Progress)
	}

	// If after last keyframe, use last keyframe
	last := keyframes[len(keyframes)-1]
	if currentTime >= last.Time {
		return clamp01(last.Progress)
	}

	// Find surrounding keyframes
	var prevKf, nextKf director.Keyframe
	for i := 0; i < len(keyframes)-1; i++ {
		if currentTime >= keyframes[i].Time && currentTime < keyframes[i+1].Time {
			prevKf = keyframes[i]
			nextKf = keyframes[i+1]
			break
		}
	}

	timeDelta := nextKf.Time - prevKf.Time
	if timeDelta <= 0 {
		return clamp01(nextKf.Progress)
	}
	t := (currentTime - prevKf.Time) / timeDelta

	fn, err := Easing(nextKf.Ease)
	if err != nil {
		fn = ease.Linear
	}

	return clamp01(lerp(prevKf.Progress, nextKf.Progress, fn(t)))
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
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
