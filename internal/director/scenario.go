package director

import "fmt"

// Scenario is a scripted scroll through the sequence region
type Scenario struct {
	Version   string     `yaml:"version"`
	Duration  float64    `yaml:"duration"` // Total duration in seconds
	Keyframes []Keyframe `yaml:"keyframes"`
}

// Keyframe pins the scroll progress at a moment of the script
type Keyframe struct {
	Time     float64 `yaml:"time"`           // Time offset in seconds
	Progress float64 `yaml:"progress"`       // Scroll progress in [0,1]
	Ease     string  `yaml:"ease,omitempty"` // Easing of the segment ending here
	Label    string  `yaml:"label,omitempty"`
}

// Validate checks that keyframes are ordered in time and progress is in range
func (s *Scenario) Validate() error {
	if len(s.Keyframes) == 0 {
		return fmt.Errorf("scenario has no keyframes")
	}
	for i, kf := range s.Keyframes {
		if kf.Progress < 0 || kf.Progress > 1 {
			return fmt.Errorf("keyframe %d: progress %.3f out of [0,1]", i, kf.Progress)
		}
		if kf.Time < 0 {
			return fmt.Errorf("keyframe %d: negative time", i)
		}
		if i > 0 && kf.Time < s.Keyframes[i-1].Time {
			return fmt.Errorf("keyframe %d: time %.2f before previous %.2f", i, kf.Time, s.Keyframes[i-1].Time)
		}
	}
	return nil
}

// Scale stretches keyframe times so the script lasts duration seconds
func (s *Scenario) Scale(duration float64) {
	if s.Duration <= 0 || duration <= 0 {
		return
	}
	k := duration / s.Duration
	for i := range s.Keyframes {
		s.Keyframes[i].Time *= k
	}
	s.Duration = duration
}
