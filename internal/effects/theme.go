package effects

import "sync"

// ThemeSwitcher flips to Dark once a rendered frame reaches the threshold
// and back to Light below it. Feed it from the player's OnFrame.
type ThemeSwitcher struct {
	threshold int

	mu        sync.Mutex
	theme     Theme
	listeners []func(Theme)
}

// NewThemeSwitcher creates a switcher. A negative threshold keeps it Light.
func NewThemeSwitcher(threshold int) *ThemeSwitcher {
	return &ThemeSwitcher{threshold: threshold}
}

func (s *ThemeSwitcher) Threshold() int {
	return s.threshold
}

func (s *ThemeSwitcher) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// OnChange registers fn to be called after every theme change
func (s *ThemeSwitcher) OnChange(fn func(Theme)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// OnFrame has the player callback signature.
func (s *ThemeSwitcher) OnFrame(index int) {
	s.Update(index)
}

// Update sets the theme for a newly rendered frame and reports whether it
// changed.
func (s *ThemeSwitcher) Update(index int) bool {
	next := Light
	if s.threshold >= 0 && index >= s.threshold {
		next = Dark
	}

	s.mu.Lock()
	if next == s.theme {
		s.mu.Unlock()
		return false
	}
	s.theme = next
	listeners := append([]func(Theme){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return true
}
