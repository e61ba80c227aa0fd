package player

// State of a player instance. Transitions only go forward:
// Unloaded -> Loading on Mount, Loading -> Ready once every frame is loaded.
type State int

const (
	Unloaded State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// loadState tracks which frames have finished loading.
type loadState struct {
	loaded []bool
	count  int
	ready  bool
}

func newLoadState(n int) loadState {
	return loadState{loaded: make([]bool, n)}
}

// mark records frame i as loaded. changed is false for repeats and bad
// indices; becameReady is true only on the call that completes the set.
func (l *loadState) mark(i int) (changed, becameReady bool) {
	if i < 0 || i >= len(l.loaded) || l.loaded[i] {
		return false, false
	}
	l.loaded[i] = true
	l.count++
	if l.count == len(l.loaded) && !l.ready {
		l.ready = true
		return true, true
	}
	return true, false
}

func (l *loadState) isLoaded(i int) bool {
	return i >= 0 && i < len(l.loaded) && l.loaded[i]
}
