package scroll

import (
	"math"
	"testing"
)

func TestRegionProgress(t *testing.T) {
	// 200vh region on a 1000px viewport, 300px below the page top
	r := Region{Top: 300, Height: 2000}

	tests := []struct {
		scrollY float64
		want    float64
	}{
		{0, 0},
		{300, 0},
		{800, 0.5},
		{1300, 1},
		{5000, 1},
	}

	for _, tt := range tests {
		if got := r.Progress(tt.scrollY, 1000); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Progress(%v) = %v, want %v", tt.scrollY, got, tt.want)
		}
	}
}

func TestRegionWithoutExtent(t *testing.T) {
	for _, height := range []float64{0, -10, 500, 1000} {
		r := Region{Top: 100, Height: height}
		before := r.Progress(50, 1000)
		after := r.Progress(150, 1000)
		if math.IsNaN(before) || math.IsNaN(after) || math.IsInf(after, 0) {
			t.Fatalf("height %v: progress not finite", height)
		}
		if before != 0 || after != 1 {
			t.Errorf("height %v: got %v/%v, want 0/1", height, before, after)
		}
	}
}

func TestTargetFrameBounds(t *testing.T) {
	const n = 82
	if got := TargetFrame(0, n); got != 0 {
		t.Errorf("p=0 -> %v, want 0", got)
	}
	if got := TargetFrame(1, n); got != n-1 {
		t.Errorf("p=1 -> %v, want %d", got, n-1)
	}

	prev := -1.0
	for i := 0; i <= 1000; i++ {
		p := float64(i) / 1000
		f := TargetFrame(p, n)
		if f < 0 || f > n-1 {
			t.Fatalf("p=%v -> %v out of range", p, f)
		}
		if f < prev {
			t.Fatalf("not monotonic at p=%v: %v < %v", p, f, prev)
		}
		prev = f
	}

	for _, p := range []float64{-1, 2, math.NaN(), math.Inf(1)} {
		if f := TargetFrame(p, n); f < 0 || f > n-1 || math.IsNaN(f) {
			t.Errorf("p=%v -> %v out of range", p, f)
		}
	}

	if f := TargetFrame(0.5, 1); f != 0 {
		t.Errorf("single frame sequence -> %v, want 0", f)
	}
}

func TestObserverNotifiesLatest(t *testing.T) {
	o := NewObserver(Region{Top: 0, Height: 2000}, 1000)

	var got []float64
	unsubscribe := o.Subscribe(func(p float64) { got = append(got, p) })

	o.Scroll(250)
	o.Scroll(500)
	o.ResizeViewport(1500)
	o.ScrollBy(-1000)

	want := []float64{0.25, 0.5, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("update %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if o.ScrollY() != 0 {
		t.Errorf("scroll offset must not go negative, got %v", o.ScrollY())
	}

	unsubscribe()
	unsubscribe()
	o.Scroll(100)
	if len(got) != len(want) {
		t.Errorf("handler called after unsubscribe")
	}
}

func TestObserverScrollToProgress(t *testing.T) {
	o := NewObserver(Region{Top: 200, Height: 3000}, 1000)
	o.ScrollToProgress(0.5)
	if got := o.ScrollY(); got != 1200 {
		t.Errorf("ScrollY = %v, want 1200", got)
	}
	if got := o.Progress(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Progress = %v, want 0.5", got)
	}
	if got := o.MaxScroll(); got != 2200 {
		t.Errorf("MaxScroll = %v, want 2200", got)
	}
}
