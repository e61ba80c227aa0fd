// Package scroll turns a page scroll offset into progress through a scroll
// region and fans it out to subscribers.
package scroll

import (
	"math"
	"sync"
)

// Region is the element whose passage through the viewport drives progress,
// in document pixels.
type Region struct {
	Top    float64
	Height float64
}

// Progress is 0 when the region top meets the viewport top and 1 when the
// region bottom meets the viewport bottom. A region no taller than the
// viewport has no extent: progress jumps from 0 to 1 at its top.
func (r Region) Progress(scrollY, viewportH float64) float64 {
	extent := r.Height - viewportH
	offset := scrollY - r.Top
	if extent <= 0 || math.IsNaN(extent) {
		if offset < 0 {
			return 0
		}
		return 1
	}
	return Clamp01(offset / extent)
}

func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TargetFrame maps progress to a continuous frame position in [0, n-1].
func TargetFrame(progress float64, n int) float64 {
	if n <= 1 {
		return 0
	}
	last := float64(n - 1)
	return math.Min(last, math.Max(0, Clamp01(progress)*last))
}

// Handler receives every recomputed progress value.
type Handler func(progress float64)

// Observer tracks the scroll offset and viewport height for one region.
// Scroll and ResizeViewport may be called at any rate; each call notifies
// all subscribers with the latest value, nothing is queued.
type Observer struct {
	mu        sync.Mutex
	region    Region
	scrollY   float64
	viewportH float64
	progress  float64
	nextID    int
	handlers  map[int]Handler
}

func NewObserver(region Region, viewportH float64) *Observer {
	o := &Observer{
		region:    region,
		viewportH: viewportH,
		handlers:  make(map[int]Handler),
	}
	o.progress = region.Progress(0, viewportH)
	return o
}

// Subscribe registers h and returns the function that removes it.
// Calling the returned function more than once is harmless.
func (o *Observer) Subscribe(h Handler) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.handlers[id] = h
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.handlers, id)
			o.mu.Unlock()
		})
	}
}

func (o *Observer) Scroll(y float64) {
	o.update(func() { o.scrollY = y })
}

func (o *Observer) ScrollBy(dy float64) {
	o.update(func() { o.scrollY += dy })
}

func (o *Observer) ResizeViewport(h float64) {
	o.update(func() { o.viewportH = h })
}

func (o *Observer) SetRegion(r Region) {
	o.update(func() { o.region = r })
}

// ScrollToProgress positions the page so the region is at progress p.
func (o *Observer) ScrollToProgress(p float64) {
	o.update(func() {
		extent := math.Max(0, o.region.Height-o.viewportH)
		o.scrollY = o.region.Top + Clamp01(p)*extent
	})
}

func (o *Observer) Progress() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

func (o *Observer) ScrollY() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scrollY
}

// MaxScroll is the largest offset that still keeps the region in play.
func (o *Observer) MaxScroll() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.region.Top + math.Max(0, o.region.Height-o.viewportH)
}

func (o *Observer) update(mutate func()) {
	o.mu.Lock()
	mutate()
	if o.scrollY < 0 {
		o.scrollY = 0
	}
	o.progress = o.region.Progress(o.scrollY, o.viewportH)
	p := o.progress
	handlers := make([]Handler, 0, len(o.handlers))
	for _, h := range o.handlers {
		handlers = append(handlers, h)
	}
	o.mu.Unlock()

	for _, h := range handlers {
		h(p)
	}
}
