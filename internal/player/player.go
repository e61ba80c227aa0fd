// Package player implements the scroll-synchronized frame sequence player:
// it preloads a sequence of frames, maps scroll progress to a target frame,
// eases a display frame toward it on a fixed cadence and draws the current
// frame onto a canvas with a cover fit.
//
// Every instance owns its state. Load completions, progress updates, ticks
// and resizes may arrive from different goroutines; they are serialized by
// the player's mutex, and all of them become no-ops after Unmount.
package player

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/keyscroll/internal/canvas"
	"github.com/ivlev/keyscroll/internal/config"
	"github.com/ivlev/keyscroll/internal/scroll"
	"github.com/ivlev/keyscroll/internal/source"
)

var (
	ErrMounted   = errors.New("player already mounted")
	ErrUnmounted = errors.New("player unmounted")
)

// Subscriber is a scroll-progress source.
type Subscriber interface {
	Subscribe(h scroll.Handler) (unsubscribe func())
}

// Resizer is implemented by surfaces whose backing store follows the
// viewport size and device pixel ratio.
type Resizer interface {
	Resize(width, height int, dpr float64)
}

type Options struct {
	Config     config.Player
	Source     source.Source
	Surface    canvas.Surface
	Background color.Color
	// OnFrame is called with every newly rendered frame index, in tick
	// order, outside the player's lock.
	OnFrame func(index int)
	Logger  *log.Logger
}

type Player struct {
	cfg     config.Player
	src     source.Source
	surface canvas.Surface
	bg      color.Color
	onFrame func(int)
	logger  *log.Logger
	stepper Stepper
	n       int

	mu           sync.Mutex
	state        State
	mounted      bool
	load         loadState
	frames       []image.Image
	progress     float64
	target       float64
	display      float64
	lastRendered int
	draws        int

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	readyCh     chan struct{}
	wg          sync.WaitGroup
}

// Status is a consistent snapshot of the player for loading indicators and
// HUDs.
type Status struct {
	State        State
	Loaded       int
	Total        int
	Progress     float64
	Target       float64
	Display      float64
	LastRendered int
	Draws        int
}

func New(opts Options) (*Player, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("player: nil source")
	}
	cfg := opts.Config
	if n := opts.Source.FrameCount(); n > 0 {
		cfg.FrameCount = n
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	bg := opts.Background
	if bg == nil {
		bg = color.Black
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Player{
		cfg:          cfg,
		src:          opts.Source,
		surface:      opts.Surface,
		bg:           bg,
		onFrame:      opts.OnFrame,
		logger:       logger,
		stepper:      NewStepper(cfg),
		n:            cfg.FrameCount,
		load:         newLoadState(cfg.FrameCount),
		frames:       make([]image.Image, cfg.FrameCount),
		lastRendered: -1,
		readyCh:      make(chan struct{}),
	}, nil
}

// Mount moves the player to Loading, subscribes to sub (may be nil) and
// dispatches the preload. It does not start the tick loop; see Start.
// An Unmount that lands while subscribing wins and Mount returns ErrUnmounted.
func (p *Player) Mount(ctx context.Context, sub Subscriber) error {
	p.mu.Lock()
	if p.state != Unloaded {
		p.mu.Unlock()
		return ErrMounted
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.mounted = true
	p.state = Loading
	p.mu.Unlock()

	if sub != nil {
		unsubscribe := sub.Subscribe(p.SetProgress)
		p.mu.Lock()
		if !p.mounted {
			// Unmount ran while subscribing
			p.mu.Unlock()
			unsubscribe()
			return ErrUnmounted
		}
		p.unsubscribe = unsubscribe
		p.mu.Unlock()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.preload(p.ctx)
	}()
	return nil
}

// Start mounts the player and runs the tick loop in the background until
// Unmount or ctx is done.
func (p *Player) Start(ctx context.Context, sub Subscriber) error {
	if err := p.Mount(ctx, sub); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(p.ctx)
	}()
	return nil
}

// Run ticks at the configured rate until ctx is done or the player is
// unmounted. The cadence is independent of any display refresh rate.
func (p *Player) Run(ctx context.Context) error {
	p.mu.Lock()
	mountCtx := p.ctx
	p.mu.Unlock()
	if mountCtx == nil {
		return fmt.Errorf("player: Run before Mount")
	}

	ticker := time.NewTicker(time.Second / time.Duration(p.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-mountCtx.Done():
			return nil
		case <-ticker.C:
			p.Tick()
		}
	}
}

// Unmount detaches the scroll subscription, stops the tick loop and waits
// for background work to exit. Callbacks arriving later change nothing.
func (p *Player) Unmount() {
	p.mu.Lock()
	if !p.mounted {
		p.mu.Unlock()
		return
	}
	p.mounted = false
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	cancel := p.cancel
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	cancel()
	p.wg.Wait()
}

// WaitReady blocks until every frame is loaded. It returns ErrUnmounted if
// the player is torn down first.
func (p *Player) WaitReady(ctx context.Context) error {
	p.mu.Lock()
	mountCtx := p.ctx
	p.mu.Unlock()
	if mountCtx == nil {
		return fmt.Errorf("player: WaitReady before Mount")
	}

	select {
	case <-p.readyCh:
		return nil
	case <-mountCtx.Done():
		select {
		case <-p.readyCh:
			return nil
		default:
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrUnmounted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetProgress is the only write path to the target frame. Later values
// simply overwrite earlier ones.
func (p *Player) SetProgress(progress float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mounted {
		return
	}
	p.progress = scroll.Clamp01(progress)
	p.target = scroll.TargetFrame(p.progress, p.n)
}

// Tick runs one animation step and reports whether a frame was drawn.
func (p *Player) Tick() bool {
	p.mu.Lock()
	if !p.mounted || p.state != Ready {
		p.mu.Unlock()
		return false
	}

	if next, moved := p.stepper.Step(p.display, p.target); moved {
		p.display = next
	}

	// a frame skipped earlier is retried even after the display has settled
	index := frameIndex(p.display, p.n)
	if index == p.lastRendered || !p.renderLocked(index) {
		p.mu.Unlock()
		return false
	}
	p.lastRendered = index
	onFrame := p.onFrame
	p.mu.Unlock()

	if onFrame != nil {
		onFrame(index)
	}
	return true
}

// Resize updates the surface backing store and redraws the frame currently
// on screen right away, without waiting for the next tick.
func (p *Player) Resize(width, height int, dpr float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mounted {
		return false
	}
	if r, ok := p.surface.(Resizer); ok {
		r.Resize(width, height, dpr)
	}
	if p.state != Ready || p.lastRendered < 0 {
		return false
	}
	return p.renderLocked(p.lastRendered)
}

// WithSurface runs fn while holding the player lock so the surface is not
// redrawn underneath it.
func (p *Player) WithSurface(fn func(s canvas.Surface)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.surface)
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		State:        p.state,
		Loaded:       p.load.count,
		Total:        p.n,
		Progress:     p.progress,
		Target:       p.target,
		Display:      p.display,
		LastRendered: p.lastRendered,
		Draws:        p.draws,
	}
}

func (p *Player) preload(ctx context.Context) {
	var g errgroup.Group
	workers := p.cfg.Workers
	if workers <= 0 || workers > p.n {
		workers = p.n
	}
	g.SetLimit(workers)

	for i := 0; i < p.n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			img, err := p.src.LoadFrame(ctx, i)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.Printf("[!] frame %d not loaded: %v", i, err)
				}
				return nil
			}
			p.frameLoaded(i, img)
			return nil
		})
	}
	g.Wait()

	if st := p.Status(); st.State == Loading && ctx.Err() == nil {
		p.logger.Printf("[!] loaded %d/%d frames, sequence stays in %s", st.Loaded, st.Total, st.State)
	}
}

// frameLoaded is the load completion callback. Repeats are ignored; the
// call that completes the set moves the player to Ready and draws frame 0.
func (p *Player) frameLoaded(i int, img image.Image) {
	p.mu.Lock()
	if !p.mounted {
		p.mu.Unlock()
		return
	}
	changed, becameReady := p.load.mark(i)
	if changed {
		p.frames[i] = img
	}
	if !becameReady {
		p.mu.Unlock()
		return
	}

	p.state = Ready
	drawn := p.renderLocked(0)
	if drawn {
		p.lastRendered = 0
	}
	onFrame := p.onFrame
	p.mu.Unlock()

	if drawn && onFrame != nil {
		onFrame(0)
	}
	close(p.readyCh)
}

// renderLocked draws frame i; it is false when the frame is not loaded.
// A nil surface turns drawing into a no-op while the frame still counts as
// rendered.
func (p *Player) renderLocked(i int) bool {
	if !p.load.isLoaded(i) || p.frames[i] == nil {
		return false
	}
	if p.surface != nil {
		canvas.Render(p.surface, p.frames[i], p.bg)
	}
	p.draws++
	return true
}
