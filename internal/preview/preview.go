// Package preview shows the sequence player in a desktop window driven by
// the mouse wheel and keyboard.
package preview

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ivlev/keyscroll/internal/canvas"
	"github.com/ivlev/keyscroll/internal/config"
	"github.com/ivlev/keyscroll/internal/effects"
	"github.com/ivlev/keyscroll/internal/player"
	"github.com/ivlev/keyscroll/internal/preview/input"
	"github.com/ivlev/keyscroll/internal/scroll"
	"github.com/ivlev/keyscroll/internal/source"
)

// Game is the ebiten side of the preview: Update feeds input into the
// scroll observer and ticks the player, Draw uploads the canvas.
type Game struct {
	ctx      context.Context
	player   *player.Player
	canvas   *canvas.Canvas
	observer *scroll.Observer
	theme    *effects.ThemeSwitcher
	screens  float64

	img           *ebiten.Image
	width, height int
	dpr           float64
}

func NewGame(ctx context.Context, pl *player.Player, cv *canvas.Canvas, observer *scroll.Observer, theme *effects.ThemeSwitcher, screens float64) *Game {
	return &Game{
		ctx:      ctx,
		player:   pl,
		canvas:   cv,
		observer: observer,
		theme:    theme,
		screens:  screens,
	}
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	_, wheelY := ebiten.Wheel()
	in := input.Input{
		WheelY:   wheelY,
		Up:       ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:     ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		PageUp:   inpututil.IsKeyJustPressed(ebiten.KeyPageUp),
		PageDown: inpututil.IsKeyJustPressed(ebiten.KeyPageDown) || inpututil.IsKeyJustPressed(ebiten.KeySpace),
		Home:     inpututil.IsKeyJustPressed(ebiten.KeyHome),
		End:      inpututil.IsKeyJustPressed(ebiten.KeyEnd),
	}
	input.Apply(g.observer, in, float64(g.height))

	g.player.Tick()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.player.WithSurface(func(canvas.Surface) {
		src := g.canvas.Image()
		b := src.Bounds()
		if b.Empty() {
			return
		}
		if g.img == nil || g.img.Bounds().Dx() != b.Dx() || g.img.Bounds().Dy() != b.Dy() {
			if g.img != nil {
				g.img.Deallocate()
			}
			g.img = ebiten.NewImage(b.Dx(), b.Dy())
		}
		g.img.WritePixels(src.Pix)
	})
	if g.img != nil {
		screen.DrawImage(g.img, nil)
	}

	st := g.player.Status()
	if st.State != player.Ready {
		ebitenutil.DebugPrint(screen, input.LoadingLine(st))
		return
	}
	ebitenutil.DebugPrint(screen, input.HUDLine(st, g.theme.Theme(), g.observer.Progress()))
}

// Layout follows the window size: the canvas is resized in logical pixels
// with the monitor scale factor and the page region is kept at the
// configured number of viewport heights.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	dpr := ebiten.Monitor().DeviceScaleFactor()
	if outsideWidth != g.width || outsideHeight != g.height || dpr != g.dpr {
		g.width, g.height, g.dpr = outsideWidth, outsideHeight, dpr
		h := float64(outsideHeight)
		g.observer.SetRegion(scroll.Region{Height: h * g.screens})
		g.observer.ResizeViewport(h)
		g.player.Resize(outsideWidth, outsideHeight, dpr)
	}
	return int(float64(outsideWidth) * dpr), int(float64(outsideHeight) * dpr)
}

// Run opens the preview window and blocks until it is closed or ctx ends.
func Run(ctx context.Context, cfg *config.Config, src source.Source) error {
	scaler, err := canvas.ParseScaler(cfg.Player.Scaler)
	if err != nil {
		return err
	}
	bg, err := canvas.ParseColor(cfg.Player.Background)
	if err != nil {
		return err
	}

	cv := canvas.New(cfg.Width, cfg.Height, cfg.DPR, scaler)
	h := float64(cfg.Height)
	observer := scroll.NewObserver(scroll.Region{Height: h * cfg.RegionScreens}, h)
	theme := effects.NewThemeSwitcher(cfg.Theme.Threshold)
	theme.OnChange(func(t effects.Theme) {
		fmt.Printf("[*] theme: %s\n", t)
	})

	pl, err := player.New(player.Options{
		Config:     cfg.Player,
		Source:     src,
		Surface:    cv,
		Background: bg,
		OnFrame:    theme.OnFrame,
	})
	if err != nil {
		return err
	}
	// the tick loop is ebiten's Update, so only the preload is started here
	if err := pl.Mount(ctx, observer); err != nil {
		return err
	}
	defer pl.Unmount()

	ebiten.SetWindowTitle(fmt.Sprintf("keyscroll (%s)", cfg.BuildVersion))
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Player.TickRate)

	return ebiten.RunGame(NewGame(ctx, pl, cv, observer, theme, cfg.RegionScreens))
}
