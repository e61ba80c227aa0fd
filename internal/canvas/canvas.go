// Package canvas is an off-screen 2D drawing surface with a logical size and
// a device-pixel-ratio scaled backing store, the Go counterpart of an HTML
// canvas used by the sequence player.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/ivlev/keyscroll/internal/system"
)

// Surface is what the player renders onto.
type Surface interface {
	// Size returns the logical size of the surface.
	Size() (w, h float64)
	Clear(c color.Color)
	DrawImage(img image.Image, dst Rect)
}

// Canvas keeps its backing store in device pixels: logical size * DPR.
// It is not safe for concurrent use; the owner serializes access.
type Canvas struct {
	width, height float64
	dpr           float64
	scaler        draw.Scaler
	img           *image.RGBA
}

func New(width, height int, dpr float64, scaler draw.Scaler) *Canvas {
	if scaler == nil {
		scaler = draw.ApproxBiLinear
	}
	c := &Canvas{scaler: scaler}
	c.Resize(width, height, dpr)
	return c
}

// Resize reallocates the backing store for the new logical size and device
// pixel ratio. The previous contents are dropped.
func (c *Canvas) Resize(width, height int, dpr float64) {
	if dpr <= 0 {
		dpr = 1
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width, c.height, c.dpr = float64(width), float64(height), dpr

	rect := image.Rect(0, 0, int(float64(width)*dpr), int(float64(height)*dpr))
	if c.img != nil && c.img.Rect == rect {
		return
	}
	system.PutImage(c.img)
	c.img = system.GetImage(rect)
}

func (c *Canvas) Size() (float64, float64) {
	return c.width, c.height
}

func (c *Canvas) DPR() float64 {
	return c.dpr
}

// Image exposes the backing store. Callers must not keep it across Resize.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Rect, image.NewUniform(col), image.Point{}, draw.Src)
}

// DrawImage scales img into dst (logical pixels), clipping whatever falls
// outside the backing store.
func (c *Canvas) DrawImage(img image.Image, dst Rect) {
	dr := dst.Scale(c.dpr).Pixels()
	if dr.Empty() || c.img.Rect.Empty() {
		return
	}
	c.scaler.Scale(c.img, dr, img, img.Bounds(), draw.Over, nil)
}

// ParseScaler maps a config name to an x/image scaler.
func ParseScaler(name string) (draw.Scaler, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return draw.NearestNeighbor, nil
	case "bilinear", "":
		return draw.ApproxBiLinear, nil
	case "bilinear-exact":
		return draw.BiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown scaler: %s", name)
	}
}

// ParseColor accepts "#rrggbb" hex colours.
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
