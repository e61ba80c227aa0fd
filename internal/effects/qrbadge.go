package effects

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

// QRBadge stamps a QR code with a link into the bottom-right corner. The
// code is rendered once per theme so it stays readable on both.
type QRBadge struct {
	Link   string
	Margin int

	light image.Image
	dark  image.Image
}

func NewQRBadge(link string, size int, light, dark colorful.Color) (*QRBadge, error) {
	if link == "" {
		return nil, fmt.Errorf("qr badge: empty link")
	}
	if size <= 0 {
		return nil, fmt.Errorf("qr badge: invalid size %d", size)
	}

	render := func(fg, bg colorful.Color) (image.Image, error) {
		q, err := qrcode.New(link, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("qr badge: %w", err)
		}
		q.ForegroundColor = fg
		q.BackgroundColor = bg
		return q.Image(size), nil
	}

	onLight, err := render(dark, light)
	if err != nil {
		return nil, err
	}
	onDark, err := render(light, dark)
	if err != nil {
		return nil, err
	}

	return &QRBadge{
		Link:   link,
		Margin: max(4, size/8),
		light:  onLight,
		dark:   onDark,
	}, nil
}

// Image returns the badge for a theme
func (b *QRBadge) Image(t Theme) image.Image {
	if t == Dark {
		return b.dark
	}
	return b.light
}

func (b *QRBadge) Apply(dst *image.RGBA, st FrameState) {
	img := b.Image(st.Theme)
	ib := img.Bounds()
	bounds := dst.Bounds()
	if ib.Dx()+2*b.Margin > bounds.Dx() || ib.Dy()+2*b.Margin > bounds.Dy() {
		// frame too small for the badge
		return
	}

	r := image.Rect(
		bounds.Max.X-b.Margin-ib.Dx(),
		bounds.Max.Y-b.Margin-ib.Dy(),
		bounds.Max.X-b.Margin,
		bounds.Max.Y-b.Margin,
	)
	draw.Draw(dst, r, img, ib.Min, draw.Over)
}
