package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/keyscroll/internal/config"
)

var ErrOutOfRange = errors.New("frame index out of range")

// Source is an ordered, immutable sequence of frames.
// LoadFrame must be safe to call from several goroutines.
type Source interface {
	FrameCount() int
	FrameDimensions(index int) (width, height float64, err error)
	LoadFrame(ctx context.Context, index int) (image.Image, error)
	Close() error
}

// Open picks a source for input: a PDF document, a directory of images, or,
// when input is empty, the BasePath template from cfg.
func Open(input string, cfg config.Player) (Source, error) {
	switch {
	case input == "":
		return NewSequenceSource(cfg.BasePath, cfg.FrameCount)
	case strings.HasSuffix(strings.ToLower(input), ".pdf"):
		return NewFitzPDFSource(input, cfg.DPI)
	case strings.Contains(input, "://"):
		return NewSequenceSource(input, cfg.FrameCount)
	default:
		return NewImageSource(input)
	}
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, index, count)
	}
	return nil
}
