package video

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNGSink writes every frame to Dir as a zero-padded numbered PNG.
type PNGSink struct {
	Dir    string
	Digits int

	encoder png.Encoder
	next    int
}

func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &PNGSink{
		Dir:     dir,
		Digits:  3,
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

// Path returns the file name of frame i
func (s *PNGSink) Path(i int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%0*d.png", s.Digits, i))
}

func (s *PNGSink) WriteFrame(img *image.RGBA) error {
	f, err := os.Create(s.Path(s.next))
	if err != nil {
		return err
	}
	if err := s.encoder.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("png encode error: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.next++
	return nil
}

// Frames returns the number of frames written so far
func (s *PNGSink) Frames() int {
	return s.next
}

func (s *PNGSink) Close() error {
	return nil
}

// MultiSink writes every frame to all sinks
type MultiSink []Sink

func (m MultiSink) WriteFrame(img *image.RGBA) error {
	for _, s := range m {
		if err := s.WriteFrame(img); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
