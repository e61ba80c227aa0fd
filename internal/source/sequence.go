package source

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/ivlev/keyscroll/internal/config"
)

// SequenceSource addresses frames by BasePath + zero-padded index + ".png",
// on disk or behind an http(s) base URL.
type SequenceSource struct {
	tmpl   config.Player
	remote bool
	client *http.Client
}

func NewSequenceSource(basePath string, count int) (*SequenceSource, error) {
	if basePath == "" {
		return nil, fmt.Errorf("empty frame base path")
	}
	if count <= 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", count)
	}
	lower := strings.ToLower(basePath)
	return &SequenceSource{
		tmpl:   config.Player{BasePath: basePath, FrameCount: count},
		remote: strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"),
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *SequenceSource) FrameCount() int {
	return s.tmpl.FrameCount
}

// Path returns the location of frame index.
func (s *SequenceSource) Path(index int) string {
	return s.tmpl.FramePath(index)
}

func (s *SequenceSource) FrameDimensions(index int) (float64, float64, error) {
	if err := checkIndex(index, s.tmpl.FrameCount); err != nil {
		return 0, 0, err
	}
	if !s.remote {
		return decodeConfigFile(s.Path(index))
	}
	img, err := s.fetch(context.Background(), index)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}

func (s *SequenceSource) LoadFrame(ctx context.Context, index int) (image.Image, error) {
	if err := checkIndex(index, s.tmpl.FrameCount); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.remote {
		return s.fetch(ctx, index)
	}
	return decodeFile(s.Path(index))
}

func (s *SequenceSource) fetch(ctx context.Context, index int) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Path(index), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("frame %d: %s", index, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", index, err)
	}
	return img, nil
}

func (s *SequenceSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
