package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// Sink receives captured frames in order.
type Sink interface {
	WriteFrame(img *image.RGBA) error
	Close() error
}

// FFmpegEncoder streams raw RGBA frames into an ffmpeg process that encodes
// them to H.264.
type FFmpegEncoder struct {
	Encoder string
	Quality int
	FPS     int
}

// Stream is an open ffmpeg encoding session
type Stream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr lockedBuffer
	width  int
	height int
	closed bool
}

// Open starts ffmpeg writing a width x height video to path.
func (e *FFmpegEncoder) Open(ctx context.Context, path string, width, height int) (*Stream, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	s := &Stream{width: width, height: height}
	s.cmd = exec.CommandContext(ctx, "ffmpeg", e.buildFFmpegArgs(width, height, path)...)
	s.cmd.Stderr = &s.stderr

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return s, nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(width, height int, videoPath string) []string {
	fps := e.FPS
	if fps <= 0 {
		fps = 30
	}
	args := []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		// yuv420p needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", e.Encoder,
	}

	// Качество в зависимости от энкодера
	switch e.Encoder {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	args = append(args, "-movflags", "+faststart", videoPath)
	return args
}

// WriteFrame sends one frame; its size must match the stream.
func (s *Stream) WriteFrame(img *image.RGBA) error {
	if s.closed {
		return fmt.Errorf("stream closed")
	}
	if b := img.Bounds(); b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("frame %dx%d does not match stream %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w (%s)", err, s.stderr.Tail())
	}
	return nil
}

// Close finishes the stream and waits for ffmpeg to exit.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, s.stderr.Tail())
	}
	return nil
}

// lockedBuffer collects ffmpeg stderr. os/exec copies into it from its own
// goroutine while WriteFrame may read it on a failed write.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Tail returns the trimmed output collected so far.
func (b *lockedBuffer) Tail() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(bytes.TrimSpace(b.buf.Bytes()))
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	if img.Stride != bounds.Dx()*4 {
		tight := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(tight, tight.Bounds(), img, bounds.Min, draw.Src)
		img = tight
	}
	_, err := w.Write(img.Pix[:bounds.Dx()*bounds.Dy()*4])
	return err
}
