package video

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
)

func TestBuildFFmpegArgs(t *testing.T) {
	tests := []struct {
		encoder string
		quality int
		want    []string
	}{
		{"libx264", 23, []string{"-crf", "23", "-preset", "medium"}},
		{"h264_nvenc", 28, []string{"-cq", "28"}},
		{"h264_videotoolbox", 75, []string{"-b:v", "7500k"}},
	}

	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			e := &FFmpegEncoder{Encoder: tt.encoder, Quality: tt.quality, FPS: 30}
			args := e.buildFFmpegArgs(1280, 720, "out.mp4")

			if args[len(args)-1] != "out.mp4" {
				t.Errorf("output path must be the last argument: %v", args)
			}
			i := slices.Index(args, tt.want[0])
			if i < 0 || !slices.Equal(args[i:i+len(tt.want)], tt.want) {
				t.Errorf("quality args %v not found in %v", tt.want, args)
			}
			for _, pair := range [][]string{{"-video_size", "1280x720"}, {"-framerate", "30"}, {"-c:v", tt.encoder}, {"-pixel_format", "rgba"}} {
				j := slices.Index(args, pair[0])
				if j < 0 || args[j+1] != pair[1] {
					t.Errorf("missing %s %s in %v", pair[0], pair[1], args)
				}
			}
		})
	}
}

func TestWriteRawRGBA(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range full.Pix {
		full.Pix[i] = byte(i)
	}

	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, full); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), full.Pix) {
		t.Error("tight image must be written as is")
	}

	// a sub-image has a wider stride than its width
	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	buf.Reset()
	if err := writeRawRGBA(&buf, sub); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2*2*4 {
		t.Fatalf("wrote %d bytes, want 16", buf.Len())
	}
	if got, want := buf.Bytes()[0], full.Pix[full.PixOffset(1, 1)]; got != want {
		t.Errorf("first byte = %d, want %d", got, want)
	}
}

func TestLockedBufferConcurrentTail(t *testing.T) {
	var b lockedBuffer
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Write([]byte("broken pipe\n"))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Tail()
			}
		}()
	}
	wg.Wait()

	tail := b.Tail()
	if got := strings.Count(tail, "broken pipe"); got != 400 {
		t.Errorf("collected %d lines, want 400", got)
	}
	if strings.HasSuffix(tail, "\n") {
		t.Error("tail not trimmed")
	}
}

func TestPNGSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	sink, err := NewPNGSink(dir)
	if err != nil {
		t.Fatalf("NewPNGSink failed: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})

	var m Sink = MultiSink{sink}
	for i := 0; i < 2; i++ {
		if err := m.WriteFrame(img); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	if sink.Frames() != 2 {
		t.Errorf("Frames() = %d", sink.Frames())
	}
	f, err := os.Open(filepath.Join(dir, "001.png"))
	if err != nil {
		t.Fatalf("second frame missing: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := decoded.At(0, 0).RGBA(); r>>8 != 255 || decoded.Bounds().Dx() != 3 {
		t.Errorf("unexpected decoded frame %v", decoded.Bounds())
	}
}
