package source

import (
	"context"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// FitzPDFSource treats every page of a PDF as one frame of the sequence.
type FitzPDFSource struct {
	mu    sync.Mutex
	doc   *fitz.Document
	path  string
	dpi   int
	pages int
}

func NewFitzPDFSource(path string, dpi int) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = 150
	}
	return &FitzPDFSource{doc: doc, path: path, dpi: dpi, pages: doc.NumPage()}, nil
}

func (f *FitzPDFSource) FrameCount() int {
	return f.pages
}

func (f *FitzPDFSource) FrameDimensions(index int) (float64, float64, error) {
	if err := checkIndex(index, f.pages); err != nil {
		return 0, 0, err
	}
	f.mu.Lock()
	rect, err := f.doc.Bound(index)
	f.mu.Unlock()
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// LoadFrame opens its own document so preload workers do not contend on one
// MuPDF context.
func (f *FitzPDFSource) LoadFrame(ctx context.Context, index int) (image.Image, error) {
	if err := checkIndex(index, f.pages); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(f.dpi))
}

func (f *FitzPDFSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Close()
}
