package ingest

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

const (
	// baseDPI is the 72dpi PDF point baseline; pages rasterize at
	// baseDPI times the configured scale.
	baseDPI = 72

	// defaultRenderScale keeps thumbnails legible without holding
	// huge page buffers.
	defaultRenderScale = 1.5
)

// NewFitzRenderer builds the MuPDF-backed renderer rasterizing at the
// given scale. Zero or negative scales fall back to the 1.5x default.
func NewFitzRenderer(scale float64) Renderer {
	if scale <= 0 {
		scale = defaultRenderScale
	}
	return fitzRenderer{dpi: baseDPI * scale}
}

type fitzRenderer struct {
	dpi float64
}

func (r fitzRenderer) Open(data []byte) (Doc, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return fitzDoc{Document: doc, dpi: r.dpi}, nil
}

// fitzDoc adapts *fitz.Document to the Doc interface.
type fitzDoc struct {
	*fitz.Document
	dpi float64
}

func (d fitzDoc) Image(page int) (image.Image, error) {
	return d.Document.ImageDPI(page, d.dpi)
}
