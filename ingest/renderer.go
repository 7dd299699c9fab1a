package ingest

import "image"

// Renderer opens raw PDF bytes for page rasterization. New wires the
// MuPDF implementation; tests substitute fakes via NewWithRenderer.
type Renderer interface {
	Open(data []byte) (Doc, error)
}

// Doc is one open document handle. Pages are addressed 0-based, the
// way the underlying renderers count them.
type Doc interface {
	NumPage() int
	Image(page int) (image.Image, error)
	Close() error
}
