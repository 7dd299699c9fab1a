package collage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Canvas dimensions. Output size never depends on the inputs.
const (
	CanvasWidth  = 1280
	CanvasHeight = 720
)

// Slots carries the page raster chosen for each position. A nil slot
// is simply skipped; the others are still drawn.
type Slots struct {
	Left   image.Image
	Center image.Image
	Right  image.Image
}

// Compose renders the collage: a white-cleared canvas, the background
// scaled to cover it, then the slots drawn sides first and center last
// so the center page always sits on top. Deterministic for identical
// inputs.
func Compose(background image.Image, slots Slots, params Params) *image.NRGBA {
	params = params.Clamp()

	canvas := imaging.New(CanvasWidth, CanvasHeight, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	if background != nil && !background.Bounds().Empty() {
		drawBackground(canvas, background)
	}

	layout := LayoutFor(params)
	drawSlot(canvas, slots.Left, layout.Left, params)
	drawSlot(canvas, slots.Right, layout.Right, params)
	drawSlot(canvas, slots.Center, layout.Center, params)

	log.Debug().
		Float64("page_width", params.PageWidth).
		Float64("overlap", params.Overlap).
		Float64("tilt_deg", params.TiltDegrees).
		Bool("has_background", background != nil).
		Msg("composed collage")

	return canvas
}

// drawBackground cover-fits the image: scale preserving aspect ratio
// until both canvas axes are filled, center, and let the overflowing
// axis crop at the canvas edge.
func drawBackground(canvas *image.NRGBA, bg image.Image) {
	b := bg.Bounds()
	bgW := float64(b.Dx())
	bgH := float64(b.Dy())
	canvasAspect := float64(CanvasWidth) / float64(CanvasHeight)

	var drawW, drawH float64
	if bgW/bgH > canvasAspect {
		drawH = CanvasHeight
		drawW = bgW * CanvasHeight / bgH
	} else {
		drawW = CanvasWidth
		drawH = bgH * CanvasWidth / bgW
	}
	offX := (CanvasWidth - drawW) / 2
	offY := (CanvasHeight - drawH) / 2

	dr := image.Rect(
		int(math.Round(offX)),
		int(math.Round(offY)),
		int(math.Round(offX+drawW)),
		int(math.Round(offY+drawH)),
	)
	draw.CatmullRom.Scale(canvas, dr, bg, b, draw.Over, nil)
}

// drawSlot scales src to the slot size and draws it rotated about the
// slot center. The transform is built per slot from scratch, so slots
// never inherit each other's rotation.
func drawSlot(canvas *image.NRGBA, src image.Image, pl Placement, p Params) {
	if src == nil {
		return
	}
	sb := src.Bounds()
	if sb.Empty() {
		return
	}

	pw := p.PageWidth
	ph := p.PageHeight()
	kx := pw / float64(sb.Dx())
	ky := ph / float64(sb.Dy())
	sin, cos := math.Sincos(pl.Angle)

	// Slot center, the rotation pivot.
	cx := pl.AnchorX + pw/2
	cy := pl.AnchorY + ph/2

	// Maps source pixels (relative to sb.Min) through scale, rotate
	// about the slot center, translate to the pivot.
	minX := float64(sb.Min.X)
	minY := float64(sb.Min.Y)
	m := f64.Aff3{
		cos * kx, -sin * ky, cx - (cos*pw-sin*ph)/2 - cos*kx*minX + sin*ky*minY,
		sin * kx, cos * ky, cy - (sin*pw+cos*ph)/2 - sin*kx*minX - cos*ky*minY,
	}
	draw.CatmullRom.Transform(canvas, m, src, sb, draw.Over, nil)
}

// EncodePNG returns the canvas as lossless PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
