// Package collage renders the composite marketing image: up to three
// page rasters arranged in tilted, overlapping slots over a cover-fit
// background on a fixed 1280x720 canvas.
package collage

// Layout parameter bounds. Values outside are clamped, never rejected.
const (
	MinPageWidth = 100.0
	MaxPageWidth = 600.0
	MinOverlap   = 0.0
	MaxOverlap   = 300.0
	MinTilt      = 0.0
	MaxTilt      = 45.0

	// Pages keep a fixed 2:3 aspect; height is always derived.
	pageAspect = 1.5
)

// Params are the layout knobs shared by every document in a session.
type Params struct {
	PageWidth   float64 // slot width in canvas pixels
	Overlap     float64 // how far the side slots are pulled toward the center
	TiltDegrees float64 // side slot rotation, left leans one way and right the other
}

// Default is the fanned-collage look used until the caller adjusts anything.
var Default = Params{PageWidth: 300, Overlap: 100, TiltDegrees: 15}

// PageHeight derives the slot height from the fixed aspect ratio.
func (p Params) PageHeight() float64 { return p.PageWidth * pageAspect }

// Clamp returns a copy with every field forced into its allowed range.
func (p Params) Clamp() Params {
	p.PageWidth = clamp(p.PageWidth, MinPageWidth, MaxPageWidth)
	p.Overlap = clamp(p.Overlap, MinOverlap, MaxOverlap)
	p.TiltDegrees = clamp(p.TiltDegrees, MinTilt, MaxTilt)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
