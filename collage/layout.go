package collage

import "math"

// Placement positions one slot: the top-left anchor of the unrotated
// page rectangle and the rotation applied about the rectangle's center.
type Placement struct {
	AnchorX float64
	AnchorY float64
	Angle   float64 // radians; positive rotates clockwise on screen
}

// Layout is the resolved geometry for all three slots under one set of
// parameters.
type Layout struct {
	Left   Placement
	Center Placement
	Right  Placement
}

// LayoutFor computes slot placements. The collage is centered on the
// canvas midline: the center page sits exactly in the middle, the side
// pages are pulled inward by Overlap and tilted outward by TiltDegrees.
func LayoutFor(p Params) Layout {
	pw := p.PageWidth
	ph := p.PageHeight()
	tilt := p.TiltDegrees * math.Pi / 180

	cx := float64(CanvasWidth) / 2
	cy := float64(CanvasHeight)/2 - ph/2

	return Layout{
		Left:   Placement{AnchorX: cx - 1.5*pw + p.Overlap, AnchorY: cy, Angle: -tilt},
		Center: Placement{AnchorX: cx - pw/2, AnchorY: cy, Angle: 0},
		Right:  Placement{AnchorX: cx + pw/2 - p.Overlap, AnchorY: cy, Angle: tilt},
	}
}
