// Package geometry provides the coordinate utilities used to reconcile
// bounding boxes across the raw structural sources: normalization of ratio vs
// absolute pixel coordinates, and centroid-proximity matching.
package geometry

import "math"

// DefaultPageWidth and DefaultPageHeight are the fallback page dimensions in
// pixels (A4 at 72 dpi) used to scale normalized coordinates when the layout
// source is unavailable.
const (
	DefaultPageWidth  = 595
	DefaultPageHeight = 841
)

// MatchTolerance is the default centroid distance, in pixels, under which two
// boxes are considered to describe the same asset.
const MatchTolerance = 50.0

// BBox is an integer pixel rectangle.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Centroid returns the center point of the rectangle.
func (b BBox) Centroid() (x, y float64) {
	return float64(b.X1+b.X2) / 2, float64(b.Y1+b.Y2) / 2
}

// ParseBBox converts a raw [x1,y1,x2,y2] coordinate list into a pixel
// rectangle. Coordinates where every value lies in [0,1] are treated as
// normalized ratios and scaled by the page dimensions; anything else is taken
// as absolute pixels. Short or missing input yields the zero rectangle.
func ParseBBox(raw []float64, pageWidth, pageHeight int) BBox {
	if len(raw) < 4 {
		return BBox{}
	}
	normalized := true
	for _, v := range raw[:4] {
		if v < 0 || v > 1 {
			normalized = false
			break
		}
	}
	if normalized && pageWidth > 0 && pageHeight > 0 {
		return BBox{
			X1: int(raw[0] * float64(pageWidth)),
			Y1: int(raw[1] * float64(pageHeight)),
			X2: int(raw[2] * float64(pageWidth)),
			Y2: int(raw[3] * float64(pageHeight)),
		}
	}
	return BBox{X1: int(raw[0]), Y1: int(raw[1]), X2: int(raw[2]), Y2: int(raw[3])}
}

// CentroidsWithin reports whether the centroid of b lies within tolerance
// pixels of the centroid of the raw [x1,y1,x2,y2] candidate. Used to match a
// primary-source element against same-page, same-type candidates from the
// secondary source.
func CentroidsWithin(b BBox, candidate []float64, tolerance float64) bool {
	if len(candidate) < 4 {
		return false
	}
	cx1, cy1 := b.Centroid()
	cx2 := (candidate[0] + candidate[2]) / 2
	cy2 := (candidate[1] + candidate[3]) / 2
	return math.Hypot(cx1-cx2, cy1-cy2) < tolerance
}
