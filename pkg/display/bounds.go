// Package display resolves the primary display rectangle, caches it for the
// event callback and signals when the display configuration changes.
package display

import (
	"fmt"
	"image"
	"math"
)

// Point is a location in global screen coordinates.
type Point struct {
	X float64
	Y float64
}

// Bounds is a rectangle in global screen coordinates. MaxX and MaxY are
// exclusive edges.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// FromRectangle converts an integer rectangle into Bounds.
func FromRectangle(r image.Rectangle) Bounds {
	return Bounds{
		MinX: float64(r.Min.X),
		MinY: float64(r.Min.Y),
		MaxX: float64(r.Max.X),
		MaxY: float64(r.Max.Y),
	}
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Valid reports whether the rectangle can hold at least one pixel.
func (b Bounds) Valid() bool {
	for _, v := range []float64{b.MinX, b.MinY, b.MaxX, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Width() >= 1 && b.Height() >= 1
}

// Contains reports whether p lies inside the rectangle (exclusive max edges).
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X < b.MaxX && p.Y >= b.MinY && p.Y < b.MaxY
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() Point {
	return Point{X: b.MinX + b.Width()/2, Y: b.MinY + b.Height()/2}
}

// Clamp constrains p to [MinX, MaxX-1] x [MinY, MaxY-1]. Points already
// inside that range are returned unchanged.
func (b Bounds) Clamp(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, b.MinX), b.MaxX-1),
		Y: math.Min(math.Max(p.Y, b.MinY), b.MaxY-1),
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("{%g,%g %gx%g}", b.MinX, b.MinY, b.Width(), b.Height())
}
