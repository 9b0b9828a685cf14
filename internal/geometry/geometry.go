// Package geometry holds the normalized coordinate types shared by the
// vision provider and the response codec.
//
// Normalized space spans the unit square with the origin at the bottom-left
// corner and Y growing upward. A Rect's (X, Y) is its bottom-left corner.
package geometry

import (
	"image"
	"math"
)

// Rect is a rectangle in normalized bottom-left-origin space.
type Rect struct {
	X, Y, W, H float64
}

// Point is a point in normalized bottom-left-origin space.
type Point struct {
	X, Y float64
}

// NormalizeRect converts r, given in the top-left pixel space of an image with
// the given bounds, into normalized space.
func NormalizeRect(r, bounds image.Rectangle) Rect {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	if w == 0 || h == 0 {
		return Rect{}
	}
	r = r.Sub(bounds.Min)
	return Rect{
		X: float64(r.Min.X) / w,
		Y: 1 - float64(r.Max.Y)/h,
		W: float64(r.Dx()) / w,
		H: float64(r.Dy()) / h,
	}
}

// NormalizePoint converts p, given in the top-left pixel space of an image
// with the given bounds, into normalized space.
func NormalizePoint(p image.Point, bounds image.Rectangle) Point {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	if w == 0 || h == 0 {
		return Point{}
	}
	p = p.Sub(bounds.Min)
	return Point{X: float64(p.X) / w, Y: 1 - float64(p.Y)/h}
}

// PixelRect maps r back onto an image with the given bounds, rounding
// outward to whole pixels and clipping to the bounds.
func PixelRect(r Rect, bounds image.Rectangle) image.Rectangle {
	const eps = 1e-6
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	px := image.Rect(
		int(math.Floor(r.X*w+eps)),
		int(math.Floor((1-r.Y-r.H)*h+eps)),
		int(math.Ceil((r.X+r.W)*w-eps)),
		int(math.Ceil((1-r.Y)*h-eps)),
	)
	return px.Add(bounds.Min).Intersect(bounds)
}
