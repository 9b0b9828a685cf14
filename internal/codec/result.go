package codec

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/ironsheep/vision-tools-plugin/internal/geometry"
)

// EncodingFailure is returned by Encode when a value cannot be serialized.
const EncodingFailure = `{"error":"JSON encoding failed"}`

// Encode serializes v as compact JSON. Map keys are sorted and HTML
// characters are not escaped. Values JSON cannot represent, such as NaN,
// yield EncodingFailure.
func Encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return EncodingFailure
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// ErrorResult is the response body for a failed call.
func ErrorResult(message string) string {
	return Encode(map[string]string{"error": message})
}

// PixelRect is a rectangle in top-left-origin pixel space.
type PixelRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PixelPoint is a point in top-left-origin pixel space.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DenormalizeRect maps a normalized bottom-left-origin rectangle onto a
// width x height image:
//
//	x = r.X*W, y = (1-r.Y-r.H)*H, width = r.W*W, height = r.H*H
//
// Values are rounded to two decimals.
func DenormalizeRect(r geometry.Rect, width, height int) PixelRect {
	w, h := float64(width), float64(height)
	return PixelRect{
		X:      round2(r.X * w),
		Y:      round2((1 - r.Y - r.H) * h),
		Width:  round2(r.W * w),
		Height: round2(r.H * h),
	}
}

// DenormalizePoint maps a normalized bottom-left-origin point onto a
// width x height image: x = p.X*W, y = (1-p.Y)*H.
func DenormalizePoint(p geometry.Point, width, height int) PixelPoint {
	return PixelPoint{
		X: round2(p.X * float64(width)),
		Y: round2((1 - p.Y) * float64(height)),
	}
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // normalizes -0
	}
	return r
}
