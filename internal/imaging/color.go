package imaging

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// colorSampleSize bounds the longest side analysed by DominantColors. Larger
// images are downscaled with nearest-neighbour sampling, which keeps the
// original colours.
const colorSampleSize = 512

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ColorFrequency represents a color and its share of the image.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#rrggbb" (bucket mean)
	Percentage float64  `json:"percentage"` // Share of opaque pixels in the bucket (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components (bucket mean)
}

// colorBucket accumulates the pixels that quantize to the same key.
type colorBucket struct {
	r, g, b, n int
}

func (cb colorBucket) mean() RGBColor {
	avg := func(sum int) uint8 { return uint8((sum + cb.n/2) / cb.n) }
	return RGBColor{R: avg(cb.r), G: avg(cb.g), B: avg(cb.b)}
}

// DominantColors returns up to count of the most frequent colors in img,
// sorted by frequency in descending order.
//
// # Color Quantization
//
// To group similar colors each 8-bit component is rounded down to a multiple
// of 16:
//
//	bucket = (original / 16) * 16
//
// so #F0F0F0 and #FAFAFA fall into the same bucket. Each bucket is reported
// as the mean of its pixels, so a white image yields #ffffff. Fully
// transparent pixels are ignored; an image with no opaque pixel yields an
// empty slice.
func DominantColors(img image.Image, count int) []ColorFrequency {
	if count <= 0 {
		return []ColorFrequency{}
	}

	b := img.Bounds()
	if b.Dx() > colorSampleSize || b.Dy() > colorSampleSize {
		img = imaging.Fit(img, colorSampleSize, colorSampleSize, imaging.NearestNeighbor)
		b = img.Bounds()
	}

	buckets := make(map[RGBColor]*colorBucket)
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			key := RGBColor{R: c.R / 16 * 16, G: c.G / 16 * 16, B: c.B / 16 * 16}
			cb := buckets[key]
			if cb == nil {
				cb = &colorBucket{}
				buckets[key] = cb
			}
			cb.r += int(c.R)
			cb.g += int(c.G)
			cb.b += int(c.B)
			cb.n++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(buckets))
	for _, cb := range buckets {
		rgb := cb.mean()
		colors = append(colors, ColorFrequency{
			Hex:        hexColor(rgb),
			Percentage: math.Round(float64(cb.n)/float64(total)*10000) / 100,
			RGB:        rgb,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

func hexColor(c RGBColor) string {
	cf, _ := colorful.MakeColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	return cf.Hex()
}
