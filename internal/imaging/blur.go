package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Blur applies a Gaussian blur of the given radius to the whole image.
// A radius of zero or less returns an unblurred copy.
func Blur(img image.Image, radius float64) image.Image {
	if radius <= 0 {
		return imaging.Clone(img)
	}
	return blur.Gaussian(img, radius)
}

// BlurRegions returns a copy of img in which only the given regions are
// blurred. Regions are in img's coordinate space and are clipped to its
// bounds; the result's origin is (0,0).
func BlurRegions(img image.Image, regions []image.Rectangle, radius float64) *image.NRGBA {
	bounds := img.Bounds()
	out := imaging.Clone(img)
	if radius <= 0 {
		return out
	}

	for _, r := range regions {
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		blurred := blur.Gaussian(imaging.Crop(img, r), radius)
		out = imaging.Paste(out, blurred, r.Min.Sub(bounds.Min))
	}
	return out
}
