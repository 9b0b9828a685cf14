package imaging

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultBackgroundTolerance is the CIE76 distance used by RemoveBackground
// when the caller has no preference.
const DefaultBackgroundTolerance = 12

// ErrNoForeground is returned when background removal leaves no opaque pixel.
var ErrNoForeground = errors.New("no foreground found")

// RemoveBackground makes the background of img transparent.
//
// The background is grown from every border pixel: a neighbouring pixel joins
// it when its CIE Lab distance (scaled to the usual 0-100 range) from the
// border pixel the region started at is at most tolerance. Transparent pixels
// are always background. The subject therefore needs to be separated from
// the border by a visible edge.
//
// The result has origin (0,0) and the returned rectangle bounds the remaining
// foreground in that space. ErrNoForeground is returned when every pixel was
// classified as background.
func RemoveBackground(img image.Image, tolerance float64) (*image.NRGBA, image.Rectangle, error) {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, image.Rectangle{}, ErrNoForeground
	}

	labs := make([][3]float64, w*h)
	for i := range labs {
		p := out.Pix[i*4 : i*4+4]
		c := colorful.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255}
		l, a, b := c.Lab()
		labs[i] = [3]float64{l, a, b}
	}
	dist := func(i, j int) float64 {
		dl, da, db := labs[i][0]-labs[j][0], labs[i][1]-labs[j][1], labs[i][2]-labs[j][2]
		return math.Sqrt(dl*dl+da*da+db*db) * 100
	}

	// seed[i] is the border pixel index the fill reached i from, or -1.
	seed := make([]int32, w*h)
	for i := range seed {
		seed[i] = -1
	}
	queue := make([]int, 0, 2*(w+h))
	push := func(i, from int) {
		if seed[i] >= 0 {
			return
		}
		if out.Pix[i*4+3] != 0 && dist(i, from) > tolerance {
			return
		}
		seed[i] = int32(from)
		queue = append(queue, i)
	}

	for x := 0; x < w; x++ {
		push(x, x)
		push((h-1)*w+x, (h-1)*w+x)
	}
	for y := 0; y < h; y++ {
		push(y*w, y*w)
		push(y*w+w-1, y*w+w-1)
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		from := int(seed[i])
		x, y := i%w, i/w
		if x > 0 {
			push(i-1, from)
		}
		if x < w-1 {
			push(i+1, from)
		}
		if y > 0 {
			push(i-w, from)
		}
		if y < h-1 {
			push(i+w, from)
		}
	}

	fg := image.Rectangle{}
	for i, s := range seed {
		if s >= 0 {
			out.Pix[i*4+3] = 0
			continue
		}
		x, y := i%w, i/w
		fg = fg.Union(image.Rect(x, y, x+1, y+1))
	}
	if fg.Empty() {
		return nil, image.Rectangle{}, ErrNoForeground
	}
	return out, fg, nil
}
