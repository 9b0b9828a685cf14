package imaging

import (
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// saliencySize bounds the longest side of the analysed image.
	saliencySize = 256

	// saliencyBlur removes texture and noise before the colour comparison.
	saliencyBlur = 1.5

	// minSalientArea is the smallest region kept, as a fraction of the image.
	minSalientArea = 0.005

	maxSalientRegions = 5
)

// SalientRegion is an attention-grabbing area in pixel coordinates.
type SalientRegion struct {
	Bounds     image.Rectangle
	Confidence float64
}

// Saliency computes a frequency-tuned saliency map of img: each pixel scores
// by its CIE Lab distance from the image's mean colour after a light blur.
//
// The returned heatmap has the size of img with origin (0,0); brighter is more
// salient. Regions are the 4-connected areas scoring at least twice the mean,
// covering at least 0.5% of the image. A region's confidence is its mean
// score relative to the image maximum. At most five regions are returned,
// highest confidence first; a uniform image has none.
func Saliency(img image.Image) (*image.NRGBA, []SalientRegion) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0)), []SalientRegion{}
	}
	small := imaging.Fit(img, saliencySize, saliencySize, imaging.Box)
	w, h := small.Bounds().Dx(), small.Bounds().Dy()
	smoothed := blur.Gaussian(small, saliencyBlur)
	sb := smoothed.Bounds()

	labs := make([][3]float64, w*h)
	var mean [3]float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := smoothed.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			c := colorful.Color{R: float64(r) / 0xffff, G: float64(g) / 0xffff, B: float64(b) / 0xffff}
			l, a, bb := c.Lab()
			labs[y*w+x] = [3]float64{l, a, bb}
			mean[0] += l
			mean[1] += a
			mean[2] += bb
		}
	}
	n := float64(w * h)
	for i := range mean {
		mean[i] /= n
	}

	scores := make([]float64, w*h)
	maxScore, sum := 0.0, 0.0
	for i, lab := range labs {
		dl, da, db := lab[0]-mean[0], lab[1]-mean[1], lab[2]-mean[2]
		s := math.Sqrt(dl*dl + da*da + db*db)
		scores[i] = s
		sum += s
		maxScore = math.Max(maxScore, s)
	}

	// Differences this small are rounding noise from the blur.
	flat := maxScore < 1e-6

	heat := image.NewGray(image.Rect(0, 0, w, h))
	if !flat {
		for i, s := range scores {
			heat.Pix[i] = uint8(math.Round(s / maxScore * 255))
		}
	}
	heatmap := imaging.Resize(heat, bounds.Dx(), bounds.Dy(), imaging.Linear)
	if flat {
		return heatmap, []SalientRegion{}
	}

	threshold := 2 * sum / n
	regions := salientComponents(scores, w, h, threshold, maxScore)

	sx := float64(bounds.Dx()) / float64(w)
	sy := float64(bounds.Dy()) / float64(h)
	for i := range regions {
		r := regions[i].Bounds
		regions[i].Bounds = image.Rect(
			int(math.Floor(float64(r.Min.X)*sx)),
			int(math.Floor(float64(r.Min.Y)*sy)),
			int(math.Ceil(float64(r.Max.X)*sx)),
			int(math.Ceil(float64(r.Max.Y)*sy)),
		).Add(bounds.Min).Intersect(bounds)
	}
	return heatmap, regions
}

// salientComponents labels 4-connected pixels scoring at least threshold and
// returns the qualifying regions in small-image coordinates.
func salientComponents(scores []float64, w, h int, threshold, maxScore float64) []SalientRegion {
	minPixels := int(math.Ceil(minSalientArea * float64(w*h)))
	visited := make([]bool, w*h)
	regions := make([]SalientRegion, 0)

	stack := make([]int, 0, 64)
	for start := range scores {
		if visited[start] || scores[start] < threshold {
			continue
		}

		box := image.Rectangle{}
		total, count := 0.0, 0
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			box = box.Union(image.Rect(x, y, x+1, y+1))
			total += scores[i]
			count++

			for _, j := range [4]int{i - 1, i + 1, i - w, i + w} {
				switch {
				case j < 0 || j >= w*h:
					continue
				case (j == i-1 && x == 0) || (j == i+1 && x == w-1):
					continue
				case visited[j] || scores[j] < threshold:
					continue
				}
				visited[j] = true
				stack = append(stack, j)
			}
		}

		if count < minPixels {
			continue
		}
		regions = append(regions, SalientRegion{
			Bounds:     box,
			Confidence: math.Round(total/float64(count)/maxScore*1000) / 1000,
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Confidence > regions[j].Confidence
	})
	if len(regions) > maxSalientRegions {
		regions = regions[:maxSalientRegions]
	}
	return regions
}
