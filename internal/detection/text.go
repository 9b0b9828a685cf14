package detection

import (
	"image"
	"math"
	"sort"
)

// TextRegion is an area likely to contain text, in pixel coordinates.
type TextRegion struct {
	Bounds     image.Rectangle
	Confidence float64
}

// textWindows are the sliding window sizes scanned for text-like edge density.
var textWindows = []struct{ w, h int }{
	{80, 25},
	{100, 30},
	{150, 40},
	{200, 50},
}

// DetectTextRegions finds regions likely to contain text without recognizing
// it. Windows with medium edge density and predominantly horizontal edge runs
// are kept; overlapping windows are merged. Results are sorted by confidence.
func DetectTextRegions(img image.Image, minConfidence float64) []TextRegion {
	bounds := img.Bounds()
	edges := detectEdges(img)

	candidates := make([]TextRegion, 0)
	for _, ws := range textWindows {
		stepX, stepY := ws.w/2, ws.h/2
		for y := 0; y+ws.h <= edges.height; y += stepY {
			for x := 0; x+ws.w <= edges.width; x += stepX {
				window := image.Rect(x, y, x+ws.w, y+ws.h)
				density := edgeDensity(edges, window)

				// Text has medium edge density: sparse areas are background,
				// dense ones are texture.
				if density < 0.05 || density > 0.4 {
					continue
				}

				confidence := horizontalScore(edges, window) * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < minConfidence {
					continue
				}
				candidates = append(candidates, TextRegion{
					Bounds:     window.Add(bounds.Min),
					Confidence: math.Round(confidence*1000) / 1000,
				})
			}
		}
	}

	merged := mergeOverlapping(candidates)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})
	return merged
}

func edgeDensity(edges *edgeMap, r image.Rectangle) float64 {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if edges.at(x, y) {
				n++
			}
		}
	}
	return float64(n) / float64(r.Dx()*r.Dy())
}

// horizontalScore is the share of edge runs that are horizontal.
func horizontalScore(edges *edgeMap, r image.Rectangle) float64 {
	horizontal, vertical := 0, 0

	for y := r.Min.Y; y < r.Max.Y; y++ {
		inRun := false
		for x := r.Min.X; x < r.Max.X; x++ {
			if edges.at(x, y) {
				if !inRun {
					horizontal++
				}
				inRun = true
			} else {
				inRun = false
			}
		}
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		inRun := false
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if edges.at(x, y) {
				if !inRun {
					vertical++
				}
				inRun = true
			} else {
				inRun = false
			}
		}
	}

	if horizontal+vertical == 0 {
		return 0
	}
	return float64(horizontal) / float64(horizontal+vertical)
}

// mergeOverlapping unions overlapping regions, keeping the higher confidence.
func mergeOverlapping(regions []TextRegion) []TextRegion {
	merged := make([]TextRegion, 0, len(regions))
	for _, r := range regions {
		found := false
		for i := range merged {
			if r.Bounds.Overlaps(merged[i].Bounds) {
				merged[i].Bounds = merged[i].Bounds.Union(r.Bounds)
				merged[i].Confidence = math.Max(merged[i].Confidence, r.Confidence)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, r)
		}
	}
	return merged
}
