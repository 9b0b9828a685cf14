package detection

import (
	"image"
	"sort"
)

// borderSlack is how far (in pixels) a contour pixel may sit from its bounding
// box edge and still count as lying on the rectangle outline.
const borderSlack = 2

// Rectangle is a detected rectangular outline in pixel coordinates.
type Rectangle struct {
	// Bounds is the axis-aligned bounding box of the outline.
	Bounds image.Rectangle

	// Corners are the extreme contour points, in the order top-left,
	// top-right, bottom-right, bottom-left.
	Corners [4]image.Point

	// Confidence is how closely the contour follows its bounding box (0-1).
	Confidence float64
}

// DetectRectangles finds rectangular outlines in an image.
//
// Contours are scored by two ratios: the share of contour pixels lying on the
// bounding box outline, and the share of the outline covered by contour
// pixels. Their product is the confidence; a circle scores low on both.
// Only axis-aligned rectangles score well.
//
// minArea is in square pixels. Results are sorted by area, largest first.
func DetectRectangles(img image.Image, minArea int, minConfidence float64) []Rectangle {
	bounds := img.Bounds()
	edges := detectEdges(img)
	contours := findContours(edges)

	rects := make([]Rectangle, 0)
	for _, contour := range contours {
		box := contourBounds(contour)
		if box.Dx() < 3 || box.Dy() < 3 || box.Dx()*box.Dy() < minArea {
			continue
		}

		confidence := rectangularity(contour, box)
		if confidence < minConfidence {
			continue
		}

		rects = append(rects, Rectangle{
			Bounds:     box.Add(bounds.Min),
			Corners:    extremeCorners(contour, bounds.Min),
			Confidence: confidence,
		})
	}

	sort.SliceStable(rects, func(i, j int) bool {
		ai := rects[i].Bounds.Dx() * rects[i].Bounds.Dy()
		aj := rects[j].Bounds.Dx() * rects[j].Bounds.Dy()
		return ai > aj
	})
	return rects
}

func rectangularity(contour []image.Point, box image.Rectangle) float64 {
	w, h := box.Dx(), box.Dy()

	onBorder := 0
	top := make([]bool, w)
	bottom := make([]bool, w)
	left := make([]bool, h)
	right := make([]bool, h)

	for _, p := range contour {
		x, y := p.X-box.Min.X, p.Y-box.Min.Y
		near := false
		if y < borderSlack {
			top[x], near = true, true
		}
		if y >= h-borderSlack {
			bottom[x], near = true, true
		}
		if x < borderSlack {
			left[y], near = true, true
		}
		if x >= w-borderSlack {
			right[y], near = true, true
		}
		if near {
			onBorder++
		}
	}

	covered := 0
	for _, side := range [][]bool{top, bottom, left, right} {
		for _, hit := range side {
			if hit {
				covered++
			}
		}
	}

	borderRatio := float64(onBorder) / float64(len(contour))
	coverage := float64(covered) / float64(2*(w+h))
	return borderRatio * coverage
}

// extremeCorners picks the contour points closest to each bounding box corner
// along the diagonals.
func extremeCorners(contour []image.Point, offset image.Point) [4]image.Point {
	tl, tr, br, bl := contour[0], contour[0], contour[0], contour[0]
	for _, p := range contour[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.X-p.Y > tr.X-tr.Y {
			tr = p
		}
		if p.X-p.Y < bl.X-bl.Y {
			bl = p
		}
	}
	return [4]image.Point{tl.Add(offset), tr.Add(offset), br.Add(offset), bl.Add(offset)}
}
