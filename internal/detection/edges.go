package detection

import (
	"image"
	"math"
)

// edgeThreshold is the grayscale step between neighbours that marks an edge.
const edgeThreshold = 30.0

// minContourPixels drops contours smaller than this as noise.
const minContourPixels = 10

// edgeMap is a binary edge image stored row-major. Coordinates are relative
// to the source image's Min point.
type edgeMap struct {
	width, height int
	pixels        []bool
}

func (e *edgeMap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= e.width || y >= e.height {
		return false
	}
	return e.pixels[y*e.width+x]
}

func (e *edgeMap) count() int {
	n := 0
	for _, p := range e.pixels {
		if p {
			n++
		}
	}
	return n
}

// detectEdges marks pixels whose grayscale value differs from the right or
// lower neighbour by more than edgeThreshold. Border pixels are never edges.
func detectEdges(img image.Image) *edgeMap {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = grayValue(img, x+bounds.Min.X, y+bounds.Min.Y)
		}
	}

	edges := &edgeMap{width: w, height: h, pixels: make([]bool, w*h)}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := gray[y*w+x]
			dx := math.Abs(c - gray[y*w+x+1])
			dy := math.Abs(c - gray[(y+1)*w+x])
			if dx > edgeThreshold || dy > edgeThreshold {
				edges.pixels[y*w+x] = true
			}
		}
	}
	return edges
}

// findContours groups 8-connected edge pixels into contours.
func findContours(edges *edgeMap) [][]image.Point {
	visited := make([]bool, len(edges.pixels))
	contours := make([][]image.Point, 0)

	for y := 0; y < edges.height; y++ {
		for x := 0; x < edges.width; x++ {
			i := y*edges.width + x
			if !edges.pixels[i] || visited[i] {
				continue
			}
			contour := floodFill(edges, visited, x, y)
			if len(contour) >= minContourPixels {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

// floodFill collects the connected component containing (startX, startY).
// It is iterative so large contours cannot overflow the stack.
func floodFill(edges *edgeMap, visited []bool, startX, startY int) []image.Point {
	contour := make([]image.Point, 0)
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !edges.at(p.X, p.Y) {
			continue
		}
		i := p.Y*edges.width + p.X
		if visited[i] {
			continue
		}
		visited[i] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return contour
}

// grayValue converts a pixel to grayscale using ITU-R BT.601 luminance weights.
func grayValue(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114
}

func contourBounds(contour []image.Point) image.Rectangle {
	r := image.Rectangle{Min: contour[0], Max: contour[0]}
	for _, p := range contour[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	// Max is exclusive in image.Rectangle.
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}
