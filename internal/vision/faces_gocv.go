//go:build gocv

package vision

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ironsheep/vision-tools-plugin/internal/geometry"
)

const (
	cascadeScaleFactor  = 1.1
	cascadeMinNeighbors = 4
)

// cascadeFaces detects faces with an OpenCV Haar cascade. The classifier is
// not safe for concurrent use.
type cascadeFaces struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

func newFaceDetector(cascadePath string) (faceDetector, error) {
	if cascadePath == "" {
		return nil, fmt.Errorf("%w: no face cascade configured", ErrUnsupported)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("%w: failed to load face cascade %s", ErrUnsupported, cascadePath)
	}
	return &cascadeFaces{classifier: classifier}, nil
}

// Detect runs the cascade on a grayscale copy of img. Haar cascades report no
// score, so every face has confidence 1.
func (c *cascadeFaces) Detect(img image.Image, minSize float64) ([]Face, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	bounds := img.Bounds()
	side := int(minSize * float64(min(bounds.Dx(), bounds.Dy())))
	minRect := image.Pt(side, side)

	c.mu.Lock()
	rects := c.classifier.DetectMultiScaleWithParams(gray, cascadeScaleFactor, cascadeMinNeighbors, 0, minRect, image.Point{})
	c.mu.Unlock()

	// The Mat starts at (0,0) regardless of img's origin.
	local := image.Rect(0, 0, bounds.Dx(), bounds.Dy())
	faces := make([]Face, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, Face{Confidence: 1, Bounds: geometry.NormalizeRect(r, local)})
	}
	return faces, nil
}

func (c *cascadeFaces) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}
