package vision

import (
	"image"
	"sync"

	"github.com/ironsheep/vision-tools-plugin/internal/imaging"
)

// Provider performs the image analysis behind each tool.
//
// Detection methods return an empty slice, never an error, when nothing is
// found. Observations carry confidences in [0,1] and normalized geometry.
// Implementations are not required to be safe for concurrent use; wrap them
// in Serialized when they are shared.
type Provider interface {
	RecognizeText(img image.Image, language string) (*TextResult, error)
	DetectTextRegions(img image.Image) ([]TextRegion, error)
	DetectRectangles(img image.Image, opts RectangleOptions) ([]RectangleObservation, error)
	DetectBarcodes(img image.Image, symbologies []Symbology) ([]Barcode, error)

	// DetectFaces ignores faces narrower than minSize, a fraction of the
	// image's shorter side.
	DetectFaces(img image.Image, minSize float64) ([]Face, error)

	// DetectHorizon returns nil when the image has no clear horizon.
	DetectHorizon(img image.Image) (*Horizon, error)

	Saliency(img image.Image) (*SaliencyResult, error)
	DominantColors(img image.Image, count int) ([]imaging.ColorFrequency, error)

	// RemoveBackground returns ErrNoForeground when nothing but background
	// is found.
	RemoveBackground(img image.Image, tolerance float64) (*BackgroundResult, error)

	// Blur blurs the given regions, or the whole image when regions is nil.
	Blur(img image.Image, radius float64, regions []Rect) (image.Image, error)

	// Close releases native resources. The provider is unusable afterwards.
	Close() error
}

// Serialized runs one call of the wrapped provider at a time.
type Serialized struct {
	mu    sync.Mutex
	inner Provider
}

// NewSerialized wraps p.
func NewSerialized(p Provider) *Serialized {
	return &Serialized{inner: p}
}

func (s *Serialized) RecognizeText(img image.Image, language string) (*TextResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.RecognizeText(img, language)
}

func (s *Serialized) DetectTextRegions(img image.Image) ([]TextRegion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.DetectTextRegions(img)
}

func (s *Serialized) DetectRectangles(img image.Image, opts RectangleOptions) ([]RectangleObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.DetectRectangles(img, opts)
}

func (s *Serialized) DetectBarcodes(img image.Image, symbologies []Symbology) ([]Barcode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.DetectBarcodes(img, symbologies)
}

func (s *Serialized) DetectFaces(img image.Image, minSize float64) ([]Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.DetectFaces(img, minSize)
}

func (s *Serialized) DetectHorizon(img image.Image) (*Horizon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.DetectHorizon(img)
}

func (s *Serialized) Saliency(img image.Image) (*SaliencyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Saliency(img)
}

func (s *Serialized) DominantColors(img image.Image, count int) ([]imaging.ColorFrequency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.DominantColors(img, count)
}

func (s *Serialized) RemoveBackground(img image.Image, tolerance float64) (*BackgroundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.RemoveBackground(img, tolerance)
}

func (s *Serialized) Blur(img image.Image, radius float64, regions []Rect) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Blur(img, radius, regions)
}

func (s *Serialized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}
