package vision

import (
	"errors"
	"image"

	"github.com/ironsheep/vision-tools-plugin/internal/geometry"
	"github.com/ironsheep/vision-tools-plugin/internal/imaging"
)

var (
	// ErrUnsupported is returned for operations this build cannot perform.
	ErrUnsupported = errors.New("operation not supported by this provider")

	// ErrNoForeground is returned by RemoveBackground when no subject remains.
	ErrNoForeground = imaging.ErrNoForeground
)

// Rect is a rectangle in normalized bottom-left-origin space.
type Rect = geometry.Rect

// Point is a point in normalized bottom-left-origin space.
type Point = geometry.Point

// TextResult is the outcome of text recognition.
type TextResult struct {
	// Text is the full recognized text.
	Text string

	Observations []TextObservation
}

// TextObservation is one recognized word.
type TextObservation struct {
	Text       string
	Confidence float64
	Bounds     Rect
}

// TextRegion is an area likely to contain text.
type TextRegion struct {
	Confidence float64
	Bounds     Rect
}

// RectangleOptions tunes rectangle detection.
type RectangleOptions struct {
	// MinArea is the smallest accepted area as a fraction of the image (0-1).
	MinArea float64

	MinConfidence float64

	// MaxResults caps the number of observations; 0 means no cap.
	MaxResults int
}

// RectangleObservation is a detected rectangle with its four corners.
type RectangleObservation struct {
	Confidence float64
	Bounds     Rect

	TopLeft, TopRight, BottomLeft, BottomRight Point
}

// Symbology names a barcode format.
type Symbology string

// Supported barcode symbologies.
const (
	SymbologyQR      Symbology = "qr"
	SymbologyCode128 Symbology = "code128"
	SymbologyEAN13   Symbology = "ean13"
)

// Symbologies lists every supported symbology in a stable order.
var Symbologies = []Symbology{SymbologyQR, SymbologyCode128, SymbologyEAN13}

// Barcode is a decoded barcode.
type Barcode struct {
	Payload    string
	Symbology  Symbology
	Confidence float64
	Bounds     Rect
}

// Face is a detected face.
type Face struct {
	Confidence float64
	Bounds     Rect
}

// Horizon is the dominant horizon line.
type Horizon struct {
	// AngleDegrees is counter-clockwise positive: a horizon rising towards
	// the right has a positive angle.
	AngleDegrees float64

	// Start and End are where the line crosses the left and right edges.
	Start, End Point
}

// SalientRegion is an attention-grabbing area.
type SalientRegion struct {
	Confidence float64
	Bounds     Rect
}

// SaliencyResult bundles the saliency heatmap and the regions derived from it.
type SaliencyResult struct {
	// Heatmap is a grayscale rendering the size of the input; brighter is
	// more salient.
	Heatmap image.Image

	// Regions are sorted by confidence, highest first.
	Regions []SalientRegion
}

// BackgroundResult is the outcome of background removal.
type BackgroundResult struct {
	// Image is the input with a transparent background.
	Image image.Image

	// Foreground bounds the remaining subject.
	Foreground Rect
}
