package vision

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/ironsheep/vision-tools-plugin/internal/detection"
	"github.com/ironsheep/vision-tools-plugin/internal/geometry"
	imgops "github.com/ironsheep/vision-tools-plugin/internal/imaging"
	"github.com/ironsheep/vision-tools-plugin/internal/ocr"
)

// detectionSize bounds the longest side of images handed to the heuristic
// detectors, which visit every pixel.
const detectionSize = 512

// NativeOptions configures a Native provider.
type NativeOptions struct {
	// TessdataPrefix is the Tesseract language data directory; empty uses
	// Tesseract's default.
	TessdataPrefix string

	// FaceCascade is the Haar cascade XML used by builds with the gocv tag.
	FaceCascade string

	Logger zerolog.Logger
}

// Native is the default Provider.
type Native struct {
	ocr   *ocr.Engine
	faces faceDetector
	log   zerolog.Logger
}

// NewNative builds a Native provider. It does not fail: capabilities whose
// native dependencies are missing report errors when called.
func NewNative(opts NativeOptions) *Native {
	faces, err := newFaceDetector(opts.FaceCascade)
	if err != nil {
		opts.Logger.Info().Err(err).Msg("face detection disabled")
		faces = unavailableFaces{err: err}
	}
	return &Native{
		ocr:   ocr.NewEngine(opts.TessdataPrefix),
		faces: faces,
		log:   opts.Logger,
	}
}

// downscale returns img reduced to fit detectionSize. Normalized results are
// unaffected by the scale.
func downscale(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= detectionSize && b.Dy() <= detectionSize {
		return img
	}
	return imaging.Fit(img, detectionSize, detectionSize, imaging.Box)
}

func (n *Native) RecognizeText(img image.Image, language string) (*TextResult, error) {
	res, err := n.ocr.Recognize(img, language)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	out := &TextResult{Text: res.Text, Observations: make([]TextObservation, 0, len(res.Words))}
	for _, w := range res.Words {
		out.Observations = append(out.Observations, TextObservation{
			Text:       w.Text,
			Confidence: clamp01(w.Confidence),
			Bounds:     geometry.NormalizeRect(w.Bounds, bounds),
		})
	}
	return out, nil
}

func (n *Native) DetectTextRegions(img image.Image) ([]TextRegion, error) {
	work := downscale(img)
	bounds := work.Bounds()

	regions := detection.DetectTextRegions(work, 0)
	out := make([]TextRegion, 0, len(regions))
	for _, r := range regions {
		out = append(out, TextRegion{
			Confidence: clamp01(r.Confidence),
			Bounds:     geometry.NormalizeRect(r.Bounds, bounds),
		})
	}
	return out, nil
}

func (n *Native) DetectRectangles(img image.Image, opts RectangleOptions) ([]RectangleObservation, error) {
	work := downscale(img)
	bounds := work.Bounds()
	minArea := int(opts.MinArea * float64(bounds.Dx()*bounds.Dy()))

	rects := detection.DetectRectangles(work, minArea, opts.MinConfidence)
	if opts.MaxResults > 0 && len(rects) > opts.MaxResults {
		rects = rects[:opts.MaxResults]
	}

	out := make([]RectangleObservation, 0, len(rects))
	for _, r := range rects {
		out = append(out, RectangleObservation{
			Confidence:  clamp01(r.Confidence),
			Bounds:      geometry.NormalizeRect(r.Bounds, bounds),
			TopLeft:     geometry.NormalizePoint(r.Corners[0], bounds),
			TopRight:    geometry.NormalizePoint(r.Corners[1], bounds),
			BottomRight: geometry.NormalizePoint(r.Corners[2], bounds),
			BottomLeft:  geometry.NormalizePoint(r.Corners[3], bounds),
		})
	}
	return out, nil
}

func (n *Native) DetectFaces(img image.Image, minSize float64) ([]Face, error) {
	return n.faces.Detect(img, minSize)
}

func (n *Native) DetectHorizon(img image.Image) (*Horizon, error) {
	work := downscale(img)
	h, ok := detection.DetectHorizon(work)
	if !ok {
		return nil, nil
	}

	// Image space grows downward; flip to counter-clockwise positive.
	angle := -h.AngleDegrees
	if angle == 0 {
		angle = 0 // avoid -0 in JSON
	}

	bounds := work.Bounds()
	return &Horizon{
		AngleDegrees: angle,
		Start:        geometry.NormalizePoint(h.Start, bounds),
		End:          geometry.NormalizePoint(h.End, bounds),
	}, nil
}

func (n *Native) Saliency(img image.Image) (*SaliencyResult, error) {
	heatmap, regions := imgops.Saliency(img)

	bounds := img.Bounds()
	out := &SaliencyResult{Heatmap: heatmap, Regions: make([]SalientRegion, 0, len(regions))}
	for _, r := range regions {
		out.Regions = append(out.Regions, SalientRegion{
			Confidence: clamp01(r.Confidence),
			Bounds:     geometry.NormalizeRect(r.Bounds, bounds),
		})
	}
	return out, nil
}

func (n *Native) DominantColors(img image.Image, count int) ([]imgops.ColorFrequency, error) {
	return imgops.DominantColors(img, count), nil
}

func (n *Native) RemoveBackground(img image.Image, tolerance float64) (*BackgroundResult, error) {
	out, fg, err := imgops.RemoveBackground(img, tolerance)
	if err != nil {
		return nil, err
	}
	return &BackgroundResult{
		Image:      out,
		Foreground: geometry.NormalizeRect(fg, out.Bounds()),
	}, nil
}

func (n *Native) Blur(img image.Image, radius float64, regions []Rect) (image.Image, error) {
	if radius < 0 {
		return nil, fmt.Errorf("invalid blur radius %v", radius)
	}
	if regions == nil {
		return imgops.Blur(img, radius), nil
	}

	bounds := img.Bounds()
	px := make([]image.Rectangle, 0, len(regions))
	for _, r := range regions {
		px = append(px, geometry.PixelRect(r, bounds))
	}
	return imgops.BlurRegions(img, px, radius), nil
}

func (n *Native) Close() error {
	return n.faces.Close()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
