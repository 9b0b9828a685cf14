package plugin

import (
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/ironsheep/vision-tools-plugin/internal/codec"
	"github.com/ironsheep/vision-tools-plugin/internal/geometry"
	"github.com/ironsheep/vision-tools-plugin/internal/imaging"
	"github.com/ironsheep/vision-tools-plugin/internal/vision"
)

// Processing failure messages.
const (
	msgTextRecognitionFailed = "Text recognition failed"
	msgTextRegionsFailed     = "Text region detection failed"
	msgRectanglesFailed      = "Rectangle detection failed"
	msgBarcodesFailed        = "Barcode detection failed"
	msgFacesUnavailable      = "Face detection is not available in this build"
	msgFacesFailed           = "Face detection failed"
	msgHorizonFailed         = "Horizon detection failed"
	msgSaliencyFailed        = "Saliency analysis failed"
	msgNoSalientRegion       = "No salient region found"
	msgColorsFailed          = "Color analysis failed"
	msgNoForeground          = "No foreground found"
	msgBackgroundFailed      = "Background removal failed"
	msgBlurFailed            = "Blur failed"
)

// handlers implements every tool on top of a vision.Provider.
type handlers struct {
	provider vision.Provider
	images   *imaging.Cache
	log      zerolog.Logger
}

// binders returns the handler binding for each tool ID, with the argument
// defaults the manifest documents.
func (h *handlers) binders() map[string]binder {
	return map[string]binder{
		"image_info": bind(imageInfoArgs{}, h.handleImageInfo),
		"recognize_text": bind(recognizeTextArgs{
			Language:      defaultLanguage,
			MinConfidence: defaultTextMinConfidence,
		}, h.handleRecognizeText),
		"detect_text_regions": bind(textRegionsArgs{
			MinConfidence: defaultRegionMinConfidence,
		}, h.handleDetectTextRegions),
		"detect_rectangles": bind(rectanglesArgs{
			MinArea:       defaultRectMinArea,
			MinConfidence: defaultRectMinConfidence,
			MaxResults:    defaultRectMaxResults,
		}, h.handleDetectRectangles),
		"detect_barcodes": bind(barcodesArgs{}, h.handleDetectBarcodes),
		"detect_faces": bind(facesArgs{
			MinSize: defaultFaceMinSize,
		}, h.handleDetectFaces),
		"detect_horizon":  bind(horizonArgs{}, h.handleDetectHorizon),
		"detect_saliency": bind(saliencyArgs{}, h.handleDetectSaliency),
		"dominant_colors": bind(colorsArgs{
			Count: defaultColorCount,
		}, h.handleDominantColors),
		"remove_background": bind(backgroundArgs{
			Tolerance: defaultTolerance,
		}, h.handleRemoveBackground),
		"blur_faces": bind(blurArgs{
			Radius: defaultFaceBlurRadius,
		}, h.handleBlurFaces),
		"blur_image": bind(blurArgs{
			Radius: defaultBlurRadius,
		}, h.handleBlurImage),
		"crop_image": bind(cropArgs{}, h.handleCropImage),
	}
}

// resolve applies the folder context to a path argument.
func (h *handlers) resolve(in codec.Injected, p string) (string, error) {
	resolved, err := codec.ResolvePath(in.Folder(), p)
	if err != nil {
		return "", invalidPath(fmt.Errorf("%q: %w", p, err))
	}
	return resolved, nil
}

// load resolves and decodes the image argument.
func (h *handlers) load(in codec.Injected, p string) (image.Image, error) {
	path, err := h.resolve(in, p)
	if err != nil {
		return nil, err
	}
	img, err := h.images.Load(path)
	if err != nil {
		return nil, imageLoadFailure(err)
	}
	return img, nil
}

// save writes img to an already resolved path.
func (h *handlers) save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return saveFailure(err)
	}
	h.images.Evict(path)
	return nil
}

func size(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func pixelRegion(r vision.Rect, confidence float64, w, h int) scoredRegion {
	return scoredRegion{Confidence: confidence, Bounds: codec.DenormalizeRect(r, w, h)}
}

// faceFailure separates builds without a face detector from detector errors.
func faceFailure(err error) *Error {
	if errors.Is(err, vision.ErrUnsupported) {
		return processingFailure(msgFacesUnavailable, err)
	}
	return processingFailure(msgFacesFailed, err)
}

type imageInfoArgs struct {
	codec.Injected
	ImagePath string `json:"image_path"`
}

func (h *handlers) handleImageInfo(a *imageInfoArgs) (interface{}, error) {
	path, err := h.resolve(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	info, err := imaging.LoadInfo(h.images, path)
	if err != nil {
		return nil, imageLoadFailure(err)
	}
	meta, err := imaging.ReadExif(path)
	if err != nil {
		h.log.Debug().Err(err).Str("path", path).Msg("exif unavailable")
	}
	return imageInfoResult{Info: info, Exif: meta}, nil
}

type recognizeTextArgs struct {
	codec.Injected
	ImagePath     string  `json:"image_path"`
	Language      string  `json:"language"`
	MinConfidence float64 `json:"min_confidence"`
}

func (h *handlers) handleRecognizeText(a *recognizeTextArgs) (interface{}, error) {
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	res, err := h.provider.RecognizeText(img, a.Language)
	if err != nil {
		return nil, processingFailure(msgTextRecognitionFailed, err)
	}

	w, ht := size(img)
	out := recognizeTextResult{Text: res.Text, Observations: []textObservation{}}
	for _, o := range res.Observations {
		if o.Confidence < a.MinConfidence {
			continue
		}
		out.Observations = append(out.Observations, textObservation{
			Text:       o.Text,
			Confidence: o.Confidence,
			Bounds:     codec.DenormalizeRect(o.Bounds, w, ht),
		})
	}
	return out, nil
}

type textRegionsArgs struct {
	codec.Injected
	ImagePath     string  `json:"image_path"`
	MinConfidence float64 `json:"min_confidence"`
}

func (h *handlers) handleDetectTextRegions(a *textRegionsArgs) (interface{}, error) {
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	regions, err := h.provider.DetectTextRegions(img)
	if err != nil {
		return nil, processingFailure(msgTextRegionsFailed, err)
	}

	w, ht := size(img)
	out := textRegionsResult{Regions: []scoredRegion{}}
	for _, r := range regions {
		if r.Confidence < a.MinConfidence {
			continue
		}
		out.Regions = append(out.Regions, pixelRegion(r.Bounds, r.Confidence, w, ht))
	}
	return out, nil
}

type rectanglesArgs struct {
	codec.Injected
	ImagePath     string  `json:"image_path"`
	MinArea       float64 `json:"min_area"`
	MinConfidence float64 `json:"min_confidence"`
	MaxResults    int     `json:"max_results"`
}

func (h *handlers) handleDetectRectangles(a *rectanglesArgs) (interface{}, error) {
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	rects, err := h.provider.DetectRectangles(img, vision.RectangleOptions{
		MinArea:       a.MinArea,
		MinConfidence: a.MinConfidence,
		MaxResults:    a.MaxResults,
	})
	if err != nil {
		return nil, processingFailure(msgRectanglesFailed, err)
	}

	w, ht := size(img)
	out := rectanglesResult{Rectangles: make([]rectangleObservation, 0, len(rects))}
	for _, r := range rects {
		out.Rectangles = append(out.Rectangles, rectangleObservation{
			Confidence: r.Confidence,
			Bounds:     codec.DenormalizeRect(r.Bounds, w, ht),
			Corners: corners{
				TopLeft:     codec.DenormalizePoint(r.TopLeft, w, ht),
				TopRight:    codec.DenormalizePoint(r.TopRight, w, ht),
				BottomLeft:  codec.DenormalizePoint(r.BottomLeft, w, ht),
				BottomRight: codec.DenormalizePoint(r.BottomRight, w, ht),
			},
		})
	}
	return out, nil
}

type barcodesArgs struct {
	codec.Injected
	ImagePath   string             `json:"image_path"`
	Symbologies []vision.Symbology `json:"symbologies"`
}

func (h *handlers) handleDetectBarcodes(a *barcodesArgs) (interface{}, error) {
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	codes, err := h.provider.DetectBarcodes(img, a.Symbologies)
	if err != nil {
		return nil, processingFailure(msgBarcodesFailed, err)
	}

	w, ht := size(img)
	out := barcodesResult{Barcodes: make([]barcodeObservation, 0, len(codes))}
	for _, c := range codes {
		out.Barcodes = append(out.Barcodes, barcodeObservation{
			Payload:    c.Payload,
			Symbology:  string(c.Symbology),
			Confidence: c.Confidence,
			Bounds:     codec.DenormalizeRect(c.Bounds, w, ht),
		})
	}
	return out, nil
}

type facesArgs struct {
	codec.Injected
	ImagePath string  `json:"image_path"`
	MinSize   float64 `json:"min_size"`
}

func (h *handlers) handleDetectFaces(a *facesArgs) (interface{}, error) {
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	faces, err := h.provider.DetectFaces(img, a.MinSize)
	if err != nil {
		return nil, faceFailure(err)
	}

	w, ht := size(img)
	out := facesResult{Faces: make([]scoredRegion, 0, len(faces))}
	for _, f := range faces {
		out.Faces = append(out.Faces, pixelRegion(f.Bounds, f.Confidence, w, ht))
	}
	return out, nil
}

type horizonArgs struct {
	codec.Injected
	ImagePath string `json:"image_path"`
}

func (h *handlers) handleDetectHorizon(a *horizonArgs) (interface{}, error) {
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	horizon, err := h.provider.DetectHorizon(img)
	if err != nil {
		return nil, processingFailure(msgHorizonFailed, err)
	}
	if horizon == nil {
		return horizonResult{}, nil
	}

	w, ht := size(img)
	return horizonResult{Horizon: &horizonLine{
		AngleDegrees: horizon.AngleDegrees,
		Start:        codec.DenormalizePoint(horizon.Start, w, ht),
		End:          codec.DenormalizePoint(horizon.End, w, ht),
	}}, nil
}

type saliencyArgs struct {
	codec.Injected
	ImagePath  string `json:"image_path"`
	OutputPath string `json:"output_path"`
}

func (h *handlers) handleDetectSaliency(a *saliencyArgs) (interface{}, error) {
	var output string
	if a.OutputPath != "" {
		var err error
		if output, err = h.resolve(a.Injected, a.OutputPath); err != nil {
			return nil, err
		}
	}
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	res, err := h.provider.Saliency(img)
	if err != nil {
		return nil, processingFailure(msgSaliencyFailed, err)
	}

	w, ht := size(img)
	out := saliencyResult{SalientRegions: make([]scoredRegion, 0, len(res.Regions))}
	for _, r := range res.Regions {
		out.SalientRegions = append(out.SalientRegions, pixelRegion(r.Bounds, r.Confidence, w, ht))
	}
	if output != "" {
		if err := h.save(res.Heatmap, output); err != nil {
			return nil, err
		}
		out.HeatmapPath = output
	}
	return out, nil
}

type colorsArgs struct {
	codec.Injected
	ImagePath string `json:"image_path"`
	Count     int    `json:"count"`
}

func (h *handlers) handleDominantColors(a *colorsArgs) (interface{}, error) {
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	colors, err := h.provider.DominantColors(img, a.Count)
	if err != nil {
		return nil, processingFailure(msgColorsFailed, err)
	}
	if colors == nil {
		colors = []imaging.ColorFrequency{}
	}
	return colorsResult{Colors: colors}, nil
}

type backgroundArgs struct {
	codec.Injected
	ImagePath  string  `json:"image_path"`
	OutputPath string  `json:"output_path"`
	Tolerance  float64 `json:"tolerance"`
}

func (h *handlers) handleRemoveBackground(a *backgroundArgs) (interface{}, error) {
	output, err := h.resolve(a.Injected, a.OutputPath)
	if err != nil {
		return nil, err
	}
	// Transparency needs an alpha channel.
	output = imaging.ForceExtension(output, ".png")

	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	res, err := h.provider.RemoveBackground(img, a.Tolerance)
	if errors.Is(err, vision.ErrNoForeground) {
		return nil, processingFailure(msgNoForeground, err)
	}
	if err != nil {
		return nil, processingFailure(msgBackgroundFailed, err)
	}
	if err := h.save(res.Image, output); err != nil {
		return nil, err
	}

	w, ht := size(res.Image)
	return backgroundResult{
		OutputPath:       output,
		Width:            w,
		Height:           ht,
		ForegroundBounds: codec.DenormalizeRect(res.Foreground, w, ht),
	}, nil
}

type blurArgs struct {
	codec.Injected
	ImagePath  string  `json:"image_path"`
	OutputPath string  `json:"output_path"`
	Radius     float64 `json:"radius"`
}

func (h *handlers) handleBlurFaces(a *blurArgs) (interface{}, error) {
	output, err := h.resolve(a.Injected, a.OutputPath)
	if err != nil {
		return nil, err
	}
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	faces, err := h.provider.DetectFaces(img, defaultFaceMinSize)
	if err != nil {
		return nil, faceFailure(err)
	}

	regions := make([]vision.Rect, len(faces))
	for i, f := range faces {
		regions[i] = f.Bounds
	}
	result := img
	if len(regions) > 0 {
		if result, err = h.provider.Blur(img, a.Radius, regions); err != nil {
			return nil, processingFailure(msgBlurFailed, err)
		}
	}
	if err := h.save(result, output); err != nil {
		return nil, err
	}
	return blurFacesResult{OutputPath: output, FacesBlurred: len(faces)}, nil
}

func (h *handlers) handleBlurImage(a *blurArgs) (interface{}, error) {
	output, err := h.resolve(a.Injected, a.OutputPath)
	if err != nil {
		return nil, err
	}
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	blurred, err := h.provider.Blur(img, a.Radius, nil)
	if err != nil {
		return nil, processingFailure(msgBlurFailed, err)
	}
	if err := h.save(blurred, output); err != nil {
		return nil, err
	}
	w, ht := size(blurred)
	return writtenImageResult{OutputPath: output, Width: w, Height: ht}, nil
}

type cropArgs struct {
	codec.Injected
	ImagePath  string `json:"image_path"`
	OutputPath string `json:"output_path"`
	X          *int   `json:"x"`
	Y          *int   `json:"y"`
	Width      *int   `json:"width"`
	Height     *int   `json:"height"`
	Salient    bool   `json:"salient"`
}

// region returns the requested crop in the image's top-left pixel space.
func (a *cropArgs) region() (image.Rectangle, error) {
	if a.X == nil || a.Y == nil || a.Width == nil || a.Height == nil {
		return image.Rectangle{}, errors.New("x, y, width and height are required unless salient is set")
	}
	return image.Rect(*a.X, *a.Y, *a.X+*a.Width, *a.Y+*a.Height), nil
}

func (h *handlers) handleCropImage(a *cropArgs) (interface{}, error) {
	var region image.Rectangle
	if !a.Salient {
		var err error
		if region, err = a.region(); err != nil {
			return nil, invalidArguments(err)
		}
	}
	output, err := h.resolve(a.Injected, a.OutputPath)
	if err != nil {
		return nil, err
	}
	img, err := h.load(a.Injected, a.ImagePath)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()

	if a.Salient {
		res, err := h.provider.Saliency(img)
		if err != nil {
			return nil, processingFailure(msgSaliencyFailed, err)
		}
		if len(res.Regions) == 0 {
			return nil, processingFailure(msgNoSalientRegion, nil)
		}
		region = geometry.PixelRect(res.Regions[0].Bounds, bounds).Sub(bounds.Min)
	}

	cropped, err := imaging.Crop(img, region.Add(bounds.Min))
	if err != nil {
		return nil, invalidArguments(err)
	}
	if err := h.save(cropped, output); err != nil {
		return nil, err
	}

	return cropResult{
		OutputPath: output,
		Width:      region.Dx(),
		Height:     region.Dy(),
		Bounds: codec.PixelRect{
			X:      float64(region.Min.X),
			Y:      float64(region.Min.Y),
			Width:  float64(region.Dx()),
			Height: float64(region.Dy()),
		},
	}, nil
}
