package plugin

import (
	"github.com/ironsheep/vision-tools-plugin/internal/codec"
	"github.com/ironsheep/vision-tools-plugin/internal/imaging"
)

// Result records serialized by the tool handlers. Geometry is in top-left
// pixel space.

type imageInfoResult struct {
	*imaging.Info
	Exif *imaging.Exif `json:"exif"`
}

type textObservation struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Bounds     codec.PixelRect `json:"bounds"`
}

type recognizeTextResult struct {
	Text         string            `json:"text"`
	Observations []textObservation `json:"observations"`
}

// scoredRegion is shared by text regions, faces and salient regions.
type scoredRegion struct {
	Confidence float64         `json:"confidence"`
	Bounds     codec.PixelRect `json:"bounds"`
}

type textRegionsResult struct {
	Regions []scoredRegion `json:"regions"`
}

type corners struct {
	TopLeft     codec.PixelPoint `json:"top_left"`
	TopRight    codec.PixelPoint `json:"top_right"`
	BottomLeft  codec.PixelPoint `json:"bottom_left"`
	BottomRight codec.PixelPoint `json:"bottom_right"`
}

type rectangleObservation struct {
	Confidence float64         `json:"confidence"`
	Bounds     codec.PixelRect `json:"bounds"`
	Corners    corners         `json:"corners"`
}

type rectanglesResult struct {
	Rectangles []rectangleObservation `json:"rectangles"`
}

type barcodeObservation struct {
	Payload    string          `json:"payload"`
	Symbology  string          `json:"symbology"`
	Confidence float64         `json:"confidence"`
	Bounds     codec.PixelRect `json:"bounds"`
}

type barcodesResult struct {
	Barcodes []barcodeObservation `json:"barcodes"`
}

type facesResult struct {
	Faces []scoredRegion `json:"faces"`
}

type horizonLine struct {
	AngleDegrees float64          `json:"angle_degrees"`
	Start        codec.PixelPoint `json:"start"`
	End          codec.PixelPoint `json:"end"`
}

type horizonResult struct {
	Horizon *horizonLine `json:"horizon"`
}

type saliencyResult struct {
	SalientRegions []scoredRegion `json:"salient_regions"`
	HeatmapPath    string         `json:"heatmap_path,omitempty"`
}

type colorsResult struct {
	Colors []imaging.ColorFrequency `json:"colors"`
}

type backgroundResult struct {
	OutputPath       string          `json:"output_path"`
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	ForegroundBounds codec.PixelRect `json:"foreground_bounds"`
}

type blurFacesResult struct {
	OutputPath   string `json:"output_path"`
	FacesBlurred int    `json:"faces_blurred"`
}

type writtenImageResult struct {
	OutputPath string `json:"output_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

type cropResult struct {
	OutputPath string          `json:"output_path"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Bounds     codec.PixelRect `json:"bounds"`
}
