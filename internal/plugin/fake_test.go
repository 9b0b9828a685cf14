package plugin

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/vision-tools-plugin/internal/imaging"
	"github.com/ironsheep/vision-tools-plugin/internal/vision"
)

// fakeProvider returns canned observations and records what it was asked.
type fakeProvider struct {
	mu sync.Mutex

	text       *vision.TextResult
	regions    []vision.TextRegion
	rectangles []vision.RectangleObservation
	barcodes   []vision.Barcode
	faces      []vision.Face
	facesErr   error
	horizon    *vision.Horizon
	saliency   *vision.SaliencyResult
	colors     []imaging.ColorFrequency
	background *vision.BackgroundResult
	bgErr      error
	panicMsg   string

	gotSymbologies []vision.Symbology
	gotRectOpts    vision.RectangleOptions
	gotLanguage    string
	gotCount       int
	gotMinSize     float64
	gotTolerance   float64
	gotBlur        [][]vision.Rect
	gotBlurRadius  float64
	closed         int
}

func (p *fakeProvider) RecognizeText(img image.Image, language string) (*vision.TextResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotLanguage = language
	if p.text == nil {
		return &vision.TextResult{}, nil
	}
	return p.text, nil
}

func (p *fakeProvider) DetectTextRegions(img image.Image) ([]vision.TextRegion, error) {
	return p.regions, nil
}

func (p *fakeProvider) DetectRectangles(img image.Image, opts vision.RectangleOptions) ([]vision.RectangleObservation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotRectOpts = opts
	return p.rectangles, nil
}

func (p *fakeProvider) DetectBarcodes(img image.Image, symbologies []vision.Symbology) ([]vision.Barcode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotSymbologies = symbologies
	return p.barcodes, nil
}

func (p *fakeProvider) DetectFaces(img image.Image, minSize float64) ([]vision.Face, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotMinSize = minSize
	return p.faces, p.facesErr
}

func (p *fakeProvider) DetectHorizon(img image.Image) (*vision.Horizon, error) {
	return p.horizon, nil
}

func (p *fakeProvider) Saliency(img image.Image) (*vision.SaliencyResult, error) {
	if p.saliency != nil {
		return p.saliency, nil
	}
	return &vision.SaliencyResult{Heatmap: image.NewGray(img.Bounds())}, nil
}

func (p *fakeProvider) DominantColors(img image.Image, count int) ([]imaging.ColorFrequency, error) {
	if p.panicMsg != "" {
		panic(p.panicMsg)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotCount = count
	return p.colors, nil
}

func (p *fakeProvider) RemoveBackground(img image.Image, tolerance float64) (*vision.BackgroundResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotTolerance = tolerance
	if p.bgErr != nil {
		return nil, p.bgErr
	}
	if p.background != nil {
		return p.background, nil
	}
	return &vision.BackgroundResult{Image: img, Foreground: vision.Rect{W: 1, H: 1}}, nil
}

func (p *fakeProvider) Blur(img image.Image, radius float64, regions []vision.Rect) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotBlur = append(p.gotBlur, regions)
	p.gotBlurRadius = radius
	return img, nil
}

func (p *fakeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func newTestContext(t *testing.T, p vision.Provider) *Context {
	t.Helper()
	c, err := NewContext(Options{Provider: p, ImageCacheSize: 4, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// writeTestImage writes a solid-color PNG of the given size into dir.
func writeTestImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{200, 40, 40, 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// payload marshals tool arguments.
func payload(t *testing.T, args map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(args)
	require.NoError(t, err)
	return string(data)
}

// invokeJSON runs a tool and decodes its JSON output.
func invokeJSON(t *testing.T, c *Context, id string, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	out := c.Invoke(CapabilityTool, id, payload(t, args))
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	return result
}

func decodedSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}
