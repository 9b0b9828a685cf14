package vision

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/sourcegraph/conc/pool"

	"github.com/ironsheep/vision-tools-plugin/internal/geometry"
)

// barcodeReaders builds a fresh gozxing reader per symbology. Readers keep
// state between calls, so each decode gets its own.
var barcodeReaders = map[Symbology]func() gozxing.Reader{
	SymbologyQR:      func() gozxing.Reader { return qrcode.NewQRCodeReader() },
	SymbologyCode128: func() gozxing.Reader { return oned.NewCode128Reader() },
	SymbologyEAN13:   func() gozxing.Reader { return oned.NewEAN13Reader() },
}

// DetectBarcodes decodes the requested symbologies concurrently. An empty
// symbologies slice means all supported ones. Symbologies that find nothing
// are skipped; unknown ones are an error.
//
// gozxing reports no confidence, so every decoded barcode has confidence 1.
func (n *Native) DetectBarcodes(img image.Image, symbologies []Symbology) ([]Barcode, error) {
	if len(symbologies) == 0 {
		symbologies = Symbologies
	}
	for _, s := range symbologies {
		if _, ok := barcodeReaders[s]; !ok {
			return nil, fmt.Errorf("unknown symbology %q", s)
		}
	}

	bounds := img.Bounds()
	p := pool.NewWithResults[*Barcode]()
	for _, s := range dedupe(symbologies) {
		p.Go(func() *Barcode {
			code, err := decodeBarcode(img, s)
			if err != nil {
				n.log.Debug().Err(err).Str("symbology", string(s)).Msg("barcode decode failed")
				return nil
			}
			if code == nil {
				return nil
			}
			code.Bounds = geometry.NormalizeRect(code.pixels, bounds)
			return &code.Barcode
		})
	}

	codes := make([]Barcode, 0, len(symbologies))
	for _, c := range p.Wait() {
		if c != nil {
			codes = append(codes, *c)
		}
	}
	sortBarcodes(codes)
	return codes, nil
}

type decodedBarcode struct {
	Barcode
	pixels image.Rectangle
}

// decodeBarcode runs one reader over img. A nil result with a nil error means
// no barcode of that symbology was found.
func decodeBarcode(img image.Image, s Symbology) (*decodedBarcode, error) {
	// The bitmap caches its binarized matrix, so it is built per goroutine.
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := barcodeReaders[s]().Decode(bmp, hints)
	if err != nil {
		var notFound gozxing.NotFoundException
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	return &decodedBarcode{
		Barcode: Barcode{
			Payload:    result.GetText(),
			Symbology:  s,
			Confidence: 1,
		},
		pixels: resultBounds(result.GetResultPoints(), img.Bounds()),
	}, nil
}

// resultBounds is the bounding box of the reader's result points. Linear
// symbologies report points on a single row; their box is one pixel tall.
func resultBounds(points []gozxing.ResultPoint, bounds image.Rectangle) image.Rectangle {
	if len(points) == 0 {
		return bounds
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.GetX()), math.Max(maxX, p.GetX())
		minY, maxY = math.Min(minY, p.GetY()), math.Max(maxY, p.GetY())
	}
	r := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	)
	return r.Add(bounds.Min).Intersect(bounds)
}

func dedupe(symbologies []Symbology) []Symbology {
	seen := make(map[Symbology]bool, len(symbologies))
	out := make([]Symbology, 0, len(symbologies))
	for _, s := range symbologies {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// sortBarcodes orders barcodes top to bottom, then left to right.
func sortBarcodes(codes []Barcode) {
	sort.SliceStable(codes, func(i, j int) bool {
		ti, tj := codes[i].Bounds.Y+codes[i].Bounds.H, codes[j].Bounds.Y+codes[j].Bounds.H
		if ti != tj {
			return ti > tj
		}
		return codes[i].Bounds.X < codes[j].Bounds.X
	})
}
