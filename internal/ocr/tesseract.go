package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is used when the caller does not name one.
const DefaultLanguage = "eng"

// Word is a single recognized word.
type Word struct {
	// Text is the recognized word.
	Text string

	// Confidence is Tesseract's confidence rescaled to 0.0-1.0.
	Confidence float64

	// Bounds is the word's bounding box in the source image's coordinates.
	Bounds image.Rectangle
}

// Result contains the complete results of text recognition on an image.
type Result struct {
	// Text is all recognized text with Tesseract's spacing and newlines.
	Text string

	// Words contains individual words in reading order. It may be empty even
	// when Text is not, if Tesseract could not produce word boxes.
	Words []Word
}

// Engine runs Tesseract recognitions.
type Engine struct {
	tessdataPrefix string
}

// NewEngine creates an engine. tessdataPrefix is the directory holding the
// *.traineddata files; empty uses Tesseract's built-in search path.
func NewEngine(tessdataPrefix string) *Engine {
	return &Engine{tessdataPrefix: tessdataPrefix}
}

// Recognize performs OCR on img.
//
// The image is handed to Tesseract as PNG so every decoded format is
// supported. Word boxes are translated back into img's coordinate space.
// Empty words are dropped.
//
// Errors:
//   - the language data cannot be loaded
//   - the image cannot be encoded or Tesseract fails to recognize it
func (e *Engine) Recognize(img image.Image, language string) (*Result, error) {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &Result{Text: strings.TrimSpace(text), Words: []Word{}}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Keep the text when only box extraction fails.
		return result, nil
	}

	offset := img.Bounds().Min
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		result.Words = append(result.Words, Word{
			Text:       word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     box.Box.Add(offset),
		})
	}
	return result, nil
}
