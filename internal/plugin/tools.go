package plugin

import (
	"github.com/ironsheep/vision-tools-plugin/internal/imaging"
	"github.com/ironsheep/vision-tools-plugin/internal/ocr"
	"github.com/ironsheep/vision-tools-plugin/internal/vision"
)

// Permission is the confirmation policy the host applies before running a
// tool. Dispatch never consults it.
type Permission string

const (
	PermissionAuto Permission = "auto"
	PermissionAsk  Permission = "ask"
	PermissionDeny Permission = "deny"
)

// Host permissions a tool may need.
const (
	RequirementFilesystemRead  = "filesystem:read"
	RequirementFilesystemWrite = "filesystem:write"
)

// Defaults for optional tool arguments.
const (
	defaultLanguage            = ocr.DefaultLanguage
	defaultTextMinConfidence   = 0.0
	defaultRegionMinConfidence = 0.5
	defaultRectMinArea         = 0.01
	defaultRectMinConfidence   = 0.9
	defaultRectMaxResults      = 10
	defaultFaceMinSize         = 0.05
	defaultColorCount          = 5
	maxColorCount              = 32
	defaultTolerance           = imaging.DefaultBackgroundTolerance
	defaultFaceBlurRadius      = 24
	defaultBlurRadius          = 8
	maxBlurRadius              = 200
)

// Descriptor is the static description of a tool, as published in the
// manifest.
type Descriptor struct {
	ID           string
	Description  string
	Parameters   map[string]interface{}
	Requirements []string
	Permission   Permission
}

var (
	readOnly  = []string{RequirementFilesystemRead}
	readWrite = []string{RequirementFilesystemRead, RequirementFilesystemWrite}
)

func imagePathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Path to the image file, absolute or relative to the working directory",
	}
}

func outputPathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func confidenceProperty(def float64) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Discard observations below this confidence (0-1)",
		"minimum":     0,
		"maximum":     1,
		"default":     def,
	}
}

func symbologyNames() []string {
	names := make([]string, len(vision.Symbologies))
	for i, s := range vision.Symbologies {
		names[i] = string(s)
	}
	return names
}

// Descriptors returns every tool in manifest order.
func Descriptors() []Descriptor {
	return []Descriptor{
		{
			ID:          "image_info",
			Description: "Report an image's dimensions, format, alpha channel, file size and EXIF metadata.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": imagePathProperty(),
				},
				"required": []string{"image_path"},
			},
			Requirements: readOnly,
			Permission:   PermissionAuto,
		},
		{
			ID:          "recognize_text",
			Description: "Recognize text in an image and return it with per-word confidence and bounds.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": imagePathProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code, several joined with '+' (e.g. \"eng+deu\")",
						"default":     defaultLanguage,
					},
					"min_confidence": confidenceProperty(defaultTextMinConfidence),
				},
				"required": []string{"image_path"},
			},
			Requirements: readOnly,
			Permission:   PermissionAuto,
		},
		{
			ID:          "detect_text_regions",
			Description: "Locate areas of an image that likely contain text, without reading it.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":     imagePathProperty(),
					"min_confidence": confidenceProperty(defaultRegionMinConfidence),
				},
				"required": []string{"image_path"},
			},
			Requirements: readOnly,
			Permission:   PermissionAuto,
		},
		{
			ID:          "detect_rectangles",
			Description: "Find rectangular shapes such as documents, screens and signs, with their four corners.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": imagePathProperty(),
					"min_area": map[string]interface{}{
						"type":        "number",
						"description": "Smallest rectangle area as a fraction of the image (0-1)",
						"minimum":     0,
						"maximum":     1,
						"default":     defaultRectMinArea,
					},
					"min_confidence": confidenceProperty(defaultRectMinConfidence),
					"max_results": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of rectangles to return",
						"minimum":     1,
						"maximum":     100,
						"default":     defaultRectMaxResults,
					},
				},
				"required": []string{"image_path"},
			},
			Requirements: readOnly,
			Permission:   PermissionAuto,
		},
		{
			ID:          "detect_barcodes",
			Description: "Decode QR codes and linear barcodes (Code 128, EAN-13).",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": imagePathProperty(),
					"symbologies": map[string]interface{}{
						"type":        "array",
						"description": "Symbologies to look for; all when omitted",
						"items": map[string]interface{}{
							"type": "string",
							"enum": symbologyNames(),
						},
					},
				},
				"required": []string{"image_path"},
			},
			Requirements: readOnly,
			Permission:   PermissionAuto,
		},
		{
			ID:          "detect_faces",
			Description: "Locate human faces in an image.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": imagePathProperty(),
					"min_size": map[string]interface{}{
						"type":        "number",
						"description": "Smallest face width as a fraction of the image's shorter side (0-1)",
						"minimum":     0,
						"maximum":     1,
						"default":     defaultFaceMinSize,
					},
				},
				"required": []string{"image_path"},
			},
			Requirements: readOnly,
			Permission:   PermissionAsk,
		},
		{
			ID:          "detect_horizon",
			Description: "Find the dominant horizon line and its tilt angle in degrees.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": imagePathProperty(),
				},
				"required": []string{"image_path"},
			},
			Requirements: readOnly,
			Permission:   PermissionAuto,
		},
		{
			ID:          "detect_saliency",
			Description: "Find the areas of an image most likely to draw attention, optionally writing a heatmap.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":  imagePathProperty(),
					"output_path": outputPathProperty("Where to write the grayscale saliency heatmap; omitted means no heatmap"),
				},
				"required": []string{"image_path"},
			},
			Requirements: readWrite,
			Permission:   PermissionAuto,
		},
		{
			ID:          "dominant_colors",
			Description: "List an image's most common colors with their share of the visible pixels.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": imagePathProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return",
						"minimum":     1,
						"maximum":     maxColorCount,
						"default":     defaultColorCount,
					},
				},
				"required": []string{"image_path"},
			},
			Requirements: readOnly,
			Permission:   PermissionAuto,
		},
		{
			ID:          "remove_background",
			Description: "Make the background transparent and save the result as PNG.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":  imagePathProperty(),
					"output_path": outputPathProperty("Where to write the result; the extension is forced to .png"),
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Color distance still counted as background (0-100)",
						"minimum":     0,
						"maximum":     100,
						"default":     defaultTolerance,
					},
				},
				"required": []string{"image_path", "output_path"},
			},
			Requirements: readWrite,
			Permission:   PermissionAsk,
		},
		{
			ID:          "blur_faces",
			Description: "Blur every detected face and save the result.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":  imagePathProperty(),
					"output_path": outputPathProperty("Where to write the result"),
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Blur radius in pixels",
						"minimum":     0,
						"maximum":     maxBlurRadius,
						"default":     defaultFaceBlurRadius,
					},
				},
				"required": []string{"image_path", "output_path"},
			},
			Requirements: readWrite,
			Permission:   PermissionAsk,
		},
		{
			ID:          "blur_image",
			Description: "Apply a Gaussian blur to the whole image and save the result.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":  imagePathProperty(),
					"output_path": outputPathProperty("Where to write the result"),
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Blur radius in pixels",
						"minimum":     0,
						"maximum":     maxBlurRadius,
						"default":     defaultBlurRadius,
					},
				},
				"required": []string{"image_path", "output_path"},
			},
			Requirements: readWrite,
			Permission:   PermissionAsk,
		},
		{
			ID:          "crop_image",
			Description: "Crop a pixel rectangle, or the most salient region, and save it.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":  imagePathProperty(),
					"output_path": outputPathProperty("Where to write the cropped image"),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge in pixels",
						"minimum":     0,
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge in pixels",
						"minimum":     0,
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width in pixels",
						"minimum":     1,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Height in pixels",
						"minimum":     1,
					},
					"salient": map[string]interface{}{
						"type":        "boolean",
						"description": "Crop the most salient region instead of x/y/width/height",
						"default":     false,
					},
				},
				"required": []string{"image_path", "output_path"},
			},
			Requirements: readWrite,
			Permission:   PermissionAsk,
		},
	}
}
