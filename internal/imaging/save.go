package imaging

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// jpegQuality is used for every JPEG the plugin writes.
const jpegQuality = 92

// Save encodes img to path. The encoder is chosen from the extension:
// .png, .jpg/.jpeg, .gif, .tif/.tiff or .bmp. Parent directories must exist.
func Save(img image.Image, path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("unsupported output format %q: %w", filepath.Ext(path), err)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// ForceExtension returns path with its extension replaced by ext (".png").
// Paths already carrying ext, in any letter case, are returned unchanged.
func ForceExtension(path, ext string) string {
	cur := filepath.Ext(path)
	if strings.EqualFold(cur, ext) {
		return path
	}
	return strings.TrimSuffix(path, cur) + ext
}
