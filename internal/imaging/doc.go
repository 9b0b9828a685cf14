// Package imaging provides the image layer of the vision plugin: loading,
// caching, saving and the pixel-level operations the tools build on.
//
// Supported inputs are PNG, JPEG, GIF, BMP, TIFF and WebP. EXIF orientation is
// applied on load, so every function in this package sees the image the way a
// viewer would display it.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Regions are image.Rectangle values; Min is inclusive, Max is exclusive
//
// # Thread Safety
//
// Cache is safe for concurrent use. The remaining functions are stateless and
// never modify their input image; they return new images instead.
//
// # Error Handling
//
// Errors are wrapped with fmt.Errorf and %w. ErrNoForeground is returned by
// RemoveBackground when nothing distinguishes the subject from its border.
package imaging
