// Package vision defines the capability provider behind the plugin's tools and
// its default, library-backed implementation.
//
// # Coordinate System
//
// Every observation is reported in normalized image space: the image spans
// the unit square, the origin is the bottom-left corner and Y grows upward.
// A Rect's (X, Y) is therefore its bottom-left corner. The geometry package
// converts from top-left pixel coordinates; the plugin converts back when it
// builds responses.
//
// # Implementations
//
//   - Native: assembled from the imaging, ocr and detection packages, gozxing
//     for barcodes, and OpenCV (gocv) for faces when built with the "gocv" tag
//   - Serialized: wraps any Provider and runs one call at a time
package vision
