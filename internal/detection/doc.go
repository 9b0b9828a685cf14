// Package detection provides heuristic feature detectors for images.
//
// All detectors share one pipeline: a grayscale gradient edge map, followed by
// a detector-specific analysis.
//
//   - DetectRectangles: contour analysis scored against each contour's bounding box
//   - DetectTextRegions: sliding windows scored by edge density and horizontal structure
//   - DetectHorizon: a Hough transform restricted to near-horizontal lines
//
// # Coordinate System
//
// Results are in pixel coordinates of the source image: origin at the top-left
// corner, X increasing rightward and Y increasing downward. Callers that need
// the normalized bottom-left convention convert with the vision package.
//
// # Limitations
//
// The detectors work best on clean, high-contrast images such as diagrams and
// screenshots. They iterate over every pixel, so callers should downscale large
// photographs first; the vision provider does this before calling in.
package detection
