//go:build !gocv

package vision

import "fmt"

// newFaceDetector reports that this build carries no face detector. Build
// with -tags gocv to enable OpenCV.
func newFaceDetector(string) (faceDetector, error) {
	return nil, fmt.Errorf("%w: built without OpenCV", ErrUnsupported)
}
