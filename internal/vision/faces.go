package vision

import "image"

// faceDetector is implemented per build: OpenCV with the gocv tag, a stub
// otherwise.
type faceDetector interface {
	Detect(img image.Image, minSize float64) ([]Face, error)
	Close() error
}

// unavailableFaces stands in when the configured detector could not be
// built.
type unavailableFaces struct {
	err error
}

func (u unavailableFaces) Detect(image.Image, float64) ([]Face, error) {
	return nil, u.err
}

func (u unavailableFaces) Close() error { return nil }
