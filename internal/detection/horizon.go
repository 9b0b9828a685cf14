package detection

import (
	"image"
	"math"
)

// maxHorizonTilt limits horizon candidates to lines within this many degrees
// of horizontal.
const maxHorizonTilt = 45

// Horizon is the dominant near-horizontal line across an image.
type Horizon struct {
	// Start and End are where the line meets the left and right image edges,
	// in pixel coordinates (Y may fall outside the image for steep lines).
	Start, End image.Point

	// AngleDegrees is the tilt in image space: positive when the line falls
	// towards the right (Y grows downward).
	AngleDegrees float64

	// Confidence is the share of the image width supporting the line (0-1).
	Confidence float64
}

// DetectHorizon runs a Hough transform restricted to near-horizontal normals
// and returns the strongest line. ok is false when no line gathers votes from
// at least a quarter of the image width.
func DetectHorizon(img image.Image) (h Horizon, ok bool) {
	bounds := img.Bounds()
	edges := detectEdges(img)
	if edges.count() == 0 {
		return Horizon{}, false
	}

	maxDist := int(math.Ceil(math.Hypot(float64(edges.width), float64(edges.height))))

	// theta is the angle of the line normal; 90 degrees is a horizontal line.
	thetaMin, thetaMax := 90-maxHorizonTilt, 90+maxHorizonTilt
	numAngles := thetaMax - thetaMin + 1

	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for i := range numAngles {
		rad := float64(thetaMin+i) * math.Pi / 180
		cosT[i], sinT[i] = math.Cos(rad), math.Sin(rad)
	}

	accumulator := make([]int, 2*maxDist*numAngles)
	for y := 0; y < edges.height; y++ {
		for x := 0; x < edges.width; x++ {
			if !edges.at(x, y) {
				continue
			}
			for t := range numAngles {
				rho := int(math.Round(float64(x)*cosT[t]+float64(y)*sinT[t])) + maxDist
				if rho >= 0 && rho < 2*maxDist {
					accumulator[rho*numAngles+t]++
				}
			}
		}
	}

	bestVotes, bestRho, bestT := 0, 0, 0
	for rho := 0; rho < 2*maxDist; rho++ {
		for t := range numAngles {
			v := accumulator[rho*numAngles+t]
			// Prefer the flatter line on ties.
			if v > bestVotes || (v == bestVotes && v > 0 && abs(thetaMin+t-90) < abs(thetaMin+bestT-90)) {
				bestVotes, bestRho, bestT = v, rho, t
			}
		}
	}

	if bestVotes < edges.width/4 || bestVotes < minContourPixels {
		return Horizon{}, false
	}

	rho := float64(bestRho - maxDist)
	cosA, sinA := cosT[bestT], sinT[bestT]
	yAt := func(x float64) float64 { return (rho - x*cosA) / sinA }

	x0, x1 := 0.0, float64(edges.width-1)
	start := image.Pt(bounds.Min.X, bounds.Min.Y+int(math.Round(yAt(x0))))
	end := image.Pt(bounds.Min.X+int(x1), bounds.Min.Y+int(math.Round(yAt(x1))))

	angle := math.Atan2(yAt(x1)-yAt(x0), x1-x0) * 180 / math.Pi

	return Horizon{
		Start:        start,
		End:          end,
		AngleDegrees: math.Round(angle*10) / 10,
		Confidence:   math.Min(1, float64(bestVotes)/float64(edges.width)),
	}, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
