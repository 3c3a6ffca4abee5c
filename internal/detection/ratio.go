package detection

import (
	"gonum.org/v1/gonum/floats"

	"wakie/go-backend/internal/models"
)

// Face mesh indices, ordered p1..p6: outer corner, two upper lid points,
// inner corner, two lower lid points.
var (
	LeftEyeIndices  = [6]int{33, 160, 158, 133, 153, 144}
	RightEyeIndices = [6]int{263, 387, 385, 362, 380, 373}
)

const (
	MouthTopIndex    = 13
	MouthBottomIndex = 14
	MouthLeftIndex   = 78
	MouthRightIndex  = 308
)

func dist(a, b models.Point) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}

func eyeAspectRatio(lm models.Landmarks, idx [6]int) float64 {
	var p [6]models.Point
	for i, j := range idx {
		pt, ok := lm.At(j)
		if !ok {
			return 0
		}
		p[i] = pt
	}

	vertA := dist(p[1], p[5])
	vertB := dist(p[2], p[4])
	horiz := dist(p[0], p[3])
	if horiz == 0 {
		return 0
	}
	return (vertA + vertB) / (2 * horiz)
}

// ComputeEAR returns the mean eye aspect ratio of both eyes. A degenerate
// eye counts as 0 in the mean; when both are degenerate the result is 0.
func ComputeEAR(lm models.Landmarks) float64 {
	left := eyeAspectRatio(lm, LeftEyeIndices)
	right := eyeAspectRatio(lm, RightEyeIndices)
	if left <= 0 && right <= 0 {
		return 0
	}
	return (left + right) / 2
}

// ComputeMAR returns lip separation over mouth width, or 0 when a mouth
// landmark is missing or the corners coincide.
func ComputeMAR(lm models.Landmarks) float64 {
	top, ok1 := lm.At(MouthTopIndex)
	bottom, ok2 := lm.At(MouthBottomIndex)
	left, ok3 := lm.At(MouthLeftIndex)
	right, ok4 := lm.At(MouthRightIndex)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0
	}

	horiz := dist(left, right)
	if horiz == 0 {
		return 0
	}
	return dist(top, bottom) / horiz
}
