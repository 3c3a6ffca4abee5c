package detection

import "wakie/go-backend/internal/models"

// FaceMeshSize is the landmark count of the face landmarker model with irises.
const FaceMeshSize = 478

const (
	syntheticEyeWidth   = 0.10
	syntheticMouthWidth = 0.20
)

// SyntheticLandmarks builds a face mesh whose eyes and mouth produce exactly
// the requested EAR and MAR. Used by the scenario client and tests.
func SyntheticLandmarks(ear, mar float64) models.Landmarks {
	lm := make(models.Landmarks, FaceMeshSize)
	for i := range lm {
		lm[i] = models.Point{X: 0.5, Y: 0.5}
	}

	placeEye(lm, LeftEyeIndices, 0.35, 0.40, ear)
	placeEye(lm, RightEyeIndices, 0.65, 0.40, ear)

	h := mar * syntheticMouthWidth
	lm[MouthLeftIndex] = models.Point{X: 0.5 - syntheticMouthWidth/2, Y: 0.70}
	lm[MouthRightIndex] = models.Point{X: 0.5 + syntheticMouthWidth/2, Y: 0.70}
	lm[MouthTopIndex] = models.Point{X: 0.5, Y: 0.70 - h/2}
	lm[MouthBottomIndex] = models.Point{X: 0.5, Y: 0.70 + h/2}
	return lm
}

func placeEye(lm models.Landmarks, idx [6]int, cx, cy, ear float64) {
	w := syntheticEyeWidth
	h := ear * w
	lm[idx[0]] = models.Point{X: cx - w/2, Y: cy}
	lm[idx[3]] = models.Point{X: cx + w/2, Y: cy}
	lm[idx[1]] = models.Point{X: cx - w/6, Y: cy - h/2}
	lm[idx[2]] = models.Point{X: cx + w/6, Y: cy - h/2}
	lm[idx[5]] = models.Point{X: cx - w/6, Y: cy + h/2}
	lm[idx[4]] = models.Point{X: cx + w/6, Y: cy + h/2}
}
