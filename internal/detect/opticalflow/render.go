package opticalflow

import (
	"math"

	"gocv.io/x/gocv"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Rendering ──────────────────────────────────────────────────────────────

// renderFlow paints the flow field in HSV (hue = direction, saturation =
// speed) and blends it 50/50 with the source frame for context.
func renderFlow(frame gocv.Mat, fx, fy *imaging.Gray) gocv.Mat {
	w, h := fx.W, fx.H
	magnitudes := make([]float64, w*h)
	hues := make([]float64, w*h)
	maxMag, minMag := 0.0, math.Inf(1)
	for i := range fx.Pix {
		m := math.Hypot(fx.Pix[i], fy.Pix[i])
		magnitudes[i] = m
		if m > maxMag {
			maxMag = m
		}
		if m < minMag {
			minMag = m
		}
		a := math.Atan2(fy.Pix[i], fx.Pix[i])
		if a < 0 {
			a += 2 * math.Pi
		}
		hues[i] = a * 180 / math.Pi / 2
	}

	span := maxMag - minMag
	data := make([]byte, w*h*3)
	for i := range magnitudes {
		sat := 0.0
		if span > 0 {
			sat = (magnitudes[i] - minMag) / span * 255
		}
		data[i*3] = byte(hues[i])
		data[i*3+1] = byte(sat)
		data[i*3+2] = 255
	}

	hsv, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return frame.Clone()
	}
	defer hsv.Close()

	vis := gocv.NewMat()
	gocv.CvtColor(hsv, &vis, gocv.ColorHSVToBGR)
	blended := gocv.NewMat()
	gocv.AddWeighted(frame, 0.5, vis, 0.5, 0, &blended)
	vis.Close()
	return blended
}
