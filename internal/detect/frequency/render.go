package frequency

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Rendering ──────────────────────────────────────────────────────────────

// renderSpectrum writes a false-color view of a log-magnitude spectrum with
// a DC crosshair and the low/mid band boundary circles.
func renderSpectrum(logMag *imaging.Gray, path string) {
	w, h := logMag.W, logMag.H
	if w == 0 || h == 0 {
		return
	}
	min, max := logMag.MinMax()
	span := max - min
	data := make([]byte, w*h)
	for i, v := range logMag.Pix {
		if span > 0 {
			data[i] = byte((v - min) / span * 255)
		}
	}

	grayMat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
	if err != nil {
		return
	}
	defer grayMat.Close()

	colored := gocv.NewMat()
	defer colored.Close()
	gocv.ApplyColorMap(grayMat, &colored, gocv.ColormapJet)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	yellow := color.RGBA{R: 255, G: 255, A: 255}
	gocv.Line(&colored, image.Pt(w/2, 0), image.Pt(w/2, h), white, 1)
	gocv.Line(&colored, image.Pt(0, h/2), image.Pt(w, h/2), white, 1)

	center := image.Pt(w/2, h/2)
	maxRadius := math.Hypot(float64(h/2), float64(w/2))
	gocv.Circle(&colored, center, int(maxRadius*LowBandFrac), green, 1)
	gocv.Circle(&colored, center, int(maxRadius*MidBandFrac), yellow, 1)

	gocv.IMWrite(path, colored)
}
