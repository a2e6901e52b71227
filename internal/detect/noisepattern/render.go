package noisepattern

import (
	"gocv.io/x/gocv"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Rendering ──────────────────────────────────────────────────────────────

// renderResidual writes a false-color view of a noise residual. Residuals
// hover around zero, so values are min-max stretched before the colormap.
func renderResidual(residual *imaging.Gray, path string) {
	w, h := residual.W, residual.H
	if w == 0 || h == 0 {
		return
	}
	min, max := residual.MinMax()
	span := max - min
	data := make([]byte, w*h)
	for i, v := range residual.Pix {
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
	gocv.IMWrite(path, colored)
}
