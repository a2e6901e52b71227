package copymove

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Rendering ──────────────────────────────────────────────────────────────

// renderOverlay draws accepted match pairs on a copy of the frame: green at
// the source end, red at the clone end, a blue connector between them.
func renderOverlay(frame gocv.Mat, locations []MatchLocation, path string) {
	vis := frame.Clone()
	defer vis.Close()

	green := color.RGBA{G: 255}
	red := color.RGBA{R: 255}
	blue := color.RGBA{B: 255}
	for _, loc := range locations {
		p1 := image.Pt(int(loc.From.X), int(loc.From.Y))
		p2 := image.Pt(int(loc.To.X), int(loc.To.Y))
		gocv.Circle(&vis, p1, 5, green, 2)
		gocv.Circle(&vis, p2, 5, red, 2)
		gocv.Line(&vis, p1, p2, blue, 1)
	}
	gocv.IMWrite(path, vis)
}

// renderHeatmap writes the accumulated coverage map as a JET-colored image.
func renderHeatmap(heat *imaging.Gray, path string) {
	if heat == nil || heat.W == 0 || heat.H == 0 {
		return
	}
	_, max := heat.MinMax()
	data := make([]byte, heat.W*heat.H)
	for i, v := range heat.Pix {
		if max > 0 {
			data[i] = byte(v / max * 255)
		}
	}

	grayMat, err := gocv.NewMatFromBytes(heat.H, heat.W, gocv.MatTypeCV8U, data)
	if err != nil {
		return
	}
	defer grayMat.Close()

	colored := gocv.NewMat()
	defer colored.Close()
	gocv.ApplyColorMap(grayMat, &colored, gocv.ColormapJet)
	gocv.IMWrite(path, colored)
}
