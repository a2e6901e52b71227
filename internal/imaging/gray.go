// Package imaging provides the shared numeric layer for the detectors:
// grayscale matrices, structural similarity, spectral analysis and the
// statistical helpers every analyzer scores with.
//
// Everything in this package is pure Go over float64 slices. OpenCV-backed
// extraction lives next to each detector; once pixels are in a Gray the rest
// of the pipeline has no CGO dependency and can be tested directly.
package imaging

import "math"

// ─── Grayscale Matrix ───────────────────────────────────────────────────────

// Gray is a row-major grayscale image with float64 intensities in [0, 255].
type Gray struct {
	W, H int
	Pix  []float64 // len W*H, index y*W+x
}

// NewGray allocates a zeroed w×h matrix.
func NewGray(w, h int) *Gray {
	return &Gray{W: w, H: h, Pix: make([]float64, w*h)}
}

// FromBytes wraps 8-bit grayscale pixel data. The data is copied.
func FromBytes(w, h int, data []byte) *Gray {
	g := NewGray(w, h)
	n := w * h
	if len(data) < n {
		n = len(data)
	}
	for i := 0; i < n; i++ {
		g.Pix[i] = float64(data[i])
	}
	return g
}

// At returns the intensity at (x, y). No bounds check; callers stay in range.
func (g *Gray) At(x, y int) float64 { return g.Pix[y*g.W+x] }

// Set stores an intensity at (x, y).
func (g *Gray) Set(x, y int, v float64) { g.Pix[y*g.W+x] = v }

// Sub returns the element-wise difference g − o. Panics if shapes differ.
func (g *Gray) Sub(o *Gray) *Gray {
	if g.W != o.W || g.H != o.H {
		panic("imaging: Sub on mismatched shapes")
	}
	out := NewGray(g.W, g.H)
	for i := range g.Pix {
		out.Pix[i] = g.Pix[i] - o.Pix[i]
	}
	return out
}

// MinMax returns the smallest and largest intensity in the matrix.
func (g *Gray) MinMax() (min, max float64) {
	if len(g.Pix) == 0 {
		return 0, 0
	}
	min, max = g.Pix[0], g.Pix[0]
	for _, v := range g.Pix[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// integral builds a summed-area table with one row and column of padding so
// rectangle sums need no edge special-casing.
func integral(g *Gray) []float64 {
	w, h := g.W, g.H
	s := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		rowSum := 0.0
		for x := 0; x < w; x++ {
			rowSum += g.At(x, y)
			s[(y+1)*(w+1)+x+1] = s[y*(w+1)+x+1] + rowSum
		}
	}
	return s
}

// boxSum returns the sum of the rectangle [x0,x1)×[y0,y1) from an integral
// table built over a width-w image.
func boxSum(s []float64, w, x0, y0, x1, y1 int) float64 {
	stride := w + 1
	return s[y1*stride+x1] - s[y0*stride+x1] - s[y1*stride+x0] + s[y0*stride+x0]
}

// Clip clamps v into [lo, hi].
func Clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clipf(v, lo, hi float64) float64 { return Clip(v, lo, hi) }
