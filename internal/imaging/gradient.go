package imaging

import "math"

// ─── Gradients ──────────────────────────────────────────────────────────────

// sobel3 applies a 3×3 Sobel kernel along one axis with replicated borders.
func sobel3(g *Gray, horizontal bool) *Gray {
	out := NewGray(g.W, g.H)
	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		}
		if x >= g.W {
			x = g.W - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= g.H {
			y = g.H - 1
		}
		return g.At(x, y)
	}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			var v float64
			if horizontal {
				v = -at(x-1, y-1) + at(x+1, y-1) +
					-2*at(x-1, y) + 2*at(x+1, y) +
					-at(x-1, y+1) + at(x+1, y+1)
			} else {
				v = -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
					at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			}
			out.Set(x, y, v)
		}
	}
	return out
}

// SobelX returns the horizontal 3×3 Sobel derivative.
func SobelX(g *Gray) *Gray { return sobel3(g, true) }

// SobelY returns the vertical 3×3 Sobel derivative.
func SobelY(g *Gray) *Gray { return sobel3(g, false) }

// GradientMagnitude combines two derivative fields into per-pixel magnitudes.
func GradientMagnitude(dx, dy *Gray) *Gray {
	out := NewGray(dx.W, dx.H)
	for i := range dx.Pix {
		out.Pix[i] = math.Hypot(dx.Pix[i], dy.Pix[i])
	}
	return out
}
