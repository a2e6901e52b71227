package imaging

import (
	"math"
	"testing"
)

// ─── Gradient Tests ─────────────────────────────────────────────────────────

func TestSobel_HorizontalRamp(t *testing.T) {
	// Intensity increases by 2 per column: interior dx = 2·(sum of kernel
	// positive taps) = 2·4 = 8, dy = 0.
	g := NewGray(8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			g.Set(x, y, float64(2*x))
		}
	}
	dx := SobelX(g)
	dy := SobelY(g)
	for y := 1; y < 7; y++ {
		for x := 1; x < 7; x++ {
			if math.Abs(dx.At(x, y)-8) > 1e-9 {
				t.Fatalf("dx(%d,%d) = %v, want 8", x, y, dx.At(x, y))
			}
			if dy.At(x, y) != 0 {
				t.Fatalf("dy(%d,%d) = %v, want 0", x, y, dy.At(x, y))
			}
		}
	}
}

func TestGradientMagnitude_Combines(t *testing.T) {
	dx := NewGray(2, 1)
	dy := NewGray(2, 1)
	dx.Pix[0], dy.Pix[0] = 3, 4
	m := GradientMagnitude(dx, dy)
	if m.Pix[0] != 5 {
		t.Errorf("magnitude = %v, want 5", m.Pix[0])
	}
	if m.Pix[1] != 0 {
		t.Errorf("magnitude of zero field = %v, want 0", m.Pix[1])
	}
}
