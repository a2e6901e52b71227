package imaging

import "math"

// ─── Structural Similarity ──────────────────────────────────────────────────

const (
	// ssimWindow is the side of the uniform local window.
	ssimWindow = 7

	// Stabilizers for an 8-bit dynamic range: (K·L)² with K1=0.01, K2=0.03, L=255.
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// SSIM computes the mean structural similarity between two images of the same
// shape using a uniform 7×7 window. The result is in [-1, 1]; identical
// images score 1. Images smaller than the window fall back to a single
// global window.
func SSIM(a, b *Gray) float64 {
	if a.W != b.W || a.H != b.H || a.W == 0 || a.H == 0 {
		return 0
	}
	win := ssimWindow
	if a.W < win || a.H < win {
		if a.W < a.H {
			win = a.W
		} else {
			win = a.H
		}
	}

	prodAB := NewGray(a.W, a.H)
	sqA := NewGray(a.W, a.H)
	sqB := NewGray(a.W, a.H)
	for i := range a.Pix {
		prodAB.Pix[i] = a.Pix[i] * b.Pix[i]
		sqA.Pix[i] = a.Pix[i] * a.Pix[i]
		sqB.Pix[i] = b.Pix[i] * b.Pix[i]
	}

	intA := integral(a)
	intB := integral(b)
	intAB := integral(prodAB)
	intAA := integral(sqA)
	intBB := integral(sqB)

	area := float64(win * win)
	sum, count := 0.0, 0
	for y := 0; y+win <= a.H; y++ {
		for x := 0; x+win <= a.W; x++ {
			muA := boxSum(intA, a.W, x, y, x+win, y+win) / area
			muB := boxSum(intB, a.W, x, y, x+win, y+win) / area
			varA := boxSum(intAA, a.W, x, y, x+win, y+win)/area - muA*muA
			varB := boxSum(intBB, a.W, x, y, x+win, y+win)/area - muB*muB
			cov := boxSum(intAB, a.W, x, y, x+win, y+win)/area - muA*muB

			num := (2*muA*muB + ssimC1) * (2*cov + ssimC2)
			den := (muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2)
			sum += num / den
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// PSNR computes the peak signal-to-noise ratio in dB between two images of
// the same shape, assuming an 8-bit range. Identical images are capped at
// 100 dB rather than +Inf so downstream statistics stay finite.
func PSNR(a, b *Gray) float64 {
	if a.W != b.W || a.H != b.H || len(a.Pix) == 0 {
		return 0
	}
	mse := 0.0
	for i := range a.Pix {
		d := a.Pix[i] - b.Pix[i]
		mse += d * d
	}
	mse /= float64(len(a.Pix))
	if mse < 1e-10 {
		return 100
	}
	return 10 * math.Log10(255*255/mse)
}
