package imaging

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ─── Frequency Domain ───────────────────────────────────────────────────────

// FFTMagnitude computes the centered 2-D DFT magnitude of an image. The zero
// frequency ends up at (W/2, H/2), so radial distance from the center maps
// directly to spatial frequency.
func FFTMagnitude(g *Gray) *Gray {
	w, h := g.W, g.H
	if w == 0 || h == 0 {
		return NewGray(0, 0)
	}

	// Row transforms, then column transforms over the row results.
	rows := make([][]complex128, h)
	rowFFT := fourier.NewCmplxFFT(w)
	buf := make([]complex128, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf[x] = complex(g.At(x, y), 0)
		}
		rows[y] = append([]complex128(nil), rowFFT.Coefficients(nil, buf)...)
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	mag := NewGray(w, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = rows[y][x]
		}
		out := colFFT.Coefficients(nil, col)
		for y := 0; y < h; y++ {
			// Shift quadrants so DC sits at the center.
			sx := (x + w/2) % w
			sy := (y + h/2) % h
			mag.Set(sx, sy, math.Hypot(real(out[y]), imag(out[y])))
		}
	}
	return mag
}

// LogScale maps every magnitude through log(1+v), compressing the huge
// dynamic range of a raw spectrum.
func LogScale(mag *Gray) *Gray {
	out := NewGray(mag.W, mag.H)
	for i, v := range mag.Pix {
		out.Pix[i] = math.Log1p(v)
	}
	return out
}

// BandProfile summarizes how spectral energy splits across radial bands.
// Radii are normalized by the corner distance, so the high band covers the
// spectrum corners as well.
type BandProfile struct {
	LowPower  float64 `json:"low_freq_power"`
	MidPower  float64 `json:"mid_freq_power"`
	HighPower float64 `json:"high_freq_power"`
	LowRatio  float64 `json:"low_freq_ratio"`
	MidRatio  float64 `json:"mid_freq_ratio"`
	HighRatio float64 `json:"high_freq_ratio"`
	Centroid  float64 `json:"spectral_centroid"`
}

// Bands averages a centered linear-magnitude spectrum over three annuli split
// at lowFrac and midFrac of the corner radius, and computes the normalized
// spectral centroid (energy-weighted mean radius).
func Bands(mag *Gray, lowFrac, midFrac float64) BandProfile {
	cx, cy := float64(mag.W/2), float64(mag.H/2)
	maxDist := math.Hypot(cx, cy)
	if maxDist <= 0 {
		return BandProfile{}
	}

	var lowSum, midSum, highSum float64
	var lowN, midN, highN float64
	var centroidNum, centroidDen float64
	for y := 0; y < mag.H; y++ {
		for x := 0; x < mag.W; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			v := mag.At(x, y)
			switch {
			case d < lowFrac:
				lowSum += v
				lowN++
			case d < midFrac:
				midSum += v
				midN++
			default:
				highSum += v
				highN++
			}
			centroidNum += d * v
			centroidDen += v
		}
	}

	p := BandProfile{}
	if lowN > 0 {
		p.LowPower = lowSum / lowN
	}
	if midN > 0 {
		p.MidPower = midSum / midN
	}
	if highN > 0 {
		p.HighPower = highSum / highN
	}
	total := p.LowPower + p.MidPower + p.HighPower
	if total > 0 {
		p.LowRatio = p.LowPower / total
		p.MidRatio = p.MidPower / total
		p.HighRatio = p.HighPower / total
	}
	if centroidDen > 0 {
		p.Centroid = centroidNum / centroidDen
	}
	return p
}

// RadialProfile averages a centered spectrum over integer-radius rings out to
// the corner radius, producing a 1-D frequency profile from DC outward.
// Rings with no pixels stay at zero.
func RadialProfile(mag *Gray) []float64 {
	cx, cy := float64(mag.W/2), float64(mag.H/2)
	maxR := int(math.Hypot(cx, cy))
	if maxR <= 0 {
		return nil
	}
	sums := make([]float64, maxR)
	counts := make([]float64, maxR)
	for y := 0; y < mag.H; y++ {
		for x := 0; x < mag.W; x++ {
			r := int(math.Hypot(float64(x)-cx, float64(y)-cy))
			if r >= maxR {
				continue
			}
			sums[r] += mag.At(x, y)
			counts[r]++
		}
	}
	profile := make([]float64, maxR)
	for i := range sums {
		if counts[i] > 0 {
			profile[i] = sums[i] / counts[i]
		}
	}
	return profile
}

// SpectralFlatness returns the Wiener entropy of the magnitudes: the ratio of
// geometric to arithmetic mean, 1 for white noise and near 0 for a spectrum
// dominated by a few components. Zero entries are skipped.
func SpectralFlatness(values []float64) float64 {
	const eps = 1e-10
	logSum, sum := 0.0, 0.0
	n := 0
	for _, v := range values {
		if v <= 0 {
			continue
		}
		logSum += math.Log(v + eps)
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	geo := math.Exp(logSum / float64(n))
	arith := sum / float64(n)
	return geo / (arith + eps)
}

// ─── Peak Detection ─────────────────────────────────────────────────────────

// FindPeaks locates local maxima in x with at least the given prominence,
// keeping only the highest peak within any minDistance-wide neighborhood.
// Indices are returned in ascending order.
func FindPeaks(x []float64, minProminence float64, minDistance int) []int {
	var candidates []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] >= x[i+1] {
			candidates = append(candidates, i)
		}
	}

	var peaks []int
	for _, i := range candidates {
		if prominence(x, i) >= minProminence {
			peaks = append(peaks, i)
		}
	}
	if minDistance <= 1 || len(peaks) < 2 {
		return peaks
	}

	// Greedy suppression: keep taller peaks, drop neighbors too close to one
	// already kept.
	order := append([]int(nil), peaks...)
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && x[order[j]] > x[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	kept := make(map[int]bool)
	for _, p := range order {
		ok := true
		for k := range kept {
			if abs(p-k) < minDistance {
				ok = false
				break
			}
		}
		if ok {
			kept[p] = true
		}
	}
	out := peaks[:0]
	for _, p := range peaks {
		if kept[p] {
			out = append(out, p)
		}
	}
	return out
}

// PeakProminences returns the prominence of each peak index.
func PeakProminences(x []float64, peaks []int) []float64 {
	out := make([]float64, len(peaks))
	for i, p := range peaks {
		out[i] = prominence(x, p)
	}
	return out
}

// prominence measures how far a peak rises above the higher of the two
// valleys separating it from larger terrain.
func prominence(x []float64, peak int) float64 {
	leftMin := x[peak]
	for i := peak - 1; i >= 0; i-- {
		if x[i] > x[peak] {
			break
		}
		if x[i] < leftMin {
			leftMin = x[i]
		}
	}
	rightMin := x[peak]
	for i := peak + 1; i < len(x); i++ {
		if x[i] > x[peak] {
			break
		}
		if x[i] < rightMin {
			rightMin = x[i]
		}
	}
	base := math.Max(leftMin, rightMin)
	return x[peak] - base
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
