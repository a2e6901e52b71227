package imaging

import (
	"math"
	"testing"
)

// ─── Spectrum Tests ─────────────────────────────────────────────────────────

func TestFFTMagnitude_ConstantImageIsDCOnly(t *testing.T) {
	g := NewGray(16, 16)
	for i := range g.Pix {
		g.Pix[i] = 100
	}
	mag := FFTMagnitude(g)

	// All energy at the shifted DC bin.
	dc := mag.At(8, 8)
	if math.Abs(dc-100*16*16) > 1e-6 {
		t.Errorf("DC magnitude = %v, want %v", dc, 100*16*16)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x == 8 && y == 8 {
				continue
			}
			if mag.At(x, y) > 1e-6 {
				t.Fatalf("non-DC bin (%d,%d) = %v, want 0", x, y, mag.At(x, y))
			}
		}
	}
}

func TestFFTMagnitude_SinusoidPeaksOffCenter(t *testing.T) {
	g := NewGray(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			g.Set(x, y, 128+50*math.Cos(2*math.Pi*4*float64(x)/32))
		}
	}
	mag := FFTMagnitude(g)

	// Horizontal frequency 4 shows up at (center±4, center).
	peak := mag.At(16+4, 16)
	if peak < 1000 {
		t.Errorf("expected strong bin at horizontal frequency 4, got %v", peak)
	}
	if mag.At(16, 16+4) > peak/10 {
		t.Errorf("unexpected vertical frequency energy %v", mag.At(16, 16+4))
	}
}

func TestBands_RatiosSumToOne(t *testing.T) {
	g := gradientImage(t, 32, 32)
	mag := FFTMagnitude(g)
	p := Bands(mag, 0.2, 0.5)
	if s := p.LowRatio + p.MidRatio + p.HighRatio; math.Abs(s-1) > 1e-9 {
		t.Errorf("band ratios sum = %v, want 1", s)
	}
	if p.LowRatio <= 0 {
		t.Errorf("low band ratio = %v, want > 0", p.LowRatio)
	}
	if p.Centroid < 0 || p.Centroid > 1 {
		t.Errorf("centroid = %v, want in [0, 1]", p.Centroid)
	}
}

func TestBands_DCOnlySpectrumIsLowHeavy(t *testing.T) {
	mag := NewGray(32, 32)
	mag.Set(16, 16, 1000)
	p := Bands(mag, 0.2, 0.5)
	if p.LowRatio != 1 {
		t.Errorf("low ratio = %v, want 1 for DC-only spectrum", p.LowRatio)
	}
	if p.Centroid != 0 {
		t.Errorf("centroid = %v, want 0 for DC-only spectrum", p.Centroid)
	}
}

func TestRadialProfile_FlatSpectrum(t *testing.T) {
	mag := NewGray(40, 30)
	for i := range mag.Pix {
		mag.Pix[i] = 1
	}
	profile := RadialProfile(mag)
	// Corner radius of a 40×30 spectrum: hypot(20, 15) = 25.
	if len(profile) != 25 {
		t.Fatalf("profile length = %d, want 25 (corner radius)", len(profile))
	}
	for r, v := range profile {
		if v != 1 && v != 0 {
			t.Errorf("ring %d mean = %v, want 1 (or 0 for empty rings)", r, v)
		}
	}
	if profile[0] != 1 || profile[10] != 1 {
		t.Error("interior rings should average 1 for a flat spectrum")
	}
}

func TestSpectralFlatness_Extremes(t *testing.T) {
	flat := []float64{3, 3, 3, 3, 3}
	if f := SpectralFlatness(flat); math.Abs(f-1) > 1e-6 {
		t.Errorf("flatness of constant = %v, want 1", f)
	}
	peaky := []float64{1000, 0, 0, 0, 0, 0, 0, 0}
	if f := SpectralFlatness(peaky); f > 0.1 {
		t.Errorf("flatness of single spike = %v, want near 0", f)
	}
}

func TestFindPeaks_BasicAndDistance(t *testing.T) {
	x := []float64{0, 5, 0, 0, 4, 0, 0, 0, 6, 0}
	peaks := FindPeaks(x, 1.0, 1)
	if len(peaks) != 3 {
		t.Fatalf("peaks = %v, want 3 peaks", peaks)
	}

	// With min distance 5 the weaker middle peak at 4 is suppressed by the
	// peak at index 1 (distance 3) while index 8 survives.
	peaks = FindPeaks(x, 1.0, 5)
	if len(peaks) != 2 || peaks[0] != 1 || peaks[1] != 8 {
		t.Errorf("peaks = %v, want [1 8]", peaks)
	}
}

func TestFindPeaks_ProminenceFilter(t *testing.T) {
	// Small ripple on a big peak's shoulder has low prominence.
	x := []float64{0, 10, 8, 8.5, 8, 0}
	peaks := FindPeaks(x, 2.0, 1)
	if len(peaks) != 1 || peaks[0] != 1 {
		t.Errorf("peaks = %v, want only the dominant peak [1]", peaks)
	}
}
