package noisepattern

import (
	"math"
	"testing"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Scoring Tests ──────────────────────────────────────────────────────────

// pseudoGaussianResidual builds a residual whose values follow an
// inverse-CDF spacing of N(0, sigma), shuffled deterministically so
// consecutive pixels decorrelate.
func pseudoGaussianResidual(t *testing.T, w, h int, sigma float64, seed int) *imaging.Gray {
	t.Helper()
	n := w * h
	g := imaging.NewGray(w, h)
	for i := 0; i < n; i++ {
		// Linear congruential walk over the quantile grid.
		j := (i*2654435761 + seed) % n
		if j < 0 {
			j += n
		}
		u := (float64(j) + 0.5) / float64(n)
		g.Pix[i] = sigma * probit(u)
	}
	return g
}

func probit(u float64) float64 {
	a := []float64{-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00}
	b := []float64{-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01}
	q := u - 0.5
	r := q * q
	num := ((((a[0]*r+a[1])*r+a[2])*r+a[3])*r + a[4]) * r * q
	den := (((((b[0]*r+b[1])*r+b[2])*r+b[3])*r + b[4]) * r) + 1
	return num/den + q*a[5]/den
}

func TestResidualStats_GaussianResidual(t *testing.T) {
	residual := pseudoGaussianResidual(t, 64, 64, 3, 1)
	s := ResidualStats(residual)

	if math.Abs(s.Mean) > 0.2 {
		t.Errorf("mean = %v, want near 0", s.Mean)
	}
	if math.Abs(s.Std-3) > 0.3 {
		t.Errorf("std = %v, want near 3", s.Std)
	}
	if !s.IsGaussian {
		t.Errorf("KS p = %v, gaussian residual should pass normality", s.KSPValue)
	}
	if math.Abs(s.Kurtosis) > 1 {
		t.Errorf("kurtosis = %v, want near 0", s.Kurtosis)
	}
}

func TestResidualStats_FlatResidual(t *testing.T) {
	residual := imaging.NewGray(32, 32)
	s := ResidualStats(residual)

	if s.Variance != 0 {
		t.Errorf("variance = %v, want 0", s.Variance)
	}
	if s.Entropy != 0 {
		t.Errorf("entropy = %v, want 0 for constant residual", s.Entropy)
	}
	if s.IsGaussian {
		t.Error("a zero residual should not pass normality")
	}
}

func TestResidualBands_WhiteVsSmoothNoise(t *testing.T) {
	white := pseudoGaussianResidual(t, 64, 64, 3, 1)

	// Smooth the same residual heavily: high frequencies collapse.
	smooth := imaging.NewGray(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			var sum float64
			var count float64
			for dy := -3; dy <= 3; dy++ {
				for dx := -3; dx <= 3; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < 64 && ny >= 0 && ny < 64 {
						sum += white.At(nx, ny)
						count++
					}
				}
			}
			smooth.Set(x, y, sum/count)
		}
	}

	whiteBands := ResidualBands(white)
	smoothBands := ResidualBands(smooth)
	if whiteBands.HighFreqRatio <= smoothBands.HighFreqRatio {
		t.Errorf("white residual high-freq ratio %v should exceed smoothed %v",
			whiteBands.HighFreqRatio, smoothBands.HighFreqRatio)
	}
}

func TestTemporalConsistency_RepeatedPatternIsHigh(t *testing.T) {
	base := pseudoGaussianResidual(t, 32, 32, 3, 1)
	residuals := []*imaging.Gray{base, base, base}
	if c := TemporalConsistency(residuals); math.Abs(c-1) > 1e-9 {
		t.Errorf("consistency = %v, want 1 for identical residuals", c)
	}
}

func TestTemporalConsistency_IndependentPatternsLow(t *testing.T) {
	residuals := []*imaging.Gray{
		pseudoGaussianResidual(t, 32, 32, 3, 1),
		pseudoGaussianResidual(t, 32, 32, 3, 977),
		pseudoGaussianResidual(t, 32, 32, 3, 12345),
	}
	c := TemporalConsistency(residuals)
	if c < 0.3 || c > 0.7 {
		t.Errorf("consistency = %v, want near 0.5 for uncorrelated residuals", c)
	}
}

func TestTemporalConsistency_Degenerate(t *testing.T) {
	if c := TemporalConsistency(nil); c != 0 {
		t.Errorf("consistency of empty = %v, want 0", c)
	}
	flat := []*imaging.Gray{imaging.NewGray(8, 8), imaging.NewGray(8, 8)}
	if c := TemporalConsistency(flat); c != 0 {
		t.Errorf("consistency of flat residuals = %v, want 0", c)
	}
}

func TestBuildReport_AuthenticNoise(t *testing.T) {
	base := pseudoGaussianResidual(t, 64, 64, 3, 1)
	residuals := []*imaging.Gray{base, base, base}
	var stats []FrameStats
	var bands []BandStats
	for range residuals {
		stats = append(stats, FrameStats{
			Variance:   9,
			Entropy:    6,
			Kurtosis:   0.1,
			IsGaussian: true,
		})
		bands = append(bands, BandStats{HighFreqRatio: 0.4})
	}
	report := BuildReport("clip.mp4", 90, 30, residuals, stats, bands)

	if report.AnomalyScore > 0.2 {
		t.Errorf("anomaly score = %v, want low for authentic noise", report.AnomalyScore)
	}
	if report.IsManipulated {
		t.Error("authentic noise should not be flagged")
	}
	if report.GaussianRatio != 1 {
		t.Errorf("gaussian ratio = %v, want 1", report.GaussianRatio)
	}
}

func TestBuildReport_MissingNoiseFlagged(t *testing.T) {
	// No noise at all: zero residuals, zero entropy, no correlation signal.
	residuals := []*imaging.Gray{
		imaging.NewGray(32, 32), imaging.NewGray(32, 32), imaging.NewGray(32, 32),
	}
	var stats []FrameStats
	var bands []BandStats
	for range residuals {
		stats = append(stats, FrameStats{})
		bands = append(bands, BandStats{})
	}
	report := BuildReport("clip.mp4", 90, 30, residuals, stats, bands)

	// Only the kurtosis component (|0| near gaussian) contributes: 0.15.
	if math.Abs(report.AuthenticityScore-0.15) > 1e-9 {
		t.Errorf("authenticity = %v, want 0.15", report.AuthenticityScore)
	}
	if !report.IsManipulated {
		t.Errorf("anomaly score = %v, want above %v", report.AnomalyScore, ScoreThreshold)
	}
}
