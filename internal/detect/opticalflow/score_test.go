package opticalflow

import (
	"math"
	"testing"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Scoring Tests ──────────────────────────────────────────────────────────

// uniformFlow builds a w×h flow field with constant (vx, vy) everywhere.
func uniformFlow(t *testing.T, w, h int, vx, vy float64) (*imaging.Gray, *imaging.Gray) {
	t.Helper()
	fx := imaging.NewGray(w, h)
	fy := imaging.NewGray(w, h)
	for i := range fx.Pix {
		fx.Pix[i] = vx
		fy.Pix[i] = vy
	}
	return fx, fy
}

func TestFlowStats_UniformField(t *testing.T) {
	fx, fy := uniformFlow(t, 16, 16, 3, 4)
	s := FlowStats(fx, fy)

	if math.Abs(s.MeanMagnitude-5) > 1e-9 {
		t.Errorf("mean magnitude = %v, want 5", s.MeanMagnitude)
	}
	if s.StdMagnitude != 0 {
		t.Errorf("std magnitude = %v, want 0", s.StdMagnitude)
	}
	if s.FlowDensity != 1 {
		t.Errorf("flow density = %v, want 1 (all pixels moving)", s.FlowDensity)
	}
	if s.Smoothness != 1 {
		t.Errorf("smoothness = %v, want 1 for uniform field", s.Smoothness)
	}
}

func TestFlowStats_StaticScene(t *testing.T) {
	fx, fy := uniformFlow(t, 16, 16, 0, 0)
	s := FlowStats(fx, fy)
	if s.FlowDensity != 0 {
		t.Errorf("flow density = %v, want 0 for static scene", s.FlowDensity)
	}
	if s.MaxMagnitude != 0 {
		t.Errorf("max magnitude = %v, want 0", s.MaxMagnitude)
	}
}

func TestFlowStats_DensityThreshold(t *testing.T) {
	// Sub-pixel drift above 0.5px counts as motion; below it does not.
	fx, fy := uniformFlow(t, 16, 16, 0.7, 0)
	if s := FlowStats(fx, fy); s.FlowDensity != 1 {
		t.Errorf("flow density = %v, want 1 for 0.7px drift", s.FlowDensity)
	}
	fx, fy = uniformFlow(t, 16, 16, 0.4, 0)
	if s := FlowStats(fx, fy); s.FlowDensity != 0 {
		t.Errorf("flow density = %v, want 0 for 0.4px drift", s.FlowDensity)
	}
}

func TestSmoothness_DiscontinuousField(t *testing.T) {
	// Left half moves right, right half moves left: a hard seam.
	fx := imaging.NewGray(32, 32)
	fy := imaging.NewGray(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				fx.Set(x, y, 5)
			} else {
				fx.Set(x, y, -5)
			}
		}
	}
	rough := Smoothness(fx, fy)
	smoothFx, smoothFy := uniformFlow(t, 32, 32, 5, 0)
	smooth := Smoothness(smoothFx, smoothFy)
	if rough >= smooth {
		t.Errorf("seamed field smoothness %v should be below uniform field %v", rough, smooth)
	}
}

func TestDetectAnomalies_BelowSampleMinimum(t *testing.T) {
	stats := make([]PairStats, 5)
	if got := DetectAnomalies(stats, 2.5); got != nil {
		t.Errorf("flags = %v, want nil with only 5 pairs", got)
	}
}

func TestDetectAnomalies_MagnitudeSpike(t *testing.T) {
	var stats []PairStats
	for i := 0; i < 15; i++ {
		stats = append(stats, PairStats{MeanMagnitude: 2, Smoothness: 0.9})
	}
	stats[7].MeanMagnitude = 40

	flags := DetectAnomalies(stats, 2.5)
	if len(flags) != 1 || flags[0] != 7 {
		t.Errorf("flags = %v, want [7]", flags)
	}
}

func TestDetectAnomalies_SmoothnessDrop(t *testing.T) {
	var stats []PairStats
	for i := 0; i < 15; i++ {
		stats = append(stats, PairStats{MeanMagnitude: 2, Smoothness: 0.9})
	}
	stats[3].Smoothness = 0.1

	flags := DetectAnomalies(stats, 2.5)
	found := false
	for _, f := range flags {
		if f == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("flags = %v, want index 3 flagged for smoothness drop", flags)
	}
}

func TestBuildReport_ScoreAndVerdict(t *testing.T) {
	// All smooth, no anomalies: score = 0.5·(1−0.9) = 0.05, authentic.
	var stats []PairStats
	for i := 0; i < 12; i++ {
		stats = append(stats, PairStats{MeanMagnitude: 2, Smoothness: 0.9})
	}
	report := BuildReport("clip.mp4", 100, 30, stats, 2.5)

	if math.Abs(report.AnomalyScore-0.05) > 1e-9 {
		t.Errorf("score = %v, want 0.05", report.AnomalyScore)
	}
	if report.IsManipulated {
		t.Error("clean clip should not be flagged")
	}
	if report.AnalyzedFrames != 12 {
		t.Errorf("analyzed frames = %d, want 12", report.AnalyzedFrames)
	}

	// Very rough motion pushes the score over the threshold.
	for i := range stats {
		stats[i].Smoothness = 0.1
	}
	report = BuildReport("clip.mp4", 100, 30, stats, 2.5)
	if !report.IsManipulated {
		t.Errorf("rough clip score %v should exceed %v", report.AnomalyScore, ScoreThreshold)
	}
}
