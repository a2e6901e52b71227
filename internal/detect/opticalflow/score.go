package opticalflow

import (
	"math"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Scoring ────────────────────────────────────────────────────────────────
// Pure over flow matrices and per-pair statistics.

// FlowStats summarizes a dense flow field given its x and y components.
func FlowStats(fx, fy *imaging.Gray) PairStats {
	n := len(fx.Pix)
	if n == 0 {
		return PairStats{Smoothness: 1}
	}
	magnitudes := make([]float64, n)
	var angleSum, moving float64
	for i := range fx.Pix {
		m := math.Hypot(fx.Pix[i], fy.Pix[i])
		magnitudes[i] = m
		a := math.Atan2(fy.Pix[i], fx.Pix[i])
		if a < 0 {
			a += 2 * math.Pi
		}
		angleSum += a
		if m > MotionThreshold {
			moving++
		}
	}

	mean, std := imaging.MeanStd(magnitudes)
	max := magnitudes[0]
	for _, m := range magnitudes[1:] {
		if m > max {
			max = m
		}
	}
	return PairStats{
		MeanMagnitude:   mean,
		StdMagnitude:    std,
		MaxMagnitude:    max,
		MedianMagnitude: imaging.Percentile(magnitudes, 50),
		MeanAngle:       angleSum / float64(n),
		FlowDensity:     moving / float64(n),
		Smoothness:      Smoothness(fx, fy),
	}
}

// Smoothness scores how coherent a flow field is in [0, 1]. The spatial
// gradient of each flow component measures local discontinuity; the mean
// gradient is normalized by its 95th percentile so isolated spikes do not
// dominate. Higher means smoother, more camera-like motion.
func Smoothness(fx, fy *imaging.Gray) float64 {
	dx := imaging.SobelX(fx)
	dy := imaging.SobelY(fy)
	grad := imaging.GradientMagnitude(dx, dy)

	maxGrad := imaging.Percentile(grad.Pix, 95)
	if maxGrad <= 0 {
		return 1
	}
	mean, _ := imaging.MeanStd(grad.Pix)
	return 1 - imaging.Clip(mean/maxGrad, 0, 1)
}

// DetectAnomalies flags pairs whose mean magnitude deviates two-sided, or
// whose smoothness drops low-side, beyond sensitivity standard deviations.
// Fewer than the minimum sample count yields no flags.
func DetectAnomalies(stats []PairStats, sensitivity float64) []int {
	if len(stats) < imaging.MinAnomalySamples {
		return nil
	}
	magnitudes := make([]float64, len(stats))
	smoothness := make([]float64, len(stats))
	maxSmooth := 0.0
	for i, s := range stats {
		magnitudes[i] = s.MeanMagnitude
		smoothness[i] = s.Smoothness
		if s.Smoothness > maxSmooth {
			maxSmooth = s.Smoothness
		}
	}

	magFlags := imaging.ZScoreFlags(magnitudes, sensitivity)

	var smoothFlags []int
	if maxSmooth > 0 {
		mean, std := imaging.MeanStd(smoothness)
		threshold := mean - sensitivity*std
		for i, v := range smoothness {
			if v < threshold {
				smoothFlags = append(smoothFlags, i)
			}
		}
	}
	return imaging.UnionFlags(magFlags, smoothFlags)
}

// BuildReport aggregates pair statistics into the final report. The score
// mixes the flagged-pair ratio with average flow roughness equally; above
// ScoreThreshold the clip is considered manipulated.
func BuildReport(videoPath string, totalFrames int, fps float64, stats []PairStats, sensitivity float64) Report {
	anomalies := DetectAnomalies(stats, sensitivity)

	magnitudes := make([]float64, len(stats))
	smoothness := make([]float64, len(stats))
	for i, s := range stats {
		magnitudes[i] = s.MeanMagnitude
		smoothness[i] = s.Smoothness
	}
	avgMag, stdMag := imaging.MeanStd(magnitudes)
	avgSmooth, stdSmooth := imaging.MeanStd(smoothness)

	ratio := 0.0
	if len(stats) > 0 {
		ratio = float64(len(anomalies)) / float64(len(stats))
	}
	score := ratio*0.5 + (1-avgSmooth)*0.5

	if anomalies == nil {
		anomalies = []int{}
	}
	return Report{
		VideoPath:         videoPath,
		TotalFrames:       totalFrames,
		AnalyzedFrames:    len(stats),
		FPS:               fps,
		AvgFlowMagnitude:  avgMag,
		StdFlowMagnitude:  stdMag,
		AvgFlowSmoothness: avgSmooth,
		StdFlowSmoothness: stdSmooth,
		AnomalyScore:      score,
		IsManipulated:     score > ScoreThreshold,
		NumAnomalies:      len(anomalies),
		AnomalousFrames:   anomalies,
		FlowStatistics:    stats,
	}
}

// Anomaly returns the final verdict.
func (r Report) Anomaly() (float64, bool) { return r.AnomalyScore, r.IsManipulated }
