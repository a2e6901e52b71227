package temporal

import "github.com/LiWinston/DeepFake-Forensic/internal/imaging"

// ─── Scoring ────────────────────────────────────────────────────────────────
// Pure over per-transition metrics.

// DetectAnomalies flags transitions whose SSIM or PSNR drops more than
// sensitivity standard deviations below the series mean. Drops only; a
// transition that is unusually similar is not suspicious. Fewer than the
// minimum sample count yields no flags.
func DetectAnomalies(metrics []PairMetrics, sensitivity float64) []int {
	if len(metrics) < imaging.MinAnomalySamples {
		return nil
	}
	ssim := make([]float64, len(metrics))
	psnr := make([]float64, len(metrics))
	for i, m := range metrics {
		ssim[i] = m.SSIM
		psnr[i] = m.PSNR
	}
	return imaging.UnionFlags(lowSideFlags(ssim, sensitivity), lowSideFlags(psnr, sensitivity))
}

// lowSideFlags returns indices falling below mean − sensitivity·std.
func lowSideFlags(values []float64, sensitivity float64) []int {
	mean, std := imaging.MeanStd(values)
	threshold := mean - sensitivity*std
	var flags []int
	for i, v := range values {
		if v < threshold {
			flags = append(flags, i)
		}
	}
	return flags
}

// BuildReport aggregates transition metrics into the final report. The score
// weighs the flagged ratio at 0.6 against overall dissimilarity (1 − mean
// SSIM) at 0.4; above ScoreThreshold the clip is considered manipulated.
func BuildReport(videoPath string, totalFrames int, fps float64, metrics []PairMetrics, sensitivity float64) Report {
	anomalies := DetectAnomalies(metrics, sensitivity)

	ssim := make([]float64, len(metrics))
	psnr := make([]float64, len(metrics))
	for i, m := range metrics {
		ssim[i] = m.SSIM
		psnr[i] = m.PSNR
	}
	avgSSIM, stdSSIM := imaging.MeanStd(ssim)
	avgPSNR, stdPSNR := imaging.MeanStd(psnr)

	ratio := 0.0
	if len(metrics) > 0 {
		ratio = float64(len(anomalies)) / float64(len(metrics))
	}
	score := ratio*0.6 + (1-avgSSIM)*0.4

	if anomalies == nil {
		anomalies = []int{}
	}
	return Report{
		VideoPath:       videoPath,
		TotalFrames:     totalFrames,
		AnalyzedFrames:  len(metrics),
		FPS:             fps,
		AvgSSIM:         avgSSIM,
		StdSSIM:         stdSSIM,
		AvgPSNR:         avgPSNR,
		StdPSNR:         stdPSNR,
		AnomalyScore:    score,
		IsManipulated:   score > ScoreThreshold,
		NumAnomalies:    len(anomalies),
		AnomalyFrames:   anomalies,
		TemporalMetrics: metrics,
	}
}

// Anomaly returns the final verdict.
func (r Report) Anomaly() (float64, bool) { return r.AnomalyScore, r.IsManipulated }
