package noisepattern

import (
	"math"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Scoring ────────────────────────────────────────────────────────────────
// Pure over residual matrices and per-frame statistics.

// ResidualStats summarizes the distribution of one noise residual.
// Normality is judged by a KS test of the std-scaled residual against the
// standard normal.
func ResidualStats(residual *imaging.Gray) FrameStats {
	values := residual.Pix
	mean, std := imaging.MeanStd(values)

	scaled := make([]float64, len(values))
	denom := std + 1e-8
	for i, v := range values {
		scaled[i] = v / denom
	}
	d, p := imaging.KSStandardNormal(scaled)

	variance := std * std
	return FrameStats{
		Mean:        mean,
		Variance:    variance,
		Std:         std,
		Skewness:    imaging.Skewness(values),
		Kurtosis:    imaging.Kurtosis(values),
		KSStatistic: d,
		KSPValue:    p,
		SNRdB:       10 * math.Log10(variance+1e-8),
		Entropy:     imaging.Entropy(values),
		IsGaussian:  p > GaussianPValue,
	}
}

// ResidualBands splits the residual power spectrum into three annuli at
// LowBandFrac and HighBandFrac of the smaller image dimension and reports
// the mean power of each plus the high band's share.
func ResidualBands(residual *imaging.Gray) BandStats {
	mag := imaging.FFTMagnitude(residual)
	cx, cy := float64(mag.W/2), float64(mag.H/2)
	minDim := float64(mag.W)
	if mag.H < mag.W {
		minDim = float64(mag.H)
	}
	lowR, highR := minDim*LowBandFrac, minDim*HighBandFrac

	var lowSum, midSum, highSum float64
	var lowN, midN, highN float64
	for y := 0; y < mag.H; y++ {
		for x := 0; x < mag.W; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			v := mag.At(x, y)
			power := v * v
			switch {
			case d < lowR:
				lowSum += power
				lowN++
			case d < highR:
				midSum += power
				midN++
			default:
				highSum += power
				highN++
			}
		}
	}

	b := BandStats{}
	if lowN > 0 {
		b.LowPower = lowSum / lowN
	}
	if midN > 0 {
		b.MidPower = midSum / midN
	}
	if highN > 0 {
		b.HighPower = highSum / highN
	}
	if total := b.LowPower + b.MidPower + b.HighPower; total > 0 {
		b.HighFreqRatio = b.HighPower / total
	}
	return b
}

// TemporalConsistency correlates consecutive residuals and maps the mean
// Pearson coefficient into [0, 1]. Authentic sensor noise correlates across
// frames; synthetic noise does not.
func TemporalConsistency(residuals []*imaging.Gray) float64 {
	if len(residuals) < 2 {
		return 0
	}
	var correlations []float64
	for i := 0; i < len(residuals)-1; i++ {
		a, b := residuals[i], residuals[i+1]
		if len(a.Pix) != len(b.Pix) {
			continue
		}
		_, stdA := imaging.MeanStd(a.Pix)
		_, stdB := imaging.MeanStd(b.Pix)
		if stdA > 1e-8 && stdB > 1e-8 {
			correlations = append(correlations, imaging.Pearson(a.Pix, b.Pix))
		}
	}
	if len(correlations) == 0 {
		return 0
	}
	mean, _ := imaging.MeanStd(correlations)
	return (mean + 1) / 2
}

// BuildReport aggregates residual statistics into the final report. Five
// normalized components are combined into an authenticity score; the anomaly
// score is its complement, flagged above ScoreThreshold.
func BuildReport(videoPath string, totalFrames int, fps float64, residuals []*imaging.Gray, stats []FrameStats, bands []BandStats) Report {
	n := float64(len(stats))
	var varianceSum, entropySum, kurtosisSum, gaussianCount, highFreqSum float64
	for _, s := range stats {
		varianceSum += s.Variance
		entropySum += s.Entropy
		kurtosisSum += s.Kurtosis
		if s.IsGaussian {
			gaussianCount++
		}
	}
	for _, b := range bands {
		highFreqSum += b.HighFreqRatio
	}
	avgVariance := varianceSum / n
	avgEntropy := entropySum / n
	avgKurtosis := kurtosisSum / n
	gaussianRatio := gaussianCount / n
	avgHighFreq := highFreqSum / float64(len(bands))

	consistency := TemporalConsistency(residuals)
	characteristics := Characteristics{
		ConsistencyScore: consistency,
		GaussianScore:    gaussianRatio,
		EntropyScore:     imaging.Clip(avgEntropy/entropyAnchor, 0, 1),
		KurtosisScore:    1 - imaging.Clip(math.Abs(avgKurtosis)/kurtosisAnchor, 0, 1),
		FrequencyScore:   imaging.Clip(avgHighFreq*freqRatioScale, 0, 1),
	}

	authenticity := characteristics.ConsistencyScore*weightConsistency +
		characteristics.GaussianScore*weightGaussian +
		characteristics.EntropyScore*weightEntropy +
		characteristics.KurtosisScore*weightKurtosis +
		characteristics.FrequencyScore*weightFrequency
	anomaly := 1 - authenticity

	return Report{
		VideoPath:            videoPath,
		TotalFrames:          totalFrames,
		AnalyzedFrames:       len(stats),
		FPS:                  fps,
		AvgNoiseVariance:     avgVariance,
		AvgNoiseEntropy:      avgEntropy,
		AvgKurtosis:          avgKurtosis,
		GaussianRatio:        gaussianRatio,
		TemporalConsistency:  consistency,
		AvgHighFreqRatio:     avgHighFreq,
		AuthenticityScore:    authenticity,
		AnomalyScore:         anomaly,
		IsManipulated:        anomaly > ScoreThreshold,
		NoiseCharacteristics: characteristics,
		FrameStatistics:      stats,
	}
}

// Anomaly returns the final verdict.
func (r Report) Anomaly() (float64, bool) { return r.AnomalyScore, r.IsManipulated }
