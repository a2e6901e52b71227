package frequency

import "github.com/LiWinston/DeepFake-Forensic/internal/imaging"

// ─── Scoring ────────────────────────────────────────────────────────────────
// Pure over centered magnitude spectra and per-frame measurements.

// MeasureSpectrum computes all spectral statistics for one frame from its
// centered linear-magnitude spectrum. Band energy and the centroid use the
// linear magnitudes; periodic peaks are found on the log-scaled radial
// profile where the dynamic range is manageable.
func MeasureSpectrum(mag *imaging.Gray) FrameStats {
	s := FrameStats{BandProfile: imaging.Bands(mag, LowBandFrac, MidBandFrac)}

	profile := imaging.RadialProfile(imaging.LogScale(mag))
	if len(profile) > 10 {
		_, std := imaging.MeanStd(profile)
		peaks := imaging.FindPeaks(profile, std*0.5, PeakMinDistance)
		s.NumPeriodicPeaks = len(peaks)
		if len(peaks) > 0 {
			proms := imaging.PeakProminences(profile, peaks)
			mean, _ := imaging.MeanStd(proms)
			s.PeakProminence = mean
		}
	}
	s.HasPeriodicArtifacts = s.NumPeriodicPeaks > PeriodicPeakLimit
	s.SpectralFlatness = imaging.SpectralFlatness(mag.Pix)
	return s
}

// Consistency scores how stable the high-frequency ratio stays across
// frames: the inverse coefficient of variation mapped into (0, 1]. Fewer
// than two frames, or a zero mean, score 0.
func Consistency(stats []FrameStats) float64 {
	if len(stats) < 2 {
		return 0
	}
	ratios := make([]float64, len(stats))
	for i, s := range stats {
		ratios[i] = s.HighRatio
	}
	mean, std := imaging.MeanStd(ratios)
	if mean <= 0 {
		return 0
	}
	return 1 / (1 + std/mean)
}

// BuildReport aggregates frame spectra into the final report. Five
// normalized components are combined into an authenticity score; the anomaly
// score is its complement, flagged above ScoreThreshold.
func BuildReport(videoPath string, totalFrames int, fps float64, stats []FrameStats) Report {
	n := float64(len(stats))
	var highFreqSum, centroidSum, flatnessSum float64
	artifactFrames := 0
	for _, s := range stats {
		highFreqSum += s.HighRatio
		centroidSum += s.Centroid
		flatnessSum += s.SpectralFlatness
		if s.HasPeriodicArtifacts {
			artifactFrames++
		}
	}
	avgHighFreq := highFreqSum / n
	avgCentroid := centroidSum / n
	avgFlatness := flatnessSum / n
	artifactRatio := float64(artifactFrames) / n
	consistency := Consistency(stats)

	components := ComponentScores{
		HighFreqScore:    imaging.Clip(avgHighFreq/highFreqAnchor, 0, 1),
		CentroidScore:    imaging.Clip(avgCentroid/centroidAnchor, 0, 1),
		FlatnessScore:    imaging.Clip(avgFlatness/flatnessAnchor, 0, 1),
		ArtifactScore:    1 - artifactRatio,
		ConsistencyScore: consistency,
	}

	authenticity := components.HighFreqScore*weightHighFreq +
		components.CentroidScore*weightCentroid +
		components.FlatnessScore*weightFlatness +
		components.ArtifactScore*weightArtifact +
		components.ConsistencyScore*weightConsistency
	anomaly := 1 - authenticity

	return Report{
		VideoPath:              videoPath,
		TotalFrames:            totalFrames,
		AnalyzedFrames:         len(stats),
		FPS:                    fps,
		AvgHighFreqRatio:       avgHighFreq,
		AvgSpectralCentroid:    avgCentroid,
		AvgSpectralFlatness:    avgFlatness,
		FrequencyConsistency:   consistency,
		FramesWithArtifacts:    artifactFrames,
		ArtifactRatio:          artifactRatio,
		GANFingerprintDetected: artifactRatio > ArtifactRatioLimit,
		AuthenticityScore:      authenticity,
		AnomalyScore:           anomaly,
		IsManipulated:          anomaly > ScoreThreshold,
		ComponentScores:        components,
		FrameStatistics:        stats,
	}
}

// Anomaly returns the final verdict.
func (r Report) Anomaly() (float64, bool) { return r.AnomalyScore, r.IsManipulated }
