// Package noisepattern examines sensor noise residuals.
//
// Camera sensors imprint a stable, near-Gaussian noise pattern on every
// frame. Generated footage either lacks noise entirely or carries synthetic
// noise with the wrong distribution and no temporal correlation. Each
// sampled frame is denoised; the residual's distribution, randomness and
// frame-to-frame correlation feed a weighted authenticity score.
package noisepattern

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/LiWinston/DeepFake-Forensic/internal/detect"
	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
	"github.com/LiWinston/DeepFake-Forensic/internal/video"
)

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	// Method is the report identifier for this analyzer.
	Method = "noise_pattern"

	// DefaultSampleFrames is how many frames are analyzed by default.
	DefaultSampleFrames = 30

	// DefaultNoiseSigma is the non-local-means filter strength.
	DefaultNoiseSigma = 10.0

	// Non-local-means window sizes.
	templateWindowSize = 7
	searchWindowSize   = 21

	// GaussianPValue is the KS p-value above which a residual is accepted
	// as normally distributed.
	GaussianPValue = 0.05

	// Band boundaries for the residual spectrum, as fractions of the
	// smaller image dimension.
	LowBandFrac  = 0.1
	HighBandFrac = 0.3

	// ScoreThreshold is the anomaly score above which the clip is flagged.
	ScoreThreshold = 0.5
)

// Authenticity component weights.
const (
	weightConsistency = 0.30
	weightGaussian    = 0.20
	weightEntropy     = 0.20
	weightKurtosis    = 0.15
	weightFrequency   = 0.15
)

// Normalization anchors for component scores.
const (
	entropyAnchor  = 5.0
	kurtosisAnchor = 10.0
	freqRatioScale = 3.0
)

// ─── Types ──────────────────────────────────────────────────────────────────

// FrameStats holds the residual statistics for one frame.
type FrameStats struct {
	Mean        float64 `json:"mean"`
	Variance    float64 `json:"variance"`
	Std         float64 `json:"std"`
	Skewness    float64 `json:"skewness"`
	Kurtosis    float64 `json:"kurtosis"`
	KSStatistic float64 `json:"ks_statistic"`
	KSPValue    float64 `json:"ks_pvalue"`
	SNRdB       float64 `json:"snr_db"`
	Entropy     float64 `json:"entropy"`
	IsGaussian  bool    `json:"is_gaussian"`
	FrameIndex  int     `json:"frame_index"`
}

// BandStats holds the residual spectrum band powers for one frame.
type BandStats struct {
	LowPower      float64 `json:"low_freq_power"`
	MidPower      float64 `json:"mid_freq_power"`
	HighPower     float64 `json:"high_freq_power"`
	HighFreqRatio float64 `json:"high_freq_ratio"`
}

// Characteristics are the normalized authenticity components.
type Characteristics struct {
	ConsistencyScore float64 `json:"consistency_score"`
	GaussianScore    float64 `json:"gaussian_score"`
	EntropyScore     float64 `json:"entropy_score"`
	KurtosisScore    float64 `json:"kurtosis_score"`
	FrequencyScore   float64 `json:"frequency_score"`
}

// Report is the full noise pattern analysis result.
type Report struct {
	VideoPath            string          `json:"video_path"`
	TotalFrames          int             `json:"total_frames"`
	AnalyzedFrames       int             `json:"analyzed_frames"`
	FPS                  float64         `json:"fps"`
	AvgNoiseVariance     float64         `json:"avg_noise_variance"`
	AvgNoiseEntropy      float64         `json:"avg_noise_entropy"`
	AvgKurtosis          float64         `json:"avg_kurtosis"`
	GaussianRatio        float64         `json:"gaussian_ratio"`
	TemporalConsistency  float64         `json:"temporal_consistency"`
	AvgHighFreqRatio     float64         `json:"avg_high_freq_ratio"`
	AuthenticityScore    float64         `json:"authenticity_score"`
	AnomalyScore         float64         `json:"anomaly_score"`
	IsManipulated        bool            `json:"is_manipulated"`
	NoiseCharacteristics Characteristics `json:"noise_characteristics"`
	FrameStatistics      []FrameStats    `json:"frame_statistics"`
}

// Analyzer runs the noise pattern method.
type Analyzer struct{}

// New creates a noise pattern analyzer.
func New() *Analyzer { return &Analyzer{} }

// ─── Analysis ───────────────────────────────────────────────────────────────

// Analyze samples frames, extracts the noise residual of each, and scores
// the clip. Residual renderings land in req.WorkDir.
func (a *Analyzer) Analyze(ctx context.Context, req detect.Request) (*detect.Analysis, error) {
	sampleFrames := req.SampleFrames
	if sampleFrames <= 0 {
		sampleFrames = DefaultSampleFrames
	}
	sigma := req.NoiseSigma
	if sigma <= 0 {
		sigma = DefaultNoiseSigma
	}

	r, err := video.Open(req.VideoPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	meta := r.Meta()
	indices := video.SampleIndices(meta.FrameCount, sampleFrames)

	framesDir := filepath.Join(req.WorkDir, "noise_frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	var residuals []*imaging.Gray
	var stats []FrameStats
	var bands []BandStats
	var visPath string
	for i, idx := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, ok := r.ReadAt(idx)
		if !ok {
			continue
		}
		residual := extractResidual(frame, sigma)
		frame.Close()
		residuals = append(residuals, residual)

		s := ResidualStats(residual)
		s.FrameIndex = idx
		stats = append(stats, s)
		bands = append(bands, ResidualBands(residual))

		// Render every 5th residual, plus a summary from the first.
		if len(residuals)%5 == 0 || visPath == "" {
			path := filepath.Join(framesDir, fmt.Sprintf("noise_%04d.png", idx))
			if visPath == "" {
				path = filepath.Join(req.WorkDir, "noise_visualization.png")
				visPath = path
			}
			renderResidual(residual, path)
		}

		if (i+1)%5 == 0 {
			pct := 25 + 50*(i+1)/len(indices)
			req.Report(pct, fmt.Sprintf("Noise analysis processed %d/%d frames", i+1, len(indices)))
		}
	}
	if len(residuals) == 0 {
		return nil, domain.ErrNoFrames
	}

	report := BuildReport(req.VideoPath, meta.FrameCount, meta.FPS, residuals, stats, bands)
	artifacts := map[string]string{}
	if visPath != "" {
		artifacts["noise_visualization"] = visPath
	}
	return &detect.Analysis{Method: Method, Report: report, Artifacts: artifacts}, nil
}

// extractResidual denoises the grayscale frame with non-local means and
// returns the original minus the denoised estimate.
func extractResidual(frame gocv.Mat, sigma float64) *imaging.Gray {
	gray := gocv.NewMat()
	denoised := gocv.NewMat()
	defer gray.Close()
	defer denoised.Close()

	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	gocv.FastNlMeansDenoisingWithParams(gray, &denoised,
		float32(sigma), templateWindowSize, searchWindowSize)

	orig := imaging.FromBytes(gray.Cols(), gray.Rows(), gray.ToBytes())
	clean := imaging.FromBytes(denoised.Cols(), denoised.Rows(), denoised.ToBytes())
	return orig.Sub(clean)
}
