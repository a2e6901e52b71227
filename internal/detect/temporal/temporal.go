// Package temporal detects frame-to-frame inconsistencies.
//
// Generated video tends to treat frames independently, producing sudden
// similarity drops between neighbors that physical camera motion never
// causes. Each consecutive pair is compared with SSIM, PSNR, color histogram
// correlation and edge content difference; outliers in the SSIM and PSNR
// series mark suspect transitions.
package temporal

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
	Method = "temporal_inconsistency"

	// DefaultSampleRate analyzes every frame.
	DefaultSampleRate = 1

	// DefaultSensitivity is the z-score threshold for similarity drops.
	DefaultSensitivity = 2.0

	// ScoreThreshold is the anomaly score above which the clip is flagged.
	ScoreThreshold = 0.3

	// MaxAnomalySnapshots caps how many flagged frames are saved to disk.
	MaxAnomalySnapshots = 20

	// Canny hysteresis thresholds for the edge difference metric.
	cannyLow  = 50
	cannyHigh = 150
)

// ─── Types ──────────────────────────────────────────────────────────────────

// PairMetrics holds similarity metrics for one consecutive frame pair.
type PairMetrics struct {
	SSIM       float64 `json:"ssim"`
	PSNR       float64 `json:"psnr"`
	HistCorr   float64 `json:"hist_corr"`
	EdgeDiff   float64 `json:"edge_diff"`
	MSE        float64 `json:"mse"`
	FrameIndex int     `json:"frame_index"`
}

// Report is the full temporal consistency analysis result.
type Report struct {
	VideoPath       string        `json:"video_path"`
	TotalFrames     int           `json:"total_frames"`
	AnalyzedFrames  int           `json:"analyzed_frames"`
	FPS             float64       `json:"fps"`
	AvgSSIM         float64       `json:"avg_ssim"`
	StdSSIM         float64       `json:"std_ssim"`
	AvgPSNR         float64       `json:"avg_psnr"`
	StdPSNR         float64       `json:"std_psnr"`
	AnomalyScore    float64       `json:"anomaly_score"`
	IsManipulated   bool          `json:"is_manipulated"`
	NumAnomalies    int           `json:"num_anomalies"`
	AnomalyFrames   []int         `json:"anomaly_frames"`
	TemporalMetrics []PairMetrics `json:"temporal_metrics"`
}

// Analyzer runs the temporal inconsistency method.
type Analyzer struct{}

// New creates a temporal analyzer.
func New() *Analyzer { return &Analyzer{} }

// ─── Analysis ───────────────────────────────────────────────────────────────

// Analyze walks consecutive frames at the configured stride, collects
// similarity metrics for each transition, and scores the clip. Snapshots of
// flagged frames land in req.WorkDir.
func (a *Analyzer) Analyze(ctx context.Context, req detect.Request) (*detect.Analysis, error) {
	sampleRate := req.SampleRate
	if sampleRate < 1 {
		sampleRate = DefaultSampleRate
	}
	sensitivity := req.Sensitivity
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}

	r, err := video.Open(req.VideoPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	meta := r.Meta()

	prev, ok := r.ReadAt(0)
	if !ok {
		return nil, domain.ErrNoFrames
	}
	prevGray := video.GrayOf(prev)

	var metrics []PairMetrics
	frameCount := 0
	for {
		if err := ctx.Err(); err != nil {
			prev.Close()
			return nil, err
		}
		curr, ok := r.ReadNext()
		if !ok {
			break
		}
		frameCount++

		if frameCount%sampleRate != 0 {
			prev.Close()
			prev = curr
			prevGray = video.GrayOf(curr)
			continue
		}

		currGray := video.GrayOf(curr)
		m := pairMetrics(prev, curr, prevGray, currGray)
		m.FrameIndex = frameCount
		metrics = append(metrics, m)

		prev.Close()
		prev = curr
		prevGray = currGray

		if frameCount%(sampleRate*5) == 0 && meta.FrameCount > 0 {
			pct := 25 + 50*frameCount/meta.FrameCount
			req.Report(pct, fmt.Sprintf("Temporal analysis processed %d/%d frames", frameCount, meta.FrameCount))
		}
	}
	prev.Close()

	if len(metrics) == 0 {
		return nil, domain.ErrNoFrames
	}

	report := BuildReport(req.VideoPath, meta.FrameCount, meta.FPS, metrics, sensitivity)

	artifacts, err := saveAnomalySnapshots(r, req.WorkDir, report.AnomalyFrames, metrics)
	if err != nil {
		return nil, err
	}
	return &detect.Analysis{Method: Method, Report: report, Artifacts: artifacts}, nil
}

// pairMetrics computes all similarity metrics for one frame transition.
// SSIM, PSNR and MSE come from the pure layer; histogram correlation and
// Canny edges go through OpenCV.
func pairMetrics(frame1, frame2 gocv.Mat, gray1, gray2 *imaging.Gray) PairMetrics {
	mse := 0.0
	for i := range gray1.Pix {
		d := gray1.Pix[i] - gray2.Pix[i]
		mse += d * d
	}
	if len(gray1.Pix) > 0 {
		mse /= float64(len(gray1.Pix))
	}

	return PairMetrics{
		SSIM:     imaging.SSIM(gray1, gray2),
		PSNR:     imaging.PSNR(gray1, gray2),
		HistCorr: histCorrelation(frame1, frame2),
		EdgeDiff: edgeDifference(frame1, frame2),
		MSE:      mse,
	}
}

// histCorrelation compares normalized 8×8×8 BGR histograms.
func histCorrelation(frame1, frame2 gocv.Mat) float64 {
	hist1 := gocv.NewMat()
	hist2 := gocv.NewMat()
	defer hist1.Close()
	defer hist2.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	channels := []int{0, 1, 2}
	sizes := []int{8, 8, 8}
	ranges := []float64{0, 256, 0, 256, 0, 256}
	gocv.CalcHist([]gocv.Mat{frame1}, channels, mask, &hist1, sizes, ranges, false)
	gocv.CalcHist([]gocv.Mat{frame2}, channels, mask, &hist2, sizes, ranges, false)
	gocv.Normalize(hist1, &hist1, 0, 1, gocv.NormMinMax)
	gocv.Normalize(hist2, &hist2, 0, 1, gocv.NormMinMax)
	return float64(gocv.CompareHist(hist1, hist2, gocv.HistCmpCorrel))
}

// edgeDifference measures the mean absolute difference between the Canny
// edge maps of two frames.
func edgeDifference(frame1, frame2 gocv.Mat) float64 {
	gray1 := gocv.NewMat()
	gray2 := gocv.NewMat()
	edges1 := gocv.NewMat()
	edges2 := gocv.NewMat()
	diff := gocv.NewMat()
	defer gray1.Close()
	defer gray2.Close()
	defer edges1.Close()
	defer edges2.Close()
	defer diff.Close()

	gocv.CvtColor(frame1, &gray1, gocv.ColorBGRToGray)
	gocv.CvtColor(frame2, &gray2, gocv.ColorBGRToGray)
	gocv.Canny(gray1, &edges1, cannyLow, cannyHigh)
	gocv.Canny(gray2, &edges2, cannyLow, cannyHigh)
	gocv.AbsDiff(edges1, edges2, &diff)
	return diff.Mean().Val1
}

// saveAnomalySnapshots dumps the frames at flagged transitions, capped at
// MaxAnomalySnapshots, and returns them as named artifacts.
func saveAnomalySnapshots(r *video.Reader, workDir string, flags []int, metrics []PairMetrics) (map[string]string, error) {
	artifacts := map[string]string{}
	if len(flags) == 0 {
		return artifacts, nil
	}
	dir := filepath.Join(workDir, "anomaly_frames")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	n := len(flags)
	if n > MaxAnomalySnapshots {
		n = MaxAnomalySnapshots
	}
	for _, flag := range flags[:n] {
		frameIdx := metrics[flag].FrameIndex
		frame, ok := r.ReadAt(frameIdx)
		if !ok {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("anomaly_frame_%04d.png", frameIdx))
		gocv.IMWrite(path, frame)
		frame.Close()
		artifacts[fmt.Sprintf("anomaly_frame_%04d", frameIdx)] = path
	}
	return artifacts, nil
}
