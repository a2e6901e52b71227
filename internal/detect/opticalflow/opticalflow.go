// Package opticalflow detects motion inconsistencies in generated video.
//
// Dense Farneback flow is computed between sampled frame pairs. Real footage
// shows smooth, physically plausible flow fields; synthesis tends to produce
// magnitude spikes and rough, discontinuous motion. Per-pair statistics feed
// a z-score outlier pass, and the final score mixes the outlier ratio with
// the average roughness of the flow field.
package opticalflow

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
	Method = "optical_flow"

	// DefaultSampleFrames is how many frame pairs are analyzed by default.
	DefaultSampleFrames = 50

	// DefaultSensitivity is the z-score threshold for outlier pairs.
	DefaultSensitivity = 2.5

	// MotionThreshold is the flow magnitude (pixels) above which a pixel
	// counts as moving for the density metric.
	MotionThreshold = 0.5

	// ScoreThreshold is the anomaly score above which the clip is flagged.
	ScoreThreshold = 0.35

	// Farneback parameters.
	pyrScale   = 0.5
	pyrLevels  = 3
	winSize    = 15
	iterations = 3
	polyN      = 5
	polySigma  = 1.2
)

// ─── Types ──────────────────────────────────────────────────────────────────

// PairStats holds flow statistics for one consecutive frame pair.
type PairStats struct {
	MeanMagnitude   float64 `json:"mean_magnitude"`
	StdMagnitude    float64 `json:"std_magnitude"`
	MaxMagnitude    float64 `json:"max_magnitude"`
	MedianMagnitude float64 `json:"median_magnitude"`
	MeanAngle       float64 `json:"mean_angle"`
	FlowDensity     float64 `json:"flow_density"`
	Smoothness      float64 `json:"smoothness"`
	FrameIndex      int     `json:"frame_index"`
}

// Report is the full optical flow analysis result.
type Report struct {
	VideoPath         string      `json:"video_path"`
	TotalFrames       int         `json:"total_frames"`
	AnalyzedFrames    int         `json:"analyzed_frames"`
	FPS               float64     `json:"fps"`
	AvgFlowMagnitude  float64     `json:"avg_flow_magnitude"`
	StdFlowMagnitude  float64     `json:"std_flow_magnitude"`
	AvgFlowSmoothness float64     `json:"avg_flow_smoothness"`
	StdFlowSmoothness float64     `json:"std_flow_smoothness"`
	AnomalyScore      float64     `json:"anomaly_score"`
	IsManipulated     bool        `json:"is_manipulated"`
	NumAnomalies      int         `json:"num_anomalies"`
	AnomalousFrames   []int       `json:"anomalous_frames"`
	FlowStatistics    []PairStats `json:"flow_statistics"`
}

// Analyzer runs the optical flow method.
type Analyzer struct{}

// New creates an optical flow analyzer.
func New() *Analyzer { return &Analyzer{} }

// ─── Analysis ───────────────────────────────────────────────────────────────

// Analyze samples frame pairs, computes dense flow for each, and scores the
// clip. Flow visualizations land in req.WorkDir.
func (a *Analyzer) Analyze(ctx context.Context, req detect.Request) (*detect.Analysis, error) {
	sampleFrames := req.SampleFrames
	if sampleFrames <= 0 {
		sampleFrames = DefaultSampleFrames
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

	// Pairs need a successor frame, so the plan stops one short of the end.
	var indices []int
	if meta.FrameCount < sampleFrames {
		indices = video.SampleIndices(meta.FrameCount, meta.FrameCount)
	} else {
		indices = video.SampleIndices(meta.FrameCount-1, sampleFrames)
	}

	framesDir := filepath.Join(req.WorkDir, "flow_frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	var stats []PairStats
	var summaryPath string
	for i, idx := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame1, frame2, ok := r.ReadPairAt(idx)
		if !ok {
			continue
		}

		fx, fy, err := computeFlow(frame1, frame2)
		if err != nil {
			frame1.Close()
			frame2.Close()
			return nil, fmt.Errorf("%w: flow at frame %d: %v", domain.ErrVideoUnreadable, idx, err)
		}
		s := FlowStats(fx, fy)
		s.FrameIndex = idx
		stats = append(stats, s)

		// Visualize every 10th pair, plus a summary image from the first.
		if len(stats)%10 == 0 || summaryPath == "" {
			vis := renderFlow(frame1, fx, fy)
			path := filepath.Join(framesDir, fmt.Sprintf("flow_%04d.png", idx))
			if summaryPath == "" {
				path = filepath.Join(req.WorkDir, "flow_visualization.png")
				summaryPath = path
			}
			gocv.IMWrite(path, vis)
			vis.Close()
		}

		frame1.Close()
		frame2.Close()

		if (i+1)%5 == 0 {
			pct := 25 + 50*(i+1)/len(indices)
			req.Report(pct, fmt.Sprintf("Optical flow processed %d/%d pairs", i+1, len(indices)))
		}
	}
	if len(stats) == 0 {
		return nil, domain.ErrNoFrames
	}

	report := BuildReport(req.VideoPath, meta.FrameCount, meta.FPS, stats, sensitivity)
	artifacts := map[string]string{}
	if summaryPath != "" {
		artifacts["flow_visualization"] = summaryPath
	}
	return &detect.Analysis{Method: Method, Report: report, Artifacts: artifacts}, nil
}

// computeFlow runs Farneback flow over the grayscale pair and splits the
// result into per-axis float matrices.
func computeFlow(frame1, frame2 gocv.Mat) (fx, fy *imaging.Gray, err error) {
	gray1 := gocv.NewMat()
	gray2 := gocv.NewMat()
	flow := gocv.NewMat()
	defer gray1.Close()
	defer gray2.Close()
	defer flow.Close()

	gocv.CvtColor(frame1, &gray1, gocv.ColorBGRToGray)
	gocv.CvtColor(frame2, &gray2, gocv.ColorBGRToGray)
	if err := gocv.CalcOpticalFlowFarneback(gray1, gray2, &flow,
		pyrScale, pyrLevels, winSize, iterations, polyN, polySigma, 0); err != nil {
		return nil, nil, err
	}

	channels := gocv.Split(flow)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	return grayFromFloat(channels[0]), grayFromFloat(channels[1]), nil
}

// grayFromFloat copies a CV_32F mat into the pure matrix type.
func grayFromFloat(m gocv.Mat) *imaging.Gray {
	g := imaging.NewGray(m.Cols(), m.Rows())
	data, err := m.DataPtrFloat32()
	if err != nil {
		return g
	}
	for i, v := range data {
		g.Pix[i] = float64(v)
	}
	return g
}
