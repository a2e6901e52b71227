// Package copymove finds duplicated regions within single frames.
//
// Copy-move forgery pastes a region of a frame elsewhere in the same frame,
// typically to hide or duplicate content. Matching a frame's SIFT features
// against themselves exposes such clones: a keypoint whose best non-self
// match is much closer than its second-best sits on a duplicated patch.
package copymove

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
	Method = "copy_move"

	// DefaultSampleFrames is how many keyframes are analyzed by default.
	DefaultSampleFrames = 30

	// DefaultMinMatches is the minimum number of good feature matches for a
	// frame to count as forged.
	DefaultMinMatches = 10

	// RatioThreshold is Lowe's ratio test bound on the best non-self match
	// against the second-best.
	RatioThreshold = 0.8

	// MinSeparation is the pixel distance below which a matched pair is
	// considered the same region and not drawn.
	MinSeparation = 50.0

	// ScoreThreshold is the forged-frame ratio above which the clip is
	// flagged.
	ScoreThreshold = 0.2

	// heatmapRadius is the stamp radius around each matched point.
	heatmapRadius = 20
)

// ─── Types ──────────────────────────────────────────────────────────────────

// FrameDetail summarizes the detection outcome for one keyframe.
type FrameDetail struct {
	FrameIndex int  `json:"frame_index"`
	IsForged   bool `json:"is_forged"`
	NumMatches int  `json:"num_matches"`
}

// Report is the full copy-move analysis result.
type Report struct {
	VideoPath           string        `json:"video_path"`
	TotalFrames         int           `json:"total_frames"`
	AnalyzedFrames      int           `json:"analyzed_frames"`
	DetectionScore      float64       `json:"detection_score"`
	IsManipulated       bool          `json:"is_manipulated"`
	SuspiciousFrames    []int         `json:"suspicious_frames"`
	NumSuspiciousFrames int           `json:"num_suspicious_frames"`
	Details             []FrameDetail `json:"details"`
}

// Analyzer runs the copy-move method.
type Analyzer struct{}

// New creates a copy-move analyzer.
func New() *Analyzer { return &Analyzer{} }

// ─── Analysis ───────────────────────────────────────────────────────────────

// Analyze samples keyframes, self-matches each frame's SIFT features, and
// scores the clip by the fraction of forged frames. Overlays for forged
// frames and a cumulative heatmap land in req.WorkDir.
func (a *Analyzer) Analyze(ctx context.Context, req detect.Request) (*detect.Analysis, error) {
	sampleFrames := req.SampleFrames
	if sampleFrames <= 0 {
		sampleFrames = DefaultSampleFrames
	}
	minMatches := req.MinMatches
	if minMatches <= 0 {
		minMatches = DefaultMinMatches
	}

	r, err := video.Open(req.VideoPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	meta := r.Meta()
	indices := video.SampleIndices(meta.FrameCount, sampleFrames)

	framesDir := filepath.Join(req.WorkDir, "copy_move_frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	sift := gocv.NewSIFT()
	defer sift.Close()
	matcher := gocv.NewFlannBasedMatcher()
	defer matcher.Close()

	var details []FrameDetail
	var suspicious []int
	var heat *imaging.Gray
	framesRead := 0
	for i, idx := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, ok := r.ReadAt(idx)
		if !ok {
			continue
		}
		pos := framesRead
		framesRead++
		if heat == nil {
			heat = imaging.NewGray(frame.Cols(), frame.Rows())
		}

		forged, locations := inspectFrame(sift, matcher, frame, minMatches)
		details = append(details, FrameDetail{
			FrameIndex: pos,
			IsForged:   forged,
			NumMatches: len(locations),
		})
		if forged {
			suspicious = append(suspicious, pos)
			overlayPath := filepath.Join(framesDir, fmt.Sprintf("frame_%04d.png", pos))
			renderOverlay(frame, locations, overlayPath)
		}
		StampLocations(heat, locations, heatmapRadius)
		frame.Close()

		if (i+1)%5 == 0 {
			pct := 25 + 50*(i+1)/len(indices)
			req.Report(pct, fmt.Sprintf("Copy-move analysis processed %d/%d frames", i+1, len(indices)))
		}
	}
	if framesRead == 0 {
		return nil, domain.ErrNoFrames
	}

	heatmapPath := filepath.Join(req.WorkDir, "copy_move_heatmap.png")
	renderHeatmap(heat, heatmapPath)

	report := BuildReport(req.VideoPath, framesRead, sampleFrames, suspicious, details)
	artifacts := map[string]string{"copy_move_heatmap": heatmapPath}
	return &detect.Analysis{Method: Method, Report: report, Artifacts: artifacts}, nil
}

// inspectFrame self-matches a frame's SIFT descriptors and decides whether
// it carries a cloned region.
func inspectFrame(sift gocv.SIFT, matcher gocv.FlannBasedMatcher, frame gocv.Mat, minMatches int) (bool, []MatchLocation) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	defer mask.Close()
	keypoints, descriptors := sift.DetectAndCompute(gray, mask)
	defer descriptors.Close()
	if descriptors.Empty() || len(keypoints) < minMatches {
		return false, nil
	}

	knn := matcher.KnnMatch(descriptors, descriptors, 2)
	pairs := make([][]Match, 0, len(knn))
	for _, candidates := range knn {
		pair := make([]Match, 0, len(candidates))
		for _, m := range candidates {
			pair = append(pair, Match{
				QueryIdx: m.QueryIdx,
				TrainIdx: m.TrainIdx,
				Distance: m.Distance,
			})
		}
		pairs = append(pairs, pair)
	}

	points := make([]Point, len(keypoints))
	for i, kp := range keypoints {
		points[i] = Point{X: kp.X, Y: kp.Y}
	}

	good := GoodMatches(pairs, RatioThreshold)
	forged := len(good) >= minMatches
	if !forged {
		return false, nil
	}
	return true, SeparatedLocations(good, points, MinSeparation)
}
