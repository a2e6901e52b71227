package copymove

import (
	"testing"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Scoring Tests ──────────────────────────────────────────────────────────

func knnPair(query, train int, d1, d2 float64) []Match {
	return []Match{
		{QueryIdx: query, TrainIdx: train, Distance: d1},
		{QueryIdx: query, TrainIdx: query, Distance: d2},
	}
}

func TestGoodMatches_RatioAndSelfMatch(t *testing.T) {
	pairs := [][]Match{
		knnPair(0, 5, 10, 100),  // well under ratio, kept
		knnPair(1, 6, 85, 100),  // 85 >= 0.8*100, rejected
		knnPair(2, 2, 10, 100),  // self-match, rejected
		knnPair(3, 7, 79, 100),  // just under ratio, kept
		{{QueryIdx: 4, TrainIdx: 8, Distance: 1}}, // only one candidate, skipped
	}
	good := GoodMatches(pairs, RatioThreshold)
	if len(good) != 2 {
		t.Fatalf("good matches = %d, want 2", len(good))
	}
	if good[0].QueryIdx != 0 || good[1].QueryIdx != 3 {
		t.Errorf("kept queries %d and %d, want 0 and 3", good[0].QueryIdx, good[1].QueryIdx)
	}
}

func TestSeparatedLocations_DistanceFilter(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0},
		{X: 30, Y: 40},   // 50px from origin, on the boundary
		{X: 60, Y: 80},   // 100px from origin
		{X: 300, Y: 400}, // 500px from origin
	}
	matches := []Match{
		{QueryIdx: 0, TrainIdx: 1}, // exactly 50, excluded
		{QueryIdx: 0, TrainIdx: 2}, // 100, kept
		{QueryIdx: 0, TrainIdx: 3}, // 500, kept
		{QueryIdx: 0, TrainIdx: 9}, // out of range, skipped
	}
	locations := SeparatedLocations(matches, points, MinSeparation)
	if len(locations) != 2 {
		t.Fatalf("locations = %d, want 2", len(locations))
	}
	if locations[0].To != points[2] || locations[1].To != points[3] {
		t.Errorf("locations %+v, want targets at 100px and 500px", locations)
	}
}

func TestStampLocations_CoverageIsBinary(t *testing.T) {
	heat := imaging.NewGray(100, 100)
	locations := []MatchLocation{
		{From: Point{X: 30, Y: 30}, To: Point{X: 30, Y: 35}}, // overlapping discs
	}
	StampLocations(heat, locations, 20)
	StampLocations(heat, locations, 20)

	_, max := heat.MinMax()
	if max != 1 {
		t.Errorf("max = %v, repeated stamps must not accumulate past 1", max)
	}
	if heat.At(30, 30) != 1 {
		t.Error("disc center should be stamped")
	}
	if heat.At(90, 90) != 0 {
		t.Error("far corner should stay clear")
	}
}

func TestStampLocations_ClipsToBounds(t *testing.T) {
	heat := imaging.NewGray(40, 40)
	StampLocations(heat, []MatchLocation{
		{From: Point{X: -5, Y: -5}, To: Point{X: 39, Y: 39}},
	}, 20)
	if heat.At(0, 0) != 1 || heat.At(39, 39) != 1 {
		t.Error("stamps near the border should cover in-bounds pixels")
	}
}

func TestBuildReport_ForgedRatio(t *testing.T) {
	details := []FrameDetail{
		{FrameIndex: 0, IsForged: true, NumMatches: 14},
		{FrameIndex: 1},
		{FrameIndex: 2, IsForged: true, NumMatches: 22},
		{FrameIndex: 3},
		{FrameIndex: 4},
	}
	report := BuildReport("clip.mp4", 5, 30, []int{0, 2}, details)

	if report.DetectionScore != 0.4 {
		t.Errorf("detection score = %v, want 0.4", report.DetectionScore)
	}
	if !report.IsManipulated {
		t.Error("40% forged frames should flag the clip")
	}
	if report.NumSuspiciousFrames != 2 {
		t.Errorf("suspicious count = %d, want 2", report.NumSuspiciousFrames)
	}
	if report.TotalFrames != 5 || report.AnalyzedFrames != 30 {
		t.Errorf("frame counts %d/%d, want 5/30", report.TotalFrames, report.AnalyzedFrames)
	}
}

func TestBuildReport_CleanClip(t *testing.T) {
	details := []FrameDetail{{FrameIndex: 0}, {FrameIndex: 1}, {FrameIndex: 2}}
	report := BuildReport("clip.mp4", 3, 30, nil, details)

	if report.DetectionScore != 0 {
		t.Errorf("detection score = %v, want 0", report.DetectionScore)
	}
	if report.IsManipulated {
		t.Error("clean clip should not be flagged")
	}
	if report.SuspiciousFrames == nil || len(report.SuspiciousFrames) != 0 {
		t.Errorf("suspicious frames = %v, want empty non-nil slice", report.SuspiciousFrames)
	}
}

func TestBuildReport_ExactlyAtThreshold(t *testing.T) {
	details := []FrameDetail{
		{FrameIndex: 0, IsForged: true, NumMatches: 11},
		{FrameIndex: 1}, {FrameIndex: 2}, {FrameIndex: 3}, {FrameIndex: 4},
	}
	report := BuildReport("clip.mp4", 5, 30, []int{0}, details)
	if report.IsManipulated {
		t.Errorf("score %v equals the threshold and must not flag", report.DetectionScore)
	}
}
