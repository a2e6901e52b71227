package copymove

import (
	"math"

	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Scoring ────────────────────────────────────────────────────────────────
// Pure over match candidates and keypoint positions.

// Point is a keypoint position in pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Match is one descriptor match candidate.
type Match struct {
	QueryIdx int
	TrainIdx int
	Distance float64
}

// MatchLocation ties together the two ends of an accepted match.
type MatchLocation struct {
	From Point
	To   Point
}

// GoodMatches applies Lowe's ratio test to k=2 self-match candidates.
// Self-matches (a descriptor matching its own index) are excluded; the best
// candidate survives when its distance is under ratio times the second-best.
func GoodMatches(pairs [][]Match, ratio float64) []Match {
	var good []Match
	for _, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		m, n := pair[0], pair[1]
		if m.TrainIdx != m.QueryIdx && m.Distance < ratio*n.Distance {
			good = append(good, m)
		}
	}
	return good
}

// SeparatedLocations resolves matches to coordinate pairs and keeps only
// those at least minSeparation pixels apart. Closer pairs sit on the same
// region and carry no clone evidence.
func SeparatedLocations(matches []Match, points []Point, minSeparation float64) []MatchLocation {
	var locations []MatchLocation
	for _, m := range matches {
		if m.QueryIdx >= len(points) || m.TrainIdx >= len(points) {
			continue
		}
		from, to := points[m.QueryIdx], points[m.TrainIdx]
		if math.Hypot(from.X-to.X, from.Y-to.Y) > minSeparation {
			locations = append(locations, MatchLocation{From: from, To: to})
		}
	}
	return locations
}

// StampLocations marks a disc around both ends of each match on the heatmap
// accumulator. Stamps overwrite rather than add, so the map reads as
// coverage, not density.
func StampLocations(heat *imaging.Gray, locations []MatchLocation, radius int) {
	if heat == nil {
		return
	}
	for _, loc := range locations {
		stampDisc(heat, loc.From, radius)
		stampDisc(heat, loc.To, radius)
	}
}

func stampDisc(heat *imaging.Gray, center Point, radius int) {
	cx, cy := int(center.X), int(center.Y)
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		y := cy + dy
		if y < 0 || y >= heat.H {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			x := cx + dx
			if x < 0 || x >= heat.W {
				continue
			}
			if dx*dx+dy*dy <= r2 {
				heat.Set(x, y, 1)
			}
		}
	}
}

// BuildReport scores the clip by the fraction of forged keyframes.
func BuildReport(videoPath string, framesRead, requestedFrames int, suspicious []int, details []FrameDetail) Report {
	var forged int
	for _, d := range details {
		if d.IsForged {
			forged++
		}
	}
	var score float64
	if framesRead > 0 {
		score = float64(forged) / float64(framesRead)
	}
	if suspicious == nil {
		suspicious = []int{}
	}
	return Report{
		VideoPath:           videoPath,
		TotalFrames:         framesRead,
		AnalyzedFrames:      requestedFrames,
		DetectionScore:      score,
		IsManipulated:       score > ScoreThreshold,
		SuspiciousFrames:    suspicious,
		NumSuspiciousFrames: len(suspicious),
		Details:             details,
	}
}

// Anomaly returns the final verdict.
func (r Report) Anomaly() (float64, bool) { return r.DetectionScore, r.IsManipulated }
