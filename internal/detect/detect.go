// Package detect defines the contract between the task dispatcher and the
// individual forensic analyzers.
package detect

import "context"

// ProgressFunc receives coarse progress updates during an analysis run.
// Analyzers report within the 25–75 band; the dispatcher owns the rest of
// the range.
type ProgressFunc func(percent int, message string)

// Request describes one analysis run. Zero-valued tuning fields fall back to
// each analyzer's defaults.
type Request struct {
	VideoPath string
	WorkDir   string // directory for rendered artifacts

	SampleFrames int
	SampleRate   int
	NoiseSigma   float64
	Sensitivity  float64
	MinMatches   int

	Progress ProgressFunc
}

// Report forwards a progress update when a callback is attached.
func (r Request) Report(percent int, message string) {
	if r.Progress != nil {
		r.Progress(percent, message)
	}
}

// Analysis is the outcome of a detector run: a JSON-serializable report plus
// any rendered artifact files keyed by logical name.
type Analysis struct {
	Method    string
	Report    any
	Artifacts map[string]string
}

// Detector runs one forensic method over a video file.
type Detector interface {
	Analyze(ctx context.Context, req Request) (*Analysis, error)
}

// Scored is implemented by reports that carry a final verdict, letting the
// dispatcher record score metrics without knowing each report type.
type Scored interface {
	Anomaly() (score float64, manipulated bool)
}
