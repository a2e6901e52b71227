package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/LiWinston/DeepFake-Forensic/internal/domain"
	"github.com/LiWinston/DeepFake-Forensic/internal/imaging"
)

// ─── Reader ─────────────────────────────────────────────────────────────────

// Meta describes a decodable clip.
type Meta struct {
	FrameCount int     `json:"frame_count"`
	FPS        float64 `json:"fps"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Reader wraps an OpenCV capture with frame-accurate seeking. Not safe for
// concurrent use; the worker consumes one task at a time.
type Reader struct {
	cap  *gocv.VideoCapture
	meta Meta
}

// Open opens a clip for sampling. A file that cannot be opened or reports no
// frames fails with ErrVideoUnreadable.
func Open(path string) (*Reader, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrVideoUnreadable, path, err)
	}
	meta := Meta{
		FrameCount: int(cap.Get(gocv.VideoCaptureFrameCount)),
		FPS:        cap.Get(gocv.VideoCaptureFPS),
		Width:      int(cap.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(cap.Get(gocv.VideoCaptureFrameHeight)),
	}
	if meta.FrameCount <= 0 {
		cap.Close()
		return nil, fmt.Errorf("%w: %s reports %d frames", domain.ErrVideoUnreadable, path, meta.FrameCount)
	}
	return &Reader{cap: cap, meta: meta}, nil
}

// Meta returns the clip metadata captured at open time.
func (r *Reader) Meta() Meta { return r.meta }

// ReadAt seeks to the given frame index and decodes it as BGR. The returned
// Mat is owned by the caller. A failed seek or decode returns ok=false so
// samplers can record a gap and continue.
func (r *Reader) ReadAt(index int) (gocv.Mat, bool) {
	r.cap.Set(gocv.VideoCapturePosFrames, float64(index))
	mat := gocv.NewMat()
	if !r.cap.Read(&mat) || mat.Empty() {
		mat.Close()
		return gocv.Mat{}, false
	}
	return mat, true
}

// ReadNext decodes the frame at the current position without seeking,
// for sequential scans.
func (r *Reader) ReadNext() (gocv.Mat, bool) {
	mat := gocv.NewMat()
	if !r.cap.Read(&mat) || mat.Empty() {
		mat.Close()
		return gocv.Mat{}, false
	}
	return mat, true
}

// ReadPairAt decodes the frame at index and the one immediately after it.
// Both Mats are owned by the caller; ok=false closes nothing.
func (r *Reader) ReadPairAt(index int) (a, b gocv.Mat, ok bool) {
	a, ok = r.ReadAt(index)
	if !ok {
		return gocv.Mat{}, gocv.Mat{}, false
	}
	b = gocv.NewMat()
	if !r.cap.Read(&b) || b.Empty() {
		a.Close()
		b.Close()
		return gocv.Mat{}, gocv.Mat{}, false
	}
	return a, b, true
}

// Close releases the underlying capture.
func (r *Reader) Close() error { return r.cap.Close() }

// ─── Conversion ─────────────────────────────────────────────────────────────

// GrayOf converts a BGR frame into the pure grayscale matrix the scoring
// layers operate on.
func GrayOf(mat gocv.Mat) *imaging.Gray {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	return imaging.FromBytes(gray.Cols(), gray.Rows(), gray.ToBytes())
}
