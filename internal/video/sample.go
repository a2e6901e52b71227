// Package video decodes input files and samples frames for the analyzers.
//
// Index planning is pure (SampleIndices); decoding goes through OpenCV and
// lives in reader.go so the planning logic stays testable on its own.
package video

import "math"

// SampleIndices plans count frame positions spread evenly across a clip of
// total frames. The result is strictly increasing with no duplicates; when
// count meets or exceeds total, every frame index is returned. A non-positive
// total or count yields nil.
func SampleIndices(total, count int) []int {
	if total <= 0 || count <= 0 {
		return nil
	}
	if count >= total {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	if count == 1 {
		return []int{0}
	}

	out := make([]int, 0, count)
	step := float64(total-1) / float64(count-1)
	prev := -1
	for i := 0; i < count; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx >= total {
			idx = total - 1
		}
		if idx <= prev {
			continue
		}
		out = append(out, idx)
		prev = idx
	}
	return out
}

// StrideIndices plans every stride-th frame position: 0, stride, 2·stride...
// up to but excluding total. A stride below 1 is treated as 1.
func StrideIndices(total, stride int) []int {
	if total <= 0 {
		return nil
	}
	if stride < 1 {
		stride = 1
	}
	out := make([]int, 0, total/stride+1)
	for i := 0; i < total; i += stride {
		out = append(out, i)
	}
	return out
}
