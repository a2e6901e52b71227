package imaging

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ─── Descriptive Statistics ─────────────────────────────────────────────────

// MeanStd returns the mean and population standard deviation of values.
// Both are 0 for an empty slice; std is 0 for a single sample.
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) < 2 {
		return mean, 0
	}
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}

// Skewness returns the sample skewness, 0 when the spread degenerates.
func Skewness(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	s := stat.Skew(values, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// Kurtosis returns the sample excess kurtosis, 0 when the spread degenerates.
func Kurtosis(values []float64) float64 {
	if len(values) < 4 {
		return 0
	}
	k := stat.ExKurtosis(values, nil)
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0
	}
	return k
}

// Pearson returns the Pearson correlation coefficient between x and y,
// 0 when either series has no variance.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Percentile returns the p-th percentile (0–100) of values using linear
// interpolation between closest ranks, matching the numpy default.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Entropy measures the randomness of values over a 50-bin density histogram
// spanning their range, in bits. Constant input has zero entropy.
func Entropy(values []float64) float64 {
	const bins = 50
	if len(values) == 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max-min < 1e-10 {
		return 0
	}
	hist := make([]float64, bins)
	scale := float64(bins) / (max - min)
	for _, v := range values {
		i := int((v - min) * scale)
		if i >= bins {
			i = bins - 1
		}
		hist[i]++
	}
	// Density normalization: counts / (N · bin width).
	width := (max - min) / bins
	norm := float64(len(values)) * width
	h := 0.0
	for _, c := range hist {
		d := c/norm + 1e-10
		h -= d * math.Log2(d)
	}
	return h
}

// ─── Normality Test ─────────────────────────────────────────────────────────

// KSStandardNormal runs a one-sample Kolmogorov-Smirnov test of values
// against the standard normal distribution. Callers scale their sample first.
// It returns the D statistic and the asymptotic two-sided p-value.
func KSStandardNormal(values []float64) (d, pValue float64) {
	n := len(values)
	if n == 0 {
		return 0, 1
	}
	dist := distuv.Normal{Mu: 0, Sigma: 1}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	for i, v := range sorted {
		cdf := dist.CDF(v)
		dPlus := float64(i+1)/float64(n) - cdf
		dMinus := cdf - float64(i)/float64(n)
		if dPlus > d {
			d = dPlus
		}
		if dMinus > d {
			d = dMinus
		}
	}
	return d, ksPValue(d, n)
}

// ksPValue evaluates the asymptotic Kolmogorov survival function with the
// Stephens small-sample correction.
func ksPValue(d float64, n int) float64 {
	if d <= 0 {
		return 1
	}
	sqrtN := math.Sqrt(float64(n))
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d
	sum := 0.0
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k*k) * lambda * lambda)
		if k%2 == 1 {
			sum += term
		} else {
			sum -= term
		}
		if term < 1e-12 {
			break
		}
	}
	return clipf(2*sum, 0, 1)
}

// ─── Outlier Flags ──────────────────────────────────────────────────────────

// MinAnomalySamples is the smallest series length the z-score pass accepts.
// Shorter series produce no flags at all; the statistics are too unstable.
const MinAnomalySamples = 10

// ZScoreFlags returns the indices whose value lies more than sensitivity
// standard deviations from the series mean, in ascending order. A series
// with fewer than MinAnomalySamples entries or zero spread yields nil.
func ZScoreFlags(values []float64, sensitivity float64) []int {
	if len(values) < MinAnomalySamples {
		return nil
	}
	mean, std := MeanStd(values)
	if std < 1e-10 {
		return nil
	}
	var flags []int
	for i, v := range values {
		if math.Abs(v-mean)/std > sensitivity {
			flags = append(flags, i)
		}
	}
	return flags
}

// UnionFlags merges several ascending flag lists into one deduplicated
// ascending list.
func UnionFlags(lists ...[]int) []int {
	seen := make(map[int]struct{})
	for _, l := range lists {
		for _, i := range l {
			seen[i] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
