package ranking

import (
	"math"
	"sort"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sorted(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	s := sorted(xs)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// trimmedMean drops floor(n*pct/100/2) values from each end. With fewer
// than three values it is the plain mean. At least one value always remains.
func trimmedMean(xs []float64, pct float64) float64 {
	n := len(xs)
	if n < 3 {
		return mean(xs)
	}
	k := int(math.Floor(float64(n) * pct / 100 / 2))
	if k < 0 {
		k = 0
	}
	if 2*k >= n {
		k = (n - 1) / 2
	}
	s := sorted(xs)
	return mean(s[k : n-k])
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
