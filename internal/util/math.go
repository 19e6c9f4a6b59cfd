package util

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/stageflow/internal/model"
)

type Number interface {
	constraints.Integer | constraints.Float
}

func toFloats[T Number](xs []T) []float64 {
	fs := make([]float64, len(xs))
	for i, x := range xs {
		fs[i] = float64(x)
	}
	return fs
}

// Mean is undefined for an empty sample.
func Mean[T Number](xs []T) null.Float {
	if len(xs) == 0 {
		return null.Float{}
	}
	sum := 0.0
	for _, x := range xs {
		sum += float64(x)
	}
	return null.FloatFrom(sum / float64(len(xs)))
}

// Variance with ddof delta degrees of freedom. Undefined when len(xs) <= ddof.
func Variance[T Number](xs []T, ddof int) null.Float {
	n := len(xs)
	if n == 0 || n-ddof <= 0 {
		return null.Float{}
	}
	mean := Mean(xs).Float64
	ss := 0.0
	for _, x := range xs {
		d := float64(x) - mean
		ss += d * d
	}
	return null.FloatFrom(ss / float64(n-ddof))
}

func StdDev[T Number](xs []T, ddof int) null.Float {
	v := Variance(xs, ddof)
	if !v.Valid {
		return v
	}
	return null.FloatFrom(math.Sqrt(v.Float64))
}

// Skew is the adjusted Fisher-Pearson sample skewness. It is undefined for
// fewer than three values and zero for a constant sample.
func Skew[T Number](xs []T) null.Float {
	n := len(xs)
	if n < 3 {
		return null.Float{}
	}
	mean := Mean(xs).Float64
	m2, m3 := 0.0, 0.0
	for _, x := range xs {
		d := float64(x) - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= float64(n)
	m3 /= float64(n)
	// float noise on a constant sample must not blow up the ratio
	if m2 <= 1e-14 {
		return null.FloatFrom(0)
	}
	nf := float64(n)
	g1 := m3 / math.Pow(m2, 1.5)
	return null.FloatFrom(math.Sqrt(nf*(nf-1)) / (nf - 2) * g1)
}

// Quantile interpolates linearly between the closest ranks of the sorted sample.
func Quantile[T Number](xs []T, q float64) null.Float {
	if len(xs) == 0 || q < 0 || q > 1 {
		return null.Float{}
	}
	sorted := toFloats(xs)
	sort.Float64s(sorted)
	return null.FloatFrom(quantileSorted(sorted, q))
}

func quantileSorted(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	frac := pos - lo
	return sorted[int(lo)]*(1-frac) + sorted[int(hi)]*frac
}

func Median[T Number](xs []T) null.Float {
	return Quantile(xs, 0.5)
}

func Min[T Number](xs []T) null.Float {
	if len(xs) == 0 {
		return null.Float{}
	}
	m := float64(xs[0])
	for _, x := range xs[1:] {
		m = math.Min(m, float64(x))
	}
	return null.FloatFrom(m)
}

func Max[T Number](xs []T) null.Float {
	if len(xs) == 0 {
		return null.Float{}
	}
	m := float64(xs[0])
	for _, x := range xs[1:] {
		m = math.Max(m, float64(x))
	}
	return null.FloatFrom(m)
}

// Summarize computes the distribution summary of a sample. Variance and
// standard deviation are population measures (ddof 0).
func Summarize[T Number](xs []T) model.Summary {
	s := model.Summary{
		N:         len(xs),
		Mean:      Mean(xs),
		Median:    Median(xs),
		Var:       Variance(xs, 0),
		Std:       StdDev(xs, 0),
		Skew:      Skew(xs),
		Quantiles: make([]null.Float, len(model.QuantileLevels)),
	}
	if len(xs) == 0 {
		return s
	}
	sorted := toFloats(xs)
	sort.Float64s(sorted)
	for i, q := range model.QuantileLevels {
		s.Quantiles[i] = null.FloatFrom(quantileSorted(sorted, q))
	}
	return s
}
