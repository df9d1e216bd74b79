package services

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

// Rolling-window kernels shared by the engine. All trailing windows require
// a full window of defined values; anything else yields the missing marker.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = models.Missing
	}
	return out
}

func hasMissing(window []float64) bool {
	for _, v := range window {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func rollingApply(xs []float64, window int, fn func([]float64) float64) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 || window > len(xs) {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		win := xs[i-window+1 : i+1]
		if hasMissing(win) {
			continue
		}
		out[i] = fn(win)
	}
	return out
}

func rollingMean(xs []float64, window int) []float64 {
	return rollingApply(xs, window, func(win []float64) float64 {
		return stat.Mean(win, nil)
	})
}

// rollingStd is the sample standard deviation over the window.
func rollingStd(xs []float64, window int) []float64 {
	return rollingApply(xs, window, func(win []float64) float64 {
		return stat.StdDev(win, nil)
	})
}

func rollingSum(xs []float64, window int) []float64 {
	return rollingApply(xs, window, floats.Sum)
}

func rollingMin(xs []float64, window int) []float64 {
	return rollingApply(xs, window, floats.Min)
}

func rollingMax(xs []float64, window int) []float64 {
	return rollingApply(xs, window, floats.Max)
}

// centeredApply evaluates fn over a window centered on each index, with the
// same label placement as a centered trailing window: for window w the
// window at i spans [i-(w-1-(w-1)/2), i+(w-1)/2].
func centeredApply(xs []float64, window int, fn func([]float64) float64) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 || window > len(xs) {
		return out
	}
	right := (window - 1) / 2
	left := window - 1 - right
	for i := left; i+right < len(xs); i++ {
		win := xs[i-left : i+right+1]
		if hasMissing(win) {
			continue
		}
		out[i] = fn(win)
	}
	return out
}

func centeredMax(xs []float64, window int) []float64 {
	return centeredApply(xs, window, floats.Max)
}

func centeredMin(xs []float64, window int) []float64 {
	return centeredApply(xs, window, floats.Min)
}

// ema computes the exponentially-weighted average with smoothing factor
// 2/(span+1), seeded from the first value with no bias correction.
func ema(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// shift moves a column by n index positions: n > 0 lags values forward in
// time (out[i] = xs[i-n]), n < 0 leads them backward (out[i] = xs[i-n]).
// Vacated positions are missing.
func shift(xs []float64, n int) []float64 {
	out := nanSlice(len(xs))
	for i := range xs {
		src := i - n
		if src >= 0 && src < len(xs) {
			out[i] = xs[src]
		}
	}
	return out
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// simpleReturns is the percentage change of consecutive values with the
// leading undefined entry dropped.
func simpleReturns(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out = append(out, xs[i]/xs[i-1]-1)
	}
	return out
}

// percentile is the linear-interpolated percentile at rank (n-1)*p/100,
// with p in [0, 100].
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	rank := (float64(len(sorted)) - 1) * p / 100
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
