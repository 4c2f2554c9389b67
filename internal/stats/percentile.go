// Package stats computes the latency percentile breakdown served by
// GET /v1/stats.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile holds the p50/p95/p99 latency breakdown in milliseconds.
type Percentile struct {
	P50 float64
	P95 float64
	P99 float64
}

// Percentiles computes p50/p95/p99 over samples. Samples need not be sorted.
// An empty slice returns the zero value.
func Percentiles(samples []int64) Percentile {
	if len(samples) == 0 {
		return Percentile{}
	}

	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = float64(s)
	}
	sort.Float64s(xs)

	return Percentile{
		P50: stat.Quantile(0.50, stat.Empirical, xs, nil),
		P95: stat.Quantile(0.95, stat.Empirical, xs, nil),
		P99: stat.Quantile(0.99, stat.Empirical, xs, nil),
	}
}
