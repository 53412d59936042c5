package plotting

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Edges returns n evenly spaced bin edges from low to high inclusive.
func Edges(low, high float64, n int) []float64 {
	return floats.Span(make([]float64, n), low, high)
}

// Histogram counts values into the bins delimited by edges. Values outside
// [edges[0], edges[last]] are dropped; the last bin is closed on the right.
func Histogram(values, edges []float64) []float64 {
	counts := make([]float64, len(edges)-1)
	low, high := edges[0], edges[len(edges)-1]

	x := make([]float64, 0, len(values))
	atHigh := 0
	for _, v := range values {
		switch {
		case v == high:
			atHigh++
		case v >= low && v < high:
			x = append(x, v)
		}
	}
	sort.Float64s(x)
	stat.Histogram(counts, edges, x, nil)
	counts[len(counts)-1] += float64(atHigh)
	return counts
}

// Midpoints returns the centre of every bin.
func Midpoints(edges []float64) []float64 {
	mids := make([]float64, len(edges)-1)
	for i := range mids {
		mids[i] = 0.5 * (edges[i] + edges[i+1])
	}
	return mids
}

// ScottBandwidth is the Gaussian kernel bandwidth rule used by seaborn.
func ScottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil) * math.Pow(float64(len(values)), -0.2)
}

// KDE evaluates a Gaussian kernel density estimate of values at every grid
// point. It returns zeros when the bandwidth is degenerate.
func KDE(values, grid []float64) []float64 {
	density := make([]float64, len(grid))
	bw := ScottBandwidth(values)
	if bw <= 0 || math.IsNaN(bw) {
		return density
	}
	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	n := float64(len(values))
	for i, g := range grid {
		var sum float64
		for _, v := range values {
			sum += kernel.Prob(g - v)
		}
		density[i] = sum / n
	}
	return density
}
