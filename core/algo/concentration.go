package algo

import (
	"math"
	"slices"
)

// Gini calculates the Gini coefficient for a set of values, from 0 when
// revenue is spread evenly across brands to 1 when one brand holds it all.
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}

	var diffSum float64
	for i := range n {
		for j := range n {
			diffSum += math.Abs(values[i] - values[j])
		}
	}

	g := diffSum / (2 * float64(n*n) * mean)
	return clamp(g, 0, 1)
}

// HHI is the Herfindahl-Hirschman index of shares given as ratios, on the 0-10000 scale.
func HHI(shares []float64) float64 {
	var h float64
	for _, s := range shares {
		h += (s * 100) * (s * 100)
	}
	return h
}

// TopShare sums the n largest shares.
func TopShare(shares []float64, n int) float64 {
	sorted := slices.Clone(shares)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	var total float64
	for _, s := range sorted[:min(n, len(sorted))] {
		total += s
	}
	return total
}

// ConcentrationLabel describes an HHI value with the usual antitrust bands.
func ConcentrationLabel(hhi float64) string {
	switch {
	case hhi >= 2500:
		return "highly concentrated"
	case hhi >= 1500:
		return "moderately concentrated"
	}
	return "competitive"
}
