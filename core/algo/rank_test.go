package algo

import (
	"math"
	"testing"

	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGini tests the Gini coefficient calculation.
func TestGini(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
		delta    float64
	}{
		{
			name:     "empty slice",
			values:   []float64{},
			expected: 0.0,
			delta:    0.001,
		},
		{
			name:     "perfect equality",
			values:   []float64{1, 1, 1, 1},
			expected: 0.0,
			delta:    0.001,
		},
		{
			name:     "one brand holds everything",
			values:   []float64{0, 0, 0, 10},
			expected: 0.75,
			delta:    0.001,
		},
		{
			name:     "moderate inequality",
			values:   []float64{1, 2, 3, 4},
			expected: 0.25,
			delta:    0.001,
		},
		{
			name:     "all zeros",
			values:   []float64{0, 0, 0},
			expected: 0.0,
			delta:    0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Gini(tt.values)
			assert.LessOrEqual(t, math.Abs(result-tt.expected), tt.delta)
		})
	}
}

// TestConcentration tests HHI and top-share helpers.
func TestConcentration(t *testing.T) {
	shares := []float64{0.1, 0.5, 0.2, 0.2}
	assert.InDelta(t, 3400.0, HHI(shares), 0.001)
	assert.InDelta(t, 0.9, TopShare(shares, 3), 1e-9)
	assert.InDelta(t, 1.0, TopShare(shares, 10), 1e-9)
	assert.Equal(t, []float64{0.1, 0.5, 0.2, 0.2}, shares, "input is not reordered")

	assert.Equal(t, "highly concentrated", ConcentrationLabel(3400))
	assert.Equal(t, "moderately concentrated", ConcentrationLabel(1800))
	assert.Equal(t, "competitive", ConcentrationLabel(900))
}

func mover(asin string, revRank, unitsRank, prevRev, prevUnits int) *schema.IndexedProduct {
	return &schema.IndexedProduct{
		Asin:        asin,
		RevenueRank: revRank,
		UnitsRank:   unitsRank,
		History: []schema.HistoryPoint{
			{SnapshotDate: "2025-04", RevenueRank: 50, UnitsRank: 50},
			{SnapshotDate: "2025-05", RevenueRank: prevRev, UnitsRank: prevUnits},
		},
	}
}

// TestRankMovers tests climber and faller ordering.
func TestRankMovers(t *testing.T) {
	products := []*schema.IndexedProduct{
		mover("A", 2, 9, 8, 3),  // revenue +6, units -6
		mover("B", 5, 5, 6, 10), // revenue +1, units +5
		mover("C", 12, 4, 4, 4), // revenue -8
		mover("D", 3, 3, 3, 3),  // unchanged
		{Asin: "E", RevenueRank: 1},
	}

	t.Run("revenue rank", func(t *testing.T) {
		up, down := RankMovers(products, schema.RevenueRank, 5)
		require.Len(t, up, 2)
		assert.Equal(t, "A", up[0].Product.Asin)
		assert.InDelta(t, 6.0, up[0].Delta, 1e-9)
		assert.Equal(t, "B", up[1].Product.Asin)
		require.Len(t, down, 1)
		assert.Equal(t, "C", down[0].Product.Asin)
		assert.InDelta(t, -8.0, down[0].Delta, 1e-9)
	})

	t.Run("units rank", func(t *testing.T) {
		up, down := RankMovers(products, schema.UnitsRank, 5)
		require.Len(t, up, 1)
		assert.Equal(t, "B", up[0].Product.Asin)
		require.Len(t, down, 1)
		assert.Equal(t, "A", down[0].Product.Asin)
	})

	t.Run("overall rank averages both", func(t *testing.T) {
		assert.InDelta(t, 5.5, RankOf(2, 9, schema.OverallRank), 1e-9)
		assert.Zero(t, RankOf(0, 9, schema.OverallRank))
		up, _ := RankMovers(products, schema.OverallRank, 1)
		require.Len(t, up, 1)
		assert.Equal(t, "B", up[0].Product.Asin)
	})
}
