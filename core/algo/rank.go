// Package algo has the scoring and ranking computations behind the analyzers.
package algo

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/huangsam/catiq/schema"
)

// RankMove is the rank change of one product against its previous snapshot.
// Delta is positive when the product climbed.
type RankMove struct {
	Product  *schema.IndexedProduct
	Previous float64
	Current  float64
	Delta    float64
}

// RankOf returns the rank of a product for the given target. Overall rank
// averages the revenue and units ranks. Zero means unranked.
func RankOf(revenueRank, unitsRank int, target schema.RankTarget) float64 {
	switch target {
	case schema.UnitsRank:
		return float64(unitsRank)
	case schema.OverallRank:
		if revenueRank <= 0 || unitsRank <= 0 {
			return 0
		}
		return float64(revenueRank+unitsRank) / 2
	}
	return float64(revenueRank)
}

// RankMovers sorts products by rank change and returns the top 'limit'
// climbers and fallers. Products without a prior rank are skipped.
func RankMovers(products []*schema.IndexedProduct, target schema.RankTarget, limit int) (climbers, fallers []RankMove) {
	for _, p := range products {
		prev, ok := p.PreviousPoint()
		if !ok {
			continue
		}
		before := RankOf(prev.RevenueRank, prev.UnitsRank, target)
		now := RankOf(p.RevenueRank, p.UnitsRank, target)
		if before <= 0 || now <= 0 || before == now {
			continue
		}
		move := RankMove{Product: p, Previous: before, Current: now, Delta: before - now}
		if move.Delta > 0 {
			climbers = append(climbers, move)
		} else {
			fallers = append(fallers, move)
		}
	}
	byMagnitude := func(a, b RankMove) int {
		if c := cmp.Compare(math.Abs(b.Delta), math.Abs(a.Delta)); c != 0 {
			return c
		}
		return strings.Compare(a.Product.Asin, b.Product.Asin)
	}
	slices.SortStableFunc(climbers, byMagnitude)
	slices.SortStableFunc(fallers, byMagnitude)
	if len(climbers) > limit {
		climbers = climbers[:limit]
	}
	if len(fallers) > limit {
		fallers = fallers[:limit]
	}
	return climbers, fallers
}
