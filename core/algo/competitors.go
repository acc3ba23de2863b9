package algo

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/huangsam/catiq/schema"
)

// ScoreWeights are the points each similarity term contributes to a score.
type ScoreWeights struct {
	Price    float64 `mapstructure:"price" yaml:"price"`
	Type     float64 `mapstructure:"type" yaml:"type"`
	Revenue  float64 `mapstructure:"revenue" yaml:"revenue"`
	Units    float64 `mapstructure:"units" yaml:"units"`
	Rating   float64 `mapstructure:"rating" yaml:"rating"`
	Momentum float64 `mapstructure:"momentum" yaml:"momentum"`
}

// CompetitorParams are the heuristic constants of competitor scoring.
type CompetitorParams struct {
	Weights         ScoreWeights
	PriceWindowPct  float64 // relative price window
	PriceWindowAbs  float64 // absolute price window, currency units
	MinTypePool     int     // same-type pool size below which the full catalog is used
	MinRevenue      float64
	MinRevenueRatio float64 // of target revenue
	MaxCandidates   int
	RisingStarMoM   float64
	RisingStarMax   float64
}

// DefaultCompetitorParams returns the stock heuristics.
func DefaultCompetitorParams() CompetitorParams {
	return CompetitorParams{
		Weights:         ScoreWeights{Price: 25, Type: 25, Revenue: 20, Units: 10, Rating: 10, Momentum: 10},
		PriceWindowPct:  0.20,
		PriceWindowAbs:  120,
		MinTypePool:     4,
		MinRevenue:      10000,
		MinRevenueRatio: 0.05,
		MaxCandidates:   3,
		RisingStarMoM:   0.20,
		RisingStarMax:   8,
	}
}

// CompetitorOptions tune FindClosestCompetitors.
type CompetitorOptions struct {
	IncludeSameBrand bool
	Params           *CompetitorParams // nil uses DefaultCompetitorParams
}

// FindClosestCompetitors ranks the products most similar to target.
func FindClosestCompetitors(ix *schema.ProductIndex, target *schema.IndexedProduct, opts CompetitorOptions) schema.CompetitorResult {
	params := DefaultCompetitorParams()
	if opts.Params != nil {
		params = *opts.Params
	}
	result := schema.CompetitorResult{Target: target, Candidates: []schema.CompetitorCandidate{}}
	if target == nil {
		result.Assumptions = []string{"No target product was resolved."}
		return result
	}

	pool, sameType := candidatePool(ix.Products(), target, params.MinTypePool)
	if sameType {
		result.Assumptions = append(result.Assumptions, fmt.Sprintf("Candidates limited to type %q.", target.Type))
	} else {
		result.Assumptions = append(result.Assumptions, fmt.Sprintf(
			"Fewer than %d products share the target type; searched the full catalog.", params.MinTypePool))
	}

	window := math.Max(params.PriceWindowPct*target.Price, params.PriceWindowAbs)
	minRevenue := math.Max(params.MinRevenue, params.MinRevenueRatio*target.Revenue)
	result.Assumptions = append(result.Assumptions,
		fmt.Sprintf("Price within %s of %s (%.0f%% or %s, whichever is wider).",
			schema.FormatMoney(window), schema.FormatMoney(target.Price), params.PriceWindowPct*100, schema.FormatMoney(params.PriceWindowAbs)),
		fmt.Sprintf("Revenue of at least %s.", schema.FormatMoney(minRevenue)),
	)
	if !opts.IncludeSameBrand && target.Brand != "" {
		result.Assumptions = append(result.Assumptions, fmt.Sprintf("Other %s products excluded.", target.Brand))
	}

	var filtered []*schema.IndexedProduct
	for _, p := range pool {
		switch {
		case p.Asin == target.Asin:
		case !opts.IncludeSameBrand && target.Brand != "" && strings.EqualFold(p.Brand, target.Brand):
		case p.Price <= 0 || p.Revenue <= 0:
		case math.Abs(p.Price-target.Price) > window:
		case p.Revenue < minRevenue:
		default:
			filtered = append(filtered, p)
		}
	}

	candidates := make([]schema.CompetitorCandidate, 0, len(filtered))
	for _, p := range filtered {
		score, evidence := scoreCandidate(target, p, params)
		candidates = append(candidates, schema.CompetitorCandidate{Product: p, Score: score, Evidence: evidence})
	}
	slices.SortStableFunc(candidates, func(a, b schema.CompetitorCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Product.Revenue, a.Product.Revenue); c != 0 {
			return c
		}
		return strings.Compare(a.Product.Asin, b.Product.Asin)
	})
	if len(candidates) > params.MaxCandidates {
		candidates = candidates[:params.MaxCandidates]
	}
	result.Candidates = candidates
	result.Confidence = competitorConfidence(target, len(filtered), len(candidates))
	return result
}

// candidatePool prefers products of the target's type.
func candidatePool(products []*schema.IndexedProduct, target *schema.IndexedProduct, minPool int) ([]*schema.IndexedProduct, bool) {
	targetType := schema.NormalizeText(target.Type)
	if targetType == "" {
		return products, false
	}
	var same []*schema.IndexedProduct
	for _, p := range products {
		if p.Asin != target.Asin && schema.NormalizeText(p.Type) == targetType {
			same = append(same, p)
		}
	}
	if len(same) < minPool {
		return products, false
	}
	return same, true
}

func scoreCandidate(target, p *schema.IndexedProduct, params CompetitorParams) (float64, []string) {
	w := params.Weights
	base := w.Price*RatioSimilarity(target.Price, p.Price) +
		w.Type*TypeSimilarity(target.Type, p.Type) +
		w.Revenue*RatioSimilarity(target.Revenue, p.Revenue) +
		w.Units*RatioSimilarity(target.Units, p.Units) +
		w.Rating*RatingFavorability(target.Rating, p.Rating) +
		w.Momentum*MomentumSimilarity(target.RevenueMoM, p.RevenueMoM)

	evidence := []string{
		fmt.Sprintf("price %s vs %s (%s)", schema.FormatMoney(p.Price), schema.FormatMoney(target.Price), schema.FormatPct(relDelta(p.Price, target.Price))),
		typeEvidence(target.Type, p.Type),
		fmt.Sprintf("revenue %s vs %s (%s)", schema.FormatMoney(p.Revenue), schema.FormatMoney(target.Revenue), schema.FormatPct(relDelta(p.Revenue, target.Revenue))),
	}
	if p.Units > 0 && target.Units > 0 {
		evidence = append(evidence, fmt.Sprintf("units %s vs %s (%s)",
			schema.FormatCount(p.Units), schema.FormatCount(target.Units), schema.FormatPct(relDelta(p.Units, target.Units))))
	}
	if p.Rating > 0 && target.Rating > 0 {
		evidence = append(evidence, fmt.Sprintf("rating %.1f vs %.1f (%+.1f)", p.Rating, target.Rating, p.Rating-target.Rating))
	}
	if p.RevenueMoM != nil {
		evidence = append(evidence, "revenue MoM "+schema.FormatPct(*p.RevenueMoM))
	}

	score := base
	if bonus, prevRank := risingStarBonus(p, params); bonus > 0 {
		score += bonus
		evidence = append(evidence, fmt.Sprintf("rising star: revenue rank %d -> %d (+%.1f pts)", prevRank, p.RevenueRank, bonus))
	}
	return clamp(score, 0, 100), evidence
}

// risingStarBonus applies to fast growers whose revenue rank improved.
func risingStarBonus(p *schema.IndexedProduct, params CompetitorParams) (float64, int) {
	if p.RevenueMoM == nil || *p.RevenueMoM < params.RisingStarMoM {
		return 0, 0
	}
	prev, ok := p.PreviousPoint()
	if !ok || prev.RevenueRank <= 0 || p.RevenueRank <= 0 || p.RevenueRank >= prev.RevenueRank {
		return 0, 0
	}
	bonus := math.Min(params.RisingStarMax, params.RisingStarMax/2+10*(*p.RevenueMoM-params.RisingStarMoM))
	return bonus, prev.RevenueRank
}

func competitorConfidence(target *schema.IndexedProduct, poolSize, kept int) float64 {
	c := 0.45
	if strings.TrimSpace(target.Type) != "" {
		c += 0.15
	}
	if target.Price > 0 && target.Revenue > 0 && target.Units > 0 {
		c += 0.15
	}
	if poolSize >= 5 {
		c += 0.15
	}
	if kept >= 3 {
		c += 0.1
	}
	return math.Round(clamp(c, 0, 1)*100) / 100
}

// RatioSimilarity is 1 - |a-b|/max(a,b), or 0 when either side is not positive.
func RatioSimilarity(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return clamp(1-math.Abs(a-b)/math.Max(a, b), 0, 1)
}

// TypeSimilarity is 1 for the same type, 0.65 when one contains the other, else 0.2.
func TypeSimilarity(a, b string) float64 {
	na, nb := schema.NormalizeText(a), schema.NormalizeText(b)
	switch {
	case na == "" || nb == "":
		return 0.2
	case na == nb:
		return 1
	case strings.Contains(na, nb) || strings.Contains(nb, na):
		return 0.65
	}
	return 0.2
}

// RatingFavorability rewards candidates rated at or above the target.
func RatingFavorability(target, candidate float64) float64 {
	if target <= 0 || candidate <= 0 {
		return 0.5
	}
	return clamp(0.6+(candidate-target)/2, 0, 1)
}

// MomentumSimilarity is neutral when either growth rate is unknown.
func MomentumSimilarity(target, candidate *float64) float64 {
	if target == nil || candidate == nil {
		return 0.5
	}
	return clamp(1-math.Abs(*target-*candidate), 0, 1)
}

func typeEvidence(target, candidate string) string {
	if schema.NormalizeText(target) == schema.NormalizeText(candidate) {
		return fmt.Sprintf("type %s (same)", candidate)
	}
	return fmt.Sprintf("type %s vs %s", candidate, target)
}

func relDelta(v, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (v - base) / base
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
