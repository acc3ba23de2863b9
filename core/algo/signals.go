package algo

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/huangsam/catiq/schema"
)

// MaxSignals caps the suggestions returned by BuildSignals.
const MaxSignals = 3

// Signal thresholds.
const (
	ArbitrageMinGap      = 0.08
	ArbitrageRiskGap     = 0.18
	FragmentedTop3Share  = 0.50
	ClusterMinShare      = 0.08
	TrendMinChange       = 0.12
	TrendRiskChange      = 0.20
	OverpricedMultiplier = 1.15
)

// PriceBuckets are the upper bounds of the first three price clusters; the last is open.
var PriceBuckets = []float64{75, 200, 400}

// TypeMixRow is one row of type_mix.
type TypeMixRow struct {
	Type         string
	Revenue      float64
	RevenueShare float64
	UnitsShare   float64
}

// BrandRow is one row of brands_monthly.
type BrandRow struct {
	Brand        string
	Revenue      float64
	RevenueShare float64
	AvgPrice     float64
	AvgRating    float64
}

// FeatureRow is one row of feature_premiums.
type FeatureRow struct {
	Feature         string
	PremiumPct      float64
	WithAvgPrice    float64
	WithoutAvgPrice float64
	ProductCount    int
}

// CategoryData is the normalized view of one snapshot the signals read.
type CategoryData struct {
	TypeMix   []TypeMixRow
	Brands    []BrandRow
	Features  []FeatureRow
	Products  []*schema.IndexedProduct
	AvgPrice  float64
	AvgRating float64
}

// Trend compares category revenue with the previous snapshot.
type Trend struct {
	PreviousDate    string
	PreviousRevenue float64
	CurrentRevenue  float64
}

type scoredSignal struct {
	suggestion schema.ProactiveSuggestion
	score      float64
}

type signalTemplate func(CategoryData, *Trend) (scoredSignal, bool)

var signalTemplates = []signalTemplate{
	priceVolumeArbitrage,
	leaderVulnerability,
	featurePremium,
	clusterGap,
	trendReversal,
	priceQualityMismatch,
}

// BuildSignals evaluates every template and keeps the highest scoring ones.
// The score only orders suggestions; it is never exposed.
func BuildSignals(data CategoryData, trend *Trend) []schema.ProactiveSuggestion {
	var found []scoredSignal
	for _, tmpl := range signalTemplates {
		if s, ok := tmpl(data, trend); ok {
			found = append(found, s)
		}
	}
	slices.SortStableFunc(found, func(a, b scoredSignal) int {
		return cmp.Compare(b.score, a.score)
	})
	out := make([]schema.ProactiveSuggestion, 0, MaxSignals)
	for _, s := range found {
		if len(out) == MaxSignals {
			break
		}
		out = append(out, s.suggestion)
	}
	return out
}

func priceVolumeArbitrage(data CategoryData, _ *Trend) (scoredSignal, bool) {
	var best *TypeMixRow
	bestGap := 0.0
	for i := range data.TypeMix {
		row := &data.TypeMix[i]
		if gap := math.Abs(row.UnitsShare - row.RevenueShare); gap > bestGap {
			best, bestGap = row, gap
		}
	}
	if best == nil || bestGap < ArbitrageMinGap {
		return scoredSignal{}, false
	}
	severity := schema.WatchSeverity
	if bestGap >= ArbitrageRiskGap {
		severity = schema.RiskSeverity
	}
	var summary string
	if best.UnitsShare > best.RevenueShare {
		summary = fmt.Sprintf("%s takes %s of units but only %s of revenue, so volume is concentrated at low price points.",
			best.Type, schema.FormatShare(best.UnitsShare), schema.FormatShare(best.RevenueShare))
	} else {
		summary = fmt.Sprintf("%s earns %s of revenue on %s of units, a premium pocket worth defending.",
			best.Type, schema.FormatShare(best.RevenueShare), schema.FormatShare(best.UnitsShare))
	}
	return scoredSignal{
		suggestion: schema.ProactiveSuggestion{
			ID:         "price-volume-arbitrage",
			Title:      "Price-Volume Arbitrage",
			Summary:    summary,
			Severity:   severity,
			Confidence: round2(0.6 + math.Min(bestGap, 0.3)),
		},
		score: 50 + bestGap*200,
	}, true
}

func leaderVulnerability(data CategoryData, _ *Trend) (scoredSignal, bool) {
	if len(data.Brands) == 0 {
		return scoredSignal{}, false
	}
	brands := slices.Clone(data.Brands)
	slices.SortStableFunc(brands, func(a, b BrandRow) int { return cmp.Compare(b.RevenueShare, a.RevenueShare) })
	top := brands[:min(3, len(brands))]
	names := make([]string, len(top))
	share := 0.0
	for i, b := range top {
		names[i] = b.Brand
		share += b.RevenueShare
	}

	confidence := 0.5
	if len(brands) >= 3 {
		confidence = 0.8
	}
	if share < FragmentedTop3Share {
		return scoredSignal{
			suggestion: schema.ProactiveSuggestion{
				ID:         "leader-vulnerability",
				Title:      "Fragmented Leadership",
				Summary:    fmt.Sprintf("The top three brands (%s) hold only %s of revenue; no leader is entrenched.", strings.Join(names, ", "), schema.FormatShare(share)),
				Severity:   schema.WatchSeverity,
				Confidence: confidence,
			},
			score: 40 + (FragmentedTop3Share-share)*100,
		}, true
	}
	return scoredSignal{
		suggestion: schema.ProactiveSuggestion{
			ID:         "leader-vulnerability",
			Title:      "Concentrated Leadership",
			Summary:    fmt.Sprintf("The top three brands (%s) hold %s of revenue.", strings.Join(names, ", "), schema.FormatShare(share)),
			Severity:   schema.InfoSeverity,
			Confidence: confidence,
		},
		score: 20 + (share-FragmentedTop3Share)*40,
	}, true
}

func featurePremium(data CategoryData, _ *Trend) (scoredSignal, bool) {
	var best *FeatureRow
	for i := range data.Features {
		f := &data.Features[i]
		if f.PremiumPct > 0 && (best == nil || f.PremiumPct > best.PremiumPct) {
			best = f
		}
	}
	if best == nil {
		return scoredSignal{}, false
	}
	summary := fmt.Sprintf("Products with %s command a %s price premium", best.Feature, schema.FormatPct(best.PremiumPct))
	if best.WithAvgPrice > 0 && best.WithoutAvgPrice > 0 {
		summary += fmt.Sprintf(" (%s vs %s)", schema.FormatMoney(best.WithAvgPrice), schema.FormatMoney(best.WithoutAvgPrice))
	}
	return scoredSignal{
		suggestion: schema.ProactiveSuggestion{
			ID:         "feature-premium",
			Title:      "Feature Premium",
			Summary:    summary + ".",
			Severity:   schema.InfoSeverity,
			Confidence: round2(math.Min(0.9, 0.5+float64(min(best.ProductCount, 20))/40)),
		},
		score: 30 + math.Min(best.PremiumPct*100, 50)*0.6,
	}, true
}

// PriceBucket returns the label of the price cluster a price falls in.
func PriceBucket(price float64) string {
	switch {
	case price < PriceBuckets[0]:
		return fmt.Sprintf("under $%.0f", PriceBuckets[0])
	case price < PriceBuckets[1]:
		return fmt.Sprintf("$%.0f-$%.0f", PriceBuckets[0], PriceBuckets[1]-1)
	case price < PriceBuckets[2]:
		return fmt.Sprintf("$%.0f-$%.0f", PriceBuckets[1], PriceBuckets[2]-1)
	}
	return fmt.Sprintf("$%.0f+", PriceBuckets[2])
}

type cluster struct {
	typ, bucket string
	revenue     float64
	brands      map[string]struct{}
}

func clusterGap(data CategoryData, _ *Trend) (scoredSignal, bool) {
	total := 0.0
	clusters := map[string]*cluster{}
	var order []string
	for _, p := range data.Products {
		if p.Revenue <= 0 || strings.TrimSpace(p.Type) == "" {
			continue
		}
		total += p.Revenue
		bucket := PriceBucket(p.Price)
		key := schema.NormalizeText(p.Type) + "|" + bucket
		c, ok := clusters[key]
		if !ok {
			c = &cluster{typ: p.Type, bucket: bucket, brands: map[string]struct{}{}}
			clusters[key] = c
			order = append(order, key)
		}
		c.revenue += p.Revenue
		if p.Brand != "" {
			c.brands[strings.ToLower(p.Brand)] = struct{}{}
		}
	}
	if total <= 0 {
		return scoredSignal{}, false
	}

	var best *cluster
	var bestShare float64
	for _, key := range order {
		c := clusters[key]
		share := c.revenue / total
		if share < ClusterMinShare {
			continue
		}
		if best == nil || len(c.brands) < len(best.brands) ||
			(len(c.brands) == len(best.brands) && share > bestShare) {
			best, bestShare = c, share
		}
	}
	if best == nil {
		return scoredSignal{}, false
	}
	n := max(len(best.brands), 1)
	noun := "brands"
	if n == 1 {
		noun = "brand"
	}
	return scoredSignal{
		suggestion: schema.ProactiveSuggestion{
			ID:         "cluster-gap",
			Title:      "Competitive Cluster Gap",
			Summary:    fmt.Sprintf("%s priced %s holds %s of revenue with only %d %s competing.", best.typ, best.bucket, schema.FormatShare(bestShare), n, noun),
			Severity:   schema.WatchSeverity,
			Confidence: 0.55,
		},
		score: 35 + bestShare*100/float64(n),
	}, true
}

func trendReversal(_ CategoryData, trend *Trend) (scoredSignal, bool) {
	if trend == nil || trend.PreviousRevenue <= 0 {
		return scoredSignal{}, false
	}
	change := (trend.CurrentRevenue - trend.PreviousRevenue) / trend.PreviousRevenue
	if math.Abs(change) < TrendMinChange {
		return scoredSignal{}, false
	}
	severity, confidence := schema.WatchSeverity, 0.7
	if math.Abs(change) >= TrendRiskChange {
		severity, confidence = schema.RiskSeverity, 0.85
	}
	direction := "grew"
	if change < 0 {
		direction = "fell"
	}
	return scoredSignal{
		suggestion: schema.ProactiveSuggestion{
			ID:    "trend-reversal",
			Title: "Trend Reversal",
			Summary: fmt.Sprintf("Category revenue %s %s versus %s (%s to %s).", direction, schema.FormatShare(math.Abs(change)),
				trend.PreviousDate, schema.FormatMoney(trend.PreviousRevenue), schema.FormatMoney(trend.CurrentRevenue)),
			Severity:   severity,
			Confidence: confidence,
		},
		score: 45 + math.Abs(change)*150,
	}, true
}

func priceQualityMismatch(data CategoryData, _ *Trend) (scoredSignal, bool) {
	if data.AvgPrice <= 0 || data.AvgRating <= 0 {
		return scoredSignal{}, false
	}
	var best *BrandRow
	bestPremium := 0.0
	for i := range data.Brands {
		b := &data.Brands[i]
		if b.AvgPrice <= data.AvgPrice*OverpricedMultiplier || b.AvgRating <= 0 || b.AvgRating >= data.AvgRating {
			continue
		}
		if premium := b.AvgPrice/data.AvgPrice - 1; premium > bestPremium {
			best, bestPremium = b, premium
		}
	}
	if best == nil {
		return scoredSignal{}, false
	}
	ratingGap := data.AvgRating - best.AvgRating
	return scoredSignal{
		suggestion: schema.ProactiveSuggestion{
			ID:    "price-quality-mismatch",
			Title: "Price-Quality Mismatch",
			Summary: fmt.Sprintf("%s is priced %s above the category average (%s vs %s) but rates %.1f against %.1f.",
				best.Brand, schema.FormatShare(bestPremium), schema.FormatMoney(best.AvgPrice), schema.FormatMoney(data.AvgPrice),
				best.AvgRating, data.AvgRating),
			Severity:   schema.WatchSeverity,
			Confidence: 0.6,
		},
		score: 30 + bestPremium*100 + ratingGap*20,
	}, true
}

func round2(v float64) float64 {
	return math.Round(clamp(v, 0, 1)*100) / 100
}
