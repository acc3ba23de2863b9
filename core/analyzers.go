package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/catiq/core/algo"
	"github.com/huangsam/catiq/schema"
)

// Confidence levels analyzers report. Answers below the configured threshold
// are handed to the model in hybrid mode.
const (
	highConfidence    = 0.85
	defaultConfidence = 0.75
	partialConfidence = 0.5
	noDataConfidence  = 0.25
	generalConfidence = 0.35
)

type analyzerFunc func(a *analysis) facts

// analyzers maps every analyzer id to its computation.
var analyzers = map[schema.Analyzer]analyzerFunc{
	schema.PerformanceSummaryAnalyzer: performanceSummary,
	schema.TopBrandsAnalyzer:          topBrands,
	schema.TopProductsAnalyzer:        topProducts,
	schema.FastestGrowthAnalyzer:      func(a *analysis) facts { return growthLeaders(a, true) },
	schema.BiggestDeclinersAnalyzer:   func(a *analysis) facts { return growthLeaders(a, false) },
	schema.RankMoversAnalyzer:         rankMovers,
	schema.MarketShareAnalyzer:        marketShare,
	schema.BrandComparisonAnalyzer:    brandComparison,
	schema.PriceAnalysisAnalyzer:      priceAnalysis,
	schema.TypeMixAnalyzer:            typeMix,
	schema.HistoricalTrendAnalyzer:    historicalTrend,
	schema.ClosestCompetitorsAnalyzer: closestCompetitors,
	schema.ProductDetailAnalyzer:      productDetail,
	schema.ProactiveSignalsAnalyzer:   proactiveSignals,
	schema.GeneralAnalyzer:            general,
}

func noData(what string, a *analysis) facts {
	return facts{
		answer:     fmt.Sprintf("I could not find %s%s in the %s snapshot for %s.", what, a.scopeNote(), a.category(), a.date()),
		confidence: noDataConfidence,
	}
}

func performanceSummary(a *analysis) facts {
	total := a.categoryTotal(schema.RevenueMetric)
	brands := a.scopedBrands()
	if len(brands) == 0 {
		f := facts{confidence: defaultConfidence, focus: a.category()}
		s := a.summary()
		products := a.snap.Index.Products()
		if total <= 0 && len(products) == 0 {
			return noData("category data", a)
		}
		f.answer = fmt.Sprintf("The %s category generated %s in revenue across %d products in %s.",
			a.category(), schema.FormatMoney(total), len(products), a.date())
		f.add("Category revenue", schema.FormatMoney(total))
		if units := a.categoryTotal(schema.UnitsMetric); units > 0 {
			f.add("Category units", schema.FormatCount(units))
		}
		if mom, ok := schema.ToFloat(s["revenue_mom"]); ok {
			f.bullet("Revenue changed %s month over month.", schema.FormatPct(mom))
			f.add("Revenue MoM", schema.FormatPct(mom))
		}
		if price := num(s["avg_price"]); price > 0 {
			f.bullet("Average price is %s.", schema.FormatMoney(price))
		}
		if stats := a.brandStats(); len(stats) > 0 {
			f.bullet("%s leads with %s of revenue.", stats[0].Brand, schema.FormatShare(stats[0].RevenueShare))
			f.focus = stats[0].Brand
		}
		return f
	}

	f := facts{confidence: highConfidence}
	var found []brandStat
	for _, s := range a.brandStats() {
		if a.inScope(s.Brand) {
			found = append(found, s)
		}
	}
	if len(found) == 0 {
		return noData("brand data", a)
	}
	names := make([]string, len(found))
	var revenue float64
	for i, s := range found {
		names[i] = s.Brand
		revenue += s.Revenue
		line := fmt.Sprintf("%s: %s revenue (%s share, rank %d), %s units",
			s.Brand, schema.FormatMoney(s.Revenue), schema.FormatShare(s.RevenueShare), s.RevenueRank, schema.FormatCount(s.Units))
		if s.RevenueMoM != nil {
			line += ", " + schema.FormatPct(*s.RevenueMoM) + " MoM"
		}
		f.bullets = append(f.bullets, line)
		f.add(s.Brand+" revenue", schema.FormatMoney(s.Revenue))
	}
	f.answer = fmt.Sprintf("%s generated %s in revenue in %s.", strings.Join(names, " and "), schema.FormatMoney(revenue), a.date())
	if total > 0 {
		share := revenue / total
		f.answer = fmt.Sprintf("%s generated %s in revenue in %s, %s of the category.",
			strings.Join(names, " and "), schema.FormatMoney(revenue), a.date(), schema.FormatShare(share))
		f.add("Combined share", schema.FormatShare(share))
	}
	f.focus = names[0]
	if len(found) < len(brands) {
		f.confidence = partialConfidence
	}
	return f
}

func topBrands(a *analysis) facts {
	metric := a.plan.Metric
	stats := a.brandStats()
	if len(stats) == 0 {
		return noData("brand data", a)
	}
	slices.SortStableFunc(stats, func(x, y brandStat) int {
		return cmp.Compare(brandMetric(y, metric), brandMetric(x, metric))
	})

	f := facts{confidence: defaultConfidence, focus: stats[0].Brand}
	top := stats[:min(limitOf(a.plan), len(stats))]
	lead := top[0]
	f.answer = fmt.Sprintf("%s leads the %s category by %s in %s with %s (%s share).",
		lead.Brand, a.category(), metric, a.date(), formatMetric(brandMetric(lead, metric), metric), schema.FormatShare(brandShare(lead, metric)))
	for i, s := range top {
		f.bullet("%d. %s: %s (%s share)", i+1, s.Brand, formatMetric(brandMetric(s, metric), metric), schema.FormatShare(brandShare(s, metric)))
		f.add(s.Brand, formatMetric(brandMetric(s, metric), metric))
	}
	for i, s := range stats[len(top):] {
		if len(a.scopedBrands()) > 0 && a.inScope(s.Brand) {
			f.bullet("%s ranks #%d with %s.", s.Brand, len(top)+i+1, formatMetric(brandMetric(s, metric), metric))
		}
	}
	return f
}

func topProducts(a *analysis) facts {
	metric := a.plan.Metric
	products := a.scopedProducts()
	if len(products) == 0 {
		return noData("products", a)
	}
	slices.SortStableFunc(products, func(x, y *schema.IndexedProduct) int {
		return cmp.Compare(productMetric(y, metric), productMetric(x, metric))
	})
	top := products[:min(limitOf(a.plan), len(products))]

	f := facts{confidence: defaultConfidence, focus: top[0].Label()}
	f.answer = fmt.Sprintf("The top product by %s%s in %s is %s with %s.",
		metric, a.scopeNote(), a.date(), top[0].Label(), formatMetric(productMetric(top[0], metric), metric))
	for i, p := range top {
		f.bullet("%d. %s: %s revenue, %s units at %s", i+1, p.Label(),
			schema.FormatMoney(p.Revenue), schema.FormatCount(p.Units), schema.FormatMoney(p.Price))
		f.add(p.Asin, formatMetric(productMetric(p, metric), metric))
	}
	if a.plan.TypeScope != "" {
		f.bullet("Limited to type %q.", a.plan.TypeScope)
	}
	return f
}

// mover is one brand or product with a growth rate.
type mover struct {
	name   string
	value  float64
	growth float64
	yoy    *float64 // set only when both windows were asked for
}

// growthLeaders ranks brands, or products at ASIN level, by growth. When both
// windows are asked for, ranking is month over month and year over year rates
// ride along in the bullets. Rising
// keeps positive growth only, otherwise negative growth only.
func growthLeaders(a *analysis, rising bool) facts {
	yoy := a.plan.GrowthWindow == schema.GrowthYoY
	both := a.plan.GrowthWindow == schema.GrowthBoth
	window := "month over month"
	if yoy {
		window = "year over year"
	}

	var movers []mover
	if a.plan.TargetLevel == schema.AsinLevel {
		for _, p := range a.scopedProducts() {
			g := p.RevenueMoM
			if yoy {
				g = optFloat(a.productRow(p.Asin)["revenue_yoy"])
			}
			if g != nil {
				m := mover{name: p.Label(), value: p.Revenue, growth: *g}
				if both {
					m.yoy = optFloat(a.productRow(p.Asin)["revenue_yoy"])
				}
				movers = append(movers, m)
			}
		}
	} else {
		for _, s := range a.brandStats() {
			if !a.inScope(s.Brand) {
				continue
			}
			g := s.RevenueMoM
			if yoy {
				g = s.RevenueYoY
			}
			if g != nil {
				m := mover{name: s.Brand, value: s.Revenue, growth: *g}
				if both {
					m.yoy = s.RevenueYoY
				}
				movers = append(movers, m)
			}
		}
	}
	movers = slices.DeleteFunc(movers, func(m mover) bool {
		return (rising && m.growth <= 0) || (!rising && m.growth >= 0)
	})
	if len(movers) == 0 {
		what := "growing brands or products"
		if !rising {
			what = "declining brands or products"
		}
		return noData(what, a)
	}
	slices.SortStableFunc(movers, func(x, y mover) int {
		if rising {
			return cmp.Compare(y.growth, x.growth)
		}
		return cmp.Compare(x.growth, y.growth)
	})
	movers = movers[:min(limitOf(a.plan), len(movers))]

	verb := "grew fastest"
	if !rising {
		verb = "declined most"
	}
	f := facts{confidence: defaultConfidence, focus: movers[0].name}
	f.answer = fmt.Sprintf("%s %s %s, changing revenue %s to %s.",
		movers[0].name, verb, window, schema.FormatPct(movers[0].growth), schema.FormatMoney(movers[0].value))
	if both {
		if y := movers[0].yoy; y != nil {
			f.answer += fmt.Sprintf(" Year over year it changed %s.", schema.FormatPct(*y))
		} else {
			f.answer += " Year over year figures are not available."
		}
	}
	for i, m := range movers {
		if m.yoy != nil {
			f.bullet("%d. %s: %s MoM, %s YoY (%s revenue)", i+1, m.name, schema.FormatPct(m.growth), schema.FormatPct(*m.yoy), schema.FormatMoney(m.value))
			f.add(m.name+" YoY", schema.FormatPct(*m.yoy))
		} else {
			f.bullet("%d. %s: %s (%s revenue)", i+1, m.name, schema.FormatPct(m.growth), schema.FormatMoney(m.value))
		}
		f.add(m.name, schema.FormatPct(m.growth))
	}
	return f
}

func rankMovers(a *analysis) facts {
	climbers, fallers := algo.RankMovers(a.scopedProducts(), a.plan.RankTarget, limitOf(a.plan))
	if len(climbers) == 0 && len(fallers) == 0 {
		return noData("rank changes against the previous snapshot", a)
	}
	f := facts{confidence: defaultConfidence}
	target := strings.ReplaceAll(string(a.plan.RankTarget), "_", " ")
	switch {
	case len(climbers) > 0:
		m := climbers[0]
		f.focus = m.Product.Label()
		f.answer = fmt.Sprintf("%s climbed the most by %s, from #%s to #%s.", m.Product.Label(), target, rankText(m.Previous), rankText(m.Current))
	default:
		m := fallers[0]
		f.focus = m.Product.Label()
		f.answer = fmt.Sprintf("No product climbed by %s; %s fell the most, from #%s to #%s.", target, m.Product.Label(), rankText(m.Previous), rankText(m.Current))
	}
	for _, m := range climbers {
		f.bullet("Up %s: %s (#%s to #%s)", rankText(m.Delta), m.Product.Label(), rankText(m.Previous), rankText(m.Current))
		f.add(m.Product.Asin, "+"+rankText(m.Delta))
	}
	for _, m := range fallers {
		f.bullet("Down %s: %s (#%s to #%s)", rankText(-m.Delta), m.Product.Label(), rankText(m.Previous), rankText(m.Current))
		f.add(m.Product.Asin, "-"+rankText(-m.Delta))
	}
	return f
}

func rankText(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

func marketShare(a *analysis) facts {
	metric := a.plan.Metric
	stats := a.brandStats()
	if len(stats) == 0 {
		return noData("brand shares", a)
	}
	slices.SortStableFunc(stats, func(x, y brandStat) int {
		return cmp.Compare(brandShare(y, metric), brandShare(x, metric))
	})
	shares := make([]float64, len(stats))
	values := make([]float64, len(stats))
	for i, s := range stats {
		shares[i] = brandShare(s, metric)
		values[i] = brandMetric(s, metric)
	}
	hhi := algo.HHI(shares)
	top3 := algo.TopShare(shares, 3)

	f := facts{confidence: defaultConfidence, focus: stats[0].Brand}
	f.answer = fmt.Sprintf("%s holds the largest %s share in %s at %s; the top 3 brands hold %s and the market is %s.",
		stats[0].Brand, metric, a.category(), schema.FormatShare(shares[0]), schema.FormatShare(top3), algo.ConcentrationLabel(hhi))
	for i, s := range stats[:min(limitOf(a.plan), len(stats))] {
		f.bullet("%s: %s", s.Brand, schema.FormatShare(shares[i]))
		f.add(s.Brand+" share", schema.FormatShare(shares[i]))
	}
	for i, s := range stats {
		if len(a.scopedBrands()) > 0 && a.inScope(s.Brand) && i >= limitOf(a.plan) {
			f.bullet("%s: %s (rank %d)", s.Brand, schema.FormatShare(shares[i]), i+1)
		}
	}
	f.add("Top 3 share", schema.FormatShare(top3))
	f.add("HHI", fmt.Sprintf("%.0f", hhi))
	f.add("Gini", fmt.Sprintf("%.2f", algo.Gini(values)))
	return f
}

func brandComparison(a *analysis) facts {
	stats := a.brandStats()
	var picked []brandStat
	for _, s := range stats {
		if len(a.scopedBrands()) > 0 && a.inScope(s.Brand) {
			picked = append(picked, s)
		}
	}
	// Compare a lone brand with the category leader.
	if len(picked) < 2 && len(stats) > 0 {
		for _, s := range stats {
			if len(picked) == 0 || !strings.EqualFold(s.Brand, picked[0].Brand) {
				picked = append(picked, s)
				break
			}
		}
	}
	if len(picked) < 2 {
		return noData("two brands to compare", a)
	}

	x, y := picked[0], picked[1]
	f := facts{confidence: defaultConfidence, focus: x.Brand}
	lead, trail := x, y
	if y.Revenue > x.Revenue {
		lead, trail = y, x
	}
	gap := lead.Revenue - trail.Revenue
	f.answer = fmt.Sprintf("%s out-earned %s by %s in %s (%s vs %s).",
		lead.Brand, trail.Brand, schema.FormatMoney(gap), a.date(), schema.FormatMoney(lead.Revenue), schema.FormatMoney(trail.Revenue))
	for _, s := range picked {
		line := fmt.Sprintf("%s: %s revenue, %s share, %s units, avg price %s, rating %.1f",
			s.Brand, schema.FormatMoney(s.Revenue), schema.FormatShare(s.RevenueShare), schema.FormatCount(s.Units), schema.FormatMoney(s.AvgPrice), s.AvgRating)
		if s.RevenueMoM != nil {
			line += ", " + schema.FormatPct(*s.RevenueMoM) + " MoM"
		}
		f.bullets = append(f.bullets, line)
		f.add(s.Brand+" revenue", schema.FormatMoney(s.Revenue))
	}
	f.add("Revenue gap", schema.FormatMoney(gap))
	if len(a.scopedBrands()) < 2 {
		f.confidence = partialConfidence + 0.1
	}
	return f
}

func priceAnalysis(a *analysis) facts {
	products := a.scopedProducts()
	var priced []*schema.IndexedProduct
	for _, p := range products {
		if p.Price > 0 {
			priced = append(priced, p)
		}
	}
	if len(priced) == 0 {
		return noData("priced products", a)
	}
	avg := num(a.summary()["avg_price"])
	if avg <= 0 || len(a.scopedBrands()) > 0 || a.plan.TypeScope != "" {
		prices := make([]float64, len(priced))
		for i, p := range priced {
			prices[i] = p.Price
		}
		avg = mean(prices)
	}

	buckets := map[string]float64{}
	var revenue float64
	for _, p := range priced {
		buckets[algo.PriceBucket(p.Price)] += p.Revenue
		revenue += p.Revenue
	}
	slices.SortStableFunc(priced, func(x, y *schema.IndexedProduct) int { return cmp.Compare(x.Price, y.Price) })

	f := facts{confidence: defaultConfidence, focus: a.category()}
	f.answer = fmt.Sprintf("The average price%s in %s is %s, ranging from %s to %s.",
		a.scopeNote(), a.category(), schema.FormatMoney(avg), schema.FormatMoney(priced[0].Price), schema.FormatMoney(priced[len(priced)-1].Price))
	f.add("Average price", schema.FormatMoney(avg))
	f.add("Lowest price", schema.FormatMoney(priced[0].Price))
	f.add("Highest price", schema.FormatMoney(priced[len(priced)-1].Price))
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y string) int { return cmp.Compare(buckets[y], buckets[x]) })
	for _, k := range keys {
		if revenue > 0 {
			f.bullet("%s: %s of revenue", k, schema.FormatShare(buckets[k]/revenue))
		}
	}
	for _, s := range a.brandStats() {
		if len(a.scopedBrands()) > 0 && a.inScope(s.Brand) && s.AvgPrice > 0 {
			f.bullet("%s averages %s, %s versus the category.", s.Brand, schema.FormatMoney(s.AvgPrice), schema.FormatPct(s.AvgPrice/avg-1))
			f.focus = s.Brand
		}
	}
	return f
}

// typeShare is one product type's slice of the category.
type typeShare struct {
	name         string
	revenue      float64
	revenueShare float64
	unitsShare   float64
	avgPrice     float64
}

func typeMix(a *analysis) facts {
	var mix []typeShare
	for _, row := range a.rows(schema.TypeMixTable) {
		mix = append(mix, typeShare{
			name:         schema.ToString(row["type"]),
			revenue:      num(row["revenue"]),
			revenueShare: num(row["revenue_share"]),
			unitsShare:   num(row["units_share"]),
			avgPrice:     num(row["avg_price"]),
		})
	}
	if len(mix) == 0 {
		mix = aggregateTypes(a.snap.Index.Products())
	}
	if len(mix) == 0 {
		return noData("product types", a)
	}
	slices.SortStableFunc(mix, func(x, y typeShare) int { return cmp.Compare(y.revenueShare, x.revenueShare) })

	f := facts{confidence: defaultConfidence, focus: mix[0].name}
	f.answer = fmt.Sprintf("%s is the largest product type in %s with %s of revenue and %s of units.",
		mix[0].name, a.category(), schema.FormatShare(mix[0].revenueShare), schema.FormatShare(mix[0].unitsShare))
	for _, t := range mix {
		line := fmt.Sprintf("%s: %s of revenue, %s of units", t.name, schema.FormatShare(t.revenueShare), schema.FormatShare(t.unitsShare))
		if t.avgPrice > 0 {
			line += ", avg price " + schema.FormatMoney(t.avgPrice)
		}
		f.bullets = append(f.bullets, line)
		f.add(t.name, schema.FormatShare(t.revenueShare))
	}
	return f
}

func aggregateTypes(products []*schema.IndexedProduct) []typeShare {
	byType := map[string]*typeShare{}
	units := map[string]float64{}
	var order []string
	var revenue, totalUnits float64
	for _, p := range products {
		if p.Type == "" {
			continue
		}
		t, ok := byType[p.Type]
		if !ok {
			t = &typeShare{name: p.Type}
			byType[p.Type] = t
			order = append(order, p.Type)
		}
		t.revenue += p.Revenue
		units[p.Type] += p.Units
		revenue += p.Revenue
		totalUnits += p.Units
	}
	out := make([]typeShare, 0, len(order))
	for _, name := range order {
		t := byType[name]
		if revenue > 0 {
			t.revenueShare = t.revenue / revenue
		}
		if totalUnits > 0 {
			t.unitsShare = units[name] / totalUnits
		}
		if units[name] > 0 {
			t.avgPrice = t.revenue / units[name]
		}
		out = append(out, *t)
	}
	return out
}

// windowMonths is the number of prior snapshots each historical window covers.
var windowMonths = map[schema.HistoricalWindow]int{
	schema.Window1M:  1,
	schema.Window3M:  3,
	schema.Window6M:  6,
	schema.Window12M: 12,
}

type trendPoint struct {
	date    string
	revenue float64
}

func historicalTrend(a *analysis) facts {
	brands := a.scopedBrands()
	table, subject := schema.CategoryHistoryTable, a.category()
	if len(brands) > 0 {
		table, subject = schema.BrandHistoryTable, brands[0]
	}

	var points []trendPoint
	for _, row := range a.rows(table) {
		d := schema.ToString(row["snapshot_date"])
		if d == "" || d >= a.date() {
			continue
		}
		if len(brands) > 0 && !strings.EqualFold(schema.ToString(row["brand"]), subject) {
			continue
		}
		points = append(points, trendPoint{date: d, revenue: num(row["revenue"])})
	}
	slices.SortStableFunc(points, func(x, y trendPoint) int { return strings.Compare(x.date, y.date) })
	if n, ok := windowMonths[a.plan.HistoricalWindow]; ok && len(points) > n {
		points = points[len(points)-n:]
	}

	current := a.categoryTotal(schema.RevenueMetric)
	if len(brands) > 0 {
		current = 0
		for _, s := range a.brandStats() {
			if strings.EqualFold(s.Brand, subject) {
				current = s.Revenue
			}
		}
	}
	if len(points) == 0 || current <= 0 {
		return noData("history", a)
	}
	points = append(points, trendPoint{date: a.date(), revenue: current})

	first, last := points[0], points[len(points)-1]
	f := facts{confidence: defaultConfidence, focus: subject}
	if first.revenue > 0 {
		change := last.revenue/first.revenue - 1
		f.answer = fmt.Sprintf("%s revenue moved from %s in %s to %s in %s (%s).",
			subject, schema.FormatMoney(first.revenue), first.date, schema.FormatMoney(last.revenue), last.date, schema.FormatPct(change))
		f.add("Change", schema.FormatPct(change))
	} else {
		f.answer = fmt.Sprintf("%s revenue reached %s in %s.", subject, schema.FormatMoney(last.revenue), last.date)
	}
	for _, p := range points {
		f.bullet("%s: %s", p.date, schema.FormatMoney(p.revenue))
		f.add(p.date, schema.FormatMoney(p.revenue))
	}
	if len(points) <= 2 {
		f.confidence = partialConfidence + 0.1
	}
	return f
}

func closestCompetitors(a *analysis) facts {
	target := a.res.MatchedProducts[0]
	params := competitorParams(a.cfg)
	result := algo.FindClosestCompetitors(a.snap.Index, target, algo.CompetitorOptions{
		IncludeSameBrand: includeSameBrand(a.plan.Text),
		Params:           &params,
	})
	return competitorFacts(result)
}

// competitorFacts renders a scoring result; the CLI and MCP server share it.
func competitorFacts(result schema.CompetitorResult) facts {
	f := facts{confidence: result.Confidence, focus: result.Target.Label()}
	if len(result.Candidates) == 0 {
		f.answer = fmt.Sprintf("I found no close competitors for %s within the price and revenue windows.", result.Target.Label())
		f.bullets = append(f.bullets, result.Assumptions...)
		return f
	}
	c := result.Candidates[0]
	f.answer = fmt.Sprintf("The closest competitor to %s is %s (score %.0f).", result.Target.Label(), c.Product.Label(), c.Score)
	for i, c := range result.Candidates {
		f.bullet("%d. %s: score %.0f; %s", i+1, c.Product.Label(), c.Score, strings.Join(c.Evidence, "; "))
		f.add(c.Product.Asin, fmt.Sprintf("%.0f", c.Score))
	}
	f.bullets = append(f.bullets, result.Assumptions...)
	return f
}

var sameBrandWords = []string{"same brand", "including our", "include our", "own products", "our own"}

func includeSameBrand(text string) bool {
	norm := schema.NormalizeText(text)
	return slices.ContainsFunc(sameBrandWords, func(w string) bool { return strings.Contains(norm, w) })
}

func productDetail(a *analysis) facts {
	products := a.res.MatchedProducts
	if len(products) >= 2 {
		return productComparison(products[0], products[1])
	}
	p := products[0]
	f := facts{confidence: highConfidence, focus: p.Label()}
	f.answer = fmt.Sprintf("%s sold %s units for %s in revenue at %s, ranking #%d by revenue.",
		p.Label(), schema.FormatCount(p.Units), schema.FormatMoney(p.Revenue), schema.FormatMoney(p.Price), p.RevenueRank)
	f.add("Revenue", schema.FormatMoney(p.Revenue))
	f.add("Units", schema.FormatCount(p.Units))
	f.add("Price", schema.FormatMoney(p.Price))
	f.add("Revenue rank", fmt.Sprintf("%d", p.RevenueRank))
	if p.Type != "" {
		f.bullet("Type: %s", p.Type)
	}
	if p.Rating > 0 {
		f.bullet("Rating %.1f from %s reviews", p.Rating, schema.FormatCount(float64(p.ReviewCount)))
		f.add("Rating", fmt.Sprintf("%.1f", p.Rating))
	}
	if p.RevenueMoM != nil {
		f.bullet("Revenue %s month over month", schema.FormatPct(*p.RevenueMoM))
		f.add("Revenue MoM", schema.FormatPct(*p.RevenueMoM))
	}
	if prev, ok := p.PreviousPoint(); ok && prev.RevenueRank > 0 {
		f.bullet("Revenue rank #%d in %s", prev.RevenueRank, prev.SnapshotDate)
	}
	return f
}

func productComparison(x, y *schema.IndexedProduct) facts {
	lead, trail := x, y
	if y.Revenue > x.Revenue {
		lead, trail = y, x
	}
	f := facts{confidence: defaultConfidence, focus: x.Label()}
	f.answer = fmt.Sprintf("%s out-earned %s, %s vs %s in revenue.",
		lead.Label(), trail.Label(), schema.FormatMoney(lead.Revenue), schema.FormatMoney(trail.Revenue))
	for _, p := range []*schema.IndexedProduct{x, y} {
		f.bullet("%s: %s revenue, %s units, %s, rating %.1f", p.Label(),
			schema.FormatMoney(p.Revenue), schema.FormatCount(p.Units), schema.FormatMoney(p.Price), p.Rating)
		f.add(p.Asin+" revenue", schema.FormatMoney(p.Revenue))
	}
	f.add("Similarity", fmt.Sprintf("%.2f", algo.RatioSimilarity(x.Price, y.Price)))
	return f
}

func proactiveSignals(a *analysis) facts {
	signals := a.signals()
	if len(signals) == 0 {
		return facts{
			answer:     fmt.Sprintf("Nothing stands out in %s for %s.", a.category(), a.date()),
			confidence: partialConfidence + 0.1,
			focus:      a.category(),
		}
	}
	f := facts{confidence: defaultConfidence, focus: a.category()}
	f.answer = fmt.Sprintf("%d signals stand out in %s for %s; the strongest is %s.", len(signals), a.category(), a.date(), signals[0].Title)
	for _, s := range signals {
		f.bullet("[%s] %s: %s", s.Severity, s.Title, s.Summary)
		f.add(s.Title, string(s.Severity))
	}
	return f
}

func (a *analysis) signals() []schema.ProactiveSuggestion {
	return algo.BuildSignals(algo.CategoryDataFrom(a.snap.Tables, a.snap.Index), algo.TrendFrom(a.snap.Tables, a.date()))
}

func general(a *analysis) facts {
	f := facts{confidence: generalConfidence, focus: a.category()}
	total := a.categoryTotal(schema.RevenueMetric)
	products := a.snap.Index.Products()
	f.answer = fmt.Sprintf("I can answer questions about the %s category for %s: %d products with %s in revenue.",
		a.category(), a.date(), len(products), schema.FormatMoney(total))
	if stats := a.brandStats(); len(stats) > 0 {
		f.bullet("Leading brand: %s (%s share)", stats[0].Brand, schema.FormatShare(stats[0].RevenueShare))
	}
	if len(products) > 0 {
		f.bullet("Top product: %s", products[0].Label())
	}
	f.add("Category revenue", schema.FormatMoney(total))
	return f
}
