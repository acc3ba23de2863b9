package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/catiq/core/nlq"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
)

// analysis is the read-only input of one analyzer run.
type analysis struct {
	snap *schema.Snapshot
	plan schema.QueryPlan
	res  schema.Resolution
	cfg  *contract.Config
}

// facts is what an analyzer found, before the response is assembled.
type facts struct {
	answer     string
	bullets    []string
	evidence   []schema.Evidence
	confidence float64
	focus      string // brand or product that follow-up questions refer to
}

func (f *facts) add(label, value string) {
	f.evidence = append(f.evidence, schema.Evidence{Label: label, Value: value})
}

func (f *facts) bullet(format string, args ...any) {
	f.bullets = append(f.bullets, fmt.Sprintf(format, args...))
}

// brandStat is one brand for the snapshot month.
type brandStat struct {
	Brand        string
	Revenue      float64
	Units        float64
	RevenueShare float64
	UnitsShare   float64
	RevenueMoM   *float64
	RevenueYoY   *float64
	AvgPrice     float64
	AvgRating    float64
	RevenueRank  int
	UnitsRank    int
}

func (a *analysis) category() string { return a.snap.Key.CategoryID }
func (a *analysis) date() string     { return a.snap.Key.Date }

func (a *analysis) rows(table string) []schema.Row { return a.snap.Tables[table] }

// summary returns the category_summary row, or an empty row.
func (a *analysis) summary() schema.Row {
	if rows := a.rows(schema.CategorySummaryTable); len(rows) > 0 {
		return rows[0]
	}
	return schema.Row{}
}

// categoryTotal returns the category revenue or units, from the summary when
// present and from products otherwise.
func (a *analysis) categoryTotal(metric schema.Metric) float64 {
	if v := num(a.summary()[string(metric)]); v > 0 {
		return v
	}
	var total float64
	for _, p := range a.snap.Index.Products() {
		total += productMetric(p, metric)
	}
	return total
}

// brandStats reads brands_monthly, or aggregates products when the table is
// missing. Stats are ordered by revenue.
func (a *analysis) brandStats() []brandStat {
	var stats []brandStat
	for _, row := range a.rows(schema.BrandsMonthlyTable) {
		b := strings.TrimSpace(schema.ToString(row["brand"]))
		if b == "" {
			continue
		}
		stats = append(stats, brandStat{
			Brand:        b,
			Revenue:      num(row["revenue"]),
			Units:        num(row["units"]),
			RevenueShare: num(row["revenue_share"]),
			UnitsShare:   num(row["units_share"]),
			RevenueMoM:   optFloat(row["revenue_mom"]),
			RevenueYoY:   optFloat(row["revenue_yoy"]),
			AvgPrice:     num(row["avg_price"]),
			AvgRating:    num(row["avg_rating"]),
			RevenueRank:  int(num(row["revenue_rank"])),
			UnitsRank:    int(num(row["units_rank"])),
		})
	}
	if len(stats) == 0 {
		stats = a.aggregateBrands()
	}
	slices.SortStableFunc(stats, func(x, y brandStat) int {
		return cmp.Or(cmp.Compare(y.Revenue, x.Revenue), strings.Compare(x.Brand, y.Brand))
	})
	return stats
}

func (a *analysis) aggregateBrands() []brandStat {
	byBrand := map[string]*brandStat{}
	ratings := map[string][]float64{}
	var order []string
	var revenue, units float64
	for _, p := range a.snap.Index.Products() {
		if p.Brand == "" {
			continue
		}
		s, ok := byBrand[p.Brand]
		if !ok {
			s = &brandStat{Brand: p.Brand}
			byBrand[p.Brand] = s
			order = append(order, p.Brand)
		}
		s.Revenue += p.Revenue
		s.Units += p.Units
		revenue += p.Revenue
		units += p.Units
		if p.Rating > 0 {
			ratings[p.Brand] = append(ratings[p.Brand], p.Rating)
		}
	}
	stats := make([]brandStat, 0, len(order))
	for _, b := range order {
		s := byBrand[b]
		if revenue > 0 {
			s.RevenueShare = s.Revenue / revenue
		}
		if units > 0 {
			s.UnitsShare = s.Units / units
		}
		if s.Units > 0 {
			s.AvgPrice = s.Revenue / s.Units
		}
		if r := ratings[b]; len(r) > 0 {
			s.AvgRating = mean(r)
		}
		stats = append(stats, *s)
	}
	return stats
}

// scopedBrands returns the brands the resolution narrowed the question to.
// Nil means every brand.
func (a *analysis) scopedBrands() []string {
	if a.res.Scope.Mode == schema.AllBrandsScope || a.res.Scope.Mode == "" {
		return nil
	}
	return a.res.Scope.Brands
}

func (a *analysis) inScope(brand string) bool {
	brands := a.scopedBrands()
	if len(brands) == 0 {
		return true
	}
	return slices.ContainsFunc(brands, func(b string) bool { return strings.EqualFold(b, brand) })
}

// scopedProducts returns products inside the brand and type scope, by revenue.
func (a *analysis) scopedProducts() []*schema.IndexedProduct {
	var out []*schema.IndexedProduct
	for _, p := range a.snap.Index.Products() {
		if !a.inScope(p.Brand) {
			continue
		}
		if a.plan.TypeScope != "" && !strings.Contains(schema.NormalizeText(p.Type), a.plan.TypeScope) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// productRow returns the products_monthly row of an ASIN.
func (a *analysis) productRow(asin string) schema.Row {
	for _, row := range a.rows(schema.ProductsMonthlyTable) {
		if schema.NormalizeAsin(schema.ToString(row["asin"])) == asin {
			return row
		}
	}
	return nil
}

func (a *analysis) scopeNote() string {
	if brands := a.scopedBrands(); len(brands) > 0 {
		return " for " + strings.Join(brands, ", ")
	}
	return ""
}

func productMetric(p *schema.IndexedProduct, metric schema.Metric) float64 {
	if metric == schema.UnitsMetric {
		return p.Units
	}
	return p.Revenue
}

func brandMetric(s brandStat, metric schema.Metric) float64 {
	if metric == schema.UnitsMetric {
		return s.Units
	}
	return s.Revenue
}

func brandShare(s brandStat, metric schema.Metric) float64 {
	if metric == schema.UnitsMetric {
		return s.UnitsShare
	}
	return s.RevenueShare
}

// formatMetric renders revenue as money and units as a count.
func formatMetric(v float64, metric schema.Metric) string {
	if metric == schema.UnitsMetric {
		return schema.FormatCount(v) + " units"
	}
	return schema.FormatMoney(v)
}

func num(v any) float64 {
	f, _ := schema.ToFloat(v)
	return f
}

func optFloat(v any) *float64 {
	if f, ok := schema.ToFloat(v); ok {
		return &f
	}
	return nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func limitOf(plan schema.QueryPlan) int {
	if plan.Limit <= 0 {
		return nlq.DefaultLimit
	}
	return plan.Limit
}
