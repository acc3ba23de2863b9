package algo

import (
	"sort"

	"github.com/huangsam/catiq/schema"
)

// CategoryDataFrom normalizes snapshot tables for BuildSignals.
// Category averages come from category_summary when present, else from products.
func CategoryDataFrom(tables schema.Tables, ix *schema.ProductIndex) CategoryData {
	data := CategoryData{Products: ix.Products()}

	for _, row := range tables[schema.TypeMixTable] {
		data.TypeMix = append(data.TypeMix, TypeMixRow{
			Type:         schema.ToString(row["type"]),
			Revenue:      num(row["revenue"]),
			RevenueShare: num(row["revenue_share"]),
			UnitsShare:   num(row["units_share"]),
		})
	}
	for _, row := range tables[schema.BrandsMonthlyTable] {
		data.Brands = append(data.Brands, BrandRow{
			Brand:        schema.ToString(row["brand"]),
			Revenue:      num(row["revenue"]),
			RevenueShare: num(row["revenue_share"]),
			AvgPrice:     num(row["avg_price"]),
			AvgRating:    num(row["avg_rating"]),
		})
	}
	for _, row := range tables[schema.FeaturePremiumsTable] {
		data.Features = append(data.Features, FeatureRow{
			Feature:         schema.ToString(row["feature"]),
			PremiumPct:      num(row["premium_pct"]),
			WithAvgPrice:    num(row["with_avg_price"]),
			WithoutAvgPrice: num(row["without_avg_price"]),
			ProductCount:    int(num(row["product_count"])),
		})
	}

	if rows := tables[schema.CategorySummaryTable]; len(rows) > 0 {
		data.AvgPrice = num(rows[0]["avg_price"])
		data.AvgRating = num(rows[0]["avg_rating"])
	}
	if data.AvgPrice <= 0 || data.AvgRating <= 0 {
		var price, rating float64
		var priced, rated int
		for _, p := range data.Products {
			if p.Price > 0 {
				price += p.Price
				priced++
			}
			if p.Rating > 0 {
				rating += p.Rating
				rated++
			}
		}
		if data.AvgPrice <= 0 && priced > 0 {
			data.AvgPrice = price / float64(priced)
		}
		if data.AvgRating <= 0 && rated > 0 {
			data.AvgRating = rating / float64(rated)
		}
	}
	return data
}

// TrendFrom compares the current category revenue with the latest
// category_history row before snapshotDate. It returns nil without one.
func TrendFrom(tables schema.Tables, snapshotDate string) *Trend {
	var current float64
	if rows := tables[schema.CategorySummaryTable]; len(rows) > 0 {
		current = num(rows[0]["revenue"])
	}

	history := tables[schema.CategoryHistoryTable]
	dates := make([]int, 0, len(history))
	for i, row := range history {
		d := schema.ToString(row["snapshot_date"])
		if d == snapshotDate && current <= 0 {
			current = num(row["revenue"])
		}
		if d != "" && (snapshotDate == "" || d < snapshotDate) {
			dates = append(dates, i)
		}
	}
	if len(dates) == 0 || current <= 0 {
		return nil
	}
	sort.SliceStable(dates, func(a, b int) bool {
		return schema.ToString(history[dates[a]]["snapshot_date"]) < schema.ToString(history[dates[b]]["snapshot_date"])
	})
	prev := history[dates[len(dates)-1]]
	return &Trend{
		PreviousDate:    schema.ToString(prev["snapshot_date"]),
		PreviousRevenue: num(prev["revenue"]),
		CurrentRevenue:  current,
	}
}

func num(v any) float64 {
	f, _ := schema.ToFloat(v)
	return f
}
