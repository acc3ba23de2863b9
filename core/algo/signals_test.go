package algo

import (
	"testing"

	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(s []schema.ProactiveSuggestion) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.ID
	}
	return out
}

// TestPriceVolumeArbitrage tests the gap thresholds.
func TestPriceVolumeArbitrage(t *testing.T) {
	tests := []struct {
		name     string
		units    float64
		revenue  float64
		severity schema.Severity
		emitted  bool
	}{
		{"risk gap", 0.40, 0.20, schema.RiskSeverity, true},
		{"watch gap", 0.30, 0.20, schema.WatchSeverity, true},
		{"small gap", 0.25, 0.20, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := CategoryData{TypeMix: []TypeMixRow{
				{Type: "dongle", UnitsShare: tt.units, RevenueShare: tt.revenue},
				{Type: "handheld", UnitsShare: 0.5, RevenueShare: 0.52},
			}}
			out := BuildSignals(data, nil)
			if !tt.emitted {
				assert.Empty(t, out)
				return
			}
			require.Len(t, out, 1)
			assert.Equal(t, "price-volume-arbitrage", out[0].ID)
			assert.Equal(t, "Price-Volume Arbitrage", out[0].Title)
			assert.Equal(t, tt.severity, out[0].Severity)
			assert.Contains(t, out[0].Summary, "dongle")
		})
	}
}

// TestLeaderVulnerability tests fragmented and concentrated markets.
func TestLeaderVulnerability(t *testing.T) {
	out := BuildSignals(CategoryData{Brands: []BrandRow{
		{Brand: "A", RevenueShare: 0.2}, {Brand: "B", RevenueShare: 0.15}, {Brand: "C", RevenueShare: 0.1}, {Brand: "D", RevenueShare: 0.05},
	}}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, schema.WatchSeverity, out[0].Severity)
	assert.Contains(t, out[0].Summary, "45.0%")

	out = BuildSignals(CategoryData{Brands: []BrandRow{{Brand: "A", RevenueShare: 0.7}}}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, schema.InfoSeverity, out[0].Severity)
	assert.Equal(t, 0.5, out[0].Confidence)
}

// TestClusterGap tests the fewest-brands cluster selection.
func TestClusterGap(t *testing.T) {
	data := CategoryData{Products: []*schema.IndexedProduct{
		{Asin: "P1", Brand: "A", Type: "dongle", Price: 50, Revenue: 100},
		{Asin: "P2", Brand: "B", Type: "dongle", Price: 60, Revenue: 100},
		{Asin: "P3", Brand: "A", Type: "handheld", Price: 150, Revenue: 300},
		{Asin: "P4", Brand: "C", Type: "handheld", Price: 450, Revenue: 50},
	}}
	out := BuildSignals(data, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "cluster-gap", out[0].ID)
	assert.Contains(t, out[0].Summary, "handheld priced $75-$199")
	assert.Contains(t, out[0].Summary, "only 1 brand competing")
}

func TestPriceBucket(t *testing.T) {
	assert.Equal(t, "under $75", PriceBucket(74.99))
	assert.Equal(t, "$75-$199", PriceBucket(75))
	assert.Equal(t, "$75-$199", PriceBucket(199.99))
	assert.Equal(t, "$200-$399", PriceBucket(200))
	assert.Equal(t, "$400+", PriceBucket(400))
}

// TestTrendReversal tests the change thresholds.
func TestTrendReversal(t *testing.T) {
	assert.Empty(t, BuildSignals(CategoryData{}, &Trend{PreviousDate: "2025-05", PreviousRevenue: 100, CurrentRevenue: 110}))

	out := BuildSignals(CategoryData{}, &Trend{PreviousDate: "2025-05", PreviousRevenue: 100, CurrentRevenue: 85})
	require.Len(t, out, 1)
	assert.Equal(t, schema.WatchSeverity, out[0].Severity)
	assert.Contains(t, out[0].Summary, "fell 15.0% versus 2025-05")

	out = BuildSignals(CategoryData{}, &Trend{PreviousDate: "2025-05", PreviousRevenue: 100, CurrentRevenue: 125})
	require.Len(t, out, 1)
	assert.Equal(t, schema.RiskSeverity, out[0].Severity)
}

// TestBuildSignalsTopThree tests ranking by internal score and the cap.
func TestBuildSignalsTopThree(t *testing.T) {
	data := CategoryData{
		TypeMix: []TypeMixRow{{Type: "dongle", UnitsShare: 0.4, RevenueShare: 0.2}},
		Brands: []BrandRow{
			{Brand: "A", RevenueShare: 0.2, AvgPrice: 150, AvgRating: 3.9},
			{Brand: "B", RevenueShare: 0.15, AvgPrice: 90, AvgRating: 4.4},
			{Brand: "C", RevenueShare: 0.1, AvgPrice: 80, AvgRating: 4.3},
		},
		Features:  []FeatureRow{{Feature: "bluetooth", PremiumPct: 0.35, WithAvgPrice: 120, WithoutAvgPrice: 89, ProductCount: 10}},
		AvgPrice:  100,
		AvgRating: 4.2,
	}
	trend := &Trend{PreviousDate: "2025-05", PreviousRevenue: 100000, CurrentRevenue: 125000}

	out := BuildSignals(data, trend)
	assert.Equal(t, []string{"price-volume-arbitrage", "price-quality-mismatch", "trend-reversal"}, ids(out))
	for _, s := range out {
		assert.GreaterOrEqual(t, s.Confidence, 0.0)
		assert.LessOrEqual(t, s.Confidence, 1.0)
		assert.NotEmpty(t, s.Summary)
	}
	assert.Contains(t, out[1].Summary, "A is priced 50.0% above")
}

// TestCategoryDataFrom tests normalization of snapshot tables.
func TestCategoryDataFrom(t *testing.T) {
	tables := schema.Tables{
		schema.ProductsMonthlyTable: {
			{"asin": "P1", "brand": "A", "price": 50.0, "rating": 4.0, "revenue": 10.0},
			{"asin": "P2", "brand": "B", "price": 150.0, "rating": 0.0, "revenue": 5.0},
		},
		schema.TypeMixTable:         {{"type": "dongle", "revenue_share": 0.2, "units_share": "0.4"}},
		schema.FeaturePremiumsTable: {{"feature": "wifi", "premium_pct": 0.1, "product_count": 4.0}},
	}
	ix := schema.BuildIndex(tables, nil, nil)
	data := CategoryDataFrom(tables, ix)
	assert.Len(t, data.Products, 2)
	assert.InDelta(t, 0.4, data.TypeMix[0].UnitsShare, 1e-9)
	assert.Equal(t, 4, data.Features[0].ProductCount)
	assert.InDelta(t, 100.0, data.AvgPrice, 1e-9)
	assert.InDelta(t, 4.0, data.AvgRating, 1e-9)
}

// TestTrendFrom tests previous-snapshot selection from category history.
func TestTrendFrom(t *testing.T) {
	tables := schema.Tables{
		schema.CategorySummaryTable: {{"snapshot_date": "2025-06", "revenue": 120000.0}},
		schema.CategoryHistoryTable: {
			{"snapshot_date": "2025-05", "revenue": 100000.0},
			{"snapshot_date": "2025-04", "revenue": 90000.0},
			{"snapshot_date": "2025-06", "revenue": 120000.0},
		},
	}
	trend := TrendFrom(tables, "2025-06")
	require.NotNil(t, trend)
	assert.Equal(t, "2025-05", trend.PreviousDate)
	assert.Equal(t, 100000.0, trend.PreviousRevenue)
	assert.Equal(t, 120000.0, trend.CurrentRevenue)

	assert.Nil(t, TrendFrom(tables, "2025-04"))
	assert.Nil(t, TrendFrom(schema.Tables{}, "2025-06"))
}
