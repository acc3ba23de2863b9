package resolve

import (
	"testing"

	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ownBrands = []string{"Innova", "BLCKTEC"}

func testIndex() *schema.ProductIndex {
	tables := schema.Tables{
		schema.ProductsMonthlyTable: {
			{"asin": "B0BLUE0001", "brand": "Innova", "title": "Blue Scanner Pro OBD2", "type": "handheld", "price": 99.0, "revenue": 90000.0},
			{"asin": "B0BLUE0002", "brand": "Autel", "title": "Blue Scanner Lite", "type": "handheld", "price": 79.0, "revenue": 60000.0},
			{"asin": "B0DONGLE01", "brand": "BLCKTEC", "title": "Bluetooth Dongle 430", "type": "dongle", "price": 49.0, "revenue": 120000.0},
		},
	}
	return schema.BuildIndex(tables,
		map[string]string{"innova tools": "Innova"},
		map[string][]string{"carscan": {"b0blue0001"}},
	)
}

func TestResolveAsin(t *testing.T) {
	res := Resolve("Who competes with b0dongle01?", testIndex(), Options{})
	require.NotEmpty(t, res.MatchedProducts)
	assert.Equal(t, "B0DONGLE01", res.MatchedProducts[0].Asin)
	assert.Equal(t, []string{"B0DONGLE01"}, res.Entities.Asins)
	assert.False(t, res.Ambiguous)
}

func TestResolveProductAlias(t *testing.T) {
	res := Resolve("closest competitor to the CarScan", testIndex(), Options{})
	require.Len(t, res.MatchedProducts, 1)
	assert.Equal(t, "B0BLUE0001", res.MatchedProducts[0].Asin)
}

func TestResolveBrands(t *testing.T) {
	ix := testIndex()

	res := Resolve("How is Innova Tools doing against autel?", ix, Options{})
	assert.Equal(t, []string{"Innova", "Autel"}, res.Entities.Brands)
	assert.Equal(t, schema.ExplicitBrandScope, res.Scope.Mode)
	assert.Equal(t, []string{"Innova", "Autel"}, res.Scope.Brands)
	assert.Contains(t, res.Scope.Justification, "Innova, Autel")

	plan := &schema.QueryPlan{Scope: schema.ScopeHint{Mode: schema.ExplicitBrandScope, Brands: []string{"BLCKTEC", "Nobody"}}}
	res = Resolve("how are they doing", ix, Options{Plan: plan})
	assert.Equal(t, []string{"BLCKTEC"}, res.Entities.Brands)
}

func TestResolveFuzzyTitle(t *testing.T) {
	res := Resolve("how is the bluetooth dongle selling", testIndex(), Options{})
	require.Len(t, res.MatchedProducts, 1)
	assert.Equal(t, "B0DONGLE01", res.MatchedProducts[0].Asin)

	// One overlapping token is not enough.
	res = Resolve("any dongle news", testIndex(), Options{})
	assert.Empty(t, res.MatchedProducts)
}

func TestResolveFuzzyTieBreaksByRevenue(t *testing.T) {
	res := Resolve("blue scanner sales", testIndex(), Options{})
	require.Len(t, res.MatchedProducts, 2)
	assert.Equal(t, "B0BLUE0001", res.MatchedProducts[0].Asin)
	assert.Equal(t, "B0BLUE0002", res.MatchedProducts[1].Asin)
}

func TestResolveAmbiguity(t *testing.T) {
	ix := testIndex()

	res := Resolve("compare the blue scanner to the other one", ix, Options{})
	assert.True(t, res.Ambiguous)
	assert.Contains(t, res.Clarification, "Which one do you mean?")
	assert.Contains(t, res.Clarification, "(B0BLUE0001)")
	assert.Contains(t, res.Clarification, "(B0BLUE0002)")
	assert.Empty(t, res.Scope.Mode)

	res = Resolve("is the blue scanner our top product?", ix, Options{OwnBrands: ownBrands})
	assert.Len(t, res.MatchedProducts, 2)
	assert.False(t, res.Ambiguous)
	assert.Empty(t, res.Clarification)
}

func TestResolveMergeCap(t *testing.T) {
	var rows []schema.Row
	for _, asin := range []string{"B0SCAN0001", "B0SCAN0002", "B0SCAN0003", "B0SCAN0004", "B0SCAN0005",
		"B0SCAN0006", "B0SCAN0007", "B0SCAN0008", "B0SCAN0009", "B0SCAN0010"} {
		rows = append(rows, schema.Row{"asin": asin, "brand": "Acme", "title": "Red Scanner", "revenue": 1000.0})
	}
	ix := schema.BuildIndex(schema.Tables{schema.ProductsMonthlyTable: rows}, nil, nil)

	res := Resolve("red scanner B0SCAN0010", ix, Options{})
	assert.Len(t, res.MatchedProducts, MaxMatches)
	assert.Equal(t, "B0SCAN0010", res.MatchedProducts[0].Asin, "ASIN matches come first")
}

func TestResolveScopePriority(t *testing.T) {
	ix := testIndex()

	res := Resolve("how are we doing", ix, Options{TargetBrand: "autel", OwnBrands: ownBrands})
	assert.Equal(t, schema.TargetBrandScope, res.Scope.Mode)
	assert.Equal(t, []string{"Autel"}, res.Scope.Brands)

	res = Resolve("how are we doing", ix, Options{OwnBrands: ownBrands})
	assert.Equal(t, schema.OwnBrandsScope, res.Scope.Mode)
	assert.Equal(t, ownBrands, res.Scope.Brands)

	res = Resolve("how are we doing", ix, Options{})
	assert.Equal(t, schema.AllBrandsScope, res.Scope.Mode)

	res = Resolve("how is the market doing", ix, Options{OwnBrands: ownBrands})
	assert.Equal(t, schema.AllBrandsScope, res.Scope.Mode)
	assert.NotEmpty(t, res.Scope.Justification)
}

func TestResolveNilIndex(t *testing.T) {
	res := Resolve("B0BLUE0001 vs innova", nil, Options{})
	assert.Empty(t, res.MatchedProducts)
	assert.Equal(t, schema.AllBrandsScope, res.Scope.Mode)
}
