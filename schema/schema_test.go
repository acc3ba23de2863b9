package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRegistry(t *testing.T) {
	t.Run("known tables", func(t *testing.T) {
		for _, name := range TableNames() {
			ts, ok := LookupTable(name)
			require.True(t, ok, name)
			assert.True(t, ts.HasColumn("category_id"), name)
			assert.True(t, ts.HasColumn("snapshot_date"), name)
		}
	})

	t.Run("unknown table", func(t *testing.T) {
		_, ok := LookupTable("users")
		assert.False(t, ok)
	})

	t.Run("column types", func(t *testing.T) {
		ts, _ := LookupTable(BrandsMonthlyTable)
		assert.Equal(t, NumberColumn, ts.ColumnType("revenue"))
		assert.Equal(t, StringColumn, ts.ColumnType("brand"))
		assert.False(t, ts.HasColumn("asin"))
	})

	t.Run("registry copy is detached", func(t *testing.T) {
		all := AllTables()
		all[0].Name = "mutated"
		_, ok := LookupTable(ProductsMonthlyTable)
		assert.True(t, ok)
	})
}

func TestBuildIndex(t *testing.T) {
	tables := Tables{
		ProductsMonthlyTable: {
			{"asin": "b0abc12345", "brand": "Innova", "title": "CarScan Pro", "type": "handheld", "price": 99.0, "revenue": 50000.0, "units": 500.0, "revenue_rank": 2.0, "revenue_mom": 0.25},
			{"asin": "B0XYZ98765", "brand": "Autel", "title": "MaxiCOM", "type": "tablet", "price": 399.0, "revenue": 90000.0, "units": 230.0, "revenue_rank": 1.0},
		},
		ProductHistoryTable: {
			{"asin": "B0ABC12345", "snapshot_date": "2025-05", "revenue_rank": 4.0},
			{"asin": "B0ABC12345", "snapshot_date": "2025-04", "revenue_rank": 6.0},
			{"asin": "UNKNOWN000", "snapshot_date": "2025-05", "revenue_rank": 1.0},
		},
	}
	ix := BuildIndex(tables, map[string]string{"innova tools": "Innova"}, map[string][]string{"Car Scan": {"b0abc12345"}})

	p, ok := ix.Product("b0abc12345")
	require.True(t, ok)
	assert.Equal(t, "B0ABC12345", p.Asin)
	require.NotNil(t, p.RevenueMoM)
	assert.InDelta(t, 0.25, *p.RevenueMoM, 1e-9)

	prev, ok := p.PreviousPoint()
	require.True(t, ok)
	assert.Equal(t, "2025-05", prev.SnapshotDate)
	assert.Equal(t, 4, prev.RevenueRank)

	autel, _ := ix.Product("B0XYZ98765")
	assert.Nil(t, autel.RevenueMoM)

	assert.Equal(t, "Innova", ix.BrandLookup["innova tools"])
	assert.Equal(t, []string{"B0ABC12345"}, ix.ProductAliasToAsins["car scan"])
	assert.Equal(t, []string{"Autel", "Innova"}, ix.Brands())
	assert.Equal(t, "B0XYZ98765", ix.Products()[0].Asin)
}

func TestHelpers(t *testing.T) {
	t.Run("to float", func(t *testing.T) {
		f, ok := ToFloat("$1,250.50")
		assert.True(t, ok)
		assert.InDelta(t, 1250.5, f, 1e-9)
		_, ok = ToFloat("Innova")
		assert.False(t, ok)
		_, ok = ToFloat(nil)
		assert.False(t, ok)
	})

	t.Run("coerce cell", func(t *testing.T) {
		assert.Equal(t, 12.0, CoerceCell(" 12 ", NumberColumn))
		assert.Nil(t, CoerceCell("", NumberColumn))
		assert.Nil(t, CoerceCell("n/a", NumberColumn))
		assert.Equal(t, "Innova", CoerceCell("Innova", StringColumn))
	})

	t.Run("formatting", func(t *testing.T) {
		assert.Equal(t, "$650,000", FormatMoney(650000))
		assert.Equal(t, "$99.50", FormatMoney(99.5))
		assert.Equal(t, "-1,200", FormatCount(-1200))
		assert.Equal(t, "+25.0%", FormatPct(0.25))
		assert.Equal(t, "12.5%", FormatShare(0.125))
	})

	t.Run("normalize", func(t *testing.T) {
		assert.Equal(t, "how did we do this month", NormalizeText("How did we do, this month?!"))
		assert.Equal(t, []string{"top", "5", "brands"}, Tokenize("Top-5 brands"))
	})
}
