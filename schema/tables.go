package schema

import "slices"

// Table names in the registry.
const (
	ProductsMonthlyTable = "products_monthly"
	BrandsMonthlyTable   = "brands_monthly"
	TypeMixTable         = "type_mix"
	CategorySummaryTable = "category_summary"
	CategoryHistoryTable = "category_history"
	BrandHistoryTable    = "brand_history"
	ProductHistoryTable  = "product_history"
	FeaturePremiumsTable = "feature_premiums"
)

// Column is one declared column of a table.
type Column struct {
	Name        string     `json:"name"`
	Type        ColumnType `json:"type"`
	Description string     `json:"description"`
}

// TableSchema is the fixed schema of a registry table.
type TableSchema struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     []Column `json:"columns"`
}

// TableInfo is a registry table with its row count in one snapshot.
type TableInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RowCount    int    `json:"rowCount"`
}

// HasColumn reports whether the table declares the column.
func (t TableSchema) HasColumn(name string) bool {
	return slices.ContainsFunc(t.Columns, func(c Column) bool { return c.Name == name })
}

// ColumnNames returns the declared column names in order.
func (t TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnType returns the declared type of a column, or StringColumn if unknown.
func (t TableSchema) ColumnType(name string) ColumnType {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Type
		}
	}
	return StringColumn
}

func str(name, desc string) Column { return Column{Name: name, Type: StringColumn, Description: desc} }
func num(name, desc string) Column { return Column{Name: name, Type: NumberColumn, Description: desc} }

var keyColumns = []Column{
	str("category_id", "Category identifier"),
	str("snapshot_date", "Snapshot month (YYYY-MM or YYYY-MM-DD)"),
}

func withKeys(cols ...Column) []Column {
	return append(slices.Clone(keyColumns), cols...)
}

// registry is declared once at process start and never mutated.
var registry = []TableSchema{
	{
		Name:        ProductsMonthlyTable,
		Description: "One row per product for the snapshot month.",
		Columns: withKeys(
			str("asin", "Product catalog identifier"),
			str("brand", "Brand name"),
			str("title", "Product title"),
			str("type", "Product type"),
			num("price", "Average selling price"),
			num("revenue", "Monthly revenue"),
			num("units", "Monthly units sold"),
			num("rating", "Average star rating"),
			num("review_count", "Number of reviews"),
			num("revenue_mom", "Revenue month-over-month change ratio"),
			num("revenue_yoy", "Revenue year-over-year change ratio"),
			num("revenue_rank", "Rank by revenue within the category"),
			num("units_rank", "Rank by units within the category"),
			num("revenue_share", "Share of category revenue"),
		),
	},
	{
		Name:        BrandsMonthlyTable,
		Description: "One row per brand for the snapshot month.",
		Columns: withKeys(
			str("brand", "Brand name"),
			num("revenue", "Monthly revenue"),
			num("units", "Monthly units sold"),
			num("revenue_share", "Share of category revenue"),
			num("units_share", "Share of category units"),
			num("revenue_mom", "Revenue month-over-month change ratio"),
			num("revenue_yoy", "Revenue year-over-year change ratio"),
			num("units_mom", "Units month-over-month change ratio"),
			num("revenue_rank", "Rank by revenue within the category"),
			num("units_rank", "Rank by units within the category"),
			num("product_count", "Number of listed products"),
			num("avg_price", "Revenue-weighted average price"),
			num("avg_rating", "Average star rating"),
		),
	},
	{
		Name:        TypeMixTable,
		Description: "Revenue and units split by product type.",
		Columns: withKeys(
			str("type", "Product type"),
			num("revenue", "Monthly revenue"),
			num("units", "Monthly units sold"),
			num("revenue_share", "Share of category revenue"),
			num("units_share", "Share of category units"),
			num("avg_price", "Average price"),
			num("product_count", "Number of listed products"),
		),
	},
	{
		Name:        CategorySummaryTable,
		Description: "Category totals for the snapshot month.",
		Columns: withKeys(
			num("revenue", "Monthly revenue"),
			num("units", "Monthly units sold"),
			num("avg_price", "Average price"),
			num("avg_rating", "Average star rating"),
			num("product_count", "Number of listed products"),
			num("brand_count", "Number of brands"),
			num("revenue_mom", "Revenue month-over-month change ratio"),
			num("revenue_yoy", "Revenue year-over-year change ratio"),
		),
	},
	{
		Name:        CategoryHistoryTable,
		Description: "Category totals for prior months.",
		Columns: withKeys(
			num("revenue", "Monthly revenue"),
			num("units", "Monthly units sold"),
			num("avg_price", "Average price"),
			num("avg_rating", "Average star rating"),
		),
	},
	{
		Name:        BrandHistoryTable,
		Description: "Brand metrics for prior months.",
		Columns: withKeys(
			str("brand", "Brand name"),
			num("revenue", "Monthly revenue"),
			num("units", "Monthly units sold"),
			num("revenue_share", "Share of category revenue"),
			num("revenue_rank", "Rank by revenue"),
			num("units_rank", "Rank by units"),
		),
	},
	{
		Name:        ProductHistoryTable,
		Description: "Product metrics for prior months.",
		Columns: withKeys(
			str("asin", "Product catalog identifier"),
			num("price", "Average selling price"),
			num("revenue", "Monthly revenue"),
			num("units", "Monthly units sold"),
			num("revenue_rank", "Rank by revenue"),
			num("units_rank", "Rank by units"),
		),
	},
	{
		Name:        FeaturePremiumsTable,
		Description: "Price premium associated with product features.",
		Columns: withKeys(
			str("feature", "Feature name"),
			num("premium_pct", "Price premium of products with the feature, as a ratio"),
			num("with_avg_price", "Average price with the feature"),
			num("without_avg_price", "Average price without the feature"),
			num("product_count", "Products with the feature"),
		),
	},
}

// LookupTable returns the schema of a registry table.
func LookupTable(name string) (TableSchema, bool) {
	for _, t := range registry {
		if t.Name == name {
			return t, true
		}
	}
	return TableSchema{}, false
}

// TableNames returns the registry table names in declaration order.
func TableNames() []string {
	names := make([]string, len(registry))
	for i, t := range registry {
		names[i] = t.Name
	}
	return names
}

// AllTables returns a copy of the registry.
func AllTables() []TableSchema {
	return slices.Clone(registry)
}
