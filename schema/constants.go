package schema

// Custom string types for type safety.
type (
	// Intent is the question class detected by the parser.
	Intent string

	// Analyzer is the deterministic computation selected by the router.
	Analyzer string

	// ScopeMode is the brand scope a question is evaluated against.
	ScopeMode string

	// Metric is the ranking metric of a question.
	Metric string

	// RankTarget is the rank column used by rank-based analyzers.
	RankTarget string

	// HistoricalWindow is the lookback used by trend analyzers.
	HistoricalWindow string

	// GrowthWindow is the comparison period for growth analyzers.
	GrowthWindow string

	// TargetLevel is the aggregation level a question is about.
	TargetLevel string

	// Severity is the severity of a proactive suggestion.
	Severity string

	// GenerationMode controls when the external model is involved.
	GenerationMode string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// ColumnType is the declared type of a table column.
	ColumnType string
)

// All intents, in the order the parser evaluates them.
const (
	RankMoversIntent         Intent = "rank_movers"
	ClosestCompetitorsIntent Intent = "closest_competitors"
	ProactiveSignalsIntent   Intent = "proactive_signals"
	BrandComparisonIntent    Intent = "brand_comparison"
	PriceAnalysisIntent      Intent = "price_analysis"
	TypeMixIntent            Intent = "type_mix"
	MarketShareIntent        Intent = "market_share"
	HistoricalTrendIntent    Intent = "historical_trend"
	FastestGrowthIntent      Intent = "fastest_growth"
	BiggestDeclinersIntent   Intent = "biggest_decliners"
	TopProductsIntent        Intent = "top_products"
	TopBrandsIntent          Intent = "top_brands"
	ProductDetailIntent      Intent = "product_detail"
	PerformanceSummaryIntent Intent = "performance_summary"
	GeneralIntent            Intent = "general" // fallback

	ClarificationIntent Intent = "clarification"
	InvalidIntent       Intent = "invalid"
)

// All analyzers.
const (
	PerformanceSummaryAnalyzer Analyzer = "performance_summary"
	TopBrandsAnalyzer          Analyzer = "top_brands"
	TopProductsAnalyzer        Analyzer = "top_products"
	FastestGrowthAnalyzer      Analyzer = "fastest_growth"
	BiggestDeclinersAnalyzer   Analyzer = "biggest_decliners"
	RankMoversAnalyzer         Analyzer = "rank_movers"
	MarketShareAnalyzer        Analyzer = "market_share"
	BrandComparisonAnalyzer    Analyzer = "brand_comparison"
	PriceAnalysisAnalyzer      Analyzer = "price_analysis"
	TypeMixAnalyzer            Analyzer = "type_mix"
	HistoricalTrendAnalyzer    Analyzer = "historical_trend"
	ClosestCompetitorsAnalyzer Analyzer = "closest_competitors"
	ProductDetailAnalyzer      Analyzer = "product_detail"
	ProactiveSignalsAnalyzer   Analyzer = "proactive_signals"
	GeneralAnalyzer            Analyzer = "general"
)

// Scope modes in priority order.
const (
	ExplicitBrandScope ScopeMode = "explicit_brand"
	TargetBrandScope   ScopeMode = "target_brand"
	OwnBrandsScope     ScopeMode = "own_brands"
	AllBrandsScope     ScopeMode = "all_brands"
)

// Ranking metrics.
const (
	RevenueMetric Metric = "revenue" // default
	UnitsMetric   Metric = "units"
)

// Rank targets.
const (
	RevenueRank RankTarget = "revenue_rank"
	UnitsRank   RankTarget = "units_rank"
	OverallRank RankTarget = "overall_rank"
)

// Historical windows.
const (
	Window1M  HistoricalWindow = "1m"
	Window3M  HistoricalWindow = "3m"
	Window6M  HistoricalWindow = "6m"
	Window12M HistoricalWindow = "12m" // default
	WindowAll HistoricalWindow = "all"
)

// Growth windows.
const (
	GrowthMoM  GrowthWindow = "mom" // default
	GrowthYoY  GrowthWindow = "yoy"
	GrowthBoth GrowthWindow = "both"
)

// Target levels.
const (
	BrandLevel  TargetLevel = "brand"
	TypeLevel   TargetLevel = "type"
	AsinLevel   TargetLevel = "asin"
	MarketLevel TargetLevel = "market"
)

// Suggestion severities.
const (
	InfoSeverity  Severity = "info"
	WatchSeverity Severity = "watch"
	RiskSeverity  Severity = "risk"
)

// Generation modes.
const (
	DeterministicMode GenerationMode = "deterministic"
	HybridMode        GenerationMode = "hybrid" // default
	GenerativeMode    GenerationMode = "generative"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // snapshot cache only
	NoneBackend       DatabaseBackend = "none"
)

// Column types.
const (
	StringColumn ColumnType = "string"
	NumberColumn ColumnType = "number"
)

// SnapshotVersion is bumped whenever the persisted snapshot encoding changes.
const SnapshotVersion = 1

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidGenerationModes lists all valid generation modes.
var ValidGenerationModes = map[GenerationMode]struct{}{
	DeterministicMode: {},
	HybridMode:        {},
	GenerativeMode:    {},
}

// ValidCacheBackends lists all valid snapshot cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid answer history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
