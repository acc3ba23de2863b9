package nlq

import (
	"regexp"
	"strings"

	"github.com/huangsam/catiq/schema"
)

// matcher reports whether normalized text satisfies a rule.
type matcher func(text string) bool

// words builds a matcher for any of the given alternatives on word boundaries.
func words(alternatives ...string) matcher {
	re := regexp.MustCompile(`\b(?:` + strings.Join(alternatives, "|") + `)\b`)
	return re.MatchString
}

func allOf(ms ...matcher) matcher {
	return func(text string) bool {
		for _, m := range ms {
			if !m(text) {
				return false
			}
		}
		return true
	}
}

func anyOf(ms ...matcher) matcher {
	return func(text string) bool {
		for _, m := range ms {
			if m(text) {
				return true
			}
		}
		return false
	}
}

// IntentRule maps a text pattern to an intent.
type IntentRule struct {
	Intent schema.Intent
	Match  matcher
}

var (
	productNouns = words(`products?`, `items?`, `skus?`, `asins?`, `models?`, `listings?`)
	brandNouns   = words(`brands?`, `companies`, `company`, `players?`, `manufacturers?`, `makers?`)
	leaderWords  = words(`top`, `best`, `leading`, `highest`, `biggest`, `largest`, `number one`, `best selling`, `most popular`, `winning`)
)

// IntentRules is the ordered intent ladder. The first matching rule wins, so
// multi-clause patterns sit above the single-keyword ones they overlap with.
var IntentRules = []IntentRule{
	{schema.RankMoversIntent, allOf(
		words(`ranks?`, `ranking`, `rankings`, `ranked`),
		words(`movers?`, `moved`, `moving`, `climb\w*`, `jump\w*`, `gain\w*`, `drop\w*`, `fell`, `fall\w*`, `changes?`, `changed`, `shift\w*`, `improv\w*`),
	)},
	{schema.ClosestCompetitorsIntent, words(
		`competitors?`, `competes?`, `competing`, `closest`, `rivals?`, `alternatives?`,
		`similar to`, `similar products?`, `goes up against`, `go up against`,
	)},
	{schema.ProactiveSignalsIntent, words(
		`signals?`, `anomal\w*`, `opportunit\w*`, `risks?`, `insights?`, `alerts?`, `red flags?`,
		`watch out`, `what should (?:i|we) know`, `anything unusual`, `surpris\w*`, `proactive`,
	)},
	{schema.BrandComparisonIntent, words(`compare`, `comparison`, `compared`, `comparing`, `vs`, `versus`, `head to head`, `stack up`)},
	{schema.PriceAnalysisIntent, words(`prices?`, `pricing`, `priced`, `expensive`, `cheap\w*`, `asp`, `premiums?`, `discount\w*`, `price points?`)},
	{schema.TypeMixIntent, words(`type mix`, `product mix`, `category mix`, `mix`, `by type`, `per type`, `segments?`, `segmentation`)},
	{schema.MarketShareIntent, words(`shares?`, `dominan\w*`, `dominat\w*`, `concentrat\w*`)},
	{schema.HistoricalTrendIntent, words(
		`trends?`, `trending`, `history`, `historical\w*`, `over time`, `trajectory`, `month by month`,
		`(?:last|past) \d+ months`, `over the (?:last|past) (?:year|quarter)`,
	)},
	{schema.FastestGrowthIntent, words(`fastest`, `growing`, `growth`, `grew`, `grow`, `increas\w*`, `surg\w*`, `accelerat\w*`, `rising`, `risers?`)},
	{schema.BiggestDeclinersIntent, words(`declin\w*`, `decreas\w*`, `drop\w*`, `fell`, `falling`, `shrink\w*`, `lost`, `losing`, `losers?`, `worst`, `slump\w*`)},
	{schema.TopProductsIntent, allOf(leaderWords, productNouns)},
	{schema.TopBrandsIntent, anyOf(
		allOf(leaderWords, brandNouns),
		words(`who leads`, `who is leading`, `who s leading`, `market leaders?`, `leaders?`),
	)},
	{schema.ProductDetailIntent, anyOf(
		words(`tell me about`, `details?`, `specs?`, `look up`, `lookup`, `info on`, `information on`, `how is the`),
		hasAsinToken,
	)},
	{schema.PerformanceSummaryIntent, words(
		`how did (?:we|i|our \w+|\w+) (?:do|perform|go)`, `how are we doing`, `how is our`,
		`performance`, `perform\w*`, `summary`, `summari\w*`, `overview`, `recap`, `scorecard`, `kpis?`,
		`this month`, `last month`,
	)},
}

// asinToken matches a 10-character alphanumeric token that contains a digit.
var asinToken = regexp.MustCompile(`\b[a-z0-9]{10}\b`)

func hasAsinToken(text string) bool {
	for _, m := range asinToken.FindAllString(text, -1) {
		if strings.ContainsAny(m, "0123456789") && strings.ContainsAny(m, "abcdefghijklmnopqrstuvwxyz") {
			return true
		}
	}
	return false
}

// DetectIntent returns the first matching intent for normalized text.
func DetectIntent(text string) schema.Intent {
	for _, r := range IntentRules {
		if r.Match(text) {
			return r.Intent
		}
	}
	return schema.GeneralIntent
}

var (
	unitsMetric = words(`units?`, `volume`, `sold`, `quantity`, `unit sales`)
	overallRank = words(`overall rank\w*`, `combined rank\w*`)
	unitsRank   = words(`units? rank\w*`, `volume rank\w*`)
	revenueRank = words(`revenue rank\w*`, `sales rank\w*`)
	ownWords    = words(`we`, `us`, `our`, `ours`, `ourselves`)

	momWords = words(`mom`, `month over month`, `monthly`, `vs last month`, `versus last month`, `last month`, `prior month`, `previous month`)
	yoyWords = words(`yoy`, `year over year`, `annual\w*`, `vs last year`, `versus last year`, `last year`, `prior year`)

	topLimit  = regexp.MustCompile(`\b(?:top|best|bottom|worst|first|biggest|largest)\s+(\d{1,3})\b`)
	nounLimit = regexp.MustCompile(`\b(\d{1,3})\s+(?:brands?|products?|items?|movers?|competitors?|decliners?|risers?|types?)\b`)
)

// windowRules are ordered so longer spans win when several are mentioned.
var windowRules = []struct {
	window schema.HistoricalWindow
	match  matcher
}{
	{schema.WindowAll, words(`all time`, `ever`, `full history`, `all history`, `since launch`, `since the start`)},
	{schema.Window12M, words(`(?:last|past|previous) (?:12|twelve) months`, `(?:last|past|previous) year`, `12 months`, `12m`, `year over year`, `yoy`)},
	{schema.Window6M, words(`(?:last|past|previous) (?:6|six) months`, `6 months`, `six months`, `half year`, `6m`)},
	{schema.Window3M, words(`(?:last|past|previous) (?:3|three) months`, `3 months`, `three months`, `quarter\w*`, `3m`, `90 days`)},
	{schema.Window1M, words(`last month`, `past month`, `1 month`, `one month`, `30 days`, `1m`)},
}

// levelRules pick the aggregation level from wording.
var levelRules = []struct {
	level schema.TargetLevel
	match matcher
}{
	{schema.AsinLevel, anyOf(productNouns, hasAsinToken)},
	{schema.BrandLevel, brandNouns},
	{schema.TypeLevel, words(`types?`, `segments?`, `mix`, `subcategor\w*`)},
	{schema.MarketLevel, words(`market`, `category`, `overall`, `total`)},
}

// defaultLevels applies when the wording names no level.
var defaultLevels = map[schema.Intent]schema.TargetLevel{
	schema.TopProductsIntent:        schema.AsinLevel,
	schema.ProductDetailIntent:      schema.AsinLevel,
	schema.ClosestCompetitorsIntent: schema.AsinLevel,
	schema.RankMoversIntent:         schema.AsinLevel,
	schema.TypeMixIntent:            schema.TypeLevel,
	schema.PerformanceSummaryIntent: schema.MarketLevel,
	schema.HistoricalTrendIntent:    schema.MarketLevel,
	schema.ProactiveSignalsIntent:   schema.MarketLevel,
	schema.GeneralIntent:            schema.MarketLevel,
}
