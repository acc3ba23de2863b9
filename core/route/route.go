// Package route selects the analyzer that answers a parsed question.
package route

import (
	"regexp"

	"github.com/huangsam/catiq/schema"
)

// NeedProductQuestion is asked when an analyzer needs a product and none matched.
const NeedProductQuestion = "Which product should I use? Mention an ASIN or the product name."

// PhraseRule routes on specific wording before the intent map is consulted.
type PhraseRule struct {
	Name     string
	Analyzer schema.Analyzer
	Match    func(text string, plan schema.QueryPlan, res schema.Resolution) bool
}

func phrase(expr string) func(string, schema.QueryPlan, schema.Resolution) bool {
	re := regexp.MustCompile(`\b(?:` + expr + `)\b`)
	return func(text string, _ schema.QueryPlan, _ schema.Resolution) bool {
		return re.MatchString(text)
	}
}

// PhraseRules is evaluated top to bottom and the first match wins.
var PhraseRules = []PhraseRule{
	{"rank_mover_phrase", schema.RankMoversAnalyzer, phrase(`rank movers?|rank changes?|moved up|moved down|climbed|biggest movers?`)},
	{"competitor_phrase", schema.ClosestCompetitorsAnalyzer, phrase(`closest competitors?|competes with|compete with|competing with|similar to`)},
	{"signal_phrase", schema.ProactiveSignalsAnalyzer, phrase(`what should (?:i|we) know|anything unusual|red flags?|proactive`)},
	{"share_phrase", schema.MarketShareAnalyzer, phrase(`market share|share of (?:the )?market|revenue share|units? share`)},
	{"mix_phrase", schema.TypeMixAnalyzer, phrase(`type mix|product mix|category mix`)},
	{"product_comparison", schema.ProductDetailAnalyzer, func(_ string, plan schema.QueryPlan, res schema.Resolution) bool {
		return plan.Intent == schema.BrandComparisonIntent && len(res.MatchedProducts) >= 2 && len(res.Entities.Brands) == 0
	}},
	{"single_product_lookup", schema.ProductDetailAnalyzer, func(_ string, plan schema.QueryPlan, res schema.Resolution) bool {
		return len(res.MatchedProducts) == 1 &&
			(plan.Intent == schema.GeneralIntent || plan.Intent == schema.PerformanceSummaryIntent)
	}},
}

// IntentAnalyzers maps intents to analyzers in evaluation order.
var IntentAnalyzers = []struct {
	Intent   schema.Intent
	Analyzer schema.Analyzer
}{
	{schema.RankMoversIntent, schema.RankMoversAnalyzer},
	{schema.ClosestCompetitorsIntent, schema.ClosestCompetitorsAnalyzer},
	{schema.ProactiveSignalsIntent, schema.ProactiveSignalsAnalyzer},
	{schema.BrandComparisonIntent, schema.BrandComparisonAnalyzer},
	{schema.PriceAnalysisIntent, schema.PriceAnalysisAnalyzer},
	{schema.TypeMixIntent, schema.TypeMixAnalyzer},
	{schema.MarketShareIntent, schema.MarketShareAnalyzer},
	{schema.HistoricalTrendIntent, schema.HistoricalTrendAnalyzer},
	{schema.FastestGrowthIntent, schema.FastestGrowthAnalyzer},
	{schema.BiggestDeclinersIntent, schema.BiggestDeclinersAnalyzer},
	{schema.TopProductsIntent, schema.TopProductsAnalyzer},
	{schema.TopBrandsIntent, schema.TopBrandsAnalyzer},
	{schema.ProductDetailIntent, schema.ProductDetailAnalyzer},
	{schema.PerformanceSummaryIntent, schema.PerformanceSummaryAnalyzer},
}

// RequiresProduct reports whether an analyzer cannot run without a matched product.
func RequiresProduct(a schema.Analyzer) bool {
	return a == schema.ClosestCompetitorsAnalyzer || a == schema.ProductDetailAnalyzer
}

// Route picks one analyzer, or a clarification question when the question
// is ambiguous or lacks a product the analyzer needs.
func Route(plan schema.QueryPlan, res schema.Resolution) schema.Route {
	if res.Ambiguous {
		return schema.Route{Clarification: res.Clarification, Rule: "ambiguous_reference"}
	}

	r := pick(plan, res)
	if RequiresProduct(r.Analyzer) && len(res.MatchedProducts) == 0 {
		return schema.Route{Clarification: NeedProductQuestion, Rule: r.Rule + ":missing_product"}
	}
	return r
}

func pick(plan schema.QueryPlan, res schema.Resolution) schema.Route {
	text := schema.NormalizeText(plan.Text)
	for _, rule := range PhraseRules {
		if rule.Match(text, plan, res) {
			return schema.Route{Analyzer: rule.Analyzer, Rule: rule.Name}
		}
	}
	for _, m := range IntentAnalyzers {
		if m.Intent == plan.Intent {
			return schema.Route{Analyzer: m.Analyzer, Rule: "intent:" + string(m.Intent)}
		}
	}
	return schema.Route{Analyzer: schema.GeneralAnalyzer, Rule: "fallback"}
}
