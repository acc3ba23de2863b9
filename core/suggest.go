package core

import (
	"fmt"
	"strings"

	"github.com/huangsam/catiq/schema"
)

// maxSuggestions caps the follow-up questions of one response.
const maxSuggestions = 3

// followUps are templates per analyzer. %[1]s is the focus of the answer and
// %[2]s the category.
var followUps = map[schema.Analyzer][]string{
	schema.PerformanceSummaryAnalyzer: {
		"Who are the top brands in %[2]s?",
		"What should we know about %[2]s this month?",
		"How did %[1]s trend over the last 6 months?",
	},
	schema.TopBrandsAnalyzer: {
		"How concentrated is market share in %[2]s?",
		"Which brands grew fastest month over month?",
		"Compare %[1]s with the next largest brand.",
	},
	schema.TopProductsAnalyzer: {
		"Who are the closest competitors to %[1]s?",
		"Which products moved up the revenue ranking?",
		"What is the price range in %[2]s?",
	},
	schema.FastestGrowthAnalyzer: {
		"Which brands are declining in %[2]s?",
		"How did %[1]s perform this month?",
		"Which products climbed the revenue ranking?",
	},
	schema.BiggestDeclinersAnalyzer: {
		"Which brands grew fastest in %[2]s?",
		"How did %[1]s perform this month?",
		"What should we know about %[2]s this month?",
	},
	schema.RankMoversAnalyzer: {
		"Tell me about %[1]s.",
		"Who are the closest competitors to %[1]s?",
		"Which brands grew fastest month over month?",
	},
	schema.MarketShareAnalyzer: {
		"How did %[1]s perform this month?",
		"How is revenue split by product type?",
		"Which brands grew fastest month over month?",
	},
	schema.BrandComparisonAnalyzer: {
		"How concentrated is market share in %[2]s?",
		"How does %[1]s price compare with the category?",
		"How did %[1]s trend over the last 6 months?",
	},
	schema.PriceAnalysisAnalyzer: {
		"How is revenue split by product type?",
		"Which brands are priced above the category average?",
		"What should we know about %[2]s this month?",
	},
	schema.TypeMixAnalyzer: {
		"What are the top %[1]s products?",
		"What is the price range in %[2]s?",
		"What should we know about %[2]s this month?",
	},
	schema.HistoricalTrendAnalyzer: {
		"Which brands grew fastest month over month?",
		"Who are the top brands in %[2]s?",
		"What should we know about %[2]s this month?",
	},
	schema.ClosestCompetitorsAnalyzer: {
		"Tell me about %[1]s.",
		"How does pricing compare across %[2]s?",
		"Which products moved up the revenue ranking?",
	},
	schema.ProductDetailAnalyzer: {
		"Who are the closest competitors to %[1]s?",
		"What are the top products in %[2]s?",
		"Which products moved up the revenue ranking?",
	},
	schema.ProactiveSignalsAnalyzer: {
		"How concentrated is market share in %[2]s?",
		"How is revenue split by product type?",
		"How did %[2]s revenue trend over the last 6 months?",
	},
}

// SuggestedQuestions returns follow-up questions for an analyzer. The
// general analyzer falls back to the starter questions.
func SuggestedQuestions(analyzer schema.Analyzer, focus string, snap *schema.Snapshot) []string {
	templates, ok := followUps[analyzer]
	if !ok {
		return StarterQuestions(snap)
	}
	category := snap.Key.CategoryID
	if focus == "" {
		focus = category
	}
	out := make([]string, 0, maxSuggestions)
	for _, tmpl := range templates[:min(maxSuggestions, len(templates))] {
		out = append(out, fmt.Sprintf(tmpl, focus, category))
	}
	return out
}

// StarterQuestions returns the opening questions offered for a category,
// naming its leading brand and product when the snapshot has them.
func StarterQuestions(snap *schema.Snapshot) []string {
	category := snap.Key.CategoryID
	out := []string{
		fmt.Sprintf("Who are the top brands in %s?", category),
		fmt.Sprintf("What should we know about %s this month?", category),
	}
	products := snap.Index.Products()
	if len(products) > 0 {
		top := products[0]
		if top.Brand != "" {
			out = append(out, fmt.Sprintf("How did %s perform this month?", top.Brand))
		}
		out = append(out, fmt.Sprintf("Who are the closest competitors to %s?", top.Asin))
	}
	out = append(out,
		"How is revenue split by product type?",
		"Which products moved up the revenue ranking?",
	)
	return out
}

// clarificationQuestions offers one concrete question per ambiguous candidate.
func clarificationQuestions(res schema.Resolution, plan schema.QueryPlan) []string {
	var out []string
	for _, p := range res.MatchedProducts {
		if len(out) == maxSuggestions {
			break
		}
		q := strings.TrimSuffix(plan.Text, "?")
		out = append(out, fmt.Sprintf("%s (%s)?", q, p.Asin))
	}
	return out
}
