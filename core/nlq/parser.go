// Package nlq turns free-text questions into query plans.
package nlq

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/catiq/schema"
)

// Limits for the number of ranked items a question may ask for.
const (
	DefaultLimit = 5
	MaxLimit     = 25
)

var (
	quotedPhrase = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
	brandMention = regexp.MustCompile(`\b[Bb]rands?\s+([A-Z][\w&'-]*(?:\s*(?:,|and|&)\s*[A-Z][\w&'-]*)*)`)
	brandSplit   = regexp.MustCompile(`\s*(?:,|\band\b|&)\s*`)
)

// Parser parses questions for one category. It has no mutable state.
type Parser struct {
	knownTypes []string
}

// NewParser creates a parser aware of the given product types.
// Longer types are tried first so "wireless dongle" beats "dongle".
func NewParser(knownTypes []string) *Parser {
	types := make([]string, 0, len(knownTypes))
	for _, t := range knownTypes {
		if n := schema.NormalizeText(t); n != "" && !slices.Contains(types, n) {
			types = append(types, n)
		}
	}
	slices.SortStableFunc(types, func(a, b string) int { return len(b) - len(a) })
	return &Parser{knownTypes: types}
}

// Parse always returns a plan with every optional field defaulted.
func (p *Parser) Parse(text, categoryID string) schema.QueryPlan {
	norm := schema.NormalizeText(text)
	plan := schema.QueryPlan{
		Intent:           DetectIntent(norm),
		CategoryID:       categoryID,
		Text:             strings.TrimSpace(text),
		Metric:           schema.RevenueMetric,
		HistoricalWindow: schema.Window12M,
		GrowthWindow:     schema.GrowthMoM,
		Limit:            DefaultLimit,
	}

	if unitsMetric(norm) {
		plan.Metric = schema.UnitsMetric
	}
	plan.RankTarget = rankTarget(norm, plan.Metric)
	plan.HistoricalWindow = historicalWindow(norm)
	plan.GrowthWindow = growthWindow(norm)
	plan.TargetLevel = targetLevel(norm, plan.Intent)
	plan.TypeScope = p.typeScope(norm)
	plan.Limit = limit(norm)
	plan.Scope = scopeHint(text, norm)
	return plan
}

func rankTarget(norm string, metric schema.Metric) schema.RankTarget {
	switch {
	case overallRank(norm):
		return schema.OverallRank
	case unitsRank(norm):
		return schema.UnitsRank
	case revenueRank(norm):
		return schema.RevenueRank
	case metric == schema.UnitsMetric:
		return schema.UnitsRank
	}
	return schema.RevenueRank
}

func historicalWindow(norm string) schema.HistoricalWindow {
	for _, r := range windowRules {
		if r.match(norm) {
			return r.window
		}
	}
	return schema.Window12M
}

func growthWindow(norm string) schema.GrowthWindow {
	mom, yoy := momWords(norm), yoyWords(norm)
	switch {
	case mom && yoy:
		return schema.GrowthBoth
	case yoy:
		return schema.GrowthYoY
	}
	return schema.GrowthMoM
}

func targetLevel(norm string, intent schema.Intent) schema.TargetLevel {
	for _, r := range levelRules {
		if r.match(norm) {
			return r.level
		}
	}
	if level, ok := defaultLevels[intent]; ok {
		return level
	}
	return schema.BrandLevel
}

func (p *Parser) typeScope(norm string) string {
	padded := " " + norm + " "
	for _, t := range p.knownTypes {
		if strings.Contains(padded, " "+t+" ") || strings.Contains(padded, " "+t+"s ") {
			return t
		}
	}
	return ""
}

func limit(norm string) int {
	m := topLimit.FindStringSubmatch(norm)
	if m == nil {
		m = nounLimit.FindStringSubmatch(norm)
	}
	if m == nil {
		return DefaultLimit
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultLimit
	}
	return max(1, min(n, MaxLimit))
}

// scopeHint reads brand scope from the raw text so capitalization and quotes survive.
func scopeHint(raw, norm string) schema.ScopeHint {
	var brands []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(brands, s) {
			brands = append(brands, s)
		}
	}
	for _, m := range quotedPhrase.FindAllStringSubmatch(raw, -1) {
		add(m[1] + m[2])
	}
	for _, m := range brandMention.FindAllStringSubmatch(raw, -1) {
		for _, b := range brandSplit.Split(m[1], -1) {
			add(b)
		}
	}

	switch {
	case len(brands) > 0:
		return schema.ScopeHint{Mode: schema.ExplicitBrandScope, Brands: brands}
	case ownWords(norm):
		return schema.ScopeHint{Mode: schema.OwnBrandsScope}
	}
	return schema.ScopeHint{Mode: schema.AllBrandsScope}
}

// IsOwnBrandLanguage reports whether text speaks in the first person plural.
func IsOwnBrandLanguage(text string) bool {
	return ownWords(schema.NormalizeText(text))
}
