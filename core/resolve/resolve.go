// Package resolve finds the brands and products a question refers to and
// decides the brand scope it is evaluated against.
package resolve

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/catiq/schema"
)

// MaxMatches caps the merged product matches.
const MaxMatches = 8

// maxClarifyLabels caps the candidates listed in a clarification question.
const maxClarifyLabels = 3

var (
	singleProduct = regexp.MustCompile(`\b(?:product|model|competitor|competitors|compare|vs|versus|item|sku|asin|this one|that one|the other one|which one)\b`)
	broadRanking  = regexp.MustCompile(`\b(?:top|best|best selling|bestsellers?|leading|leaders?|fastest|biggest|largest|highest|ranking|rankings|movers?|winners?|most)\b`)
	ownLanguage   = regexp.MustCompile(`\b(?:we|us|our|ours|ourselves)\b`)
)

// stopwords never count toward fuzzy title overlap.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "what": {}, "which": {}, "who": {}, "how": {},
	"our": {}, "ours": {}, "are": {}, "was": {}, "were": {}, "this": {}, "that": {}, "other": {},
	"one": {}, "about": {}, "does": {}, "did": {}, "has": {}, "have": {}, "its": {}, "from": {},
	"product": {}, "products": {}, "compare": {}, "versus": {}, "show": {}, "tell": {}, "doing": {},
	"month": {}, "revenue": {}, "units": {}, "price": {}, "rank": {}, "top": {}, "best": {},
}

// Options are the optional inputs of Resolve.
type Options struct {
	TargetBrand string
	Plan        *schema.QueryPlan
	OwnBrands   []string
}

// Resolve runs the resolution strategies in order and merges their matches.
func Resolve(text string, ix *schema.ProductIndex, opts Options) schema.Resolution {
	norm := schema.NormalizeText(text)
	tokens := strings.Fields(norm)

	m := &matches{seen: map[string]struct{}{}}
	if ix != nil {
		matchAsins(m, ix, tokens)
		matchProductAliases(m, ix, norm)
	}
	brands := matchBrands(ix, norm, opts.Plan)
	if ix != nil {
		matchTitles(m, ix, tokens)
	}

	res := schema.Resolution{
		Entities:        schema.Entities{Brands: brands, Asins: m.asins()},
		MatchedProducts: m.products,
	}

	if len(m.products) > 1 && singleProduct.MatchString(norm) && !broadRanking.MatchString(norm) {
		res.Ambiguous = true
		res.Clarification = clarification(m.products)
		return res
	}
	res.Scope = scope(ix, norm, brands, opts)
	return res
}

type matches struct {
	products []*schema.IndexedProduct
	seen     map[string]struct{}
}

func (m *matches) add(p *schema.IndexedProduct) {
	if p == nil || len(m.products) >= MaxMatches {
		return
	}
	if _, ok := m.seen[p.Asin]; ok {
		return
	}
	m.seen[p.Asin] = struct{}{}
	m.products = append(m.products, p)
}

func (m *matches) asins() []string {
	out := make([]string, len(m.products))
	for i, p := range m.products {
		out[i] = p.Asin
	}
	return out
}

// matchAsins matches 8 to 10 character alphanumeric tokens present in the index.
func matchAsins(m *matches, ix *schema.ProductIndex, tokens []string) {
	for _, tok := range tokens {
		if len(tok) < 8 || len(tok) > 10 {
			continue
		}
		if p, ok := ix.Product(tok); ok {
			m.add(p)
		}
	}
}

func matchProductAliases(m *matches, ix *schema.ProductIndex, norm string) {
	for _, alias := range longestFirst(ix.ProductAliasToAsins) {
		if !containsPhrase(norm, alias) {
			continue
		}
		for _, asin := range ix.ProductAliasToAsins[alias] {
			if p, ok := ix.Product(asin); ok {
				m.add(p)
			}
		}
	}
}

// matchBrands returns canonical brands named by alias or hinted by the plan.
func matchBrands(ix *schema.ProductIndex, norm string, plan *schema.QueryPlan) []string {
	var brands []string
	add := func(b string) {
		if b != "" && !slices.Contains(brands, b) {
			brands = append(brands, b)
		}
	}
	if ix != nil {
		for _, alias := range longestFirst(ix.BrandLookup) {
			if containsPhrase(norm, alias) {
				add(ix.BrandLookup[alias])
			}
		}
	}
	if plan != nil && plan.Scope.Mode == schema.ExplicitBrandScope {
		for _, hint := range plan.Scope.Brands {
			if ix == nil {
				continue
			}
			if b, ok := ix.BrandLookup[schema.NormalizeText(hint)]; ok {
				add(b)
			}
		}
	}
	return brands
}

type titleScore struct {
	product *schema.IndexedProduct
	score   int
}

// matchTitles scores products by overlapping title tokens. At least two
// tokens must overlap; longer tokens weigh more and revenue breaks ties.
func matchTitles(m *matches, ix *schema.ProductIndex, tokens []string) {
	query := map[string]struct{}{}
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		query[tok] = struct{}{}
	}
	if len(query) < 2 {
		return
	}

	var scored []titleScore
	for _, p := range ix.Products() {
		hits, weight := 0, 0
		seen := map[string]struct{}{}
		for _, tok := range schema.Tokenize(p.Title) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			if _, ok := query[tok]; ok {
				hits++
				weight += len(tok)
			}
		}
		if hits >= 2 {
			scored = append(scored, titleScore{product: p, score: weight})
		}
	}
	slices.SortStableFunc(scored, func(a, b titleScore) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(b.product.Revenue, a.product.Revenue)
	})
	for _, s := range scored {
		m.add(s.product)
	}
}

func scope(ix *schema.ProductIndex, norm string, brands []string, opts Options) schema.ResolvedScope {
	if len(brands) > 0 {
		return schema.ResolvedScope{
			Mode:          schema.ExplicitBrandScope,
			Brands:        brands,
			Justification: "Brands named in the question: " + strings.Join(brands, ", ") + ".",
		}
	}
	if target := strings.TrimSpace(opts.TargetBrand); target != "" {
		if ix != nil {
			if b, ok := ix.BrandLookup[schema.NormalizeText(target)]; ok {
				target = b
			}
		}
		return schema.ResolvedScope{
			Mode:          schema.TargetBrandScope,
			Brands:        []string{target},
			Justification: "Using the selected target brand " + target + ".",
		}
	}
	own := ownLanguage.MatchString(norm) || (opts.Plan != nil && opts.Plan.Scope.Mode == schema.OwnBrandsScope)
	if own && len(opts.OwnBrands) > 0 {
		return schema.ResolvedScope{
			Mode:          schema.OwnBrandsScope,
			Brands:        slices.Clone(opts.OwnBrands),
			Justification: "First-person wording maps to your brands: " + strings.Join(opts.OwnBrands, ", ") + ".",
		}
	}
	return schema.ResolvedScope{
		Mode:          schema.AllBrandsScope,
		Justification: "No brand named; comparing all brands in the category.",
	}
}

func clarification(products []*schema.IndexedProduct) string {
	n := min(len(products), maxClarifyLabels)
	labels := make([]string, n)
	for i, p := range products[:n] {
		labels[i] = p.Label()
	}
	return fmt.Sprintf("I found several matching products: %s. Which one do you mean?", strings.Join(labels, "; "))
}

// containsPhrase reports whether phrase occurs in text on token boundaries.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// longestFirst returns map keys by descending length, then alphabetically.
func longestFirst[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return keys
}
