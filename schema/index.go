package schema

import (
	"sort"
	"strings"
)

// HistoryPoint is one prior-period observation of a product.
type HistoryPoint struct {
	SnapshotDate string  `json:"snapshot_date"`
	Price        float64 `json:"price"`
	Revenue      float64 `json:"revenue"`
	Units        float64 `json:"units"`
	RevenueRank  int     `json:"revenue_rank"`
	UnitsRank    int     `json:"units_rank"`
}

// IndexedProduct is a read-only product entry of the index.
type IndexedProduct struct {
	Asin        string         `json:"asin"`
	Brand       string         `json:"brand"`
	Title       string         `json:"title"`
	Type        string         `json:"type"`
	Price       float64        `json:"price"`
	Revenue     float64        `json:"revenue"`
	Units       float64        `json:"units"`
	Rating      float64        `json:"rating"`
	ReviewCount int            `json:"review_count"`
	RevenueMoM  *float64       `json:"revenue_mom,omitempty"`
	RevenueRank int            `json:"revenue_rank"`
	UnitsRank   int            `json:"units_rank"`
	History     []HistoryPoint `json:"history,omitempty"`
}

// Label returns a short human-readable label of the product.
func (p *IndexedProduct) Label() string {
	title := p.Title
	if r := []rune(title); len(r) > 48 {
		title = strings.TrimSpace(string(r[:48])) + "..."
	}
	if p.Brand == "" {
		return title + " (" + p.Asin + ")"
	}
	return p.Brand + " " + title + " (" + p.Asin + ")"
}

// PreviousPoint returns the most recent history point, if any.
func (p *IndexedProduct) PreviousPoint() (HistoryPoint, bool) {
	if len(p.History) == 0 {
		return HistoryPoint{}, false
	}
	return p.History[len(p.History)-1], true
}

// ProductIndex is the product and brand lookup built from a snapshot.
type ProductIndex struct {
	ProductsByAsin      map[string]*IndexedProduct
	BrandLookup         map[string]string   // normalized alias -> canonical brand
	ProductAliasToAsins map[string][]string // normalized alias -> asins
	Order               []string            // asins by revenue rank
}

// NormalizeAsin returns the canonical ASIN form.
func NormalizeAsin(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Product returns the indexed product for an ASIN.
func (ix *ProductIndex) Product(asin string) (*IndexedProduct, bool) {
	if ix == nil {
		return nil, false
	}
	p, ok := ix.ProductsByAsin[NormalizeAsin(asin)]
	return p, ok
}

// Products returns all products ordered by revenue descending.
func (ix *ProductIndex) Products() []*IndexedProduct {
	if ix == nil {
		return nil
	}
	out := make([]*IndexedProduct, 0, len(ix.Order))
	for _, asin := range ix.Order {
		out = append(out, ix.ProductsByAsin[asin])
	}
	return out
}

// Brands returns the canonical brand names, sorted.
func (ix *ProductIndex) Brands() []string {
	if ix == nil {
		return nil
	}
	seen := map[string]struct{}{}
	for _, b := range ix.BrandLookup {
		seen[b] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// BuildIndex builds the product index from snapshot tables and aliases.
func BuildIndex(tables Tables, brandAliases map[string]string, productAliases map[string][]string) *ProductIndex {
	ix := &ProductIndex{
		ProductsByAsin:      make(map[string]*IndexedProduct),
		BrandLookup:         make(map[string]string),
		ProductAliasToAsins: make(map[string][]string),
	}

	for _, row := range tables[ProductsMonthlyTable] {
		asin := NormalizeAsin(ToString(row["asin"]))
		if asin == "" {
			continue
		}
		p := &IndexedProduct{
			Asin:        asin,
			Brand:       strings.TrimSpace(ToString(row["brand"])),
			Title:       strings.TrimSpace(ToString(row["title"])),
			Type:        strings.TrimSpace(ToString(row["type"])),
			Price:       floatOrZero(row["price"]),
			Revenue:     floatOrZero(row["revenue"]),
			Units:       floatOrZero(row["units"]),
			Rating:      floatOrZero(row["rating"]),
			ReviewCount: int(floatOrZero(row["review_count"])),
			RevenueRank: int(floatOrZero(row["revenue_rank"])),
			UnitsRank:   int(floatOrZero(row["units_rank"])),
		}
		if mom, ok := ToFloat(row["revenue_mom"]); ok {
			p.RevenueMoM = &mom
		}
		ix.ProductsByAsin[asin] = p
		ix.Order = append(ix.Order, asin)
		if p.Brand != "" {
			ix.BrandLookup[NormalizeText(p.Brand)] = p.Brand
		}
	}

	for _, row := range tables[BrandsMonthlyTable] {
		if b := strings.TrimSpace(ToString(row["brand"])); b != "" {
			ix.BrandLookup[NormalizeText(b)] = b
		}
	}

	for _, row := range tables[ProductHistoryTable] {
		p, ok := ix.ProductsByAsin[NormalizeAsin(ToString(row["asin"]))]
		if !ok {
			continue
		}
		p.History = append(p.History, HistoryPoint{
			SnapshotDate: ToString(row["snapshot_date"]),
			Price:        floatOrZero(row["price"]),
			Revenue:      floatOrZero(row["revenue"]),
			Units:        floatOrZero(row["units"]),
			RevenueRank:  int(floatOrZero(row["revenue_rank"])),
			UnitsRank:    int(floatOrZero(row["units_rank"])),
		})
	}
	for _, p := range ix.ProductsByAsin {
		sort.SliceStable(p.History, func(i, j int) bool {
			return p.History[i].SnapshotDate < p.History[j].SnapshotDate
		})
	}

	for alias, canonical := range brandAliases {
		if n := NormalizeText(alias); n != "" && canonical != "" {
			ix.BrandLookup[n] = canonical
		}
	}
	for alias, asins := range productAliases {
		n := NormalizeText(alias)
		if n == "" {
			continue
		}
		for _, a := range asins {
			ix.ProductAliasToAsins[n] = append(ix.ProductAliasToAsins[n], NormalizeAsin(a))
		}
	}

	sort.SliceStable(ix.Order, func(i, j int) bool {
		a, b := ix.ProductsByAsin[ix.Order[i]], ix.ProductsByAsin[ix.Order[j]]
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Asin < b.Asin
	})
	return ix
}

func floatOrZero(v any) float64 {
	f, _ := ToFloat(v)
	return f
}
