package core

import (
	"testing"

	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
)

func TestExtractFigures(t *testing.T) {
	figs := extractFigures("Innova earned $61,000 (49.2%) in 2025-06, 3 products, 321 units.")
	texts := make([]string, len(figs))
	for i, f := range figs {
		texts[i] = f.text
	}
	assert.Equal(t, []string{"$61,000", "49.2%", "321"}, texts)
	assert.InDelta(t, 0.492, figs[1].value, 1e-9)
}

func TestUnverifiedFigures(t *testing.T) {
	grounded := groundedFigures(factTexts(facts{
		answer:   "Innova leads with $61,000.",
		bullets:  []string{"Share 49.2%"},
		evidence: []schema.Evidence{{Label: "Units", Value: "321"}},
	})...)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"exact", "Innova made $61,000 on 321 units.", nil},
		{"rounded within tolerance", "About $61,200 in revenue.", nil},
		{"ratio as percent", "A share of 0.492 overall.", nil},
		{"invented", "Autel made $987,654.", []string{"$987,654"}},
		{"small counts ignored", "The top 3 brands.", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unverifiedFigures(tt.text, grounded))
		})
	}
}
