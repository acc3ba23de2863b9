package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// figurePattern matches money, counts, ratios and percentages in prose.
var figurePattern = regexp.MustCompile(`[-+]?\$?\d[\d,]*(?:\.\d+)?%?`)

// figureTolerance is the relative difference under which two figures match.
const figureTolerance = 0.01

// figure is one number found in text. Percentages keep their ratio form.
type figure struct {
	text  string
	value float64
}

// extractFigures returns the numbers of text, skipping bare small integers
// such as list positions and counts below ten.
func extractFigures(text string) []figure {
	var out []figure
	for _, m := range figurePattern.FindAllString(text, -1) {
		raw := strings.TrimLeft(m, "+")
		pct := strings.HasSuffix(raw, "%")
		s := strings.TrimSuffix(raw, "%")
		s = strings.ReplaceAll(strings.Replace(s, "$", "", 1), ",", "")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		if !pct && !strings.Contains(raw, "$") && !strings.Contains(s, ".") && math.Abs(v) < 10 {
			continue
		}
		// Month stamps such as 2025-06 parse as two numbers.
		if !pct && !strings.Contains(raw, "$") && v >= 1900 && v <= 2100 && !strings.Contains(s, ".") {
			continue
		}
		if pct {
			v /= 100
		}
		out = append(out, figure{text: m, value: v})
	}
	return out
}

// groundedFigures collects every figure of the given texts. Ratios are also
// recorded as percentages and the other way round.
func groundedFigures(texts ...string) []float64 {
	var out []float64
	for _, t := range texts {
		for _, f := range extractFigures(t) {
			out = append(out, f.value, f.value*100, f.value/100)
		}
	}
	return out
}

// unverifiedFigures returns the figures of text that match no grounded value.
func unverifiedFigures(text string, grounded []float64) []string {
	var missing []string
	for _, f := range extractFigures(text) {
		if !matchesAny(math.Abs(f.value), grounded) {
			missing = append(missing, f.text)
		}
	}
	return missing
}

func matchesAny(v float64, grounded []float64) bool {
	for _, g := range grounded {
		g = math.Abs(g)
		if v == g || math.Abs(v-g) <= figureTolerance*math.Max(v, g) {
			return true
		}
	}
	return false
}

// factTexts flattens an answer's facts for figure grounding.
func factTexts(f facts) []string {
	texts := make([]string, 0, 1+len(f.bullets)+len(f.evidence))
	texts = append(texts, f.answer)
	texts = append(texts, f.bullets...)
	for _, e := range f.evidence {
		texts = append(texts, e.Value)
	}
	return texts
}
