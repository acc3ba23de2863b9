package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ToFloat converts a cell or literal to a number.
// Strings are parsed after trimming a leading dollar sign and thousands separators.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToString renders a cell as text. Nil becomes the empty string.
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// CoerceCell converts raw text to the declared column type.
func CoerceCell(raw string, typ ColumnType) any {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "nan") {
		return nil
	}
	if typ == NumberColumn {
		if f, ok := ToFloat(s); ok {
			return f
		}
		return nil
	}
	return s
}

// CoerceValue normalizes a decoded JSON or YAML value to the declared column type.
func CoerceValue(v any, typ ColumnType) any {
	if v == nil {
		return nil
	}
	if typ == NumberColumn {
		if f, ok := ToFloat(v); ok {
			return f
		}
		return nil
	}
	if s, ok := v.(string); ok {
		return CoerceCell(s, StringColumn)
	}
	return ToString(v)
}

// NormalizeText lowercases and collapses everything except letters and digits to single spaces.
func NormalizeText(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits text into normalized tokens.
func Tokenize(s string) []string {
	return strings.Fields(NormalizeText(s))
}

// FormatMoney formats a currency amount with thousands separators.
func FormatMoney(v float64) string {
	if math.Abs(v) >= 1000 {
		return "$" + formatThousands(math.Round(v))
	}
	return fmt.Sprintf("$%.2f", v)
}

// FormatCount formats a whole number with thousands separators.
func FormatCount(v float64) string {
	return formatThousands(math.Round(v))
}

// FormatPct formats a ratio as a signed percentage.
func FormatPct(ratio float64) string {
	return fmt.Sprintf("%+.1f%%", ratio*100)
}

// FormatShare formats a ratio as an unsigned percentage.
func FormatShare(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func formatThousands(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', 0, 64)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
