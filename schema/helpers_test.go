package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		// Numbers
		{61000.0, 61000, true},
		{int(3), 3, true},
		{int64(-2), -2, true},
		{float32(1.5), 1.5, true},
		{math.NaN(), 0, false},

		// Strings
		{"189.99", 189.99, true},
		{"$189.99", 189.99, true},
		{" $1,234.50 ", 1234.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"Inf", 0, false},

		// Other
		{nil, 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := ToFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "ToFloat(%#v)", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "ToFloat(%#v)", tt.in)
		}
	}
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "Innova", ToString("Innova"))
	assert.Equal(t, "61000", ToString(61000.0))
	assert.Equal(t, "0.492", ToString(0.492))
	assert.Equal(t, "true", ToString(true))
}

func TestCoerceCell(t *testing.T) {
	assert.Nil(t, CoerceCell("", NumberColumn))
	assert.Nil(t, CoerceCell("NaN", NumberColumn))
	assert.Nil(t, CoerceCell("null", StringColumn))
	assert.Nil(t, CoerceCell("abc", NumberColumn))
	assert.Equal(t, 189.99, CoerceCell("$189.99", NumberColumn))
	assert.Equal(t, "Scan Tool", CoerceCell("  Scan Tool ", StringColumn))
}

func TestCoerceValue(t *testing.T) {
	assert.Nil(t, CoerceValue(nil, NumberColumn))
	assert.Nil(t, CoerceValue("", NumberColumn))
	assert.Equal(t, 45000.0, CoerceValue("45,000", NumberColumn))
	assert.Equal(t, 4.5, CoerceValue(4.5, NumberColumn))
	assert.Equal(t, "42", CoerceValue(42.0, StringColumn))
	assert.Nil(t, CoerceValue(" ", StringColumn))
	assert.Equal(t, "Autel", CoerceValue("Autel", StringColumn))
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BLCKTEC", "blcktec"},
		{"  Who are the TOP brands?  ", "who are the top brands"},
		{"blck-tec", "blck tec"},
		{"Innova 5610 (CarScan Pro)", "innova 5610 carscan pro"},
		{"", ""},
		{"?!", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in), "NormalizeText(%q)", tt.in)
	}
	assert.Equal(t, []string{"top", "brands", "2025", "06"}, Tokenize("Top brands, 2025-06"))
	assert.Empty(t, Tokenize("  "))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$61,000", FormatMoney(61000))
	assert.Equal(t, "$1,234,568", FormatMoney(1234567.8))
	assert.Equal(t, "$189.99", FormatMoney(189.99))
	assert.Equal(t, "$-2,500", FormatMoney(-2500))
	assert.Equal(t, "321", FormatCount(321))
	assert.Equal(t, "12,000", FormatCount(11999.6))
	assert.Equal(t, "+17.3%", FormatPct(0.173))
	assert.Equal(t, "-6.3%", FormatPct(-0.0631))
	assert.Equal(t, "49.2%", FormatShare(0.492))
}
