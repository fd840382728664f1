package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "820000 aUEC", "820000"},
		{"thousands separators", "Balance: 1,234,567 aUEC", "1234567"},
		{"no space before suffix", "820,000aUEC", "820000"},
		{"decimal point", "Deposited 10.5 aUEC today", "10.5"},
		{"amount mid-sentence", "You received 42 aUEC from trading", "42"},
		{"multiline transcript", "MO.TRADER\nDEPOSIT\n500,000 aUEC\nCONFIRM", "500000"},
		{"stops at non-numeric", "x9 100 aUEC", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.text, "aUEC")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmountFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no suffix", "820000 credits"},
		{"suffix with no amount", "pay in aUEC"},
		{"only whitespace before suffix", "   aUEC"},
		{"two decimal points", "1.2.3 aUEC"},
		{"suffix at start", "aUEC 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAmount(tt.text, "aUEC")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAmountNotFound)
		})
	}
}

func TestParseAmountUsesFirstSuffixOccurrence(t *testing.T) {
	got, err := ParseAmount("100 aUEC then 200 aUEC", "aUEC")
	require.NoError(t, err)
	assert.Equal(t, "100", got.String())
}
