package ocr

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount locates the currency suffix in transcribed screenshot text and
// reads the number immediately before it. Thousands separators (commas) are
// ignored; the scan stops at the first character that is neither a digit,
// a dot, nor a comma. Fails with ErrAmountNotFound when the suffix is absent
// or no number precedes it.
func ParseAmount(text, currency string) (decimal.Decimal, error) {
	end := strings.Index(text, currency)
	if end <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountNotFound, text)
	}

	// Walk backwards from the suffix, past any whitespace, collecting the
	// amount's characters in reverse.
	i := end - 1
	for i >= 0 && unicode.IsSpace(rune(text[i])) {
		i--
	}

	var rev []byte
scan:
	for ; i >= 0; i-- {
		switch c := text[i]; {
		case c == ',':
			// thousands separator
		case c >= '0' && c <= '9' || c == '.':
			rev = append(rev, c)
		default:
			break scan
		}
	}
	if len(rev) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountNotFound, text)
	}

	for l, r := 0, len(rev)-1; l < r; l, r = l+1, r-1 {
		rev[l], rev[r] = rev[r], rev[l]
	}
	amount, err := decimal.NewFromString(string(rev))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrAmountNotFound, text)
	}
	return amount, nil
}
