// Package ocr extracts a transaction amount from a screenshot. The core
// only distinguishes success from failure; both failure kinds below render
// as the same user-facing apology.
package ocr

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountNotFound means the image was readable but no currency amount
	// could be located in its text.
	ErrAmountNotFound = errors.New("no currency amount found in image text")
	// ErrInvalidImage means the image could not be read at all.
	ErrInvalidImage = errors.New("unreadable image source")
)

// Extractor turns a screenshot into a non-negative amount.
type Extractor interface {
	Amount(ctx context.Context, image []byte, mimeType string) (decimal.Decimal, error)
}
