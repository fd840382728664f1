package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one immutable row in an account's ledger log.
type Transaction struct {
	SeqID          int             // per-account, assigned at insertion, strictly increasing from 0
	Timestamp      time.Time       // insertion time, second resolution
	Actor          string          // opaque platform identity of the paying or withdrawing party
	Value          decimal.Decimal // positive = payment, negative = withdrawal
	Verified       bool            // true when the value was read from a screenshot
	CorrelationKey string          // originating message identity, empty for manual entries
}

// IsWithdrawal reports whether the entry deducts from the account.
func (t Transaction) IsWithdrawal() bool {
	return t.Value.IsNegative()
}
