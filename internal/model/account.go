package model

import "github.com/shopspring/decimal"

// Account is a named, role-owned ledger. The name is typically the channel
// identifier the account tracks.
type Account struct {
	Name       string
	OwningRole string // role identity required to manage the account
}

// Contribution is one contributor's total of positive payments.
type Contribution struct {
	Actor string
	Total decimal.Decimal
}

// Summary aggregates an account's log: contributions per actor, ordered by
// each actor's first payment, plus the total magnitude withdrawn.
type Summary struct {
	Contributions []Contribution
	Withdrawn     decimal.Decimal
}
