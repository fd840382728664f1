// Package ledger defines the store contract for per-account append-only
// transaction logs, and the domain error taxonomy shared by every layer
// above it.
package ledger

import (
	"context"

	"github.com/mott-dev/mott/internal/model"
)

// Store persists accounts and their transaction logs. Logs are append-only:
// no record is ever mutated, and the only removals are whole-account delete
// and targeted removal by correlation key.
//
// Implementations must serialize appends within one account so sequence ids
// come out gapless and strictly increasing, and must not block operations on
// one account behind operations on another.
type Store interface {
	// CreateAccount persists a new account with an empty log. Fails with
	// ErrAccountExists if the name is taken; no side effects on failure.
	CreateAccount(ctx context.Context, name, owningRole string) error

	// DeleteAccount removes the account and discards its entire log.
	DeleteAccount(ctx context.Context, name string) error

	// OwningRole returns the role identity that manages the account.
	OwningRole(ctx context.Context, name string) (string, error)

	// Append assigns the next sequence id and stores the record, returning
	// the record as stored. The caller's SeqID is ignored.
	Append(ctx context.Context, name string, tx model.Transaction) (model.Transaction, error)

	// Transactions returns the account's full log, oldest first.
	Transactions(ctx context.Context, name string) ([]model.Transaction, error)

	// RemoveByCorrelation deletes every record carrying the key and returns
	// exactly the removed records, oldest first. Fails with ErrNoMatch when
	// nothing matched. Sequence ids of removed records are never reissued.
	RemoveByCorrelation(ctx context.Context, name, key string) ([]model.Transaction, error)

	// AccountNames lists all known account names.
	AccountNames(ctx context.Context) ([]string, error)
}
