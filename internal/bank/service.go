// Package bank implements the account service: lifecycle, payments and
// withdrawals, and the derived balance and summary views over a ledger.Store.
package bank

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mott-dev/mott/internal/ledger"
	"github.com/mott-dev/mott/internal/model"
)

// Bank is the business-logic layer over one ledger instance. It keeps no
// state of its own between calls.
type Bank struct {
	store ledger.Store
}

// New creates a Bank over a store.
func New(store ledger.Store) *Bank {
	return &Bank{store: store}
}

// Create registers a new account owned by the given role. The account's log
// starts empty, so its balance is zero.
func (b *Bank) Create(ctx context.Context, name, owningRole string) error {
	return b.store.CreateAccount(ctx, name, owningRole)
}

// Delete removes the account and its entire log.
func (b *Bank) Delete(ctx context.Context, name string) error {
	return b.store.DeleteAccount(ctx, name)
}

// Reset clears the account's log while preserving its owning role.
func (b *Bank) Reset(ctx context.Context, name string) error {
	role, err := b.store.OwningRole(ctx, name)
	if err != nil {
		return err
	}
	if err := b.store.DeleteAccount(ctx, name); err != nil {
		return err
	}
	return b.store.CreateAccount(ctx, name, role)
}

// PayTo appends a manual payment from actor to the account. The amount must
// be strictly positive; negative or zero payments are rejected, not coerced.
func (b *Bank) PayTo(ctx context.Context, actor, name string, amount decimal.Decimal) (model.Transaction, error) {
	return b.pay(ctx, actor, name, amount, false, "")
}

// PayVerified appends a screenshot-derived payment. It follows the exact
// insertion path of PayTo, with the verified flag set and the originating
// message recorded as a correlation key so the entry can be undone later.
func (b *Bank) PayVerified(ctx context.Context, actor, name string, amount decimal.Decimal, correlationKey string) (model.Transaction, error) {
	return b.pay(ctx, actor, name, amount, true, correlationKey)
}

func (b *Bank) pay(ctx context.Context, actor, name string, amount decimal.Decimal, verified bool, key string) (model.Transaction, error) {
	if !amount.IsPositive() {
		return model.Transaction{}, ledger.InvalidAmount(name,
			fmt.Sprintf("payment amount must be a positive number, got %s", amount))
	}
	return b.store.Append(ctx, name, model.Transaction{
		Timestamp:      now(),
		Actor:          actor,
		Value:          amount,
		Verified:       verified,
		CorrelationKey: key,
	})
}

// WithdrawFrom appends a withdrawal of the given magnitude, stored as a
// negative value attributed to the withdrawing actor.
func (b *Bank) WithdrawFrom(ctx context.Context, actor, name string, amount decimal.Decimal) (model.Transaction, error) {
	if !amount.IsPositive() {
		return model.Transaction{}, ledger.InvalidAmount(name,
			fmt.Sprintf("withdrawal amount must be a positive number, got %s", amount))
	}
	return b.store.Append(ctx, name, model.Transaction{
		Timestamp: now(),
		Actor:     actor,
		Value:     amount.Neg(),
	})
}

// Balance is the sum of every entry's value. Zero for a fresh account.
func (b *Bank) Balance(ctx context.Context, name string) (decimal.Decimal, error) {
	log, err := b.store.Transactions(ctx, name)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, tx := range log {
		total = total.Add(tx.Value)
	}
	return total, nil
}

// Summary aggregates positive contributions per actor (ordered by first
// contribution) and totals the magnitude of withdrawals.
func (b *Bank) Summary(ctx context.Context, name string) (model.Summary, error) {
	log, err := b.store.Transactions(ctx, name)
	if err != nil {
		return model.Summary{}, err
	}

	sum := model.Summary{Withdrawn: decimal.Zero}
	byActor := make(map[string]int)
	for _, tx := range log {
		if tx.IsWithdrawal() {
			sum.Withdrawn = sum.Withdrawn.Add(tx.Value.Abs())
			continue
		}
		i, ok := byActor[tx.Actor]
		if !ok {
			i = len(sum.Contributions)
			byActor[tx.Actor] = i
			sum.Contributions = append(sum.Contributions, model.Contribution{Actor: tx.Actor, Total: decimal.Zero})
		}
		sum.Contributions[i].Total = sum.Contributions[i].Total.Add(tx.Value)
	}
	return sum, nil
}

// LastTransaction returns the most recently appended entry.
func (b *Bank) LastTransaction(ctx context.Context, name string) (model.Transaction, error) {
	log, err := b.store.Transactions(ctx, name)
	if err != nil {
		return model.Transaction{}, err
	}
	if len(log) == 0 {
		return model.Transaction{}, ledger.AccountEmpty(name)
	}
	return log[len(log)-1], nil
}

// All returns the full ordered log.
func (b *Bank) All(ctx context.Context, name string) ([]model.Transaction, error) {
	log, err := b.store.Transactions(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(log) == 0 {
		return nil, ledger.AccountEmpty(name)
	}
	return log, nil
}

// RemoveByCorrelation deletes the entries recorded under the key and returns
// them, supporting undo of screenshot-derived payments.
func (b *Bank) RemoveByCorrelation(ctx context.Context, name, key string) ([]model.Transaction, error) {
	return b.store.RemoveByCorrelation(ctx, name, key)
}

// OwningRole returns the role identity that manages the account.
func (b *Bank) OwningRole(ctx context.Context, name string) (string, error) {
	return b.store.OwningRole(ctx, name)
}

// Permitted reports whether any of the caller's roles is the account's
// owning role. Unknown accounts fail with ErrAccountNotFound so callers can
// distinguish missing accounts from denied access.
func (b *Bank) Permitted(ctx context.Context, name string, roleIDs []string) (bool, error) {
	role, err := b.store.OwningRole(ctx, name)
	if err != nil {
		return false, err
	}
	return slices.Contains(roleIDs, role), nil
}

// AccountNames lists every tracked account, used to decide which channels
// are watched for screenshots.
func (b *Bank) AccountNames(ctx context.Context) ([]string, error) {
	return b.store.AccountNames(ctx)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
