// Package memory provides an in-process ledger.Store, used by tests and by
// deployments that do not need durability.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mott-dev/mott/internal/ledger"
	"github.com/mott-dev/mott/internal/model"
)

type account struct {
	mu         sync.Mutex // serializes appends and removals within the account
	owningRole string
	nextSeq    int
	log        []model.Transaction
}

// Store keeps all accounts and logs in memory. The outer lock guards the
// account map; each account carries its own lock so writes to one account
// never block writes to another.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	order    []string // creation order, for stable AccountNames output
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{accounts: make(map[string]*account)}
}

func (s *Store) CreateAccount(_ context.Context, name, owningRole string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[name]; ok {
		return ledger.AccountExists(name)
	}
	s.accounts[name] = &account{owningRole: owningRole}
	s.order = append(s.order, name)
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[name]; !ok {
		return ledger.AccountNotFound(name)
	}
	delete(s.accounts, name)
	if i := slices.Index(s.order, name); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return nil
}

func (s *Store) OwningRole(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[name]
	if !ok {
		return "", ledger.AccountNotFound(name)
	}
	return a.owningRole, nil
}

func (s *Store) Append(_ context.Context, name string, tx model.Transaction) (model.Transaction, error) {
	s.mu.RLock()
	a, ok := s.accounts[name]
	s.mu.RUnlock()
	if !ok {
		return model.Transaction{}, ledger.AccountNotFound(name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	tx.SeqID = a.nextSeq
	a.nextSeq++
	a.log = append(a.log, tx)
	return tx, nil
}

func (s *Store) Transactions(_ context.Context, name string) ([]model.Transaction, error) {
	s.mu.RLock()
	a, ok := s.accounts[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ledger.AccountNotFound(name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// Copy out so callers cannot mutate internal state.
	out := make([]model.Transaction, len(a.log))
	copy(out, a.log)
	return out, nil
}

func (s *Store) RemoveByCorrelation(_ context.Context, name, key string) ([]model.Transaction, error) {
	s.mu.RLock()
	a, ok := s.accounts[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ledger.AccountNotFound(name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	var removed, kept []model.Transaction
	for _, tx := range a.log {
		if tx.CorrelationKey == key && key != "" {
			removed = append(removed, tx)
		} else {
			kept = append(kept, tx)
		}
	}
	if len(removed) == 0 {
		return nil, ledger.NoMatch(name, key)
	}
	a.log = kept
	return removed, nil
}

func (s *Store) AccountNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order), nil
}

var _ ledger.Store = (*Store)(nil)
