// Package registry hands out one Bank per ledger instance (guild). It is an
// explicit, injectable component: created once at process start, instances
// live for the process lifetime, no eviction.
package registry

import (
	"sync"

	"github.com/mott-dev/mott/internal/bank"
	"github.com/mott-dev/mott/internal/ledger"
)

// OpenStore builds the backing store for a guild's ledger.
type OpenStore func(guildID string) (ledger.Store, error)

// Registry memoizes Banks by guild id.
type Registry struct {
	open  OpenStore
	mu    sync.Mutex
	banks map[string]*bank.Bank
}

// New creates a Registry that opens stores on first request.
func New(open OpenStore) *Registry {
	return &Registry{open: open, banks: make(map[string]*bank.Bank)}
}

// Bank returns the guild's Bank, opening its store on first use.
func (r *Registry) Bank(guildID string) (*bank.Bank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.banks[guildID]; ok {
		return b, nil
	}
	store, err := r.open(guildID)
	if err != nil {
		return nil, err
	}
	b := bank.New(store)
	r.banks[guildID] = b
	return b, nil
}
