// Package events publishes ledger activity to interested consumers. Events
// are emitted from the transport boundary, never from the ledger core.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind labels what happened to an account's log.
type Kind string

const (
	KindVerifiedPayment Kind = "payment.verified" // screenshot-derived payment recorded
	KindRemoved         Kind = "transactions.removed"
)

// Event is one ledger activity record.
type Event struct {
	ID             string          `json:"id"`
	Kind           Kind            `json:"kind"`
	GuildID        string          `json:"guild_id"`
	Account        string          `json:"account"`
	Actor          string          `json:"actor,omitempty"`
	Value          decimal.Decimal `json:"value"`
	SeqID          int             `json:"seq_id"`
	CorrelationKey string          `json:"correlation_key,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// New builds an Event with a fresh id and timestamp.
func New(kind Kind, guildID, account string) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		GuildID:    guildID,
		Account:    account,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards all events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
