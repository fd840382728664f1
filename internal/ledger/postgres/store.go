// Package postgres provides a ledger.Store backed by PostgreSQL. All rows
// are scoped to a guild so one database serves many ledger instances.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	_ "github.com/lib/pq" // postgres driver

	"github.com/mott-dev/mott/internal/ledger"
	"github.com/mott-dev/mott/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	guild_id     TEXT NOT NULL,
	account_name TEXT NOT NULL,
	owning_role  TEXT NOT NULL,
	next_seq     INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (guild_id, account_name)
);

CREATE TABLE IF NOT EXISTS transactions (
	guild_id        TEXT NOT NULL,
	account_name    TEXT NOT NULL,
	seq_id          INTEGER NOT NULL,
	ts              TIMESTAMPTZ NOT NULL,
	actor           TEXT NOT NULL,
	value           NUMERIC NOT NULL,
	verified        BOOLEAN NOT NULL,
	correlation_key TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (guild_id, account_name, seq_id)
);
`

// Store is a guild-scoped view over the shared database.
type Store struct {
	db    *sql.DB
	guild string
}

// Open connects to the database and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return db, nil
}

// New returns a store scoped to one guild.
func New(db *sql.DB, guildID string) *Store {
	return &Store{db: db, guild: guildID}
}

func (s *Store) CreateAccount(ctx context.Context, name, owningRole string) error {
	const query = `
		INSERT INTO accounts (guild_id, account_name, owning_role)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, account_name) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, s.guild, name, owningRole)
	if err != nil {
		return fmt.Errorf("creating account %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("creating account %s: %w", name, err)
	}
	if n == 0 {
		return ledger.AccountExists(name)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE guild_id = $1 AND account_name = $2`,
		s.guild, name); err != nil {
		return fmt.Errorf("deleting log for %s: %w", name, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM accounts WHERE guild_id = $1 AND account_name = $2`,
		s.guild, name)
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", name, err)
	}
	if n == 0 {
		return ledger.AccountNotFound(name)
	}
	return tx.Commit()
}

func (s *Store) OwningRole(ctx context.Context, name string) (string, error) {
	const query = `SELECT owning_role FROM accounts WHERE guild_id = $1 AND account_name = $2`

	var role string
	err := s.db.QueryRowContext(ctx, query, s.guild, name).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ledger.AccountNotFound(name)
	}
	if err != nil {
		return "", fmt.Errorf("reading owning role for %s: %w", name, err)
	}
	return role, nil
}

func (s *Store) Append(ctx context.Context, name string, rec model.Transaction) (model.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("appending to %s: %w", name, err)
	}
	defer tx.Rollback()

	// Claim the next sequence id; the row lock serializes appends per account.
	const claim = `
		UPDATE accounts SET next_seq = next_seq + 1
		WHERE guild_id = $1 AND account_name = $2
		RETURNING next_seq - 1`

	err = tx.QueryRowContext(ctx, claim, s.guild, name).Scan(&rec.SeqID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, ledger.AccountNotFound(name)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("claiming seq id for %s: %w", name, err)
	}

	const insert = `
		INSERT INTO transactions (guild_id, account_name, seq_id, ts, actor, value, verified, correlation_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := tx.ExecContext(ctx, insert,
		s.guild, name, rec.SeqID, rec.Timestamp, rec.Actor, rec.Value, rec.Verified, rec.CorrelationKey); err != nil {
		return model.Transaction{}, fmt.Errorf("inserting transaction for %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Transaction{}, fmt.Errorf("appending to %s: %w", name, err)
	}
	return rec, nil
}

func (s *Store) Transactions(ctx context.Context, name string) ([]model.Transaction, error) {
	if _, err := s.OwningRole(ctx, name); err != nil {
		return nil, err
	}

	const query = `
		SELECT seq_id, ts, actor, value, verified, correlation_key
		FROM transactions
		WHERE guild_id = $1 AND account_name = $2
		ORDER BY seq_id`

	rows, err := s.db.QueryContext(ctx, query, s.guild, name)
	if err != nil {
		return nil, fmt.Errorf("reading log for %s: %w", name, err)
	}
	defer rows.Close()

	var log []model.Transaction
	for rows.Next() {
		var rec model.Transaction
		if err := rows.Scan(&rec.SeqID, &rec.Timestamp, &rec.Actor, &rec.Value, &rec.Verified, &rec.CorrelationKey); err != nil {
			return nil, fmt.Errorf("scanning log row for %s: %w", name, err)
		}
		log = append(log, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading log for %s: %w", name, err)
	}
	return log, nil
}

func (s *Store) RemoveByCorrelation(ctx context.Context, name, key string) ([]model.Transaction, error) {
	if _, err := s.OwningRole(ctx, name); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ledger.NoMatch(name, key)
	}

	const query = `
		DELETE FROM transactions
		WHERE guild_id = $1 AND account_name = $2 AND correlation_key = $3
		RETURNING seq_id, ts, actor, value, verified, correlation_key`

	rows, err := s.db.QueryContext(ctx, query, s.guild, name, key)
	if err != nil {
		return nil, fmt.Errorf("removing transactions for %s: %w", name, err)
	}
	defer rows.Close()

	var removed []model.Transaction
	for rows.Next() {
		var rec model.Transaction
		if err := rows.Scan(&rec.SeqID, &rec.Timestamp, &rec.Actor, &rec.Value, &rec.Verified, &rec.CorrelationKey); err != nil {
			return nil, fmt.Errorf("scanning removed row for %s: %w", name, err)
		}
		removed = append(removed, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("removing transactions for %s: %w", name, err)
	}
	if len(removed) == 0 {
		return nil, ledger.NoMatch(name, key)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].SeqID < removed[j].SeqID })
	return removed, nil
}

func (s *Store) AccountNames(ctx context.Context) ([]string, error) {
	const query = `SELECT account_name FROM accounts WHERE guild_id = $1 ORDER BY created_at, account_name`

	rows, err := s.db.QueryContext(ctx, query, s.guild)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning account name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

var _ ledger.Store = (*Store)(nil)
