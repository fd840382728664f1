// Package csvfile provides a file-backed ledger.Store: an accounts.csv index
// plus one append-only CSV log per account under logs/.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mott-dev/mott/internal/ledger"
	"github.com/mott-dev/mott/internal/model"
)

const (
	indexFile = "accounts.csv"
	logsDir   = "logs"
)

// Store persists the ledger under a single directory. One process owns the
// directory at a time; a single lock serializes all file mutation.
type Store struct {
	root string
	mu   sync.Mutex
}

// Open prepares the directory layout and returns a store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, logsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the directory the store persists under.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) CreateAccount(_ context.Context, name, owningRole string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	if _, ok := findRow(idx, name); ok {
		return ledger.AccountExists(name)
	}
	idx = append(idx, indexRow{Name: name, OwningRole: owningRole})
	return s.writeIndex(idx)
}

func (s *Store) DeleteAccount(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	pos := -1
	for i, row := range idx {
		if row.Name == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return ledger.AccountNotFound(name)
	}
	idx = append(idx[:pos], idx[pos+1:]...)
	if err := s.writeIndex(idx); err != nil {
		return err
	}
	if err := os.Remove(s.logPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing log for %s: %w", name, err)
	}
	return nil
}

func (s *Store) OwningRole(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return "", err
	}
	row, ok := findRow(idx, name)
	if !ok {
		return "", ledger.AccountNotFound(name)
	}
	return row.OwningRole, nil
}

func (s *Store) Append(_ context.Context, name string, tx model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return model.Transaction{}, err
	}
	pos := -1
	for i, row := range idx {
		if row.Name == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return model.Transaction{}, ledger.AccountNotFound(name)
	}

	tx.SeqID = idx[pos].NextSeq
	idx[pos].NextSeq++

	// Bump the counter before touching the log so a failed append leaves a
	// gap rather than a reused id.
	if err := s.writeIndex(idx); err != nil {
		return model.Transaction{}, err
	}
	if err := s.appendLog(name, tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) Transactions(_ context.Context, name string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	if _, ok := findRow(idx, name); !ok {
		return nil, ledger.AccountNotFound(name)
	}
	return s.readLog(name)
}

func (s *Store) RemoveByCorrelation(_ context.Context, name, key string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	if _, ok := findRow(idx, name); !ok {
		return nil, ledger.AccountNotFound(name)
	}

	log, err := s.readLog(name)
	if err != nil {
		return nil, err
	}

	var removed, kept []model.Transaction
	for _, tx := range log {
		if tx.CorrelationKey == key && key != "" {
			removed = append(removed, tx)
		} else {
			kept = append(kept, tx)
		}
	}
	if len(removed) == 0 {
		return nil, ledger.NoMatch(name, key)
	}
	if err := s.writeLog(name, kept); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) AccountNames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(idx))
	for i, row := range idx {
		names[i] = row.Name
	}
	return names, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, indexFile)
}

func (s *Store) logPath(name string) string {
	return filepath.Join(s.root, logsDir, url.PathEscape(name)+".csv")
}

func (s *Store) readIndex() ([]indexRow, error) {
	f, err := os.Open(s.indexPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening account index: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = indexFields
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading account index: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var rows []indexRow
	for i, rec := range records[1:] {
		row, err := unmarshalIndexRow(rec)
		if err != nil {
			return nil, fmt.Errorf("account index row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) writeIndex(rows []indexRow) error {
	f, err := os.Create(s.indexPath())
	if err != nil {
		return fmt.Errorf("writing account index: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()
	if err := cw.Write(strings.Split(IndexHeader, ",")); err != nil {
		return fmt.Errorf("writing index header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(marshalIndexRow(row)); err != nil {
			return fmt.Errorf("writing index row for %s: %w", row.Name, err)
		}
	}
	return cw.Error()
}

func (s *Store) appendLog(name string, tx model.Transaction) error {
	path := s.logPath(name)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log for %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()
	if needsHeader {
		if err := cw.Write(strings.Split(LogHeader, ",")); err != nil {
			return fmt.Errorf("writing log header: %w", err)
		}
	}
	if err := cw.Write(MarshalTransaction(tx)); err != nil {
		return fmt.Errorf("appending to log for %s: %w", name, err)
	}
	return cw.Error()
}

// readLog returns the account's log. A missing log file means no entries
// have been appended yet; an unparseable one is an internal consistency
// failure reported as ledger.ErrCorrupt.
func (s *Store) readLog(name string) ([]model.Transaction, error) {
	f, err := os.Open(s.logPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ledger.Corrupt(name, err.Error())
	}
	defer f.Close()
	return readLogRecords(f, name)
}

func readLogRecords(r io.Reader, name string) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = logFields
	records, err := cr.ReadAll()
	if err != nil {
		return nil, ledger.Corrupt(name, err.Error())
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var log []model.Transaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, ledger.Corrupt(name, fmt.Sprintf("log row %d: %s", i+2, err))
		}
		log = append(log, tx)
	}
	return log, nil
}

func (s *Store) writeLog(name string, log []model.Transaction) error {
	f, err := os.Create(s.logPath(name))
	if err != nil {
		return fmt.Errorf("writing log for %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()
	if err := cw.Write(strings.Split(LogHeader, ",")); err != nil {
		return fmt.Errorf("writing log header: %w", err)
	}
	for _, tx := range log {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing log row %d: %w", tx.SeqID, err)
		}
	}
	return cw.Error()
}

func findRow(rows []indexRow, name string) (indexRow, bool) {
	for _, row := range rows {
		if row.Name == name {
			return row, true
		}
	}
	return indexRow{}, false
}

var _ ledger.Store = (*Store)(nil)
