// Package audit keeps an append-only CSV trail of every command the process
// handled, one file per data directory.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	GuildID   string
	Actor     string
	Action    string // verb handled, or "ocr-pay" / "undo"
	Account   string
	SeqID     int // sequence id of the resulting transaction, -1 when none
	Details   string
}

// Header is the CSV header for audit.csv.
const Header = "timestamp,guild,actor,action,account,seq_id,details"

const (
	numFields  = 7
	logFile    = "audit.csv"
	colTime    = 0
	colGuild   = 1
	colActor   = 2
	colAction  = 3
	colAccount = 4
	colSeqID   = 5
	colDetails = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTime] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colGuild] = e.GuildID
	row[colActor] = e.Actor
	row[colAction] = e.Action
	row[colAccount] = e.Account
	row[colSeqID] = strconv.Itoa(e.SeqID)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}
	seq, err := strconv.Atoi(record[colSeqID])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing seq_id %q: %w", record[colSeqID], err)
	}

	return Entry{
		Timestamp: ts,
		GuildID:   record[colGuild],
		Actor:     record[colActor],
		Action:    record[colAction],
		Account:   record[colAccount],
		SeqID:     seq,
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to <dataDir>/audit.csv, creating the file and header
// if needed.
func Append(dataDir string, entries []Entry) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	return cw.Error()
}

// Read returns all entries from <dataDir>/audit.csv. Returns nil if the file
// does not exist.
func Read(dataDir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dataDir, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
