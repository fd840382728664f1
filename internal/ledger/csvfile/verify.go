package csvfile

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError describes a single consistency violation found on disk.
type ValidationError struct {
	Account     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s]: %s", e.Account, e.Description)
}

// Verify checks the on-disk state for internal consistency: duplicate index
// entries, logs that cannot be read, sequence ids out of order or beyond the
// recorded counter, and log files with no index entry. It reports violations
// rather than failing on the first one.
func (s *Store) Verify() ([]ValidationError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	var errs []ValidationError
	seen := make(map[string]bool, len(idx))

	for _, row := range idx {
		if seen[row.Name] {
			errs = append(errs, ValidationError{row.Name, "duplicate index entry"})
			continue
		}
		seen[row.Name] = true

		if row.NextSeq < 0 {
			errs = append(errs, ValidationError{row.Name, fmt.Sprintf("negative next_seq %d", row.NextSeq)})
		}

		log, err := s.readLog(row.Name)
		if err != nil {
			errs = append(errs, ValidationError{row.Name, err.Error()})
			continue
		}

		prev := -1
		for _, tx := range log {
			if tx.SeqID <= prev {
				errs = append(errs, ValidationError{row.Name,
					fmt.Sprintf("seq_id %d not strictly increasing after %d", tx.SeqID, prev)})
			}
			if tx.SeqID >= row.NextSeq {
				errs = append(errs, ValidationError{row.Name,
					fmt.Sprintf("seq_id %d at or beyond next_seq %d", tx.SeqID, row.NextSeq)})
			}
			prev = tx.SeqID
		}
	}

	// Logs present on disk but absent from the index.
	entries, err := os.ReadDir(filepath.Join(s.root, logsDir))
	if err != nil {
		return nil, fmt.Errorf("listing logs dir: %w", err)
	}
	for _, entry := range entries {
		base := strings.TrimSuffix(entry.Name(), ".csv")
		name, err := url.PathUnescape(base)
		if err != nil {
			name = base
		}
		if !seen[name] {
			errs = append(errs, ValidationError{name, "log file has no index entry"})
		}
	}

	return errs, nil
}
