package csvfile

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mott-dev/mott/internal/model"
)

// LogHeader is the CSV header for a per-account log file.
const LogHeader = "seq_id,timestamp,actor,value,verified,correlation_key"

const (
	logFields  = 6
	timeFormat = time.RFC3339
	colSeqID   = 0
	colTime    = 1
	colActor   = 2
	colValue   = 3
	colVerif   = 4
	colCorrKey = 5
)

// IndexHeader is the CSV header for accounts.csv.
const IndexHeader = "account_name,owning_role,next_seq"

const (
	indexFields = 3
	colName     = 0
	colRole     = 1
	colNextSeq  = 2
)

// indexRow is one account record in accounts.csv.
type indexRow struct {
	Name       string
	OwningRole string
	NextSeq    int
}

// MarshalTransaction converts a transaction to a log CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, logFields)
	row[colSeqID] = strconv.Itoa(tx.SeqID)
	row[colTime] = tx.Timestamp.UTC().Format(timeFormat)
	row[colActor] = tx.Actor
	row[colValue] = tx.Value.String()
	row[colVerif] = strconv.FormatBool(tx.Verified)
	row[colCorrKey] = tx.CorrelationKey
	return row
}

// UnmarshalTransaction converts a log CSV row to a transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != logFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", logFields, len(record))
	}

	seq, err := strconv.Atoi(record[colSeqID])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing seq_id %q: %w", record[colSeqID], err)
	}

	ts, err := time.Parse(timeFormat, record[colTime])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}

	value, err := decimal.NewFromString(record[colValue])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing value %q: %w", record[colValue], err)
	}

	verified, err := strconv.ParseBool(record[colVerif])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing verified %q: %w", record[colVerif], err)
	}

	return model.Transaction{
		SeqID:          seq,
		Timestamp:      ts,
		Actor:          record[colActor],
		Value:          value,
		Verified:       verified,
		CorrelationKey: record[colCorrKey],
	}, nil
}

func marshalIndexRow(row indexRow) []string {
	rec := make([]string, indexFields)
	rec[colName] = row.Name
	rec[colRole] = row.OwningRole
	rec[colNextSeq] = strconv.Itoa(row.NextSeq)
	return rec
}

func unmarshalIndexRow(record []string) (indexRow, error) {
	if len(record) != indexFields {
		return indexRow{}, fmt.Errorf("expected %d fields, got %d", indexFields, len(record))
	}
	nextSeq, err := strconv.Atoi(record[colNextSeq])
	if err != nil {
		return indexRow{}, fmt.Errorf("parsing next_seq %q: %w", record[colNextSeq], err)
	}
	return indexRow{
		Name:       record[colName],
		OwningRole: record[colRole],
		NextSeq:    nextSeq,
	}, nil
}
