package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Required CSV columns
const (
	ColumnTransactionID = "transaction_id"
	ColumnSenderID      = "sender_id"
	ColumnReceiverID    = "receiver_id"
	ColumnAmount        = "amount"
	ColumnTimestamp     = "timestamp"
)

var requiredColumns = []string{ColumnTransactionID, ColumnSenderID, ColumnReceiverID, ColumnAmount, ColumnTimestamp}

// ErrMissingColumn is returned when the header lacks a required column
var ErrMissingColumn = errors.New("missing required column")

// Timestamp layouts tried in order when no explicit layout is configured
var defaultTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// CSVReader parses transaction exports into entity transactions
type CSVReader struct {
	delimiter rune
	layouts   []string
	logger    *logger.Logger
}

// NewCSVReader creates a new CSV reader
func NewCSVReader(cfg *config.IngestConfig, logger *logger.Logger) *CSVReader {
	r := &CSVReader{
		delimiter: ',',
		layouts:   defaultTimestampLayouts,
		logger:    logger.WithComponent("csv-reader"),
	}
	if cfg != nil {
		if d := []rune(cfg.Delimiter); len(d) == 1 {
			r.delimiter = d[0]
		}
		if cfg.TimestampLayout != "" {
			r.layouts = []string{cfg.TimestampLayout}
		}
	}
	return r
}

// ReadFile parses the CSV file at path
func (r *CSVReader) ReadFile(path string) ([]entity.Transaction, []entity.Diagnostic, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return r.Read(file)
}

// Read parses a CSV stream. Rows that cannot be parsed are skipped and
// reported as diagnostics; structural errors abort the read.
func (r *CSVReader) Read(src io.Reader) ([]entity.Transaction, []entity.Diagnostic, error) {
	reader := csv.NewReader(src)
	reader.Comma = r.delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []entity.Transaction{}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var transactions []entity.Transaction
	var diagnostics []entity.Diagnostic

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}

		tx, err := r.parseRecord(record, columns)
		if err != nil {
			diagnostics = append(diagnostics, entity.Diagnostic{
				TransactionID: field(record, columns[ColumnTransactionID]),
				Index:         row,
				Reason:        err.Error(),
			})
			continue
		}
		transactions = append(transactions, tx)
	}

	r.logger.Info("Parsed transaction CSV",
		zap.Int("transactions", len(transactions)),
		zap.Int("rejected_rows", len(diagnostics)))

	return transactions, diagnostics, nil
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[name] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return columns, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (r *CSVReader) parseRecord(record []string, columns map[string]int) (entity.Transaction, error) {
	tx := entity.Transaction{
		ID:         field(record, columns[ColumnTransactionID]),
		SenderID:   field(record, columns[ColumnSenderID]),
		ReceiverID: field(record, columns[ColumnReceiverID]),
	}

	amount, err := ParseAmount(field(record, columns[ColumnAmount]))
	if err != nil {
		return tx, err
	}
	tx.Amount = amount

	ts, err := r.parseTimestamp(field(record, columns[ColumnTimestamp]))
	if err != nil {
		return tx, err
	}
	tx.Timestamp = ts

	return tx, nil
}

// ParseAmount parses a decimal amount string. NaN and infinities are
// rejected by the decimal parser itself.
func ParseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("non-positive amount %q", raw)
	}
	return d.InexactFloat64(), nil
}

func (r *CSVReader) parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range r.layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
