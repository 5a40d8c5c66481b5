package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestReader(t *testing.T, cfg *config.IngestConfig) *CSVReader {
	return NewCSVReader(cfg, logger.New(zaptest.NewLogger(t)))
}

func TestCSVReader_Read(t *testing.T) {
	input := "transaction_id,sender_id,receiver_id,amount,timestamp\n" +
		"T1,A,B,5000.00,2024-03-01 09:00:00\n" +
		"T2, B , C ,4800.5,2024-03-01T10:00:00Z\n"

	txs, diags, err := newTestReader(t, nil).Read(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, txs, 2)

	assert.Equal(t, "T1", txs[0].ID)
	assert.Equal(t, "A", txs[0].SenderID)
	assert.Equal(t, 5000.0, txs[0].Amount)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), txs[0].Timestamp)

	assert.Equal(t, "B", txs[1].SenderID)
	assert.Equal(t, "C", txs[1].ReceiverID)
	assert.Equal(t, 4800.5, txs[1].Amount)
}

func TestCSVReader_ColumnOrderAndBOM(t *testing.T) {
	input := "\ufeffTimestamp,Amount,Receiver_ID,Sender_ID,Transaction_ID\n" +
		"2024-03-01T09:00:00,10,B,A,T1\n"

	txs, _, err := newTestReader(t, nil).Read(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "A", txs[0].SenderID)
	assert.Equal(t, "B", txs[0].ReceiverID)
}

func TestCSVReader_MissingColumn(t *testing.T) {
	_, _, err := newTestReader(t, nil).Read(strings.NewReader("transaction_id,sender_id,amount,timestamp\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCSVReader_EmptyInput(t *testing.T) {
	txs, diags, err := newTestReader(t, nil).Read(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Empty(t, diags)
}

func TestCSVReader_BadRowsBecomeDiagnostics(t *testing.T) {
	input := "transaction_id,sender_id,receiver_id,amount,timestamp\n" +
		"T1,A,B,abc,2024-03-01 09:00:00\n" +
		"T2,A,B,-5,2024-03-01 09:00:00\n" +
		"T3,A,B,10,yesterday\n" +
		"T4,A,B,10,2024-03-01 09:00:00\n" +
		"T5,A,B,NaN,2024-03-01 09:00:00\n"

	txs, diags, err := newTestReader(t, nil).Read(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "T4", txs[0].ID)

	require.Len(t, diags, 4)
	assert.Equal(t, "T1", diags[0].TransactionID)
	assert.Equal(t, 1, diags[0].Index)
	assert.Equal(t, "T2", diags[1].TransactionID)
	assert.Equal(t, "T3", diags[2].TransactionID)
	assert.Contains(t, diags[2].Reason, "invalid timestamp")
	assert.Equal(t, 5, diags[3].Index)
}

func TestCSVReader_CustomDelimiterAndLayout(t *testing.T) {
	cfg := &config.IngestConfig{Delimiter: ";", TimestampLayout: "02/01/2006 15:04"}
	input := "transaction_id;sender_id;receiver_id;amount;timestamp\n" +
		"T1;A;B;12.5;01/03/2024 09:30\n"

	txs, diags, err := newTestReader(t, cfg).Read(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, txs, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), txs[0].Timestamp)
}

func TestCSVReader_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte("transaction_id,sender_id,receiver_id,amount,timestamp\nT1,A,B,1,2024-03-01 09:00:00\n"), 0o600))

	txs, _, err := newTestReader(t, nil).ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	_, _, err = newTestReader(t, nil).ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"400", 400, false},
		{"4800.55", 4800.55, false},
		{"1e3", 1000, false},
		{"", 0, true},
		{"0", 0, true},
		{"-1", 0, true},
		{"Inf", 0, true},
		{"12,5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
