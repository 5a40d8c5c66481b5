package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"laundering-ring-detector/internal/domain/analysis"
	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/domain/repository"
	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/logger"
	"laundering-ring-detector/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeTransactionRepo struct {
	transactions []entity.Transaction
	err          error
	gotWindow    entity.TimeRange
	gotLimit     int
}

func (f *fakeTransactionRepo) GetTransactionsByTimeRange(ctx context.Context, window entity.TimeRange, limit int) ([]entity.Transaction, error) {
	f.gotWindow = window
	f.gotLimit = limit
	return f.transactions, f.err
}

func (f *fakeTransactionRepo) CountTransactions(ctx context.Context, window entity.TimeRange) (int64, error) {
	return int64(len(f.transactions)), f.err
}

func cycleTransactions() []entity.Transaction {
	return []entity.Transaction{
		{ID: "T1", SenderID: "A", ReceiverID: "B", Amount: 5000, Timestamp: t0},
		{ID: "T2", SenderID: "B", ReceiverID: "C", Amount: 4800, Timestamp: t0.Add(time.Hour)},
		{ID: "T3", SenderID: "C", ReceiverID: "D", Amount: 4600, Timestamp: t0.Add(2 * time.Hour)},
		{ID: "T4", SenderID: "D", ReceiverID: "A", Amount: 4500, Timestamp: t0.Add(3 * time.Hour)},
	}
}

func newTestService(t *testing.T, repo repository.TransactionRepository, m *metrics.Metrics) *AnalysisApplicationService {
	t.Helper()
	log := logger.New(zaptest.NewLogger(t))
	engine, err := analysis.NewEngine(analysis.DefaultConfig(), log)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.MaxBatchSize = 10
	cfg.Neo4J.FetchLimit = 100

	return NewAnalysisApplicationService(engine, repo, m, cfg, log).(*AnalysisApplicationService)
}

func TestAnalysisService_Analyze(t *testing.T) {
	m := metrics.NewMetrics(nil)
	svc := newTestService(t, nil, m)

	result, err := svc.Analyze(context.Background(), cycleTransactions())

	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 4, result.Summary.AccountsFlagged)
	assert.Zero(t, result.Summary.SkippedTransactions)
	count, err := testutil.GatherAndCount(m.Registry(), "ring_detector_analysis_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAnalysisService_SkipsMalformedRows(t *testing.T) {
	txs := append(cycleTransactions(),
		entity.Transaction{ID: "bad-amount", SenderID: "A", ReceiverID: "B", Amount: math.NaN(), Timestamp: t0},
		entity.Transaction{ID: "negative", SenderID: "A", ReceiverID: "B", Amount: -1, Timestamp: t0},
		entity.Transaction{ID: "no-sender", ReceiverID: "B", Amount: 1, Timestamp: t0},
		entity.Transaction{ID: "no-time", SenderID: "A", ReceiverID: "B", Amount: 1},
		entity.Transaction{ID: "inf", SenderID: "A", ReceiverID: "B", Amount: math.Inf(1), Timestamp: t0},
	)
	svc := newTestService(t, nil, nil)

	result, err := svc.Analyze(context.Background(), txs)

	require.NoError(t, err)
	assert.Equal(t, 4, result.Summary.TotalTransactions)
	assert.Equal(t, 5, result.Summary.SkippedTransactions)
	require.Len(t, result.Diagnostics, 5)

	ids := make([]string, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		ids[i] = d.TransactionID
		assert.NotEmpty(t, d.Reason)
	}
	assert.Equal(t, []string{"bad-amount", "negative", "no-sender", "no-time", "inf"}, ids)
	assert.Equal(t, 4, result.Diagnostics[0].Index)
	assert.Contains(t, result.Diagnostics[2].Reason, "SenderID")
}

func TestAnalysisService_BatchTooLarge(t *testing.T) {
	svc := newTestService(t, nil, nil)
	txs := make([]entity.Transaction, 11)

	_, err := svc.Analyze(context.Background(), txs)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestAnalysisService_CancelledContext(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, cycleTransactions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalysisService_AnalyzeRange(t *testing.T) {
	repo := &fakeTransactionRepo{transactions: cycleTransactions()}
	svc := newTestService(t, repo, nil)
	window := entity.TimeRange{From: t0, To: t0.Add(24 * time.Hour)}

	result, err := svc.AnalyzeRange(context.Background(), window)

	require.NoError(t, err)
	assert.Equal(t, window, repo.gotWindow)
	assert.Equal(t, 100, repo.gotLimit)
	assert.Equal(t, 4, result.Summary.TotalTransactions)
}

func TestAnalysisService_AnalyzeRangeErrors(t *testing.T) {
	window := entity.TimeRange{From: t0, To: t0.Add(time.Hour)}

	_, err := newTestService(t, nil, nil).AnalyzeRange(context.Background(), window)
	assert.ErrorIs(t, err, repository.ErrSourceUnavailable)

	repo := &fakeTransactionRepo{}
	_, err = newTestService(t, repo, nil).AnalyzeRange(context.Background(), entity.TimeRange{From: t0, To: t0})
	assert.ErrorIs(t, err, ErrInvalidRange)

	boom := errors.New("boom")
	repo = &fakeTransactionRepo{err: boom}
	_, err = newTestService(t, repo, nil).AnalyzeRange(context.Background(), window)
	assert.ErrorIs(t, err, boom)
}

func TestAnalysisService_Sanitize(t *testing.T) {
	svc := newTestService(t, nil, nil)
	input := []entity.Transaction{
		{ID: "ok", SenderID: "A", ReceiverID: "B", Amount: 1, Timestamp: t0},
		{ID: "zero", SenderID: "A", ReceiverID: "B", Amount: 0, Timestamp: t0},
		{ID: "self", SenderID: "A", ReceiverID: "A", Amount: 1, Timestamp: t0},
	}

	accepted, diags := svc.Sanitize(input)

	require.Len(t, accepted, 2)
	assert.Equal(t, "ok", accepted[0].ID)
	assert.Equal(t, "self", accepted[1].ID)
	require.Len(t, diags, 1)
	assert.Equal(t, "zero", diags[0].TransactionID)
	assert.Equal(t, 1, diags[0].Index)
}
