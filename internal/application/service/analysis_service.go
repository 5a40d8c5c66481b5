package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"laundering-ring-detector/internal/domain/analysis"
	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/domain/repository"
	"laundering-ring-detector/internal/domain/service"
	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/logger"
	"laundering-ring-detector/internal/infrastructure/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrBatchTooLarge is returned when a batch exceeds app.max_batch_size
	ErrBatchTooLarge = errors.New("transaction batch too large")

	// ErrInvalidRange is returned when a time range is empty or inverted
	ErrInvalidRange = errors.New("invalid time range")
)

// AnalysisApplicationService implements AnalysisService interface
type AnalysisApplicationService struct {
	engine          *analysis.Engine
	transactionRepo repository.TransactionRepository
	metrics         *metrics.Metrics
	validate        *validator.Validate
	maxBatchSize    int
	fetchLimit      int
	logger          *logger.Logger
}

// NewAnalysisApplicationService creates a new analysis application service.
// transactionRepo and m may be nil.
func NewAnalysisApplicationService(
	engine *analysis.Engine,
	transactionRepo repository.TransactionRepository,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *logger.Logger,
) service.AnalysisService {
	return &AnalysisApplicationService{
		engine:          engine,
		transactionRepo: transactionRepo,
		metrics:         m,
		validate:        validator.New(),
		maxBatchSize:    cfg.App.MaxBatchSize,
		fetchLimit:      cfg.Neo4J.FetchLimit,
		logger:          logger.WithComponent("analysis-service"),
	}
}

// Analyze validates a transaction batch and runs the full detection pipeline
func (s *AnalysisApplicationService) Analyze(ctx context.Context, transactions []entity.Transaction) (*entity.AnalysisResult, error) {
	runID := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{"run_id": runID})

	if s.maxBatchSize > 0 && len(transactions) > s.maxBatchSize {
		s.observeFailure()
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(transactions), s.maxBatchSize)
	}

	log.Info("Starting analysis run", zap.Int("transactions", len(transactions)))

	accepted, diagnostics := s.Sanitize(transactions)
	for _, d := range diagnostics {
		log.Warn("Rejected transaction",
			zap.String("transaction_id", d.TransactionID),
			zap.Int("index", d.Index),
			zap.String("reason", d.Reason))
	}

	result, err := s.engine.Analyze(ctx, accepted)
	if err != nil {
		s.observeFailure()
		return nil, fmt.Errorf("failed to analyze transactions: %w", err)
	}

	result.RunID = runID
	result.Diagnostics = diagnostics
	result.Summary.SkippedTransactions = len(diagnostics)

	if s.metrics != nil {
		s.metrics.ObserveResult(result)
	}

	log.Info("Analysis run finished",
		zap.Int("rings", result.Summary.RingsDetected),
		zap.Int("flagged_accounts", result.Summary.AccountsFlagged),
		zap.Int("skipped_transactions", result.Summary.SkippedTransactions))

	return result, nil
}

// AnalyzeRange loads transactions inside the time range and analyzes them
func (s *AnalysisApplicationService) AnalyzeRange(ctx context.Context, window entity.TimeRange) (*entity.AnalysisResult, error) {
	if s.transactionRepo == nil {
		return nil, repository.ErrSourceUnavailable
	}
	if !window.To.After(window.From) {
		return nil, fmt.Errorf("%w: %s - %s", ErrInvalidRange, window.From, window.To)
	}

	transactions, err := s.transactionRepo.GetTransactionsByTimeRange(ctx, window, s.fetchLimit)
	if err != nil {
		s.observeFailure()
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if s.fetchLimit > 0 && len(transactions) >= s.fetchLimit {
		total, err := s.transactionRepo.CountTransactions(ctx, window)
		if err != nil {
			s.logger.Warn("Failed to count transactions in range", zap.Error(err))
		}
		s.logger.Warn("Transaction fetch hit the configured limit, range is only partially analyzed",
			zap.Int("limit", s.fetchLimit),
			zap.Int64("stored", total))
	}

	// drop rows the store returned outside [From, To)
	inRange := make([]entity.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if window.Contains(tx.Timestamp) {
			inRange = append(inRange, tx)
		}
	}

	return s.Analyze(ctx, inRange)
}

// Sanitize splits a batch into well-formed records and diagnostics for the
// rejected ones. Order of accepted records is preserved.
func (s *AnalysisApplicationService) Sanitize(transactions []entity.Transaction) ([]entity.Transaction, []entity.Diagnostic) {
	accepted := make([]entity.Transaction, 0, len(transactions))
	var diagnostics []entity.Diagnostic

	for i, tx := range transactions {
		if reason := s.check(tx); reason != "" {
			diagnostics = append(diagnostics, entity.Diagnostic{
				TransactionID: tx.ID,
				Index:         i,
				Reason:        reason,
			})
			continue
		}
		accepted = append(accepted, tx)
	}
	return accepted, diagnostics
}

func (s *AnalysisApplicationService) check(tx entity.Transaction) string {
	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return "amount is not a finite number"
	}
	if tx.Timestamp.IsZero() {
		return "timestamp is missing"
	}
	if err := s.validate.Struct(tx); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag())
		}
		return err.Error()
	}
	return ""
}

func (s *AnalysisApplicationService) observeFailure() {
	if s.metrics != nil {
		s.metrics.ObserveFailure()
	}
}
