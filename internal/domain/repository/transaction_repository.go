package repository

import (
	"context"
	"errors"

	"laundering-ring-detector/internal/domain/entity"
)

// ErrSourceUnavailable is returned when no transaction store is configured
var ErrSourceUnavailable = errors.New("transaction source unavailable")

// TransactionRepository defines read access to stored transfers
type TransactionRepository interface {
	// GetTransactionsByTimeRange retrieves transfers inside [from, to), oldest first
	GetTransactionsByTimeRange(ctx context.Context, window entity.TimeRange, limit int) ([]entity.Transaction, error)

	// CountTransactions returns the number of stored transfers inside the range
	CountTransactions(ctx context.Context, window entity.TimeRange) (int64, error)
}
