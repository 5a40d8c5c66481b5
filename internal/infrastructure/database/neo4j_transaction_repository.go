package database

import (
	"context"
	"fmt"
	"time"

	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/domain/repository"
	"laundering-ring-detector/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4JTransactionRepository implements TransactionRepository over
// (:Account)-[:SENT_TO]->(:Account) relationships
type Neo4JTransactionRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JTransactionRepository creates a new Neo4J transaction repository
func NewNeo4JTransactionRepository(client *Neo4JClient, logger *logger.Logger) repository.TransactionRepository {
	return &Neo4JTransactionRepository{
		client: client,
		logger: logger.WithComponent("neo4j-transaction-repo"),
	}
}

// defaultFetchLimit applies when no positive limit is configured
const defaultFetchLimit = 500_000

const transactionsByTimeRangeQuery = `
	MATCH (from:Account)-[r:SENT_TO]->(to:Account)
	WHERE r.timestamp >= datetime($start_time) AND r.timestamp < datetime($end_time)
	RETURN r.tx_id, from.id, to.id, r.amount, r.timestamp
	ORDER BY r.timestamp ASC
	LIMIT $limit
`

const countTransactionsQuery = `
	MATCH (:Account)-[r:SENT_TO]->(:Account)
	WHERE r.timestamp >= datetime($start_time) AND r.timestamp < datetime($end_time)
	RETURN count(r)
`

// GetTransactionsByTimeRange retrieves transfers inside [from, to), oldest first
func (r *Neo4JTransactionRepository) GetTransactionsByTimeRange(ctx context.Context, window entity.TimeRange, limit int) ([]entity.Transaction, error) {
	if !r.client.Enabled() || r.client.GetDriver() == nil {
		return nil, repository.ErrSourceUnavailable
	}

	session := r.client.newReadSession(ctx)
	defer session.Close(ctx)

	if limit <= 0 {
		limit = defaultFetchLimit
	}
	params := rangeParams(window)
	params["limit"] = limit

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, transactionsByTimeRangeQuery, params)
		if err != nil {
			return nil, err
		}

		var transactions []entity.Transaction
		for records.Next(ctx) {
			t, err := recordToTransaction(records.Record())
			if err != nil {
				return nil, err
			}
			transactions = append(transactions, t)
		}
		return transactions, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by time range: %w", err)
	}

	transactions, _ := result.([]entity.Transaction)
	r.logger.Info("Loaded transactions from Neo4J",
		zap.Time("from", window.From),
		zap.Time("to", window.To),
		zap.Int("count", len(transactions)))

	return transactions, nil
}

// CountTransactions returns the number of stored transfers inside the range
func (r *Neo4JTransactionRepository) CountTransactions(ctx context.Context, window entity.TimeRange) (int64, error) {
	if !r.client.Enabled() || r.client.GetDriver() == nil {
		return 0, repository.ErrSourceUnavailable
	}

	session := r.client.newReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, countTransactionsQuery, rangeParams(window))
		if err != nil {
			return nil, err
		}
		record, err := records.Single(ctx)
		if err != nil {
			return nil, err
		}
		return record.Values[0], nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", result)
	}
	return count, nil
}

func rangeParams(window entity.TimeRange) map[string]interface{} {
	// Format the timestamps as ISO-8601 strings for Neo4J
	return map[string]interface{}{
		"start_time": window.From.UTC().Format("2006-01-02T15:04:05.000Z"),
		"end_time":   window.To.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

// recordToTransaction maps a (tx_id, from, to, amount, timestamp) row
func recordToTransaction(record *neo4j.Record) (entity.Transaction, error) {
	values := record.Values
	if len(values) != 5 {
		return entity.Transaction{}, fmt.Errorf("unexpected column count %d", len(values))
	}

	id, _ := values[0].(string)
	sender, _ := values[1].(string)
	receiver, _ := values[2].(string)

	amount, err := toFloat(values[3])
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("transaction %s: %w", id, err)
	}
	ts, err := toTime(values[4])
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("transaction %s: %w", id, err)
	}

	return entity.Transaction{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     amount,
		Timestamp:  ts,
	}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unexpected amount type %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case neo4j.LocalDateTime:
		return t.Time(), nil
	case string:
		return time.Parse(time.RFC3339, t)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}
