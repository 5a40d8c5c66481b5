package service

import (
	"context"

	"laundering-ring-detector/internal/domain/entity"
)

// AnalysisService defines the interface for ring detection runs
type AnalysisService interface {
	// Analyze validates a transaction batch and runs the full detection pipeline
	Analyze(ctx context.Context, transactions []entity.Transaction) (*entity.AnalysisResult, error)

	// AnalyzeRange loads transactions inside the time range and analyzes them
	AnalyzeRange(ctx context.Context, window entity.TimeRange) (*entity.AnalysisResult, error)
}
