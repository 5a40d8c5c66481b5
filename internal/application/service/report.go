package service

import (
	"laundering-ring-detector/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// SuspiciousAccountOutput is the exported view of one ranked account
type SuspiciousAccountOutput struct {
	AccountID        string               `json:"account_id"`
	SuspicionScore   float64              `json:"suspicion_score"`
	DetectedPatterns []entity.PatternType `json:"detected_patterns"`
	RingIDs          []string             `json:"ring_id"`
	Whitelisted      bool                 `json:"whitelisted,omitempty"`
}

// FraudRingOutput is the exported view of one ring
type FraudRingOutput struct {
	RingID         string             `json:"ring_id"`
	MemberAccounts []string           `json:"member_accounts"`
	PatternType    entity.PatternType `json:"pattern_type"`
	RiskScore      float64            `json:"risk_score"`
	TotalVolume    decimal.Decimal    `json:"total_volume"`
	Details        string             `json:"details,omitempty"`
}

// SummaryOutput is the exported run summary
type SummaryOutput struct {
	TotalAccountsAnalyzed   int             `json:"total_accounts_analyzed"`
	SuspiciousAccounts      int             `json:"suspicious_accounts_flagged"`
	FraudRingsDetected      int             `json:"fraud_rings_detected"`
	ProcessingTimeSeconds   float64         `json:"processing_time_seconds"`
	TotalTransactions       int             `json:"total_transactions"`
	TotalVolume             decimal.Decimal `json:"total_volume"`
	WhitelistedAccountCount int             `json:"whitelisted_accounts"`
	SkippedTransactions     int             `json:"skipped_transactions"`
	TruncatedDetectors      []string        `json:"truncated_detectors,omitempty"`
}

// Report is the flattened, presentation-ready form of an analysis result
type Report struct {
	RunID              string                    `json:"run_id,omitempty"`
	SuspiciousAccounts []SuspiciousAccountOutput `json:"suspicious_accounts"`
	FraudRings         []FraudRingOutput         `json:"fraud_rings"`
	Summary            SummaryOutput             `json:"summary"`
	Diagnostics        []entity.Diagnostic       `json:"diagnostics,omitempty"`
}

// Scores are rounded to one decimal, volumes to cents.
const (
	scorePlaces  = 1
	volumePlaces = 2
)

// BuildReport flattens an analysis result for export
func BuildReport(result *entity.AnalysisResult) *Report {
	report := &Report{
		RunID:              result.RunID,
		SuspiciousAccounts: make([]SuspiciousAccountOutput, 0, len(result.SuspiciousAccounts)),
		FraudRings:         make([]FraudRingOutput, 0, len(result.FraudRings)),
		Diagnostics:        result.Diagnostics,
	}

	for _, account := range result.SuspiciousAccounts {
		report.SuspiciousAccounts = append(report.SuspiciousAccounts, SuspiciousAccountOutput{
			AccountID:        account.ID,
			SuspicionScore:   roundFloat(account.RiskScore, scorePlaces),
			DetectedPatterns: append([]entity.PatternType{}, account.Patterns...),
			RingIDs:          append([]string{}, account.RingIDs...),
			Whitelisted:      account.Whitelisted,
		})
	}

	for _, ring := range result.FraudRings {
		report.FraudRings = append(report.FraudRings, FraudRingOutput{
			RingID:         ring.RingID,
			MemberAccounts: ring.MemberIDs,
			PatternType:    ring.PatternType,
			RiskScore:      roundFloat(ring.RiskScore, scorePlaces),
			TotalVolume:    decimal.NewFromFloat(ring.TotalVolume).Round(volumePlaces),
			Details:        ring.Details,
		})
	}

	summary := result.Summary
	report.Summary = SummaryOutput{
		TotalAccountsAnalyzed:   summary.AccountsAnalyzed,
		SuspiciousAccounts:      summary.AccountsFlagged,
		FraudRingsDetected:      summary.RingsDetected,
		ProcessingTimeSeconds:   roundFloat(summary.ElapsedSeconds, 3),
		TotalTransactions:       summary.TotalTransactions,
		TotalVolume:             sumVolume(result.Transactions).Round(volumePlaces),
		WhitelistedAccountCount: summary.WhitelistedAccountCount,
		SkippedTransactions:     summary.SkippedTransactions,
		TruncatedDetectors:      summary.TruncatedDetectors,
	}

	return report
}

// sumVolume adds amounts in decimal to avoid float drift on large batches
func sumVolume(transactions []entity.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		total = total.Add(decimal.NewFromFloat(tx.Amount))
	}
	return total
}

func roundFloat(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
