package entity

// AnalysisSummary represents the counters of one analysis run
type AnalysisSummary struct {
	AccountsAnalyzed        int      `json:"accounts_analyzed"`
	AccountsFlagged         int      `json:"accounts_flagged"`
	RingsDetected           int      `json:"rings_detected"`
	ElapsedSeconds          float64  `json:"elapsed_seconds"`
	TotalTransactions       int      `json:"total_transactions"`
	TotalVolume             float64  `json:"total_volume"`
	WhitelistedAccountCount int      `json:"whitelisted_account_count"`
	SkippedTransactions     int      `json:"skipped_transactions"`
	TruncatedDetectors      []string `json:"truncated_detectors,omitempty"`
}

// Diagnostic records an input row rejected before graph construction
type Diagnostic struct {
	TransactionID string `json:"transaction_id"`
	Index         int    `json:"index"`
	Reason        string `json:"reason"`
}

// AnalysisResult represents the compiled output of one analysis run
type AnalysisResult struct {
	RunID              string          `json:"run_id,omitempty"`
	Transactions       []Transaction   `json:"transactions"`
	SuspiciousAccounts []*AccountNode  `json:"suspicious_accounts"`
	FraudRings         []*FraudRing    `json:"fraud_rings"`
	Summary            AnalysisSummary `json:"summary"`
	Diagnostics        []Diagnostic    `json:"diagnostics,omitempty"`
}
