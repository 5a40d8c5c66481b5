package entity

// AccountNode represents an account in the transaction graph
type AccountNode struct {
	ID          string        `json:"id"`
	RiskScore   float64       `json:"risk_score"` // 0 - 100
	Flagged     bool          `json:"flagged"`
	Whitelisted bool          `json:"whitelisted"`
	Patterns    []PatternType `json:"patterns"`
	RingIDs     []string      `json:"ring_ids"`

	// Graph metrics
	InDegree       int     `json:"in_degree"`
	OutDegree      int     `json:"out_degree"`
	TotalInVolume  float64 `json:"total_in_volume"`
	TotalOutVolume float64 `json:"total_out_volume"`

	// Indexes into AnalysisResult.Transactions touching this account
	Transactions []int `json:"-"`
}

// TotalDegree returns in-degree plus out-degree
func (a *AccountNode) TotalDegree() int {
	return a.InDegree + a.OutDegree
}

// HasPattern checks whether the pattern was already recorded for the account
func (a *AccountNode) HasPattern(p PatternType) bool {
	for _, existing := range a.Patterns {
		if existing == p {
			return true
		}
	}
	return false
}

// HasRing checks whether the account is already a member of the ring
func (a *AccountNode) HasRing(ringID string) bool {
	for _, existing := range a.RingIDs {
		if existing == ringID {
			return true
		}
	}
	return false
}
