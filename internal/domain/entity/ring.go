package entity

// PatternType represents a laundering topology detected in the account graph
type PatternType string

const (
	PatternCycle        PatternType = "CYCLE"         // Circular fund routing
	PatternFanIn        PatternType = "FAN_IN"        // Many senders -> one receiver
	PatternFanOut       PatternType = "FAN_OUT"       // One sender -> many receivers
	PatternLayeredShell PatternType = "LAYERED_SHELL" // Chain through low-activity accounts
)

// IsValid checks if the pattern type is one of the known topologies
func (p PatternType) IsValid() bool {
	switch p {
	case PatternCycle, PatternFanIn, PatternFanOut, PatternLayeredShell:
		return true
	default:
		return false
	}
}

// MinMembers returns the smallest legal member count for a ring of this type.
// Fan patterns depend on the configured counterparty threshold.
func (p PatternType) MinMembers(fanThreshold int) int {
	switch p {
	case PatternCycle:
		return 3
	case PatternFanIn, PatternFanOut:
		return fanThreshold + 1
	case PatternLayeredShell:
		return 4
	default:
		return 1
	}
}

// FraudRing represents a group of accounts taking part in one detected pattern
type FraudRing struct {
	RingID      string      `json:"ring_id"`
	PatternType PatternType `json:"pattern_type"`
	RiskScore   float64     `json:"risk_score"` // 0 - 100
	MemberIDs   []string    `json:"member_ids"`
	Details     string      `json:"details"`
	TotalVolume float64     `json:"total_volume"`
}
