package analysis

import (
	"math"

	"laundering-ring-detector/internal/domain/entity"
)

// RiskScorer folds deduplicated rings back onto their member accounts.
type RiskScorer struct {
	whitelistDegree int
}

// NewRiskScorer creates a scorer from the engine config
func NewRiskScorer(cfg Config) *RiskScorer {
	return &RiskScorer{whitelistDegree: cfg.WhitelistDegree}
}

// IsWhitelisted reports whether an account is a high-throughput entity
// excluded from scoring.
func (s *RiskScorer) IsWhitelisted(node *entity.AccountNode) bool {
	return node.TotalDegree() > s.whitelistDegree
}

// Score resets every node and applies the rings. Clamping happens once at
// the end so the outcome does not depend on ring order.
func (s *RiskScorer) Score(g *Graph, rings []*entity.FraudRing) {
	for _, node := range g.Nodes() {
		node.RiskScore = 0
		node.Patterns = node.Patterns[:0]
		node.RingIDs = node.RingIDs[:0]
		node.Flagged = false
		node.Whitelisted = s.IsWhitelisted(node)
	}

	for _, ring := range rings {
		for _, id := range ring.MemberIDs {
			idx, ok := g.Index(id)
			if !ok {
				continue
			}
			node := g.Node(idx)
			if node.Whitelisted {
				continue
			}
			if !node.HasPattern(ring.PatternType) {
				node.Patterns = append(node.Patterns, ring.PatternType)
			}
			if node.HasRing(ring.RingID) {
				continue
			}
			node.RingIDs = append(node.RingIDs, ring.RingID)
			node.RiskScore += ring.RiskScore * MemberScoreFactor
		}
	}

	for _, node := range g.Nodes() {
		if len(node.Patterns) > 1 {
			node.RiskScore += MultiPatternBonus
		}
		node.RiskScore = clampScore(node.RiskScore)
		node.Flagged = node.RiskScore > 0
	}
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, v))
}
