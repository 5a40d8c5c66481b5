package analysis

import (
	"context"

	"laundering-ring-detector/internal/domain/entity"
)

// Detector finds one family of patterns over a read-only graph.
// Implementations must not mutate the graph; truncated is true when the
// search budget ran out and the returned rings are partial.
type Detector interface {
	Name() string
	Detect(ctx context.Context, g *Graph) (rings []*entity.FraudRing, truncated bool)
}

func newRing(pattern entity.PatternType, members []string, risk, volume float64, details string) *entity.FraudRing {
	return &entity.FraudRing{
		RingID:      RingID(pattern, members),
		PatternType: pattern,
		RiskScore:   risk,
		MemberIDs:   members,
		Details:     details,
		TotalVolume: volume,
	}
}
