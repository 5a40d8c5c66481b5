package analysis

import (
	"context"
	"fmt"
	"math"

	"laundering-ring-detector/internal/domain/entity"
)

// CycleDetector reports simple directed cycles of bounded length.
type CycleDetector struct {
	minLength int
	maxLength int
	maxVisits int
}

// NewCycleDetector creates a cycle detector from the engine config
func NewCycleDetector(cfg Config) *CycleDetector {
	return &CycleDetector{
		minLength: cfg.MinCycleLength,
		maxLength: cfg.MaxCycleLength,
		maxVisits: cfg.MaxSearchVisits,
	}
}

func (d *CycleDetector) Name() string { return "cycle" }

// CycleRisk returns the risk score of a cycle with the given hop count.
func CycleRisk(length int) float64 {
	return math.Min(MaxScore, CycleRiskBase+CycleRiskPerHop*float64(length))
}

type cycleSearch struct {
	g       *Graph
	d       *CycleDetector
	b       *budget
	start   int32
	onPath  []bool
	path    []int32
	results []*entity.FraudRing
}

// Detect runs a depth-limited DFS from every node that has both inbound and
// outbound edges. A cycle is only walked from its smallest-index member, so
// every rotation is enumerated once.
func (d *CycleDetector) Detect(ctx context.Context, g *Graph) ([]*entity.FraudRing, bool) {
	s := &cycleSearch{
		g:      g,
		d:      d,
		b:      newBudget(ctx, d.maxVisits),
		onPath: make([]bool, g.Len()),
		path:   make([]int32, 0, d.maxLength),
	}

	for idx := int32(0); int(idx) < g.Len(); idx++ {
		node := g.Node(idx)
		if node.OutDegree == 0 || node.InDegree == 0 {
			continue
		}
		s.start = idx
		s.walk(idx)
		if s.b.truncated() {
			break
		}
	}
	return s.results, s.b.truncated()
}

func (s *cycleSearch) walk(curr int32) {
	if !s.b.visit() {
		return
	}
	s.onPath[curr] = true
	s.path = append(s.path, curr)
	depth := len(s.path)

	for _, next := range s.g.successors[curr] {
		if next == s.start {
			if depth >= s.d.minLength {
				s.emit()
			}
			continue
		}
		if next < s.start || s.onPath[next] || depth >= s.d.maxLength {
			continue
		}
		s.walk(next)
		if s.b.truncated() {
			break
		}
	}

	s.path = s.path[:len(s.path)-1]
	s.onPath[curr] = false
}

func (s *cycleSearch) emit() {
	length := len(s.path)
	s.results = append(s.results, newRing(
		entity.PatternCycle,
		s.g.memberIDs(s.path),
		CycleRisk(length),
		s.g.pathVolume(s.path, true),
		fmt.Sprintf("Circular flow detected length %d", length),
	))
}
