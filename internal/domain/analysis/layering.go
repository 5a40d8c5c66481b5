package analysis

import (
	"context"
	"fmt"
	"math"

	"laundering-ring-detector/internal/domain/entity"
)

// LayeringDetector reports chains A -> B -> ... -> Z whose interior accounts
// are all shells.
type LayeringDetector struct {
	minLength int
	maxLength int
	maxVisits int
}

// NewLayeringDetector creates a layering detector from the engine config
func NewLayeringDetector(cfg Config) *LayeringDetector {
	return &LayeringDetector{
		minLength: cfg.MinChainLength,
		maxLength: cfg.MaxChainLength,
		maxVisits: cfg.MaxSearchVisits,
	}
}

func (d *LayeringDetector) Name() string { return "layering" }

// LayeringRisk returns the risk score of a chain with the given account count.
func LayeringRisk(length int) float64 {
	return math.Min(MaxScore, LayeringRiskBase+LayeringRiskPerAccount*float64(length))
}

// IsShell reports whether an account's total activity is low enough to be a pass-through.
func IsShell(node *entity.AccountNode) bool {
	return node.TotalDegree() <= ShellMaxDegree
}

type chainSearch struct {
	g       *Graph
	d       *LayeringDetector
	b       *budget
	shell   []bool
	onPath  []bool
	path    []int32
	results []*entity.FraudRing
}

// Detect explores simple paths from every account with outbound edges.
// A path is only extended through its last account when that account is a
// shell, since it becomes interior; so every path on the stack already has
// shell-only interiors and is reported once it reaches the minimum length.
func (d *LayeringDetector) Detect(ctx context.Context, g *Graph) ([]*entity.FraudRing, bool) {
	s := &chainSearch{
		g:      g,
		d:      d,
		b:      newBudget(ctx, d.maxVisits),
		shell:  make([]bool, g.Len()),
		onPath: make([]bool, g.Len()),
		path:   make([]int32, 0, d.maxLength),
	}
	for idx := range s.shell {
		s.shell[idx] = IsShell(g.Node(int32(idx)))
	}

	for idx := int32(0); int(idx) < g.Len(); idx++ {
		if g.Node(idx).OutDegree == 0 {
			continue
		}
		s.walk(idx)
		if s.b.truncated() {
			break
		}
	}
	return s.results, s.b.truncated()
}

func (s *chainSearch) walk(curr int32) {
	if !s.b.visit() {
		return
	}
	s.onPath[curr] = true
	s.path = append(s.path, curr)

	if len(s.path) >= s.d.minLength {
		s.emit()
	}

	// curr turns interior once we step past it, unless it is the origin
	canExtend := len(s.path) < s.d.maxLength && (len(s.path) == 1 || s.shell[curr])
	if canExtend {
		for _, next := range s.g.successors[curr] {
			if s.onPath[next] {
				continue
			}
			s.walk(next)
			if s.b.truncated() {
				break
			}
		}
	}

	s.path = s.path[:len(s.path)-1]
	s.onPath[curr] = false
}

func (s *chainSearch) emit() {
	length := len(s.path)
	s.results = append(s.results, newRing(
		entity.PatternLayeredShell,
		s.g.memberIDs(s.path),
		LayeringRisk(length),
		s.g.pathVolume(s.path, false),
		fmt.Sprintf("Layering chain length %d", length),
	))
}
