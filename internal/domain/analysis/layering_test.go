package analysis

import (
	"context"
	"fmt"
	"testing"

	"laundering-ring-detector/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectLayering(t *testing.T, txs []entity.Transaction) ([]*entity.FraudRing, *Graph) {
	t.Helper()
	g := BuildGraph(txs)
	rings, truncated := NewLayeringDetector(DefaultConfig()).Detect(context.Background(), g)
	require.False(t, truncated)
	return rings, g
}

func assertShellInteriors(t *testing.T, g *Graph, rings []*entity.FraudRing) {
	t.Helper()
	for _, r := range rings {
		for _, id := range r.MemberIDs[1 : len(r.MemberIDs)-1] {
			idx, ok := g.Index(id)
			require.True(t, ok)
			assert.LessOrEqual(t, g.Node(idx).TotalDegree(), ShellMaxDegree,
				"interior %s of %v is not a shell", id, r.MemberIDs)
		}
	}
}

func TestLayeringDetector_MinimalChain(t *testing.T) {
	rings, g := detectLayering(t, chain("A", "B", "C", "D"))

	require.Len(t, rings, 1)
	ring := rings[0]
	assert.Equal(t, entity.PatternLayeredShell, ring.PatternType)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ring.MemberIDs)
	assert.Equal(t, 80.0, ring.RiskScore)
	assert.Equal(t, 3000.0, ring.TotalVolume)
	assert.Equal(t, "Layering chain length 4", ring.Details)
	assertShellInteriors(t, g, rings)
}

func TestLayeringDetector_TooShort(t *testing.T) {
	rings, _ := detectLayering(t, chain("A", "B", "C"))
	assert.Empty(t, rings)
}

func TestLayeringDetector_EverySubchain(t *testing.T) {
	rings, g := detectLayering(t, chain("A", "B", "C", "D", "E", "F"))

	var got [][]string
	for _, r := range rings {
		got = append(got, r.MemberIDs)
	}
	assert.ElementsMatch(t, [][]string{
		{"A", "B", "C", "D"},
		{"A", "B", "C", "D", "E"},
		{"A", "B", "C", "D", "E", "F"},
		{"B", "C", "D", "E"},
		{"B", "C", "D", "E", "F"},
		{"C", "D", "E", "F"},
	}, got)
	assertShellInteriors(t, g, rings)
}

func TestLayeringDetector_MaxLength(t *testing.T) {
	rings, _ := detectLayering(t, chain("A", "B", "C", "D", "E", "F", "G", "H"))

	require.NotEmpty(t, rings)
	for _, r := range rings {
		assert.LessOrEqual(t, len(r.MemberIDs), DefaultConfig().MaxChainLength)
	}
}

func TestLayeringDetector_BusyInteriorBreaksChain(t *testing.T) {
	txs := chain("A", "B", "C", "D", "E")
	for i := 0; i < 3; i++ {
		txs = append(txs, tx(fmt.Sprintf("x%d", i), fmt.Sprintf("X%d", i), "B", 10, t0))
	}

	rings, g := detectLayering(t, txs)

	for _, r := range rings {
		assert.NotContains(t, r.MemberIDs[1:len(r.MemberIDs)-1], "B")
	}
	// B may still originate a chain
	var fromB bool
	for _, r := range rings {
		if r.MemberIDs[0] == "B" {
			fromB = true
		}
	}
	assert.True(t, fromB)
	assertShellInteriors(t, g, rings)
}

func TestIsShell(t *testing.T) {
	assert.True(t, IsShell(&entity.AccountNode{InDegree: 2, OutDegree: 1}))
	assert.False(t, IsShell(&entity.AccountNode{InDegree: 2, OutDegree: 2}))
}

func TestLayeringRisk(t *testing.T) {
	assert.Equal(t, 80.0, LayeringRisk(4))
	assert.Equal(t, 90.0, LayeringRisk(6))
	assert.Equal(t, 100.0, LayeringRisk(20))
}
