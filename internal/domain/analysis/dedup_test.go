package analysis

import (
	"testing"

	"laundering-ring-detector/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicateRings(t *testing.T) {
	first := newRing(entity.PatternCycle, []string{"A", "B", "C"}, 86, 300, "first")
	rotated := newRing(entity.PatternCycle, []string{"B", "C", "A"}, 86, 300, "rotated")
	other := newRing(entity.PatternLayeredShell, []string{"A", "B", "C"}, 75, 200, "other pattern")
	bigger := newRing(entity.PatternCycle, []string{"A", "B", "C", "D"}, 88, 400, "bigger")

	unique := DeduplicateRings([]*entity.FraudRing{first, rotated, other, bigger, first})

	require.Len(t, unique, 3)
	assert.Same(t, first, unique[0])
	assert.Same(t, other, unique[1])
	assert.Same(t, bigger, unique[2])
}

func TestDeduplicateRings_Empty(t *testing.T) {
	assert.Empty(t, DeduplicateRings(nil))
}
