package analysis

import "laundering-ring-detector/internal/domain/entity"

// DeduplicateRings keeps the first ring observed for every
// (pattern, sorted unique members) key. Rotations of one cycle and the same
// chain reached from different searches collapse into one ring.
func DeduplicateRings(rings []*entity.FraudRing) []*entity.FraudRing {
	unique := make([]*entity.FraudRing, 0, len(rings))
	seen := make(map[string]struct{}, len(rings))

	for _, r := range rings {
		key := string(ringKey(r.PatternType, r.MemberIDs))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}
