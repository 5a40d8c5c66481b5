package analysis

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"

	"laundering-ring-detector/internal/domain/entity"
)

// ringIDHexLen is the number of hex characters kept from the digest.
const ringIDHexLen = 12

// canonicalMembers returns the sorted unique member set.
func canonicalMembers(members []string) []string {
	set := make([]string, len(members))
	copy(set, members)
	sort.Strings(set)
	out := set[:0]
	for i, id := range set {
		if i > 0 && id == set[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ringKey is the identity of a ring: pattern plus sorted unique members.
// Every part is length-prefixed so distinct member lists never collide.
func ringKey(pattern entity.PatternType, members []string) []byte {
	canon := canonicalMembers(members)
	b := make([]byte, 0, 64)
	b = appendString(b, string(pattern))
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(canon)))
	b = append(b, n[:]...)
	for _, id := range canon {
		b = appendString(b, id)
	}
	return b
}

func appendString(b []byte, s string) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	b = append(b, n[:]...)
	return append(b, s...)
}

// RingID derives a stable ring id from the ring identity.
func RingID(pattern entity.PatternType, members []string) string {
	sum := sha256.Sum256(ringKey(pattern, members))
	return ringIDPrefix(pattern) + "-" + hex.EncodeToString(sum[:])[:ringIDHexLen]
}

func ringIDPrefix(pattern entity.PatternType) string {
	switch pattern {
	case entity.PatternCycle:
		return "CYCLE"
	case entity.PatternFanIn:
		return "SMURF-IN"
	case entity.PatternFanOut:
		return "SMURF-OUT"
	case entity.PatternLayeredShell:
		return "SHELL"
	default:
		return strings.ToUpper(string(pattern))
	}
}
