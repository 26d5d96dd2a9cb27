package store

import (
	"encoding/binary"

	"github.com/quiverdb/quiver/quad"
)

// order gives, for each Index, the quad direction encoded at each
// successive key position. Grounded on trigo's SPO/POS/OSP concatenated
// permutation-key scheme, generalized here to include the context
// (graph) position as spec.md §3/§4.2 requires.
var order = [4][4]quad.Direction{
	SPOC: {quad.Subject, quad.Predicate, quad.Object, quad.Label},
	POSC: {quad.Predicate, quad.Object, quad.Subject, quad.Label},
	OSPC: {quad.Object, quad.Subject, quad.Predicate, quad.Label},
	CSPO: {quad.Label, quad.Subject, quad.Predicate, quad.Object},
}

// quadIDs is a resolved quad: one IDRef per direction, context defaulting
// to store.DefaultGraph for the unnamed graph.
type quadIDs struct {
	S, P, O, C IDRef
}

func (q quadIDs) get(d quad.Direction) IDRef {
	switch d {
	case quad.Subject:
		return q.S
	case quad.Predicate:
		return q.P
	case quad.Object:
		return q.O
	case quad.Label:
		return q.C
	default:
		panic("store: invalid direction")
	}
}

// encodeKey builds the full concatenated key for idx from q: each
// position's term ID as a variable-length integer, in the index's
// permutation order (spec.md §6 "Term encoding on disk").
func encodeKey(idx Index, q quadIDs) []byte {
	buf := make([]byte, 0, 4*binary.MaxVarintLen64)
	var tmp [binary.MaxVarintLen64]byte
	for _, d := range order[idx] {
		n := binary.PutUvarint(tmp[:], uint64(q.get(d)))
		buf = append(buf, tmp[:n]...)
	}
	return buf
}

// decodeKey parses a full key for idx back into a quadIDs.
func decodeKey(idx Index, key []byte) (quadIDs, bool) {
	var q quadIDs
	for _, d := range order[idx] {
		v, n := binary.Uvarint(key)
		if n <= 0 {
			return q, false
		}
		key = key[n:]
		switch d {
		case quad.Subject:
			q.S = IDRef(v)
		case quad.Predicate:
			q.P = IDRef(v)
		case quad.Object:
			q.O = IDRef(v)
		case quad.Label:
			q.C = IDRef(v)
		}
	}
	return q, len(key) == 0
}

// Pattern is a match query: each position is either a bound term ID or
// Unbound (the wildcard `*` of spec.md §4.2).
type Pattern struct {
	S, P, O, C IDRef
	BoundS     bool
	BoundP     bool
	BoundO     bool
	BoundC     bool
}

func (p Pattern) bound(d quad.Direction) (IDRef, bool) {
	switch d {
	case quad.Subject:
		return p.S, p.BoundS
	case quad.Predicate:
		return p.P, p.BoundP
	case quad.Object:
		return p.O, p.BoundO
	case quad.Label:
		return p.C, p.BoundC
	default:
		return 0, false
	}
}

// chooseIndex implements spec.md §4.2's index-selection rule: pick the
// permutation whose prefix covers the longest run of bound positions,
// ties broken by the fixed SPOC < POSC < OSPC < CSPO order. It returns
// the index, the length of the matched prefix, and a key built from just
// that prefix (for a range/prefix scan); any bound positions beyond the
// prefix are returned for use as a post-filter.
func chooseIndex(p Pattern) (idx Index, prefixKey []byte, postFilter []quad.Direction) {
	bestLen := -1
	for i := Index(0); i < 4; i++ {
		n := 0
		for _, d := range order[i] {
			if _, ok := p.bound(d); !ok {
				break
			}
			n++
		}
		if n > bestLen {
			bestLen = n
			idx = i
		}
	}
	var tmp [binary.MaxVarintLen64]byte
	for i, d := range order[idx] {
		if i >= bestLen {
			if _, ok := p.bound(d); ok {
				postFilter = append(postFilter, d)
			}
			continue
		}
		v, _ := p.bound(d)
		n := binary.PutUvarint(tmp[:], uint64(v))
		prefixKey = append(prefixKey, tmp[:n]...)
	}
	return idx, prefixKey, postFilter
}

// matchesPostFilter reports whether the decoded quad satisfies every
// direction not already covered by the scanned index's prefix.
func matchesPostFilter(q quadIDs, p Pattern, dirs []quad.Direction) bool {
	for _, d := range dirs {
		want, _ := p.bound(d)
		if q.get(d) != want {
			return false
		}
	}
	return true
}
