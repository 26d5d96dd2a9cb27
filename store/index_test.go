package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/quad"
)

func TestChooseIndexPicksLongestBoundPrefix(t *testing.T) {
	cases := []struct {
		name    string
		p       Pattern
		want    Index
		postLen int
	}{
		{"subject-predicate", Pattern{S: 1, BoundS: true, P: 2, BoundP: true}, SPOC, 0},
		{"predicate-only", Pattern{P: 2, BoundP: true}, POSC, 0},
		{"object-only", Pattern{O: 3, BoundO: true}, OSPC, 0},
		{"label-only", Pattern{C: 7, BoundC: true}, CSPO, 0},
		{"predicate-object", Pattern{P: 2, BoundP: true, O: 3, BoundO: true}, POSC, 0},
		{"subject-object", Pattern{S: 1, BoundS: true, O: 3, BoundO: true}, OSPC, 0},
		{"object-label", Pattern{O: 3, BoundO: true, C: 7, BoundC: true}, OSPC, 1},
		{"wildcard", Pattern{}, SPOC, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			idx, _, post := chooseIndex(c.p)
			require.Equal(t, c.want, idx)
			require.Len(t, post, c.postLen)
		})
	}
}

func TestEncodeDecodeKeyRoundTrip(t *testing.T) {
	q := quadIDs{S: 10, P: 20, O: 30, C: 40}
	for idx := Index(0); idx < 4; idx++ {
		key := encodeKey(idx, q)
		got, ok := decodeKey(idx, key)
		require.True(t, ok)
		require.Equal(t, q, got)
	}
}

func TestMatchesPostFilter(t *testing.T) {
	q := quadIDs{S: 1, P: 2, O: 3, C: 0}
	p := Pattern{O: 3, BoundO: true}
	require.True(t, matchesPostFilter(q, p, []quad.Direction{quad.Object}))

	p2 := Pattern{O: 9, BoundO: true}
	require.False(t, matchesPostFilter(q, p2, []quad.Direction{quad.Object}))
}
