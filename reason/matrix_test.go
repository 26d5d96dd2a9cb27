package reason

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/dict"
)

// TestEvaluateMatrixMatchesGeneralEvaluate checks that the sparse-matrix
// fast path produces the identical ancestor relation the general
// Evaluate fixpoint does, over the same chain fixture as
// TestEvaluateAncestorChain (spec.md §8 scenario 6: matrix path and
// general path must agree exactly, no truncation).
func TestEvaluateMatrixMatchesGeneralEvaluate(t *testing.T) {
	const n = 12
	edb := chainEDB(n)
	rules := ancestorProgram()

	d := dict.New(0)
	pred, facts, ok := EvaluateMatrix(rules, edb, d)
	require.True(t, ok)
	require.Equal(t, "ancestor", pred)
	require.Len(t, facts, n*(n+1)/2)

	seen := map[string]bool{}
	for _, f := range facts {
		seen[factKey(f)] = true
	}
	require.Len(t, seen, n*(n+1)/2, "matrix path must not produce duplicate pairs")

	db, err := Evaluate(context.Background(), rules, edb)
	require.NoError(t, err)
	want := map[string]bool{}
	for _, f := range db.All("ancestor") {
		want[factKey(f)] = true
	}
	require.Equal(t, want, seen)
}

func TestMatrixEligibleRejectsLoneBaseRule(t *testing.T) {
	_, _, ok := matrixEligible(ancestorProgram()[:1])
	require.False(t, ok, "a single fact rule alone is not the eligible two-rule shape")
}
