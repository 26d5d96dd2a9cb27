package path

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/dict"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

func newFixture(t *testing.T) (*store.QuadStore, *dict.Dictionary) {
	t.Helper()
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	knows := d.Intern(quad.IRI("knows"))

	add := func(s, o string) {
		sid := d.Intern(quad.IRI(s))
		oid := d.Intern(quad.IRI(o))
		require.NoError(t, qs.Insert(context.Background(), store.QuadRef{S: sid, P: knows, O: oid}))
	}
	add("alice", "bob")
	add("bob", "carol")
	add("carol", "dave")
	return qs, d
}

func TestPathIRISingleStep(t *testing.T) {
	qs, d := newFixture(t)
	ev := &Evaluator{QS: qs, Namer: d}
	alice := d.Intern(quad.IRI("alice"))

	pairs, err := ev.Eval(context.Background(), alice, unbound, algebra.PathIRI{IRI: quad.IRI("knows")})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, d.Intern(quad.IRI("bob")), pairs[0].O)
}

func TestPathOneOrMore(t *testing.T) {
	qs, d := newFixture(t)
	ev := &Evaluator{QS: qs, Namer: d}
	alice := d.Intern(quad.IRI("alice"))

	pairs, err := ev.Eval(context.Background(), alice, unbound, algebra.PathOneOrMore{
		Path: algebra.PathIRI{IRI: quad.IRI("knows")},
	})
	require.NoError(t, err)

	reached := map[store.IDRef]bool{}
	for _, p := range pairs {
		reached[p.O] = true
	}
	require.True(t, reached[d.Intern(quad.IRI("bob"))])
	require.True(t, reached[d.Intern(quad.IRI("carol"))])
	require.True(t, reached[d.Intern(quad.IRI("dave"))])
	require.Len(t, pairs, 3)
}

func TestPathZeroOrMoreIncludesIdentity(t *testing.T) {
	qs, d := newFixture(t)
	ev := &Evaluator{QS: qs, Namer: d}
	alice := d.Intern(quad.IRI("alice"))

	pairs, err := ev.Eval(context.Background(), alice, unbound, algebra.PathZeroOrMore{
		Path: algebra.PathIRI{IRI: quad.IRI("knows")},
	})
	require.NoError(t, err)

	foundSelf := false
	for _, p := range pairs {
		if p.O == alice {
			foundSelf = true
		}
	}
	require.True(t, foundSelf)
	require.Len(t, pairs, 4) // self + bob + carol + dave
}

func TestPathInverse(t *testing.T) {
	qs, d := newFixture(t)
	ev := &Evaluator{QS: qs, Namer: d}
	bob := d.Intern(quad.IRI("bob"))

	pairs, err := ev.Eval(context.Background(), bob, unbound, algebra.PathInverse{
		Path: algebra.PathIRI{IRI: quad.IRI("knows")},
	})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, d.Intern(quad.IRI("alice")), pairs[0].O)
}

func TestPathCycleSafe(t *testing.T) {
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	knows := d.Intern(quad.IRI("knows"))
	a := d.Intern(quad.IRI("a"))
	b := d.Intern(quad.IRI("b"))
	ctx := context.Background()
	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: a, P: knows, O: b}))
	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: b, P: knows, O: a}))

	ev := &Evaluator{QS: qs, Namer: d}
	pairs, err := ev.Eval(ctx, a, unbound, algebra.PathOneOrMore{Path: algebra.PathIRI{IRI: quad.IRI("knows")}})
	require.NoError(t, err)
	require.Len(t, pairs, 2) // a->b, a->a (via cycle), each emitted once
}

// TestPathMaxDepthTruncates exercises spec.md §5's property-path depth cap:
// a chain longer than MaxDepth must stop early and report Truncated rather
// than silently returning a partial closure as if it were complete.
func TestPathMaxDepthTruncates(t *testing.T) {
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	knows := d.Intern(quad.IRI("knows"))
	ctx := context.Background()

	const chainLen = 5
	nodes := make([]store.IDRef, chainLen+1)
	for i := range nodes {
		nodes[i] = d.Intern(quad.IRI(string(rune('a' + i))))
	}
	for i := 0; i < chainLen; i++ {
		require.NoError(t, qs.Insert(ctx, store.QuadRef{S: nodes[i], P: knows, O: nodes[i+1]}))
	}

	ev := &Evaluator{QS: qs, Namer: d, MaxDepth: 2}
	pairs, err := ev.Eval(ctx, nodes[0], unbound, algebra.PathOneOrMore{Path: algebra.PathIRI{IRI: quad.IRI("knows")}})
	require.NoError(t, err)
	require.True(t, ev.Truncated)
	require.Len(t, pairs, 2, "only 2 hops reachable before MaxDepth stops the closure")

	ev2 := &Evaluator{QS: qs, Namer: d, MaxDepth: -1}
	pairs2, err := ev2.Eval(ctx, nodes[0], unbound, algebra.PathOneOrMore{Path: algebra.PathIRI{IRI: quad.IRI("knows")}})
	require.NoError(t, err)
	require.False(t, ev2.Truncated)
	require.Len(t, pairs2, chainLen, "negative MaxDepth disables the cap")
}
