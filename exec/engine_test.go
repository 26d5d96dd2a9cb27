package exec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/dict"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

// fixture builds a small store: three people with ages and one "knows"
// edge, enough to exercise BGP+FILTER, joins, and aggregates (spec.md §8
// scenarios 2/3/7).
func fixture(t *testing.T) (*Engine, *dict.Dictionary) {
	t.Helper()
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	ctx := context.Background()

	age := d.Intern(quad.IRI("age"))
	knows := d.Intern(quad.IRI("knows"))
	name := d.Intern(quad.IRI("name"))

	people := []struct {
		iri  string
		name string
		age  int64
	}{
		{"alice", "Alice", 30},
		{"bob", "Bob", 25},
		{"carol", "Carol", 40},
	}
	for _, p := range people {
		s := d.Intern(quad.IRI(p.iri))
		require.NoError(t, qs.Insert(ctx, store.QuadRef{S: s, P: age, O: d.Intern(quad.Int(p.age))}))
		require.NoError(t, qs.Insert(ctx, store.QuadRef{S: s, P: name, O: d.Intern(quad.String(p.name))}))
	}
	require.NoError(t, qs.Insert(ctx, store.QuadRef{
		S: d.Intern(quad.IRI("alice")), P: knows, O: d.Intern(quad.IRI("bob")),
	}))
	require.NoError(t, qs.Insert(ctx, store.QuadRef{
		S: d.Intern(quad.IRI("bob")), P: knows, O: d.Intern(quad.IRI("carol")),
	}))

	return New(qs, d, DefaultConfig), d
}

func runAll(t *testing.T, eng *Engine, op algebra.Op) []Binding {
	t.Helper()
	it, err := eng.Eval(context.Background(), op)
	require.NoError(t, err)
	rows, err := drainAll(context.Background(), it)
	require.NoError(t, err)
	return rows
}

func TestBGPFilterSelectsOlderThan(t *testing.T) {
	eng, _ := fixture(t)
	bgp := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("age"), Object: quad.Variable("a")},
	}}
	filter := algebra.Filter{
		Expr:  algebra.Func{Name: algebra.FnGt, Args: []algebra.Expr{algebra.VarRef{Var: "a"}, algebra.Const{Value: quad.Int(28)}}},
		Input: bgp,
	}
	rows := runAll(t, eng, filter)
	require.Len(t, rows, 2) // alice (30) and carol (40), not bob (25)
	for _, r := range rows {
		s := r["s"].(quad.IRI)
		require.Contains(t, []quad.IRI{"alice", "carol"}, s)
	}
}

func TestBGPTwoPatternJoin(t *testing.T) {
	eng, _ := fixture(t)
	bgp := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("a"), Predicate: quad.IRI("knows"), Object: quad.Variable("b")},
		{Subject: quad.Variable("b"), Predicate: quad.IRI("name"), Object: quad.Variable("bname")},
	}}
	rows := runAll(t, eng, bgp)
	require.Len(t, rows, 2)
	names := map[string]bool{}
	for _, r := range rows {
		names[string(r["bname"].(quad.String))] = true
	}
	require.True(t, names["Bob"])
	require.True(t, names["Carol"])
}

func TestExplicitJoin(t *testing.T) {
	eng, _ := fixture(t)
	left := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("knows"), Object: quad.Variable("o")},
	}}
	right := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("o"), Predicate: quad.IRI("age"), Object: quad.Variable("oAge")},
	}}
	join := algebra.Join{L: left, R: right}
	rows := runAll(t, eng, join)
	require.Len(t, rows, 2)
	for _, r := range rows {
		require.Contains(t, r, quad.Variable("s"))
		require.Contains(t, r, quad.Variable("o"))
		require.Contains(t, r, quad.Variable("oAge"))
	}
}

func TestJoinWithNoSharedVariablesIsCrossProduct(t *testing.T) {
	eng, _ := fixture(t)
	left := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("knows"), Object: quad.Variable("o")},
	}}
	right := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("x"), Predicate: quad.IRI("age"), Object: quad.Variable("y")},
	}}
	join := algebra.Join{L: left, R: right}
	rows := runAll(t, eng, join)
	require.Len(t, rows, 6) // 2 knows-edges x 3 age-facts, no shared variables to restrict on
	for _, r := range rows {
		require.Contains(t, r, quad.Variable("s"))
		require.Contains(t, r, quad.Variable("o"))
		require.Contains(t, r, quad.Variable("x"))
		require.Contains(t, r, quad.Variable("y"))
	}
}

func TestLeftJoinKeepsUnmatched(t *testing.T) {
	eng, _ := fixture(t)
	left := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("name"), Object: quad.Variable("n")},
	}}
	right := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("knows"), Object: quad.Variable("friend")},
	}}
	lj := algebra.LeftJoin{L: left, R: right}
	rows := runAll(t, eng, lj)
	require.Len(t, rows, 3) // every person kept, even carol with no outgoing knows edge
	foundCarolUnmatched := false
	for _, r := range rows {
		if r["n"] == quad.String("Carol") {
			_, hasFriend := r["friend"]
			require.False(t, hasFriend)
			foundCarolUnmatched = true
		}
	}
	require.True(t, foundCarolUnmatched)
}

func TestNowUsesEngineClock(t *testing.T) {
	eng, _ := fixture(t)
	fixed := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return fixed }

	extend := algebra.Extend{
		Var:   "n",
		Expr:  algebra.Func{Name: algebra.FnNow},
		Input: algebra.Table{Vars: []quad.Variable{"x"}, Rows: [][]quad.Value{{quad.IRI("alice")}}},
	}
	rows := runAll(t, eng, extend)
	require.Len(t, rows, 1)
	require.Equal(t, quad.Time(fixed), rows[0]["n"])
}

func TestGroupCountAggregate(t *testing.T) {
	eng, _ := fixture(t)
	bgp := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("age"), Object: quad.Variable("a")},
	}}
	group := algebra.Group{
		Aggregates: []algebra.Aggregate{{Func: algebra.AggCount, Var: "total"}},
		Input:      bgp,
	}
	rows := runAll(t, eng, group)
	require.Len(t, rows, 1)
	require.Equal(t, quad.Int(3), rows[0]["total"])
}

func TestGroupSumByKey(t *testing.T) {
	eng, _ := fixture(t)
	bgp := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("age"), Object: quad.Variable("a")},
	}}
	group := algebra.Group{
		Keys: []algebra.Expr{algebra.VarRef{Var: "s"}},
		Aggregates: []algebra.Aggregate{
			{Func: algebra.AggSum, Arg: algebra.VarRef{Var: "a"}, Var: "total"},
		},
		Input: bgp,
	}
	rows := runAll(t, eng, group)
	require.Len(t, rows, 3)
	expected := map[quad.Value]quad.Value{
		quad.IRI("alice"): quad.Int(30),
		quad.IRI("bob"):   quad.Int(25),
		quad.IRI("carol"): quad.Int(40),
	}
	for _, r := range rows {
		require.Equal(t, expected[r["s"]], r["total"])
	}
}

func TestDistinctDeduplicates(t *testing.T) {
	eng, _ := fixture(t)
	bgp := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("age"), Object: quad.Variable("a")},
	}}
	proj := algebra.Project{Vars: nil, Input: bgp}
	distinct := algebra.Distinct{Input: proj}
	rows := runAll(t, eng, distinct)
	require.Len(t, rows, 1) // every binding projects to the empty mapping
}

func TestOrderByAndSlice(t *testing.T) {
	eng, _ := fixture(t)
	bgp := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("age"), Object: quad.Variable("a")},
	}}
	ordered := algebra.OrderBy{
		Conds: []algebra.SortCondition{{Expr: algebra.VarRef{Var: "a"}, Direction: algebra.Ascending}},
		Input: bgp,
	}
	sliced := algebra.Slice{Offset: 1, Limit: 1, Input: ordered}
	rows := runAll(t, eng, sliced)
	require.Len(t, rows, 1)
	require.Equal(t, quad.Int(30), rows[0]["a"]) // 25, [30], 40 — offset 1 limit 1 lands on alice
}

func TestMinusExcludesSharedVarMatches(t *testing.T) {
	eng, _ := fixture(t)
	left := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("age"), Object: quad.Variable("a")},
	}}
	right := algebra.BGP{Patterns: []algebra.TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("knows"), Object: quad.Variable("x")},
	}}
	minus := algebra.Minus{L: left, R: right}
	rows := runAll(t, eng, minus)
	require.Len(t, rows, 1) // only carol has no outgoing knows edge
	require.Equal(t, quad.IRI("carol"), rows[0]["s"])
}

func TestServiceSilentYieldsEmptyMapping(t *testing.T) {
	eng, _ := fixture(t)
	rows := runAll(t, eng, algebra.Service{Endpoint: quad.IRI("http://example.org/sparql"), Silent: true})
	require.Len(t, rows, 1)
	require.Empty(t, rows[0])
}

func TestServiceNonSilentErrors(t *testing.T) {
	eng, _ := fixture(t)
	_, err := eng.Eval(context.Background(), algebra.Service{Endpoint: quad.IRI("http://example.org/sparql")})
	require.ErrorIs(t, err, ErrServiceUnsupported)
}

func TestTableBindsNamedRows(t *testing.T) {
	eng, _ := fixture(t)
	table := algebra.Table{
		Vars: []quad.Variable{"x"},
		Rows: [][]quad.Value{{quad.IRI("alice")}, {nil}},
	}
	rows := runAll(t, eng, table)
	require.Len(t, rows, 2)
	require.Equal(t, quad.IRI("alice"), rows[0]["x"])
	_, ok := rows[1]["x"]
	require.False(t, ok)
}
