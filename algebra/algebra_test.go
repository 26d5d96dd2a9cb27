package algebra

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/quad"
)

func TestOpTreeConstruction(t *testing.T) {
	bgp := BGP{Patterns: []TriplePattern{
		{Subject: quad.Variable("s"), Predicate: quad.IRI("age"), Object: quad.Variable("a")},
	}}
	filter := Filter{
		Expr: Func{Name: FnGt, Args: []Expr{VarRef{Var: "a"}, Const{Value: quad.Int(25)}}},
		Input: bgp,
	}
	proj := Project{Vars: []quad.Variable{"s"}, Input: filter}

	var op Op = proj
	p, ok := op.(Project)
	require.True(t, ok)
	require.Equal(t, []quad.Variable{"s"}, p.Vars)

	f, ok := p.Input.(Filter)
	require.True(t, ok)
	require.Equal(t, FnGt, f.Expr.(Func).Name)
}

func TestPathExprClosure(t *testing.T) {
	p := PathZeroOrMore{Path: PathSeq{
		A: PathIRI{IRI: quad.IRI("knows")},
		B: PathInverse{Path: PathIRI{IRI: quad.IRI("friendOf")}},
	}}
	var pe PathExpr = p
	zom, ok := pe.(PathZeroOrMore)
	require.True(t, ok)
	seq, ok := zom.Path.(PathSeq)
	require.True(t, ok)
	_, ok = seq.B.(PathInverse)
	require.True(t, ok)
}
