package update

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/dict"
	"github.com/quiverdb/quiver/exec"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

func newEngine(t *testing.T) (*Engine, *store.QuadStore, *dict.Dictionary) {
	t.Helper()
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	ex := exec.New(qs, d, exec.DefaultConfig)
	return New(qs, d, ex, store.DefaultGraph), qs, d
}

func TestInsertDataThenDeleteData(t *testing.T) {
	e, qs, d := newEngine(t)
	ctx := context.Background()
	q := quad.Quad{Subject: quad.IRI("alice"), Predicate: quad.IRI("knows"), Object: quad.IRI("bob")}

	rep, err := e.Apply(ctx, InsertData{Quads: []quad.Quad{q}})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Inserted)

	ref := store.QuadRef{S: d.Intern(quad.IRI("alice")), P: d.Intern(quad.IRI("knows")), O: d.Intern(quad.IRI("bob")), C: store.DefaultGraph}
	ok, err := qs.Contains(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok)

	rep, err = e.Apply(ctx, DeleteData{Quads: []quad.Quad{q}})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Deleted)

	ok, err = qs.Contains(ctx, ref)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInsertDataRejectsLiteralSubject(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	bad := quad.Quad{Subject: quad.String("not-a-node"), Predicate: quad.IRI("knows"), Object: quad.IRI("bob")}

	_, err := e.Apply(ctx, InsertData{Quads: []quad.Quad{bad}})
	require.ErrorIs(t, err, ErrConstraintViolation)
}

// TestInsertWhereMaterializesBeforeWriting exercises spec.md §4.7's "a
// single operation cannot observe its own writes": INSERT { ?x a :Copy }
// WHERE { ?x a :Person } run once must insert exactly the people present
// before the operation started, not loop onto its own output.
func TestInsertWhereMaterializesBeforeWriting(t *testing.T) {
	e, qs, d := newEngine(t)
	ctx := context.Background()

	typePred := quad.IRI("a")
	person := quad.IRI("Person")
	copyCls := quad.IRI("Copy")
	alice := quad.IRI("alice")
	bob := quad.IRI("bob")

	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: d.Intern(alice), P: d.Intern(typePred), O: d.Intern(person), C: store.DefaultGraph}))
	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: d.Intern(bob), P: d.Intern(typePred), O: d.Intern(person), C: store.DefaultGraph}))

	x := quad.Variable("x")
	where := algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: x, Predicate: typePred, Object: person}}}
	template := []algebra.TriplePattern{{Subject: x, Predicate: typePred, Object: copyCls}}

	rep, err := e.Apply(ctx, InsertWhere{Template: template, Where: where})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Inserted, "must insert exactly one Copy triple per pre-existing Person, not chase its own output")

	stats, err := qs.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), stats.Quads.Value)
}

func TestDeleteWhereRemovesMatchedBindings(t *testing.T) {
	e, qs, d := newEngine(t)
	ctx := context.Background()

	knows := quad.IRI("knows")
	alice := quad.IRI("alice")
	bob := quad.IRI("bob")
	carol := quad.IRI("carol")

	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob), C: store.DefaultGraph}))
	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(carol), C: store.DefaultGraph}))

	x := quad.Variable("x")
	where := algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: alice, Predicate: knows, Object: x}}}
	template := []algebra.TriplePattern{{Subject: alice, Predicate: knows, Object: x}}

	rep, err := e.Apply(ctx, DeleteWhere{Template: template, Where: where})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Deleted)

	stats, err := qs.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.Quads.Value)
}

func TestGraphOpCopyAndMove(t *testing.T) {
	e, qs, d := newEngine(t)
	ctx := context.Background()

	src := quad.IRI("graph-a")
	dst := quad.IRI("graph-b")
	q := store.QuadRef{S: d.Intern(quad.IRI("alice")), P: d.Intern(quad.IRI("knows")), O: d.Intern(quad.IRI("bob")), C: d.Intern(src)}
	require.NoError(t, qs.Insert(ctx, q))

	_, err := e.Apply(ctx, GraphOp{Kind: Copy, Source: src, Target: dst})
	require.NoError(t, err)

	dstRef := store.QuadRef{S: q.S, P: q.P, O: q.O, C: d.Intern(dst)}
	ok, err := qs.Contains(ctx, dstRef)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = qs.Contains(ctx, q)
	require.NoError(t, err)
	require.True(t, ok, "COPY must leave the source graph intact")

	_, err = e.Apply(ctx, GraphOp{Kind: Move, Source: src, Target: dst})
	require.NoError(t, err)
	ok, err = qs.Contains(ctx, q)
	require.NoError(t, err)
	require.False(t, ok, "MOVE must clear the source graph")
}

func TestGraphOpDropClearsNamedGraph(t *testing.T) {
	e, qs, d := newEngine(t)
	ctx := context.Background()

	g := quad.IRI("graph-a")
	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: d.Intern(quad.IRI("alice")), P: d.Intern(quad.IRI("knows")), O: d.Intern(quad.IRI("bob")), C: d.Intern(g)}))

	rep, err := e.Apply(ctx, GraphOp{Kind: Drop, Target: g})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Deleted)

	stats, err := qs.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.Quads.Value)
}
