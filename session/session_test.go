package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/config"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/reason"
	"github.com/quiverdb/quiver/store"
	"github.com/quiverdb/quiver/update"
	"github.com/quiverdb/quiver/voc/rdf"
	"github.com/quiverdb/quiver/voc/rdfs"
	"github.com/quiverdb/quiver/writer"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return New(store.NewMemoryBackend(), config.Defaults())
}

func TestSessionExecuteUpdateThenQuery(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	alice := quad.IRI("alice")
	knows := quad.IRI("knows")
	bob := quad.IRI("bob")

	rep, err := s.ExecuteUpdate(ctx, update.InsertData{Quads: []quad.Quad{{Subject: alice, Predicate: knows, Object: bob}}}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Inserted)

	x := quad.Variable("x")
	bgp := algebra.BGP{Patterns: []algebra.TriplePattern{{Subject: alice, Predicate: knows, Object: x}}}
	it, err := s.ExecuteQuery(ctx, bgp, nil)
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next(ctx))
	require.Equal(t, bob, it.Result()[x])
	require.False(t, it.Next(ctx))
}

func TestSessionExecuteUpdateFeedsSchemaAndPublishesChanges(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	ch, unsubscribe := s.SubscribeChanges()
	defer unsubscribe()

	dog := quad.IRI("Dog")
	mammal := quad.IRI("Mammal")
	fido := quad.IRI("fido")

	_, err := s.ExecuteUpdate(ctx, update.InsertData{Quads: []quad.Quad{
		{Subject: dog, Predicate: quad.IRI(rdfs.SubClassOf), Object: mammal},
		{Subject: fido, Predicate: quad.IRI(rdf.Type), Object: dog},
	}}, nil)
	require.NoError(t, err)

	require.True(t, s.schema.IsSubClassOf(dog, mammal))

	events := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			events[ev.Quad.Subject.String()] = true
			require.Equal(t, writer.Add, ev.Action)
		default:
			t.Fatalf("expected a published ChangeEvent")
		}
	}
	require.Len(t, events, 2)
}

func TestSessionMaterializeReasonerRDFS(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	dog := quad.IRI("Dog")
	mammal := quad.IRI("Mammal")
	animal := quad.IRI("Animal")
	fido := quad.IRI("fido")

	_, err := s.ExecuteUpdate(ctx, update.InsertData{Quads: []quad.Quad{
		{Subject: dog, Predicate: quad.IRI(rdfs.SubClassOf), Object: mammal},
		{Subject: mammal, Predicate: quad.IRI(rdfs.SubClassOf), Object: animal},
		{Subject: fido, Predicate: quad.IRI(rdf.Type), Object: dog},
	}}, nil)
	require.NoError(t, err)

	rep, err := s.MaterializeReasoner(ctx, reason.RDFSRules(), nil)
	require.NoError(t, err)
	require.False(t, rep.Incomplete)

	id, err := s.dict.Resolve(s.dict.Intern(fido))
	require.NoError(t, err)
	require.Equal(t, fido, id)

	ref := store.QuadRef{
		S: s.dict.Intern(fido),
		P: s.dict.Intern(quad.IRI(rdf.Type)),
		O: s.dict.Intern(animal),
		C: store.DefaultGraph,
	}
	ok, err := s.qs.Contains(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok, "fido rdf:type Animal must be entailed transitively")
}

func TestSessionCancellationTokenTimeout(t *testing.T) {
	tok := NewCancellationToken(context.Background(), 1)
	<-tok.Done()
	require.ErrorIs(t, tok.Err(), ErrTimeout)
}

func TestSessionCancellationTokenExplicitCancel(t *testing.T) {
	tok := NewCancellationToken(context.Background(), 0)
	tok.Cancel()
	require.ErrorIs(t, tok.Err(), ErrCancelled)
}
