package reason

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/dict"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
	"github.com/quiverdb/quiver/voc/owl"
)

// TestRETEAssertDerivesSymmetricProperty exercises prp-symp incrementally:
// asserting that "knows" is a SymmetricProperty, then asserting one
// knows-edge, must derive the reverse edge without a full-store rescan.
func TestRETEAssertDerivesSymmetricProperty(t *testing.T) {
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	ctx := context.Background()

	knows := d.Intern(quad.IRI("knows"))
	alice := d.Intern(quad.IRI("alice"))
	bob := d.Intern(quad.IRI("bob"))
	symmetricProp := d.Intern(quad.IRI(owl.SymmetricProperty))
	rdfTypeID := d.Intern(typeIRI)

	net := NewRETENetwork(qs, d, store.DefaultGraph, OWLRLRules())

	typeQuad := store.QuadRef{S: knows, P: rdfTypeID, O: symmetricProp}
	require.NoError(t, qs.Insert(ctx, typeQuad))
	_, err := net.Assert(ctx, typeQuad)
	require.NoError(t, err)

	edgeQuad := store.QuadRef{S: alice, P: knows, O: bob}
	require.NoError(t, qs.Insert(ctx, edgeQuad))
	inserted, err := net.Assert(ctx, edgeQuad)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	ok, err := qs.Contains(ctx, store.QuadRef{S: bob, P: knows, O: alice})
	require.NoError(t, err)
	require.True(t, ok, "symmetric property should derive the reverse edge")
}

// TestRETERetractCascadesDerivedFact checks that retracting the base edge
// that solely supported a derived fact removes the derived fact too.
func TestRETERetractCascadesDerivedFact(t *testing.T) {
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	ctx := context.Background()

	knows := d.Intern(quad.IRI("knows"))
	alice := d.Intern(quad.IRI("alice"))
	bob := d.Intern(quad.IRI("bob"))
	symmetricProp := d.Intern(quad.IRI(owl.SymmetricProperty))
	rdfTypeID := d.Intern(typeIRI)

	net := NewRETENetwork(qs, d, store.DefaultGraph, OWLRLRules())

	typeQuad := store.QuadRef{S: knows, P: rdfTypeID, O: symmetricProp}
	require.NoError(t, qs.Insert(ctx, typeQuad))
	_, err := net.Assert(ctx, typeQuad)
	require.NoError(t, err)

	edgeQuad := store.QuadRef{S: alice, P: knows, O: bob}
	require.NoError(t, qs.Insert(ctx, edgeQuad))
	_, err = net.Assert(ctx, edgeQuad)
	require.NoError(t, err)

	reverse := store.QuadRef{S: bob, P: knows, O: alice}
	ok, err := qs.Contains(ctx, reverse)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = net.Retract(ctx, edgeQuad)
	require.NoError(t, err)

	ok, err = qs.Contains(ctx, reverse)
	require.NoError(t, err)
	require.False(t, ok, "retracting the sole supporting edge should remove the derived reverse edge")
}
