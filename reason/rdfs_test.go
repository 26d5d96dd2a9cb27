package reason

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/dict"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
	"github.com/quiverdb/quiver/voc/rdf"
	"github.com/quiverdb/quiver/voc/rdfs"
)

// TestRDFSSubClassOfTransitivity exercises the Dog/Mammal/Animal chain
// from spec.md §8 scenario 5: fido's direct rdf:type is :Dog, and
// subClassOf is declared Dog -> Mammal -> Animal. Materializing RDFS
// must derive fido's transitive rdf:type memberships and the transitive
// subClassOf edge between the named classes.
func TestRDFSSubClassOfTransitivity(t *testing.T) {
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	ctx := context.Background()

	dog := d.Intern(quad.IRI("Dog"))
	mammal := d.Intern(quad.IRI("Mammal"))
	animal := d.Intern(quad.IRI("Animal"))
	fido := d.Intern(quad.IRI("fido"))
	subClassOf := d.Intern(quad.IRI(rdfs.SubClassOf))
	rdfType := d.Intern(quad.IRI(rdf.Type))

	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: dog, P: subClassOf, O: mammal}))
	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: mammal, P: subClassOf, O: animal}))
	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: fido, P: rdfType, O: dog}))

	m := NewMaterializer(qs, d, store.DefaultGraph)
	rep, err := m.Materialize(ctx, RDFSRules())
	require.NoError(t, err)
	require.Greater(t, rep.Inserted, 0)
	require.False(t, rep.Incomplete)

	ok, err := qs.Contains(ctx, store.QuadRef{S: fido, P: rdfType, O: mammal})
	require.NoError(t, err)
	require.True(t, ok, "fido should be inferred a Mammal")

	ok, err = qs.Contains(ctx, store.QuadRef{S: fido, P: rdfType, O: animal})
	require.NoError(t, err)
	require.True(t, ok, "fido should be inferred an Animal")

	ok, err = qs.Contains(ctx, store.QuadRef{S: dog, P: subClassOf, O: animal})
	require.NoError(t, err)
	require.True(t, ok, "Dog should be inferred a subClassOf Animal")
}

// TestRDFSMaterializeIsIdempotent checks that re-running Materialize over
// an already-closed store inserts nothing further (the fixpoint is
// stable), exercising the "roundInserted == 0 stops the loop" path.
func TestRDFSMaterializeIsIdempotent(t *testing.T) {
	qs := store.New(store.NewMemoryBackend())
	d := dict.New(0)
	ctx := context.Background()

	dog := d.Intern(quad.IRI("Dog"))
	mammal := d.Intern(quad.IRI("Mammal"))
	fido := d.Intern(quad.IRI("fido"))
	subClassOf := d.Intern(quad.IRI(rdfs.SubClassOf))
	rdfType := d.Intern(quad.IRI(rdf.Type))

	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: dog, P: subClassOf, O: mammal}))
	require.NoError(t, qs.Insert(ctx, store.QuadRef{S: fido, P: rdfType, O: dog}))

	m := NewMaterializer(qs, d, store.DefaultGraph)
	_, err := m.Materialize(ctx, RDFSRules())
	require.NoError(t, err)

	rep, err := m.Materialize(ctx, RDFSRules())
	require.NoError(t, err)
	require.Equal(t, 0, rep.Inserted)
}
