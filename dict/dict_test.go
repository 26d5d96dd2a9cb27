package dict

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

func TestInternRoundTrip(t *testing.T) {
	d := New(16)
	v := quad.IRI("http://example.org/alice")

	id := d.Intern(v)
	require.NotEqual(t, store.DefaultGraph, id)

	got, err := d.Resolve(id)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestInternIdempotent(t *testing.T) {
	d := New(0)
	v := quad.String("Alice Liddell")

	id1 := d.Intern(v)
	id2 := d.Intern(v)
	require.Equal(t, id1, id2)
	require.Equal(t, 1, d.Len())
}

func TestInternDistinctValuesGetDistinctIDs(t *testing.T) {
	d := New(0)
	a := d.Intern(quad.IRI("a"))
	b := d.Intern(quad.IRI("b"))
	require.NotEqual(t, a, b)
}

func TestResolveUnknownID(t *testing.T) {
	d := New(0)
	_, err := d.Resolve(store.IDRef(9999))
	require.ErrorIs(t, err, ErrUnknownID)
}

func TestResolveDefaultGraph(t *testing.T) {
	d := New(0)
	v, err := d.Resolve(store.DefaultGraph)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestValueOfDoesNotAllocate(t *testing.T) {
	d := New(0)
	v := quad.IRI("http://example.org/bob")

	require.Nil(t, d.ValueOf(v))
	require.Equal(t, 0, d.Len())

	id := d.Intern(v)
	ref := d.ValueOf(v)
	require.Equal(t, store.Ref(id), ref)
}

func TestNameOf(t *testing.T) {
	d := New(0)
	v := quad.IRI("http://example.org/carol")
	id := d.Intern(v)

	got := d.NameOf(id)
	require.NotNil(t, got)
	require.Equal(t, v, got)
}

func TestInternQuotedTripleStructuralSharing(t *testing.T) {
	d := New(0)
	a := quad.QuotedTriple{Subject: quad.IRI("alice"), Predicate: quad.IRI("age"), Object: quad.Int(30)}
	b := quad.QuotedTriple{Subject: quad.IRI("alice"), Predicate: quad.IRI("age"), Object: quad.Int(30)}

	id1 := d.Intern(a)
	id2 := d.Intern(b)
	require.Equal(t, id1, id2, "two structurally identical quoted triples must share one ID")
	require.Equal(t, 1, d.Len())

	c := quad.QuotedTriple{Subject: quad.IRI("alice"), Predicate: quad.IRI("age"), Object: quad.Int(31)}
	id3 := d.Intern(c)
	require.NotEqual(t, id1, id3)
}

func TestInternConcurrent(t *testing.T) {
	d := New(0)
	v := quad.IRI("http://example.org/shared")

	const goroutines = 32
	ids := make(chan store.IDRef, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() { ids <- d.Intern(v) }()
	}
	first := <-ids
	for i := 1; i < goroutines; i++ {
		require.Equal(t, first, <-ids)
	}
	require.Equal(t, 1, d.Len())
}
