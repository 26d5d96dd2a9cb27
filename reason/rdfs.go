package reason

import (
	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/voc/rdf"
	"github.com/quiverdb/quiver/voc/rdfs"
)

// pat builds a ground/variable TriplePattern; variables are given as
// quad.Variable, ground terms as quad.IRI (the only vocabulary shape the
// RDFS/OWL rule heads below need).
func pat(s, p, o quad.Value) algebra.TriplePattern {
	return algebra.TriplePattern{Subject: s, Predicate: p, Object: o}
}

var (
	typeIRI          = quad.IRI(rdf.Type)
	propertyIRI      = quad.IRI(rdf.Property)
	subClassOfIRI    = quad.IRI(rdfs.SubClassOf)
	subPropertyOfIRI = quad.IRI(rdfs.SubPropertyOf)
	domainIRI        = quad.IRI(rdfs.Domain)
	rangeIRI         = quad.IRI(rdfs.Range)
	resourceIRI      = quad.IRI(rdfs.Resource)
	classIRI         = quad.IRI(rdfs.Class)
	containerMemIRI  = quad.IRI(rdfs.ContainerMembershipProperty)
	memberIRI        = quad.IRI(rdfs.Member)
	datatypeIRI      = quad.IRI(rdfs.Datatype)
	literalIRI       = quad.IRI(rdfs.Literal)
)

// RDFSRules is the full 13-rule RDFS entailment set (spec.md §2, numbered
// as in the W3C RDF Semantics rdfs-entailment table; the teacher's
// inference/inference.go implements a hand-picked subset of these
// incrementally — this set re-derives the same closure, generalized to
// run as ordinary forward-chaining productions over the quad store).
func RDFSRules() []Rule {
	x, y, p, q, r, c, d, e := quad.Variable("x"), quad.Variable("y"), quad.Variable("p"),
		quad.Variable("q"), quad.Variable("r"), quad.Variable("c"), quad.Variable("d"), quad.Variable("e")

	return []Rule{
		{
			Name: "rdfs1", // (x p y) -> (p rdf:type rdf:Property)
			Body: []algebra.TriplePattern{pat(x, p, y)},
			Head: []algebra.TriplePattern{pat(p, typeIRI, propertyIRI)},
		},
		{
			Name: "rdfs2", // (p rdfs:domain c), (x p y) -> (x rdf:type c)
			Body: []algebra.TriplePattern{pat(p, domainIRI, c), pat(x, p, y)},
			Head: []algebra.TriplePattern{pat(x, typeIRI, c)},
		},
		{
			Name: "rdfs3", // (p rdfs:range c), (x p y) -> (y rdf:type c)
			Body: []algebra.TriplePattern{pat(p, rangeIRI, c), pat(x, p, y)},
			Head: []algebra.TriplePattern{pat(y, typeIRI, c)},
		},
		{
			Name: "rdfs4a", // (x p y) -> (x rdf:type rdfs:Resource)
			Body: []algebra.TriplePattern{pat(x, p, y)},
			Head: []algebra.TriplePattern{pat(x, typeIRI, resourceIRI)},
		},
		{
			Name: "rdfs4b", // (x p y) -> (y rdf:type rdfs:Resource)
			Body: []algebra.TriplePattern{pat(x, p, y)},
			Head: []algebra.TriplePattern{pat(y, typeIRI, resourceIRI)},
		},
		{
			Name: "rdfs5", // (p subPropertyOf q), (q subPropertyOf r) -> (p subPropertyOf r)
			Body: []algebra.TriplePattern{pat(p, subPropertyOfIRI, q), pat(q, subPropertyOfIRI, r)},
			Head: []algebra.TriplePattern{pat(p, subPropertyOfIRI, r)},
		},
		{
			Name: "rdfs6", // (p rdf:type rdf:Property) -> (p subPropertyOf p)
			Body: []algebra.TriplePattern{pat(p, typeIRI, propertyIRI)},
			Head: []algebra.TriplePattern{pat(p, subPropertyOfIRI, p)},
		},
		{
			Name: "rdfs7", // (p subPropertyOf q), (x p y) -> (x q y)
			Body: []algebra.TriplePattern{pat(p, subPropertyOfIRI, q), pat(x, p, y)},
			Head: []algebra.TriplePattern{{Subject: x, Predicate: q, Object: y}},
		},
		{
			Name: "rdfs8", // (c rdf:type rdfs:Class) -> (c subClassOf rdfs:Resource)
			Body: []algebra.TriplePattern{pat(c, typeIRI, classIRI)},
			Head: []algebra.TriplePattern{pat(c, subClassOfIRI, resourceIRI)},
		},
		{
			Name: "rdfs9", // (c subClassOf d), (x rdf:type c) -> (x rdf:type d)
			Body: []algebra.TriplePattern{pat(c, subClassOfIRI, d), pat(x, typeIRI, c)},
			Head: []algebra.TriplePattern{pat(x, typeIRI, d)},
		},
		{
			Name: "rdfs10", // (c rdf:type rdfs:Class) -> (c subClassOf c)
			Body: []algebra.TriplePattern{pat(c, typeIRI, classIRI)},
			Head: []algebra.TriplePattern{pat(c, subClassOfIRI, c)},
		},
		{
			Name: "rdfs11", // (c subClassOf d), (d subClassOf e) -> (c subClassOf e)
			Body: []algebra.TriplePattern{pat(c, subClassOfIRI, d), pat(d, subClassOfIRI, e)},
			Head: []algebra.TriplePattern{pat(c, subClassOfIRI, e)},
		},
		{
			Name: "rdfs12", // (p rdf:type ContainerMembershipProperty) -> (p subPropertyOf rdfs:member)
			Body: []algebra.TriplePattern{pat(p, typeIRI, containerMemIRI)},
			Head: []algebra.TriplePattern{pat(p, subPropertyOfIRI, memberIRI)},
		},
		{
			Name: "rdfs13", // (x rdf:type rdfs:Datatype) -> (x subClassOf rdfs:Literal)
			Body: []algebra.TriplePattern{pat(x, typeIRI, datatypeIRI)},
			Head: []algebra.TriplePattern{pat(x, subClassOfIRI, literalIRI)},
		},
	}
}
