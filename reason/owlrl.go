package reason

import (
	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/voc/owl"
)

var (
	sameAsIRI             = quad.IRI(owl.SameAs)
	equivalentClassIRI    = quad.IRI(owl.EquivalentClass)
	equivalentPropertyIRI = quad.IRI(owl.EquivalentProperty)
	inverseOfIRI          = quad.IRI(owl.InverseOf)
	functionalPropIRI     = quad.IRI(owl.FunctionalProperty)
	inverseFunctionalIRI  = quad.IRI(owl.InverseFunctionalProperty)
	symmetricPropIRI      = quad.IRI(owl.SymmetricProperty)
	transitivePropIRI     = quad.IRI(owl.TransitiveProperty)
)

// OWLRLRules is the subset of the W3C OWL 2 RL/RDF rule set (named per the
// owl2-profiles "Reasoning in OWL 2 RL and RDF Graphs using Rules" table)
// that is expressible as plain Horn rules over triple patterns — the shape
// reason.Rule and the BGP-join engine in exec support.
//
// Implemented: eq-sym, eq-trans, eq-rep-s, eq-rep-p, eq-rep-o, prp-fp,
// prp-ifp, prp-symp, prp-trp, prp-eqp1, prp-eqp2, prp-inv1, prp-inv2,
// cax-eqc1, cax-eqc2, scm-eqc1, scm-eqc2, scm-eqp1, scm-eqp2.
//
// rdfs9/rdfs11/rdfs2/rdfs3 from RDFSRules already cover cax-sco, scm-sco,
// prp-dom, and prp-rng respectively — OWL 2 RL names them separately but
// the entailment is identical, so they are not duplicated here.
//
// Explicitly out of scope: rules that test consistency rather than derive
// triples (prp-pdw, prp-adp, prp-irp, prp-asyp, cax-dw, eq-diff1 — OWL 2 RL
// treats a fired body as an inconsistency to report, not a fact to insert,
// which this engine has no channel for) and rules keyed off RDF list
// structure (cls-int1, cls-int2, cls-uni, cls-hv1, cls-hv2, cls-svf1,
// cls-svf2, cls-avf, cls-maxc1, cls-maxc2, cls-maxqc1-4 — these require
// walking rdf:first/rdf:rest chains bound to owl:intersectionOf,
// owl:unionOf, owl:someValuesFrom/allValuesFrom/hasValue, and cardinality
// restrictions, which is list recursion rather than a fixed-arity BGP and
// would need a dedicated list-walking pass ahead of the rule engine).
func OWLRLRules() []Rule {
	x, y, z, p, p1, p2, c1, c2 := quad.Variable("x"), quad.Variable("y"), quad.Variable("z"),
		quad.Variable("p"), quad.Variable("p1"), quad.Variable("p2"), quad.Variable("c1"), quad.Variable("c2")

	return []Rule{
		{
			Name: "eq-sym", // (x sameAs y) -> (y sameAs x)
			Body: []algebra.TriplePattern{pat(x, sameAsIRI, y)},
			Head: []algebra.TriplePattern{pat(y, sameAsIRI, x)},
		},
		{
			Name: "eq-trans", // (x sameAs y), (y sameAs z) -> (x sameAs z)
			Body: []algebra.TriplePattern{pat(x, sameAsIRI, y), pat(y, sameAsIRI, z)},
			Head: []algebra.TriplePattern{pat(x, sameAsIRI, z)},
		},
		{
			Name: "eq-rep-s", // (s sameAs s'), (s p o) -> (s' p o)
			Body: []algebra.TriplePattern{pat(x, sameAsIRI, y), {Subject: x, Predicate: p, Object: z}},
			Head: []algebra.TriplePattern{{Subject: y, Predicate: p, Object: z}},
		},
		{
			Name: "eq-rep-p", // (p sameAs p'), (s p o) -> (s p' o)
			Body: []algebra.TriplePattern{pat(p1, sameAsIRI, p2), {Subject: x, Predicate: p1, Object: y}},
			Head: []algebra.TriplePattern{{Subject: x, Predicate: p2, Object: y}},
		},
		{
			Name: "eq-rep-o", // (o sameAs o'), (s p o) -> (s p o')
			Body: []algebra.TriplePattern{pat(y, sameAsIRI, z), {Subject: x, Predicate: p, Object: y}},
			Head: []algebra.TriplePattern{{Subject: x, Predicate: p, Object: z}},
		},
		{
			Name: "prp-fp", // (p type FunctionalProperty), (x p y1), (x p y2) -> (y1 sameAs y2)
			Body: []algebra.TriplePattern{
				pat(p, typeIRI, functionalPropIRI),
				{Subject: x, Predicate: p, Object: y},
				{Subject: x, Predicate: p, Object: z},
			},
			Head: []algebra.TriplePattern{pat(y, sameAsIRI, z)},
		},
		{
			Name: "prp-ifp", // (p type InverseFunctionalProperty), (x1 p y), (x2 p y) -> (x1 sameAs x2)
			Body: []algebra.TriplePattern{
				pat(p, typeIRI, inverseFunctionalIRI),
				{Subject: x, Predicate: p, Object: z},
				{Subject: y, Predicate: p, Object: z},
			},
			Head: []algebra.TriplePattern{pat(x, sameAsIRI, y)},
		},
		{
			Name: "prp-symp", // (p type SymmetricProperty), (x p y) -> (y p x)
			Body: []algebra.TriplePattern{pat(p, typeIRI, symmetricPropIRI), {Subject: x, Predicate: p, Object: y}},
			Head: []algebra.TriplePattern{{Subject: y, Predicate: p, Object: x}},
		},
		{
			Name: "prp-trp", // (p type TransitiveProperty), (x p y), (y p z) -> (x p z)
			Body: []algebra.TriplePattern{
				pat(p, typeIRI, transitivePropIRI),
				{Subject: x, Predicate: p, Object: y},
				{Subject: y, Predicate: p, Object: z},
			},
			Head: []algebra.TriplePattern{{Subject: x, Predicate: p, Object: z}},
		},
		{
			Name: "prp-eqp1", // (p1 equivalentProperty p2), (x p1 y) -> (x p2 y)
			Body: []algebra.TriplePattern{pat(p1, equivalentPropertyIRI, p2), {Subject: x, Predicate: p1, Object: y}},
			Head: []algebra.TriplePattern{{Subject: x, Predicate: p2, Object: y}},
		},
		{
			Name: "prp-eqp2", // (p1 equivalentProperty p2), (x p2 y) -> (x p1 y)
			Body: []algebra.TriplePattern{pat(p1, equivalentPropertyIRI, p2), {Subject: x, Predicate: p2, Object: y}},
			Head: []algebra.TriplePattern{{Subject: x, Predicate: p1, Object: y}},
		},
		{
			Name: "prp-inv1", // (p1 inverseOf p2), (x p1 y) -> (y p2 x)
			Body: []algebra.TriplePattern{pat(p1, inverseOfIRI, p2), {Subject: x, Predicate: p1, Object: y}},
			Head: []algebra.TriplePattern{{Subject: y, Predicate: p2, Object: x}},
		},
		{
			Name: "prp-inv2", // (p1 inverseOf p2), (x p2 y) -> (y p1 x)
			Body: []algebra.TriplePattern{pat(p1, inverseOfIRI, p2), {Subject: x, Predicate: p2, Object: y}},
			Head: []algebra.TriplePattern{{Subject: y, Predicate: p1, Object: x}},
		},
		{
			Name: "cax-eqc1", // (c1 equivalentClass c2), (x type c1) -> (x type c2)
			Body: []algebra.TriplePattern{pat(c1, equivalentClassIRI, c2), pat(x, typeIRI, c1)},
			Head: []algebra.TriplePattern{pat(x, typeIRI, c2)},
		},
		{
			Name: "cax-eqc2", // (c1 equivalentClass c2), (x type c2) -> (x type c1)
			Body: []algebra.TriplePattern{pat(c1, equivalentClassIRI, c2), pat(x, typeIRI, c2)},
			Head: []algebra.TriplePattern{pat(x, typeIRI, c1)},
		},
		{
			Name: "scm-eqc1", // (c1 equivalentClass c2) -> (c1 subClassOf c2)
			Body: []algebra.TriplePattern{pat(c1, equivalentClassIRI, c2)},
			Head: []algebra.TriplePattern{pat(c1, subClassOfIRI, c2)},
		},
		{
			Name: "scm-eqc2", // (c1 equivalentClass c2) -> (c2 subClassOf c1)
			Body: []algebra.TriplePattern{pat(c1, equivalentClassIRI, c2)},
			Head: []algebra.TriplePattern{pat(c2, subClassOfIRI, c1)},
		},
		{
			Name: "scm-eqp1", // (p1 equivalentProperty p2) -> (p1 subPropertyOf p2)
			Body: []algebra.TriplePattern{pat(p1, equivalentPropertyIRI, p2)},
			Head: []algebra.TriplePattern{pat(p1, subPropertyOfIRI, p2)},
		},
		{
			Name: "scm-eqp2", // (p1 equivalentProperty p2) -> (p2 subPropertyOf p1)
			Body: []algebra.TriplePattern{pat(p1, equivalentPropertyIRI, p2)},
			Head: []algebra.TriplePattern{pat(p2, subPropertyOfIRI, p1)},
		},
	}
}
