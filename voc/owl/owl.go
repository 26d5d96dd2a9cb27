// Package owl contains constants of the Web Ontology Language (OWL 2) vocabulary.
package owl

import "github.com/quiverdb/quiver/voc"

func init() {
	voc.RegisterPrefix(Prefix, NS)
}

const (
	NS     = `http://www.w3.org/2002/07/owl#`
	Prefix = `owl:`
)

// Classes and class constructors used by the OWL 2 RL rule set.
const (
	Thing         = NS + `Thing`
	Nothing       = NS + `Nothing`
	Class         = NS + `Class`
	Restriction   = NS + `Restriction`
	UnionOf       = NS + `unionOf`
	IntersectionOf = NS + `intersectionOf`
	ComplementOf  = NS + `complementOf`
	OneOf         = NS + `oneOf`
)

// Property characteristics.
const (
	ObjectProperty             = NS + `ObjectProperty`
	DatatypeProperty           = NS + `DatatypeProperty`
	FunctionalProperty         = NS + `FunctionalProperty`
	InverseFunctionalProperty  = NS + `InverseFunctionalProperty`
	TransitiveProperty         = NS + `TransitiveProperty`
	SymmetricProperty          = NS + `SymmetricProperty`
	AsymmetricProperty         = NS + `AsymmetricProperty`
	ReflexiveProperty          = NS + `ReflexiveProperty`
	IrreflexiveProperty        = NS + `IrreflexiveProperty`
	InverseOf                  = NS + `inverseOf`
	PropertyChainAxiom         = NS + `propertyChainAxiom`
	EquivalentProperty         = NS + `equivalentProperty`
	PropertyDisjointWith       = NS + `propertyDisjointWith`
)

// Restriction properties.
const (
	OnProperty       = NS + `onProperty`
	OnClass          = NS + `onClass`
	SomeValuesFrom   = NS + `someValuesFrom`
	AllValuesFrom    = NS + `allValuesFrom`
	HasValue         = NS + `hasValue`
	HasSelf          = NS + `hasSelf`
	Cardinality      = NS + `cardinality`
	MinCardinality   = NS + `minCardinality`
	MaxCardinality   = NS + `maxCardinality`
	QualifiedCardinality    = NS + `qualifiedCardinality`
	MinQualifiedCardinality = NS + `minQualifiedCardinality`
	MaxQualifiedCardinality = NS + `maxQualifiedCardinality`
)

// Individual/class equivalence and disjointness.
const (
	SameAs          = NS + `sameAs`
	DifferentFrom   = NS + `differentFrom`
	AllDifferent    = NS + `AllDifferent`
	DistinctMembers = NS + `distinctMembers`
	EquivalentClass = NS + `equivalentClass`
	DisjointWith    = NS + `disjointWith`
	AllDisjointClasses = NS + `AllDisjointClasses`
	Members         = NS + `members`
)

// Annotation and deprecated constructs retained for completeness of rule bodies.
const (
	DeprecatedClass    = NS + `DeprecatedClass`
	DeprecatedProperty = NS + `DeprecatedProperty`
	AnnotationProperty = NS + `AnnotationProperty`
)
