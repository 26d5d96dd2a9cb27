package quad

import "fmt"

// QuotedTriple is an RDF-star term: a triple used as a subject or object
// of another quad. It is compared structurally through its components,
// which lets the dictionary intern it once identical quoted triples share
// a single ID.
type QuotedTriple struct {
	Subject   Value
	Predicate Value
	Object    Value
}

func (q QuotedTriple) String() string {
	return fmt.Sprintf("<<%s %s %s>>", StringOf(q.Subject), StringOf(q.Predicate), StringOf(q.Object))
}

// Native returns the quoted triple itself; it has no closer native Go type.
func (q QuotedTriple) Native() interface{} { return q }

// Equal reports whether both quoted triples have equal components,
// recursively.
func (q QuotedTriple) Equal(v Value) bool {
	o, ok := v.(QuotedTriple)
	if !ok {
		return false
	}
	return valueEqual(q.Subject, o.Subject) &&
		valueEqual(q.Predicate, o.Predicate) &&
		valueEqual(q.Object, o.Object)
}

// ToQuad converts the quoted triple into a ground Quad with an empty label.
func (q QuotedTriple) ToQuad() Quad {
	return Quad{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

// QuotedFromQuad builds a QuotedTriple from a Quad, dropping the label.
func QuotedFromQuad(q Quad) QuotedTriple {
	return QuotedTriple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

func valueEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if ea, ok := a.(Equaler); ok {
		return ea.Equal(b)
	}
	return a == b
}

var _ Equaler = QuotedTriple{}
