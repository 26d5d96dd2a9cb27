// Package reason implements the forward-chaining materializer: RDFS (13
// rules) and OWL 2 RL entailment over a store.QuadStore, a generic RETE
// alpha/beta rule engine with truth maintenance, and a stratified Datalog
// evaluator with a RoaringBitmap sparse-matrix fast path for matrix-
// eligible binary-recursive programs (spec.md §4.6).
package reason

import "github.com/quiverdb/quiver/algebra"

// Rule is one forward-chaining production: Body is matched as a BGP
// against the store (reusing exec's BGP join), and each solution
// instantiates Head, inserting any head pattern whose variables are all
// bound (spec.md §3 "Rule / Production").
type Rule struct {
	Name string
	Body []algebra.TriplePattern
	Head []algebra.TriplePattern
}

func (r Rule) bgp() algebra.BGP { return algebra.BGP{Patterns: r.Body} }
