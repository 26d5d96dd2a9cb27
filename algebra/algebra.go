// Package algebra defines the SPARQL algebra tree the executor walks: an
// immutable, tagged operator tree produced by a parser (out of scope for
// this core — the tree is accepted on the boundary, built by hand or by an
// upstream layer). Modeled as a closed interface, directly grounded on the
// teacher's graph/shape.Shape (BuildIterator/Optimize split, here
// specialized to a sealed operator enumeration instead of an open
// interface, since the algebra is fixed rather than pluggable).
package algebra

import "github.com/quiverdb/quiver/quad"

// Op is the sealed interface every algebra node implements. It carries no
// evaluation behavior itself — the operator tree is data; the exec package
// gives it meaning.
type Op interface {
	isOp()
}

// TriplePattern is one pattern of a BGP: each position is either a ground
// term or a query variable.
type TriplePattern struct {
	Subject, Predicate, Object, Graph quad.Value
}

// BGP is a conjunction of triple patterns evaluated against the store
// (spec.md §4.3 "chain-join starting from a single empty mapping").
type BGP struct {
	Patterns []TriplePattern
}

// Join hash-joins L and R on their shared variables. The executor always
// uses a hash join; it has no index-nested-loop strategy.
type Join struct{ L, R Op }

// LeftJoin is SPARQL's OPTIONAL: every L mapping is kept even if no
// compatible R mapping (passing Expr, if present) exists.
type LeftJoin struct {
	L, R Op
	Expr Expr // nil if the OPTIONAL carries no FILTER
}

// Filter keeps only mappings where Expr's effective boolean value is true.
type Filter struct {
	Expr  Expr
	Input Op
}

// Union concatenates L and R without deduplication.
type Union struct{ L, R Op }

// Minus removes from L every mapping compatible with some R mapping that
// shares at least one variable with it.
type Minus struct{ L, R Op }

// Graph restricts Input to the named graph Name (a ground term or a
// variable to be bound to each input's graph).
type Graph struct {
	Name  quad.Value
	Input Op
}

// Extend computes Expr and binds it to Var; on evaluation error Var is left
// unbound for that mapping.
type Extend struct {
	Var   quad.Variable
	Expr  Expr
	Input Op
}

// Project restricts each mapping's domain to Vars.
type Project struct {
	Vars  []quad.Variable
	Input Op
}

// Distinct deduplicates mappings by their projected domain.
type Distinct struct{ Input Op }

// Reduced permits (but does not require) dropping adjacent duplicates.
type Reduced struct{ Input Op }

// SortDirection orders an OrderBy condition.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// SortCondition is one ORDER BY key.
type SortCondition struct {
	Expr      Expr
	Direction SortDirection
}

// OrderBy materializes Input and sorts by Conds, stable, per SPARQL 1.1
// term order.
type OrderBy struct {
	Conds []SortCondition
	Input Op
}

// Slice drops Offset mappings then yields at most Limit (Limit < 0 means
// unbounded).
type Slice struct {
	Offset, Limit int64
	Input         Op
}

// Aggregate is one SELECT-list aggregate expression.
type Aggregate struct {
	Func     AggFunc
	Arg      Expr // nil for COUNT(*)
	Distinct bool
	Var      quad.Variable // bound name for this aggregate's result
	Separator string       // GROUP_CONCAT only
}

// AggFunc enumerates the seven SPARQL aggregates (spec.md §4.3/§6).
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
	AggGroupConcat
	AggSample
)

// Group materializes groups keyed by Keys and evaluates Aggregates per
// group; an empty Input with no Keys still yields exactly one group.
type Group struct {
	Keys       []Expr
	Aggregates []Aggregate
	Input      Op
}

// Service represents a federated SPARQL endpoint call. Network evaluation
// is out of scope; the executor returns ErrServiceUnsupported, or a single
// empty mapping if Silent is set. No federation backend can be registered.
type Service struct {
	Endpoint quad.Value
	Inner    Op
	Silent   bool
}

// PathExpr is the property-path expression AST (spec.md §4.5).
type PathExpr interface{ isPath() }

// PathIRI matches a single predicate.
type PathIRI struct{ IRI quad.Value }

// PathInverse matches Path in the reverse direction (^p).
type PathInverse struct{ Path PathExpr }

// PathSeq matches A then B (p1/p2).
type PathSeq struct{ A, B PathExpr }

// PathAlt matches A or B (p1|p2).
type PathAlt struct{ A, B PathExpr }

// PathNegatedSet matches any predicate not in IRIs, in either direction if
// Inverse is set for that element (!(p1|^p2|...)).
type PathNegatedSet struct {
	IRIs    []quad.Value
	Inverse []bool
}

// PathZeroOrOne is p?.
type PathZeroOrOne struct{ Path PathExpr }

// PathOneOrMore is p+.
type PathOneOrMore struct{ Path PathExpr }

// PathZeroOrMore is p*.
type PathZeroOrMore struct{ Path PathExpr }

func (PathIRI) isPath()         {}
func (PathInverse) isPath()     {}
func (PathSeq) isPath()         {}
func (PathAlt) isPath()         {}
func (PathNegatedSet) isPath()  {}
func (PathZeroOrOne) isPath()   {}
func (PathOneOrMore) isPath()   {}
func (PathZeroOrMore) isPath()  {}

// Path delegates subject-object matching along Expr to the property-path
// evaluator (§4.5).
type Path struct {
	Subject, Object quad.Value
	Expr            PathExpr
}

// Table is the VALUES clause: Vars names each column, Rows gives each row
// as a positional (possibly partial — nil means unbound) term list.
type Table struct {
	Vars []quad.Variable
	Rows [][]quad.Value
}

func (BGP) isOp()      {}
func (Join) isOp()      {}
func (LeftJoin) isOp()  {}
func (Filter) isOp()    {}
func (Union) isOp()     {}
func (Minus) isOp()     {}
func (Graph) isOp()     {}
func (Extend) isOp()    {}
func (Project) isOp()   {}
func (Distinct) isOp()  {}
func (Reduced) isOp()   {}
func (OrderBy) isOp()   {}
func (Slice) isOp()     {}
func (Group) isOp()     {}
func (Service) isOp()   {}
func (Path) isOp()      {}
func (Table) isOp()     {}
