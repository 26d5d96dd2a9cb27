package algebra

import "github.com/quiverdb/quiver/quad"

// Expr is the SPARQL expression AST: literals, variable references,
// builtin-function calls, and the EXISTS/NOT EXISTS pattern tests. The
// exec package's evaluator walks this tree against a single binding.
type Expr interface{ isExpr() }

// Const is a ground RDF term literal.
type Const struct{ Value quad.Value }

// VarRef references a bound variable; evaluating it when the variable is
// unbound in the current mapping is itself a TypeError (spec.md §7).
type VarRef struct{ Var quad.Variable }

// Func is a builtin-function or user-registered-function call.
type Func struct {
	Name FuncName
	IRI  quad.Value // set only when Name == UserFunc
	Args []Expr
}

func (Const) isExpr() {}
func (VarRef) isExpr() {}
func (Func) isExpr()   {}

// Exists evaluates Pattern against the current mapping and yields its
// boolean presence/absence; Negate makes it NOT EXISTS.
type Exists struct {
	Pattern Op
	Negate  bool
}

func (Exists) isExpr() {}

// FuncName enumerates the 53 named builtin SPARQL functions and 12
// operators, grouped by category as the spec's own builtin catalogue lists
// them.
type FuncName int

const (
	// String functions (17).
	FnStr FuncName = iota
	FnLang
	FnDatatype
	FnStrlen
	FnSubstr
	FnUcase
	FnLcase
	FnStrStarts
	FnStrEnds
	FnContains
	FnStrBefore
	FnStrAfter
	FnEncodeForURI
	FnConcat
	FnReplace
	FnRegex
	FnLangMatches

	// Numeric functions (≥5).
	FnAbs
	FnRound
	FnCeil
	FnFloor
	FnRand

	// Date/time functions (≥9).
	FnNow
	FnYear
	FnMonth
	FnDay
	FnHours
	FnMinutes
	FnSeconds
	FnTimezone
	FnTz

	// Hash functions (≥5).
	FnMD5
	FnSHA1
	FnSHA256
	FnSHA384
	FnSHA512

	// Test functions (11).
	FnIsIRI
	FnIsBlank
	FnIsLiteral
	FnIsNumeric
	FnBound
	FnSameTerm
	FnIn
	FnNotIn
	FnLogicalAnd
	FnLogicalOr
	FnLogicalNot

	// Constructor functions (≥6).
	FnIf
	FnCoalesce
	FnBNode
	FnIRI
	FnStrDt
	FnStrLang

	// Arithmetic and comparison operators, evaluated through the same
	// Func node as the named builtins above.
	FnUnaryPlus
	FnUnaryMinus
	FnAdd
	FnSub
	FnMul
	FnDiv
	FnEq
	FnNeq
	FnLt
	FnLte
	FnGt
	FnGte

	// UserFunc dispatches to a user-registered function looked up by IRI
	// (Func.IRI), per spec.md §6 "plus user-registered functions by IRI".
	UserFunc
)
