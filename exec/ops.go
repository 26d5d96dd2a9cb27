package exec

import (
	"context"
	"errors"
	"sort"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

// filterIter wraps an inner Iter, skipping rows whose expression is not
// effective-true.
type filterIter struct {
	eng   *Engine
	inner Iter
	expr  algebra.Expr
	err   error
}

func (e *Engine) evalFilter(ctx context.Context, op algebra.Filter) (Iter, error) {
	inner, err := e.Eval(ctx, op.Input)
	if err != nil {
		return nil, err
	}
	return &filterIter{eng: e, inner: inner, expr: op.Expr}, nil
}

func (f *filterIter) Next(ctx context.Context) bool {
	if f.err != nil {
		return false
	}
	for f.inner.Next(ctx) {
		v, err := f.eng.evalExpr(ctx, f.inner.Result(), f.expr)
		if err != nil {
			continue // type error/unbound => mapping does not satisfy FILTER
		}
		if effectiveBool(v) {
			return true
		}
	}
	f.err = f.inner.Err()
	return false
}
func (f *filterIter) Result() Binding { return f.inner.Result() }
func (f *filterIter) Err() error      { return f.err }
func (f *filterIter) Close() error    { return f.inner.Close() }

// unionIter chains L then R without deduplication.
type unionIter struct {
	left, right Iter
	onLeft      bool
	err         error
}

func (e *Engine) evalUnion(ctx context.Context, op algebra.Union) (Iter, error) {
	l, err := e.Eval(ctx, op.L)
	if err != nil {
		return nil, err
	}
	r, err := e.Eval(ctx, op.R)
	if err != nil {
		l.Close()
		return nil, err
	}
	return &unionIter{left: l, right: r, onLeft: true}, nil
}

func (u *unionIter) Next(ctx context.Context) bool {
	if u.err != nil {
		return false
	}
	if u.onLeft {
		if u.left.Next(ctx) {
			return true
		}
		if err := u.left.Err(); err != nil {
			u.err = err
			return false
		}
		u.onLeft = false
	}
	if u.right.Next(ctx) {
		return true
	}
	u.err = u.right.Err()
	return false
}
func (u *unionIter) Result() Binding {
	if u.onLeft {
		return u.left.Result()
	}
	return u.right.Result()
}
func (u *unionIter) Err() error { return u.err }
func (u *unionIter) Close() error {
	err1 := u.left.Close()
	err2 := u.right.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// --- Graph -------------------------------------------------------------

// evalGraph pushes Name down into every TriplePattern of Input that does
// not already specify a graph, the runtime equivalent of a parser
// rewriting `GRAPH ?g { ... }` into patterns carrying ?g as their context
// term (spec.md §4.3 "Graph restricts evaluation of Input to the named
// graph").
func (e *Engine) evalGraph(ctx context.Context, op algebra.Graph) (Iter, error) {
	return e.Eval(ctx, pushGraph(op.Input, op.Name))
}

func pushGraph(op algebra.Op, name quad.Value) algebra.Op {
	switch o := op.(type) {
	case algebra.BGP:
		patterns := make([]algebra.TriplePattern, len(o.Patterns))
		for i, p := range o.Patterns {
			if p.Graph == nil {
				p.Graph = name
			}
			patterns[i] = p
		}
		return algebra.BGP{Patterns: patterns}
	case algebra.Join:
		return algebra.Join{L: pushGraph(o.L, name), R: pushGraph(o.R, name)}
	case algebra.LeftJoin:
		return algebra.LeftJoin{L: pushGraph(o.L, name), R: pushGraph(o.R, name), Expr: o.Expr}
	case algebra.Filter:
		return algebra.Filter{Expr: o.Expr, Input: pushGraph(o.Input, name)}
	case algebra.Union:
		return algebra.Union{L: pushGraph(o.L, name), R: pushGraph(o.R, name)}
	case algebra.Extend:
		return algebra.Extend{Var: o.Var, Expr: o.Expr, Input: pushGraph(o.Input, name)}
	default:
		return op
	}
}

// --- Extend / Project / Distinct --------------------------------------

type extendIter struct {
	eng    *Engine
	inner  Iter
	v      quad.Variable
	expr   algebra.Expr
	err    error
	result Binding
}

func (e *Engine) evalExtend(ctx context.Context, op algebra.Extend) (Iter, error) {
	inner, err := e.Eval(ctx, op.Input)
	if err != nil {
		return nil, err
	}
	return &extendIter{eng: e, inner: inner, v: op.Var, expr: op.Expr}, nil
}

func (x *extendIter) Next(ctx context.Context) bool {
	if x.err != nil {
		return false
	}
	if !x.inner.Next(ctx) {
		x.err = x.inner.Err()
		return false
	}
	b := x.inner.Result().Clone()
	if v, err := x.eng.evalExpr(ctx, b, x.expr); err == nil {
		b[x.v] = v
	}
	x.result = b
	return true
}
func (x *extendIter) Result() Binding { return x.result }
func (x *extendIter) Err() error      { return x.err }
func (x *extendIter) Close() error    { return x.inner.Close() }

type projectIter struct {
	inner Iter
	vars  []quad.Variable
}

func (e *Engine) evalProject(ctx context.Context, op algebra.Project) (Iter, error) {
	inner, err := e.Eval(ctx, op.Input)
	if err != nil {
		return nil, err
	}
	return &projectIter{inner: inner, vars: op.Vars}, nil
}
func (p *projectIter) Next(ctx context.Context) bool { return p.inner.Next(ctx) }
func (p *projectIter) Result() Binding {
	in := p.inner.Result()
	out := make(Binding, len(p.vars))
	for _, v := range p.vars {
		if val, ok := in[v]; ok {
			out[v] = val
		}
	}
	return out
}
func (p *projectIter) Err() error   { return p.inner.Err() }
func (p *projectIter) Close() error { return p.inner.Close() }

func (e *Engine) evalDistinct(ctx context.Context, op algebra.Distinct) (Iter, error) {
	inner, err := e.Eval(ctx, op.Input)
	if err != nil {
		return nil, err
	}
	rows, err := drainAll(ctx, inner)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, r := range rows {
		k := r.Key(nil)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return newSliceIter(out), nil
}

// --- OrderBy / Slice -----------------------------------------------------

func (e *Engine) evalOrderBy(ctx context.Context, op algebra.OrderBy) (Iter, error) {
	inner, err := e.Eval(ctx, op.Input)
	if err != nil {
		return nil, err
	}
	rows, err := drainAll(ctx, inner)
	if err != nil {
		return nil, err
	}
	// rank orders terms of different kinds: unbound (or an evaluation
	// error) < blank node < IRI < literal.
	rank := func(v quad.Value, err error) int {
		if err != nil {
			return 0
		}
		switch v.(type) {
		case quad.BNode:
			return 1
		case quad.IRI:
			return 2
		}
		return 3
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, c := range op.Conds {
			vi, erri := e.evalExpr(ctx, rows[i], c.Expr)
			vj, errj := e.evalExpr(ctx, rows[j], c.Expr)
			cmp := rank(vi, erri) - rank(vj, errj)
			if cmp == 0 && erri == nil {
				cmp = compareValues(vi, vj)
			}
			if cmp == 0 {
				continue
			}
			if c.Direction == algebra.Descending {
				cmp = -cmp
			}
			return cmp < 0
		}
		return false
	})
	return newSliceIter(rows), nil
}

type sliceIterOp struct {
	inner        Iter
	remainOffset int64
	remainLimit  int64 // negative = unbounded
}

func (e *Engine) evalSlice(ctx context.Context, op algebra.Slice) (Iter, error) {
	inner, err := e.Eval(ctx, op.Input)
	if err != nil {
		return nil, err
	}
	return &sliceIterOp{inner: inner, remainOffset: op.Offset, remainLimit: op.Limit}, nil
}

func (s *sliceIterOp) Next(ctx context.Context) bool {
	for s.remainOffset > 0 {
		if !s.inner.Next(ctx) {
			return false
		}
		s.remainOffset--
	}
	if s.remainLimit == 0 {
		return false
	}
	if !s.inner.Next(ctx) {
		return false
	}
	if s.remainLimit > 0 {
		s.remainLimit--
	}
	return true
}
func (s *sliceIterOp) Result() Binding { return s.inner.Result() }
func (s *sliceIterOp) Err() error      { return s.inner.Err() }
func (s *sliceIterOp) Close() error    { return s.inner.Close() }

// --- Service -------------------------------------------------------------

// ErrServiceUnsupported is returned for a non-Silent SERVICE clause: this
// module evaluates queries against a single local store and has no
// federation transport wired in (spec.md Non-goals "SPARQL federation
// execution is out of scope; SERVICE must fail closed unless SILENT").
var ErrServiceUnsupported = errors.New("exec: SERVICE is not supported by this executor")

func (e *Engine) evalService(ctx context.Context, op algebra.Service) (Iter, error) {
	if op.Silent {
		return newSliceIter([]Binding{{}}), nil
	}
	return nil, ErrServiceUnsupported
}

// --- Path ------------------------------------------------------------

func (e *Engine) evalPath(ctx context.Context, op algebra.Path) (Iter, error) {
	subVar, subBound := op.Subject.(quad.Variable)
	objVar, objBound := op.Object.(quad.Variable)

	var sid, oid store.IDRef // zero value doubles as the unbound sentinel
	if !subBound {
		id, ok := e.resolveRef(op.Subject)
		if !ok {
			return newSliceIter(nil), nil
		}
		sid = id
	}
	if !objBound {
		id, ok := e.resolveRef(op.Object)
		if !ok {
			return newSliceIter(nil), nil
		}
		oid = id
	}

	pairs, err := e.Paths.Eval(ctx, sid, oid, op.Expr)
	if err != nil {
		return nil, err
	}
	rows := make([]Binding, 0, len(pairs))
	for _, p := range pairs {
		b := Binding{}
		if subBound {
			b[subVar] = e.nameOf(p.S)
		}
		if objBound {
			b[objVar] = e.nameOf(p.O)
		}
		rows = append(rows, b)
	}
	return newSliceIter(rows), nil
}

// --- Table -----------------------------------------------------------

func (e *Engine) evalTable(ctx context.Context, op algebra.Table) (Iter, error) {
	rows := make([]Binding, 0, len(op.Rows))
	for _, row := range op.Rows {
		b := Binding{}
		for i, v := range row {
			if i >= len(op.Vars) || v == nil {
				continue
			}
			b[op.Vars[i]] = v
		}
		rows = append(rows, b)
	}
	return newSliceIter(rows), nil
}
