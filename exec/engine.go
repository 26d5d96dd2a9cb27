package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/path"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

// Iter is the pull-driven solution-mapping stream every operator produces,
// the same Next/Result/Err/Close shape as store.MatchIterator, specialized
// to Binding instead of store.Ref.
type Iter interface {
	Next(ctx context.Context) bool
	Result() Binding
	Err() error
	Close() error
}

// Config bounds the executor's resource usage (spec.md §5).
type Config struct {
	// JoinMemoryCap is the maximum number of rows materialized on a
	// hash-join's build side before JoinBudgetExceeded is raised.
	JoinMemoryCap int
	// AggregateMemoryCap bounds the number of distinct groups Group
	// materializes before it fails with an AggregateBudgetExceeded error.
	AggregateMemoryCap int
}

// DefaultConfig caps both the join build side and the number of groups
// at one million.
var DefaultConfig = Config{JoinMemoryCap: 1_000_000, AggregateMemoryCap: 1_000_000}

// Engine evaluates an algebra.Op tree against a store.QuadStore.
type Engine struct {
	QS    *store.QuadStore
	Namer store.Namer
	Paths *path.Evaluator
	Cfg   Config
	Funcs *FuncRegistry
	// Now is the clock NOW() reads (spec.md §6's mandatory date/time
	// builtin catalogue). Defaults to time.Now; tests and any caller
	// needing a reproducible result set it to a fixed func.
	Now func() time.Time
}

// New builds an Engine over qs/namer, wiring a property-path evaluator
// over the same store and a default builtin-function registry.
func New(qs *store.QuadStore, namer store.Namer, cfg Config) *Engine {
	return &Engine{
		QS:    qs,
		Namer: namer,
		Paths: &path.Evaluator{QS: qs, Namer: namer},
		Cfg:   cfg,
		Funcs: NewFuncRegistry(),
		Now:   time.Now,
	}
}

// Eval compiles op into a lazy Iter.
func (e *Engine) Eval(ctx context.Context, op algebra.Op) (Iter, error) {
	switch o := op.(type) {
	case algebra.BGP:
		return e.evalBGP(ctx, o)
	case algebra.Join:
		return e.evalJoin(ctx, o)
	case algebra.LeftJoin:
		return e.evalLeftJoin(ctx, o)
	case algebra.Filter:
		return e.evalFilter(ctx, o)
	case algebra.Union:
		return e.evalUnion(ctx, o)
	case algebra.Minus:
		return e.evalMinus(ctx, o)
	case algebra.Graph:
		return e.evalGraph(ctx, o)
	case algebra.Extend:
		return e.evalExtend(ctx, o)
	case algebra.Project:
		return e.evalProject(ctx, o)
	case algebra.Distinct:
		return e.evalDistinct(ctx, o)
	case algebra.Reduced:
		return e.Eval(ctx, o.Input) // identity; adjacent-duplicate dropping is an optional optimization we do not take
	case algebra.OrderBy:
		return e.evalOrderBy(ctx, o)
	case algebra.Slice:
		return e.evalSlice(ctx, o)
	case algebra.Group:
		return e.evalGroup(ctx, o)
	case algebra.Service:
		return e.evalService(ctx, o)
	case algebra.Path:
		return e.evalPath(ctx, o)
	case algebra.Table:
		return e.evalTable(ctx, o)
	default:
		return nil, fmt.Errorf("exec: unknown algebra op %T", op)
	}
}

// resolveRef looks up v's dictionary ID, or false if v has never been
// interned (meaning no quad can possibly match it).
func (e *Engine) resolveRef(v quad.Value) (store.IDRef, bool) {
	ref := e.Namer.ValueOf(v)
	if ref == nil {
		return 0, false
	}
	id, ok := ref.(store.IDRef)
	return id, ok
}

func (e *Engine) nameOf(id store.IDRef) quad.Value {
	return e.Namer.NameOf(id)
}

// ResolveRef and NameOf are ResolveRef/nameOf exported for callers outside
// the package (reason's RETE network resolves/names terms while matching
// quads against alpha nodes without going through a BGP evaluation).
func (e *Engine) ResolveRef(v quad.Value) (store.IDRef, bool) { return e.resolveRef(v) }
func (e *Engine) NameOf(id store.IDRef) quad.Value            { return e.nameOf(id) }

// --- BGP -------------------------------------------------------------

func (e *Engine) evalBGP(ctx context.Context, op algebra.BGP) (Iter, error) {
	if len(op.Patterns) == 0 {
		return newSliceIter([]Binding{{}}), nil
	}
	return &bgpIter{eng: e, patterns: op.Patterns}, nil
}

type bgpFrame struct {
	binding Binding
	it      *store.MatchIterator
}

// bgpIter is a lazy nested-loop chain join across op.Patterns: it opens
// one store.MatchIterator per pattern level, seeded by the binding
// accumulated from the levels above, and backtracks (closes and pops)
// when a level is exhausted. This never materializes more than one
// MatchIterator per tree depth at a time.
type bgpIter struct {
	eng      *Engine
	patterns []algebra.TriplePattern
	stack    []bgpFrame
	result   Binding
	err      error
	opened   bool
}

func (it *bgpIter) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}
	if !it.opened {
		it.opened = true
		frame, ok, err := it.openFrame(ctx, Binding{}, 0)
		if err != nil {
			it.err = err
			return false
		}
		if !ok {
			return false
		}
		it.stack = []bgpFrame{frame}
	}
	for len(it.stack) > 0 {
		top := len(it.stack) - 1
		frame := &it.stack[top]
		if !frame.it.Next(ctx) {
			if err := frame.it.Err(); err != nil {
				it.err = err
				return false
			}
			frame.it.Close()
			it.stack = it.stack[:top]
			continue
		}
		merged, ok := bindResult(frame.binding, it.patterns[top], frame.it.Result(), it.eng)
		if !ok {
			continue
		}
		if top == len(it.patterns)-1 {
			it.result = merged
			return true
		}
		nextFrame, ok, err := it.openFrame(ctx, merged, top+1)
		if err != nil {
			it.err = err
			return false
		}
		if !ok {
			continue
		}
		it.stack = append(it.stack, nextFrame)
	}
	return false
}

func (it *bgpIter) Result() Binding { return it.result }
func (it *bgpIter) Err() error      { return it.err }
func (it *bgpIter) Close() error {
	var first error
	for _, f := range it.stack {
		if err := f.it.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openFrame builds the store.Pattern for patterns[idx] by substituting
// any variable already bound in binding and resolving ground terms
// through the dictionary; ok is false when a ground or already-bound term
// is not known to the dictionary (so the pattern provably matches
// nothing).
func (it *bgpIter) openFrame(ctx context.Context, binding Binding, idx int) (bgpFrame, bool, error) {
	p := it.patterns[idx]
	var sp store.Pattern
	for _, pos := range []struct {
		term  quad.Value
		id    *store.IDRef
		bound *bool
	}{
		{p.Subject, &sp.S, &sp.BoundS},
		{p.Predicate, &sp.P, &sp.BoundP},
		{p.Object, &sp.O, &sp.BoundO},
		{p.Graph, &sp.C, &sp.BoundC},
	} {
		if pos.term == nil {
			continue
		}
		if v, isVar := pos.term.(quad.Variable); isVar {
			if bv, exists := binding[v]; exists {
				id, ok := it.eng.resolveRef(bv)
				if !ok {
					return bgpFrame{}, false, nil
				}
				*pos.id, *pos.bound = id, true
			}
			continue
		}
		id, ok := it.eng.resolveRef(pos.term)
		if !ok {
			return bgpFrame{}, false, nil
		}
		*pos.id, *pos.bound = id, true
	}
	matchIt, err := it.eng.QS.Match(ctx, sp)
	if err != nil {
		return bgpFrame{}, false, err
	}
	return bgpFrame{binding: binding, it: matchIt}, true, nil
}

// bindResult merges a matched quad's variable positions into binding,
// failing if a variable is already bound to a different value than this
// match would bind it to (should not occur, since openFrame substitutes
// already-bound variables as store.Pattern filters, but a variable can
// appear twice within one pattern, e.g. ?x :knows ?x).
func bindResult(binding Binding, p algebra.TriplePattern, q store.QuadRef, eng *Engine) (Binding, bool) {
	out := binding.Clone()
	bind := func(term quad.Value, id store.IDRef) bool {
		v, isVar := term.(quad.Variable)
		if !isVar {
			return true
		}
		val := eng.nameOf(id)
		if existing, ok := out[v]; ok {
			return valuesEqual(existing, val)
		}
		out[v] = val
		return true
	}
	if !bind(p.Subject, q.S) {
		return nil, false
	}
	if !bind(p.Predicate, q.P) {
		return nil, false
	}
	if !bind(p.Object, q.O) {
		return nil, false
	}
	if p.Graph != nil && !bind(p.Graph, q.C) {
		return nil, false
	}
	return out, true
}

// sliceIter is a pre-materialized Iter, the Binding analogue of
// store.sliceCursor, used for small/known-upfront result sets (Table,
// the BGP zero-pattern identity mapping, and materializing stages like
// Distinct/OrderBy/Group).
type sliceIter struct {
	items []Binding
	pos   int
	err   error
}

func newSliceIter(items []Binding) *sliceIter { return &sliceIter{items: items, pos: -1} }

func (s *sliceIter) Next(ctx context.Context) bool {
	if s.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.err = err
		return false
	}
	s.pos++
	return s.pos < len(s.items)
}
func (s *sliceIter) Result() Binding { return s.items[s.pos] }
func (s *sliceIter) Err() error      { return s.err }
func (s *sliceIter) Close() error    { return nil }

func drainAll(ctx context.Context, it Iter) ([]Binding, error) {
	defer it.Close()
	var out []Binding
	for it.Next(ctx) {
		out = append(out, it.Result())
	}
	return out, it.Err()
}
