// Package update implements the SPARQL 1.1 Update engine (spec.md §4.7):
// INSERT/DELETE DATA, INSERT/DELETE WHERE, and graph management
// (CREATE/DROP/CLEAR/COPY/MOVE/ADD). Every operation collects its full
// change-set before touching the store, so it applies all-or-nothing,
// grounded on the teacher's graph/quadwriter.go Delta/Action batch model
// and writer/single.go's ApplyDeltas/IgnoreOpts, generalized here from a
// flat AddQuad/RemoveQuad API to the templated WHERE-clause operations
// spec.md §4.7 names.
package update

import (
	"context"
	"errors"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/clog"
	"github.com/quiverdb/quiver/exec"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
	"github.com/quiverdb/quiver/writer"
)

// ErrConstraintViolation is spec.md §4.7's ConstraintViolation failure
// (e.g. a literal in subject position): the operation is rejected before
// any change is collected.
var ErrConstraintViolation = errors.New("update: constraint violation")

// Operation is one SPARQL Update statement.
type Operation interface {
	isOperation()
}

// InsertData is INSERT DATA { quads }: ground quads (no variables, no
// WHERE clause), inserted verbatim.
type InsertData struct {
	Quads []quad.Quad
}

// DeleteData is DELETE DATA { quads }: ground quads, deleted verbatim.
type DeleteData struct {
	Quads []quad.Quad
}

// InsertWhere is INSERT { template } WHERE { pattern }: pattern is
// evaluated against the pre-update store state, and template is
// instantiated once per resulting binding.
type InsertWhere struct {
	Template []algebra.TriplePattern
	Where    algebra.Op
}

// DeleteWhere is DELETE { template } WHERE { pattern }, same evaluation
// order as InsertWhere.
type DeleteWhere struct {
	Template []algebra.TriplePattern
	Where    algebra.Op
}

// GraphOp is one CREATE/DROP/CLEAR/COPY/MOVE/ADD graph-management
// statement. Source is unused by CREATE/DROP/CLEAR.
type GraphOp struct {
	Kind   GraphOpKind
	Source quad.Value // the graph to copy/move/add from (zero value = default graph)
	Target quad.Value // the graph created/dropped/cleared, or copy/move/add's destination
	Silent bool       // suppress errors for a no-op/missing graph
}

type GraphOpKind int

const (
	Create GraphOpKind = iota
	Drop
	Clear
	Copy
	Move
	Add
)

func (InsertData) isOperation()  {}
func (DeleteData) isOperation()  {}
func (InsertWhere) isOperation() {}
func (DeleteWhere) isOperation() {}
func (GraphOp) isOperation()     {}

// Report summarizes one apply (spec.md §6 "UpdateReport: counts of
// inserted/deleted; incomplete-result flag if reasoner caps hit").
type Report struct {
	Inserted int
	Deleted  int

	// Added and Removed are the concrete quads inserted/deleted by this
	// operation, in the term-level form a schema cache like
	// inference.Store needs for ProcessQuad/UnprocessQuad — empty for
	// GraphOp, which moves whole graphs by ID without ever resolving
	// individual quads back to terms.
	Added, Removed []quad.Quad
}

// Engine applies Operations atomically against a store.QuadStore through
// a writer.Single, using an exec.Engine to evaluate WHERE clauses against
// the pre-update state.
type Engine struct {
	QS       *store.QuadStore
	Interner writer.Interner
	Exec     *exec.Engine
	Writer   *writer.Single
	// Graph is the default graph/context new quads are written to when a
	// quad/pattern doesn't name one explicitly.
	Graph store.IDRef
}

// New builds an Engine over qs/interner, with a Single writer configured
// to ignore duplicate inserts and missing deletes (WHERE-driven
// operations routinely re-derive a binding already present, or target a
// quad another concurrent delete already removed; spec.md §4.7 does not
// make either case a hard failure for templated operations).
func New(qs *store.QuadStore, interner writer.Interner, eng *exec.Engine, graph store.IDRef) *Engine {
	return &Engine{
		QS:       qs,
		Interner: interner,
		Exec:     eng,
		Writer:   writer.NewSingle(qs, interner, graph, writer.IgnoreOpts{IgnoreDup: true, IgnoreMissing: true}),
		Graph:    graph,
	}
}

// Apply runs op to completion: the full change-set is computed first,
// then applied in one atomic batch (writer.Single.ApplyTransaction for
// data and WHERE operations, QuadStore.Batch for graph operations), so a
// failure partway through collection never touches the store.
func (e *Engine) Apply(ctx context.Context, op Operation) (Report, error) {
	switch o := op.(type) {
	case InsertData:
		return e.applyData(ctx, o.Quads, writer.Add)
	case DeleteData:
		return e.applyData(ctx, o.Quads, writer.Delete)
	case InsertWhere:
		return e.applyWhere(ctx, o.Template, o.Where, writer.Add)
	case DeleteWhere:
		return e.applyWhere(ctx, o.Template, o.Where, writer.Delete)
	case GraphOp:
		return e.applyGraphOp(ctx, o)
	default:
		return Report{}, errors.New("update: unknown operation")
	}
}

func (e *Engine) applyData(ctx context.Context, quads []quad.Quad, action writer.Action) (Report, error) {
	for _, q := range quads {
		if err := checkConstraints(q); err != nil {
			return Report{}, err
		}
	}
	deltas := make([]writer.Delta, len(quads))
	for i, q := range quads {
		deltas[i] = writer.Delta{Quad: q, Action: action}
	}
	if err := e.Writer.ApplyTransaction(ctx, deltas); err != nil {
		return Report{}, err
	}
	rep := Report{}
	if action == writer.Add {
		rep.Inserted = len(quads)
		rep.Added = quads
	} else {
		rep.Deleted = len(quads)
		rep.Removed = quads
	}
	clog.Infof("update: applied %d data quads (%s)", len(quads), writer.DescribeAction(action))
	return rep, nil
}

// applyWhere evaluates where against the pre-update store state,
// materializing every resulting binding into a quad.Quad via template
// before any delta is applied — per spec.md §4.7 "the resulting bindings
// are materialized before any deletion or insertion, so a single
// operation cannot observe its own writes".
func (e *Engine) applyWhere(ctx context.Context, template []algebra.TriplePattern, where algebra.Op, action writer.Action) (Report, error) {
	it, err := e.Exec.Eval(ctx, where)
	if err != nil {
		return Report{}, err
	}
	var quads []quad.Quad
	for it.Next(ctx) {
		b := it.Result()
		for _, pat := range template {
			q, ok := instantiate(pat, b)
			if !ok {
				continue
			}
			if err := checkConstraints(q); err != nil {
				it.Close()
				return Report{}, err
			}
			quads = append(quads, q)
		}
	}
	if itErr := it.Err(); itErr != nil {
		it.Close()
		return Report{}, itErr
	}
	it.Close()

	deltas := make([]writer.Delta, len(quads))
	for i, q := range quads {
		deltas[i] = writer.Delta{Quad: q, Action: action}
	}
	if err := e.Writer.ApplyTransaction(ctx, deltas); err != nil {
		return Report{}, err
	}
	rep := Report{}
	if action == writer.Add {
		rep.Inserted = len(quads)
		rep.Added = quads
	} else {
		rep.Deleted = len(quads)
		rep.Removed = quads
	}
	clog.Infof("update: applied %d templated quads (%s)", len(quads), writer.DescribeAction(action))
	return rep, nil
}

// instantiate substitutes b into pat's four positions; ok is false if a
// variable position has no binding (template references a variable the
// WHERE clause never bound — the instance is skipped, not inserted
// partially).
func instantiate(pat algebra.TriplePattern, b exec.Binding) (quad.Quad, bool) {
	s, ok := resolveTerm(pat.Subject, b)
	if !ok {
		return quad.Quad{}, false
	}
	p, ok := resolveTerm(pat.Predicate, b)
	if !ok {
		return quad.Quad{}, false
	}
	o, ok := resolveTerm(pat.Object, b)
	if !ok {
		return quad.Quad{}, false
	}
	q := quad.Quad{Subject: s, Predicate: p, Object: o}
	if pat.Graph != nil {
		if g, ok := resolveTerm(pat.Graph, b); ok {
			q.Label = g
		}
	}
	return q, true
}

func resolveTerm(term quad.Value, b exec.Binding) (quad.Value, bool) {
	if v, isVar := term.(quad.Variable); isVar {
		val, ok := b[v]
		return val, ok
	}
	return term, true
}

// checkConstraints rejects a quad that violates spec.md §4.7's
// ConstraintViolation case: a literal in subject position (RDF 1.1
// requires the subject to be an IRI or blank node).
func checkConstraints(q quad.Quad) error {
	if _, ok := q.Subject.(quad.IRI); ok {
		return nil
	}
	if _, ok := q.Subject.(quad.BNode); ok {
		return nil
	}
	return ErrConstraintViolation
}

func (e *Engine) applyGraphOp(ctx context.Context, o GraphOp) (Report, error) {
	switch o.Kind {
	case Create:
		// Implicit-graph backends (this store's) make every context a
		// no-op to "create": a graph exists the moment a quad names it.
		return Report{}, nil
	case Drop:
		n, err := e.clearGraph(ctx, o.Target)
		if err != nil && !o.Silent {
			return Report{}, err
		}
		return Report{Deleted: n}, nil
	case Clear:
		n, err := e.clearGraph(ctx, o.Target)
		if err != nil && !o.Silent {
			return Report{}, err
		}
		return Report{Deleted: n}, nil
	case Copy:
		return e.copyGraph(ctx, o.Source, o.Target, false, o.Silent)
	case Move:
		return e.copyGraph(ctx, o.Source, o.Target, true, o.Silent)
	case Add:
		return e.copyGraph(ctx, o.Source, o.Target, false, o.Silent)
	default:
		return Report{}, errors.New("update: unknown graph operation")
	}
}

// clearGraph deletes every quad whose context is target (Drop also
// un-registers the graph; this store has no separate registration state
// for implicit-graph backends, so Drop and Clear are identical here).
func (e *Engine) clearGraph(ctx context.Context, target quad.Value) (int, error) {
	id := e.Interner.Intern(target)
	it, err := e.QS.Match(ctx, store.Pattern{C: id, BoundC: true})
	if err != nil {
		return 0, err
	}
	var deltas []store.Delta
	for it.Next(ctx) {
		deltas = append(deltas, store.Delta{Quad: it.Result(), Action: store.Delete})
	}
	if err := it.Err(); err != nil {
		it.Close()
		return 0, err
	}
	it.Close()
	if len(deltas) == 0 {
		return 0, nil
	}
	if err := e.QS.Batch(ctx, deltas); err != nil {
		return 0, err
	}
	return len(deltas), nil
}

// copyGraph copies every quad from source into target (stamping the copy
// with target's context); for Move the deletion of each source quad goes
// into the same batch, so the copy and the clear apply together. Add and
// Copy share this implementation: neither clears the destination first,
// so COPY behaves exactly like ADD here (re-inserting an existing quad is
// a no-op).
func (e *Engine) copyGraph(ctx context.Context, source, target quad.Value, move, silent bool) (Report, error) {
	srcID := e.Interner.Intern(source)
	dstID := e.Interner.Intern(target)
	it, err := e.QS.Match(ctx, store.Pattern{C: srcID, BoundC: true})
	if err != nil {
		if silent {
			return Report{}, nil
		}
		return Report{}, err
	}
	var deltas []store.Delta
	removed := 0
	for it.Next(ctx) {
		q := it.Result()
		deltas = append(deltas, store.Delta{Quad: store.QuadRef{S: q.S, P: q.P, O: q.O, C: dstID}, Action: store.Add})
		if move {
			deltas = append(deltas, store.Delta{Quad: q, Action: store.Delete})
			removed++
		}
	}
	if err := it.Err(); err != nil {
		it.Close()
		if silent {
			return Report{}, nil
		}
		return Report{}, err
	}
	it.Close()
	if err := e.QS.Batch(ctx, deltas); err != nil {
		if silent {
			return Report{}, nil
		}
		return Report{}, err
	}
	rep := Report{Inserted: len(deltas) - removed, Deleted: removed}
	clog.Infof("update: graph op copied %d quads from %v to %v (move=%v)", len(deltas), source, target, move)
	return rep, nil
}
