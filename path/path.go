// Package path implements the SPARQL property-path evaluator (spec.md
// §4.5): iri, ^p, p1/p2, p1|p2, negated property sets, p?, p+, p*, each
// compiled down to store.QuadStore.Match calls. Transitive closures use a
// cycle-safe, per-start visited set BFS, grounded on the teacher's
// graph/iterator.Recursive iterator (seenAt depth-tracked visited map,
// MaxRecursiveSteps bound — mirrored here as Evaluator.MaxDepth, spec.md
// §5's configurable-per-session property-path depth cap).
package path

import (
	"context"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

// Pair is one (subject, object) solution of a path evaluation.
type Pair struct {
	S, O store.IDRef
}

// DefaultMaxDepth is spec.md §5's property-path depth resource cap: the
// number of BFS frontier expansions evalClosure performs per start term
// before giving up and reporting Truncated, independent of how large the
// visited set itself is allowed to grow.
const DefaultMaxDepth = 50

// Evaluator runs property-path expressions against a QuadStore, resolving
// the ground IRIs embedded in a PathExpr (PathIRI, PathNegatedSet) through
// Namer on each call.
type Evaluator struct {
	QS    *store.QuadStore
	Namer store.Namer

	// MaxDepth bounds p+/p* transitive closure to this many hops from each
	// start term (spec.md §5's configurable-per-session path depth cap).
	// Zero uses DefaultMaxDepth; a negative value disables the cap.
	MaxDepth int

	// Truncated is set when a closure evaluation hit MaxDepth before its
	// frontier went empty — the returned pairs are a lower bound on the
	// true closure, not the full set (spec.md §5, same "surface, never
	// silently truncate" contract as reason.Database.Incomplete).
	Truncated bool
}

func (e *Evaluator) maxDepth() int {
	if e.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return e.MaxDepth
}

// unbound is the wildcard sentinel: callers pass it for a variable
// endpoint (store.IDRef zero doubles as store.DefaultGraph, which never
// appears as a subject/object term, so it is safe to reuse as "any").
const unbound = store.IDRef(0)

// Eval yields every (s, o) pair satisfying expr, given subject/object
// endpoints (unbound for a variable position).
func (e *Evaluator) Eval(ctx context.Context, subject, object store.IDRef, expr algebra.PathExpr) ([]Pair, error) {
	switch p := expr.(type) {
	case algebra.PathIRI:
		return e.matchPredicate(ctx, subject, e.toID(p.IRI), object, false)
	case algebra.PathInverse:
		pairs, err := e.Eval(ctx, object, subject, p.Path)
		for i := range pairs {
			pairs[i].S, pairs[i].O = pairs[i].O, pairs[i].S
		}
		return pairs, err
	case algebra.PathSeq:
		return e.evalSeq(ctx, subject, object, p)
	case algebra.PathAlt:
		return e.evalAlt(ctx, subject, object, p)
	case algebra.PathNegatedSet:
		return e.evalNegatedSet(ctx, subject, object, p)
	case algebra.PathZeroOrOne:
		return e.evalZeroOrOne(ctx, subject, object, p)
	case algebra.PathOneOrMore:
		return e.evalClosure(ctx, subject, object, p.Path, false)
	case algebra.PathZeroOrMore:
		return e.evalClosure(ctx, subject, object, p.Path, true)
	default:
		return nil, nil
	}
}

// toID resolves a ground quad.Value to its dictionary ID. A value the
// dictionary has never interned resolves to unbound's numeric value only
// in the degenerate case id 0 was actually assigned to it, which never
// happens (0 is reserved for store.DefaultGraph) — so an unseen term
// correctly yields a predicate/IRI that matches nothing.
func (e *Evaluator) toID(v quad.Value) store.IDRef {
	ref := e.Namer.ValueOf(v)
	if ref == nil {
		return unbound
	}
	id, ok := ref.(store.IDRef)
	if !ok {
		return unbound
	}
	return id
}

// matchPredicate performs the single underlying store scan for a ground
// predicate ID, honoring bound/unbound endpoints; invert swaps the
// returned pair. Every current caller passes false.
func (e *Evaluator) matchPredicate(ctx context.Context, s, p, o store.IDRef, invert bool) ([]Pair, error) {
	pattern := store.Pattern{P: p, BoundP: p != unbound}
	if s != unbound {
		pattern.S, pattern.BoundS = s, true
	}
	if o != unbound {
		pattern.O, pattern.BoundO = o, true
	}
	it, err := e.QS.Match(ctx, pattern)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []Pair
	for it.Next(ctx) {
		r := it.Result()
		if invert {
			out = append(out, Pair{S: r.O, O: r.S})
		} else {
			out = append(out, Pair{S: r.S, O: r.O})
		}
	}
	return out, it.Err()
}

func (e *Evaluator) evalSeq(ctx context.Context, subject, object store.IDRef, p algebra.PathSeq) ([]Pair, error) {
	left, err := e.Eval(ctx, subject, unbound, p.A)
	if err != nil {
		return nil, err
	}
	var out []Pair
	for _, l := range left {
		right, err := e.Eval(ctx, l.O, object, p.B)
		if err != nil {
			return nil, err
		}
		for _, r := range right {
			out = append(out, Pair{S: l.S, O: r.O})
		}
	}
	return out, nil
}

func (e *Evaluator) evalAlt(ctx context.Context, subject, object store.IDRef, p algebra.PathAlt) ([]Pair, error) {
	a, err := e.Eval(ctx, subject, object, p.A)
	if err != nil {
		return nil, err
	}
	b, err := e.Eval(ctx, subject, object, p.B)
	if err != nil {
		return nil, err
	}
	return append(a, b...), nil
}

func (e *Evaluator) evalNegatedSet(ctx context.Context, subject, object store.IDRef, p algebra.PathNegatedSet) ([]Pair, error) {
	forwardExcluded := map[store.IDRef]bool{}
	inverseExcluded := map[store.IDRef]bool{}
	haveInverse := false
	for i, v := range p.IRIs {
		id := e.toID(v)
		if i < len(p.Inverse) && p.Inverse[i] {
			inverseExcluded[id] = true
			haveInverse = true
		} else {
			forwardExcluded[id] = true
		}
	}
	out, err := e.scanExcluding(ctx, subject, object, forwardExcluded, false)
	if err != nil {
		return nil, err
	}
	if haveInverse {
		rev, err := e.scanExcluding(ctx, object, subject, inverseExcluded, true)
		if err != nil {
			return nil, err
		}
		out = append(out, rev...)
	}
	return out, nil
}

func (e *Evaluator) scanExcluding(ctx context.Context, subject, object store.IDRef, excluded map[store.IDRef]bool, invert bool) ([]Pair, error) {
	pattern := store.Pattern{}
	if subject != unbound {
		pattern.S, pattern.BoundS = subject, true
	}
	if object != unbound {
		pattern.O, pattern.BoundO = object, true
	}
	it, err := e.QS.Match(ctx, pattern)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []Pair
	for it.Next(ctx) {
		r := it.Result()
		if excluded[r.P] {
			continue
		}
		if invert {
			out = append(out, Pair{S: r.O, O: r.S})
		} else {
			out = append(out, Pair{S: r.S, O: r.O})
		}
	}
	return out, it.Err()
}

func (e *Evaluator) evalZeroOrOne(ctx context.Context, subject, object store.IDRef, p algebra.PathZeroOrOne) ([]Pair, error) {
	step, err := e.Eval(ctx, subject, object, p.Path)
	if err != nil {
		return nil, err
	}
	if subject != unbound && (object == unbound || object == subject) {
		step = append(step, Pair{S: subject, O: subject})
	}
	return step, nil
}

// evalClosure computes the transitive closure of path from each starting
// term, visiting each reachable term at most once per start (spec.md §4.5
// "visited set per start term"). includeIdentity adds the zero-length
// (s=s) pair, turning OneOrMore into ZeroOrMore.
func (e *Evaluator) evalClosure(ctx context.Context, subject, object store.IDRef, inner algebra.PathExpr, includeIdentity bool) ([]Pair, error) {
	starts, err := e.startTerms(ctx, subject, inner)
	if err != nil {
		return nil, err
	}
	maxDepth := e.maxDepth()
	var out []Pair
	for _, s := range starts {
		visited := map[store.IDRef]bool{}
		if includeIdentity {
			visited[s] = true
			out = append(out, Pair{S: s, O: s})
		}
		frontier := []store.IDRef{s}
		for depth := 0; len(frontier) > 0; depth++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if maxDepth >= 0 && depth >= maxDepth {
				e.Truncated = true
				break
			}
			var next []store.IDRef
			for _, cur := range frontier {
				steps, err := e.Eval(ctx, cur, unbound, inner)
				if err != nil {
					return nil, err
				}
				for _, step := range steps {
					if visited[step.O] {
						continue
					}
					visited[step.O] = true
					out = append(out, Pair{S: s, O: step.O})
					next = append(next, step.O)
				}
			}
			frontier = next
		}
	}
	if object != unbound {
		filtered := out[:0]
		for _, pr := range out {
			if pr.O == object {
				filtered = append(filtered, pr)
			}
		}
		out = filtered
	}
	return out, nil
}

// startTerms enumerates the starting subjects for a closure: the bound
// subject if given, or every distinct subject reachable via inner's first
// step when both endpoints are variables (spec.md §4.5).
func (e *Evaluator) startTerms(ctx context.Context, subject store.IDRef, inner algebra.PathExpr) ([]store.IDRef, error) {
	if subject != unbound {
		return []store.IDRef{subject}, nil
	}
	pairs, err := e.Eval(ctx, unbound, unbound, inner)
	if err != nil {
		return nil, err
	}
	seen := map[store.IDRef]bool{}
	var out []store.IDRef
	for _, p := range pairs {
		if !seen[p.S] {
			seen[p.S] = true
			out = append(out, p.S)
		}
	}
	return out, nil
}
