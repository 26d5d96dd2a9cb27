package reason

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/quiverdb/quiver/quad"
)

// matrixEligible reports whether rules is exactly the classic
// binary-recursive transitive-closure shape:
//
//	R(X, Y) :- base(X, Y).
//	R(X, Y) :- base(X, Z), R(Z, Y).
//
// (or the symmetric R(X,Z), base(Z,Y) body order) over a single base
// predicate and a single recursive predicate R, both arity 2, with no
// negation. This is the one shape spec.md §8 scenario 6 calls out for a
// sparse-matrix fast path (ancestor-from-parent and similar chain/graph
// closures); anything else — ternary predicates, multiple base relations,
// non-linear recursion — falls back to the general Evaluate fixpoint.
func matrixEligible(rules []DatalogRule) (base, recursive string, ok bool) {
	if len(rules) != 2 {
		return "", "", false
	}
	var baseRule, recRule *DatalogRule
	for i := range rules {
		r := &rules[i]
		if len(r.Body) == 1 {
			baseRule = r
		} else if len(r.Body) == 2 {
			recRule = r
		}
	}
	if baseRule == nil || recRule == nil {
		return "", "", false
	}
	if len(baseRule.Head.Args) != 2 || len(recRule.Head.Args) != 2 {
		return "", "", false
	}
	if baseRule.Head.Pred != recRule.Head.Pred {
		return "", "", false
	}
	r := recRule.Head.Pred
	b := baseRule.Body[0].Pred
	if baseRule.Body[0].Pred == "" || baseRule.Body[0].Negated {
		return "", "", false
	}
	var sawBase, sawRec bool
	for _, atom := range recRule.Body {
		if atom.Negated || len(atom.Args) != 2 {
			return "", "", false
		}
		switch atom.Pred {
		case b:
			sawBase = true
		case r:
			sawRec = true
		default:
			return "", "", false
		}
	}
	if !sawBase || !sawRec {
		return "", "", false
	}
	return b, r, true
}

// MatrixClosure is the transitive closure of a binary relation, one
// RoaringBitmap per source term ID of everything reachable from it —
// grounded on AKJUS-bsc-erigon's use of Roaring bitmaps for compact
// integer-keyed sets, applied here to term IDs rather than block/tx
// indices.
type MatrixClosure struct {
	reach map[uint64]*roaring64.Bitmap
}

// computeClosure runs a semi-naive bitmap fixpoint over base (source ID ->
// bitmap of directly related target IDs), producing the full transitive
// closure without ever rescanning a source's already-known reachable set:
// each round only propagates the delta discovered in the previous round,
// so the total work is proportional to the number of (source, newly
// reachable target) pairs actually derived, not rounds × relation size —
// the genuine Δ-propagation reason/engine.go's Materializer doc comment
// defers to this file for.
func computeClosure(base map[uint64]*roaring64.Bitmap) *MatrixClosure {
	closure := make(map[uint64]*roaring64.Bitmap, len(base))
	delta := make(map[uint64]*roaring64.Bitmap, len(base))
	for x, bm := range base {
		closure[x] = bm.Clone()
		delta[x] = bm.Clone()
	}

	for len(delta) > 0 {
		next := map[uint64]*roaring64.Bitmap{}
		for x, dbm := range delta {
			it := dbm.Iterator()
			for it.HasNext() {
				z := it.Next()
				zReach, ok := closure[z]
				if !ok {
					continue
				}
				cur, ok := closure[x]
				if !ok {
					cur = roaring64.New()
					closure[x] = cur
				}
				diff := roaring64.AndNot(zReach, cur)
				if diff.IsEmpty() {
					continue
				}
				cur.Or(diff)
				n, ok := next[x]
				if !ok {
					n = roaring64.New()
					next[x] = n
				}
				n.Or(diff)
			}
		}
		delta = next
	}
	return &MatrixClosure{reach: closure}
}

// EvaluateMatrix runs rules through the sparse-matrix fast path when they
// match matrixEligible's shape, translating facts to/from term IDs via
// intern/name so the result is the exact (non-approximate, non-truncated)
// relation computeClosure derives — identical to what Evaluate would
// produce for the same program, just without the per-round full-relation
// rescans. ok is false when rules don't match the eligible shape, and the
// caller should fall back to Evaluate.
func EvaluateMatrix(rules []DatalogRule, edb []Atom, interner Interner) (recursivePred string, facts []Atom, ok bool) {
	base, recursive, eligible := matrixEligible(rules)
	if !eligible {
		return "", nil, false
	}

	idOf := map[uint64]quad.Value{}
	edges := map[uint64]*roaring64.Bitmap{}
	for _, f := range edb {
		if f.Pred != base || len(f.Args) != 2 {
			continue
		}
		sv, ok1 := f.Args[0].(quad.Value)
		tv, ok2 := f.Args[1].(quad.Value)
		if !ok1 || !ok2 {
			continue
		}
		s := uint64(interner.Intern(sv))
		t := uint64(interner.Intern(tv))
		idOf[s] = sv
		idOf[t] = tv
		bm, ok := edges[s]
		if !ok {
			bm = roaring64.New()
			edges[s] = bm
		}
		bm.Add(t)
	}

	closure := computeClosure(edges)
	for s, bm := range closure.reach {
		it := bm.Iterator()
		for it.HasNext() {
			t := it.Next()
			sv, svOK := idOf[s]
			tv, tvOK := idOf[t]
			if !svOK || !tvOK {
				continue
			}
			facts = append(facts, Atom{Pred: recursive, Args: []Term{sv, tv}})
		}
	}
	return recursive, facts, true
}
