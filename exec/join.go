package exec

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/quad"
)

// JoinBudgetExceeded is returned when a join's materialized side would
// exceed Config.JoinMemoryCap (spec.md §5 "the executor must reject a
// plan whose join strategy would require unbounded buffering rather than
// silently exhausting memory").
type JoinBudgetExceeded struct {
	Cap int
}

func (e *JoinBudgetExceeded) Error() string {
	return fmt.Sprintf("exec: join exceeded memory cap of %d rows", e.Cap)
}

// materialize drains op fully, bounded by Cfg.JoinMemoryCap. Both sides of
// a hash join need to exist as a queryable set at once, so unlike the rest
// of the executor this one stage is not pull-driven.
func (e *Engine) materialize(ctx context.Context, op algebra.Op) ([]Binding, error) {
	it, err := e.Eval(ctx, op)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []Binding
	for it.Next(ctx) {
		if e.Cfg.JoinMemoryCap > 0 && len(out) >= e.Cfg.JoinMemoryCap {
			return nil, &JoinBudgetExceeded{Cap: e.Cfg.JoinMemoryCap}
		}
		out = append(out, it.Result())
	}
	return out, it.Err()
}

// materializeBoth evaluates L and R concurrently, grounded on the
// teacher's pattern of fanning independent subqueries out with
// errgroup.Group rather than evaluating them serially.
func (e *Engine) materializeBoth(ctx context.Context, l, r algebra.Op) ([]Binding, []Binding, error) {
	g, gctx := errgroup.WithContext(ctx)
	var lRows, rRows []Binding
	g.Go(func() error {
		var err error
		lRows, err = e.materialize(gctx, l)
		return err
	})
	g.Go(func() error {
		var err error
		rRows, err = e.materialize(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lRows, rRows, nil
}

// domainVars returns the variables bound in every row of rows. Rows from
// LeftJoin, Union or Table can bind different variable sets, so a
// variable missing from any row is not used as a join key.
func domainVars(rows []Binding) []quad.Variable {
	if len(rows) == 0 {
		return nil
	}
	vars := make([]quad.Variable, 0, len(rows[0]))
	for v := range rows[0] {
		inAll := true
		for _, r := range rows[1:] {
			if _, ok := r[v]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			vars = append(vars, v)
		}
	}
	return vars
}

func sharedDomain(l, r []Binding) []quad.Variable {
	lv := domainVars(l)
	rSet := map[quad.Variable]bool{}
	for _, v := range domainVars(r) {
		rSet[v] = true
	}
	var shared []quad.Variable
	for _, v := range lv {
		if rSet[v] {
			shared = append(shared, v)
		}
	}
	return shared
}

// index buckets rows by their projection onto keyVars, the build side of
// a hash join. keyVars may legitimately be empty (a Join/LeftJoin whose
// operands share no variables degenerates to a cross product), in which
// case every row must land in the single bucket keyed on joinKey(nil),
// never Key's "fall back to this row's own full domain" behavior.
func index(rows []Binding, keyVars []quad.Variable) map[string][]Binding {
	idx := make(map[string][]Binding, len(rows))
	for _, row := range rows {
		k := row.joinKey(keyVars)
		idx[k] = append(idx[k], row)
	}
	return idx
}

func (e *Engine) evalJoin(ctx context.Context, op algebra.Join) (Iter, error) {
	lRows, rRows, err := e.materializeBoth(ctx, op.L, op.R)
	if err != nil {
		return nil, err
	}
	shared := sharedDomain(lRows, rRows)
	rIdx := index(rRows, shared)

	var out []Binding
	for _, l := range lRows {
		for _, r := range rIdx[l.joinKey(shared)] {
			if Compatible(l, r) {
				out = append(out, Merge(l, r))
			}
		}
	}
	return newSliceIter(out), nil
}

func (e *Engine) evalLeftJoin(ctx context.Context, op algebra.LeftJoin) (Iter, error) {
	lRows, rRows, err := e.materializeBoth(ctx, op.L, op.R)
	if err != nil {
		return nil, err
	}
	shared := sharedDomain(lRows, rRows)
	rIdx := index(rRows, shared)

	var out []Binding
	for _, l := range lRows {
		matched := false
		for _, r := range rIdx[l.joinKey(shared)] {
			if !Compatible(l, r) {
				continue
			}
			merged := Merge(l, r)
			if op.Expr != nil {
				v, err := e.evalExpr(ctx, merged, op.Expr)
				if err != nil || !effectiveBool(v) {
					continue
				}
			}
			out = append(out, merged)
			matched = true
		}
		if !matched {
			out = append(out, l)
		}
	}
	return newSliceIter(out), nil
}

func (e *Engine) evalMinus(ctx context.Context, op algebra.Minus) (Iter, error) {
	lRows, rRows, err := e.materializeBoth(ctx, op.L, op.R)
	if err != nil {
		return nil, err
	}
	var out []Binding
	for _, l := range lRows {
		excluded := false
		for _, r := range rRows {
			if len(SharedVars(l, r)) == 0 {
				continue
			}
			if Compatible(l, r) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, l)
		}
	}
	return newSliceIter(out), nil
}
