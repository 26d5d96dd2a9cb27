package exec

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/quad"
)

// evalGroup partitions Input's rows by Keys and reduces each partition
// with Aggregates. An input with no Keys still yields exactly one group
// — the empty key — even over zero input rows, so COUNT(*) of an empty
// pattern reports 0 rather than no solutions (spec.md §4.3).
func (e *Engine) evalGroup(ctx context.Context, op algebra.Group) (Iter, error) {
	inner, err := e.Eval(ctx, op.Input)
	if err != nil {
		return nil, err
	}
	rows, err := drainAll(ctx, inner)
	if err != nil {
		return nil, err
	}

	type group struct {
		key  Binding // the group's key-variable bindings
		rows []Binding
	}
	groups := map[string]*group{}
	var order []string
	addRow := func(row Binding) {
		keyBinding := Binding{}
		var sb strings.Builder
		for i, k := range op.Keys {
			v, err := e.evalExpr(ctx, row, k)
			if err != nil {
				sb.WriteString("∅;")
				continue
			}
			sb.WriteString(quad.StringOf(v))
			sb.WriteByte(';')
			if vr, ok := k.(algebra.VarRef); ok {
				keyBinding[vr.Var] = v
			} else {
				keyBinding[quad.Variable("__key"+strconv.Itoa(i))] = v
			}
		}
		gk := sb.String()
		g, ok := groups[gk]
		if !ok {
			g = &group{key: keyBinding}
			groups[gk] = g
			order = append(order, gk)
		}
		g.rows = append(g.rows, row)
	}

	if len(op.Keys) == 0 {
		groups[""] = &group{key: Binding{}, rows: rows}
		order = []string{""}
	} else {
		for _, row := range rows {
			addRow(row)
		}
	}
	if limit := e.Cfg.AggregateMemoryCap; limit > 0 && len(order) > limit {
		return nil, fmt.Errorf("exec: AggregateBudgetExceeded: %d groups exceed the cap of %d", len(order), limit)
	}

	sort.Strings(order)
	out := make([]Binding, 0, len(order))
	for _, gk := range order {
		g := groups[gk]
		b := g.key.Clone()
		for _, agg := range op.Aggregates {
			v, err := e.evalAggregate(ctx, agg, g.rows)
			if err == nil {
				b[agg.Var] = v
			}
		}
		out = append(out, b)
	}
	return newSliceIter(out), nil
}

// evalAggregate reduces rows to a single value per SPARQL 1.1 §11.4's
// aggregate semantics: COUNT(*) counts rows, the rest evaluate Arg per
// row and skip rows where it errors (unbound).
func (e *Engine) evalAggregate(ctx context.Context, agg algebra.Aggregate, rows []Binding) (quad.Value, error) {
	if agg.Func == algebra.AggCount && agg.Arg == nil {
		return quad.Int(len(rows)), nil
	}

	vals := make([]quad.Value, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		v, err := e.evalExpr(ctx, row, agg.Arg)
		if err != nil {
			continue
		}
		if agg.Distinct {
			k := quad.StringOf(v)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		vals = append(vals, v)
	}

	switch agg.Func {
	case algebra.AggCount:
		return quad.Int(len(vals)), nil
	case algebra.AggSum:
		var sum float64
		allInt := true
		for _, v := range vals {
			f, _ := asFloat(v)
			sum += f
			if _, ok := v.(quad.Int); !ok {
				allInt = false
			}
		}
		if allInt {
			return numericResult(quad.Int(0), sum), nil
		}
		return quad.Float(sum), nil
	case algebra.AggAvg:
		if len(vals) == 0 {
			return quad.Int(0), nil
		}
		var sum float64
		for _, v := range vals {
			f, _ := asFloat(v)
			sum += f
		}
		return quad.Float(sum / float64(len(vals))), nil
	case algebra.AggMin:
		if len(vals) == 0 {
			return nil, errUnbound
		}
		min := vals[0]
		for _, v := range vals[1:] {
			if compareValues(v, min) < 0 {
				min = v
			}
		}
		return min, nil
	case algebra.AggMax:
		if len(vals) == 0 {
			return nil, errUnbound
		}
		max := vals[0]
		for _, v := range vals[1:] {
			if compareValues(v, max) > 0 {
				max = v
			}
		}
		return max, nil
	case algebra.AggSample:
		if len(vals) == 0 {
			return nil, errUnbound
		}
		return vals[0], nil
	case algebra.AggGroupConcat:
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = asString(v)
		}
		sep := agg.Separator
		if sep == "" {
			sep = " "
		}
		return quad.String(strings.Join(parts, sep)), nil
	}
	return nil, errUnbound
}
