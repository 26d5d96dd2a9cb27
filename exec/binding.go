// Package exec turns an algebra.Op tree into a lazy iterator of solution
// mappings: the hash join, the builtin expression evaluator,
// aggregates, and the SPARQL solution modifiers (spec.md §4.4).
package exec

import (
	"sort"
	"strings"

	"github.com/quiverdb/quiver/quad"
)

// Binding is a solution mapping: a partial function from variables to
// ground terms (spec.md §3 "Solution mapping").
type Binding map[quad.Variable]quad.Value

// Clone returns a shallow copy of b.
func (b Binding) Clone() Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// valuesEqual compares two terms by their canonical string form, the same
// encoding dict.Dictionary uses to key its intern map.
func valuesEqual(a, b quad.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return quad.StringOf(a) == quad.StringOf(b)
}

// Compatible reports whether a and b agree on every variable they share
// (spec.md §3 "Two mappings are compatible iff they agree on the
// intersection of their domains").
func Compatible(a, b Binding) bool {
	for k, v := range a {
		if ov, ok := b[k]; ok && !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

// Merge returns the union of a and b, assuming they are Compatible; b's
// bindings take precedence on overlap (callers only merge compatible
// mappings, where overlapping values are already equal).
func Merge(a, b Binding) Binding {
	out := a.Clone()
	for k, v := range b {
		out[k] = v
	}
	return out
}

// SharedVars returns the variables present in both a and b, the join-key
// set a hash-join partitions on.
func SharedVars(a, b Binding) []quad.Variable {
	var out []quad.Variable
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Key produces a deterministic string encoding of b restricted to vars
// (all of b's domain if vars is nil), used as the Distinct/Group dedup
// key. A join bucket key must not go through this nil special-case — see
// joinKey — since a join with zero shared variables needs every row keyed
// on the same constant bucket, not each row's own full domain.
func (b Binding) Key(vars []quad.Variable) string {
	if vars == nil {
		vars = make([]quad.Variable, 0, len(b))
		for k := range b {
			vars = append(vars, k)
		}
	}
	return b.joinKey(vars)
}

// joinKey encodes b restricted to exactly vars, treating a nil or empty
// vars as "no shared variables" rather than Key's "use b's full domain" —
// the correct hash-join bucket key for a Join/LeftJoin whose operands
// share no variables (a valid SPARQL cross product), where every row on
// both sides must land in the same single bucket.
func (b Binding) joinKey(vars []quad.Variable) string {
	sorted := append([]quad.Variable(nil), vars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sb strings.Builder
	for _, v := range sorted {
		sb.WriteString(string(v))
		sb.WriteByte('=')
		if val, ok := b[v]; ok {
			sb.WriteString(quad.StringOf(val))
		}
		sb.WriteByte(';')
	}
	return sb.String()
}
