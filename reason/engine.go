package reason

import (
	"context"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/exec"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

// Interner is the dictionary capability the materializer needs beyond
// store.Namer: rule heads can name vocabulary terms (rdf:type,
// rdfs:subClassOf, ...) that may not yet be interned when a program
// starts from a bare base graph.
type Interner interface {
	store.Namer
	Intern(quad.Value) store.IDRef
}

// Report summarizes one materialization run (spec.md §6
// "MaterializationReport").
type Report struct {
	Rounds     int
	Inserted   int
	Incomplete bool
}

// Materializer runs a rule set to a forward-chaining fixpoint over a
// store.QuadStore (spec.md §4.6 "Semi-naive evaluation... Fixpoint is
// guaranteed because the rule set is monotone and the Herbrand base is
// finite"). Each round re-evaluates every rule body as a BGP against the
// current store state and inserts any newly derivable head instance;
// the loop stops the round no insertion happens. This reaches the exact
// same fixpoint as a Δ-seeded semi-naive join (the rule set is monotone,
// so round order does not matter) at the cost of repeating full-store
// body scans each round — acceptable for RDFS/OWL-RL's small, low-arity
// rule set; reason/matrix.go takes the genuine Δ-propagation path for
// the binary-recursive case where round count and store size make that
// cost matter (spec.md §8 scenario 6).
type Materializer struct {
	QS      *store.QuadStore
	Interner Interner
	Eng     *exec.Engine
	// Graph is the designated inference graph new derivations are
	// inserted into (spec.md §4.6 "caller-chosen or the default graph").
	Graph store.IDRef
	// MaxRounds bounds the fixpoint loop; 0 means unbounded.
	MaxRounds int
}

// NewMaterializer builds a Materializer over qs/interner, writing
// derivations into graph (store.DefaultGraph if the caller has no
// separate inference graph).
func NewMaterializer(qs *store.QuadStore, interner Interner, graph store.IDRef) *Materializer {
	return &Materializer{
		QS:       qs,
		Interner: interner,
		Eng:      exec.New(qs, interner, exec.DefaultConfig),
		Graph:    graph,
	}
}

// Materialize runs rules to a fixpoint, returning how many rounds ran and
// how many quads were newly inserted.
func (m *Materializer) Materialize(ctx context.Context, rules []Rule) (Report, error) {
	var rep Report
	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if m.MaxRounds > 0 && rep.Rounds >= m.MaxRounds {
			rep.Incomplete = true
			return rep, nil
		}
		rep.Rounds++
		roundInserted := 0
		for _, rule := range rules {
			n, err := m.applyRule(ctx, rule)
			if err != nil {
				return rep, err
			}
			roundInserted += n
		}
		rep.Inserted += roundInserted
		if roundInserted == 0 {
			return rep, nil
		}
	}
}

func (m *Materializer) applyRule(ctx context.Context, rule Rule) (int, error) {
	it, err := m.Eng.Eval(ctx, rule.bgp())
	if err != nil {
		return 0, err
	}
	defer it.Close()

	inserted := 0
	for it.Next(ctx) {
		binding := it.Result()
		for _, head := range rule.Head {
			ref, ok := m.instantiate(binding, head)
			if !ok {
				continue
			}
			existed, err := m.QS.Contains(ctx, ref)
			if err != nil {
				return inserted, err
			}
			if existed {
				continue
			}
			if err := m.QS.Insert(ctx, ref); err != nil {
				return inserted, err
			}
			inserted++
		}
	}
	return inserted, it.Err()
}

// instantiate substitutes binding into head's four positions, interning
// any ground vocabulary term the head names directly (rdf:type, etc.)
// and resolving variables from binding; ok is false if a head variable
// has no binding (should not happen for a range-restricted rule, but a
// malformed rule must not panic or derive a partial quad).
func (m *Materializer) instantiate(binding exec.Binding, head algebra.TriplePattern) (store.QuadRef, bool) {
	s, ok := m.termID(binding, head.Subject)
	if !ok {
		return store.QuadRef{}, false
	}
	p, ok := m.termID(binding, head.Predicate)
	if !ok {
		return store.QuadRef{}, false
	}
	o, ok := m.termID(binding, head.Object)
	if !ok {
		return store.QuadRef{}, false
	}
	c := m.Graph
	if head.Graph != nil {
		if id, ok := m.termID(binding, head.Graph); ok {
			c = id
		}
	}
	return store.QuadRef{S: s, P: p, O: o, C: c}, true
}

func (m *Materializer) termID(binding exec.Binding, term quad.Value) (store.IDRef, bool) {
	if v, isVar := term.(quad.Variable); isVar {
		val, ok := binding[v]
		if !ok {
			return 0, false
		}
		return m.Interner.Intern(val), true
	}
	return m.Interner.Intern(term), true
}
