package reason

import (
	"context"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/exec"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

// alphaNode is the RETE alpha test for one rule-body pattern: does an
// incoming quad's (S,P,O,Graph) shape match pattern's ground terms, and if
// so what binding does it contribute.
type alphaNode struct {
	pattern algebra.TriplePattern
}

func (a *alphaNode) match(eng *exec.Engine, q store.QuadRef) (exec.Binding, bool) {
	b := exec.Binding{}
	if !a.bindTerm(eng, b, a.pattern.Subject, q.S) {
		return nil, false
	}
	if !a.bindTerm(eng, b, a.pattern.Predicate, q.P) {
		return nil, false
	}
	if !a.bindTerm(eng, b, a.pattern.Object, q.O) {
		return nil, false
	}
	if a.pattern.Graph != nil && !a.bindTerm(eng, b, a.pattern.Graph, q.C) {
		return nil, false
	}
	return b, true
}

// bindTerm checks/records one position: a quad.Variable binds (or, if
// already bound within this match, must agree); a ground term must equal
// the quad's interned ID.
func (a *alphaNode) bindTerm(eng *exec.Engine, b exec.Binding, term quad.Value, id store.IDRef) bool {
	if v, ok := term.(quad.Variable); ok {
		if existing, bound := b[v]; bound {
			ref, ok := eng.ResolveRef(existing)
			return ok && ref == id
		}
		b[v] = eng.NameOf(id)
		return true
	}
	ref, ok := eng.ResolveRef(term)
	return ok && ref == id
}

// betaToken is one partial match flowing through the beta network: the
// accumulated binding plus which quads support it, so a later retraction
// can find every token a base fact participates in.
type betaToken struct {
	binding exec.Binding
	support []store.QuadRef
}

// ruleNetwork is the compiled RETE network for one Rule: an alpha node per
// body pattern, each capable of seeding a token on a matching asserted
// quad. The beta join stage that would normally chain alpha memories
// together is delegated to exec's Join evaluator (see joinRemaining) —
// rule bodies here are small, fixed conjunctions of triple patterns, so
// reusing the already-built hash-join machinery over the live store gives
// the same join result a hand-maintained beta memory chain would, without
// a second join implementation to keep correct.
type ruleNetwork struct {
	rule   Rule
	alphas []*alphaNode
}

func compileRule(rule Rule) *ruleNetwork {
	n := &ruleNetwork{rule: rule}
	for _, p := range rule.Body {
		n.alphas = append(n.alphas, &alphaNode{pattern: p})
	}
	return n
}

// RETENetwork incrementally maintains the materialized closure of a fixed
// rule set as quads are asserted one at a time, avoiding Materializer's
// full-rescan-per-round cost for the interactive/streaming insertion case
// (spec.md §4.6 "an incremental entailment maintainer for interactive
// sessions") — grounded in the teacher's worklist-driven iterator
// evaluation discipline (graph/iterator.And/Or drive a single pass over
// newly-available state rather than restarting), generalized here to
// token propagation across a join network instead of quad iteration.
type RETENetwork struct {
	QS       *store.QuadStore
	Interner Interner
	Eng      *exec.Engine
	Graph    store.IDRef

	networks []*ruleNetwork
	// derived tracks which instantiated quads this network itself
	// inserted, distinguishing derived facts from base facts so a later
	// Retract knows what it is allowed to remove.
	derived map[store.QuadRef][]betaToken
}

// NewRETENetwork compiles rules into alpha/beta chains over qs/interner,
// writing derivations into graph.
func NewRETENetwork(qs *store.QuadStore, interner Interner, graph store.IDRef, rules []Rule) *RETENetwork {
	n := &RETENetwork{
		QS:       qs,
		Interner: interner,
		Eng:      exec.New(qs, interner, exec.DefaultConfig),
		Graph:    graph,
		derived:  map[store.QuadRef][]betaToken{},
	}
	for _, r := range rules {
		n.networks = append(n.networks, compileRule(r))
	}
	return n
}

// Assert propagates one newly-inserted base quad through every rule
// network's alpha/beta chain, inserting any newly-derivable head
// instantiation and returning how many were inserted. Unlike
// Materializer.Materialize this does not rescan the whole store — it
// only recomputes joins seeded by q, which is what makes RETE cheap for
// single-fact streaming insertion.
func (n *RETENetwork) Assert(ctx context.Context, q store.QuadRef) (int, error) {
	inserted := 0
	for _, net := range n.networks {
		tokens, err := n.propagate(ctx, net, q)
		if err != nil {
			return inserted, err
		}
		for _, tok := range tokens {
			for _, head := range net.rule.Head {
				m := &Materializer{QS: n.QS, Interner: n.Interner, Eng: n.Eng, Graph: n.Graph}
				ref, ok := m.instantiate(tok.binding, head)
				if !ok {
					continue
				}
				existed, err := n.QS.Contains(ctx, ref)
				if err != nil {
					return inserted, err
				}
				if existed {
					continue
				}
				if err := n.QS.Insert(ctx, ref); err != nil {
					return inserted, err
				}
				n.derived[ref] = append(n.derived[ref], tok)
				inserted++
			}
		}
	}
	return inserted, nil
}

// Retract removes a base quad and cascades the retraction through every
// derived quad whose only recorded support was q — truth maintenance in
// the RETE sense: a derived fact survives only as long as some token that
// produced it is still backed by live base facts. Support is tracked one
// level deep (a derivation's own support, not transitively through facts
// it in turn helped derive), so retracting a fact that itself supported
// further derivations does not automatically cascade past that first
// level; callers needing full transitive retraction should recompute the
// closure with Materializer after a base-fact deletion instead.
func (n *RETENetwork) Retract(ctx context.Context, q store.QuadRef) (int, error) {
	if err := n.QS.Delete(ctx, q); err != nil {
		return 0, err
	}
	removed := 0
	for derivedQuad, tokens := range n.derived {
		stillSupported := false
		var remaining []betaToken
		for _, tok := range tokens {
			supportedByQ := false
			for _, s := range tok.support {
				if s == q {
					supportedByQ = true
					break
				}
			}
			if supportedByQ {
				continue
			}
			remaining = append(remaining, tok)
			stillSupported = true
		}
		if stillSupported {
			n.derived[derivedQuad] = remaining
			continue
		}
		if err := n.QS.Delete(ctx, derivedQuad); err != nil {
			return removed, err
		}
		delete(n.derived, derivedQuad)
		removed++
	}
	return removed, nil
}

// propagate finds every alpha position in net that q could have matched
// (a rule can mention the same pattern shape more than once positionally,
// so q may seed more than one alpha), then folds the resulting singleton
// tokens through the beta chain against the *existing* alpha memories for
// every other body position, materialized fresh via the store (the
// alpha memories themselves are the quad store; reason.Rule bodies are
// small enough that re-querying each other position per seed fact is
// cheap compared to Materializer's full rule rescan).
func (n *RETENetwork) propagate(ctx context.Context, net *ruleNetwork, q store.QuadRef) ([]betaToken, error) {
	var seeded []betaToken
	for _, a := range net.alphas {
		b, ok := a.match(n.Eng, q)
		if !ok {
			continue
		}
		seeded = append(seeded, betaToken{binding: b, support: []store.QuadRef{q}})
	}
	if len(seeded) == 0 {
		return nil, nil
	}

	var out []betaToken
	for _, tok := range seeded {
		toks, err := n.joinRemaining(ctx, net, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, toks...)
	}
	return out, nil
}

// joinRemaining extends a single-pattern seed token to a full rule-body
// match by evaluating the rule's complete BGP as a Join against a
// single-row Table carrying the seed binding (the same reuse-the-Join
// trick as exec/builtins.go's evalExists), which both enforces the
// seed's own pattern again (harmless — it just re-matches the same row)
// and binds every other variable the head needs.
func (n *RETENetwork) joinRemaining(ctx context.Context, net *ruleNetwork, tok betaToken) ([]betaToken, error) {
	bgp := algebra.BGP{Patterns: net.rule.Body}
	seeded := exec.BindConstants(bgp, tok.binding)
	it, err := n.Eng.Eval(ctx, seeded)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []betaToken
	for it.Next(ctx) {
		full := tok.binding.Clone()
		for k, v := range it.Result() {
			full[k] = v
		}
		out = append(out, betaToken{binding: full, support: tok.support})
	}
	return out, it.Err()
}
