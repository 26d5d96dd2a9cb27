package reason

import (
	"context"
	"errors"
	"fmt"

	"github.com/quiverdb/quiver/quad"
)

// Var is a Datalog variable name, distinct from quad.Variable (a SPARQL
// algebra term bound to exactly a triple's four positions) since a Datalog
// atom is an arbitrary-arity predicate application, not a triple pattern.
// Term/Var/Atom's shape is grounded on other_examples/kevinawalsh-datalog's
// Term/Var/Literal split, generalized here to a bottom-up stratified
// evaluator instead of that engine's top-down SLD resolution, since
// stratified negation needs a fully materialized lower-stratum relation to
// test against rather than goal-directed search.
type Var string

// Term is one argument of an Atom: either a Var or a ground quad.Value.
type Term interface{}

// Atom is a predicate application, e.g. ancestor(X, bob) or, negated,
// not parent(X, Y).
type Atom struct {
	Pred    string
	Args    []Term
	Negated bool
}

func (a Atom) String() string {
	s := fmt.Sprintf("%s(%v)", a.Pred, a.Args)
	if a.Negated {
		return "not " + s
	}
	return s
}

// DatalogRule is head :- body1, body2, ....  An empty Body makes it a fact.
type DatalogRule struct {
	Head Atom
	Body []Atom
}

// ErrUnstratifiable is returned when a rule set has a predicate that
// negatively depends on itself through some recursion cycle — the
// program has no single consistent stratum assignment (spec.md §4.6
// "negation is only permitted across strata").
var ErrUnstratifiable = errors.New("reason: rule set is not stratifiable")

// Stratify assigns each predicate the lowest stratum consistent with: a
// predicate used positively in a rule body must be no higher-stratum than
// the rule's head predicate; a predicate used negated in a rule body must
// be strictly lower-stratum than the head. This is the standard
// longest-path-over-the-dependency-graph construction, computed here by
// relaxing stratum requirements to a fixpoint (Bellman-Ford style) rather
// than an explicit SCC condensation — equivalent result, simpler code for
// the rule-set sizes this engine targets.
func Stratify(rules []DatalogRule) ([][]DatalogRule, error) {
	stratum := map[string]int{}
	touch := func(p string) {
		if _, ok := stratum[p]; !ok {
			stratum[p] = 0
		}
	}
	for _, r := range rules {
		touch(r.Head.Pred)
		for _, b := range r.Body {
			touch(b.Pred)
		}
	}

	n := len(stratum)
	for iter := 0; iter <= n+1; iter++ {
		changed := false
		for _, r := range rules {
			need := 0
			for _, b := range r.Body {
				req := stratum[b.Pred]
				if b.Negated {
					req++
				}
				if req > need {
					need = req
				}
			}
			if need > stratum[r.Head.Pred] {
				stratum[r.Head.Pred] = need
				changed = true
			}
		}
		if !changed {
			break
		}
		if iter == n+1 {
			return nil, ErrUnstratifiable
		}
	}

	maxStratum := 0
	for _, s := range stratum {
		if s > maxStratum {
			maxStratum = s
		}
	}
	groups := make([][]DatalogRule, maxStratum+1)
	for _, r := range rules {
		s := stratum[r.Head.Pred]
		groups[s] = append(groups[s], r)
	}
	return groups, nil
}

// DefaultMaxIterations and DefaultMaxSubstitutions are spec.md §4.6's
// general Datalog path safety caps: DefaultMaxIterations bounds the outer
// per-stratum fixpoint loop, DefaultMaxSubstitutions bounds the live
// environment set any single rule body evaluation may grow to. Hitting
// either cap stops evaluation and sets Database.Incomplete rather than
// hanging on a pathological program or silently truncating results
// without marking them (spec.md §4.6 "don't hang... don't silently lose
// results").
const (
	DefaultMaxIterations    = 1000
	DefaultMaxSubstitutions = 100000
)

// Database holds a Datalog program's derived and extensional facts,
// deduplicated per predicate.
type Database struct {
	facts map[string]map[string]Atom

	// Incomplete is set when DefaultMaxIterations or
	// DefaultMaxSubstitutions was hit before the stratified fixpoint
	// converged; the caller must treat the result as a lower bound, not
	// the full entailed set.
	Incomplete bool
}

func newDatabase() *Database {
	return &Database{facts: map[string]map[string]Atom{}}
}

func factKey(a Atom) string {
	s := a.Pred
	for _, arg := range a.Args {
		v, _ := arg.(quad.Value)
		s += "\x00" + quad.StringOf(v)
	}
	return s
}

// add inserts a ground atom, returning whether it was new.
func (db *Database) add(a Atom) bool {
	m, ok := db.facts[a.Pred]
	if !ok {
		m = map[string]Atom{}
		db.facts[a.Pred] = m
	}
	k := factKey(a)
	if _, exists := m[k]; exists {
		return false
	}
	m[k] = a
	return true
}

// All returns every known fact for pred.
func (db *Database) All(pred string) []Atom {
	m := db.facts[pred]
	out := make([]Atom, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	return out
}

// Evaluate runs rules to a stratified fixpoint starting from edb (the
// extensional/base facts) and returns the full derived database. Strata
// run in order; within a stratum, rules are applied repeatedly (naive,
// not delta-seeded — see reason/engine.go's Materializer for the same
// simplicity-over-round-efficiency tradeoff) until no rule in the
// stratum adds a new fact. A negated body atom is evaluated against
// whatever the database holds for that predicate at the time — sound
// because stratification guarantees it was already driven to its own
// fixpoint in a strictly earlier stratum.
func Evaluate(ctx context.Context, rules []DatalogRule, edb []Atom) (*Database, error) {
	strata, err := Stratify(rules)
	if err != nil {
		return nil, err
	}
	db := newDatabase()
	for _, f := range edb {
		db.add(f)
	}

	for _, stratumRules := range strata {
		for iter := 0; ; iter++ {
			if err := ctx.Err(); err != nil {
				return db, err
			}
			if iter >= DefaultMaxIterations {
				db.Incomplete = true
				break
			}
			changed := false
			for _, r := range stratumRules {
				envs, truncated := evalBody(db, r.Body, DefaultMaxSubstitutions)
				if truncated {
					db.Incomplete = true
				}
				for _, env := range envs {
					inst, ok := instantiateHead(r.Head, env)
					if !ok {
						continue
					}
					if db.add(inst) {
						changed = true
					}
				}
			}
			if !changed {
				break
			}
		}
	}
	return db, nil
}

// evalBody finds every variable binding that satisfies body, joining atom
// by atom left to right: each positive atom extends every live
// environment against the database's current facts for its predicate; a
// negated atom filters out any environment whose instantiation already
// exists as a fact. If the live environment set would grow past
// maxSubstitutions, it is capped there and truncated is reported true.
func evalBody(db *Database, body []Atom, maxSubstitutions int) (result []map[Var]quad.Value, truncated bool) {
	envs := []map[Var]quad.Value{{}}
	for _, atom := range body {
		var next []map[Var]quad.Value
		if atom.Negated {
			for _, env := range envs {
				if inst, ok := instantiateHead(atom, env); ok {
					if _, exists := db.facts[atom.Pred][factKey(inst)]; exists {
						continue
					}
				}
				next = append(next, env)
			}
		} else {
			for _, env := range envs {
				for _, fact := range db.All(atom.Pred) {
					if ext, ok := unify(atom, fact, env); ok {
						next = append(next, ext)
						if maxSubstitutions > 0 && len(next) >= maxSubstitutions {
							truncated = true
							break
						}
					}
				}
				if truncated {
					break
				}
			}
		}
		envs = next
		if len(envs) == 0 {
			return nil, truncated
		}
	}
	return envs, truncated
}

// unify extends env so atom's arguments match fact's, or fails if atom
// and fact disagree on a constant or an already-bound variable.
func unify(atom, fact Atom, env map[Var]quad.Value) (map[Var]quad.Value, bool) {
	if len(atom.Args) != len(fact.Args) {
		return nil, false
	}
	ext := make(map[Var]quad.Value, len(env)+len(atom.Args))
	for k, v := range env {
		ext[k] = v
	}
	for i, arg := range atom.Args {
		factVal, _ := fact.Args[i].(quad.Value)
		if v, isVar := arg.(Var); isVar {
			if bound, ok := ext[v]; ok {
				if quad.StringOf(bound) != quad.StringOf(factVal) {
					return nil, false
				}
				continue
			}
			ext[v] = factVal
			continue
		}
		constVal, _ := arg.(quad.Value)
		if quad.StringOf(constVal) != quad.StringOf(factVal) {
			return nil, false
		}
	}
	return ext, true
}

// instantiateHead substitutes env into head's arguments; ok is false if a
// variable in head has no binding (an unsafe rule — Stratify doesn't
// check safety, so a malformed rule fails closed here instead of
// deriving a partial fact).
func instantiateHead(head Atom, env map[Var]quad.Value) (Atom, bool) {
	args := make([]Term, len(head.Args))
	for i, arg := range head.Args {
		if v, isVar := arg.(Var); isVar {
			val, ok := env[v]
			if !ok {
				return Atom{}, false
			}
			args[i] = val
			continue
		}
		args[i] = arg
	}
	return Atom{Pred: head.Pred, Args: args}, true
}
