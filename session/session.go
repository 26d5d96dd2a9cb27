// Package session implements the coordinator spec.md §6 names: it owns the
// dictionary, the store, and every component built on top of them (the
// executor, the update engine, the reasoner, the property-path evaluator's
// depth cap), publishes Prometheus metrics, and honors the cooperative
// cancellation and optional wall-clock timeout of a caller-supplied
// CancellationToken; Config.QueryTimeout is not applied. Grounded on the
// teacher's top-level cayley.go (graph.Handle{QuadStore, QuadWriter} +
// db.Open(cfg), the "one struct that owns store+writer lifecycle" shape)
// and graph/iterate.go's ctx.Done() cancellation pattern, generalized from
// a CLI-owned Handle to the full Session API of spec.md §6.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quiverdb/quiver/algebra"
	"github.com/quiverdb/quiver/clog"
	"github.com/quiverdb/quiver/config"
	"github.com/quiverdb/quiver/dict"
	"github.com/quiverdb/quiver/exec"
	"github.com/quiverdb/quiver/inference"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/reason"
	"github.com/quiverdb/quiver/store"
	"github.com/quiverdb/quiver/update"
	"github.com/quiverdb/quiver/writer"
)

// ChangeEvent is one applied delta, published to every SubscribeChanges
// consumer (spec.md §6 "ChangeStream ... for incremental reasoning
// consumers" — e.g. a future RETE-driven incremental materializer fed
// live instead of re-run from scratch).
type ChangeEvent struct {
	Quad   quad.Quad
	Action writer.Action
}

// changeBufferSize bounds each subscriber's channel; a slow consumer drops
// further events rather than blocking the session that produced them
// (spec.md §9 "writers must not block forever behind long scans" — the
// same non-blocking-producer principle applied to change notification).
const changeBufferSize = 1024

// Session is the coordinator: one dictionary, one store, and the executor/
// update engine/reasoner built over them, all sharing a single Config.
type Session struct {
	cfg config.Config

	dict *dict.Dictionary
	qs   *store.QuadStore

	exec    *exec.Engine
	updates *update.Engine
	schema  inference.Store

	metrics *Metrics

	mu          sync.Mutex
	subscribers []chan ChangeEvent
}

// New builds a Session over backend with the given config (spec.md §6
// "Session::new(StorageBackend, ReasonerConfig)" — ReasonerConfig arrives
// embedded in config.Config here since every other resource cap spec.md §5
// names travels alongside it through the same loader). Metrics register
// against a private prometheus.Registry rather than the global default, so
// multiple Sessions (one per test, one per tenant) never collide on
// duplicate metric names. The Registry is created inside New and is not
// exposed by Session.
func New(backend store.StorageBackend, cfg config.Config) *Session {
	qs := store.New(backend)
	d := dict.New(0)
	eng := exec.New(qs, d, cfg.Exec)
	eng.Paths.MaxDepth = cfg.PathMaxDepth

	s := &Session{
		cfg:     cfg,
		dict:    d,
		qs:      qs,
		exec:    eng,
		updates: update.New(qs, d, eng, store.DefaultGraph),
		schema:  inference.NewStore(),
		metrics: NewMetrics("quiver", prometheus.NewRegistry()),
	}
	return s
}

// Dictionary exposes the term interner (spec.md §6 "session.dictionary()").
func (s *Session) Dictionary() *dict.Dictionary { return s.dict }

// Store exposes the quad store (spec.md §6 "session.store() ... exposes
// insert/delete/match/batch").
func (s *Session) Store() *store.QuadStore { return s.qs }

// ExecuteQuery evaluates op against the current store state, honoring
// token's cooperative cancellation (spec.md §6 "session.execute_query").
func (s *Session) ExecuteQuery(ctx context.Context, op algebra.Op, token *CancellationToken) (exec.Iter, error) {
	if token != nil {
		ctx = token.Context()
	}
	start := time.Now()
	it, err := s.exec.Eval(ctx, op)
	if err != nil {
		s.metrics.observeQuery("error", time.Since(start))
		return nil, err
	}
	s.metrics.observeQuery("ok", time.Since(start))
	return it, nil
}

// ExecuteUpdate applies op atomically, publishes the resulting deltas to
// every change subscriber, folds them into the schema cache, and reports
// counts (spec.md §6 "session.execute_update ... UpdateReport").
func (s *Session) ExecuteUpdate(ctx context.Context, op update.Operation, token *CancellationToken) (update.Report, error) {
	if token != nil {
		ctx = token.Context()
	}
	start := time.Now()
	rep, err := s.updates.Apply(ctx, op)
	if err != nil {
		s.metrics.observeUpdate("error", time.Since(start))
		return rep, err
	}
	s.metrics.observeUpdate("ok", time.Since(start))

	for _, q := range rep.Added {
		s.schema.ProcessQuad(q)
		s.publish(ChangeEvent{Quad: q, Action: writer.Add})
	}
	for _, q := range rep.Removed {
		s.schema.UnprocessQuad(q)
		s.publish(ChangeEvent{Quad: q, Action: writer.Delete})
	}
	if stats, serr := s.qs.Stats(ctx); serr == nil {
		s.metrics.StoreQuads.Set(float64(stats.Quads.Value))
	}
	return rep, nil
}

// MaterializeReasoner runs rules to a fixpoint over the store (spec.md §6
// "session.materialize_reasoner(policy)"). policy here is simply the rule
// set to run (RDFS, OWL 2 RL, or a caller-supplied Datalog translation) —
// spec.md leaves "policy" unspecified beyond "which rules, which graph".
func (s *Session) MaterializeReasoner(ctx context.Context, rules []reason.Rule, token *CancellationToken) (reason.Report, error) {
	if token != nil {
		ctx = token.Context()
	}
	m := reason.NewMaterializer(s.qs, s.dict, store.DefaultGraph)
	m.MaxRounds = s.cfg.Reasoner.MaxRounds
	start := time.Now()
	rep, err := m.Materialize(ctx, rules)
	if err != nil {
		return rep, err
	}
	s.metrics.observeMaterialize(rep.Rounds, time.Since(start))
	clog.Infof("session: materialized %d rounds, %d inserted, incomplete=%v", rep.Rounds, rep.Inserted, rep.Incomplete)
	return rep, nil
}

// RegisterFunction compiles a JavaScript SPARQL extension function under
// iri (spec.md §6 "session.register_function(iri, fn)").
func (s *Session) RegisterFunction(iri quad.Value, src string) error {
	return s.exec.Funcs.RegisterScript(iri, src)
}

// SubscribeChanges returns a channel receiving every applied delta, for an
// incremental-reasoning consumer (spec.md §6 "session.subscribe_changes()
// ... ChangeStream"). The channel is closed when unsubscribe is called;
// callers that stop reading before then must call unsubscribe to release
// it, or risk the session silently dropping events for them once the
// buffer fills (it never blocks on a slow subscriber).
func (s *Session) SubscribeChanges() (ch <-chan ChangeEvent, unsubscribe func()) {
	c := make(chan ChangeEvent, changeBufferSize)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, c)
	s.mu.Unlock()
	return c, func() { s.removeSubscriber(c) }
}

func (s *Session) removeSubscriber(c chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == c {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(c)
			return
		}
	}
}

func (s *Session) publish(ev ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.subscribers {
		select {
		case c <- ev:
		default:
			clog.Warningf("session: change subscriber buffer full, dropping event")
		}
	}
}

// Close releases the underlying store.
func (s *Session) Close() error {
	return s.qs.Close()
}
