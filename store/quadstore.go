package store

import (
	"context"
	"sync"

	"github.com/quiverdb/quiver/quad"
)

// QuadRef is a ground quad already resolved to dictionary IDs: the unit
// the store itself operates on (spec.md §3 "every other structure holds
// integer IDs plus borrowed references back to the dictionary").
type QuadRef struct {
	S, P, O, C IDRef
}

func (q QuadRef) ids() quadIDs { return quadIDs{S: q.S, P: q.P, O: q.O, C: q.C} }

// Action is one half of a Delta: whether a quad is being added or
// removed (grounded on the teacher's writer/single.go Delta/Action
// batch-apply model).
type Action byte

const (
	Add Action = iota
	Delete
)

// Delta is one atomic change to the store.
type Delta struct {
	Quad   QuadRef
	Action Action
}

// Stats reports store size, exact when the backend can report it cheaply.
type Stats struct {
	Quads Size
}

// QuadStore is the pattern-indexed quad set described in spec.md §4.2:
// insert/delete/contains/match/batch over four permutation indexes kept
// atomically in sync, backed by a pluggable StorageBackend.
type QuadStore struct {
	mu      sync.RWMutex // single-writer / multi-reader, per spec.md §5
	backend StorageBackend
}

// New wraps backend as a QuadStore.
func New(backend StorageBackend) *QuadStore {
	return &QuadStore{backend: backend}
}

// Insert adds q to every index. Idempotent: inserting an existing quad is
// a no-op.
func (qs *QuadStore) Insert(ctx context.Context, q QuadRef) error {
	return qs.Batch(ctx, []Delta{{Quad: q, Action: Add}})
}

// Delete removes q from every index. Deleting a missing quad is a no-op.
func (qs *QuadStore) Delete(ctx context.Context, q QuadRef) error {
	return qs.Batch(ctx, []Delta{{Quad: q, Action: Delete}})
}

// Contains reports whether q is currently stored, using the SPOC index as
// the canonical existence check.
func (qs *QuadStore) Contains(ctx context.Context, q QuadRef) (bool, error) {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	_, ok, err := qs.backend.Get(ctx, SPOC, encodeKey(SPOC, q.ids()))
	if err != nil {
		return false, &BackendError{Op: "contains", Cause: err}
	}
	return ok, nil
}

// Batch applies every delta atomically across all four indexes: either
// every index reflects every delta, or (on backend failure) none do.
func (qs *QuadStore) Batch(ctx context.Context, deltas []Delta) error {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	var ops []Op
	for _, d := range deltas {
		ids := d.Quad.ids()
		del := d.Action == Delete
		if !del {
			// idempotent insert: skip if already present, to avoid
			// inflating a multiset index with a duplicate key that a
			// flat backend (badger/bbolt) would just overwrite anyway,
			// but which a counting Stats() should not double-count.
			if _, ok, _ := qs.backend.Get(ctx, SPOC, encodeKey(SPOC, ids)); ok {
				continue
			}
		} else {
			if _, ok, _ := qs.backend.Get(ctx, SPOC, encodeKey(SPOC, ids)); !ok {
				continue
			}
		}
		for i := Index(0); i < 4; i++ {
			ops = append(ops, Op{Index: i, Key: encodeKey(i, ids), Value: []byte{}, Delete: del})
		}
	}
	if len(ops) == 0 {
		return nil
	}
	if err := qs.backend.Batch(ctx, ops); err != nil {
		return &BackendError{Op: "batch", Cause: err}
	}
	return nil
}

// Match yields every stored quad satisfying pattern, exactly once,
// regardless of which permutation index is chosen internally.
func (qs *QuadStore) Match(ctx context.Context, pattern Pattern) (*MatchIterator, error) {
	qs.mu.RLock()
	defer qs.mu.RUnlock()

	idx, prefix, post := chooseIndex(pattern)
	cur, err := qs.backend.PrefixScan(ctx, idx, prefix)
	if err != nil {
		return nil, &BackendError{Op: "match", Cause: err}
	}
	return &MatchIterator{cur: cur, idx: idx, pattern: pattern, post: post}, nil
}

// Stats reports the current store size, using an exact SPOC scan count
// (backends may optimize this with a maintained counter in a later
// revision; correctness over the in-memory/LSM/B+tree reference backends
// does not require one).
func (qs *QuadStore) Stats(ctx context.Context) (Stats, error) {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	cur, err := qs.backend.PrefixScan(ctx, SPOC, nil)
	if err != nil {
		return Stats{}, &BackendError{Op: "stats", Cause: err}
	}
	defer cur.Close()
	var n int64
	for cur.Next(ctx) {
		n++
	}
	return Stats{Quads: Size{Value: n, Exact: true}}, cur.Err()
}

// Close releases the underlying backend.
func (qs *QuadStore) Close() error { return qs.backend.Close() }

// MatchIterator is the pull-driven pattern-scan iterator spec.md §4.2
// names: Next advances, Result returns the current resolved quad (in
// dictionary-ID form).
type MatchIterator struct {
	cur     Cursor
	idx     Index
	pattern Pattern
	post    []quad.Direction
	result  QuadRef
	err     error
}

// Next advances the iterator, honoring cooperative cancellation on every
// pull (spec.md §4.4/§5).
func (it *MatchIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	for {
		if err := ctx.Err(); err != nil {
			it.err = err
			return false
		}
		if !it.cur.Next(ctx) {
			it.err = it.cur.Err()
			return false
		}
		kv := it.cur.Item()
		ids, ok := decodeKey(it.idx, kv.Key)
		if !ok {
			continue
		}
		if !matchesPostFilter(ids, it.pattern, it.post) {
			continue
		}
		it.result = QuadRef{S: ids.S, P: ids.P, O: ids.O, C: ids.C}
		return true
	}
}

// Result returns the quad produced by the last successful Next call.
func (it *MatchIterator) Result() QuadRef { return it.result }

// Err returns any error encountered during iteration.
func (it *MatchIterator) Err() error { return it.err }

// Close releases the underlying cursor.
func (it *MatchIterator) Close() error { return it.cur.Close() }
