// Package dict implements the process-wide term dictionary: a sharded
// interner mapping byte-strings to dense, monotonically assigned IDs.
package dict

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	boom "github.com/tylertreat/BoomFilters"
	"github.com/zeebo/xxh3"

	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

const shardCount = 64

// ErrUnknownID is returned by Resolve when the ID was not produced by this
// dictionary (spec.md §7 "UnknownId").
var ErrUnknownID = fmt.Errorf("dict: unknown id")

type shard struct {
	mu   sync.RWMutex
	byte map[string]store.IDRef
}

// Dictionary is the sharded interner described in spec.md §4.1. Intern is
// idempotent and safe for concurrent use; Resolve never blocks behind a
// concurrent Intern once the ID's shard insertion has completed.
type Dictionary struct {
	shards [shardCount]*shard

	// present is a cheap "definitely new" pre-check: if the filter reports
	// the key absent, Intern skips the read-locked shard-map probe (bloom
	// filters never false-negative, so "absent" is certain); insert still
	// re-checks the map under the shard's write lock.
	presentMu sync.Mutex
	present   *boom.DeletableBloomFilter

	// idMu guards growth of ids; reads of ids happen through the atomic
	// pointer below and never take idMu, per spec.md §9 ("resolve path is
	// lock-free using a stable ID table written under the lock and read
	// without").
	idMu sync.Mutex
	ids  atomic.Pointer[[]quad.Value]
	next uint64

	cache *lru.Cache[store.IDRef, quad.Value]
}

// New creates a Dictionary. cacheSize bounds the optional resolve cache
// (0 disables it).
func New(cacheSize int) *Dictionary {
	d := &Dictionary{
		present: boom.NewDeletableBloomFilter(10*1000*1000, 120, 0.01),
	}
	for i := range d.shards {
		d.shards[i] = &shard{byte: make(map[string]store.IDRef)}
	}
	empty := make([]quad.Value, 1, 1024)
	d.ids.Store(&empty) // index 0 is reserved for store.DefaultGraph
	if cacheSize > 0 {
		c, err := lru.New[store.IDRef, quad.Value](cacheSize)
		if err == nil {
			d.cache = c
		}
	}
	return d
}

func (d *Dictionary) shardIndex(h uint64) int {
	return int(h % shardCount)
}

// key is the canonical byte-serialization of a term used for interning
// and hashing — the actual source of truth for term identity, including
// QuotedTriple structural sharing. It must be injective across the whole
// Value variant set; String() already is (distinct syntactic prefixes per
// variant, and QuotedTriple recurses through the same encoding via its
// components' String() methods). quad.HashOf is deliberately not used
// here: it is a lossy sha1 digest, fine as a bloom-filter probe (see
// Intern) but wrong as an interning key, where a collision would wrongly
// merge two distinct terms into one ID.
func key(v quad.Value) string { return quad.StringOf(v) }

// Intern returns the stable ID for v, assigning a new one if v has not
// been seen before. Intern is idempotent: Intern(v) == Intern(v) always.
func (d *Dictionary) Intern(v quad.Value) store.IDRef {
	k := key(v)
	h := xxh3.HashString(k)
	sh := d.shards[d.shardIndex(h)]

	// content is the fixed-size sha1 digest (quad.HashOf) of v, used only
	// as the bloom filter's probe key instead of k's full variable-length
	// bytes — a QuotedTriple's String() recurses through every component
	// and can be arbitrarily long, so hashing it down to HashSize bytes
	// first keeps the pre-check cheap regardless of term nesting depth.
	// The shard map below still does exact comparison on k, so this can
	// never introduce a false dedup even though sha1 can theoretically
	// collide.
	content := quad.HashOf(v)

	if d.maybeAbsent(content) {
		return d.insert(sh, k, content, v)
	}

	sh.mu.RLock()
	if id, ok := sh.byte[k]; ok {
		sh.mu.RUnlock()
		return id
	}
	sh.mu.RUnlock()
	return d.insert(sh, k, content, v)
}

func (d *Dictionary) maybeAbsent(content []byte) bool {
	d.presentMu.Lock()
	defer d.presentMu.Unlock()
	return !d.present.Test(content)
}

func (d *Dictionary) insert(sh *shard, k string, content []byte, v quad.Value) store.IDRef {
	sh.mu.Lock()
	if id, ok := sh.byte[k]; ok {
		sh.mu.Unlock()
		return id
	}
	id := store.IDRef(d.allocID(v))
	sh.byte[k] = id
	sh.mu.Unlock()

	d.presentMu.Lock()
	d.present.Add(content)
	d.presentMu.Unlock()
	return id
}

func (d *Dictionary) allocID(v quad.Value) uint64 {
	d.idMu.Lock()
	defer d.idMu.Unlock()
	d.next++
	id := d.next
	cur := *d.ids.Load()
	next := append(cur[:len(cur):len(cur)], v) // copy-on-grow, never mutate a published slice
	d.ids.Store(&next)
	if uint64(len(next)) != id+1 {
		panic("dict: id table out of sync with counter")
	}
	return id
}

// Resolve recovers the original term for id. It returns ErrUnknownID if id
// was not produced by this dictionary.
func (d *Dictionary) Resolve(id store.IDRef) (quad.Value, error) {
	if id == store.DefaultGraph {
		return nil, nil
	}
	if d.cache != nil {
		if v, ok := d.cache.Get(id); ok {
			return v, nil
		}
	}
	table := *d.ids.Load()
	if uint64(id) >= uint64(len(table)) {
		return nil, ErrUnknownID
	}
	v := table[id]
	if v == nil {
		return nil, ErrUnknownID
	}
	if d.cache != nil {
		d.cache.Add(id, v)
	}
	return v, nil
}

// ValueOf implements store.Namer: it returns nil rather than allocating a
// new ID when the value is unseen, matching quad-store lookup semantics
// (callers that want lookup-or-insert use Intern).
func (d *Dictionary) ValueOf(v quad.Value) store.Ref {
	k := key(v)
	if d.maybeAbsent(quad.HashOf(v)) {
		return nil
	}
	h := xxh3.HashString(k)
	sh := d.shards[d.shardIndex(h)]
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if id, ok := sh.byte[k]; ok {
		return id
	}
	return nil
}

// NameOf implements store.Namer.
func (d *Dictionary) NameOf(r store.Ref) quad.Value {
	id, ok := r.(store.IDRef)
	if !ok {
		return nil
	}
	v, err := d.Resolve(id)
	if err != nil {
		return nil
	}
	return v
}

// Len returns the number of distinct terms interned so far.
func (d *Dictionary) Len() int {
	return len(*d.ids.Load()) - 1
}
