package store

import "context"

// Index names the four term-ID permutation indexes maintained over every
// stored quad (spec.md §3, §4.2).
type Index byte

const (
	SPOC Index = iota
	POSC
	OSPC
	CSPO
)

func (i Index) String() string {
	switch i {
	case SPOC:
		return "SPOC"
	case POSC:
		return "POSC"
	case OSPC:
		return "OSPC"
	case CSPO:
		return "CSPO"
	default:
		return "?"
	}
}

// Op is one operation of a Batch: either a Put or a Delete against an
// index's raw key space.
type Op struct {
	Index  Index
	Key    []byte
	Value  []byte // nil for Delete
	Delete bool
}

// KV is a single scanned key/value pair.
type KV struct {
	Key   []byte
	Value []byte
}

// BackendError wraps a failure from a pluggable StorageBackend (disk I/O,
// transaction conflict) per spec.md §4.2/§7.
type BackendError struct {
	Op    string
	Cause error
}

func (e *BackendError) Error() string { return "store: backend error during " + e.Op + ": " + e.Cause.Error() }
func (e *BackendError) Unwrap() error { return e.Cause }

// StorageBackend is the pluggable trait spec.md §6 names: a flat
// get/put/delete/range-scan/prefix-scan/batch/snapshot interface over the
// four raw permutation indexes. Implementations: backend_memory.go
// (in-memory, google/btree), backend_lsm.go (dgraph-io/badger/v2),
// backend_bplus.go (go.etcd.io/bbolt).
type StorageBackend interface {
	// Get returns the value stored at key in the given index, or
	// (nil, false, nil) if absent.
	Get(ctx context.Context, idx Index, key []byte) ([]byte, bool, error)
	// Put stores value at key in the given index.
	Put(ctx context.Context, idx Index, key, value []byte) error
	// Delete removes key from the given index. Deleting a missing key is
	// a no-op.
	Delete(ctx context.Context, idx Index, key []byte) error
	// RangeScan yields every key/value pair in [start, end) of the given
	// index, in key order.
	RangeScan(ctx context.Context, idx Index, start, end []byte) (Cursor, error)
	// PrefixScan yields every key/value pair in the given index whose key
	// has the given prefix, in key order.
	PrefixScan(ctx context.Context, idx Index, prefix []byte) (Cursor, error)
	// Batch applies every op atomically: either all operations are
	// visible to subsequent reads, or none are.
	Batch(ctx context.Context, ops []Op) error
	// Snapshot pins a consistent, read-only view of the backend for the
	// lifetime of the returned handle; Close releases it. In-memory
	// backends may implement this as a cheap MVCC pin; persistent backends
	// use their native transaction snapshot.
	Snapshot(ctx context.Context) (Snapshot, error)
	// Close releases backend resources (file handles, background
	// compaction goroutines, etc).
	Close() error
}

// Cursor iterates KV pairs in key order. Next must be called before the
// first Item; a cursor that returns false from Next has either finished
// or failed (check Err).
type Cursor interface {
	Next(ctx context.Context) bool
	Item() KV
	Err() error
	Close() error
}

// Snapshot is a read-only, point-in-time view of a StorageBackend,
// pinned against concurrent structural mutation (spec.md §4.2 "Concurrent
// mutation during a scan returns a stable snapshot").
type Snapshot interface {
	Get(ctx context.Context, idx Index, key []byte) ([]byte, bool, error)
	RangeScan(ctx context.Context, idx Index, start, end []byte) (Cursor, error)
	PrefixScan(ctx context.Context, idx Index, prefix []byte) (Cursor, error)
	Close() error
}

// sliceCursor is a Cursor over an in-memory, pre-materialized KV slice;
// shared by backend_memory.go and by Snapshot implementations that
// materialize small scans eagerly.
type sliceCursor struct {
	items []KV
	pos   int
}

func newSliceCursor(items []KV) *sliceCursor { return &sliceCursor{items: items, pos: -1} }

func (c *sliceCursor) Next(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	c.pos++
	return c.pos < len(c.items)
}
func (c *sliceCursor) Item() KV   { return c.items[c.pos] }
func (c *sliceCursor) Err() error { return nil }
func (c *sliceCursor) Close() error { return nil }
