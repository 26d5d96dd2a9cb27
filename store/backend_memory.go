package store

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"
)

// memoryBackend is the in-memory reference StorageBackend: one
// google/btree.BTreeG per permutation index, generalized from the
// teacher's hand-rolled sorted index to a maintained, generic ordered
// container (erigon uses google/btree the same way, for sorted in-memory
// term indexes). Clone() gives Snapshot() its MVCC pin in O(1) thanks to
// the btree's copy-on-write node sharing.
type memoryBackend struct {
	mu    sync.RWMutex
	trees [4]*btree.BTreeG[kvItem]
}

type kvItem struct {
	Key   []byte
	Value []byte
}

func kvLess(a, b kvItem) bool { return bytes.Compare(a.Key, b.Key) < 0 }

// NewMemoryBackend creates an empty in-memory StorageBackend.
func NewMemoryBackend() StorageBackend {
	b := &memoryBackend{}
	for i := range b.trees {
		b.trees[i] = btree.NewG(32, kvLess)
	}
	return b
}

func (b *memoryBackend) Get(_ context.Context, idx Index, key []byte) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	it, ok := b.trees[idx].Get(kvItem{Key: key})
	if !ok {
		return nil, false, nil
	}
	return it.Value, true, nil
}

func (b *memoryBackend) Put(_ context.Context, idx Index, key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trees[idx].ReplaceOrInsert(kvItem{Key: key, Value: value})
	return nil
}

func (b *memoryBackend) Delete(_ context.Context, idx Index, key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trees[idx].Delete(kvItem{Key: key})
	return nil
}

func (b *memoryBackend) scan(idx Index, start, end []byte, isPrefix bool) []KV {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []KV
	collect := func(it kvItem) bool {
		if isPrefix && !bytes.HasPrefix(it.Key, start) {
			return false
		}
		if !isPrefix && end != nil && bytes.Compare(it.Key, end) >= 0 {
			return false
		}
		out = append(out, KV{Key: it.Key, Value: it.Value})
		return true
	}
	b.trees[idx].AscendGreaterOrEqual(kvItem{Key: start}, collect)
	return out
}

func (b *memoryBackend) RangeScan(_ context.Context, idx Index, start, end []byte) (Cursor, error) {
	return newSliceCursor(b.scan(idx, start, end, false)), nil
}

func (b *memoryBackend) PrefixScan(_ context.Context, idx Index, prefix []byte) (Cursor, error) {
	return newSliceCursor(b.scan(idx, prefix, nil, true)), nil
}

func (b *memoryBackend) Batch(_ context.Context, ops []Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range ops {
		if op.Delete {
			b.trees[op.Index].Delete(kvItem{Key: op.Key})
		} else {
			b.trees[op.Index].ReplaceOrInsert(kvItem{Key: op.Key, Value: op.Value})
		}
	}
	return nil
}

func (b *memoryBackend) Snapshot(_ context.Context) (Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := &memorySnapshot{}
	for i := range b.trees {
		snap.trees[i] = b.trees[i].Clone()
	}
	return snap, nil
}

func (b *memoryBackend) Close() error { return nil }

// memorySnapshot pins the btree generation live at Snapshot() time; later
// writes to the parent backend use copy-on-write nodes and never mutate
// the cloned trees in place.
type memorySnapshot struct {
	trees [4]*btree.BTreeG[kvItem]
}

func (s *memorySnapshot) Get(_ context.Context, idx Index, key []byte) ([]byte, bool, error) {
	it, ok := s.trees[idx].Get(kvItem{Key: key})
	if !ok {
		return nil, false, nil
	}
	return it.Value, true, nil
}

func (s *memorySnapshot) scan(idx Index, start, end []byte, isPrefix bool) []KV {
	var out []KV
	collect := func(it kvItem) bool {
		if isPrefix && !bytes.HasPrefix(it.Key, start) {
			return false
		}
		if !isPrefix && end != nil && bytes.Compare(it.Key, end) >= 0 {
			return false
		}
		out = append(out, KV{Key: it.Key, Value: it.Value})
		return true
	}
	s.trees[idx].AscendGreaterOrEqual(kvItem{Key: start}, collect)
	return out
}

func (s *memorySnapshot) RangeScan(_ context.Context, idx Index, start, end []byte) (Cursor, error) {
	return newSliceCursor(s.scan(idx, start, end, false)), nil
}
func (s *memorySnapshot) PrefixScan(_ context.Context, idx Index, prefix []byte) (Cursor, error) {
	return newSliceCursor(s.scan(idx, prefix, nil, true)), nil
}
func (s *memorySnapshot) Close() error { return nil }
