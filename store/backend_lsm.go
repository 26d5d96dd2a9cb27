package store

import (
	"bytes"
	"context"
	"os"

	badger "github.com/dgraph-io/badger/v2"
)

// lsmBackend is the LSM-tree reference StorageBackend, grounded on the
// teacher's graph/kv/badger adapter (migrated from badger v1 to the
// badger/v2 line). Badger exposes one flat keyspace, so each index gets
// its own single-byte prefix.
type lsmBackend struct {
	db *badger.DB
}

// NewLSMBackend opens (creating if necessary) a badger-backed
// StorageBackend rooted at path.
func NewLSMBackend(path string) (StorageBackend, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, &BackendError{Op: "open", Cause: err}
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &BackendError{Op: "open", Cause: err}
	}
	return &lsmBackend{db: db}, nil
}

func lsmKey(idx Index, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(idx)
	copy(out[1:], key)
	return out
}

func (b *lsmBackend) Get(_ context.Context, idx Index, key []byte) ([]byte, bool, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(lsmKey(idx, key))
		if err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, &BackendError{Op: "get", Cause: err}
	}
	return val, val != nil, nil
}

func (b *lsmBackend) Put(_ context.Context, idx Index, key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(lsmKey(idx, key), value)
	})
	if err != nil {
		return &BackendError{Op: "put", Cause: err}
	}
	return nil
}

func (b *lsmBackend) Delete(_ context.Context, idx Index, key []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(lsmKey(idx, key))
	})
	if err != nil {
		return &BackendError{Op: "delete", Cause: err}
	}
	return nil
}

func (b *lsmBackend) scan(idx Index, start, end []byte, isPrefix bool) ([]KV, error) {
	var out []KV
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte{byte(idx)}
		for it.Seek(lsmKey(idx, start)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)[1:]
			if isPrefix && !bytes.HasPrefix(k, start) {
				break
			}
			if !isPrefix && end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, KV{Key: k, Value: v})
		}
		return nil
	})
	return out, err
}

func (b *lsmBackend) RangeScan(_ context.Context, idx Index, start, end []byte) (Cursor, error) {
	items, err := b.scan(idx, start, end, false)
	if err != nil {
		return nil, &BackendError{Op: "range_scan", Cause: err}
	}
	return newSliceCursor(items), nil
}

func (b *lsmBackend) PrefixScan(_ context.Context, idx Index, prefix []byte) (Cursor, error) {
	items, err := b.scan(idx, prefix, nil, true)
	if err != nil {
		return nil, &BackendError{Op: "prefix_scan", Cause: err}
	}
	return newSliceCursor(items), nil
}

func (b *lsmBackend) Batch(_ context.Context, ops []Op) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, op := range ops {
		k := lsmKey(op.Index, op.Key)
		var err error
		if op.Delete {
			err = wb.Delete(k)
		} else {
			err = wb.Set(k, op.Value)
		}
		if err != nil {
			return &BackendError{Op: "batch", Cause: err}
		}
	}
	if err := wb.Flush(); err != nil {
		return &BackendError{Op: "batch", Cause: err}
	}
	return nil
}

func (b *lsmBackend) Snapshot(_ context.Context) (Snapshot, error) {
	return &lsmSnapshot{txn: b.db.NewTransaction(false)}, nil
}

func (b *lsmBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return &BackendError{Op: "close", Cause: err}
	}
	return nil
}

// lsmSnapshot pins a badger read transaction, badger's native MVCC
// snapshot mechanism.
type lsmSnapshot struct {
	txn *badger.Txn
}

func (s *lsmSnapshot) Get(_ context.Context, idx Index, key []byte) ([]byte, bool, error) {
	item, err := s.txn.Get(lsmKey(idx, key))
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	} else if err != nil {
		return nil, false, &BackendError{Op: "get", Cause: err}
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, &BackendError{Op: "get", Cause: err}
	}
	return val, true, nil
}

func (s *lsmSnapshot) scan(idx Index, start, end []byte, isPrefix bool) []KV {
	var out []KV
	opts := badger.DefaultIteratorOptions
	it := s.txn.NewIterator(opts)
	defer it.Close()
	prefix := []byte{byte(idx)}
	for it.Seek(lsmKey(idx, start)); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		k := item.KeyCopy(nil)[1:]
		if isPrefix && !bytes.HasPrefix(k, start) {
			break
		}
		if !isPrefix && end != nil && bytes.Compare(k, end) >= 0 {
			break
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			continue
		}
		out = append(out, KV{Key: k, Value: v})
	}
	return out
}

func (s *lsmSnapshot) RangeScan(_ context.Context, idx Index, start, end []byte) (Cursor, error) {
	return newSliceCursor(s.scan(idx, start, end, false)), nil
}
func (s *lsmSnapshot) PrefixScan(_ context.Context, idx Index, prefix []byte) (Cursor, error) {
	return newSliceCursor(s.scan(idx, prefix, nil, true)), nil
}
func (s *lsmSnapshot) Close() error {
	s.txn.Discard()
	return nil
}
