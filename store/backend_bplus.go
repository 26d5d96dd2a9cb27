package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// bplusBackend is the memory-mapped B+tree reference StorageBackend,
// grounded on the teacher's graph/kv/bolt adapter, migrated to the
// maintained go.etcd.io/bbolt fork (already an indirect teacher
// dependency). Each index gets its own top-level bucket.
type bplusBackend struct {
	db *bolt.DB
}

var indexBucket = [4][]byte{
	SPOC: []byte("spoc"),
	POSC: []byte("posc"),
	OSPC: []byte("ospc"),
	CSPO: []byte("cspo"),
}

// NewBPlusBackend opens (creating if necessary) a bbolt-backed
// StorageBackend rooted at path.
func NewBPlusBackend(path string) (StorageBackend, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, &BackendError{Op: "open", Cause: err}
	}
	db, err := bolt.Open(filepath.Join(path, "indexes.bbolt"), 0600, nil)
	if err != nil {
		return nil, &BackendError{Op: "open", Cause: err}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range indexBucket {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, &BackendError{Op: "open", Cause: err}
	}
	return &bplusBackend{db: db}, nil
}

func (b *bplusBackend) Get(_ context.Context, idx Index, key []byte) ([]byte, bool, error) {
	var val []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(indexBucket[idx]).Get(key)
		if v != nil {
			val = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, &BackendError{Op: "get", Cause: err}
	}
	return val, val != nil, nil
}

func (b *bplusBackend) Put(_ context.Context, idx Index, key, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(indexBucket[idx]).Put(key, value)
	})
	if err != nil {
		return &BackendError{Op: "put", Cause: err}
	}
	return nil
}

func (b *bplusBackend) Delete(_ context.Context, idx Index, key []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(indexBucket[idx]).Delete(key)
	})
	if err != nil {
		return &BackendError{Op: "delete", Cause: err}
	}
	return nil
}

func scanBucket(bucket *bolt.Bucket, start, end []byte, isPrefix bool) []KV {
	var out []KV
	c := bucket.Cursor()
	for k, v := c.Seek(start); k != nil; k, v = c.Next() {
		if isPrefix && !bytes.HasPrefix(k, start) {
			break
		}
		if !isPrefix && end != nil && bytes.Compare(k, end) >= 0 {
			break
		}
		out = append(out, KV{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
	}
	return out
}

func (b *bplusBackend) RangeScan(_ context.Context, idx Index, start, end []byte) (Cursor, error) {
	var out []KV
	err := b.db.View(func(tx *bolt.Tx) error {
		out = scanBucket(tx.Bucket(indexBucket[idx]), start, end, false)
		return nil
	})
	if err != nil {
		return nil, &BackendError{Op: "range_scan", Cause: err}
	}
	return newSliceCursor(out), nil
}

func (b *bplusBackend) PrefixScan(_ context.Context, idx Index, prefix []byte) (Cursor, error) {
	var out []KV
	err := b.db.View(func(tx *bolt.Tx) error {
		out = scanBucket(tx.Bucket(indexBucket[idx]), prefix, nil, true)
		return nil
	})
	if err != nil {
		return nil, &BackendError{Op: "prefix_scan", Cause: err}
	}
	return newSliceCursor(out), nil
}

func (b *bplusBackend) Batch(_ context.Context, ops []Op) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		for _, op := range ops {
			bucket := tx.Bucket(indexBucket[op.Index])
			if op.Delete {
				if err := bucket.Delete(op.Key); err != nil {
					return err
				}
			} else if err := bucket.Put(op.Key, op.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &BackendError{Op: "batch", Cause: err}
	}
	return nil
}

func (b *bplusBackend) Snapshot(_ context.Context) (Snapshot, error) {
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, &BackendError{Op: "snapshot", Cause: err}
	}
	return &bplusSnapshot{tx: tx}, nil
}

func (b *bplusBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return &BackendError{Op: "close", Cause: err}
	}
	return nil
}

// bplusSnapshot pins a read-only bbolt transaction, bbolt's native MVCC
// snapshot mechanism (readers never block writers and vice versa).
type bplusSnapshot struct {
	tx *bolt.Tx
}

func (s *bplusSnapshot) Get(_ context.Context, idx Index, key []byte) ([]byte, bool, error) {
	v := s.tx.Bucket(indexBucket[idx]).Get(key)
	if v == nil {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *bplusSnapshot) RangeScan(_ context.Context, idx Index, start, end []byte) (Cursor, error) {
	return newSliceCursor(scanBucket(s.tx.Bucket(indexBucket[idx]), start, end, false)), nil
}
func (s *bplusSnapshot) PrefixScan(_ context.Context, idx Index, prefix []byte) (Cursor, error) {
	return newSliceCursor(scanBucket(s.tx.Bucket(indexBucket[idx]), prefix, nil, true)), nil
}
func (s *bplusSnapshot) Close() error { return s.tx.Rollback() }
