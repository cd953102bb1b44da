package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

const btreeDegree = 32

type item struct {
	key   []byte
	value []byte
}

func lessItem(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// MemDB is an in-memory KV store ordered by key. It is safe for
// concurrent use.
type MemDB struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[item]
}

// Compile-time interface checks.
var (
	_ KV      = (*MemDB)(nil)
	_ Batcher = (*MemDB)(nil)
)

// NewMemDB creates an empty MemDB.
func NewMemDB() *MemDB {
	return &MemDB{tree: btree.NewG(btreeDegree, lessItem)}
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	it, ok := db.tree.Get(item{key: key})
	if !ok {
		return nil, nil
	}
	return bytes.Clone(it.value), nil
}

func (db *MemDB) Set(key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.set(key, value)
	return nil
}

func (db *MemDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tree.Delete(item{key: key})
	return nil
}

// WriteBatch applies ops under a single lock.
func (db *MemDB) WriteBatch(ops []Op) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, op := range ops {
		if op.Value == nil {
			db.tree.Delete(item{key: op.Key})
			continue
		}
		db.set(op.Key, op.Value)
	}
	return nil
}

func (db *MemDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	visit := func(it item) bool {
		return fn(bytes.Clone(it.key), bytes.Clone(it.value))
	}
	if end := prefixEnd(prefix); end != nil {
		db.tree.AscendRange(item{key: prefix}, item{key: end}, visit)
	} else {
		db.tree.AscendGreaterOrEqual(item{key: prefix}, visit)
	}
	return nil
}

// Len returns the number of keys.
func (db *MemDB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.tree.Len()
}

func (db *MemDB) set(key, value []byte) {
	db.tree.ReplaceOrInsert(item{key: bytes.Clone(key), value: bytes.Clone(value)})
}
