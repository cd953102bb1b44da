package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"github.com/pkg/errors"
)

type cacheEntry struct {
	key     []byte
	value   []byte
	deleted bool
}

func lessEntry(a, b cacheEntry) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Cache buffers writes on top of a parent store. Reads see buffered
// writes first. Nothing reaches the parent until Write; Discard drops
// the buffer.
type Cache struct {
	mu     sync.Mutex
	parent KV
	writes *btree.BTreeG[cacheEntry]
}

// Compile-time interface check.
var _ KV = (*Cache)(nil)

// NewCache wraps parent in a write buffer.
func NewCache(parent KV) *Cache {
	return &Cache{parent: parent, writes: btree.NewG(btreeDegree, lessEntry)}
}

func (c *Cache) Get(key []byte) ([]byte, error) {
	c.mu.Lock()
	e, ok := c.writes.Get(cacheEntry{key: key})
	c.mu.Unlock()
	if ok {
		if e.deleted {
			return nil, nil
		}
		return bytes.Clone(e.value), nil
	}
	return c.parent.Get(key)
}

func (c *Cache) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes.ReplaceOrInsert(cacheEntry{key: bytes.Clone(key), value: bytes.Clone(value)})
	return nil
}

func (c *Cache) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes.ReplaceOrInsert(cacheEntry{key: bytes.Clone(key), deleted: true})
	return nil
}

// Iterate merges the parent's keys with the buffered writes.
func (c *Cache) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	merged := btree.NewG(btreeDegree, lessItem)
	err := c.parent.Iterate(prefix, func(key, value []byte) bool {
		merged.ReplaceOrInsert(item{key: key, value: value})
		return true
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ascendWrites(prefix, func(e cacheEntry) bool {
		if e.deleted {
			merged.Delete(item{key: e.key})
		} else {
			merged.ReplaceOrInsert(item{key: bytes.Clone(e.key), value: bytes.Clone(e.value)})
		}
		return true
	})
	c.mu.Unlock()

	merged.Ascend(func(it item) bool {
		return fn(it.key, it.value)
	})
	return nil
}

// Write flushes the buffered writes to the parent in key order and
// empties the buffer. When the parent is a Batcher the flush is a
// single batch.
func (c *Cache) Write() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ops := make([]Op, 0, c.writes.Len())
	c.writes.Ascend(func(e cacheEntry) bool {
		op := Op{Key: e.key}
		if !e.deleted {
			op.Value = e.value
			if op.Value == nil {
				op.Value = []byte{}
			}
		}
		ops = append(ops, op)
		return true
	})

	if b, ok := c.parent.(Batcher); ok {
		if err := b.WriteBatch(ops); err != nil {
			return errors.Wrap(err, "flush cache")
		}
	} else {
		for _, op := range ops {
			var err error
			if op.Value == nil {
				err = c.parent.Delete(op.Key)
			} else {
				err = c.parent.Set(op.Key, op.Value)
			}
			if err != nil {
				return errors.Wrapf(err, "flush cache key %x", op.Key)
			}
		}
	}
	c.writes.Clear(false)
	return nil
}

// Discard drops every buffered write.
func (c *Cache) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes.Clear(false)
}

// Dirty returns the number of buffered writes.
func (c *Cache) Dirty() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes.Len()
}

func (c *Cache) ascendWrites(prefix []byte, fn func(cacheEntry) bool) {
	if end := prefixEnd(prefix); end != nil {
		c.writes.AscendRange(cacheEntry{key: prefix}, cacheEntry{key: end}, fn)
		return
	}
	c.writes.AscendGreaterOrEqual(cacheEntry{key: prefix}, fn)
}
