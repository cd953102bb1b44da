// Package store provides the key-value stores a round host runs on: an
// ordered in-memory database, a write-buffering cache for atomic
// commits, prefixed views and a PostgreSQL-backed store.
package store

import (
	"bytes"

	"github.com/blockberries/fundround"
)

// KV is an ordered key-value store.
type KV interface {
	fundround.Store

	// Iterate calls fn for every key with the given prefix in
	// ascending key order until fn returns false.
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
}

// Op is a single write in a batch. A nil Value deletes Key.
type Op struct {
	Key   []byte
	Value []byte
}

// Batcher is implemented by stores that can apply a batch of writes
// atomically.
type Batcher interface {
	WriteBatch(ops []Op) error
}

// prefixEnd returns the smallest key greater than every key with the
// given prefix, or nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
