package store

// Prefixed is a view of a parent store confined to keys starting with
// a fixed prefix. Keys passed in and out are relative to the prefix.
type Prefixed struct {
	parent KV
	prefix []byte
}

// Compile-time interface check.
var _ KV = (*Prefixed)(nil)

// NewPrefixed creates a view of parent under prefix.
func NewPrefixed(parent KV, prefix string) *Prefixed {
	return &Prefixed{parent: parent, prefix: []byte(prefix)}
}

func (p *Prefixed) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	return append(append(out, p.prefix...), k...)
}

func (p *Prefixed) Get(key []byte) ([]byte, error) { return p.parent.Get(p.key(key)) }

func (p *Prefixed) Set(key, value []byte) error { return p.parent.Set(p.key(key), value) }

func (p *Prefixed) Delete(key []byte) error { return p.parent.Delete(p.key(key)) }

func (p *Prefixed) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	n := len(p.prefix)
	return p.parent.Iterate(p.key(prefix), func(key, value []byte) bool {
		return fn(key[n:], value)
	})
}
