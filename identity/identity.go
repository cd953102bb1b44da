// Package identity provides address codecs: a bech32 codec for real
// accounts and a plain reversible codec for tests and local tooling.
package identity

import (
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// AddressLength is the length of a canonical bech32 account address.
const AddressLength = 20

// DefaultCacheSize is the default number of cached conversions per
// direction.
const DefaultCacheSize = 1024

// ErrInvalidAddress is returned for addresses that cannot be converted.
var ErrInvalidAddress = errors.New("invalid address")

// Bech32 converts between bech32 display addresses with a fixed
// human-readable prefix and 20-byte canonical addresses. Conversions
// are cached in both directions.
type Bech32 struct {
	prefix  string
	toCanon *lru.Cache
	toHuman *lru.Cache
}

// Compile-time interface check.
var _ fundround.Identity = (*Bech32)(nil)

// NewBech32 creates a codec for prefix with cacheSize entries per
// direction.
func NewBech32(prefix string, cacheSize int) (*Bech32, error) {
	if prefix == "" {
		return nil, errors.New("bech32 prefix must not be empty")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	toCanon, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create address cache")
	}
	toHuman, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create address cache")
	}
	return &Bech32{prefix: prefix, toCanon: toCanon, toHuman: toHuman}, nil
}

// Prefix returns the human-readable part of the addresses.
func (b *Bech32) Prefix() string { return b.prefix }

func (b *Bech32) Canonicalize(addr types.HumanAddr) (types.CanonicalAddr, error) {
	if v, ok := b.toCanon.Get(string(addr)); ok {
		return append(types.CanonicalAddr(nil), v.(types.CanonicalAddr)...), nil
	}
	hrp, data, err := bech32.Decode(string(addr))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: %v", addr, err)
	}
	if hrp != b.prefix {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: prefix %q, want %q", addr, hrp, b.prefix)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: %v", addr, err)
	}
	if len(raw) != AddressLength {
		return nil, errors.Wrapf(ErrInvalidAddress, "%s: length %d, want %d", addr, len(raw), AddressLength)
	}
	canon := types.CanonicalAddr(raw)
	b.toCanon.Add(string(addr), canon)
	return append(types.CanonicalAddr(nil), canon...), nil
}

func (b *Bech32) Humanize(addr types.CanonicalAddr) (types.HumanAddr, error) {
	if v, ok := b.toHuman.Get(string(addr)); ok {
		return v.(types.HumanAddr), nil
	}
	if len(addr) != AddressLength {
		return "", errors.Wrapf(ErrInvalidAddress, "canonical length %d, want %d", len(addr), AddressLength)
	}
	data, err := bech32.ConvertBits(addr, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "convert address bits")
	}
	s, err := bech32.Encode(b.prefix, data)
	if err != nil {
		return "", errors.Wrap(err, "encode address")
	}
	human := types.HumanAddr(s)
	b.toHuman.Add(string(addr), human)
	return human, nil
}

// Plain maps a display address to its own bytes. Addresses must be
// 3 to 64 characters without whitespace. It is meant for tests and
// local tooling, where readable names such as "voter_0" are handy.
type Plain struct{}

// Compile-time interface check.
var _ fundround.Identity = Plain{}

const (
	plainMinLength = 3
	plainMaxLength = 64
)

func (Plain) Canonicalize(addr types.HumanAddr) (types.CanonicalAddr, error) {
	if err := validatePlain(string(addr)); err != nil {
		return nil, err
	}
	return types.CanonicalAddr(addr), nil
}

func (Plain) Humanize(addr types.CanonicalAddr) (types.HumanAddr, error) {
	if err := validatePlain(string(addr)); err != nil {
		return "", err
	}
	return types.HumanAddr(addr), nil
}

func validatePlain(s string) error {
	if len(s) < plainMinLength || len(s) > plainMaxLength {
		return errors.Wrapf(ErrInvalidAddress, "%q: length %d outside [%d, %d]", s, len(s), plainMinLength, plainMaxLength)
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return errors.Wrapf(ErrInvalidAddress, "%q: contains whitespace", s)
	}
	return nil
}
