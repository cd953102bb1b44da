package types

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Coin is an amount of a single denomination. Amount is a base-10
// unsigned integer of at most 256 bits; the empty string is zero.
type Coin struct {
	Denom  string `cramberry:"1" json:"denom"`
	Amount string `cramberry:"2" json:"amount"`
}

// NewCoin creates a coin from a uint256 amount. A nil amount is zero.
func NewCoin(denom string, amount *uint256.Int) Coin {
	if amount == nil {
		return Coin{Denom: denom, Amount: "0"}
	}
	return Coin{Denom: denom, Amount: amount.Dec()}
}

// NewCoinUint64 creates a coin from a uint64 amount.
func NewCoinUint64(denom string, amount uint64) Coin {
	return NewCoin(denom, uint256.NewInt(amount))
}

// Coins is a shorthand for a single-coin list, the usual shape of
// attached funds.
func Coins(amount uint64, denom string) []Coin {
	return []Coin{NewCoinUint64(denom, amount)}
}

// Int parses the amount.
func (c Coin) Int() (*uint256.Int, error) {
	if c.Amount == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(c.Amount)
	if err != nil {
		return nil, errors.Wrapf(err, "coin %q: invalid amount %q", c.Denom, c.Amount)
	}
	return v, nil
}

// MustInt parses the amount and panics if it is malformed. For tests
// and constants.
func (c Coin) MustInt() *uint256.Int {
	v, err := c.Int()
	if err != nil {
		panic(err)
	}
	return v
}

// Uint64 returns the amount as a uint64, saturating at the maximum.
func (c Coin) Uint64() uint64 {
	v, err := c.Int()
	if err != nil {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}

// IsZero reports whether the amount is zero or unparseable.
func (c Coin) IsZero() bool {
	v, err := c.Int()
	return err != nil || v.IsZero()
}

func (c Coin) String() string {
	amount := c.Amount
	if amount == "" {
		amount = "0"
	}
	return fmt.Sprintf("%s%s", amount, c.Denom)
}

// ParseCoin parses the String form, an amount followed by a
// denomination such as "1000uearth".
func ParseCoin(s string) (Coin, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return Coin{}, errors.Errorf("invalid coin %q: want <amount><denom>", s)
	}
	v, err := uint256.FromDecimal(s[:i])
	if err != nil {
		return Coin{}, errors.Wrapf(err, "invalid coin %q", s)
	}
	return NewCoin(s[i:], v), nil
}
