// Package bank keeps account balances in a key-value store and
// executes transfers between accounts.
//
// A base denomination and its minor-unit form are one asset: "earth"
// and "uearth" share a balance, which is kept and reported in minor
// units.
package bank

import (
	"bytes"
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/contract"
	"github.com/blockberries/fundround/store"
	"github.com/blockberries/fundround/types"
)

const balancePrefix = "balance/"

// Keeper reads and moves balances. Balances live in the store it wraps,
// so wrapping a store.Cache makes a batch of transfers atomic with any
// other cached writes.
type Keeper struct {
	kv store.KV
}

// Compile-time interface check.
var _ fundround.BankQuerier = (*Keeper)(nil)

// NewKeeper creates a keeper over kv.
func NewKeeper(kv store.KV) *Keeper {
	return &Keeper{kv: kv}
}

func accountPrefix(addr types.HumanAddr) []byte {
	return []byte(balancePrefix + string(addr) + "\x00")
}

func balanceKey(addr types.HumanAddr, denom string) []byte {
	return append(accountPrefix(addr), denom...)
}

// Balance returns the balance of addr in denom, in the minor-unit
// denomination.
func (k *Keeper) Balance(_ context.Context, addr types.HumanAddr, denom string) (types.Coin, error) {
	denom, _, err := contract.ToMicro(types.Coin{Denom: denom})
	if err != nil {
		return types.Coin{}, err
	}
	amount, err := k.get(addr, denom)
	if err != nil {
		return types.Coin{}, err
	}
	return types.NewCoin(denom, amount), nil
}

// AllBalances returns the non-zero balances of addr ordered by denom.
func (k *Keeper) AllBalances(_ context.Context, addr types.HumanAddr) ([]types.Coin, error) {
	prefix := accountPrefix(addr)
	var (
		out     []types.Coin
		iterErr error
	)
	err := k.kv.Iterate(prefix, func(key, value []byte) bool {
		denom := string(bytes.TrimPrefix(key, prefix))
		c := types.Coin{Denom: denom, Amount: string(value)}
		if _, err := c.Int(); err != nil {
			iterErr = err
			return false
		}
		if !c.IsZero() {
			out = append(out, c)
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "iterate balances")
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}

// Mint credits coins to addr out of nothing. Used for genesis balances
// and tests.
func (k *Keeper) Mint(addr types.HumanAddr, coins []types.Coin) error {
	for _, c := range coins {
		denom, amount, err := contract.ToMicro(c)
		if err != nil {
			return err
		}
		if err := k.add(addr, denom, amount); err != nil {
			return err
		}
	}
	return nil
}

// Send moves coins from one account to another. Every coin is checked
// against the sender balance before anything moves.
func (k *Keeper) Send(from, to types.HumanAddr, coins []types.Coin) error {
	denoms := make([]string, len(coins))
	amounts := make([]*uint256.Int, len(coins))
	need := make(map[string]*uint256.Int)
	for i, c := range coins {
		denom, amount, err := contract.ToMicro(c)
		if err != nil {
			return err
		}
		denoms[i], amounts[i] = denom, amount
		total, ok := need[denom]
		if !ok {
			total = new(uint256.Int)
			need[denom] = total
		}
		if _, overflow := total.AddOverflow(total, amount); overflow {
			return fundround.ErrOverflow
		}
	}
	for _, denom := range denoms {
		total := need[denom]
		have, err := k.get(from, denom)
		if err != nil {
			return err
		}
		if have.Lt(total) {
			return errors.Wrapf(fundround.ErrInsufficientFunds, "%s has %s%s, needs %s%s",
				from, have.Dec(), denom, total.Dec(), denom)
		}
	}

	for i, denom := range denoms {
		if err := k.sub(from, denom, amounts[i]); err != nil {
			return err
		}
		if err := k.add(to, denom, amounts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (k *Keeper) get(addr types.HumanAddr, denom string) (*uint256.Int, error) {
	raw, err := k.kv.Get(balanceKey(addr, denom))
	if err != nil {
		return nil, errors.Wrapf(err, "read balance of %s", addr)
	}
	if raw == nil {
		return new(uint256.Int), nil
	}
	return types.Coin{Denom: denom, Amount: string(raw)}.Int()
}

func (k *Keeper) put(addr types.HumanAddr, denom string, amount *uint256.Int) error {
	key := balanceKey(addr, denom)
	if amount.IsZero() {
		return k.kv.Delete(key)
	}
	return k.kv.Set(key, []byte(amount.Dec()))
}

func (k *Keeper) add(addr types.HumanAddr, denom string, amount *uint256.Int) error {
	have, err := k.get(addr, denom)
	if err != nil {
		return err
	}
	if _, overflow := have.AddOverflow(have, amount); overflow {
		return errors.Wrapf(fundround.ErrOverflow, "credit %s", addr)
	}
	return k.put(addr, denom, have)
}

func (k *Keeper) sub(addr types.HumanAddr, denom string, amount *uint256.Int) error {
	have, err := k.get(addr, denom)
	if err != nil {
		return err
	}
	if have.Lt(amount) {
		return errors.Wrapf(fundround.ErrInsufficientFunds, "debit %s", addr)
	}
	return k.put(addr, denom, have.Sub(have, amount))
}
