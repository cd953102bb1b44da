package contract

import (
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// MicroPrefix marks a minor-unit denomination.
const MicroPrefix = "u"

// Micro is the number of minor units in one base unit.
const Micro = 1_000_000

var micro = uint256.NewInt(Micro)

// ToMicro converts a coin to its minor-unit denomination. Coins whose
// denomination already carries MicroPrefix pass through unchanged.
func ToMicro(c types.Coin) (string, *uint256.Int, error) {
	amount, err := c.Int()
	if err != nil {
		return "", nil, err
	}
	if strings.HasPrefix(c.Denom, MicroPrefix) {
		return c.Denom, amount, nil
	}
	scaled, overflow := new(uint256.Int).MulOverflow(amount, micro)
	if overflow {
		return "", nil, errors.Wrapf(fundround.ErrOverflow, "scale %s to minor units", c)
	}
	return MicroPrefix + c.Denom, scaled, nil
}

type pledgeKey struct {
	voter    string
	proposal uint32
}

// NormalizeVotes collapses the ledger into one vote per (voter,
// proposal) pair carrying the sum of that pair's pledges in minor
// units. Only the first coin of each vote is read. Groups are returned
// in the order their first vote appears.
//
// When a pair pledged in several denominations the group keeps the
// denomination of its first vote.
func NormalizeVotes(votes []types.Vote) ([]types.Vote, error) {
	index := make(map[pledgeKey]int)
	denoms := make([]string, 0, len(votes))
	sums := make([]*uint256.Int, 0, len(votes))
	out := make([]types.Vote, 0, len(votes))

	for _, v := range votes {
		if len(v.Amount) == 0 {
			return nil, errors.Wrapf(fundround.ErrNoFunds, "vote on proposal %d", v.Proposal)
		}
		denom, amount, err := ToMicro(v.Amount[0])
		if err != nil {
			return nil, err
		}

		key := pledgeKey{voter: string(v.Voter), proposal: v.Proposal}
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, types.Vote{Voter: v.Voter, Proposal: v.Proposal})
			denoms = append(denoms, denom)
			sums = append(sums, amount)
			continue
		}
		if _, overflow := sums[i].AddOverflow(sums[i], amount); overflow {
			return nil, errors.Wrapf(fundround.ErrOverflow, "sum votes on proposal %d", v.Proposal)
		}
	}

	for i := range out {
		out[i].Amount = []types.Coin{types.NewCoin(denoms[i], sums[i])}
	}
	return out, nil
}
