package contract

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// tally is the per-proposal intermediate of the distribution solve.
type tally struct {
	votes        []types.Coin
	total        *uint256.Int
	ideal        *uint256.Int
	subsidyIdeal *uint256.Int
}

// CalculateDistributions splits budget among proposals by the
// quadratic-funding rule. It returns one Distribution per proposal, in
// proposal order, whether or not the proposal received votes.
//
// For each proposal the ideal payout is the square of the sum of the
// integer square roots of its normalized pledges, and the ideal subsidy
// is whatever the ideal exceeds the raw pledge total by. Ideal
// subsidies are then rescaled by a single constraint factor so that
// together they spend the budget. All arithmetic is integer with floor
// division, so results are reproducible bit for bit.
//
// When no proposal has subsidy demand, or the budget is empty, no
// matching is paid and every proposal receives its raw total.
func CalculateDistributions(votes []types.Vote, proposals []types.Proposal, budget types.Coin) ([]types.Distribution, error) {
	denom, budgetValue, err := ToMicro(budget)
	if err != nil {
		return nil, errors.Wrap(err, "normalize budget")
	}
	normalized, err := NormalizeVotes(votes)
	if err != nil {
		return nil, err
	}

	tallies := make([]tally, len(proposals))
	demand := new(uint256.Int)
	for i, p := range proposals {
		t, err := tallyProposal(p.ID, normalized, denom)
		if err != nil {
			return nil, err
		}
		if _, overflow := demand.AddOverflow(demand, t.subsidyIdeal); overflow {
			return nil, errors.Wrap(fundround.ErrOverflow, "sum ideal subsidies")
		}
		tallies[i] = t
	}

	factor, err := constraintFactor(demand, budgetValue)
	if err != nil {
		return nil, err
	}

	out := make([]types.Distribution, len(proposals))
	for i, p := range proposals {
		t := tallies[i]
		actual, err := actualDistribution(t, factor)
		if err != nil {
			return nil, err
		}
		subsidy := new(uint256.Int).Sub(actual, t.total)
		out[i] = types.Distribution{
			Proposal:           p.ID,
			Recipient:          p.Recipient,
			Votes:              t.votes,
			DistributionIdeal:  types.NewCoin(denom, t.ideal),
			SubsidyIdeal:       types.NewCoin(denom, t.subsidyIdeal),
			DistributionActual: types.NewCoin(denom, actual),
			SubsidyActual:      types.NewCoin(denom, subsidy),
		}
	}
	return out, nil
}

// tallyProposal collects the normalized pledges on proposal id and
// computes its ideal payout.
func tallyProposal(id uint32, normalized []types.Vote, denom string) (tally, error) {
	t := tally{
		votes:        []types.Coin{},
		total:        new(uint256.Int),
		ideal:        new(uint256.Int),
		subsidyIdeal: new(uint256.Int),
	}
	roots := new(uint256.Int)
	for _, v := range normalized {
		if v.Proposal != id {
			continue
		}
		amount, err := v.Amount[0].Int()
		if err != nil {
			return tally{}, err
		}
		t.votes = append(t.votes, types.NewCoin(denom, amount))
		if _, overflow := t.total.AddOverflow(t.total, amount); overflow {
			return tally{}, errors.Wrapf(fundround.ErrOverflow, "total votes on proposal %d", id)
		}
		roots.Add(roots, new(uint256.Int).Sqrt(amount))
	}
	if _, overflow := t.ideal.MulOverflow(roots, roots); overflow {
		return tally{}, errors.Wrapf(fundround.ErrOverflow, "ideal distribution of proposal %d", id)
	}
	if t.ideal.Gt(t.total) {
		t.subsidyIdeal.Sub(t.ideal, t.total)
	}
	return t, nil
}

// constraintFactor is Micro * demand / budget. A zero factor means no
// matching is paid.
func constraintFactor(demand, budget *uint256.Int) (*uint256.Int, error) {
	if budget.IsZero() {
		return new(uint256.Int), nil
	}
	scaled, overflow := new(uint256.Int).MulOverflow(micro, demand)
	if overflow {
		return nil, errors.Wrap(fundround.ErrOverflow, "scale subsidy demand")
	}
	return scaled.Div(scaled, budget), nil
}

// actualDistribution is Micro * subsidy_ideal / factor + total. The
// ideal subsidy is recomputed from the ideal and the total, clamped at
// zero.
func actualDistribution(t tally, factor *uint256.Int) (*uint256.Int, error) {
	if factor.IsZero() {
		return new(uint256.Int).Set(t.total), nil
	}
	subsidy := new(uint256.Int)
	if t.ideal.Gt(t.total) {
		subsidy.Sub(t.ideal, t.total)
	}
	scaled, overflow := new(uint256.Int).MulOverflow(micro, subsidy)
	if overflow {
		return nil, errors.Wrap(fundround.ErrOverflow, "scale subsidy")
	}
	scaled.Div(scaled, factor)
	if _, overflow := scaled.AddOverflow(scaled, t.total); overflow {
		return nil, errors.Wrap(fundround.ErrOverflow, "actual distribution")
	}
	return scaled, nil
}
