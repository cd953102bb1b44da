package contract

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// DefaultTransferCost is the flat per-transfer cost, in minor units,
// deducted from every payout.
const DefaultTransferCost = 1000

// PlanDisbursements turns distributions into transfers to proposal
// recipients. Each payout is reduced by cost; payouts that do not
// exceed cost produce no transfer.
func PlanDisbursements(id fundround.Identity, dists []types.Distribution, cost *uint256.Int) ([]types.BankMsg, error) {
	var msgs []types.BankMsg
	for _, d := range dists {
		amount, err := d.DistributionActual.Int()
		if err != nil {
			return nil, err
		}
		if !amount.Gt(cost) {
			continue
		}
		to, err := id.Humanize(d.Recipient)
		if err != nil {
			return nil, errors.Wrapf(err, "recipient of proposal %d", d.Proposal)
		}
		msgs = append(msgs, types.BankMsg{
			ToAddress: to,
			Amount:    []types.Coin{types.NewCoin(d.DistributionActual.Denom, amount.Sub(amount, cost))},
		})
	}
	return msgs, nil
}
