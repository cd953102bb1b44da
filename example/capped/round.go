// Package capped implements a funding round that limits how much any
// single voter may pledge over the life of the round. It demonstrates
// extending the standard round by composition: pledges over the cap
// are rejected before the standard round sees them.
package capped

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/contract"
	"github.com/blockberries/fundround/types"
)

// Compile-time interface check.
var _ fundround.Round = (*Round)(nil)

// ErrCapExceeded is returned when a pledge would take the voter's total
// over the cap.
var ErrCapExceeded = errors.New("pledge exceeds per-voter cap")

// Round is a standard round with a per-voter pledge cap in minor units.
// Pledges in different denominations count toward the same cap.
type Round struct {
	*contract.Contract
	limit *uint256.Int
}

// New creates a capped round. opts configure the underlying round.
func New(limit uint64, opts ...contract.Option) *Round {
	return &Round{Contract: contract.New(opts...), limit: uint256.NewInt(limit)}
}

// Execute rejects a vote that would take the sender's pledges over the
// cap and otherwise runs the standard round.
func (r *Round) Execute(ctx context.Context, deps fundround.Deps, env types.Env, info types.MessageInfo, msg types.ExecuteMsg) (types.Response, error) {
	if msg.Kind == types.ExecuteCreateVote && len(info.Funds) > 0 {
		if err := r.checkCap(deps, info); err != nil {
			return types.Response{}, err
		}
	}
	return r.Contract.Execute(ctx, deps, env, info, msg)
}

func (r *Round) checkCap(deps fundround.Deps, info types.MessageInfo) error {
	s, err := contract.LoadState(deps.Store)
	if err != nil {
		return err
	}
	voter, err := deps.Identity.Canonicalize(info.Sender)
	if err != nil {
		return errors.Wrap(err, "canonicalize sender")
	}

	_, total, err := contract.ToMicro(info.Funds[0])
	if err != nil {
		return err
	}
	for _, v := range s.Votes {
		if !v.Voter.Equal(voter) || len(v.Amount) == 0 {
			continue
		}
		_, amount, err := contract.ToMicro(v.Amount[0])
		if err != nil {
			return err
		}
		if _, overflow := total.AddOverflow(total, amount); overflow {
			return fundround.ErrOverflow
		}
	}
	if total.Gt(r.limit) {
		return errors.Wrapf(ErrCapExceeded, "%s would pledge %s, cap %s", info.Sender, total.Dec(), r.limit.Dec())
	}
	return nil
}
