// Package contract implements a quadratic-funding round: the period
// state machine, whitelist authorization, the proposal and vote ledger,
// and the distribution of matching funds.
//
// Every call loads the round state from the store, runs one operation
// and saves the state only when the operation succeeded.
package contract

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// Compile-time interface check.
var _ fundround.Round = (*Contract)(nil)

// Contract is a funding round. It holds configuration only; all round
// data lives in the store passed with each call.
type Contract struct {
	log         logrus.FieldLogger
	cost        *uint256.Int
	budgetDenom string
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the logger. The default is the logrus standard
// logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Contract) { c.log = log }
}

// WithTransferCost sets the flat cost deducted from every payout.
func WithTransferCost(cost uint64) Option {
	return func(c *Contract) { c.cost = uint256.NewInt(cost) }
}

// WithBudgetDenom sets the denomination of the matching budget. When
// unset the round's first balance is used.
func WithBudgetDenom(denom string) Option {
	return func(c *Contract) { c.budgetDenom = denom }
}

// New creates a round.
func New(opts ...Option) *Contract {
	c := &Contract{
		log:  logrus.StandardLogger(),
		cost: uint256.NewInt(DefaultTransferCost),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Instantiate ---

// Instantiate creates the round state with info.Sender as owner.
// Whitelist entries that fail to canonicalize are dropped; each drop is
// logged and reported as a whitelist_dropped event.
func (c *Contract) Instantiate(_ context.Context, deps fundround.Deps, env types.Env, info types.MessageInfo, msg types.InitMsg) (types.Response, error) {
	owner, err := deps.Identity.Canonicalize(info.Sender)
	if err != nil {
		return types.Response{}, errors.Wrap(err, "canonicalize owner")
	}
	if err := validateBounds(msg); err != nil {
		return types.Response{}, err
	}

	var resp types.Response
	proposers := c.canonicalizeList(deps.Identity, msg.ProposerWhitelist, fundround.ListProposer, &resp)
	voters := c.canonicalizeList(deps.Identity, msg.VoterWhitelist, fundround.ListVoter, &resp)

	s := &types.State{
		Owner:               owner,
		Name:                msg.Name,
		ProposerWhitelist:   proposers,
		VoterWhitelist:      voters,
		ProposalPeriodStart: msg.ProposalPeriodStart,
		ProposalPeriodEnd:   msg.ProposalPeriodEnd,
		VotingPeriodStart:   msg.VotingPeriodStart,
		VotingPeriodEnd:     msg.VotingPeriodEnd,
	}
	if err := SaveState(deps.Store, s); err != nil {
		return types.Response{}, err
	}

	c.log.WithFields(logrus.Fields{
		"name":      msg.Name,
		"owner":     info.Sender,
		"proposers": len(proposers),
		"voters":    len(voters),
		"height":    env.Height,
	}).Info("round instantiated")

	resp.Events = append([]types.Event{
		types.NewEvent(types.EventInstantiate, "name", msg.Name, "owner", string(info.Sender)),
	}, resp.Events...)
	return resp, nil
}

func (c *Contract) canonicalizeList(id fundround.Identity, list []types.HumanAddr, listType string, resp *types.Response) []types.CanonicalAddr {
	out := make([]types.CanonicalAddr, 0, len(list))
	for _, addr := range list {
		canon, err := id.Canonicalize(addr)
		if err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"list":    listType,
				"address": addr,
			}).Warn("dropping invalid whitelist address")
			resp.Events = append(resp.Events, types.NewEvent(types.EventWhitelistDropped,
				"list", listType, "address", string(addr)))
			continue
		}
		out = append(out, canon)
	}
	return out
}

// --- Execute ---

// Execute runs one mutating operation against the stored round.
func (c *Contract) Execute(ctx context.Context, deps fundround.Deps, env types.Env, info types.MessageInfo, msg types.ExecuteMsg) (types.Response, error) {
	s, err := LoadState(deps.Store)
	if err != nil {
		return types.Response{}, err
	}
	sender, err := deps.Identity.Canonicalize(info.Sender)
	if err != nil {
		return types.Response{}, errors.Wrap(err, "canonicalize sender")
	}

	log := c.log.WithFields(logrus.Fields{
		"kind":   msg.Kind,
		"sender": info.Sender,
		"height": env.Height,
	})

	var resp types.Response
	persist := true
	switch msg.Kind {
	case types.ExecuteCreateProposal:
		resp, err = c.createProposal(deps, env, s, sender, msg.CreateProposal)
	case types.ExecuteCreateVote:
		resp, err = c.createVote(env, s, sender, info, msg.CreateVote)
	case types.ExecuteStartProposalPeriod, types.ExecuteEndProposalPeriod,
		types.ExecuteStartVotingPeriod, types.ExecuteEndVotingPeriod:
		resp, err = c.transition(env, s, sender, msg.Kind, msg.Period)
	case types.ExecuteCheckDistributions:
		persist = false
		resp, err = c.checkDistributions(ctx, deps, env, s)
	case types.ExecuteDistributeFunds:
		persist = false
		resp, err = c.distributeFunds(ctx, deps, env, s, sender)
	default:
		err = errors.Errorf("unknown execute message kind %s", msg.Kind)
	}
	if err != nil {
		log.WithError(err).Debug("execute rejected")
		return types.Response{}, err
	}

	if persist {
		if err := SaveState(deps.Store, s); err != nil {
			return types.Response{}, err
		}
	}
	log.Debug("execute ok")
	return resp, nil
}

func (c *Contract) createProposal(deps fundround.Deps, env types.Env, s *types.State, sender types.CanonicalAddr, msg *types.CreateProposalMsg) (types.Response, error) {
	if msg == nil {
		return types.Response{}, errors.New("create proposal: missing payload")
	}
	if err := checkProposal(s, sender, env.Time); err != nil {
		return types.Response{}, err
	}
	recipient, err := deps.Identity.Canonicalize(msg.Recipient)
	if err != nil {
		return types.Response{}, errors.Wrap(err, "canonicalize recipient")
	}

	id := appendProposal(s, types.Proposal{
		Name:        msg.Name,
		Description: msg.Description,
		Tags:        msg.Tags,
		Recipient:   recipient,
	})
	c.log.WithFields(logrus.Fields{"proposal_id": id, "name": msg.Name}).Info("proposal created")
	return types.Response{
		ProposalID: &id,
		Events: []types.Event{types.NewEvent(types.EventCreateProposal,
			"proposal_id", types.FormatID(id), "recipient", string(msg.Recipient))},
	}, nil
}

func (c *Contract) createVote(env types.Env, s *types.State, sender types.CanonicalAddr, info types.MessageInfo, msg *types.CreateVoteMsg) (types.Response, error) {
	if msg == nil {
		return types.Response{}, errors.New("create vote: missing payload")
	}
	if err := appendVote(s, sender, env.Time, msg.ProposalID, info.Funds); err != nil {
		return types.Response{}, err
	}
	return types.Response{
		Events: []types.Event{types.NewEvent(types.EventCreateVote,
			"proposal_id", types.FormatID(msg.ProposalID),
			"voter", string(info.Sender),
			"amount", info.Funds[0].String())},
	}, nil
}

func (c *Contract) transition(env types.Env, s *types.State, sender types.CanonicalAddr, kind types.ExecuteKind, msg *types.PeriodMsg) (types.Response, error) {
	if err := authorizeOwner(sender, s); err != nil {
		return types.Response{}, err
	}
	var at *uint64
	if msg != nil {
		at = msg.Time
	}

	var err error
	switch kind {
	case types.ExecuteStartProposalPeriod:
		err = startProposalPeriod(s, env.Time, at)
	case types.ExecuteEndProposalPeriod:
		err = endProposalPeriod(s, env.Time, at)
	case types.ExecuteStartVotingPeriod:
		err = startVotingPeriod(s, env.Time, at)
	case types.ExecuteEndVotingPeriod:
		err = endVotingPeriod(s, env.Time, at)
	}
	if err != nil {
		return types.Response{}, err
	}

	phase := CurrentPhase(env.Time, s)
	c.log.WithFields(logrus.Fields{"transition": kind, "phase": phase}).Info("period changed")
	return types.Response{
		Events: []types.Event{types.NewEvent(types.EventPeriodChanged,
			"transition", kind.String(), "phase", phase.String())},
	}, nil
}

// --- Distributions ---

// checkDistributions computes distributions without moving funds. It
// is open to anyone once voting has started.
func (c *Contract) checkDistributions(ctx context.Context, deps fundround.Deps, env types.Env, s *types.State) (types.Response, error) {
	if !Started(env.Time, s.VotingPeriodStart) {
		return types.Response{}, fundround.NewInvalidPeriodError(fundround.PeriodVoting)
	}
	dists, err := c.distributions(ctx, deps, env, s)
	if err != nil {
		return types.Response{}, err
	}
	return types.Response{Distributions: dists}, nil
}

// distributeFunds computes distributions and plans the payouts. Only
// the owner may call it, and only after voting has ended.
func (c *Contract) distributeFunds(ctx context.Context, deps fundround.Deps, env types.Env, s *types.State, sender types.CanonicalAddr) (types.Response, error) {
	if err := authorizeOwner(sender, s); err != nil {
		return types.Response{}, err
	}
	if !Ended(env.Time, s.VotingPeriodEnd) {
		return types.Response{}, fundround.NewInvalidPeriodError(fundround.PeriodVoting)
	}
	dists, err := c.distributions(ctx, deps, env, s)
	if err != nil {
		return types.Response{}, err
	}
	msgs, err := PlanDisbursements(deps.Identity, dists, c.cost)
	if err != nil {
		return types.Response{}, err
	}

	resp := types.Response{Messages: msgs, Distributions: dists}
	for _, m := range msgs {
		resp.Events = append(resp.Events, types.NewEvent(types.EventTransfer,
			"recipient", string(m.ToAddress), "amount", m.Amount[0].String()))
	}
	c.log.WithFields(logrus.Fields{
		"proposals": len(dists),
		"transfers": len(msgs),
	}).Info("funds distributed")
	return resp, nil
}

func (c *Contract) distributions(ctx context.Context, deps fundround.Deps, env types.Env, s *types.State) ([]types.Distribution, error) {
	budget, err := c.matchingBudget(ctx, deps.Bank, env, s.Votes)
	if err != nil {
		return nil, err
	}
	return CalculateDistributions(s.Votes, s.Proposals, budget)
}

// matchingBudget returns the round's matching funds in minor units:
// its balance in the budget denomination net of the pledges it holds in
// that denomination. Pledges are held by the round's account, so they
// are not part of the matching pool.
//
// Without a configured denomination the pledge denominations are tried
// first, in the order votes first used them, then every other balance.
// The first with funds left after netting is the budget.
func (c *Contract) matchingBudget(ctx context.Context, bank fundround.BankQuerier, env types.Env, votes []types.Vote) (types.Coin, error) {
	escrow, order, err := pledged(votes)
	if err != nil {
		return types.Coin{}, err
	}

	var balances []types.Coin
	if c.budgetDenom != "" {
		balance, err := bank.Balance(ctx, env.Contract, c.budgetDenom)
		if err != nil {
			return types.Coin{}, errors.Wrap(err, "query budget balance")
		}
		balances = []types.Coin{balance}
	} else {
		balances, err = bank.AllBalances(ctx, env.Contract)
		if err != nil {
			return types.Coin{}, errors.Wrap(err, "query budget balance")
		}
	}

	pools := make(map[string]*uint256.Int, len(balances))
	var denoms []string
	for _, balance := range balances {
		denom, amount, err := ToMicro(balance)
		if err != nil {
			return types.Coin{}, errors.Wrap(err, "normalize balance")
		}
		pool, ok := pools[denom]
		if !ok {
			pools[denom] = amount
			denoms = append(denoms, denom)
			continue
		}
		if _, overflow := pool.AddOverflow(pool, amount); overflow {
			return types.Coin{}, fundround.ErrOverflow
		}
	}
	for denom, held := range escrow {
		if pool, ok := pools[denom]; ok {
			if pool.Gt(held) {
				pool.Sub(pool, held)
			} else {
				pool.Clear()
			}
		}
	}

	if c.budgetDenom == "" {
		for _, denom := range order {
			if pool, ok := pools[denom]; ok && !pool.IsZero() {
				return types.NewCoin(denom, pool), nil
			}
		}
	}
	for _, denom := range denoms {
		if !pools[denom].IsZero() {
			return types.NewCoin(denom, pools[denom]), nil
		}
	}

	// Nothing to spend. Report the empty budget in the configured or
	// pledge denomination so payouts stay in the unit votes were cast in.
	switch {
	case len(denoms) > 0 && c.budgetDenom != "":
		return types.Coin{Denom: denoms[0], Amount: "0"}, nil
	case len(order) > 0:
		return types.Coin{Denom: order[0], Amount: "0"}, nil
	case len(denoms) > 0:
		return types.Coin{Denom: denoms[0], Amount: "0"}, nil
	}
	return types.Coin{Denom: MicroPrefix, Amount: "0"}, nil
}

// pledged sums the vote amounts held by the round per minor-unit
// denomination, and lists the denominations in first-use order.
func pledged(votes []types.Vote) (map[string]*uint256.Int, []string, error) {
	escrow := make(map[string]*uint256.Int)
	var order []string
	for _, v := range votes {
		if len(v.Amount) == 0 {
			continue
		}
		denom, amount, err := ToMicro(v.Amount[0])
		if err != nil {
			return nil, nil, err
		}
		total, ok := escrow[denom]
		if !ok {
			total = new(uint256.Int)
			escrow[denom] = total
			order = append(order, denom)
		}
		if _, overflow := total.AddOverflow(total, amount); overflow {
			return nil, nil, fundround.ErrOverflow
		}
	}
	return escrow, order, nil
}
