package contract

import (
	"context"

	"github.com/pkg/errors"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// Query answers a read-only request. Canonical addresses are rendered
// in display form.
func (c *Contract) Query(_ context.Context, deps fundround.Deps, env types.Env, msg types.QueryMsg) (types.QueryResponse, error) {
	s, err := LoadState(deps.Store)
	if err != nil {
		return types.QueryResponse{}, err
	}
	switch msg.Kind {
	case types.QueryGetState:
		state, err := queryState(deps.Identity, env, s)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{State: state}, nil
	case types.QueryProposalList:
		proposals, err := queryProposalList(deps.Identity, s)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{Proposals: proposals}, nil
	case types.QueryProposalState:
		ps, err := queryProposalState(deps.Identity, s, msg.ProposalID)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{ProposalState: ps}, nil
	default:
		return types.QueryResponse{}, errors.Errorf("unknown query kind %s", msg.Kind)
	}
}

func queryState(id fundround.Identity, env types.Env, s *types.State) (*types.StateResponse, error) {
	owner, err := id.Humanize(s.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "humanize owner")
	}
	proposers, err := humanizeList(id, s.ProposerWhitelist)
	if err != nil {
		return nil, err
	}
	voters, err := humanizeList(id, s.VoterWhitelist)
	if err != nil {
		return nil, err
	}
	return &types.StateResponse{
		Name:                s.Name,
		Owner:               owner,
		ProposerWhitelist:   proposers,
		VoterWhitelist:      voters,
		ProposalPeriodStart: s.ProposalPeriodStart,
		ProposalPeriodEnd:   s.ProposalPeriodEnd,
		VotingPeriodStart:   s.VotingPeriodStart,
		VotingPeriodEnd:     s.VotingPeriodEnd,
		Phase:               CurrentPhase(env.Time, s).String(),
	}, nil
}

func queryProposalList(id fundround.Identity, s *types.State) ([]types.ProposalInfo, error) {
	out := make([]types.ProposalInfo, 0, len(s.Proposals))
	for _, p := range s.Proposals {
		info, err := proposalInfo(id, p)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func queryProposalState(id fundround.Identity, s *types.State, proposalID uint32) (*types.ProposalStateResponse, error) {
	if int(proposalID) >= len(s.Proposals) {
		return nil, fundround.NewInvalidProposalError(proposalID)
	}
	info, err := proposalInfo(id, s.Proposals[proposalID])
	if err != nil {
		return nil, err
	}
	resp := &types.ProposalStateResponse{Proposal: info, Votes: []types.VoteInfo{}}
	for _, v := range s.VotesFor(proposalID) {
		voter, err := id.Humanize(v.Voter)
		if err != nil {
			return nil, errors.Wrapf(err, "humanize voter on proposal %d", proposalID)
		}
		resp.Votes = append(resp.Votes, types.VoteInfo{Voter: voter, Proposal: v.Proposal, Amount: v.Amount})
	}
	return resp, nil
}

func proposalInfo(id fundround.Identity, p types.Proposal) (types.ProposalInfo, error) {
	recipient, err := id.Humanize(p.Recipient)
	if err != nil {
		return types.ProposalInfo{}, errors.Wrapf(err, "humanize recipient of proposal %d", p.ID)
	}
	return types.ProposalInfo{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Tags:        p.Tags,
		Recipient:   recipient,
	}, nil
}

func humanizeList(id fundround.Identity, list []types.CanonicalAddr) ([]types.HumanAddr, error) {
	out := make([]types.HumanAddr, 0, len(list))
	for _, addr := range list {
		h, err := id.Humanize(addr)
		if err != nil {
			return nil, errors.Wrap(err, "humanize whitelist")
		}
		out = append(out, h)
	}
	return out, nil
}
