package contract

import (
	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// checkProposal gates proposal creation: sender must be on the
// proposer whitelist and the proposal window must be open.
func checkProposal(s *types.State, sender types.CanonicalAddr, now uint64) error {
	if err := authorize(sender, s.ProposerWhitelist, fundround.ListProposer); err != nil {
		return err
	}
	if !InPeriod(now, s.ProposalPeriodStart, s.ProposalPeriodEnd) {
		return fundround.NewInvalidPeriodError(fundround.PeriodProposal)
	}
	return nil
}

// appendProposal records p under the next id and returns the id.
func appendProposal(s *types.State, p types.Proposal) uint32 {
	p.ID = uint32(len(s.Proposals))
	s.Proposals = append(s.Proposals, p)
	return p.ID
}

// appendVote records a pledge of funds from sender to proposal id.
// Authorization, the voting window, the proposal reference and the
// funds are checked before s changes.
func appendVote(s *types.State, sender types.CanonicalAddr, now uint64, id uint32, funds []types.Coin) error {
	if err := authorize(sender, s.VoterWhitelist, fundround.ListVoter); err != nil {
		return err
	}
	if !InPeriod(now, s.VotingPeriodStart, s.VotingPeriodEnd) {
		return fundround.NewInvalidPeriodError(fundround.PeriodVoting)
	}
	if int(id) >= len(s.Proposals) {
		return fundround.NewInvalidProposalError(id)
	}
	if len(funds) == 0 || funds[0].IsZero() {
		return fundround.ErrNoFunds
	}
	s.Votes = append(s.Votes, types.Vote{
		Voter:    sender,
		Proposal: id,
		Amount:   append([]types.Coin(nil), funds...),
	})
	return nil
}
