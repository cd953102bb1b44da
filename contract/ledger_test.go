package contract

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

func addrs(names ...string) []types.CanonicalAddr {
	out := make([]types.CanonicalAddr, len(names))
	for i, n := range names {
		out[i] = types.CanonicalAddr(n)
	}
	return out
}

func TestIsAuthorized(t *testing.T) {
	assert.True(t, IsAuthorized(types.CanonicalAddr("anyone"), nil))
	list := addrs("a", "b")
	assert.True(t, IsAuthorized(types.CanonicalAddr("b"), list))
	assert.False(t, IsAuthorized(types.CanonicalAddr("c"), list))

	s := &types.State{Owner: types.CanonicalAddr("owner")}
	require.NoError(t, authorizeOwner(types.CanonicalAddr("owner"), s))
	e, ok := fundround.IsUnauthorized(authorizeOwner(types.CanonicalAddr("a"), s))
	require.True(t, ok)
	assert.Equal(t, fundround.ListOwner, e.ListType)
}

func TestCheckProposal(t *testing.T) {
	s := &types.State{
		ProposerWhitelist:   addrs("proposer_0"),
		ProposalPeriodStart: types.At(100),
		ProposalPeriodEnd:   types.At(200),
	}
	require.NoError(t, checkProposal(s, types.CanonicalAddr("proposer_0"), 150))

	// Authorization is checked before the window.
	e, ok := fundround.IsUnauthorized(checkProposal(s, types.CanonicalAddr("x"), 500))
	require.True(t, ok)
	assert.Equal(t, fundround.ListProposer, e.ListType)

	_, ok = fundround.IsInvalidPeriod(checkProposal(s, types.CanonicalAddr("proposer_0"), 201))
	assert.True(t, ok)

	assert.Equal(t, uint32(0), appendProposal(s, types.Proposal{Name: "a"}))
	assert.Equal(t, uint32(1), appendProposal(s, types.Proposal{Name: "b"}))
	assert.Equal(t, uint32(1), s.Proposals[1].ID)
}

func TestAppendVote(t *testing.T) {
	s := &types.State{
		VoterWhitelist:    addrs("voter_0"),
		VotingPeriodStart: types.At(100),
		VotingPeriodEnd:   types.At(200),
		Proposals:         []types.Proposal{{ID: 0}, {ID: 1}},
	}
	voter := types.CanonicalAddr("voter_0")
	funds := types.Coins(1000, "earth")

	_, ok := fundround.IsUnauthorized(appendVote(s, types.CanonicalAddr("x"), 150, 0, funds))
	assert.True(t, ok)
	_, ok = fundround.IsInvalidPeriod(appendVote(s, voter, 99, 0, funds))
	assert.True(t, ok)

	// An id equal to the proposal count does not exist.
	e, ok := fundround.IsInvalidProposal(appendVote(s, voter, 150, 2, funds))
	require.True(t, ok)
	assert.Equal(t, uint32(2), e.ID)

	assert.True(t, errors.Is(appendVote(s, voter, 150, 0, nil), fundround.ErrNoFunds))
	assert.True(t, errors.Is(appendVote(s, voter, 150, 0, types.Coins(0, "earth")), fundround.ErrNoFunds))
	assert.Empty(t, s.Votes)

	require.NoError(t, appendVote(s, voter, 150, 1, funds))
	require.Len(t, s.Votes, 1)
	assert.Equal(t, uint32(1), s.Votes[0].Proposal)
	assert.Equal(t, funds, s.Votes[0].Amount)

	// The stored amount does not alias the caller's slice.
	funds[0].Amount = "1"
	assert.Equal(t, "1000", s.Votes[0].Amount[0].Amount)
}
