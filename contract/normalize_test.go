package contract

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

func vote(voter string, proposal uint32, amount uint64, denom string) types.Vote {
	return types.Vote{
		Voter:    types.CanonicalAddr(voter),
		Proposal: proposal,
		Amount:   types.Coins(amount, denom),
	}
}

func TestToMicro(t *testing.T) {
	denom, amount, err := ToMicro(types.NewCoinUint64("earth", 3))
	require.NoError(t, err)
	assert.Equal(t, "uearth", denom)
	assert.Equal(t, uint64(3_000_000), amount.Uint64())

	denom, amount, err = ToMicro(types.NewCoinUint64("uearth", 3))
	require.NoError(t, err)
	assert.Equal(t, "uearth", denom)
	assert.Equal(t, uint64(3), amount.Uint64())

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	_, _, err = ToMicro(types.NewCoin("earth", huge))
	assert.True(t, errors.Is(err, fundround.ErrOverflow), "got %v", err)
}

func TestNormalizeVotes(t *testing.T) {
	got, err := NormalizeVotes([]types.Vote{
		vote("voter_0", 0, 1, "earth"),
		vote("voter_1", 0, 1, "earth"),
		vote("voter_0", 1, 1, "earth"),
		vote("voter_0", 0, 1, "earth"),
	})
	require.NoError(t, err)

	// Groups keep first-seen order.
	require.Len(t, got, 3)
	assert.Equal(t, vote("voter_0", 0, 2_000_000, "uearth"), got[0])
	assert.Equal(t, vote("voter_1", 0, 1_000_000, "uearth"), got[1])
	assert.Equal(t, vote("voter_0", 1, 1_000_000, "uearth"), got[2])
}

func TestNormalizeVotes_MixedUnits(t *testing.T) {
	got, err := NormalizeVotes([]types.Vote{
		vote("voter_0", 0, 5, "uearth"),
		vote("voter_0", 0, 1, "earth"),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1000005", got[0].Amount[0].Amount)
}

func TestNormalizeVotes_Errors(t *testing.T) {
	_, err := NormalizeVotes([]types.Vote{{Voter: types.CanonicalAddr("v"), Proposal: 0}})
	assert.True(t, errors.Is(err, fundround.ErrNoFunds))

	max := new(uint256.Int).SetAllOne()
	_, err = NormalizeVotes([]types.Vote{
		{Voter: types.CanonicalAddr("v"), Amount: []types.Coin{types.NewCoin("uearth", max)}},
		{Voter: types.CanonicalAddr("v"), Amount: []types.Coin{types.NewCoin("uearth", max)}},
	})
	assert.True(t, errors.Is(err, fundround.ErrOverflow))

	got, err := NormalizeVotes(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
