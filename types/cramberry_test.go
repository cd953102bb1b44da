package types_test

import (
	"testing"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/fundround/types"
)

// roundTrip marshals v, unmarshals into a new T, and returns it.
func roundTrip[T any](t *testing.T, v T) T {
	t.Helper()
	data, err := cramberry.Marshal(v)
	require.NoError(t, err)
	var out T
	require.NoError(t, cramberry.Unmarshal(data, &out))
	return out
}

func fullState() types.State {
	return types.State{
		Owner:               types.CanonicalAddr("owner"),
		Name:                "My Funding Round",
		ProposerWhitelist:   []types.CanonicalAddr{types.CanonicalAddr("proposer_0")},
		VoterWhitelist:      []types.CanonicalAddr{types.CanonicalAddr("voter_0"), types.CanonicalAddr("voter_1")},
		ProposalPeriodStart: types.At(100),
		ProposalPeriodEnd:   types.At(200),
		VotingPeriodStart:   types.At(300),
		VotingPeriodEnd:     types.At(400),
		Proposals: []types.Proposal{{
			ID:          0,
			Name:        "p",
			Description: "d",
			Tags:        "one two",
			Recipient:   types.CanonicalAddr("recipient"),
		}},
		Votes: []types.Vote{{
			Voter:    types.CanonicalAddr("voter_0"),
			Proposal: 0,
			Amount:   types.Coins(5, "uearth"),
		}},
	}
}

func TestState_RoundTrip(t *testing.T) {
	s := fullState()
	got := roundTrip(t, s)
	assert.Equal(t, s, got)
}

func TestState_UnsetPeriods(t *testing.T) {
	s := types.State{Owner: types.CanonicalAddr("owner"), Name: "empty"}
	got := roundTrip(t, s)
	assert.Nil(t, got.ProposalPeriodStart)
	assert.Nil(t, got.VotingPeriodEnd)
	assert.Empty(t, got.Proposals)
	assert.Empty(t, got.Votes)
}

func TestExecuteMsg_RoundTrip(t *testing.T) {
	msg := types.CreateProposal("name", "desc", "tags", "recipient")
	got := roundTrip(t, msg)
	require.Equal(t, types.ExecuteCreateProposal, got.Kind)
	require.NotNil(t, got.CreateProposal)
	assert.Equal(t, *msg.CreateProposal, *got.CreateProposal)

	period := types.PeriodTransition(types.ExecuteEndVotingPeriod, types.At(42))
	gotPeriod := roundTrip(t, period)
	require.NotNil(t, gotPeriod.Period)
	require.NotNil(t, gotPeriod.Period.Time)
	assert.Equal(t, uint64(42), *gotPeriod.Period.Time)
}

func TestResult_RoundTrip(t *testing.T) {
	id := uint32(3)
	r := types.Result{
		Height: 9,
		Response: types.Response{
			ProposalID: &id,
			Events:     []types.Event{types.NewEvent(types.EventCreateProposal, "proposal_id", "3")},
			Messages:   []types.BankMsg{{ToAddress: "recipient", Amount: types.Coins(11, "ushell")}},
		},
	}
	got := roundTrip(t, r)
	assert.True(t, got.OK())
	require.NotNil(t, got.Response.ProposalID)
	assert.Equal(t, id, *got.Response.ProposalID)
	assert.Equal(t, r.Response.Messages, got.Response.Messages)
	v, ok := got.Response.Events[0].Attr("proposal_id")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestCoin_Int(t *testing.T) {
	c := types.NewCoin("uearth", uint256.NewInt(1_000_000))
	assert.Equal(t, "1000000", c.Amount)
	assert.Equal(t, "1000000uearth", c.String())
	assert.Equal(t, uint64(1_000_000), c.Uint64())
	assert.False(t, c.IsZero())

	assert.True(t, types.Coin{Denom: "uearth"}.IsZero())

	_, err := types.Coin{Denom: "x", Amount: "-1"}.Int()
	assert.Error(t, err)
}

func TestTimeConversion(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := types.TimeToSeconds(at)
	assert.Equal(t, uint64(1704067200), s)
	assert.True(t, types.SecondsToTime(s).Equal(at))
	assert.Equal(t, uint64(0), types.TimeToSeconds(time.Unix(-5, 0)))
}

// TestDeterminism verifies that the same state always produces the
// same bytes.
func TestDeterminism(t *testing.T) {
	s := fullState()
	data1, err := cramberry.Marshal(s)
	require.NoError(t, err)
	data2, err := cramberry.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, data1, data2)
}

func TestParseCoin(t *testing.T) {
	c, err := types.ParseCoin("1000uearth")
	require.NoError(t, err)
	assert.Equal(t, types.NewCoinUint64("uearth", 1000), c)

	for _, bad := range []string{"", "uearth", "1000", "-5u"} {
		_, err := types.ParseCoin(bad)
		assert.Error(t, err, bad)
	}
}
