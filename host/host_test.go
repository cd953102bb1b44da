package host_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/contract"
	"github.com/blockberries/fundround/host"
	"github.com/blockberries/fundround/store"
	"github.com/blockberries/fundround/types"
)

const (
	owner    types.HumanAddr = "owner"
	proposer types.HumanAddr = "proposer"
	voter0   types.HumanAddr = "voter_0"
	voter1   types.HumanAddr = "voter_1"
	alice    types.HumanAddr = "recipient_alice"
	bob      types.HumanAddr = "recipient_bob"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) set(sec uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = types.SecondsToTime(sec)
}

type fixture struct {
	host  *host.Host
	db    *store.MemDB
	clock *clock
	reg   *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	f := &fixture{db: store.NewMemDB(), clock: &clock{}, reg: prometheus.NewRegistry()}
	f.clock.set(1000)
	h, err := host.New(contract.New(contract.WithLogger(log), contract.WithTransferCost(0)), f.db,
		host.WithClock(f.clock),
		host.WithLogger(log),
		host.WithMetrics(host.NewMetrics(f.reg)),
	)
	require.NoError(t, err)
	f.host = h
	return f
}

func initMsg() types.InitMsg {
	return types.InitMsg{
		Name:                "round",
		ProposerWhitelist:   []types.HumanAddr{proposer},
		VoterWhitelist:      []types.HumanAddr{voter0, voter1},
		ProposalPeriodStart: types.At(1000),
		ProposalPeriodEnd:   types.At(2000),
		VotingPeriodStart:   types.At(3000),
		VotingPeriodEnd:     types.At(4000),
	}
}

func (f *fixture) instantiate(t *testing.T) {
	t.Helper()
	res, err := f.host.Instantiate(context.Background(), types.InstantiateRequest{Sender: owner, Msg: initMsg()})
	require.NoError(t, err)
	require.True(t, res.OK(), "instantiate: %s", res.Info)
}

func (f *fixture) exec(t *testing.T, sender types.HumanAddr, funds []types.Coin, msg types.ExecuteMsg) types.Result {
	t.Helper()
	res, err := f.host.Execute(context.Background(), types.ExecuteRequest{Sender: sender, Funds: funds, Msg: msg})
	require.NoError(t, err)
	return res
}

func (f *fixture) balance(t *testing.T, addr types.HumanAddr) string {
	t.Helper()
	c, err := f.host.Balance(context.Background(), addr, "ushell")
	require.NoError(t, err)
	return c.Amount
}

func snapshot(t *testing.T, db *store.MemDB) map[string]string {
	t.Helper()
	out := make(map[string]string)
	require.NoError(t, db.Iterate(nil, func(k, v []byte) bool {
		out[string(k)] = string(v)
		return true
	}))
	return out
}

// runRound takes a fresh host through proposals and votes up to the
// end of voting.
func runRound(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.host.Mint(f.host.ContractAddress(), types.Coins(50, "ushell")))
	require.NoError(t, f.host.Mint(voter0, types.Coins(10, "ushell")))
	require.NoError(t, f.host.Mint(voter1, types.Coins(20, "ushell")))
	f.instantiate(t)

	res := f.exec(t, proposer, nil, types.CreateProposal("a", "first", "", alice))
	require.True(t, res.OK(), res.Info)
	res = f.exec(t, proposer, nil, types.CreateProposal("b", "second", "", bob))
	require.True(t, res.OK(), res.Info)

	f.clock.set(3000)
	for _, v := range []struct {
		voter  types.HumanAddr
		id     uint32
		amount uint64
	}{
		{voter0, 0, 1}, {voter1, 0, 4}, {voter0, 1, 9}, {voter1, 1, 16},
	} {
		res := f.exec(t, v.voter, types.Coins(v.amount, "ushell"), types.CreateVote(v.id))
		require.True(t, res.OK(), res.Info)
	}
	f.clock.set(4001)
}

func TestHost_FullRound(t *testing.T) {
	f := newFixture(t)
	runRound(t, f)

	// Pledges were escrowed by the contract account.
	assert.Equal(t, "80", f.balance(t, f.host.ContractAddress()))
	assert.Equal(t, "0", f.balance(t, voter0))

	res := f.exec(t, owner, nil, types.DistributeFunds())
	require.True(t, res.OK(), res.Info)
	require.Len(t, res.Response.Messages, 2)
	require.Len(t, res.Response.Distributions, 2)

	assert.Equal(t, "12", f.balance(t, alice))
	assert.Equal(t, "67", f.balance(t, bob))
	assert.Equal(t, "1", f.balance(t, f.host.ContractAddress()))

	assert.Equal(t, float64(2), testutil.ToFloat64(f.host.Metrics().Proposals))
	assert.Equal(t, float64(4), testutil.ToFloat64(f.host.Metrics().Votes))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.host.Metrics().Transfers))
}

func TestHost_FailedRequestLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	runRound(t, f)
	res := f.exec(t, owner, nil, types.DistributeFunds())
	require.True(t, res.OK(), res.Info)

	// The pool is spent, so a second payout overdraws the contract
	// account on its first transfer.
	before := snapshot(t, f.db)
	height := f.host.Height()
	res = f.exec(t, owner, nil, types.DistributeFunds())
	assert.Equal(t, fundround.CodeInsufficientFunds, res.Code)
	assert.Equal(t, before, snapshot(t, f.db))
	assert.Equal(t, height, f.host.Height())

	// A rejected vote does not keep the attached funds either.
	require.NoError(t, f.host.Mint(voter0, types.Coins(5, "ushell")))
	before = snapshot(t, f.db)
	res = f.exec(t, voter0, types.Coins(5, "ushell"), types.CreateVote(0))
	assert.Equal(t, fundround.CodeInvalidPeriod, res.Code)
	assert.Equal(t, fundround.PeriodVoting, res.Detail)
	assert.Equal(t, before, snapshot(t, f.db))
}

func TestHost_AttachedFundsMustBeHeld(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t)
	f.clock.set(3000)

	res := f.exec(t, voter0, types.Coins(5, "ushell"), types.CreateVote(0))
	assert.Equal(t, fundround.CodeInsufficientFunds, res.Code)
}

func TestHost_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res := f.exec(t, owner, nil, types.CheckDistributions())
	assert.Equal(t, fundround.CodeRoundNotFound, res.Code)

	q, err := f.host.Query(ctx, types.GetState())
	require.NoError(t, err)
	assert.Equal(t, fundround.CodeRoundNotFound, q.Code)

	f.instantiate(t)
	assert.Equal(t, uint64(1), f.host.Height())

	again, err := f.host.Instantiate(ctx, types.InstantiateRequest{Sender: owner, Msg: initMsg()})
	require.NoError(t, err)
	assert.Equal(t, fundround.CodeRoundExists, again.Code)

	q, err = f.host.Query(ctx, types.GetState())
	require.NoError(t, err)
	require.True(t, q.OK(), q.Info)
	assert.Equal(t, owner, q.Response.State.Owner)
	assert.Equal(t, "Proposing", q.Response.State.Phase)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		f.host.Metrics().Requests.WithLabelValues("instantiate", "0")))
}

func TestHost_InvalidInstantiateCanRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bad := initMsg()
	bad.VotingPeriodStart = types.At(1500)
	res, err := f.host.Instantiate(ctx, types.InstantiateRequest{Sender: owner, Msg: bad})
	require.NoError(t, err)
	assert.Equal(t, fundround.CodeInvalidPeriod, res.Code)
	assert.Empty(t, snapshot(t, f.db))

	f.instantiate(t)
}

func TestHost_RestoresFromStore(t *testing.T) {
	f := newFixture(t)
	f.instantiate(t)
	res := f.exec(t, proposer, nil, types.CreateProposal("a", "", "", alice))
	require.True(t, res.OK(), res.Info)

	h, err := host.New(contract.New(), f.db, host.WithClock(f.clock))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), h.Height())

	q, err := h.Query(context.Background(), types.ProposalList())
	require.NoError(t, err)
	require.True(t, q.OK(), q.Info)
	require.Len(t, q.Response.Proposals, 1)
	assert.Equal(t, alice, q.Response.Proposals[0].Recipient)
}

func TestHost_CanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.host.Instantiate(ctx, types.InstantiateRequest{Sender: owner, Msg: initMsg()})
	assert.ErrorIs(t, err, context.Canceled)
}
