package roundtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/host"
	"github.com/blockberries/fundround/store"
	"github.com/blockberries/fundround/types"
)

// Day is one day in block-time seconds.
const Day = 86400

// GenesisTime is the block time a harness starts at.
const GenesisTime uint64 = 1_571_797_419

// ManualClock is a host clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

// NewManualClock creates a clock reading sec.
func NewManualClock(sec uint64) *ManualClock {
	return &ManualClock{now: sec}
}

// Now returns the current block time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.SecondsToTime(c.now)
}

// Seconds returns the current block time in seconds.
func (c *ManualClock) Seconds() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to sec.
func (c *ManualClock) Set(sec uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = sec
}

// Advance moves the clock forward by sec seconds.
func (c *ManualClock) Advance(sec uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += sec
}

// Harness provides a convenient test harness for exercising a round
// through a host with in-memory storage and a manual clock.
type Harness struct {
	t     *testing.T
	host  *host.Host
	db    *store.MemDB
	Clock *ManualClock
}

// NewHarness creates a test harness running round. The clock starts at
// GenesisTime. Extra host options are applied after the harness
// defaults.
func NewHarness(t *testing.T, round fundround.Round, opts ...host.Option) *Harness {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	h := &Harness{t: t, db: store.NewMemDB(), Clock: NewManualClock(GenesisTime)}
	opts = append([]host.Option{host.WithClock(h.Clock), host.WithLogger(log)}, opts...)
	hst, err := host.New(round, h.db, opts...)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	h.host = hst
	return h
}

// Host returns the underlying host for direct access.
func (h *Harness) Host() *host.Host {
	return h.host
}

// Store returns the committed store.
func (h *Harness) Store() *store.MemDB {
	return h.db
}

// Contract returns the account that holds the round's funds.
func (h *Harness) Contract() types.HumanAddr {
	return h.host.ContractAddress()
}

// Fund credits coins to addr.
func (h *Harness) Fund(addr types.HumanAddr, coins []types.Coin) {
	h.t.Helper()
	if err := h.host.Mint(addr, coins); err != nil {
		h.t.Fatalf("Fund %s failed: %v", addr, err)
	}
}

// Balance returns the committed balance of addr in denom.
func (h *Harness) Balance(addr types.HumanAddr, denom string) string {
	h.t.Helper()
	c, err := h.host.Balance(context.Background(), addr, denom)
	if err != nil {
		h.t.Fatalf("Balance failed: %v", err)
	}
	return c.Amount
}

// Instantiate creates the round with sender as owner.
func (h *Harness) Instantiate(sender types.HumanAddr, msg types.InitMsg) types.Result {
	h.t.Helper()
	res, err := h.host.Instantiate(context.Background(), types.InstantiateRequest{Sender: sender, Msg: msg})
	if err != nil {
		h.t.Fatalf("Instantiate failed: %v", err)
	}
	return res
}

// InstantiateDefault creates the round from DefaultInitMsg with
// DefaultOwner.
func (h *Harness) InstantiateDefault() types.Response {
	h.t.Helper()
	res := h.Instantiate(DefaultOwner, DefaultInitMsg(h.Clock.Seconds()))
	if !res.OK() {
		h.t.Fatalf("Instantiate rejected: code=%d info=%q", res.Code, res.Info)
	}
	return res.Response
}

// Execute runs one request and returns its result.
func (h *Harness) Execute(sender types.HumanAddr, funds []types.Coin, msg types.ExecuteMsg) types.Result {
	h.t.Helper()
	res, err := h.host.Execute(context.Background(), types.ExecuteRequest{Sender: sender, Funds: funds, Msg: msg})
	if err != nil {
		h.t.Fatalf("Execute (%s) failed: %v", msg.Kind, err)
	}
	return res
}

// MustExecute asserts that a request succeeds and returns its response.
func (h *Harness) MustExecute(sender types.HumanAddr, funds []types.Coin, msg types.ExecuteMsg) types.Response {
	h.t.Helper()
	res := h.Execute(sender, funds, msg)
	if !res.OK() {
		h.t.Fatalf("expected %s accepted, got code=%d info=%q", msg.Kind, res.Code, res.Info)
	}
	return res.Response
}

// MustFail asserts that a request is rejected with code and returns
// the rebuilt error.
func (h *Harness) MustFail(code uint32, sender types.HumanAddr, funds []types.Coin, msg types.ExecuteMsg) error {
	h.t.Helper()
	res := h.Execute(sender, funds, msg)
	if res.Code != code {
		h.t.Fatalf("expected %s rejected with code %d, got code=%d info=%q", msg.Kind, code, res.Code, res.Info)
	}
	return fundround.ErrorFromResult(res.Code, res.Info, res.Detail)
}

// Propose creates a proposal and returns its id.
func (h *Harness) Propose(sender types.HumanAddr, name string, recipient types.HumanAddr) uint32 {
	h.t.Helper()
	resp := h.MustExecute(sender, nil, types.CreateProposal(name, name+" description", "", recipient))
	if resp.ProposalID == nil {
		h.t.Fatal("create proposal returned no id")
	}
	return *resp.ProposalID
}

// Vote funds voter with amount and pledges it to proposal id.
func (h *Harness) Vote(voter types.HumanAddr, id uint32, amount types.Coin) {
	h.t.Helper()
	h.Fund(voter, []types.Coin{amount})
	h.MustExecute(voter, []types.Coin{amount}, types.CreateVote(id))
}

// Query reads round state.
func (h *Harness) Query(msg types.QueryMsg) types.QueryResult {
	h.t.Helper()
	res, err := h.host.Query(context.Background(), msg)
	if err != nil {
		h.t.Fatalf("Query (%s) failed: %v", msg.Kind, err)
	}
	return res
}

// MustQuery asserts that a query succeeds and returns its response.
func (h *Harness) MustQuery(msg types.QueryMsg) types.QueryResponse {
	h.t.Helper()
	res := h.Query(msg)
	if !res.OK() {
		h.t.Fatalf("expected %s query ok, got code=%d info=%q", msg.Kind, res.Code, res.Info)
	}
	return res.Response
}

// --- Helper Factories ---

// Default participants.
const (
	DefaultOwner types.HumanAddr = "owner"
)

// Proposers returns the default proposer whitelist.
func Proposers() []types.HumanAddr {
	return []types.HumanAddr{"proposer_0", "proposer_1", "proposer_2"}
}

// Voters returns the default voter whitelist.
func Voters() []types.HumanAddr {
	return []types.HumanAddr{"voter_0", "voter_1", "voter_2"}
}

// DefaultInitMsg returns a round whose proposal window opens at now
// and lasts a day, and whose voting window runs from day two to day
// five.
func DefaultInitMsg(now uint64) types.InitMsg {
	return types.InitMsg{
		Name:                "My Funding Round",
		ProposerWhitelist:   Proposers(),
		VoterWhitelist:      Voters(),
		ProposalPeriodStart: types.At(now),
		ProposalPeriodEnd:   types.At(now + Day),
		VotingPeriodStart:   types.At(now + 2*Day),
		VotingPeriodEnd:     types.At(now + 5*Day),
	}
}

// EmptyPeriodInitMsg returns a round with the default whitelists and
// no period bounds; the owner drives every transition.
func EmptyPeriodInitMsg() types.InitMsg {
	return types.InitMsg{
		Name:              "My Funding Round",
		ProposerWhitelist: Proposers(),
		VoterWhitelist:    Voters(),
	}
}
