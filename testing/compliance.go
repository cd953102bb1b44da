package roundtest

import (
	"bytes"
	"sync"
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/store"
	"github.com/blockberries/fundround/types"
)

// RunComplianceSuite runs a standard compliance test suite against a
// round implementation to verify its gating, ledger and distribution
// behavior through a host.
//
// The factory function should return a fresh round for each test.
// Payouts are checked against the transfers the round itself plans, so
// any transfer cost is accepted.
func RunComplianceSuite(t *testing.T, factory func() fundround.Round) {
	t.Helper()

	t.Run("instantiate_query_state", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()

		st := h.MustQuery(types.GetState()).State
		if st == nil {
			t.Fatal("state query returned no state")
		}
		if st.Name != "My Funding Round" || st.Owner != DefaultOwner {
			t.Errorf("unexpected state %+v", st)
		}
		if len(st.ProposerWhitelist) != 3 || st.ProposerWhitelist[0] != "proposer_0" {
			t.Errorf("unexpected proposer whitelist %v", st.ProposerWhitelist)
		}
		if len(st.VoterWhitelist) != 3 || st.VoterWhitelist[0] != "voter_0" {
			t.Errorf("unexpected voter whitelist %v", st.VoterWhitelist)
		}
	})

	t.Run("double_instantiate", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()
		res := h.Instantiate(DefaultOwner, DefaultInitMsg(h.Clock.Seconds()))
		if res.Code != fundround.CodeRoundExists {
			t.Fatalf("expected code %d, got %d", fundround.CodeRoundExists, res.Code)
		}
	})

	t.Run("proposal_ids_sequential", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()
		for want := uint32(0); want < 3; want++ {
			if id := h.Propose("proposer_0", "p", "recipient"); id != want {
				t.Fatalf("expected id %d, got %d", want, id)
			}
		}
		if n := len(h.MustQuery(types.ProposalList()).Proposals); n != 3 {
			t.Fatalf("expected 3 proposals, got %d", n)
		}
	})

	t.Run("proposal_gating", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()

		h.MustFail(fundround.CodeUnauthorized, "stranger", nil,
			types.CreateProposal("p", "", "", "recipient"))

		h.Clock.Advance(Day + 1)
		h.MustFail(fundround.CodeInvalidPeriod, "proposer_0", nil,
			types.CreateProposal("p", "", "", "recipient"))

		if n := len(h.MustQuery(types.ProposalList()).Proposals); n != 0 {
			t.Fatalf("rejected proposals were stored: %d", n)
		}
	})

	t.Run("vote_gating", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()
		id := h.Propose("proposer_0", "p", "recipient")
		pledge := types.Coins(10, "uearth")
		h.Fund("voter_0", pledge)
		h.Fund("stranger", pledge)

		h.MustFail(fundround.CodeInvalidPeriod, "voter_0", pledge, types.CreateVote(id))

		h.Clock.Advance(2 * Day)
		h.MustFail(fundround.CodeUnauthorized, "stranger", pledge, types.CreateVote(id))
		h.MustFail(fundround.CodeInvalidProposal, "voter_0", pledge, types.CreateVote(id+1))
		h.MustFail(fundround.CodeNoFunds, "voter_0", nil, types.CreateVote(id))

		h.MustExecute("voter_0", pledge, types.CreateVote(id))
		ps := h.MustQuery(types.ProposalState(id)).ProposalState
		if ps == nil || len(ps.Votes) != 1 || ps.Votes[0].Voter != "voter_0" {
			t.Fatalf("unexpected proposal state %+v", ps)
		}
	})

	t.Run("owner_only_transitions", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.Instantiate(DefaultOwner, EmptyPeriodInitMsg())

		h.MustFail(fundround.CodeUnauthorized, "proposer_0", nil,
			types.PeriodTransition(types.ExecuteStartProposalPeriod, nil))
		h.MustExecute(DefaultOwner, nil, types.PeriodTransition(types.ExecuteStartProposalPeriod, nil))
		h.MustFail(fundround.CodeInvalidPeriod, DefaultOwner, nil,
			types.PeriodTransition(types.ExecuteStartProposalPeriod, nil))
	})

	t.Run("rejected_request_leaves_store", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()
		h.Fund("voter_0", types.Coins(10, "uearth"))
		before := dump(t, h.Store())

		h.MustFail(fundround.CodeInvalidPeriod, "voter_0", types.Coins(10, "uearth"), types.CreateVote(0))
		h.MustFail(fundround.CodeUnauthorized, "stranger", nil, types.DistributeFunds())

		if !equalDumps(before, dump(t, h.Store())) {
			t.Fatal("rejected requests changed the store")
		}
	})

	t.Run("check_distributions_read_only", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()
		h.Fund(h.Contract(), types.Coins(50, "uearth"))
		h.Propose("proposer_0", "a", "recipient_a")
		h.Propose("proposer_1", "b", "recipient_b")

		h.MustFail(fundround.CodeInvalidPeriod, "anyone", nil, types.CheckDistributions())

		h.Clock.Advance(2 * Day)
		h.Vote("voter_0", 0, types.NewCoinUint64("uearth", 1))
		h.Vote("voter_1", 0, types.NewCoinUint64("uearth", 4))

		before := dump(t, h.Store())
		first := h.MustExecute("anyone", nil, types.CheckDistributions())
		second := h.MustExecute("anyone", nil, types.CheckDistributions())
		if len(first.Distributions) != 2 {
			t.Fatalf("expected a distribution per proposal, got %d", len(first.Distributions))
		}
		if len(first.Messages) != 0 {
			t.Fatal("check distributions must not plan transfers")
		}
		firstBytes := encode(t, types.Response{Distributions: first.Distributions})
		secondBytes := encode(t, types.Response{Distributions: second.Distributions})
		if !bytes.Equal(firstBytes, secondBytes) {
			t.Error("distributions differ between calls")
		}
		after := dump(t, h.Store())
		delete(before, "host/meta")
		delete(after, "host/meta")
		if !equalDumps(before, after) {
			t.Fatal("check distributions changed round state")
		}
	})

	t.Run("distribute_funds_pays_recipients", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()
		h.Fund(h.Contract(), types.Coins(10_000, "uearth"))
		h.Propose("proposer_0", "a", "recipient_a")
		h.Propose("proposer_1", "b", "recipient_b")

		h.Clock.Advance(2 * Day)
		h.Vote("voter_0", 0, types.NewCoinUint64("uearth", 1000))
		h.Vote("voter_1", 0, types.NewCoinUint64("uearth", 9000))
		h.Vote("voter_2", 1, types.NewCoinUint64("uearth", 4000))
		h.Vote("voter_0", 1, types.NewCoinUint64("uearth", 16000))

		h.MustFail(fundround.CodeInvalidPeriod, DefaultOwner, nil, types.DistributeFunds())
		h.Clock.Advance(3*Day + 1)
		h.MustFail(fundround.CodeUnauthorized, "anyone", nil, types.DistributeFunds())

		resp := h.MustExecute(DefaultOwner, nil, types.DistributeFunds())
		if len(resp.Messages) != 2 {
			t.Fatalf("expected a transfer per proposal, got %d", len(resp.Messages))
		}
		var paid uint64
		for _, m := range resp.Messages {
			got := h.Balance(m.ToAddress, m.Amount[0].Denom)
			if got != m.Amount[0].Amount {
				t.Errorf("%s: expected balance %s, got %s", m.ToAddress, m.Amount[0].Amount, got)
			}
			paid += m.Amount[0].Uint64()
		}
		if paid > 40_000 {
			t.Errorf("paid %d, more than the pool and pledges hold", paid)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		run := func() map[string]string {
			h := NewHarness(t, factory())
			h.InstantiateDefault()
			h.Propose("proposer_0", "a", "recipient_a")
			h.Clock.Advance(2 * Day)
			h.Vote("voter_0", 0, types.NewCoinUint64("uearth", 7))
			return dump(t, h.Store())
		}
		if !equalDumps(run(), run()) {
			t.Fatal("same requests produced different stores")
		}
	})

	t.Run("concurrent_queries", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.InstantiateDefault()
		h.Propose("proposer_0", "a", "recipient_a")

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := h.Query(types.ProposalList())
				if !res.OK() || len(res.Response.Proposals) != 1 {
					t.Errorf("concurrent query: code=%d proposals=%d", res.Code, len(res.Response.Proposals))
				}
			}()
		}
		wg.Wait()
	})
}

func dump(t *testing.T, db *store.MemDB) map[string]string {
	t.Helper()
	out := make(map[string]string, db.Len())
	if err := db.Iterate(nil, func(k, v []byte) bool {
		out[string(k)] = string(v)
		return true
	}); err != nil {
		t.Fatalf("iterate store: %v", err)
	}
	return out
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func equalDumps(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || v != w {
			return false
		}
	}
	return true
}
