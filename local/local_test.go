package local

import (
	"context"
	"testing"
	"time"

	"github.com/blockberries/fundround/contract"
	"github.com/blockberries/fundround/host"
	"github.com/blockberries/fundround/types"
)

type clock struct{ now *uint64 }

func (c clock) Now() time.Time { return types.SecondsToTime(*c.now) }

func TestLocalConnection_FullCycle(t *testing.T) {
	now := uint64(100)
	conn, err := NewConnection(contract.New(contract.WithTransferCost(0)), host.WithClock(clock{now: &now}))
	if err != nil {
		t.Fatalf("new connection: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()

	if err := conn.Fund(conn.Host().ContractAddress(), types.Coins(10, "ushell")); err != nil {
		t.Fatalf("fund pool: %v", err)
	}
	if err := conn.Fund("voter", types.Coins(4, "ushell")); err != nil {
		t.Fatalf("fund voter: %v", err)
	}

	res, err := conn.Instantiate(ctx, types.InstantiateRequest{Sender: "owner", Msg: types.InitMsg{
		Name:                "local",
		ProposalPeriodStart: types.At(100),
		ProposalPeriodEnd:   types.At(200),
		VotingPeriodStart:   types.At(300),
		VotingPeriodEnd:     types.At(400),
	}})
	if err != nil || !res.OK() {
		t.Fatalf("instantiate failed: %v %s", err, res.Info)
	}

	res, err = conn.Execute(ctx, types.ExecuteRequest{
		Sender: "anyone",
		Msg:    types.CreateProposal("p", "d", "", "recipient"),
	})
	if err != nil || !res.OK() {
		t.Fatalf("proposal failed: %v %s", err, res.Info)
	}

	now = 300
	res, err = conn.Execute(ctx, types.ExecuteRequest{
		Sender: "voter",
		Funds:  types.Coins(4, "ushell"),
		Msg:    types.CreateVote(0),
	})
	if err != nil || !res.OK() {
		t.Fatalf("vote failed: %v %s", err, res.Info)
	}

	// A single voter has no subsidy demand, so the pledge is paid out
	// unmatched.
	now = 401
	res, err = conn.Execute(ctx, types.ExecuteRequest{Sender: "owner", Msg: types.DistributeFunds()})
	if err != nil || !res.OK() {
		t.Fatalf("distribute failed: %v %s", err, res.Info)
	}
	c, err := conn.Balance(ctx, "recipient", "ushell")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if c.Amount != "4" {
		t.Errorf("expected recipient balance 4, got %s", c.Amount)
	}
}

func TestLocalConnection_ConcurrentQueries(t *testing.T) {
	now := uint64(100)
	conn, err := NewConnection(contract.New(), host.WithClock(clock{now: &now}))
	if err != nil {
		t.Fatalf("new connection: %v", err)
	}
	res, err := conn.Instantiate(context.Background(), types.InstantiateRequest{Sender: "owner"})
	if err != nil || !res.OK() {
		t.Fatalf("instantiate failed: %v %s", err, res.Info)
	}

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			qr, err := conn.Query(context.Background(), types.GetState())
			if err != nil {
				t.Errorf("query error: %v", err)
				return
			}
			if !qr.OK() {
				t.Errorf("query failed: %s", qr.Info)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}
}
