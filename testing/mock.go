// Package roundtest provides test utilities for funding round
// development, including configurable mocks, a test harness, and a
// compliance suite for round implementations.
package roundtest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// Compile-time interface checks.
var (
	_ fundround.Round       = (*MockRound)(nil)
	_ fundround.BankQuerier = (*MockBank)(nil)
	_ fundround.Identity    = (*MockIdentity)(nil)
)

// MockRound is a configurable mock round for host testing. All methods
// are configurable via function fields. Unconfigured methods succeed
// with an empty response.
type MockRound struct {
	InstantiateFn func(context.Context, fundround.Deps, types.Env, types.MessageInfo, types.InitMsg) (types.Response, error)
	ExecuteFn     func(context.Context, fundround.Deps, types.Env, types.MessageInfo, types.ExecuteMsg) (types.Response, error)
	QueryFn       func(context.Context, fundround.Deps, types.Env, types.QueryMsg) (types.QueryResponse, error)

	// Call counters (atomic for concurrent access).
	InstantiateCalls atomic.Int64
	ExecuteCalls     atomic.Int64
	QueryCalls       atomic.Int64
}

func (m *MockRound) Instantiate(ctx context.Context, deps fundround.Deps, env types.Env, info types.MessageInfo, msg types.InitMsg) (types.Response, error) {
	m.InstantiateCalls.Add(1)
	if m.InstantiateFn != nil {
		return m.InstantiateFn(ctx, deps, env, info, msg)
	}
	return types.Response{}, nil
}

func (m *MockRound) Execute(ctx context.Context, deps fundround.Deps, env types.Env, info types.MessageInfo, msg types.ExecuteMsg) (types.Response, error) {
	m.ExecuteCalls.Add(1)
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, deps, env, info, msg)
	}
	return types.Response{}, nil
}

func (m *MockRound) Query(ctx context.Context, deps fundround.Deps, env types.Env, msg types.QueryMsg) (types.QueryResponse, error) {
	m.QueryCalls.Add(1)
	if m.QueryFn != nil {
		return m.QueryFn(ctx, deps, env, msg)
	}
	return types.QueryResponse{}, nil
}

// MockBank is an in-memory BankQuerier with settable balances.
type MockBank struct {
	mu       sync.Mutex
	balances map[types.HumanAddr]map[string]string

	// Err, when set, is returned by every query.
	Err error
}

// NewMockBank creates an empty bank.
func NewMockBank() *MockBank {
	return &MockBank{balances: make(map[types.HumanAddr]map[string]string)}
}

// Set replaces the balance of addr in c's denomination.
func (b *MockBank) Set(addr types.HumanAddr, c types.Coin) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[addr] == nil {
		b.balances[addr] = make(map[string]string)
	}
	b.balances[addr][c.Denom] = c.Amount
}

func (b *MockBank) Balance(_ context.Context, addr types.HumanAddr, denom string) (types.Coin, error) {
	if b.Err != nil {
		return types.Coin{}, b.Err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	amount, ok := b.balances[addr][denom]
	if !ok {
		amount = "0"
	}
	return types.Coin{Denom: denom, Amount: amount}, nil
}

func (b *MockBank) AllBalances(_ context.Context, addr types.HumanAddr) ([]types.Coin, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []types.Coin
	for denom, amount := range b.balances[addr] {
		c := types.Coin{Denom: denom, Amount: amount}
		if !c.IsZero() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Denom < out[j].Denom })
	return out, nil
}

// MockIdentity maps addresses to their own bytes unless overridden.
type MockIdentity struct {
	CanonicalizeFn func(types.HumanAddr) (types.CanonicalAddr, error)
	HumanizeFn     func(types.CanonicalAddr) (types.HumanAddr, error)
}

func (m *MockIdentity) Canonicalize(addr types.HumanAddr) (types.CanonicalAddr, error) {
	if m.CanonicalizeFn != nil {
		return m.CanonicalizeFn(addr)
	}
	return types.CanonicalAddr(addr), nil
}

func (m *MockIdentity) Humanize(addr types.CanonicalAddr) (types.HumanAddr, error) {
	if m.HumanizeFn != nil {
		return m.HumanizeFn(addr)
	}
	return types.HumanAddr(addr), nil
}
