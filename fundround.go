// Package fundround defines the boundary of a quadratic-funding round:
// the round itself and the host capabilities it depends on.
//
// The round is a deterministic state machine. Every request loads the
// single persisted round state, runs one operation against it and
// either persists the result or fails without writing anything.
package fundround

import (
	"context"

	"github.com/blockberries/fundround/types"
)

// Deps bundles the host capabilities a round works against. The host
// passes a fresh Deps to every call so that it can stage writes and
// discard them when the call fails.
type Deps struct {
	Store    Store
	Identity Identity
	Bank     BankQuerier
}

// Round is the interface a funding round implementation exposes to its
// host.
//
// The host guarantees the following call order:
//  1. Instantiate is called exactly once, before anything else.
//  2. Execute calls are serialized; no two run at the same time.
//  3. Query may be called at any time after Instantiate and only ever
//     sees committed state.
type Round interface {
	// Instantiate creates the round state. The sender of info becomes
	// the round owner.
	//
	// Whitelist addresses that cannot be canonicalized are dropped and
	// reported in the returned response's events.
	Instantiate(ctx context.Context, deps Deps, env types.Env, info types.MessageInfo, msg types.InitMsg) (types.Response, error)

	// Execute runs one mutating operation.
	//
	// On error the store MUST be left untouched: every check runs
	// before the first write. Transfer instructions in the returned
	// response are executed by the host, not by the round.
	Execute(ctx context.Context, deps Deps, env types.Env, info types.MessageInfo, msg types.ExecuteMsg) (types.Response, error)

	// Query reads round state. It MUST NOT write to the store.
	Query(ctx context.Context, deps Deps, env types.Env, msg types.QueryMsg) (types.QueryResponse, error)
}

// Identity maps between the display form of an account address and its
// canonical byte form.
type Identity interface {
	// Canonicalize converts a display address into canonical bytes.
	Canonicalize(addr types.HumanAddr) (types.CanonicalAddr, error)

	// Humanize converts canonical bytes back into a display address.
	Humanize(addr types.CanonicalAddr) (types.HumanAddr, error)
}

// Store is the key-value persistence capability. Get returns a nil
// slice and no error when the key is absent.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// BankQuerier reads account balances.
type BankQuerier interface {
	// Balance returns the balance of addr in denom. A missing balance
	// is a zero coin, not an error.
	Balance(ctx context.Context, addr types.HumanAddr, denom string) (types.Coin, error)

	// AllBalances returns every non-zero balance of addr, ordered by
	// denomination.
	AllBalances(ctx context.Context, addr types.HumanAddr) ([]types.Coin, error)
}

// Connection represents a transport-agnostic connection to a round
// host. Both the gRPC client and the in-process adapter implement this.
type Connection interface {
	// Instantiate creates the round on the host.
	Instantiate(ctx context.Context, req types.InstantiateRequest) (types.Result, error)

	// Execute submits a mutating request. Round-level failures are
	// reported in the Result code, not as an error.
	Execute(ctx context.Context, req types.ExecuteRequest) (types.Result, error)

	// Query reads committed round state.
	Query(ctx context.Context, msg types.QueryMsg) (types.QueryResult, error)

	// Balance reads an account balance held by the host bank.
	Balance(ctx context.Context, addr types.HumanAddr, denom string) (types.Coin, error)

	// Close terminates the connection.
	Close() error
}
