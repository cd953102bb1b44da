// Package local provides an in-process round connection.
//
// For consumers compiled into the same binary as the round, this
// adapter runs the round on a host backed by in-memory storage, with
// lifecycle enforcement and atomic commits and with no serialization
// overhead.
package local

import (
	"context"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/host"
	"github.com/blockberries/fundround/store"
	"github.com/blockberries/fundround/types"
)

// Compile-time interface check.
var _ fundround.Connection = (*Connection)(nil)

// Connection wraps a round in an in-memory host.
type Connection struct {
	host *host.Host
}

// NewConnection creates an in-process connection running round on a
// fresh in-memory store.
func NewConnection(round fundround.Round, opts ...host.Option) (*Connection, error) {
	h, err := host.New(round, store.NewMemDB(), opts...)
	if err != nil {
		return nil, err
	}
	return &Connection{host: h}, nil
}

func (c *Connection) Instantiate(ctx context.Context, req types.InstantiateRequest) (types.Result, error) {
	return c.host.Instantiate(ctx, req)
}

func (c *Connection) Execute(ctx context.Context, req types.ExecuteRequest) (types.Result, error) {
	return c.host.Execute(ctx, req)
}

func (c *Connection) Query(ctx context.Context, msg types.QueryMsg) (types.QueryResult, error) {
	return c.host.Query(ctx, msg)
}

func (c *Connection) Balance(ctx context.Context, addr types.HumanAddr, denom string) (types.Coin, error) {
	return c.host.Balance(ctx, addr, denom)
}

// Fund credits coins to addr. Use it to seed voter balances and the
// matching pool before the round starts.
func (c *Connection) Fund(addr types.HumanAddr, coins []types.Coin) error {
	return c.host.Mint(addr, coins)
}

func (c *Connection) Close() error { return c.host.Close() }

// Host returns the underlying host for advanced use cases.
func (c *Connection) Host() *host.Host {
	return c.host
}
