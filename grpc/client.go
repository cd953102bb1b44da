package fundgrpc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// Compile-time interface check.
var _ fundround.Connection = (*Client)(nil)

// Client implements fundround.Connection for a remote host over gRPC
// using cramberry serialization. No protobuf types or conversion layer
// required.
type Client struct {
	cc *grpc.ClientConn
}

// Dial connects to a remote round host.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "fundround client: dial %s", addr)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

func (c *Client) Instantiate(ctx context.Context, req types.InstantiateRequest) (types.Result, error) {
	resp := new(types.Result)
	if err := c.cc.Invoke(ctx, fullMethod("Instantiate"), &req, resp); err != nil {
		return types.Result{}, err
	}
	return *resp, nil
}

func (c *Client) Execute(ctx context.Context, req types.ExecuteRequest) (types.Result, error) {
	resp := new(types.Result)
	if err := c.cc.Invoke(ctx, fullMethod("Execute"), &req, resp); err != nil {
		return types.Result{}, err
	}
	return *resp, nil
}

func (c *Client) Query(ctx context.Context, msg types.QueryMsg) (types.QueryResult, error) {
	resp := new(types.QueryResult)
	if err := c.cc.Invoke(ctx, fullMethod("Query"), &msg, resp); err != nil {
		return types.QueryResult{}, err
	}
	return *resp, nil
}

func (c *Client) Balance(ctx context.Context, addr types.HumanAddr, denom string) (types.Coin, error) {
	req := &types.BalanceRequest{Address: addr, Denom: denom}
	resp := new(types.Coin)
	if err := c.cc.Invoke(ctx, fullMethod("Balance"), req, resp); err != nil {
		return types.Coin{}, err
	}
	return *resp, nil
}
