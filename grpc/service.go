package fundgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/fundround/types"
)

const serviceName = "fundround.v1.RoundService"

// RoundServiceServer is the server-side interface for the round gRPC
// service.
type RoundServiceServer interface {
	Instantiate(context.Context, *types.InstantiateRequest) (*types.Result, error)
	Execute(context.Context, *types.ExecuteRequest) (*types.Result, error)
	Query(context.Context, *types.QueryMsg) (*types.QueryResult, error)
	Balance(context.Context, *types.BalanceRequest) (*types.Coin, error)
}

// RegisterRoundServiceServer registers the RoundServiceServer on a gRPC
// server.
func RegisterRoundServiceServer(s *grpc.Server, srv RoundServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// --- Handler functions ---

func handlerInstantiate(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.InstantiateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoundServiceServer).Instantiate(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Instantiate")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoundServiceServer).Instantiate(ctx, req.(*types.InstantiateRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func handlerExecute(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.ExecuteRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoundServiceServer).Execute(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Execute")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoundServiceServer).Execute(ctx, req.(*types.ExecuteRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func handlerQuery(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.QueryMsg)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoundServiceServer).Query(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Query")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoundServiceServer).Query(ctx, req.(*types.QueryMsg))
	}
	return interceptor(ctx, req, info, handler)
}

func handlerBalance(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.BalanceRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoundServiceServer).Balance(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Balance")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RoundServiceServer).Balance(ctx, req.(*types.BalanceRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor for the round.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RoundServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Instantiate", Handler: handlerInstantiate},
		{MethodName: "Execute", Handler: handlerExecute},
		{MethodName: "Query", Handler: handlerQuery},
		{MethodName: "Balance", Handler: handlerBalance},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fundround/v1/service.cram",
}
