package fundgrpc

import (
	"context"
	"net"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// Compile-time interface check.
var _ RoundServiceServer = (*GRPCServer)(nil)

// GRPCServer exposes a round host over gRPC. No type conversion is
// needed; request and result types are serialized directly via
// cramberry.
type GRPCServer struct {
	conn fundround.Connection
	log  logrus.FieldLogger
}

// NewGRPCServer creates a gRPC service backed by conn, usually a
// *host.Host.
func NewGRPCServer(conn fundround.Connection, log logrus.FieldLogger) *GRPCServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GRPCServer{conn: conn, log: log}
}

// NewServer creates a grpc.Server with prometheus interceptors
// installed. Call grpc_prometheus.Register after registering services
// to initialize per-method metrics.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
		grpc.ChainStreamInterceptor(grpc_prometheus.StreamServerInterceptor),
	)
	return grpc.NewServer(opts...)
}

// Register adds the round service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterRoundServiceServer(gs, s)
}

// Serve starts an instrumented gRPC server on the given listener and
// blocks until it stops.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := NewServer(opts...)
	s.Register(gs)
	grpc_prometheus.Register(gs)
	s.log.WithField("addr", lis.Addr().String()).Info("grpc server listening")
	return gs.Serve(lis)
}

func (s *GRPCServer) Instantiate(ctx context.Context, req *types.InstantiateRequest) (*types.Result, error) {
	res, err := s.conn.Instantiate(ctx, *req)
	if err != nil {
		return nil, s.transportError("Instantiate", err)
	}
	return &res, nil
}

func (s *GRPCServer) Execute(ctx context.Context, req *types.ExecuteRequest) (*types.Result, error) {
	res, err := s.conn.Execute(ctx, *req)
	if err != nil {
		return nil, s.transportError("Execute", err)
	}
	return &res, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *types.QueryMsg) (*types.QueryResult, error) {
	res, err := s.conn.Query(ctx, *req)
	if err != nil {
		return nil, s.transportError("Query", err)
	}
	return &res, nil
}

func (s *GRPCServer) Balance(ctx context.Context, req *types.BalanceRequest) (*types.Coin, error) {
	c, err := s.conn.Balance(ctx, req.Address, req.Denom)
	if err != nil {
		return nil, s.transportError("Balance", err)
	}
	return &c, nil
}

// transportError maps a host error to a gRPC status. Round failures
// never get here; they travel in the result code.
func (s *GRPCServer) transportError(method string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	s.log.WithError(err).WithField("method", method).Error("grpc call failed")
	return status.Error(codes.Internal, err.Error())
}
