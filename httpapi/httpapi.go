// Package httpapi serves a read-only JSON view of a round over HTTP.
package httpapi

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code   uint32 `json:"code"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Server is the HTTP gateway. Every route is GET-only and open to any
// origin.
type Server struct {
	conn fundround.Connection
	log  logrus.FieldLogger
	echo *echo.Echo
	http *http.Server
}

// NewServer creates a gateway reading through conn. Metrics from
// gatherer are exposed at /metrics; a nil gatherer disables the route.
func NewServer(conn fundround.Connection, log logrus.FieldLogger, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{conn: conn, log: log, echo: e}
	s.http = &http.Server{Handler: cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	}).Handler(e)}
	e.GET("/state", s.GetState)
	e.GET("/proposals", s.ListProposals)
	e.GET("/proposals/:id", s.GetProposal)
	e.GET("/balances/:addr", s.GetBalance)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

// Handler returns the router wrapped in the CORS policy.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.log.WithField("addr", lis.Addr().String()).Info("http gateway listening")
	if err := s.http.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) GetState(ctx echo.Context) error {
	res, err := s.conn.Query(ctx.Request().Context(), types.GetState())
	if err != nil {
		return s.transportError(ctx, err)
	}
	if !res.OK() {
		return resultError(ctx, res.Code, res.Info, res.Detail)
	}
	return ctx.JSON(http.StatusOK, res.Response.State)
}

func (s *Server) ListProposals(ctx echo.Context) error {
	res, err := s.conn.Query(ctx.Request().Context(), types.ProposalList())
	if err != nil {
		return s.transportError(ctx, err)
	}
	if !res.OK() {
		return resultError(ctx, res.Code, res.Info, res.Detail)
	}
	proposals := res.Response.Proposals
	if proposals == nil {
		proposals = []types.ProposalInfo{}
	}
	return ctx.JSON(http.StatusOK, proposals)
}

func (s *Server) GetProposal(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:  fundround.CodeInternal,
			Error: "`id` should be a proposal number",
		})
	}
	res, err := s.conn.Query(ctx.Request().Context(), types.ProposalState(uint32(id)))
	if err != nil {
		return s.transportError(ctx, err)
	}
	if !res.OK() {
		return resultError(ctx, res.Code, res.Info, res.Detail)
	}
	return ctx.JSON(http.StatusOK, res.Response.ProposalState)
}

func (s *Server) GetBalance(ctx echo.Context) error {
	denom := ctx.QueryParam("denom")
	if denom == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:  fundround.CodeInternal,
			Error: "`denom` query parameter is required",
		})
	}
	coin, err := s.conn.Balance(ctx.Request().Context(), types.HumanAddr(ctx.Param("addr")), denom)
	if err != nil {
		return s.transportError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, coin)
}

func (s *Server) transportError(ctx echo.Context, err error) error {
	s.log.WithError(err).WithField("path", ctx.Path()).Error("gateway request failed")
	code, detail := fundround.ResultCode(err)
	return resultError(ctx, code, err.Error(), detail)
}

func resultError(ctx echo.Context, code uint32, info, detail string) error {
	return ctx.JSON(StatusFor(code), ErrorResponse{Code: code, Error: info, Detail: detail})
}

// StatusFor maps a result code to an HTTP status.
func StatusFor(code uint32) int {
	switch code {
	case fundround.CodeOK:
		return http.StatusOK
	case fundround.CodeUnauthorized:
		return http.StatusForbidden
	case fundround.CodeInvalidPeriod, fundround.CodeRoundExists:
		return http.StatusConflict
	case fundround.CodeInvalidProposal, fundround.CodeRoundNotFound:
		return http.StatusNotFound
	case fundround.CodeNoFunds, fundround.CodeInsufficientFunds, fundround.CodeOverflow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
