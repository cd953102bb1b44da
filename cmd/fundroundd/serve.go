package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/config"
	"github.com/blockberries/fundround/contract"
	fundgrpc "github.com/blockberries/fundround/grpc"
	"github.com/blockberries/fundround/host"
	"github.com/blockberries/fundround/httpapi"
	"github.com/blockberries/fundround/identity"
	"github.com/blockberries/fundround/store"
	"github.com/blockberries/fundround/types"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Runs the round host with its gRPC and HTTP endpoints",
		RunE:  serveFunc,
	}
	AddServeFlags(c.Flags())
	return c
}

func serveFunc(c *cobra.Command, _ []string) error {
	path, err := c.Flags().GetString(ConfigKey)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, logrus.StandardLogger())
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	if out, err := cfg.YAML(); err == nil {
		log.Infof("loaded configuration:\n%s", out)
	}

	h, err := buildHost(cfg, log)
	if err != nil {
		return err
	}
	defer h.Close()

	if err := mintGenesis(c.Context(), h, cfg.Genesis, log); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.GRPC.Listen)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPC.Listen)
	}
	gs := fundgrpc.NewServer()
	fundgrpc.NewGRPCServer(h, log).Register(gs)
	grpc_prometheus.Register(gs)

	gateway := httpapi.NewServer(h, log, prometheus.DefaultGatherer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 2)
	go func() {
		log.WithField("addr", cfg.GRPC.Listen).Info("grpc server listening")
		errc <- gs.Serve(lis)
	}()
	go func() {
		errc <- gateway.Start(cfg.HTTP.Listen)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errc:
		log.WithError(err).Error("server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	gs.GracefulStop()
	if serr := gateway.Shutdown(shutdownCtx); serr != nil {
		log.WithError(serr).Warn("http gateway shutdown")
	}
	return err
}

func buildHost(cfg *config.Configuration, log logrus.FieldLogger) (*host.Host, error) {
	var db store.KV
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := store.OpenPostgres(cfg.Store.DSN, log)
		if err != nil {
			return nil, err
		}
		db = pg
	default:
		db = store.NewMemDB()
	}

	var id fundround.Identity = identity.Plain{}
	if cfg.Identity.Bech32Prefix != "" {
		b, err := identity.NewBech32(cfg.Identity.Bech32Prefix, cfg.Identity.CacheSize)
		if err != nil {
			return nil, err
		}
		id = b
	}

	opts := []contract.Option{
		contract.WithLogger(log),
		contract.WithTransferCost(cfg.Round.TransferCost),
	}
	if cfg.Round.BudgetDenom != "" {
		opts = append(opts, contract.WithBudgetDenom(cfg.Round.BudgetDenom))
	}

	h, err := host.New(contract.New(opts...), db,
		host.WithIdentity(id),
		host.WithContractAddress(types.HumanAddr(cfg.Round.ContractAddress)),
		host.WithLogger(log),
		host.WithMetrics(host.NewMetrics(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		if pg, ok := db.(*store.PGStore); ok {
			_ = pg.Close()
		}
		return nil, err
	}
	return h, nil
}

// mintGenesis credits each genesis balance whose account holds none of
// that denomination yet, so restarts on a durable store do not mint
// twice.
func mintGenesis(ctx context.Context, h *host.Host, genesis []config.Balance, log logrus.FieldLogger) error {
	for _, b := range genesis {
		addr := types.HumanAddr(b.Address)
		have, err := h.Balance(ctx, addr, b.Denom)
		if err != nil {
			return err
		}
		if !have.IsZero() {
			continue
		}
		if err := h.Mint(addr, []types.Coin{b.Coin()}); err != nil {
			return errors.Wrapf(err, "mint genesis balance for %s", b.Address)
		}
		log.WithFields(logrus.Fields{"address": b.Address, "amount": b.Coin().String()}).Info("genesis balance minted")
	}
	return nil
}
