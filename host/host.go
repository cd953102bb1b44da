package host

import (
	"context"
	"io"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/bank"
	"github.com/blockberries/fundround/identity"
	"github.com/blockberries/fundround/store"
	"github.com/blockberries/fundround/types"
)

// Key namespaces inside the committed store.
const (
	roundPrefix = "round/"
	bankPrefix  = "bank/"
)

var metaKey = []byte("host/meta")

// DefaultContractAddress is the account that holds the round's funds
// when none is configured.
const DefaultContractAddress types.HumanAddr = "fundround"

// meta is the host bookkeeping committed with every request. Its
// presence means the round has been instantiated.
type meta struct {
	Height uint64 `cramberry:"1"`
}

// Clock supplies block time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Host runs a round against committed storage. The round and the
// consumer interact exclusively through this host.
//
// Every mutating request runs on a cache over the committed store. The
// attached funds move into the contract account first, then the round
// runs, then the transfers it planned are executed. Only if all three
// succeed is the cache written back; otherwise nothing changes.
type Host struct {
	round    fundround.Round
	db       store.KV
	identity fundround.Identity
	contract types.HumanAddr
	clock    Clock
	log      logrus.FieldLogger
	metrics  *Metrics
	guard    *LifecycleGuard
	height   uint64
}

// Compile-time interface check.
var _ fundround.Connection = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithIdentity sets the address codec. The default is identity.Plain.
func WithIdentity(id fundround.Identity) Option {
	return func(h *Host) { h.identity = id }
}

// WithContractAddress sets the account holding the round's funds.
func WithContractAddress(addr types.HumanAddr) Option {
	return func(h *Host) { h.contract = addr }
}

// WithClock sets the block time source.
func WithClock(c Clock) Option {
	return func(h *Host) { h.clock = c }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Host) { h.log = log }
}

// WithMetrics sets the collectors. When unset the host keeps
// unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(h *Host) { h.metrics = m }
}

// New creates a host for round over db. If db already holds a round
// the host starts Ready at the committed height.
func New(round fundround.Round, db store.KV, opts ...Option) (*Host, error) {
	h := &Host{
		round:    round,
		db:       db,
		identity: identity.Plain{},
		contract: DefaultContractAddress,
		clock:    SystemClock{},
		log:      logrus.StandardLogger(),
		guard:    NewLifecycleGuard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewMetrics(nil)
	}

	m, ok, err := loadMeta(db)
	if err != nil {
		return nil, err
	}
	if ok {
		h.height = m.Height
		h.guard.Restore()
		h.log.WithField("height", m.Height).Info("restored round from store")
	}
	return h, nil
}

// ContractAddress returns the account holding the round's funds.
func (h *Host) ContractAddress() types.HumanAddr { return h.contract }

// Metrics returns the host's collectors.
func (h *Host) Metrics() *Metrics { return h.metrics }

// Height returns the height of the last committed request.
func (h *Host) Height() uint64 {
	var height uint64
	_ = h.guard.Read(func() error {
		height = h.height
		return nil
	})
	return height
}

// Instantiate creates the round. A second call reports ErrRoundExists.
func (h *Host) Instantiate(ctx context.Context, req types.InstantiateRequest) (types.Result, error) {
	if err := ctx.Err(); err != nil {
		return types.Result{}, err
	}
	if err := h.guard.AcquireInstantiate(); err != nil {
		return h.result("instantiate", 0, types.Response{}, err), nil
	}

	height := h.height + 1
	resp, err := h.apply(ctx, height, req.Sender, req.Funds, func(deps fundround.Deps, env types.Env, info types.MessageInfo) (types.Response, error) {
		return h.round.Instantiate(ctx, deps, env, info, req.Msg)
	})
	if err != nil {
		h.guard.FailInstantiate()
		return h.result("instantiate", h.height, types.Response{}, err), nil
	}
	h.height = height
	h.guard.CompleteInstantiate()
	return h.result("instantiate", height, resp, nil), nil
}

// Execute runs one mutating request. Round failures are reported in
// the result code and leave committed state untouched.
func (h *Host) Execute(ctx context.Context, req types.ExecuteRequest) (types.Result, error) {
	if err := ctx.Err(); err != nil {
		return types.Result{}, err
	}
	kind := req.Msg.Kind.String()
	if err := h.guard.AcquireExecute(); err != nil {
		return h.result(kind, 0, types.Response{}, err), nil
	}
	defer h.guard.CompleteExecute()

	height := h.height + 1
	resp, err := h.apply(ctx, height, req.Sender, req.Funds, func(deps fundround.Deps, env types.Env, info types.MessageInfo) (types.Response, error) {
		return h.round.Execute(ctx, deps, env, info, req.Msg)
	})
	if err != nil {
		return h.result(kind, h.height, types.Response{}, err), nil
	}
	h.height = height
	return h.result(kind, height, resp, nil), nil
}

// Query reads committed round state.
func (h *Host) Query(ctx context.Context, msg types.QueryMsg) (types.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return types.QueryResult{}, err
	}
	kind := "query_" + msg.Kind.String()
	if err := h.guard.AcquireQuery(); err != nil {
		code, detail := fundround.ResultCode(err)
		h.metrics.observe(kind, code, types.Response{})
		return types.QueryResult{Code: code, Info: err.Error(), Detail: detail}, nil
	}
	defer h.guard.ReleaseQuery()

	deps := h.deps(h.db)
	env := h.env(h.height)
	resp, err := h.round.Query(ctx, deps, env, msg)
	code, detail := fundround.ResultCode(err)
	h.metrics.observe(kind, code, types.Response{})
	if err != nil {
		h.log.WithError(err).WithField("kind", kind).Debug("query rejected")
		return types.QueryResult{Code: code, Info: err.Error(), Detail: detail, Height: h.height}, nil
	}
	return types.QueryResult{Height: h.height, Response: resp}, nil
}

// Balance reads a committed balance.
func (h *Host) Balance(ctx context.Context, addr types.HumanAddr, denom string) (types.Coin, error) {
	var c types.Coin
	err := h.guard.Read(func() error {
		var err error
		c, err = h.bank(h.db).Balance(ctx, addr, denom)
		return err
	})
	return c, err
}

// AllBalances reads every committed balance of addr.
func (h *Host) AllBalances(ctx context.Context, addr types.HumanAddr) ([]types.Coin, error) {
	var coins []types.Coin
	err := h.guard.Read(func() error {
		var err error
		coins, err = h.bank(h.db).AllBalances(ctx, addr)
		return err
	})
	return coins, err
}

// Mint credits coins to addr. It is how genesis balances and the
// matching pool are funded.
func (h *Host) Mint(addr types.HumanAddr, coins []types.Coin) error {
	return h.guard.Write(func() error {
		cache := store.NewCache(h.db)
		if err := h.bank(cache).Mint(addr, coins); err != nil {
			cache.Discard()
			return err
		}
		return cache.Write()
	})
}

// Close closes the underlying store if it can be closed.
func (h *Host) Close() error {
	if c, ok := h.db.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// apply runs fn against a cache of the committed store and commits the
// cache if the whole request succeeded.
func (h *Host) apply(ctx context.Context, height uint64, sender types.HumanAddr, funds []types.Coin, fn func(fundround.Deps, types.Env, types.MessageInfo) (types.Response, error)) (types.Response, error) {
	cache := store.NewCache(h.db)
	keeper := h.bank(cache)

	if len(funds) > 0 {
		if err := keeper.Send(sender, h.contract, funds); err != nil {
			cache.Discard()
			return types.Response{}, errors.Wrap(err, "attach funds")
		}
	}

	resp, err := fn(h.deps(cache), h.env(height), types.MessageInfo{Sender: sender, Funds: funds})
	if err != nil {
		cache.Discard()
		return types.Response{}, err
	}

	for _, msg := range resp.Messages {
		if err := keeper.Send(h.contract, msg.ToAddress, msg.Amount); err != nil {
			cache.Discard()
			return types.Response{}, errors.Wrapf(err, "transfer to %s", msg.ToAddress)
		}
	}

	if err := saveMeta(cache, meta{Height: height}); err != nil {
		cache.Discard()
		return types.Response{}, err
	}
	if err := ctx.Err(); err != nil {
		cache.Discard()
		return types.Response{}, err
	}
	if err := cache.Write(); err != nil {
		return types.Response{}, errors.Wrap(err, "commit")
	}
	return resp, nil
}

func (h *Host) deps(kv store.KV) fundround.Deps {
	return fundround.Deps{
		Store:    store.NewPrefixed(kv, roundPrefix),
		Identity: h.identity,
		Bank:     h.bank(kv),
	}
}

func (h *Host) bank(kv store.KV) *bank.Keeper {
	return bank.NewKeeper(store.NewPrefixed(kv, bankPrefix))
}

func (h *Host) env(height uint64) types.Env {
	return types.Env{
		Time:     types.TimeToSeconds(h.clock.Now()),
		Height:   height,
		Contract: h.contract,
	}
}

func (h *Host) result(kind string, height uint64, resp types.Response, err error) types.Result {
	code, detail := fundround.ResultCode(err)
	h.metrics.observe(kind, code, resp)
	if err != nil {
		entry := h.log.WithError(err).WithFields(logrus.Fields{"kind": kind, "code": code})
		if code == fundround.CodeInternal {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}
		return types.Result{Code: code, Info: err.Error(), Detail: detail, Height: height}
	}
	return types.Result{Height: height, Response: resp}
}

func loadMeta(kv store.KV) (meta, bool, error) {
	raw, err := kv.Get(metaKey)
	if err != nil {
		return meta{}, false, errors.Wrap(err, "read host meta")
	}
	if raw == nil {
		return meta{}, false, nil
	}
	var m meta
	if err := cramberry.Unmarshal(raw, &m); err != nil {
		return meta{}, false, errors.Wrap(err, "decode host meta")
	}
	return m, true, nil
}

func saveMeta(kv store.KV, m meta) error {
	raw, err := cramberry.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encode host meta")
	}
	return kv.Set(metaKey, raw)
}
