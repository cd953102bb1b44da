package bank

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/store"
	"github.com/blockberries/fundround/types"
)

func TestKeeper_MintAndBalance(t *testing.T) {
	ctx := context.Background()
	k := NewKeeper(store.NewMemDB())
	require.NoError(t, k.Mint("alice", []types.Coin{
		types.NewCoinUint64("uearth", 100),
		types.NewCoinUint64("ushell", 7),
	}))

	c, err := k.Balance(ctx, "alice", "uearth")
	require.NoError(t, err)
	assert.Equal(t, "100", c.Amount)

	c, err = k.Balance(ctx, "bob", "uearth")
	require.NoError(t, err)
	assert.True(t, c.IsZero())

	all, err := k.AllBalances(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []types.Coin{
		types.NewCoinUint64("uearth", 100),
		types.NewCoinUint64("ushell", 7),
	}, all)
}

func TestKeeper_AccountsDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	k := NewKeeper(store.NewMemDB())
	require.NoError(t, k.Mint("ali", types.Coins(1, "uearth")))
	require.NoError(t, k.Mint("alice", types.Coins(2, "uearth")))

	all, err := k.AllBalances(ctx, "ali")
	require.NoError(t, err)
	assert.Equal(t, types.Coins(1, "uearth"), all)
}

func TestKeeper_Send(t *testing.T) {
	ctx := context.Background()
	k := NewKeeper(store.NewMemDB())
	require.NoError(t, k.Mint("alice", types.Coins(100, "uearth")))

	require.NoError(t, k.Send("alice", "bob", types.Coins(100, "uearth")))

	all, err := k.AllBalances(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, all)

	c, err := k.Balance(ctx, "bob", "uearth")
	require.NoError(t, err)
	assert.Equal(t, "100", c.Amount)
}

func TestKeeper_SendInsufficient(t *testing.T) {
	ctx := context.Background()
	k := NewKeeper(store.NewMemDB())
	require.NoError(t, k.Mint("alice", types.Coins(10, "uearth")))

	// Two coins of the same denom are checked against the total.
	err := k.Send("alice", "bob", []types.Coin{
		types.NewCoinUint64("uearth", 6),
		types.NewCoinUint64("uearth", 6),
	})
	assert.True(t, errors.Is(err, fundround.ErrInsufficientFunds), "got %v", err)

	c, err := k.Balance(ctx, "alice", "uearth")
	require.NoError(t, err)
	assert.Equal(t, "10", c.Amount, "failed send must not move funds")
}

func TestKeeper_CachedSendIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemDB()
	require.NoError(t, NewKeeper(db).Mint("alice", types.Coins(10, "uearth")))

	cache := store.NewCache(db)
	require.NoError(t, NewKeeper(cache).Send("alice", "bob", types.Coins(4, "uearth")))
	cache.Discard()

	c, err := NewKeeper(db).Balance(ctx, "alice", "uearth")
	require.NoError(t, err)
	assert.Equal(t, "10", c.Amount)
}

func TestKeeper_BaseAndMinorUnitsShareBalance(t *testing.T) {
	ctx := context.Background()
	k := NewKeeper(store.NewMemDB())
	require.NoError(t, k.Mint("alice", types.Coins(2, "earth")))

	c, err := k.Balance(ctx, "alice", "uearth")
	require.NoError(t, err)
	assert.Equal(t, types.NewCoinUint64("uearth", 2_000_000), c)

	require.NoError(t, k.Send("alice", "bob", types.Coins(500_000, "uearth")))
	require.NoError(t, k.Send("alice", "bob", types.Coins(1, "earth")))

	c, err = k.Balance(ctx, "alice", "earth")
	require.NoError(t, err)
	assert.Equal(t, types.NewCoinUint64("uearth", 500_000), c)

	all, err := k.AllBalances(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, types.Coins(1_500_000, "uearth"), all)

	// A base-unit send is checked against the shared minor-unit balance.
	err = k.Send("alice", "bob", types.Coins(1, "earth"))
	assert.True(t, errors.Is(err, fundround.ErrInsufficientFunds), "got %v", err)
}
