package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketd/internal/domain"
	"ticketd/internal/storage"
	"ticketd/internal/storage/postgres"
)

func TestTierStore_Postgres(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTierStore(pool)
	ctx := context.Background()

	tier := &domain.Tier{
		Symbol:       "VIP",
		Name:         "VIP Access",
		BasePrice:    100_000_000,
		CurrentPrice: 100_000_000,
		MaxSupply:    50,
		Minted:       0,
		Active:       true,
		Strategy:     domain.StrategyStandard,
	}

	t.Run("insert and get", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, tier))

		got, err := store.GetBySymbol(ctx, "VIP")
		require.NoError(t, err)
		assert.Equal(t, tier.Name, got.Name)
		assert.Equal(t, tier.BasePrice, got.BasePrice)
		assert.Equal(t, domain.StrategyStandard, got.Strategy)
		assert.True(t, got.Active)
	})

	t.Run("duplicate symbol", func(t *testing.T) {
		err := store.Insert(ctx, tier)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetBySymbol(ctx, "NOPE")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = store.Update(ctx, &domain.Tier{Symbol: "NOPE", Strategy: domain.StrategyStandard})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update counters", func(t *testing.T) {
		tier.Minted = 5
		tier.CurrentPrice = 110_000_000
		require.NoError(t, store.Update(ctx, tier))

		got, err := store.GetBySymbol(ctx, "VIP")
		require.NoError(t, err)
		assert.Equal(t, uint32(5), got.Minted)
		assert.Equal(t, int64(110_000_000), got.CurrentPrice)
	})

	t.Run("list ordered", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, &domain.Tier{
			Symbol: "GA", Name: "General", BasePrice: 1000, CurrentPrice: 1000,
			MaxSupply: 100, Active: true, Strategy: domain.StrategyTimeDecay,
		}))

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "GA", list[0].Symbol)
		assert.Equal(t, "VIP", list[1].Symbol)
	})
}
