package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obligo/obligo/internal/model"
)

func TestSaveAndGetOverride(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveOverride(ctx, &model.MerchantOverride{
		MerchantKey: "netflix",
		IsRecurring: true,
		Note:        "definitely a subscription",
	}))

	got, err := store.GetOverride(ctx, "netflix")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsRecurring)
	assert.Equal(t, "definitely a subscription", got.Note)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetOverrideMissing(t *testing.T) {
	store := createTestStorage(t)

	got, err := store.GetOverride(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveOverrideUpsert(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveOverride(ctx, &model.MerchantOverride{
		MerchantKey: "netflix",
		IsRecurring: true,
	}))

	// Flipping the decision updates in place.
	require.NoError(t, store.SaveOverride(ctx, &model.MerchantOverride{
		MerchantKey: "netflix",
		IsRecurring: false,
		Note:        "was a one-off",
	}))

	got, err := store.GetOverride(ctx, "netflix")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsRecurring)
	assert.Equal(t, "was a one-off", got.Note)

	all, err := store.GetAllOverrides(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveOverrideValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.Error(t, store.SaveOverride(ctx, nil))
	require.Error(t, store.SaveOverride(ctx, &model.MerchantOverride{}))
}
