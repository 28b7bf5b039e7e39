package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	infraStorage "github.com/bayanihomes/hoa-portal/services/payment/internal/infrastructure/storage"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/usecase"
)

func TestSessionBridge_TakeAndClearConsumesOnce(t *testing.T) {
	ctx := context.Background()
	bridge := usecase.NewSessionBridge(infraStorage.NewMemoryStore(), zap.NewNop())

	stash := &model.PendingStash{
		Request: model.PaymentRequest{
			Amount:      decimal.NewFromFloat(250.00),
			Description: "Monthly Dues",
			Currency:    "PHP",
		},
		IntentID: "pi_abc123",
		Rail:     model.RailWalletGCash,
	}
	assert.NoError(t, bridge.Stash(ctx, stash))
	assert.False(t, stash.CreatedAt.IsZero())

	got, err := bridge.TakeAndClear(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "pi_abc123", got.IntentID)
	assert.Equal(t, model.RailWalletGCash, got.Rail)
	assert.True(t, got.Request.Amount.Equal(decimal.NewFromFloat(250.00)))

	// A second take, e.g. the landing page reloading, finds nothing.
	got, err = bridge.TakeAndClear(ctx)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionBridge_EmptyTake(t *testing.T) {
	bridge := usecase.NewSessionBridge(infraStorage.NewMemoryStore(), zap.NewNop())

	got, err := bridge.TakeAndClear(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionBridge_StashOverwrites(t *testing.T) {
	ctx := context.Background()
	bridge := usecase.NewSessionBridge(infraStorage.NewMemoryStore(), zap.NewNop())

	assert.NoError(t, bridge.Stash(ctx, &model.PendingStash{
		IntentID: "pi_first",
		Rail:     model.RailWalletGCash,
	}))
	assert.NoError(t, bridge.Stash(ctx, &model.PendingStash{
		IntentID: "pi_second",
		Rail:     model.RailWalletMaya,
	}))

	got, err := bridge.TakeAndClear(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "pi_second", got.IntentID)

	got, err = bridge.TakeAndClear(ctx)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionBridge_MalformedStashDiscarded(t *testing.T) {
	ctx := context.Background()
	store := infraStorage.NewMemoryStore()
	assert.NoError(t, store.Set(ctx, "pending_payment", []byte("{broken")))

	bridge := usecase.NewSessionBridge(store, zap.NewNop())

	got, err := bridge.TakeAndClear(ctx)
	assert.NoError(t, err)
	assert.Nil(t, got)

	// The broken payload was cleared on the way through.
	got, err = bridge.TakeAndClear(ctx)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
