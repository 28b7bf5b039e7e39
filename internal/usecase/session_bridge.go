package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/storage"
)

const stashKey = "pending_payment"

// SessionBridge hands an in-flight payment context across the redirect
// boundary, where normal process memory is lost. The stash is consumed
// exactly once: a second TakeAndClear always reports absent, which is what
// keeps a reloaded landing page from double-recording the payment.
type SessionBridge struct {
	store  storage.KVStore
	logger *zap.Logger
	mu     sync.Mutex
}

func NewSessionBridge(store storage.KVStore, logger *zap.Logger) *SessionBridge {
	return &SessionBridge{
		store:  store,
		logger: logger,
	}
}

// Stash persists the pending context, overwriting any previous stash.
func (b *SessionBridge) Stash(ctx context.Context, stash *model.PendingStash) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if stash.CreatedAt.IsZero() {
		stash.CreatedAt = time.Now()
	}

	data, err := json.Marshal(stash)
	if err != nil {
		return fmt.Errorf("failed to serialize pending payment: %w", err)
	}
	if err := b.store.Set(ctx, stashKey, data); err != nil {
		return fmt.Errorf("failed to stash pending payment: %w", err)
	}

	b.logger.Info("Pending payment stashed",
		zap.String("intent_id", stash.IntentID),
		zap.String("rail", string(stash.Rail)))

	return nil
}

// TakeAndClear reads the current stash, deletes it and returns what was
// read. Returns nil when absent. Malformed data is cleared and reported as
// absent.
func (b *SessionBridge) TakeAndClear(ctx context.Context) (*model.PendingStash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.store.Get(ctx, stashKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending payment: %w", err)
	}

	if err := b.store.Delete(ctx, stashKey); err != nil {
		return nil, fmt.Errorf("failed to clear pending payment: %w", err)
	}

	var stash model.PendingStash
	if err := json.Unmarshal(data, &stash); err != nil {
		b.logger.Warn("Pending payment stash is malformed; discarding", zap.Error(err))
		return nil, nil
	}

	b.logger.Info("Pending payment consumed",
		zap.String("intent_id", stash.IntentID),
		zap.String("rail", string(stash.Rail)))

	return &stash, nil
}
