package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/gateway"
)

// StatusChecker is the slice of the gateway the poller needs.
type StatusChecker interface {
	CheckStatus(ctx context.Context, intentID string) (*gateway.StatusResult, error)
}

// StatusPoller repeatedly probes the gateway for an intent's status on a
// fixed cadence until a terminal state is observed or the poller is
// stopped. It emits the terminal result exactly once and never probes
// again afterwards; a probe that raced past the stop signal has its result
// discarded. Per-probe errors are logged and swallowed; the next tick
// simply tries again.
type StatusPoller struct {
	checker  StatusChecker
	intentID string
	interval time.Duration
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	emitOnce sync.Once
}

// NewStatusPoller builds a poller on the standard 3-second cadence.
func NewStatusPoller(checker StatusChecker, intentID string, logger *zap.Logger) *StatusPoller {
	return &StatusPoller{
		checker:  checker,
		intentID: intentID,
		interval: 3 * time.Second,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling in the background. onTerminal is invoked at most
// once, with the first terminal result observed.
func (p *StatusPoller) Start(ctx context.Context, onTerminal func(*gateway.StatusResult)) {
	go p.run(ctx, onTerminal)
}

func (p *StatusPoller) run(ctx context.Context, onTerminal func(*gateway.StatusResult)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			result, err := p.checker.CheckStatus(ctx, p.intentID)
			if err != nil {
				p.logger.Warn("Status check failed; retrying on next tick",
					zap.String("intent_id", p.intentID),
					zap.Error(err))
				continue
			}
			if !result.Status.IsTerminal() {
				continue
			}

			// The stop signal may have arrived while the probe was in
			// flight; a stopped poller discards the result.
			if p.Stopped() {
				return
			}

			p.emitOnce.Do(func() {
				onTerminal(result)
			})
			p.Stop()
			return
		}
	}
}

// Stopped reports whether the poller has been stopped.
func (p *StatusPoller) Stopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

// Stop halts polling. Safe to call more than once.
func (p *StatusPoller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}
