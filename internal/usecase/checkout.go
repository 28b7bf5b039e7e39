package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/gateway"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
)

// CheckoutService orchestrates a payment from request to gateway instrument.
// Redirect rails get their context stashed before the browser navigates
// away; the scannable-code rail gets a coordinated expiry/polling flow that
// records the outcome itself.
type CheckoutService struct {
	gateway gateway.Gateway
	ledger  *LedgerService
	bridge  *SessionBridge
	logger  *zap.Logger

	// Cadences for the code flow's periodic tasks.
	pollInterval time.Duration
	tickInterval time.Duration

	mu    sync.Mutex
	flows map[string]*CodeFlow
}

func NewCheckoutService(gw gateway.Gateway, ledger *LedgerService, bridge *SessionBridge, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		gateway:      gw,
		ledger:       ledger,
		bridge:       bridge,
		logger:       logger,
		pollInterval: 3 * time.Second,
		tickInterval: time.Second,
		flows:        make(map[string]*CodeFlow),
	}
}

// StartOptions carries per-payment context that is not part of the wire
// request.
type StartOptions struct {
	PaymentType    string
	IsQuickPayment bool
}

// StartPayment creates the gateway instrument for the rail. For redirect
// rails the pending context is stashed before the caller navigates away;
// for the scannable-code rail the status/expiry flow is started and owns
// the rest of the lifecycle.
func (s *CheckoutService) StartPayment(ctx context.Context, rail model.Rail, req model.PaymentRequest, opts StartOptions) (*model.PaymentIntent, error) {
	if !rail.IsValid() {
		return nil, fmt.Errorf("unknown payment rail: %q", rail)
	}
	req.Normalize()

	intent, err := s.gateway.CreatePayment(ctx, rail, req)
	if err != nil {
		// No intent is kept, no timers started, nothing recorded.
		return nil, err
	}

	if rail.IsRedirect() {
		stash := &model.PendingStash{
			Request:     req,
			IntentID:    intent.ID,
			Rail:        rail,
			PaymentType: opts.PaymentType,
		}
		if err := s.bridge.Stash(ctx, stash); err != nil {
			return nil, err
		}
		return intent, nil
	}

	flow := newCodeFlow(s, intent, req, opts)
	s.mu.Lock()
	s.flows[intent.ID] = flow
	s.mu.Unlock()
	flow.Start()

	return intent, nil
}

// CompleteRedirect is the landing-page half of the redirect handoff: it
// consumes the stash (at most once) and records the completed payment.
// A reload after the first call finds no stash and records nothing.
func (s *CheckoutService) CompleteRedirect(ctx context.Context) (*model.LedgerRecord, error) {
	stash, err := s.bridge.TakeAndClear(ctx)
	if err != nil {
		return nil, err
	}
	if stash == nil {
		return nil, nil
	}

	return s.ledger.Record(ctx, RecordInput{
		Amount:      stash.Request.Amount,
		Currency:    stash.Request.Currency,
		Rail:        stash.Rail,
		PaymentType: stash.PaymentType,
		Description: stash.Request.Description,
		Status:      model.RecordStatusCompleted,
		IntentID:    stash.IntentID,
	})
}

// Dismiss tears down a running scannable-code flow, e.g. when the user
// closes the code display. Unknown ids are ignored.
func (s *CheckoutService) Dismiss(intentID string) {
	s.mu.Lock()
	flow := s.flows[intentID]
	s.mu.Unlock()

	if flow != nil {
		flow.Stop()
	}
}

// CheckStatus forwards a one-off status probe to the gateway.
func (s *CheckoutService) CheckStatus(ctx context.Context, intentID string) (*gateway.StatusResult, error) {
	return s.gateway.CheckStatus(ctx, intentID)
}

// Close stops every running code flow. Used on service shutdown.
func (s *CheckoutService) Close() {
	s.mu.Lock()
	flows := make([]*CodeFlow, 0, len(s.flows))
	for _, flow := range s.flows {
		flows = append(flows, flow)
	}
	s.mu.Unlock()

	for _, flow := range flows {
		flow.Stop()
	}
}

func (s *CheckoutService) removeFlow(intentID string) {
	s.mu.Lock()
	delete(s.flows, intentID)
	s.mu.Unlock()
}

// CodeFlow owns the two periodic tasks of a scannable-code payment. The
// timer and poller know nothing of each other; teardown here is the single
// place both are stopped, on every terminal path (success, failure,
// expiry, or dismissal). Anything less leaks an orphaned ticker.
type CodeFlow struct {
	service *CheckoutService
	intent  *model.PaymentIntent
	request model.PaymentRequest
	opts    StartOptions

	timer  *ExpiryTimer
	poller *StatusPoller
	cancel context.CancelFunc

	teardownOnce sync.Once
}

func newCodeFlow(service *CheckoutService, intent *model.PaymentIntent, req model.PaymentRequest, opts StartOptions) *CodeFlow {
	return &CodeFlow{
		service: service,
		intent:  intent,
		request: req,
		opts:    opts,
	}
}

// Start launches the countdown and the status poller together.
func (f *CodeFlow) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	f.poller = NewStatusPoller(f.service.gateway, f.intent.ID, f.service.logger)
	f.poller.interval = f.service.pollInterval
	f.timer = NewExpiryTimer(*f.intent.ExpiresAt, nil, f.onExpired)
	f.timer.interval = f.service.tickInterval

	f.poller.Start(ctx, f.onTerminal)
	f.timer.Start()

	f.service.logger.Info("Code payment flow started",
		zap.String("intent_id", f.intent.ID),
		zap.Int("expires_in_seconds", f.timer.Remaining()))
}

// onTerminal handles the first terminal status observed by the poller. A
// terminal status observed before expiry wins: the timer is stopped without
// ever emitting "expired".
func (f *CodeFlow) onTerminal(result *gateway.StatusResult) {
	f.teardown()

	if result.Status != model.IntentStatusSucceeded {
		f.service.logger.Info("Code payment failed",
			zap.String("intent_id", f.intent.ID),
			zap.String("last_error", result.LastError))
		return
	}

	if _, err := f.service.ledger.Record(context.Background(), RecordInput{
		Amount:         f.request.Amount,
		Currency:       f.request.Currency,
		Rail:           model.RailScannableCode,
		PaymentType:    f.opts.PaymentType,
		Description:    f.request.Description,
		Status:         model.RecordStatusCompleted,
		IntentID:       f.intent.ID,
		IsQuickPayment: f.opts.IsQuickPayment,
	}); err != nil {
		f.service.logger.Error("Failed to record completed code payment",
			zap.String("intent_id", f.intent.ID),
			zap.Error(err))
	}
}

// onExpired stops polling along with the countdown: a dead code cannot be
// paid, and a new one must be generated explicitly. A payment that the
// gateway confirms after local expiry still lands through a manual status
// re-check.
func (f *CodeFlow) onExpired() {
	f.service.logger.Info("Code expired; stopping status polling",
		zap.String("intent_id", f.intent.ID))
	f.teardown()
}

// Stop tears the flow down on user dismissal.
func (f *CodeFlow) Stop() {
	f.teardown()
}

func (f *CodeFlow) teardown() {
	f.teardownOnce.Do(func() {
		f.cancel()
		f.poller.Stop()
		f.timer.Stop()
		f.service.removeFlow(f.intent.ID)
	})
}
