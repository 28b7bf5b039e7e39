package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/storage"
)

const ledgerKey = "payment_history"

// csvNoData is returned instead of an empty CSV file.
const csvNoData = "No payment data available"

// LedgerService owns the append-only local record of payment attempts. All
// mutations go through a single mutex so concurrent payment flows cannot
// interleave a read-modify-write. Two separate processes sharing a store are
// not coordinated beyond the store's own atomicity; that is a known
// limitation of the single-user ledger.
type LedgerService struct {
	store  storage.KVStore
	logger *zap.Logger
	mu     sync.Mutex
}

// NewLedgerService creates a ledger over the given store.
func NewLedgerService(store storage.KVStore, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// RecordInput describes one payment attempt to append.
type RecordInput struct {
	Amount         decimal.Decimal
	Currency       string
	Rail           model.Rail
	PaymentType    string
	Description    string
	Status         model.RecordStatus
	IntentID       string
	IsQuickPayment bool
	Metadata       map[string]string
}

// QueryFilters narrows ledger queries. Zero values mean "no filter".
type QueryFilters struct {
	Status   model.RecordStatus
	Rail     model.Rail
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// LedgerStats is derived on demand from the current store contents.
type LedgerStats struct {
	TotalPayments  int             `json:"total_payments"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CompletedCount int             `json:"completed_count"`
	PendingCount   int             `json:"pending_count"`
	FailedCount    int             `json:"failed_count"`
	PerRail        map[string]int  `json:"per_rail"`
	RecentCount    int             `json:"recent_count"`
	AverageAmount  decimal.Decimal `json:"average_amount"`
}

// Record normalizes the input, generates a unique transaction reference and
// appends the record at the front of the store (most-recent-first is the
// canonical order).
func (s *LedgerService) Record(ctx context.Context, input RecordInput) (*model.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load(ctx)

	now := time.Now()
	record := model.LedgerRecord{
		ID:             uuid.New().String(),
		TransactionID:  s.uniqueTransactionID(records, now),
		IntentID:       input.IntentID,
		Rail:           input.Rail,
		Amount:         input.Amount.Round(2),
		Currency:       input.Currency,
		PaymentType:    input.PaymentType,
		Description:    input.Description,
		Status:         input.Status,
		CreatedAt:      now,
		ProcessedAt:    now,
		IsQuickPayment: input.IsQuickPayment,
		Metadata:       input.Metadata,
	}
	if record.Currency == "" {
		record.Currency = "PHP"
	}
	if record.PaymentType == "" {
		record.PaymentType = "HOA Payment"
	}
	if !record.Status.IsValid() {
		record.Status = model.RecordStatusCompleted
	}

	records = append([]model.LedgerRecord{record}, records...)
	if err := s.save(ctx, records); err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("transaction_id", record.TransactionID),
		zap.String("rail", string(record.Rail)),
		zap.String("status", string(record.Status)),
		zap.String("amount", record.Amount.StringFixed(2)))

	return &record, nil
}

// uniqueTransactionID regenerates until the reference collides with nothing
// already stored.
func (s *LedgerService) uniqueTransactionID(records []model.LedgerRecord, now time.Time) string {
	existing := make(map[string]struct{}, len(records))
	for _, r := range records {
		existing[r.TransactionID] = struct{}{}
	}

	for {
		id := model.NewTransactionID(now)
		if _, taken := existing[id]; !taken {
			return id
		}
	}
}

// Query returns records matching the filters, most-recent-first.
func (s *LedgerService) Query(ctx context.Context, filters QueryFilters) []model.LedgerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filterRecords(s.load(ctx), filters)
}

func filterRecords(records []model.LedgerRecord, filters QueryFilters) []model.LedgerRecord {
	out := make([]model.LedgerRecord, 0, len(records))
	search := strings.ToLower(filters.Search)

	for _, r := range records {
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		if filters.Rail != "" && r.Rail != filters.Rail {
			continue
		}
		if filters.DateFrom != nil && r.CreatedAt.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && r.CreatedAt.After(*filters.DateTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.TransactionID), search) &&
			!strings.Contains(strings.ToLower(r.PaymentType), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

// GetByID looks up a single record.
func (s *LedgerService) GetByID(ctx context.Context, id string) (*model.LedgerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.load(ctx) {
		if r.ID == id {
			return &r, true
		}
	}
	return nil, false
}

// Stats derives summary statistics from the current contents.
func (s *LedgerService) Stats(ctx context.Context) *LedgerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load(ctx)
	stats := &LedgerStats{
		TotalPayments: len(records),
		TotalAmount:   decimal.Zero,
		AverageAmount: decimal.Zero,
		PerRail:       make(map[string]int),
	}

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	for _, r := range records {
		stats.TotalAmount = stats.TotalAmount.Add(r.Amount)
		stats.PerRail[string(r.Rail)]++

		switch r.Status {
		case model.RecordStatusCompleted:
			stats.CompletedCount++
		case model.RecordStatusPending:
			stats.PendingCount++
		case model.RecordStatusFailed:
			stats.FailedCount++
		}

		if !r.CreatedAt.Before(thirtyDaysAgo) {
			stats.RecentCount++
		}
	}

	if stats.TotalPayments > 0 {
		stats.AverageAmount = stats.TotalAmount.
			Div(decimal.NewFromInt(int64(stats.TotalPayments))).
			Round(2)
	}

	return stats
}

// ExportJSON serializes the filtered query result.
func (s *LedgerService) ExportJSON(ctx context.Context, filters QueryFilters) (string, error) {
	records := s.Query(ctx, filters)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export payment history: %w", err)
	}
	return string(data), nil
}

// ExportCSV serializes the filtered query result with a fixed column order.
// The description is quoted and escaped; an empty result set yields a
// sentinel string rather than an empty file.
func (s *LedgerService) ExportCSV(ctx context.Context, filters QueryFilters) string {
	records := s.Query(ctx, filters)
	if len(records) == 0 {
		return csvNoData
	}

	var b strings.Builder
	b.WriteString("Transaction ID,Date,Amount (PHP),Payment Type,Payment Method,Status,Description,Gateway Payment ID")

	for _, r := range records {
		description := strings.ReplaceAll(r.Description, `"`, `""`)
		b.WriteString("\n")
		b.WriteString(strings.Join([]string{
			r.TransactionID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Amount.StringFixed(2),
			r.PaymentType,
			r.Rail.DisplayName(),
			string(r.Status),
			`"` + description + `"`,
			r.IntentID,
		}, ","))
	}

	return b.String()
}

// UpdateStatus mutates a record's status and processed timestamp in place.
// It reports false when the id is absent instead of failing.
func (s *LedgerService) UpdateStatus(ctx context.Context, id string, status model.RecordStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load(ctx)
	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].Status = status
		records[i].ProcessedAt = time.Now()
		if err := s.save(ctx, records); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// Clear removes the full history. The only way records are ever deleted.
func (s *LedgerService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, ledgerKey); err != nil {
		return fmt.Errorf("failed to clear payment history: %w", err)
	}

	s.logger.Info("Payment history cleared")
	return nil
}

// load reads the stored array. Malformed or missing data is treated as "no
// history" rather than a crash.
func (s *LedgerService) load(ctx context.Context) []model.LedgerRecord {
	data, err := s.store.Get(ctx, ledgerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("Failed to read payment history", zap.Error(err))
		return nil
	}

	var records []model.LedgerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("Payment history is malformed; treating as empty", zap.Error(err))
		return nil
	}
	return records
}

func (s *LedgerService) save(ctx context.Context, records []model.LedgerRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize payment history: %w", err)
	}
	if err := s.store.Set(ctx, ledgerKey, data); err != nil {
		return fmt.Errorf("failed to persist payment history: %w", err)
	}
	return nil
}
