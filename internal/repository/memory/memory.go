// Package memory provides in-process implementations of the repository
// contracts. They back the service tests and local runs without external
// infrastructure.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/repository"
)

// WalletStore is a mutex-guarded map of wallets keyed by user id.
type WalletStore struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*models.Wallet
}

func NewWalletStore() *WalletStore {
	return &WalletStore{wallets: make(map[uuid.UUID]*models.Wallet)}
}

func (s *WalletStore) ByUserID(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[userID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	return w.Clone(), nil
}

func (s *WalletStore) Create(_ context.Context, wallet *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[wallet.UserID]; ok {
		return repository.ErrWalletExists
	}
	now := time.Now()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now
	s.wallets[wallet.UserID] = wallet.Clone()
	return nil
}

func (s *WalletStore) Save(_ context.Context, wallet *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet.UpdatedAt = time.Now()
	s.wallets[wallet.UserID] = wallet.Clone()
	return nil
}

func (s *WalletStore) SavePair(_ context.Context, a, b *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	a.UpdatedAt = now
	b.UpdatedAt = now
	s.wallets[a.UserID] = a.Clone()
	s.wallets[b.UserID] = b.Clone()
	return nil
}

func (s *WalletStore) All(_ context.Context) ([]*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// HistoryStore is an append-only slice of immutable records.
type HistoryStore struct {
	mu      sync.RWMutex
	records []*models.TransactionRecord
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Append(_ context.Context, record *models.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

func (s *HistoryStore) ByUserSince(_ context.Context, userID uuid.UUID, since time.Time) ([]*models.TransactionRecord, error) {
	return s.filter(func(r *models.TransactionRecord) bool {
		return r.UserID == userID && r.CreatedAt.After(since)
	}), nil
}

func (s *HistoryStore) ByWalletSince(_ context.Context, walletID uuid.UUID, since time.Time) ([]*models.TransactionRecord, error) {
	return s.filter(func(r *models.TransactionRecord) bool {
		return r.WalletID == walletID && r.CreatedAt.After(since)
	}), nil
}

func (s *HistoryStore) AllByUser(_ context.Context, userID uuid.UUID) ([]*models.TransactionRecord, error) {
	return s.filter(func(r *models.TransactionRecord) bool {
		return r.UserID == userID
	}), nil
}

func (s *HistoryStore) TotalReceived(_ context.Context, walletID uuid.UUID, txType domain.TransactionType, currency domain.Currency, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range s.filter(func(r *models.TransactionRecord) bool {
		return r.WalletID == walletID && r.Type == txType && r.Currency == currency &&
			!r.CreatedAt.Before(from) && !r.CreatedAt.After(to)
	}) {
		total = total.Add(r.Amount)
	}
	return total, nil
}

func (s *HistoryStore) filter(keep func(*models.TransactionRecord) bool) []*models.TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TransactionRecord
	for _, r := range s.records {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// DebtStore keeps debt records keyed by id.
type DebtStore struct {
	mu    sync.RWMutex
	debts map[uuid.UUID]*models.DebtRecord
}

func NewDebtStore() *DebtStore {
	return &DebtStore{debts: make(map[uuid.UUID]*models.DebtRecord)}
}

func (s *DebtStore) PendingByUserCurrency(_ context.Context, userID uuid.UUID, currency domain.Currency) (*models.DebtRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.debts {
		if d.UserID == userID && d.Currency == currency && d.Status == domain.DebtPending {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrDebtNotFound
}

func (s *DebtStore) Create(_ context.Context, debt *models.DebtRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if debt.ID == uuid.Nil {
		debt.ID = uuid.New()
	}
	now := time.Now()
	debt.CreatedAt = now
	debt.UpdatedAt = now
	cp := *debt
	s.debts[debt.ID] = &cp
	return nil
}

func (s *DebtStore) Save(_ context.Context, debt *models.DebtRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	debt.UpdatedAt = time.Now()
	cp := *debt
	s.debts[debt.ID] = &cp
	return nil
}

func (s *DebtStore) ByStatus(_ context.Context, status domain.DebtStatus) ([]*models.DebtRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DebtRecord
	for _, d := range s.debts {
		if d.Status == status {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// RevenueStore holds the singleton revenue row.
type RevenueStore struct {
	mu      sync.Mutex
	revenue *models.Revenue
}

func NewRevenueStore() *RevenueStore {
	return &RevenueStore{}
}

func (s *RevenueStore) Get(_ context.Context) (*models.Revenue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revenue == nil {
		return nil, repository.ErrRevenueNotFound
	}
	cp := models.Revenue{ID: s.revenue.ID, UpdatedAt: s.revenue.UpdatedAt}
	cp.Balances = make(map[domain.Currency]decimal.Decimal, len(s.revenue.Balances))
	for c, b := range s.revenue.Balances {
		cp.Balances[c] = b
	}
	return &cp, nil
}

func (s *RevenueStore) Add(_ context.Context, currency domain.Currency, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revenue == nil {
		s.revenue = &models.Revenue{
			ID:       uuid.New(),
			Balances: make(map[domain.Currency]decimal.Decimal),
		}
	}
	s.revenue.Balances[currency] = s.revenue.Balances[currency].Add(amount)
	s.revenue.UpdatedAt = time.Now()
	return nil
}

// FeeScheduleStore returns a fixed schedule, or ErrNoFeeSchedule when
// unset, which exercises the documented fallback rates.
type FeeScheduleStore struct {
	mu       sync.RWMutex
	schedule *models.FeeSchedule
}

func NewFeeScheduleStore() *FeeScheduleStore {
	return &FeeScheduleStore{}
}

func (s *FeeScheduleStore) Set(schedule *models.FeeSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = schedule
}

func (s *FeeScheduleStore) First(_ context.Context) (*models.FeeSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.schedule == nil {
		return nil, repository.ErrNoFeeSchedule
	}
	cp := *s.schedule
	return &cp, nil
}
