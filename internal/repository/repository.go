// Package repository defines the keyed storage contracts the ledger
// depends on. Implementations live in the postgres, mongo and memory
// subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
)

var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrDebtNotFound    = errors.New("debt record not found")
	ErrNoFeeSchedule   = errors.New("no fee schedule configured")
	ErrWalletExists    = errors.New("wallet already exists for user")
	ErrRevenueNotFound = errors.New("revenue ledger not initialized")
)

// WalletStore owns Wallet rows, keyed by the owning user.
type WalletStore interface {
	ByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Create(ctx context.Context, wallet *models.Wallet) error
	Save(ctx context.Context, wallet *models.Wallet) error
	// SavePair persists both sides of a transfer atomically: either both
	// wallets reflect the new balances or neither does.
	SavePair(ctx context.Context, a, b *models.Wallet) error
	All(ctx context.Context) ([]*models.Wallet, error)
}

// HistoryStore is the append-only transaction trail. Rows are immutable
// once written.
type HistoryStore interface {
	Append(ctx context.Context, record *models.TransactionRecord) error
	ByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.TransactionRecord, error)
	ByWalletSince(ctx context.Context, walletID uuid.UUID, since time.Time) ([]*models.TransactionRecord, error)
	AllByUser(ctx context.Context, userID uuid.UUID) ([]*models.TransactionRecord, error)
	// TotalReceived sums amounts of the given type/currency for a wallet
	// over [from, to]. No rows means zero, never an error.
	TotalReceived(ctx context.Context, walletID uuid.UUID, txType domain.TransactionType, currency domain.Currency, from, to time.Time) (decimal.Decimal, error)
}

// DebtStore tracks accrued maintenance fees.
type DebtStore interface {
	// PendingByUserCurrency returns the open debt for (user, currency),
	// or ErrDebtNotFound when none is outstanding.
	PendingByUserCurrency(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*models.DebtRecord, error)
	Create(ctx context.Context, debt *models.DebtRecord) error
	Save(ctx context.Context, debt *models.DebtRecord) error
	ByStatus(ctx context.Context, status domain.DebtStatus) ([]*models.DebtRecord, error)
}

// RevenueStore is the singleton platform-income accumulator.
type RevenueStore interface {
	Get(ctx context.Context) (*models.Revenue, error)
	// Add books fee income for a currency, creating the singleton row on
	// first use.
	Add(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error
}

// FeeScheduleStore exposes the deployment's fee configuration row.
type FeeScheduleStore interface {
	// First returns the configured schedule or ErrNoFeeSchedule.
	First(ctx context.Context) (*models.FeeSchedule, error)
}
