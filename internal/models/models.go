package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/wallet-ledger/internal/domain"
)

// Wallet holds one balance per supported currency for a single user.
// The balance map carries every supported currency once initialized.
type Wallet struct {
	ID        uuid.UUID                           `json:"id"`
	UserID    uuid.UUID                           `json:"user_id"`
	Balances  map[domain.Currency]decimal.Decimal `json:"balances"`
	PinHash   string                              `json:"-"`
	CreatedAt time.Time                           `json:"created_at"`
	UpdatedAt time.Time                           `json:"updated_at"`
}

// Balance returns the wallet's balance for a currency, zero when absent.
func (w *Wallet) Balance(c domain.Currency) decimal.Decimal {
	if w == nil || w.Balances == nil {
		return decimal.Zero
	}
	if b, ok := w.Balances[c]; ok {
		return b
	}
	return decimal.Zero
}

// Clone returns a deep copy so callers can mutate balances without
// aliasing stored state.
func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	cp := *w
	cp.Balances = make(map[domain.Currency]decimal.Decimal, len(w.Balances))
	for c, b := range w.Balances {
		cp.Balances[c] = b
	}
	return &cp
}

// TransactionRecord is one immutable row of the wallet history trail.
type TransactionRecord struct {
	ID          uuid.UUID              `json:"id" bson:"_id"`
	WalletID    uuid.UUID              `json:"wallet_id" bson:"wallet_id"`
	UserID      uuid.UUID              `json:"user_id" bson:"user_id"`
	SessionID   string                 `json:"session_id" bson:"session_id"`
	Amount      decimal.Decimal        `json:"amount" bson:"amount"`
	Currency    domain.Currency        `json:"currency" bson:"currency"`
	Type        domain.TransactionType `json:"type" bson:"type"`
	Description string                 `json:"description" bson:"description"`
	Message     string                 `json:"message" bson:"message"`
	Status      string                 `json:"status" bson:"status"`
	IPAddress   string                 `json:"ip_address" bson:"ip_address"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"`
}

// DebtRecord tracks an accrued-but-uncollected maintenance fee for one
// (user, currency) pair. Collection deducts Amount; Accrual maintains
// DueAmount on top of an existing pending record.
type DebtRecord struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Currency    domain.Currency   `json:"currency"`
	Amount      decimal.Decimal   `json:"amount"`
	DueAmount   decimal.Decimal   `json:"due_amount"`
	Status      domain.DebtStatus `json:"status"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Revenue is the platform's singleton fee-income accumulator.
type Revenue struct {
	ID        uuid.UUID                           `json:"id"`
	Balances  map[domain.Currency]decimal.Decimal `json:"balances"`
	UpdatedAt time.Time                           `json:"updated_at"`
}

// FeeSchedule is the deployment's fee configuration row. A missing row
// falls back to the documented defaults.
type FeeSchedule struct {
	ID              uuid.UUID       `json:"id"`
	MaintenanceRate decimal.Decimal `json:"maintenance_rate"`
	TransferRate    decimal.Decimal `json:"transfer_rate"`
}
