// Package postgres implements the wallet, debt, revenue and fee-schedule
// stores on pgx. The transaction history trail lives in mongo; see the
// sibling mongo package.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/repository"
)

type WalletStore struct {
	db *pgxpool.Pool
}

func NewWalletStore(db *pgxpool.Pool) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) ByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, user_id, balances, pin_hash, created_at, updated_at FROM wallets WHERE user_id = $1`,
		userID)
	return scanWallet(row)
}

func (s *WalletStore) Create(ctx context.Context, wallet *models.Wallet) error {
	balances, err := marshalBalances(wallet.Balances)
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO wallets (id, user_id, balances, pin_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		wallet.ID, wallet.UserID, balances, wallet.PinHash,
	).Scan(&wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrWalletExists
		}
		return fmt.Errorf("create wallet: %w", err)
	}
	return nil
}

func (s *WalletStore) Save(ctx context.Context, wallet *models.Wallet) error {
	balances, err := marshalBalances(wallet.Balances)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE wallets SET balances = $1, pin_hash = $2, updated_at = NOW() WHERE user_id = $3`,
		balances, wallet.PinHash, wallet.UserID)
	if err != nil {
		return fmt.Errorf("save wallet: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return repository.ErrWalletNotFound
	}
	return nil
}

// SavePair writes both wallets inside one database transaction, locking
// rows in a consistent order to avoid deadlocks between concurrent
// transfers touching the same pair.
func (s *WalletStore) SavePair(ctx context.Context, a, b *models.Wallet) error {
	first, second := a, b
	if first.UserID.String() > second.UserID.String() {
		first, second = second, first
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range []*models.Wallet{first, second} {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM wallets WHERE user_id = $1 FOR UPDATE`, w.UserID); err != nil {
			return fmt.Errorf("lock wallet %s: %w", w.UserID, err)
		}
	}
	for _, w := range []*models.Wallet{first, second} {
		balances, err := marshalBalances(w.Balances)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE wallets SET balances = $1, updated_at = NOW() WHERE user_id = $2`,
			balances, w.UserID)
		if err != nil {
			return fmt.Errorf("save wallet %s: %w", w.UserID, err)
		}
		if tag.RowsAffected() != 1 {
			return repository.ErrWalletNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *WalletStore) All(ctx context.Context) ([]*models.Wallet, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, balances, pin_hash, created_at, updated_at FROM wallets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var (
		w        models.Wallet
		balances []byte
	)
	err := row.Scan(&w.ID, &w.UserID, &balances, &w.PinHash, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrWalletNotFound
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	if err := json.Unmarshal(balances, &w.Balances); err != nil {
		return nil, fmt.Errorf("decode balances: %w", err)
	}
	return &w, nil
}

func marshalBalances(balances map[domain.Currency]decimal.Decimal) ([]byte, error) {
	payload, err := json.Marshal(balances)
	if err != nil {
		return nil, fmt.Errorf("encode balances: %w", err)
	}
	return payload, nil
}

type DebtStore struct {
	db *pgxpool.Pool
}

func NewDebtStore(db *pgxpool.Pool) *DebtStore {
	return &DebtStore{db: db}
}

func (s *DebtStore) PendingByUserCurrency(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*models.DebtRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, user_id, currency, amount, due_amount, status, description, created_at, updated_at
		 FROM debts WHERE user_id = $1 AND currency = $2 AND status = $3`,
		userID, currency, domain.DebtPending)
	return scanDebt(row)
}

func (s *DebtStore) Create(ctx context.Context, debt *models.DebtRecord) error {
	if debt.ID == uuid.Nil {
		debt.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO debts (id, user_id, currency, amount, due_amount, status, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		debt.ID, debt.UserID, debt.Currency, debt.Amount, debt.DueAmount, debt.Status, debt.Description,
	).Scan(&debt.CreatedAt, &debt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create debt: %w", err)
	}
	return nil
}

func (s *DebtStore) Save(ctx context.Context, debt *models.DebtRecord) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE debts SET amount = $1, due_amount = $2, status = $3, updated_at = NOW() WHERE id = $4`,
		debt.Amount, debt.DueAmount, debt.Status, debt.ID)
	if err != nil {
		return fmt.Errorf("save debt: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return repository.ErrDebtNotFound
	}
	return nil
}

func (s *DebtStore) ByStatus(ctx context.Context, status domain.DebtStatus) ([]*models.DebtRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, currency, amount, due_amount, status, description, created_at, updated_at
		 FROM debts WHERE status = $1 ORDER BY created_at`,
		status)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.DebtRecord
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func scanDebt(row rowScanner) (*models.DebtRecord, error) {
	var d models.DebtRecord
	err := row.Scan(&d.ID, &d.UserID, &d.Currency, &d.Amount, &d.DueAmount, &d.Status, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrDebtNotFound
		}
		return nil, fmt.Errorf("scan debt: %w", err)
	}
	return &d, nil
}

// RevenueStore keeps the singleton revenue row. Increments go through an
// upsert so the first booked fee creates the row.
type RevenueStore struct {
	db *pgxpool.Pool
}

func NewRevenueStore(db *pgxpool.Pool) *RevenueStore {
	return &RevenueStore{db: db}
}

func (s *RevenueStore) Get(ctx context.Context) (*models.Revenue, error) {
	var (
		rev      models.Revenue
		balances []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, balances, updated_at FROM revenue ORDER BY id LIMIT 1`,
	).Scan(&rev.ID, &balances, &rev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRevenueNotFound
		}
		return nil, fmt.Errorf("get revenue: %w", err)
	}
	if err := json.Unmarshal(balances, &rev.Balances); err != nil {
		return nil, fmt.Errorf("decode revenue balances: %w", err)
	}
	return &rev, nil
}

func (s *RevenueStore) Add(ctx context.Context, currency domain.Currency, amount decimal.Decimal) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		id       uuid.UUID
		raw      []byte
		balances map[domain.Currency]decimal.Decimal
	)
	err = tx.QueryRow(ctx, `SELECT id, balances FROM revenue ORDER BY id LIMIT 1 FOR UPDATE`).Scan(&id, &raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.New()
		balances = map[domain.Currency]decimal.Decimal{currency: amount}
		payload, err := marshalBalances(balances)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO revenue (id, balances, updated_at) VALUES ($1, $2, NOW())`, id, payload); err != nil {
			return fmt.Errorf("create revenue: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lock revenue: %w", err)
	default:
		if err := json.Unmarshal(raw, &balances); err != nil {
			return fmt.Errorf("decode revenue balances: %w", err)
		}
		balances[currency] = balances[currency].Add(amount)
		payload, err := marshalBalances(balances)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE revenue SET balances = $1, updated_at = NOW() WHERE id = $2`, payload, id); err != nil {
			return fmt.Errorf("save revenue: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type FeeScheduleStore struct {
	db *pgxpool.Pool
}

func NewFeeScheduleStore(db *pgxpool.Pool) *FeeScheduleStore {
	return &FeeScheduleStore{db: db}
}

func (s *FeeScheduleStore) First(ctx context.Context) (*models.FeeSchedule, error) {
	var fs models.FeeSchedule
	err := s.db.QueryRow(ctx,
		`SELECT id, maintenance_rate, transfer_rate FROM fee_schedule ORDER BY id LIMIT 1`,
	).Scan(&fs.ID, &fs.MaintenanceRate, &fs.TransferRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNoFeeSchedule
		}
		return nil, fmt.Errorf("get fee schedule: %w", err)
	}
	return &fs, nil
}
