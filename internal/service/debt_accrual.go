package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/keys"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"github.com/ayo6706/wallet-ledger/internal/repository"
)

// DebtAccrualService books maintenance-fee obligations against trailing
// credited income. It only tracks the obligation: balances and revenue
// are never touched here.
type DebtAccrualService struct {
	wallets repository.WalletStore
	history repository.HistoryStore
	debts   repository.DebtStore
	fees    *FeeCalculator
	locker  *WalletLocker

	// window is the trailing period of CREDITED income the fee applies to.
	window   time.Duration
	poolSize int
}

func NewDebtAccrualService(
	wallets repository.WalletStore,
	history repository.HistoryStore,
	debts repository.DebtStore,
	fees *FeeCalculator,
	locker *WalletLocker,
	window time.Duration,
	poolSize int,
) *DebtAccrualService {
	if window <= 0 {
		window = 28 * 24 * time.Hour
	}
	if poolSize <= 0 {
		poolSize = 8
	}
	return &DebtAccrualService{
		wallets:  wallets,
		history:  history,
		debts:    debts,
		fees:     fees,
		locker:   locker,
		window:   window,
		poolSize: poolSize,
	}
}

// Run accrues fees for every wallet. Wallets are independent, so the
// work fans out on a goroutine pool; per-wallet mutation stays
// serialized through the wallet locker.
func (s *DebtAccrualService) Run(ctx context.Context) error {
	wallets, err := s.wallets.All(ctx)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}

	rate := s.fees.MaintenanceRate(ctx)

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return fmt.Errorf("create accrual pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, w := range wallets {
		wallet := w
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			s.accrueWallet(ctx, wallet, rate)
		}); err != nil {
			wg.Done()
			zap.L().Error("accrual submit failed", zap.String("wallet_id", wallet.ID.String()), zap.Error(err))
		}
	}
	wg.Wait()
	return nil
}

func (s *DebtAccrualService) accrueWallet(ctx context.Context, wallet *models.Wallet, rate decimal.Decimal) {
	now := time.Now()
	from := now.Add(-s.window)

	for currency := range wallet.Balances {
		received, err := s.history.TotalReceived(ctx, wallet.ID, domain.TxTypeCredited, currency, from, now)
		if err != nil {
			zap.L().Error("accrual income lookup failed",
				zap.String("wallet_id", wallet.ID.String()),
				zap.String("currency", currency.String()),
				zap.Error(err),
			)
			continue
		}
		fee := domain.Scale2(received.Mul(rate))
		if !fee.IsPositive() {
			continue
		}
		if err := s.applyFee(ctx, wallet, currency, fee); err != nil {
			zap.L().Error("accrual fee apply failed",
				zap.String("wallet_id", wallet.ID.String()),
				zap.String("currency", currency.String()),
				zap.Error(err),
			)
		}
	}
}

// applyFee folds the fee into the open debt for (user, currency), or
// opens a new one. The balance comparison deciding PENDING vs OVERDUE
// reads the wallet under its lock so a concurrent collection deduction
// cannot leave the comparison stale.
func (s *DebtAccrualService) applyFee(ctx context.Context, wallet *models.Wallet, currency domain.Currency, fee decimal.Decimal) error {
	unlock := s.locker.Lock(wallet.UserID)
	defer unlock()

	debt, err := s.debts.PendingByUserCurrency(ctx, wallet.UserID, currency)
	if err != nil {
		if !errors.Is(err, repository.ErrDebtNotFound) {
			return fmt.Errorf("pending debt lookup: %w", err)
		}
		now := time.Now()
		return s.debts.Create(ctx, &models.DebtRecord{
			ID:          keys.NewTransactionID(),
			UserID:      wallet.UserID,
			Currency:    currency,
			Amount:      fee,
			DueAmount:   decimal.Zero,
			Status:      domain.DebtPending,
			Description: "Wallet maintenance fee",
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	debt.DueAmount = debt.DueAmount.Add(fee)

	current, err := s.wallets.ByUserID(ctx, wallet.UserID)
	if err != nil {
		return fmt.Errorf("balance read: %w", err)
	}
	if current.Balance(currency).LessThan(debt.DueAmount) {
		debt.Status = domain.DebtOverdue
		observability.IncrementDebtTransition(string(domain.DebtOverdue))
	}
	debt.UpdatedAt = time.Now()
	return s.debts.Save(ctx, debt)
}
