package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/notification"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"github.com/ayo6706/wallet-ledger/internal/repository"
)

// DebtCollectionService settles pending maintenance fees against wallet
// balances. Only PENDING records are scanned; a record marked OVERDUE
// here stays out of future sweeps.
type DebtCollectionService struct {
	wallets repository.WalletStore
	debts   repository.DebtStore
	revenue repository.RevenueStore
	users   directory.Directory
	locker  *WalletLocker
	notify  Notifier
}

func NewDebtCollectionService(
	wallets repository.WalletStore,
	debts repository.DebtStore,
	revenue repository.RevenueStore,
	users directory.Directory,
	locker *WalletLocker,
	notify Notifier,
) *DebtCollectionService {
	return &DebtCollectionService{
		wallets: wallets,
		debts:   debts,
		revenue: revenue,
		users:   users,
		locker:  locker,
		notify:  notify,
	}
}

// Run sweeps every pending debt once.
func (s *DebtCollectionService) Run(ctx context.Context) error {
	pending, err := s.debts.ByStatus(ctx, domain.DebtPending)
	if err != nil {
		return fmt.Errorf("list pending debts: %w", err)
	}
	for _, debt := range pending {
		if err := s.collect(ctx, debt); err != nil {
			zap.L().Error("debt collection failed",
				zap.String("debt_id", debt.ID.String()),
				zap.String("user_id", debt.UserID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// collect deducts debt.Amount when the balance covers it, otherwise
// marks the record OVERDUE. The whole read-check-write runs under the
// owner's wallet lock.
func (s *DebtCollectionService) collect(ctx context.Context, debt *models.DebtRecord) error {
	unlock := s.locker.Lock(debt.UserID)
	defer unlock()

	wallet, err := s.wallets.ByUserID(ctx, debt.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil
		}
		return fmt.Errorf("load wallet: %w", err)
	}

	balance := wallet.Balance(debt.Currency)
	if balance.LessThan(debt.Amount) {
		debt.Status = domain.DebtOverdue
		debt.UpdatedAt = time.Now()
		if err := s.debts.Save(ctx, debt); err != nil {
			return fmt.Errorf("mark overdue: %w", err)
		}
		observability.IncrementDebtTransition(string(domain.DebtOverdue))
		return nil
	}

	newBalance := balance.Sub(debt.Amount)
	wallet.Balances[debt.Currency] = newBalance
	wallet.UpdatedAt = time.Now()
	if err := s.wallets.Save(ctx, wallet); err != nil {
		return fmt.Errorf("persist deduction: %w", err)
	}
	if err := s.revenue.Add(ctx, debt.Currency, debt.Amount); err != nil {
		return fmt.Errorf("book revenue: %w", err)
	}
	observability.IncrementRevenueBooked(debt.Currency.String(), "maintenance")

	debt.Status = domain.DebtPaid
	debt.UpdatedAt = time.Now()
	if err := s.debts.Save(ctx, debt); err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	observability.IncrementDebtTransition(string(domain.DebtPaid))

	s.notifyDeduction(ctx, debt, newBalance)
	return nil
}

func (s *DebtCollectionService) notifyDeduction(ctx context.Context, debt *models.DebtRecord, newBalance decimal.Decimal) {
	profile, err := s.users.ByID(ctx, debt.UserID)
	if err != nil {
		zap.L().Warn("deduction alert profile lookup failed",
			zap.String("user_id", debt.UserID.String()),
			zap.Error(err),
		)
		return
	}
	firstName := ""
	if len(profile.Records) > 0 {
		firstName = profile.Records[0].FirstName
	}
	s.notify.Enqueue(notification.TopicMaintenanceDeduction, notification.MaintenanceDeductionAlert{
		Email:      profile.Email,
		FirstName:  firstName,
		Amount:     debt.Amount,
		NewBalance: newBalance,
		Message:    fmt.Sprintf("A maintenance fee of %s %s was deducted from your wallet.", domain.FormatAmount(debt.Amount), debt.Currency),
	})
}
