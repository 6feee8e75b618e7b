package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/keys"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/notification"
)

func newAccrual(f *engineFixture) *DebtAccrualService {
	return NewDebtAccrualService(f.wallets, f.history, f.debts, f.fees, f.locker, 28*24*time.Hour, 4)
}

func newCollection(f *engineFixture) *DebtCollectionService {
	return NewDebtCollectionService(f.wallets, f.debts, f.revenue, f.users, f.locker, f.notifier)
}

func creditIncome(t *testing.T, f *engineFixture, wallet *models.Wallet, amount string, age time.Duration) {
	t.Helper()
	require.NoError(t, f.history.Append(context.Background(), &models.TransactionRecord{
		ID:        keys.NewTransactionID(),
		WalletID:  wallet.ID,
		UserID:    wallet.UserID,
		Amount:    decimal.RequireFromString(amount),
		Currency:  domain.NGN,
		Type:      domain.TxTypeCredited,
		Status:    domain.TxStatusSuccess,
		CreatedAt: time.Now().Add(-age),
	}))
}

// Scenario: 1000.00 credited in the window at the 0.55% fallback rate
// opens a debt of 5.50 with a zero due amount.
func TestAccrualOpensPendingDebt(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "10.00"})
	creditIncome(t, f, wallet, "1000.00", 24*time.Hour)

	require.NoError(t, newAccrual(f).Run(context.Background()))

	debts, err := f.debts.ByStatus(context.Background(), domain.DebtPending)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	decEq(t, "5.50", debts[0].Amount)
	decEq(t, "0", debts[0].DueAmount)
	assert.Equal(t, domain.NGN, debts[0].Currency)
	assert.Equal(t, alice.ID, debts[0].UserID)

	// Accrual tracks the obligation only.
	decEq(t, "10.00", f.balance(t, alice.ID, domain.NGN))
	decEq(t, "0", f.revenueBalance(t, domain.NGN))
}

func TestAccrualIgnoresIncomeOutsideWindow(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "10.00"})
	creditIncome(t, f, wallet, "1000.00", 40*24*time.Hour)

	require.NoError(t, newAccrual(f).Run(context.Background()))

	debts, err := f.debts.ByStatus(context.Background(), domain.DebtPending)
	require.NoError(t, err)
	assert.Empty(t, debts)
}

// Running accrual twice without a collection in between must fold into
// the existing record's due amount, never open a second PENDING debt.
func TestAccrualSecondRunAddsToDueAmount(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "100.00"})
	creditIncome(t, f, wallet, "1000.00", 24*time.Hour)

	accrual := newAccrual(f)
	require.NoError(t, accrual.Run(context.Background()))
	require.NoError(t, accrual.Run(context.Background()))

	debts, err := f.debts.ByStatus(context.Background(), domain.DebtPending)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	decEq(t, "5.50", debts[0].Amount)
	decEq(t, "5.50", debts[0].DueAmount)
	assert.Equal(t, domain.DebtPending, debts[0].Status)
}

// The due-amount comparison reads the wallet's current balance: when it
// cannot cover the new due amount, the record flips to OVERDUE.
func TestAccrualMarksOverdueWhenBalanceCannotCoverDue(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "3.00"})
	creditIncome(t, f, wallet, "1000.00", 24*time.Hour)

	accrual := newAccrual(f)
	require.NoError(t, accrual.Run(context.Background()))
	// Second run pushes dueAmount to 5.50 against a 3.00 balance.
	require.NoError(t, accrual.Run(context.Background()))

	overdue, err := f.debts.ByStatus(context.Background(), domain.DebtOverdue)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	decEq(t, "5.50", overdue[0].DueAmount)

	pending, err := f.debts.ByStatus(context.Background(), domain.DebtPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// Scenario: collecting a 5.50 debt from a 10.00 balance leaves 4.50,
// books 5.50 of revenue, and marks the record PAID.
func TestCollectionDeductsAndPays(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "10.00"})
	creditIncome(t, f, wallet, "1000.00", 24*time.Hour)
	require.NoError(t, newAccrual(f).Run(context.Background()))

	require.NoError(t, newCollection(f).Run(context.Background()))

	decEq(t, "4.50", f.balance(t, alice.ID, domain.NGN))
	decEq(t, "5.50", f.revenueBalance(t, domain.NGN))

	paid, err := f.debts.ByStatus(context.Background(), domain.DebtPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)

	alerts := f.notifier.byTopic(notification.TopicMaintenanceDeduction)
	require.Len(t, alerts, 1)
	alert := alerts[0].Payload.(notification.MaintenanceDeductionAlert)
	assert.Equal(t, "alice@example.com", alert.Email)
	assert.Equal(t, "Alice", alert.FirstName)
	decEq(t, "5.50", alert.Amount)
	decEq(t, "4.50", alert.NewBalance)
}

// Scenario: a 2.00 balance cannot cover the 5.50 debt; the record goes
// OVERDUE and the balance is untouched.
func TestCollectionMarksOverdueWithoutDeducting(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "2.00"})
	creditIncome(t, f, wallet, "1000.00", 24*time.Hour)
	require.NoError(t, newAccrual(f).Run(context.Background()))

	require.NoError(t, newCollection(f).Run(context.Background()))

	decEq(t, "2.00", f.balance(t, alice.ID, domain.NGN))
	decEq(t, "0", f.revenueBalance(t, domain.NGN))

	overdue, err := f.debts.ByStatus(context.Background(), domain.DebtOverdue)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Empty(t, f.notifier.byTopic(notification.TopicMaintenanceDeduction))
}

// A paid debt never re-enters the sweep, and an overdue one is not
// retried even after the balance recovers.
func TestCollectionRunsExactlyOnce(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "10.00"})
	creditIncome(t, f, wallet, "1000.00", 24*time.Hour)
	require.NoError(t, newAccrual(f).Run(context.Background()))

	collection := newCollection(f)
	require.NoError(t, collection.Run(context.Background()))
	require.NoError(t, collection.Run(context.Background()))
	require.NoError(t, collection.Run(context.Background()))

	decEq(t, "4.50", f.balance(t, alice.ID, domain.NGN))
	decEq(t, "5.50", f.revenueBalance(t, domain.NGN))
	assert.Len(t, f.notifier.byTopic(notification.TopicMaintenanceDeduction), 1)
}

func TestCollectionSkipsOverdueAfterBalanceRecovers(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "2.00"})
	creditIncome(t, f, wallet, "1000.00", 24*time.Hour)
	require.NoError(t, newAccrual(f).Run(context.Background()))

	collection := newCollection(f)
	require.NoError(t, collection.Run(context.Background()))

	// Balance recovers, but the overdue record stays out of the sweep.
	wallet, err := f.wallets.ByUserID(context.Background(), alice.ID)
	require.NoError(t, err)
	wallet.Balances[domain.NGN] = decimal.RequireFromString("100.00")
	require.NoError(t, f.wallets.Save(context.Background(), wallet))

	require.NoError(t, collection.Run(context.Background()))

	decEq(t, "100.00", f.balance(t, alice.ID, domain.NGN))
	decEq(t, "0", f.revenueBalance(t, domain.NGN))
	overdue, err := f.debts.ByStatus(context.Background(), domain.DebtOverdue)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
}

func TestCollectionSkipsMissingWallet(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")

	require.NoError(t, f.debts.Create(context.Background(), &models.DebtRecord{
		ID:       keys.NewTransactionID(),
		UserID:   alice.ID,
		Currency: domain.NGN,
		Amount:   decimal.RequireFromString("5.50"),
		Status:   domain.DebtPending,
	}))

	require.NoError(t, newCollection(f).Run(context.Background()))

	pending, err := f.debts.ByStatus(context.Background(), domain.DebtPending)
	require.NoError(t, err)
	require.Len(t, pending, 1, "debt without a wallet is skipped, not failed")
}

func TestFeeScheduleOverridesDefaults(t *testing.T) {
	f := newEngineFixture(t)
	f.schedules.Set(&models.FeeSchedule{
		MaintenanceRate: decimal.RequireFromString("0.01"),
		TransferRate:    decimal.RequireFromString("0.02"),
	})

	decEq(t, "0.01", f.fees.MaintenanceRate(context.Background()))
	decEq(t, "0.02", f.fees.TransferRate(context.Background()))
	decEq(t, "2.00", f.fees.TransferFee(context.Background(), decimal.RequireFromString("100.00")))
}

func TestFeeDefaultsWithoutSchedule(t *testing.T) {
	f := newEngineFixture(t)

	decEq(t, "0.0055", f.fees.MaintenanceRate(context.Background()))
	decEq(t, "0.01", f.fees.TransferRate(context.Background()))
	decEq(t, "1.00", f.fees.TransferFee(context.Background(), decimal.RequireFromString("100.00")))
}
