package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/fraud"
	"github.com/ayo6706/wallet-ledger/internal/keys"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/notification"
)

func externalCmd(from string, dest uuid.UUID, amount string) ExternalTransferCmd {
	return ExternalTransferCmd{
		CallerUsername: from,
		FromUsername:   from,
		ToWalletID:     dest,
		Amount:         decimal.RequireFromString(amount),
		Currency:       domain.USD,
		Pin:            testPin,
		Region:         "Norway",
		IPAddress:      "10.0.0.1",
	}
}

func TestExternalTransferHappyPath(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.USD: "1000.00"})
	dest := uuid.New()

	receipt, err := f.engine.TransferExternal(context.Background(), externalCmd("alice", dest, "100.00"))
	require.NoError(t, err)

	decEq(t, "899.00", f.balance(t, alice.ID, domain.USD))
	decEq(t, "1.00", f.revenueBalance(t, domain.USD))
	decEq(t, "899.00", receipt.NewBalance)

	rows := f.historyOf(t, alice.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.TxTypeWithdraw, rows[0].Type)
	decEq(t, "-100.00", rows[0].Amount)

	payouts := f.payouts.Requests()
	require.Len(t, payouts, 1)
	assert.Equal(t, dest, payouts[0].DestinationWallet)
	decEq(t, "100.00", payouts[0].Amount)
	assert.Equal(t, rows[0].SessionID, payouts[0].SessionID)

	require.Len(t, f.notifier.byTopic(notification.TopicDebitAlert), 1)
}

// The cross-platform flow does not screen the destination region; only
// the same-platform flow applies that rule.
func TestExternalTransferAllowsHighRiskRegion(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.USD: "1000.00"})

	cmd := externalCmd("alice", uuid.New(), "100.00")
	cmd.Region = "Philippines"
	_, err := f.engine.TransferExternal(context.Background(), cmd)
	require.NoError(t, err)
}

func TestExternalTransferBlocksBlacklistedDestination(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.USD: "1000.00"})
	dest := uuid.New()
	require.NoError(t, f.blacklist.Add(context.Background(), dest))

	_, err := f.engine.TransferExternal(context.Background(), externalCmd("alice", dest, "100.00"))
	require.Error(t, err)
	assert.Equal(t, domain.KindFraudBlock, domain.KindOf(err))
	assert.Equal(t, fraud.RuleBlacklistedWallet, domain.AsError(err).Rule)
	decEq(t, "1000.00", f.balance(t, alice.ID, domain.USD))
	assert.Empty(t, f.payouts.Requests())
}

func TestExternalTransferBlocksNewAccount(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	alice.CreatedOn = time.Now().Add(-time.Minute)
	f.users.Put(alice)
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.USD: "1000.00"})

	_, err := f.engine.TransferExternal(context.Background(), externalCmd("alice", uuid.New(), "100.00"))
	require.Error(t, err)
	assert.Equal(t, domain.KindFraudBlock, domain.KindOf(err))
	assert.Equal(t, fraud.RuleUnverifiedOrNew, domain.AsError(err).Rule)
}

func TestExternalTransferBlocksDepositThenTransfer(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.USD: "1000.00"})

	for _, tx := range []struct {
		txType domain.TransactionType
		amount string
	}{
		{domain.TxTypeDeposit, "500.00"},
		{domain.TxTypeDebited, "-100.00"},
	} {
		require.NoError(t, f.history.Append(context.Background(), &models.TransactionRecord{
			ID:        keys.NewTransactionID(),
			WalletID:  wallet.ID,
			UserID:    alice.ID,
			Amount:    decimal.RequireFromString(tx.amount),
			Currency:  domain.USD,
			Type:      tx.txType,
			Status:    domain.TxStatusSuccess,
			CreatedAt: time.Now().Add(-10 * time.Minute),
		}))
	}

	_, err := f.engine.TransferExternal(context.Background(), externalCmd("alice", uuid.New(), "100.00"))
	require.Error(t, err)
	assert.Equal(t, fraud.RuleDepositThenTransfer, domain.AsError(err).Rule)
}

func TestExternalTransferDeclinedPayoutLeavesNoTrace(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.USD: "1000.00"})
	f.payouts.Decline("destination unreachable")

	_, err := f.engine.TransferExternal(context.Background(), externalCmd("alice", uuid.New(), "100.00"))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	decEq(t, "1000.00", f.balance(t, alice.ID, domain.USD))
	decEq(t, "0", f.revenueBalance(t, domain.USD))
	assert.Empty(t, f.historyOf(t, alice.ID))
}
