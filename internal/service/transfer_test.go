package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/fraud"
	"github.com/ayo6706/wallet-ledger/internal/keys"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/notification"
)

func transferCmd(from, to string, amount string) TransferCmd {
	return TransferCmd{
		CallerUsername: from,
		FromUsername:   from,
		ToUsername:     to,
		Amount:         decimal.RequireFromString(amount),
		Currency:       domain.NGN,
		Pin:            testPin,
		Region:         "Norway",
		IPAddress:      "10.0.0.1",
	}
}

// Scenario: NGN 1000.00 sender, 1% fee, transfer 100.00 into an empty
// wallet. Fee moves intact to revenue and both history rows appear.
func TestTransferHappyPath(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	bob := f.addUser("bob", "Bob", "Balogun")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "1000.00"})
	f.addWallet(t, bob.ID, map[domain.Currency]string{domain.NGN: "0.00"})

	receipt, err := f.engine.Transfer(context.Background(), transferCmd("alice", "bob", "100.00"))
	require.NoError(t, err)

	decEq(t, "899.00", f.balance(t, alice.ID, domain.NGN))
	decEq(t, "100.00", f.balance(t, bob.ID, domain.NGN))
	decEq(t, "1.00", f.revenueBalance(t, domain.NGN))

	decEq(t, "100.00", receipt.Amount)
	decEq(t, "1.00", receipt.Fee)
	decEq(t, "899.00", receipt.NewBalance)
	assert.Contains(t, receipt.Message, "Bob Balogun")

	senderRows := f.historyOf(t, alice.ID)
	require.Len(t, senderRows, 1)
	assert.Equal(t, domain.TxTypeDebited, senderRows[0].Type)
	decEq(t, "-100.00", senderRows[0].Amount)
	assert.Contains(t, senderRows[0].Message, "Bob Balogun")
	assert.Equal(t, domain.TxStatusSuccess, senderRows[0].Status)

	recipientRows := f.historyOf(t, bob.ID)
	require.Len(t, recipientRows, 1)
	assert.Equal(t, domain.TxTypeCredited, recipientRows[0].Type)
	decEq(t, "100.00", recipientRows[0].Amount)
	assert.Contains(t, recipientRows[0].Message, "Alice Adeyemi")

	assert.NotEqual(t, senderRows[0].SessionID, recipientRows[0].SessionID)
	assert.NotEqual(t, senderRows[0].ID, recipientRows[0].ID)

	debits := f.notifier.byTopic(notification.TopicDebitAlert)
	require.Len(t, debits, 1)
	debit := debits[0].Payload.(notification.DebitAlert)
	assert.Equal(t, "alice@example.com", debit.SenderEmail)
	decEq(t, "1.00", debit.FeeAmount)
	decEq(t, "899.00", debit.SenderNewBalance)

	credits := f.notifier.byTopic(notification.TopicCreditAlert)
	require.Len(t, credits, 1)
	credit := credits[0].Payload.(notification.CreditAlert)
	assert.Equal(t, "bob@example.com", credit.RecipientEmail)
	decEq(t, "100.00", credit.RecipientNewBalance)
}

func TestTransferCreatesRecipientWallet(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	bob := f.addUser("bob", "Bob", "Balogun")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.USD: "500.00"})

	cmd := transferCmd("alice", "bob", "200.00")
	cmd.Currency = domain.USD
	_, err := f.engine.Transfer(context.Background(), cmd)
	require.NoError(t, err)

	wallet, err := f.wallets.ByUserID(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, wallet.Balances, len(domain.Currencies()))
	for _, c := range domain.Currencies() {
		if c == domain.USD {
			decEq(t, "200.00", wallet.Balances[c])
			continue
		}
		decEq(t, "0", wallet.Balances[c])
	}
}

func TestTransferRejectionsLeaveNoTrace(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	bob := f.addUser("bob", "Bob", "Balogun")
	locked := f.addUser("carol", "Carol", "Chukwu")
	locked.Records[0].Locked = true
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "1000.00"})
	f.addWallet(t, bob.ID, map[domain.Currency]string{domain.NGN: "50.00"})
	f.addWallet(t, locked.ID, map[domain.Currency]string{domain.NGN: "1000.00"})

	wrongPin := transferCmd("alice", "bob", "100.00")
	wrongPin.Pin = "0000"

	callerMismatch := transferCmd("alice", "bob", "100.00")
	callerMismatch.CallerUsername = "bob"

	cases := []struct {
		name string
		cmd  TransferCmd
		kind domain.Kind
	}{
		{"unknown sender", transferCmd("nobody", "bob", "100.00"), domain.KindNotFound},
		{"caller mismatch", callerMismatch, domain.KindAuthz},
		{"locked sender", transferCmd("carol", "bob", "100.00"), domain.KindAuthz},
		{"unknown recipient", transferCmd("alice", "nobody", "100.00"), domain.KindNotFound},
		{"self transfer", transferCmd("alice", "alice", "100.00"), domain.KindValidation},
		{"zero amount", transferCmd("alice", "bob", "0"), domain.KindValidation},
		{"negative amount", transferCmd("alice", "bob", "-5.00"), domain.KindValidation},
		{"wrong pin", wrongPin, domain.KindAuthz},
		{"insufficient balance", transferCmd("alice", "bob", "5000.00"), domain.KindInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Transfer(context.Background(), tc.cmd)
			require.Error(t, err)
			assert.Equal(t, tc.kind, domain.KindOf(err))

			decEq(t, "1000.00", f.balance(t, alice.ID, domain.NGN))
			decEq(t, "50.00", f.balance(t, bob.ID, domain.NGN))
			decEq(t, "0", f.revenueBalance(t, domain.NGN))
			assert.Empty(t, f.historyOf(t, alice.ID))
			assert.Empty(t, f.historyOf(t, bob.ID))
			assert.Empty(t, f.notifier.byTopic(notification.TopicDebitAlert))
		})
	}
}

// Scenario: NGN 50.00 wallet attempting a 100.00 transfer.
func TestTransferInsufficientBalance(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	f.addUser("bob", "Bob", "Balogun")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "50.00"})

	_, err := f.engine.Transfer(context.Background(), transferCmd("alice", "bob", "100.00"))
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientBalance, domain.KindOf(err))
	decEq(t, "50.00", f.balance(t, alice.ID, domain.NGN))
	assert.Empty(t, f.historyOf(t, alice.ID))
}

func TestTransferBlocksHighVolumeSender(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	f.addUser("bob", "Bob", "Balogun")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "100000.00"})
	for i := 0; i < 6; i++ {
		require.NoError(t, f.history.Append(context.Background(), &models.TransactionRecord{
			ID:        keys.NewTransactionID(),
			WalletID:  uuid.New(),
			UserID:    alice.ID,
			Amount:    decimal.RequireFromString("10.00"),
			Currency:  domain.NGN,
			Type:      domain.TxTypeCredited,
			Status:    domain.TxStatusSuccess,
			CreatedAt: time.Now().Add(-time.Minute),
		}))
	}

	_, err := f.engine.Transfer(context.Background(), transferCmd("alice", "bob", "100.00"))
	require.Error(t, err)
	assert.Equal(t, domain.KindFraudBlock, domain.KindOf(err))
	assert.Equal(t, fraud.RuleHighVolume, domain.AsError(err).Rule)
	decEq(t, "100000.00", f.balance(t, alice.ID, domain.NGN))
}

func TestTransferBlocksHighRiskRegion(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	f.addUser("bob", "Bob", "Balogun")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "1000.00"})

	cmd := transferCmd("alice", "bob", "100.00")
	cmd.Region = "Yemen"
	_, err := f.engine.Transfer(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, domain.KindFraudBlock, domain.KindOf(err))
	assert.Equal(t, fraud.RuleHighRiskRegion, domain.AsError(err).Rule)
	decEq(t, "1000.00", f.balance(t, alice.ID, domain.NGN))
}

// Twelve concurrent 100.00 transfers against a wallet that covers only
// three of them: exactly three succeed and the final balance reflects
// three debits with no lost updates.
func TestConcurrentDebitsAreSerialized(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	bob := f.addUser("bob", "Bob", "Balogun")
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "303.00"})
	f.addWallet(t, bob.ID, map[domain.Currency]string{domain.NGN: "0.00"})

	const attempts = 12
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successes    int
		insufficient int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Transfer(context.Background(), transferCmd("alice", "bob", "100.00"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if domain.KindOf(err) == domain.KindInsufficientBalance {
				insufficient++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, successes)
	assert.Equal(t, attempts-3, insufficient)
	decEq(t, "0.00", f.balance(t, alice.ID, domain.NGN))
	decEq(t, "300.00", f.balance(t, bob.ID, domain.NGN))
	decEq(t, "3.00", f.revenueBalance(t, domain.NGN))
	assert.Len(t, f.historyOf(t, alice.ID), 3)
	assert.Len(t, f.historyOf(t, bob.ID), 3)
}

func TestCreditFromTradeBypassesScreeningAndPin(t *testing.T) {
	f := newEngineFixture(t)
	desk := f.addUser("desk", "Trading", "Desk")
	alice := f.addUser("alice", "Alice", "Adeyemi")
	deskWallet := f.addWallet(t, desk.ID, map[domain.Currency]string{domain.USD: "10000.00"})
	// The desk wallet carries no pin; trade settlement never checks one.
	deskWallet.PinHash = ""
	require.NoError(t, f.wallets.Save(context.Background(), deskWallet))
	f.addWallet(t, alice.ID, map[domain.Currency]string{domain.USD: "0.00"})

	receipt, err := f.engine.CreditFromTrade(context.Background(), TradeCreditCmd{
		CreditorUsername:  "desk",
		RecipientUsername: "alice",
		Amount:            decimal.RequireFromString("250.00"),
		ProfitFee:         decimal.RequireFromString("12.50"),
		Currency:          domain.USD,
	})
	require.NoError(t, err)

	decEq(t, "9737.50", f.balance(t, desk.ID, domain.USD))
	decEq(t, "250.00", f.balance(t, alice.ID, domain.USD))
	decEq(t, "12.50", f.revenueBalance(t, domain.USD))
	decEq(t, "12.50", receipt.Fee)

	require.Len(t, f.historyOf(t, desk.ID), 1)
	require.Len(t, f.historyOf(t, alice.ID), 1)
}

func TestCreditFromTradeInsufficientBalance(t *testing.T) {
	f := newEngineFixture(t)
	desk := f.addUser("desk", "Trading", "Desk")
	f.addUser("alice", "Alice", "Adeyemi")
	f.addWallet(t, desk.ID, map[domain.Currency]string{domain.USD: "100.00"})

	_, err := f.engine.CreditFromTrade(context.Background(), TradeCreditCmd{
		CreditorUsername:  "desk",
		RecipientUsername: "alice",
		Amount:            decimal.RequireFromString("95.00"),
		ProfitFee:         decimal.RequireFromString("10.00"),
		Currency:          domain.USD,
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientBalance, domain.KindOf(err))
	decEq(t, "100.00", f.balance(t, desk.ID, domain.USD))
}

func TestDepositCreditsWalletAndNotifies(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")

	receipt, err := f.engine.Deposit(context.Background(), DepositCmd{
		Username:  "alice",
		Amount:    decimal.RequireFromString("750.00"),
		Currency:  domain.NGN,
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)

	decEq(t, "750.00", f.balance(t, alice.ID, domain.NGN))
	decEq(t, "750.00", receipt.NewBalance)

	rows := f.historyOf(t, alice.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.TxTypeBankToWalletDeposit, rows[0].Type)
	decEq(t, "750.00", rows[0].Amount)

	alerts := f.notifier.byTopic(notification.TopicDepositAlert)
	require.Len(t, alerts, 1)
	alert := alerts[0].Payload.(notification.DepositAlert)
	assert.Equal(t, "alice@example.com", alert.RecipientEmail)
	decEq(t, "750.00", alert.NewBalance)

	// Deposits carry no fee and book no revenue.
	decEq(t, "0", f.revenueBalance(t, domain.NGN))
}

func TestTransferFlagsRecentDepositActivity(t *testing.T) {
	f := newEngineFixture(t)
	alice := f.addUser("alice", "Alice", "Adeyemi")
	f.addUser("bob", "Bob", "Balogun")
	wallet := f.addWallet(t, alice.ID, map[domain.Currency]string{domain.NGN: "1000.00"})

	require.NoError(t, f.history.Append(context.Background(), &models.TransactionRecord{
		ID:        keys.NewTransactionID(),
		WalletID:  wallet.ID,
		UserID:    alice.ID,
		Amount:    decimal.RequireFromString("500.00"),
		Currency:  domain.NGN,
		Type:      domain.TxTypeDeposit,
		Status:    domain.TxStatusSuccess,
		CreatedAt: time.Now().Add(-20 * time.Second),
	}))

	_, err := f.engine.Transfer(context.Background(), transferCmd("alice", "bob", "100.00"))
	require.NoError(t, err, "the deposit sweep flags but never blocks")

	reason, flagged := f.users.StatusOf(alice.ID)
	assert.True(t, flagged)
	assert.Equal(t, directory.ReasonSuspiciousActivity, reason)
}
