package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/fraud"
	"github.com/ayo6706/wallet-ledger/internal/gateway"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/repository/memory"
)

const testPin = "4321"

// stubNotifier records enqueued alerts synchronously so tests can
// assert on them without draining a queue.
type stubNotifier struct {
	mu     sync.Mutex
	alerts []stubAlert
}

type stubAlert struct {
	Topic   string
	Payload any
}

func (n *stubNotifier) Enqueue(topic string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, stubAlert{Topic: topic, Payload: payload})
}

func (n *stubNotifier) byTopic(topic string) []stubAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []stubAlert
	for _, a := range n.alerts {
		if a.Topic == topic {
			out = append(out, a)
		}
	}
	return out
}

type engineFixture struct {
	wallets   *memory.WalletStore
	history   *memory.HistoryStore
	revenue   *memory.RevenueStore
	debts     *memory.DebtStore
	schedules *memory.FeeScheduleStore
	users     *directory.Static
	blacklist *fraud.MemoryBlacklist
	notifier  *stubNotifier
	payouts   *gateway.Mock
	locker    *WalletLocker
	fees      *FeeCalculator
	engine    *TransferEngine

	pinHash string
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		wallets:   memory.NewWalletStore(),
		history:   memory.NewHistoryStore(),
		revenue:   memory.NewRevenueStore(),
		debts:     memory.NewDebtStore(),
		schedules: memory.NewFeeScheduleStore(),
		users:     directory.NewStatic(),
		blacklist: fraud.NewMemoryBlacklist(),
		notifier:  &stubNotifier{},
		payouts:   gateway.NewMock(),
		locker:    NewWalletLocker(),
	}
	f.fees = NewFeeCalculator(f.schedules)
	monitor := fraud.NewMonitor(f.history, f.users, f.blacklist)
	f.engine = NewTransferEngine(
		f.wallets, f.history, f.revenue, f.users,
		monitor, f.fees, f.locker, f.notifier, f.payouts,
		time.Second,
	)

	hash, err := HashPin(testPin)
	require.NoError(t, err)
	f.pinHash = hash
	return f
}

// addUser registers an enabled, month-old profile and returns it.
func (f *engineFixture) addUser(username, firstName, lastName string) *directory.Profile {
	p := &directory.Profile{
		ID:        uuid.New(),
		Email:     username + "@example.com",
		Username:  username,
		Enabled:   true,
		CreatedOn: time.Now().Add(-30 * 24 * time.Hour),
		Records: []directory.ProfileRecord{{
			FirstName: firstName,
			LastName:  lastName,
			CreatedOn: time.Now().Add(-30 * 24 * time.Hour),
		}},
	}
	f.users.Put(p)
	return p
}

// addWallet creates a wallet holding the given balances with the shared
// test pin.
func (f *engineFixture) addWallet(t *testing.T, userID uuid.UUID, balances map[domain.Currency]string) *models.Wallet {
	t.Helper()
	w := &models.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Balances: domain.ZeroBalances(),
		PinHash:  f.pinHash,
	}
	for c, amt := range balances {
		w.Balances[c] = decimal.RequireFromString(amt)
	}
	require.NoError(t, f.wallets.Create(context.Background(), w))
	return w
}

func (f *engineFixture) balance(t *testing.T, userID uuid.UUID, c domain.Currency) decimal.Decimal {
	t.Helper()
	w, err := f.wallets.ByUserID(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance(c)
}

func (f *engineFixture) revenueBalance(t *testing.T, c domain.Currency) decimal.Decimal {
	t.Helper()
	r, err := f.revenue.Get(context.Background())
	if err != nil {
		return decimal.Zero
	}
	return r.Balances[c]
}

func (f *engineFixture) historyOf(t *testing.T, userID uuid.UUID) []*models.TransactionRecord {
	t.Helper()
	records, err := f.history.AllByUser(context.Background(), userID)
	require.NoError(t, err)
	return records
}

func decEq(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(expected).Equal(actual),
		"expected %s, got %s", expected, actual.String())
}
