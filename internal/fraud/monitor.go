// Package fraud evaluates transfer requests against a fixed rule set.
// Each rule is an independent predicate; the engine decides which
// subset applies to which flow and rejects on the first positive.
package fraud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/repository"
)

// Rule identifiers surfaced on FraudBlockError.
const (
	RuleHighVolume           = "high_volume_or_frequent"
	RuleInconsistentBehavior = "inconsistent_behavior"
	RuleHighRiskRegion       = "high_risk_region"
	RuleUnverifiedOrNew      = "unverified_or_new_wallet"
	RuleDepositThenTransfer  = "deposit_then_transfer"
	RuleBlacklistedWallet    = "blacklisted_wallet"
)

const (
	highVolumeWindow    = 10 * time.Minute
	highVolumeMaxCount  = 5
	behaviorWindow      = 24 * time.Hour
	behaviorMaxCount    = 10
	behaviorMaxWithdraw = 5
	newWalletAge        = 3 * time.Minute
	depositWindow       = time.Hour
	flagSweepWindow     = time.Minute
)

var highVolumeMaxSum = decimal.RequireFromString("2500000.00")

var highRiskRegions = []string{"Philippines", "Venezuela", "Vietnam", "Yemen", "Haiti"}

// Monitor combines recent history, profile state and the wallet
// blacklist into pass/block decisions. It holds no mutable state.
type Monitor struct {
	history   repository.HistoryStore
	users     directory.Directory
	blacklist Blacklist
}

func NewMonitor(history repository.HistoryStore, users directory.Directory, blacklist Blacklist) *Monitor {
	return &Monitor{history: history, users: users, blacklist: blacklist}
}

// IsHighVolumeOrFrequent blocks more than five transactions, or a raw
// amount sum above 2,500,000.00, inside a ten-minute window. Both
// comparisons are strict: the boundary value itself passes.
func (m *Monitor) IsHighVolumeOrFrequent(ctx context.Context, userID uuid.UUID) (bool, error) {
	recent, err := m.history.ByUserSince(ctx, userID, time.Now().Add(-highVolumeWindow))
	if err != nil {
		return false, fmt.Errorf("load recent transactions: %w", err)
	}
	total := decimal.Zero
	for _, r := range recent {
		total = total.Add(r.Amount)
	}
	return len(recent) > highVolumeMaxCount || total.GreaterThan(highVolumeMaxSum), nil
}

// IsInconsistentBehavior inspects the last 24 hours for spikes against
// the all-time average, bursts, multiple origin IPs, or heavy
// withdrawal activity.
func (m *Monitor) IsInconsistentBehavior(ctx context.Context, userID uuid.UUID) (bool, error) {
	recent, err := m.history.ByUserSince(ctx, userID, time.Now().Add(-behaviorWindow))
	if err != nil {
		return false, fmt.Errorf("load recent transactions: %w", err)
	}
	if len(recent) == 0 {
		return false, nil
	}

	average, err := m.averageTransactionAmount(ctx, userID)
	if err != nil {
		return false, err
	}
	spikeThreshold := average.Mul(decimal.NewFromInt(5))
	for _, r := range recent {
		if r.Amount.GreaterThan(spikeThreshold) {
			return true, nil
		}
	}

	if len(recent) > behaviorMaxCount {
		return true, nil
	}

	firstIP := recent[0].IPAddress
	for _, r := range recent {
		if r.IPAddress != firstIP {
			return true, nil
		}
	}

	withdrawals := 0
	for _, r := range recent {
		if r.Type == domain.TxTypeWithdraw {
			withdrawals++
		}
	}
	return withdrawals > behaviorMaxWithdraw, nil
}

// IsHighRiskRegion is an exact, case-sensitive membership test.
func (m *Monitor) IsHighRiskRegion(region string) bool {
	for _, r := range highRiskRegions {
		if r == region {
			return true
		}
	}
	return false
}

// IsUnverifiedOrNewWallet blocks disabled profiles and profiles created
// within the last three minutes.
func (m *Monitor) IsUnverifiedOrNewWallet(ctx context.Context, userID uuid.UUID) (bool, error) {
	profile, err := m.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, directory.ErrProfileNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load profile: %w", err)
	}
	return !profile.Enabled || profile.CreatedOn.After(time.Now().Add(-newWalletAge)), nil
}

// IsDepositThenTransfer blocks users showing both a deposit and an
// outgoing debit inside the last hour.
func (m *Monitor) IsDepositThenTransfer(ctx context.Context, userID uuid.UUID) (bool, error) {
	recent, err := m.history.ByUserSince(ctx, userID, time.Now().Add(-depositWindow))
	if err != nil {
		return false, fmt.Errorf("load recent transactions: %w", err)
	}
	var hasDeposit, hasDebit bool
	for _, r := range recent {
		switch r.Type {
		case domain.TxTypeDeposit:
			hasDeposit = true
		case domain.TxTypeDebited:
			hasDebit = true
		}
	}
	return hasDeposit && hasDebit, nil
}

// IsBlacklisted reports whether the wallet id is on the blacklist.
func (m *Monitor) IsBlacklisted(ctx context.Context, walletID uuid.UUID) (bool, error) {
	return m.blacklist.Contains(ctx, walletID)
}

// FlagRecentDepositActivity sweeps the wallet's last minute of history
// and pushes a suspicious-activity status update for any deposit seen.
// It never blocks the transfer; failures are logged only.
func (m *Monitor) FlagRecentDepositActivity(ctx context.Context, userID, walletID uuid.UUID) {
	recent, err := m.history.ByWalletSince(ctx, walletID, time.Now().Add(-flagSweepWindow))
	if err != nil {
		zap.L().Warn("deposit sweep failed", zap.String("wallet_id", walletID.String()), zap.Error(err))
		return
	}
	for _, r := range recent {
		if r.Type != domain.TxTypeDeposit {
			continue
		}
		if err := m.users.UpdateAccountStatus(ctx, userID, directory.ReasonSuspiciousActivity); err != nil {
			zap.L().Warn("account status update failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
}

func (m *Monitor) averageTransactionAmount(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	all, err := m.history.AllByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load transaction history: %w", err)
	}
	// Empty history averages to zero, so the spike rule cannot trip on a
	// first-ever transaction.
	if len(all) == 0 {
		return decimal.Zero, nil
	}
	total := decimal.Zero
	for _, r := range all {
		total = total.Add(r.Amount)
	}
	return total.Div(decimal.NewFromInt(int64(len(all)))), nil
}
