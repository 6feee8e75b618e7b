package service

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
	"github.com/ayo6706/wallet-ledger/internal/fraud"
	"github.com/ayo6706/wallet-ledger/internal/gateway"
	"github.com/ayo6706/wallet-ledger/internal/keys"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/notification"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"github.com/ayo6706/wallet-ledger/internal/repository"
)

// Notifier is the fire-and-forget alert queue. The dispatcher in the
// notification package satisfies it.
type Notifier interface {
	Enqueue(topic string, payload any)
}

// TransferEngine applies every balance mutation in the system. All
// precondition failures return before any write; the success path
// mutates both wallets, appends history, and books revenue as one unit.
type TransferEngine struct {
	wallets repository.WalletStore
	history repository.HistoryStore
	revenue repository.RevenueStore
	users   directory.Directory
	monitor *fraud.Monitor
	fees    *FeeCalculator
	locker  *WalletLocker
	notify  Notifier
	payouts gateway.Gateway

	// lookupTimeout caps identity and fraud-rule lookups; hitting it
	// fails the operation closed, before any mutation.
	lookupTimeout time.Duration
}

func NewTransferEngine(
	wallets repository.WalletStore,
	history repository.HistoryStore,
	revenue repository.RevenueStore,
	users directory.Directory,
	monitor *fraud.Monitor,
	fees *FeeCalculator,
	locker *WalletLocker,
	notify Notifier,
	payouts gateway.Gateway,
	lookupTimeout time.Duration,
) *TransferEngine {
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}
	return &TransferEngine{
		wallets:       wallets,
		history:       history,
		revenue:       revenue,
		users:         users,
		monitor:       monitor,
		fees:          fees,
		locker:        locker,
		notify:        notify,
		payouts:       payouts,
		lookupTimeout: lookupTimeout,
	}
}

// TransferCmd is a wallet-to-wallet transfer request. CallerUsername is
// the authenticated identity from the token, never client-supplied.
type TransferCmd struct {
	CallerUsername string
	FromUsername   string
	ToUsername     string
	Amount         decimal.Decimal
	Currency       domain.Currency
	Pin            string
	Region         string
	IPAddress      string
}

// Receipt confirms a completed movement.
type Receipt struct {
	Message    string          `json:"message"`
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
	Currency   domain.Currency `json:"currency"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// Transfer moves amount between two platform wallets, charging the
// sender amount plus fee and booking the fee as revenue.
func (e *TransferEngine) Transfer(ctx context.Context, cmd TransferCmd) (*Receipt, error) {
	if !cmd.Amount.IsPositive() {
		return nil, domain.ValidationError("Invalid amount", "Transfer amount must be greater than zero.")
	}

	sender, err := e.resolveSender(ctx, cmd.CallerUsername, cmd.FromUsername)
	if err != nil {
		return nil, err
	}

	recipient, err := e.resolveRecipient(ctx, cmd.ToUsername)
	if err != nil {
		return nil, err
	}

	if sender.ID == recipient.ID {
		return nil, domain.ValidationError("Self transfer not allowed", "Sender and recipient must be different users.")
	}

	if err := e.screenSamePlatform(ctx, sender, cmd.Region); err != nil {
		return nil, err
	}

	senderWallet, err := e.wallets.ByUserID(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, domain.NotFoundError("Wallet not found", "No wallet exists for the sending user.")
		}
		return nil, e.internal("load sender wallet", err)
	}
	e.monitor.FlagRecentDepositActivity(ctx, sender.ID, senderWallet.ID)

	if err := verifyPin(senderWallet.PinHash, cmd.Pin); err != nil {
		return nil, err
	}

	fee := e.fees.TransferFee(ctx, cmd.Amount)
	totalDebit := cmd.Amount.Add(fee)

	unlock := e.locker.Lock(sender.ID, recipient.ID)
	defer unlock()

	// Re-read under the lock so the balance check and debit are atomic
	// with respect to concurrent writers.
	senderWallet, err = e.wallets.ByUserID(ctx, sender.ID)
	if err != nil {
		return nil, e.internal("reload sender wallet", err)
	}
	if senderWallet.Balance(cmd.Currency).LessThan(totalDebit) {
		return nil, domain.InsufficientBalanceError(fmt.Sprintf(
			"Balance %s %s cannot cover %s plus the %s fee.",
			domain.FormatAmount(senderWallet.Balance(cmd.Currency)), cmd.Currency,
			domain.FormatAmount(cmd.Amount), domain.FormatAmount(fee),
		))
	}

	recipientWallet, err := e.ensureWallet(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}

	senderWallet.Balances[cmd.Currency] = senderWallet.Balance(cmd.Currency).Sub(totalDebit)
	senderWallet.UpdatedAt = time.Now()
	recipientWallet.Balances[cmd.Currency] = recipientWallet.Balance(cmd.Currency).Add(cmd.Amount)
	recipientWallet.UpdatedAt = time.Now()

	if err := e.wallets.SavePair(ctx, senderWallet, recipientWallet); err != nil {
		observability.IncrementTransfer("p2p", "failed")
		return nil, e.internal("persist transfer", err)
	}

	now := time.Now()
	e.appendHistory(ctx, &models.TransactionRecord{
		ID:          keys.NewTransactionID(),
		WalletID:    senderWallet.ID,
		UserID:      sender.ID,
		SessionID:   keys.NewSessionID(),
		Amount:      cmd.Amount.Neg(),
		Currency:    cmd.Currency,
		Type:        domain.TxTypeDebited,
		Description: string(domain.TxTypeWalletTransfer),
		Message:     fmt.Sprintf("You sent %s %s to %s.", domain.FormatAmount(cmd.Amount), cmd.Currency, recipient.FullName()),
		Status:      domain.TxStatusSuccess,
		IPAddress:   cmd.IPAddress,
		CreatedAt:   now,
	})
	e.appendHistory(ctx, &models.TransactionRecord{
		ID:          keys.NewTransactionID(),
		WalletID:    recipientWallet.ID,
		UserID:      recipient.ID,
		SessionID:   keys.NewSessionID(),
		Amount:      cmd.Amount,
		Currency:    cmd.Currency,
		Type:        domain.TxTypeCredited,
		Description: string(domain.TxTypeWalletTransfer),
		Message:     fmt.Sprintf("You received %s %s from %s.", domain.FormatAmount(cmd.Amount), cmd.Currency, sender.FullName()),
		Status:      domain.TxStatusSuccess,
		IPAddress:   cmd.IPAddress,
		CreatedAt:   now,
	})

	e.bookRevenue(ctx, cmd.Currency, fee, "transfer")

	e.notify.Enqueue(notification.TopicDebitAlert, notification.DebitAlert{
		SenderEmail:      sender.Email,
		FeeAmount:        fee,
		Amount:           cmd.Amount,
		SenderName:       sender.FullName(),
		ReceiverName:     recipient.FullName(),
		SenderNewBalance: senderWallet.Balance(cmd.Currency),
	})
	e.notify.Enqueue(notification.TopicCreditAlert, notification.CreditAlert{
		RecipientEmail:      recipient.Email,
		Amount:              cmd.Amount,
		SenderName:          sender.FullName(),
		ReceiverName:        recipient.FullName(),
		RecipientNewBalance: recipientWallet.Balance(cmd.Currency),
	})

	observability.IncrementTransfer("p2p", "success")
	return &Receipt{
		Message:    fmt.Sprintf("Transfer of %s %s to %s completed.", domain.FormatAmount(cmd.Amount), cmd.Currency, recipient.FullName()),
		Amount:     cmd.Amount,
		Fee:        fee,
		Currency:   cmd.Currency,
		NewBalance: senderWallet.Balance(cmd.Currency),
	}, nil
}

// TradeCreditCmd settles an internal trade: the creditor pays the
// principal plus a caller-supplied profit fee, the recipient receives
// the principal, and the fee is booked as revenue.
type TradeCreditCmd struct {
	CreditorUsername  string
	RecipientUsername string
	Amount            decimal.Decimal
	ProfitFee         decimal.Decimal
	Currency          domain.Currency
	IPAddress         string
}

// CreditFromTrade applies the trade settlement. It is an internal path:
// no fraud screening and no pin check.
func (e *TransferEngine) CreditFromTrade(ctx context.Context, cmd TradeCreditCmd) (*Receipt, error) {
	if !cmd.Amount.IsPositive() {
		return nil, domain.ValidationError("Invalid amount", "Settlement amount must be greater than zero.")
	}
	if cmd.ProfitFee.IsNegative() {
		return nil, domain.ValidationError("Invalid fee", "Profit fee cannot be negative.")
	}

	creditor, err := e.lookupByUsername(ctx, cmd.CreditorUsername)
	if err != nil {
		return nil, err
	}
	recipient, err := e.lookupByUsername(ctx, cmd.RecipientUsername)
	if err != nil {
		return nil, err
	}
	if creditor.ID == recipient.ID {
		return nil, domain.ValidationError("Self transfer not allowed", "Creditor and recipient must be different users.")
	}

	totalDebit := cmd.Amount.Add(cmd.ProfitFee)

	unlock := e.locker.Lock(creditor.ID, recipient.ID)
	defer unlock()

	creditorWallet, err := e.wallets.ByUserID(ctx, creditor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, domain.NotFoundError("Wallet not found", "No wallet exists for the crediting user.")
		}
		return nil, e.internal("load creditor wallet", err)
	}
	if creditorWallet.Balance(cmd.Currency).LessThan(totalDebit) {
		return nil, domain.InsufficientBalanceError(fmt.Sprintf(
			"Balance %s %s cannot cover the %s settlement plus the %s fee.",
			domain.FormatAmount(creditorWallet.Balance(cmd.Currency)), cmd.Currency,
			domain.FormatAmount(cmd.Amount), domain.FormatAmount(cmd.ProfitFee),
		))
	}

	recipientWallet, err := e.ensureWallet(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}

	creditorWallet.Balances[cmd.Currency] = creditorWallet.Balance(cmd.Currency).Sub(totalDebit)
	creditorWallet.UpdatedAt = time.Now()
	recipientWallet.Balances[cmd.Currency] = recipientWallet.Balance(cmd.Currency).Add(cmd.Amount)
	recipientWallet.UpdatedAt = time.Now()

	if err := e.wallets.SavePair(ctx, creditorWallet, recipientWallet); err != nil {
		observability.IncrementTransfer("trade", "failed")
		return nil, e.internal("persist trade settlement", err)
	}

	now := time.Now()
	e.appendHistory(ctx, &models.TransactionRecord{
		ID:          keys.NewTransactionID(),
		WalletID:    creditorWallet.ID,
		UserID:      creditor.ID,
		SessionID:   keys.NewSessionID(),
		Amount:      cmd.Amount.Neg(),
		Currency:    cmd.Currency,
		Type:        domain.TxTypeDebited,
		Description: string(domain.TxTypeWalletTransfer),
		Message:     fmt.Sprintf("Trade settlement of %s %s to %s.", domain.FormatAmount(cmd.Amount), cmd.Currency, recipient.FullName()),
		Status:      domain.TxStatusSuccess,
		IPAddress:   cmd.IPAddress,
		CreatedAt:   now,
	})
	e.appendHistory(ctx, &models.TransactionRecord{
		ID:          keys.NewTransactionID(),
		WalletID:    recipientWallet.ID,
		UserID:      recipient.ID,
		SessionID:   keys.NewSessionID(),
		Amount:      cmd.Amount,
		Currency:    cmd.Currency,
		Type:        domain.TxTypeCredited,
		Description: string(domain.TxTypeWalletTransfer),
		Message:     fmt.Sprintf("Trade settlement of %s %s from %s.", domain.FormatAmount(cmd.Amount), cmd.Currency, creditor.FullName()),
		Status:      domain.TxStatusSuccess,
		IPAddress:   cmd.IPAddress,
		CreatedAt:   now,
	})

	e.bookRevenue(ctx, cmd.Currency, cmd.ProfitFee, "trade")

	e.notify.Enqueue(notification.TopicDebitAlert, notification.DebitAlert{
		SenderEmail:      creditor.Email,
		FeeAmount:        cmd.ProfitFee,
		Amount:           cmd.Amount,
		SenderName:       creditor.FullName(),
		ReceiverName:     recipient.FullName(),
		SenderNewBalance: creditorWallet.Balance(cmd.Currency),
	})
	e.notify.Enqueue(notification.TopicCreditAlert, notification.CreditAlert{
		RecipientEmail:      recipient.Email,
		Amount:              cmd.Amount,
		SenderName:          creditor.FullName(),
		ReceiverName:        recipient.FullName(),
		RecipientNewBalance: recipientWallet.Balance(cmd.Currency),
	})

	observability.IncrementTransfer("trade", "success")
	return &Receipt{
		Message:    fmt.Sprintf("Settlement of %s %s to %s completed.", domain.FormatAmount(cmd.Amount), cmd.Currency, recipient.FullName()),
		Amount:     cmd.Amount,
		Fee:        cmd.ProfitFee,
		Currency:   cmd.Currency,
		NewBalance: creditorWallet.Balance(cmd.Currency),
	}, nil
}

// ExternalTransferCmd sends principal to a wallet on another platform
// through the payout gateway.
type ExternalTransferCmd struct {
	CallerUsername string
	FromUsername   string
	ToWalletID     uuid.UUID
	Amount         decimal.Decimal
	Currency       domain.Currency
	Pin            string
	Region         string
	IPAddress      string
}

// TransferExternal debits amount plus fee, records a withdrawal, books
// the fee, and hands the principal to the payout gateway. The gateway
// is consulted before any mutation so a declined payout leaves no
// trace.
func (e *TransferEngine) TransferExternal(ctx context.Context, cmd ExternalTransferCmd) (*Receipt, error) {
	if !cmd.Amount.IsPositive() {
		return nil, domain.ValidationError("Invalid amount", "Transfer amount must be greater than zero.")
	}

	sender, err := e.resolveSender(ctx, cmd.CallerUsername, cmd.FromUsername)
	if err != nil {
		return nil, err
	}

	if err := e.screenCrossPlatform(ctx, sender, cmd.ToWalletID); err != nil {
		return nil, err
	}

	senderWallet, err := e.wallets.ByUserID(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, domain.NotFoundError("Wallet not found", "No wallet exists for the sending user.")
		}
		return nil, e.internal("load sender wallet", err)
	}
	e.monitor.FlagRecentDepositActivity(ctx, sender.ID, senderWallet.ID)

	if err := verifyPin(senderWallet.PinHash, cmd.Pin); err != nil {
		return nil, err
	}

	fee := e.fees.TransferFee(ctx, cmd.Amount)
	totalDebit := cmd.Amount.Add(fee)
	sessionID := keys.NewSessionID()

	unlock := e.locker.Lock(sender.ID)
	defer unlock()

	senderWallet, err = e.wallets.ByUserID(ctx, sender.ID)
	if err != nil {
		return nil, e.internal("reload sender wallet", err)
	}
	if senderWallet.Balance(cmd.Currency).LessThan(totalDebit) {
		return nil, domain.InsufficientBalanceError(fmt.Sprintf(
			"Balance %s %s cannot cover %s plus the %s fee.",
			domain.FormatAmount(senderWallet.Balance(cmd.Currency)), cmd.Currency,
			domain.FormatAmount(cmd.Amount), domain.FormatAmount(fee),
		))
	}

	result, err := e.payouts.Payout(ctx, gateway.PayoutRequest{
		SessionID:         sessionID,
		SenderUserID:      sender.ID,
		DestinationWallet: cmd.ToWalletID,
		Amount:            cmd.Amount,
		Currency:          cmd.Currency,
		DestinationRegion: cmd.Region,
	})
	if err != nil {
		observability.IncrementTransfer("external", "failed")
		return nil, e.internal("gateway payout", err)
	}
	if !result.Accepted {
		observability.IncrementTransfer("external", "declined")
		return nil, domain.ValidationError("Payout declined", result.Reason)
	}

	senderWallet.Balances[cmd.Currency] = senderWallet.Balance(cmd.Currency).Sub(totalDebit)
	senderWallet.UpdatedAt = time.Now()
	if err := e.wallets.Save(ctx, senderWallet); err != nil {
		observability.IncrementTransfer("external", "failed")
		return nil, e.internal("persist external transfer", err)
	}

	e.appendHistory(ctx, &models.TransactionRecord{
		ID:          keys.NewTransactionID(),
		WalletID:    senderWallet.ID,
		UserID:      sender.ID,
		SessionID:   sessionID,
		Amount:      cmd.Amount.Neg(),
		Currency:    cmd.Currency,
		Type:        domain.TxTypeWithdraw,
		Description: "CROSS_PLATFORM_TRANSFER",
		Message:     fmt.Sprintf("You sent %s %s to an external wallet.", domain.FormatAmount(cmd.Amount), cmd.Currency),
		Status:      domain.TxStatusSuccess,
		IPAddress:   cmd.IPAddress,
		CreatedAt:   time.Now(),
	})

	e.bookRevenue(ctx, cmd.Currency, fee, "transfer")

	e.notify.Enqueue(notification.TopicDebitAlert, notification.DebitAlert{
		SenderEmail:      sender.Email,
		FeeAmount:        fee,
		Amount:           cmd.Amount,
		SenderName:       sender.FullName(),
		ReceiverName:     cmd.ToWalletID.String(),
		SenderNewBalance: senderWallet.Balance(cmd.Currency),
	})

	observability.IncrementTransfer("external", "success")
	return &Receipt{
		Message:    fmt.Sprintf("External transfer of %s %s submitted, reference %s.", domain.FormatAmount(cmd.Amount), cmd.Currency, result.Reference),
		Amount:     cmd.Amount,
		Fee:        fee,
		Currency:   cmd.Currency,
		NewBalance: senderWallet.Balance(cmd.Currency),
	}, nil
}

// DepositCmd credits gateway-confirmed external funding.
type DepositCmd struct {
	Username  string
	Amount    decimal.Decimal
	Currency  domain.Currency
	IPAddress string
}

// Deposit credits the user's wallet with confirmed funding and records
// a bank-to-wallet row. Funding arrives already settled, so there is no
// fraud screening and no fee.
func (e *TransferEngine) Deposit(ctx context.Context, cmd DepositCmd) (*Receipt, error) {
	if !cmd.Amount.IsPositive() {
		return nil, domain.ValidationError("Invalid amount", "Deposit amount must be greater than zero.")
	}

	user, err := e.lookupByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, err
	}

	unlock := e.locker.Lock(user.ID)
	defer unlock()

	wallet, err := e.ensureWallet(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	wallet.Balances[cmd.Currency] = wallet.Balance(cmd.Currency).Add(cmd.Amount)
	wallet.UpdatedAt = time.Now()
	if err := e.wallets.Save(ctx, wallet); err != nil {
		observability.IncrementTransfer("deposit", "failed")
		return nil, e.internal("persist deposit", err)
	}

	now := time.Now()
	e.appendHistory(ctx, &models.TransactionRecord{
		ID:          keys.NewTransactionID(),
		WalletID:    wallet.ID,
		UserID:      user.ID,
		SessionID:   keys.NewSessionID(),
		Amount:      cmd.Amount,
		Currency:    cmd.Currency,
		Type:        domain.TxTypeBankToWalletDeposit,
		Description: string(domain.TxTypeBankToWalletDeposit),
		Message:     fmt.Sprintf("Deposit of %s %s confirmed.", domain.FormatAmount(cmd.Amount), cmd.Currency),
		Status:      domain.TxStatusSuccess,
		IPAddress:   cmd.IPAddress,
		CreatedAt:   now,
	})

	e.notify.Enqueue(notification.TopicDepositAlert, notification.DepositAlert{
		RecipientEmail: user.Email,
		RecipientName:  user.FullName(),
		Amount:         cmd.Amount,
		Timestamp:      now,
		NewBalance:     wallet.Balance(cmd.Currency),
	})

	observability.IncrementTransfer("deposit", "success")
	return &Receipt{
		Message:    fmt.Sprintf("Deposit of %s %s credited.", domain.FormatAmount(cmd.Amount), cmd.Currency),
		Amount:     cmd.Amount,
		Currency:   cmd.Currency,
		NewBalance: wallet.Balance(cmd.Currency),
	}, nil
}

// resolveSender runs preconditions shared by both transfer flows:
// the sender must resolve, must be the authenticated caller, and must
// not be locked or blocked.
func (e *TransferEngine) resolveSender(ctx context.Context, caller, from string) (*directory.Profile, error) {
	sender, err := e.lookupByUsername(ctx, from)
	if err != nil {
		return nil, err
	}
	if caller != from {
		return nil, domain.AuthzError("Fraudulent action", "Authenticated user does not match the declared sender.")
	}
	if sender.Locked() || sender.Blocked() {
		return nil, domain.AuthzError("Account restricted", "The sending account is locked or blocked.")
	}
	return sender, nil
}

func (e *TransferEngine) resolveRecipient(ctx context.Context, username string) (*directory.Profile, error) {
	lctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	recipient, err := e.users.PublicByUsername(lctx, username)
	if err != nil {
		if errors.Is(err, directory.ErrProfileNotFound) {
			return nil, domain.NotFoundError("User not found", fmt.Sprintf("No account exists for %q.", username))
		}
		return nil, e.internal("recipient lookup", err)
	}
	return recipient, nil
}

func (e *TransferEngine) lookupByUsername(ctx context.Context, username string) (*directory.Profile, error) {
	lctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()
	p, err := e.users.ByUsername(lctx, username)
	if err != nil {
		if errors.Is(err, directory.ErrProfileNotFound) {
			return nil, domain.NotFoundError("User not found", fmt.Sprintf("No account exists for %q.", username))
		}
		return nil, e.internal("user lookup", err)
	}
	return p, nil
}

// screenSamePlatform applies the same-platform rule subset: high
// volume/frequency and high-risk region.
func (e *TransferEngine) screenSamePlatform(ctx context.Context, sender *directory.Profile, region string) error {
	lctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	blocked, err := e.monitor.IsHighVolumeOrFrequent(lctx, sender.ID)
	if err != nil {
		return e.internal("fraud screening", err)
	}
	if blocked {
		return e.fraudBlocked(fraud.RuleHighVolume, "Transaction limit exceeded")
	}
	if e.monitor.IsHighRiskRegion(region) {
		return e.fraudBlocked(fraud.RuleHighRiskRegion, "Transfers to this region are not allowed")
	}
	return nil
}

// screenCrossPlatform applies the cross-platform rule subset: high
// volume/frequency, unverified/new wallet, deposit-then-transfer, and
// destination blacklist. Region is deliberately not screened here.
func (e *TransferEngine) screenCrossPlatform(ctx context.Context, sender *directory.Profile, toWalletID uuid.UUID) error {
	lctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	blocked, err := e.monitor.IsHighVolumeOrFrequent(lctx, sender.ID)
	if err != nil {
		return e.internal("fraud screening", err)
	}
	if blocked {
		return e.fraudBlocked(fraud.RuleHighVolume, "Transaction limit exceeded")
	}

	blocked, err = e.monitor.IsUnverifiedOrNewWallet(lctx, sender.ID)
	if err != nil {
		return e.internal("fraud screening", err)
	}
	if blocked {
		return e.fraudBlocked(fraud.RuleUnverifiedOrNew, "Account is unverified or too new")
	}

	blocked, err = e.monitor.IsDepositThenTransfer(lctx, sender.ID)
	if err != nil {
		return e.internal("fraud screening", err)
	}
	if blocked {
		return e.fraudBlocked(fraud.RuleDepositThenTransfer, "Recent deposit activity blocks this transfer")
	}

	blocked, err = e.monitor.IsBlacklisted(lctx, toWalletID)
	if err != nil {
		return e.internal("fraud screening", err)
	}
	if blocked {
		return e.fraudBlocked(fraud.RuleBlacklistedWallet, "Destination wallet is not allowed")
	}
	return nil
}

func (e *TransferEngine) fraudBlocked(rule, title string) error {
	observability.IncrementFraudBlock(rule)
	return domain.FraudBlockError(rule, title)
}

// ensureWallet returns the user's wallet, creating one with every
// currency zeroed when none exists yet.
func (e *TransferEngine) ensureWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := e.wallets.ByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repository.ErrWalletNotFound) {
		return nil, e.internal("load wallet", err)
	}

	now := time.Now()
	wallet = &models.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balances:  domain.ZeroBalances(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.wallets.Create(ctx, wallet); err != nil {
		if errors.Is(err, repository.ErrWalletExists) {
			return e.wallets.ByUserID(ctx, userID)
		}
		return nil, e.internal("create wallet", err)
	}
	return wallet, nil
}

func (e *TransferEngine) appendHistory(ctx context.Context, record *models.TransactionRecord) {
	if err := e.history.Append(ctx, record); err != nil {
		zap.L().Error("history append failed",
			zap.String("transaction_id", record.ID.String()),
			zap.String("type", string(record.Type)),
			zap.Error(err),
		)
	}
}

func (e *TransferEngine) bookRevenue(ctx context.Context, currency domain.Currency, amount decimal.Decimal, source string) {
	if !amount.IsPositive() {
		return
	}
	if err := e.revenue.Add(ctx, currency, amount); err != nil {
		zap.L().Error("revenue booking failed",
			zap.String("currency", currency.String()),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return
	}
	observability.IncrementRevenueBooked(currency.String(), source)
}

func (e *TransferEngine) internal(op string, err error) error {
	zap.L().Error(op+" failed", zap.Error(err))
	return domain.InternalError(fmt.Errorf("%s: %w", op, err))
}
