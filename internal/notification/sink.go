// Package notification carries wallet alerts to the notification
// service. Delivery is fire-and-forget: the transfer outcome never
// depends on this path completing.
package notification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Topics the engine publishes on.
const (
	TopicCreditAlert          = "wallet.credit-alert"
	TopicDebitAlert           = "wallet.debit-alert"
	TopicDepositAlert         = "wallet.deposit-alert"
	TopicMaintenanceDeduction = "wallet.maintenance-deduction"
)

// Sink publishes a payload on a topic, at-least-once from the sink's
// perspective. Callers never wait on acknowledgment.
type Sink interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// CreditAlert notifies the recipient of an incoming transfer.
type CreditAlert struct {
	RecipientEmail      string          `json:"recipient_email"`
	Amount              decimal.Decimal `json:"amount"`
	SenderName          string          `json:"sender_name"`
	ReceiverName        string          `json:"receiver_name"`
	RecipientNewBalance decimal.Decimal `json:"recipient_new_balance"`
}

// DebitAlert notifies the sender of an outgoing transfer.
type DebitAlert struct {
	SenderEmail      string          `json:"sender_email"`
	FeeAmount        decimal.Decimal `json:"fee_amount"`
	Amount           decimal.Decimal `json:"amount"`
	SenderName       string          `json:"sender_name"`
	ReceiverName     string          `json:"receiver_name"`
	SenderNewBalance decimal.Decimal `json:"sender_new_balance"`
}

// DepositAlert notifies a user of confirmed external funding.
type DepositAlert struct {
	RecipientEmail string          `json:"recipient_email"`
	RecipientName  string          `json:"recipient_name"`
	Amount         decimal.Decimal `json:"amount"`
	Timestamp      time.Time       `json:"timestamp"`
	NewBalance     decimal.Decimal `json:"new_balance"`
}

// MaintenanceDeductionAlert notifies a user of a collected debt.
type MaintenanceDeductionAlert struct {
	Email      string          `json:"email"`
	FirstName  string          `json:"first_name"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Message    string          `json:"message"`
}
