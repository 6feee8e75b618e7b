// Package gateway hands cross-platform payouts to an external payment
// processor. The ledger only needs an accepted/declined answer before
// it records the withdrawal.
package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/wallet-ledger/internal/domain"
)

// PayoutRequest describes principal leaving the platform.
type PayoutRequest struct {
	SessionID         string
	SenderUserID      uuid.UUID
	DestinationWallet uuid.UUID
	Amount            decimal.Decimal
	Currency          domain.Currency
	DestinationRegion string
}

// PayoutResult is the processor's acknowledgment.
type PayoutResult struct {
	Reference string
	Accepted  bool
	Reason    string
}

// Gateway submits a payout synchronously. A returned error or a
// non-accepted result aborts the transfer before any balance mutation.
type Gateway interface {
	Payout(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
}
