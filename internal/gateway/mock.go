package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mock accepts every payout and remembers what it was asked to send.
// Used by tests and local runs without a processor connection.
type Mock struct {
	mu            sync.Mutex
	requests      []PayoutRequest
	declineReason string
	failErr       error
}

func NewMock() *Mock {
	return &Mock{}
}

// Decline makes subsequent payouts come back non-accepted.
func (m *Mock) Decline(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.declineReason = reason
}

// Fail makes subsequent payouts return err.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

func (m *Mock) Payout(_ context.Context, req PayoutRequest) (*PayoutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	if m.declineReason != "" {
		return &PayoutResult{Reference: uuid.NewString(), Accepted: false, Reason: m.declineReason}, nil
	}
	m.requests = append(m.requests, req)
	zap.L().Debug("mock gateway payout accepted",
		zap.String("session_id", req.SessionID),
		zap.String("currency", req.Currency.String()),
	)
	return &PayoutResult{Reference: uuid.NewString(), Accepted: true}, nil
}

// Requests returns the accepted payouts so far.
func (m *Mock) Requests() []PayoutRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PayoutRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
