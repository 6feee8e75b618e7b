package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/wallet-ledger/internal/api/problem"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/service"
)

type TransferHandler struct {
	engine *service.TransferEngine
}

func NewTransferHandler(engine *service.TransferEngine) *TransferHandler {
	return &TransferHandler{engine: engine}
}

type transferRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Pin      string `json:"pin"`
	Region   string `json:"region"`
}

// Transfer handles same-platform wallet-to-wallet movement.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requestUsername(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	amount, currency, ok := parseMoney(w, r, req.Amount, req.Currency)
	if !ok {
		return
	}
	if !validPin(req.Pin) {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pin", "Transfer pin must be exactly 4 digits")
		return
	}

	receipt, err := h.engine.Transfer(r.Context(), service.TransferCmd{
		CallerUsername: caller,
		FromUsername:   req.From,
		ToUsername:     req.To,
		Amount:         amount,
		Currency:       currency,
		Pin:            req.Pin,
		Region:         req.Region,
		IPAddress:      clientIP(r),
	})
	if err != nil {
		problem.FromDomain(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, receipt)
}

type externalTransferRequest struct {
	From       string `json:"from"`
	ToWalletID string `json:"to_wallet_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Pin        string `json:"pin"`
	Region     string `json:"region"`
}

// TransferExternal handles cross-platform payouts.
func (h *TransferHandler) TransferExternal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requestUsername(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req externalTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	toWallet, err := uuid.Parse(req.ToWalletID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "Invalid to_wallet_id")
		return
	}
	amount, currency, ok := parseMoney(w, r, req.Amount, req.Currency)
	if !ok {
		return
	}
	if !validPin(req.Pin) {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pin", "Transfer pin must be exactly 4 digits")
		return
	}

	receipt, err := h.engine.TransferExternal(r.Context(), service.ExternalTransferCmd{
		CallerUsername: caller,
		FromUsername:   req.From,
		ToWalletID:     toWallet,
		Amount:         amount,
		Currency:       currency,
		Pin:            req.Pin,
		Region:         req.Region,
		IPAddress:      clientIP(r),
	})
	if err != nil {
		problem.FromDomain(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, receipt)
}

type depositRequest struct {
	Username string `json:"username"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Deposit credits gateway-confirmed funding. The route is restricted to
// the funding processor's service account.
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	amount, currency, ok := parseMoney(w, r, req.Amount, req.Currency)
	if !ok {
		return
	}

	receipt, err := h.engine.Deposit(r.Context(), service.DepositCmd{
		Username:  req.Username,
		Amount:    amount,
		Currency:  currency,
		IPAddress: clientIP(r),
	})
	if err != nil {
		problem.FromDomain(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, receipt)
}

type tradeCreditRequest struct {
	Creditor  string `json:"creditor"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	ProfitFee string `json:"profit_fee"`
	Currency  string `json:"currency"`
}

// CreditFromTrade settles an internal trade. Admin only.
func (h *TransferHandler) CreditFromTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	amount, currency, ok := parseMoney(w, r, req.Amount, req.Currency)
	if !ok {
		return
	}
	profitFee, err := decimal.NewFromString(req.ProfitFee)
	if err != nil || profitFee.IsNegative() {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-fee", "Invalid profit_fee")
		return
	}

	receipt, err := h.engine.CreditFromTrade(r.Context(), service.TradeCreditCmd{
		CreditorUsername:  req.Creditor,
		RecipientUsername: req.Recipient,
		Amount:            amount,
		ProfitFee:         profitFee,
		Currency:          currency,
		IPAddress:         clientIP(r),
	})
	if err != nil {
		problem.FromDomain(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, receipt)
}

func parseMoney(w http.ResponseWriter, r *http.Request, rawAmount, rawCurrency string) (decimal.Decimal, domain.Currency, bool) {
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", "Invalid amount")
		return decimal.Zero, "", false
	}
	currency, err := domain.ParseCurrency(rawCurrency)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-currency", "Unsupported currency")
		return decimal.Zero, "", false
	}
	return amount, currency, true
}
