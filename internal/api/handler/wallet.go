package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/repository"
	"github.com/ayo6706/wallet-ledger/internal/service"
)

type WalletHandler struct {
	wallets repository.WalletStore
	history repository.HistoryStore
	users   directory.Directory
}

func NewWalletHandler(wallets repository.WalletStore, history repository.HistoryStore, users directory.Directory) *WalletHandler {
	return &WalletHandler{wallets: wallets, history: history, users: users}
}

// CreateWallet opens a wallet for the authenticated user with every
// supported currency zeroed and the transfer pin stored as a hash.
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUsername(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Pin string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if !validPin(req.Pin) {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-pin", "Transfer pin must be exactly 4 digits")
		return
	}

	profile, err := h.users.ByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, directory.ErrProfileNotFound) {
			RespondError(w, r, http.StatusNotFound, "resource/not-found", "No account exists for the authenticated user")
			return
		}
		zap.L().Error("wallet create profile lookup failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "An unexpected error occurred")
		return
	}

	pinHash, err := service.HashPin(req.Pin)
	if err != nil {
		zap.L().Error("pin hash failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "An unexpected error occurred")
		return
	}

	now := time.Now()
	wallet := &models.Wallet{
		ID:        uuid.New(),
		UserID:    profile.ID,
		Balances:  domain.ZeroBalances(),
		PinHash:   pinHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.wallets.Create(r.Context(), wallet); err != nil {
		if errors.Is(err, repository.ErrWalletExists) {
			RespondError(w, r, http.StatusConflict, "wallet/already-exists", "A wallet already exists for this user")
			return
		}
		zap.L().Error("wallet create failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "An unexpected error occurred")
		return
	}

	RespondJSON(w, http.StatusCreated, wallet)
}

// GetBalance returns the caller's wallet. An optional currency query
// narrows the response to one balance.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUsername(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	wallet, ok := h.callerWallet(w, r, username)
	if !ok {
		return
	}

	if raw := r.URL.Query().Get("currency"); raw != "" {
		currency, err := domain.ParseCurrency(raw)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-currency", "Unsupported currency")
			return
		}
		RespondJSON(w, http.StatusOK, map[string]any{
			"currency": currency,
			"balance":  wallet.Balance(currency),
		})
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

// GetStatement returns the caller's transaction history, newest last,
// optionally bounded by a ?days= lookback.
func (h *WalletHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	username, ok := requestUsername(r)
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	wallet, ok := h.callerWallet(w, r, username)
	if !ok {
		return
	}

	since := time.Time{}
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := time.ParseDuration(raw + "h")
		if err != nil || days <= 0 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-range", "Invalid days parameter")
			return
		}
		since = time.Now().Add(-days * 24)
	}

	records, err := h.history.ByWalletSince(r.Context(), wallet.ID, since)
	if err != nil {
		zap.L().Error("statement read failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "An unexpected error occurred")
		return
	}
	RespondJSON(w, http.StatusOK, records)
}

func (h *WalletHandler) callerWallet(w http.ResponseWriter, r *http.Request, username string) (*models.Wallet, bool) {
	profile, err := h.users.ByUsername(r.Context(), username)
	if err != nil {
		RespondError(w, r, http.StatusNotFound, "resource/not-found", "No account exists for the authenticated user")
		return nil, false
	}
	wallet, err := h.wallets.ByUserID(r.Context(), profile.ID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			RespondError(w, r, http.StatusNotFound, "wallet/not-found", "No wallet exists for this user")
			return nil, false
		}
		zap.L().Error("wallet read failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "An unexpected error occurred")
		return nil, false
	}
	return wallet, true
}
