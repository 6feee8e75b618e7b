package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/fraud"
	"github.com/ayo6706/wallet-ledger/internal/repository"
)

// AdminHandler manages the fraud blacklist and exposes the revenue
// ledger. All routes require the admin role.
type AdminHandler struct {
	blacklist fraud.Blacklist
	revenue   repository.RevenueStore
}

func NewAdminHandler(blacklist fraud.Blacklist, revenue repository.RevenueStore) *AdminHandler {
	return &AdminHandler{blacklist: blacklist, revenue: revenue}
}

func (h *AdminHandler) BlacklistWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "Invalid wallet id")
		return
	}
	if err := h.blacklist.Add(r.Context(), walletID); err != nil {
		zap.L().Error("blacklist add failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "An unexpected error occurred")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) UnblacklistWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-wallet-id", "Invalid wallet id")
		return
	}
	if err := h.blacklist.Remove(r.Context(), walletID); err != nil {
		zap.L().Error("blacklist remove failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "An unexpected error occurred")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.revenue.Get(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrRevenueNotFound) {
			RespondJSON(w, http.StatusOK, map[string]any{"balances": map[string]string{}})
			return
		}
		zap.L().Error("revenue read failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "An unexpected error occurred")
		return
	}
	RespondJSON(w, http.StatusOK, revenue)
}
