package problem

import (
	"net/http"

	"github.com/ayo6706/wallet-ledger/internal/domain"
)

// FromDomain maps a ledger error onto the matching HTTP status and
// problem type. Internal errors keep their opaque title and detail; the
// cause is logged at the point of failure, never echoed here.
func FromDomain(w http.ResponseWriter, r *http.Request, err error) {
	de := domain.AsError(err)
	status, slug := classify(de.Kind)
	Write(w, r, status, Type(slug), de.Title, de.Detail)
}

func classify(k domain.Kind) (int, string) {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest, "request/invalid"
	case domain.KindAuthz:
		return http.StatusForbidden, "auth/forbidden"
	case domain.KindNotFound:
		return http.StatusNotFound, "resource/not-found"
	case domain.KindInsufficientBalance:
		return http.StatusUnprocessableEntity, "wallet/insufficient-balance"
	case domain.KindFraudBlock:
		return http.StatusForbidden, "fraud/blocked"
	default:
		return http.StatusInternalServerError, "internal-server-error"
	}
}
