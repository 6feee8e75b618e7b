package service

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/ayo6706/wallet-ledger/internal/domain"
)

// HashPin derives the irreversible hash stored on a wallet. The pin's
// 4-digit format is validated at the API boundary before it gets here.
func HashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPin runs the constant-time comparison against the stored hash.
func verifyPin(hash, pin string) error {
	if hash == "" {
		return domain.AuthzError("Invalid transfer pin", "No transfer pin is set on this wallet.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return domain.AuthzError("Invalid transfer pin", "The supplied pin does not match.")
	}
	return nil
}
