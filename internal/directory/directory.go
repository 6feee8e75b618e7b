// Package directory resolves user identity and profile state. The user
// service is an external collaborator; the ledger only consumes it.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrProfileNotFound = errors.New("profile not found")

// StatusReason tags an account-status update pushed back to the user
// service when monitoring flags activity.
type StatusReason string

const ReasonSuspiciousActivity StatusReason = "SUSPICIOUS_ACTIVITY"

// ProfileRecord is one identity record attached to a profile.
type ProfileRecord struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Locked    bool      `json:"locked"`
	Blocked   bool      `json:"blocked"`
	CreatedOn time.Time `json:"created_on"`
}

// Profile is the user-service view of an account.
type Profile struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	Enabled   bool            `json:"enabled"`
	CreatedOn time.Time       `json:"created_on"`
	Records   []ProfileRecord `json:"records"`
}

// FullName joins the first identity record's names, empty when none.
func (p *Profile) FullName() string {
	if p == nil || len(p.Records) == 0 {
		return ""
	}
	return p.Records[0].FirstName + " " + p.Records[0].LastName
}

// Locked reports whether the primary record is locked.
func (p *Profile) Locked() bool {
	return p != nil && len(p.Records) > 0 && p.Records[0].Locked
}

// Blocked reports whether the primary record is blocked.
func (p *Profile) Blocked() bool {
	return p != nil && len(p.Records) > 0 && p.Records[0].Blocked
}

// Directory is the identity lookup contract. All calls are expected to
// run under the caller's deadline; a timeout fails the operation closed.
type Directory interface {
	ByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	ByUsername(ctx context.Context, username string) (*Profile, error)
	PublicByUsername(ctx context.Context, username string) (*Profile, error)
	UpdateAccountStatus(ctx context.Context, id uuid.UUID, reason StatusReason) error
}
