// Package keys generates the identifiers the ledger hands out:
// time-sortable transaction ids and opaque session ids.
package keys

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// NewTransactionID returns a time-sortable unique id. UUIDv7 embeds a
// millisecond timestamp plus random bits, so concurrent generators
// never collide and history rows sort by creation time.
func NewTransactionID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does; fall back to v4
		// rather than aborting a transfer over id generation.
		return uuid.New()
	}
	return id
}

// NewSessionID returns a 16-digit numeric session reference. Each leg of
// a transfer gets its own session id.
func NewSessionID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%016d", uuid.New().ID())
	}
	var n uint64
	for _, b := range buf {
		n = n<<8 | uint64(b)
	}
	return fmt.Sprintf("%016d", n%1e16)
}
