package service

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// WalletLocker serializes balance mutation per wallet owner. Every
// writer must hold the owner's lock across its read-check-write
// sequence. Multi-wallet
// operations acquire locks in sorted key order so two transfers
// touching the same pair of wallets can never deadlock.
type WalletLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewWalletLocker() *WalletLocker {
	return &WalletLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the mutex for every distinct id, in sorted order, and
// returns the function that releases them in reverse order.
func (l *WalletLocker) Lock(ids ...uuid.UUID) func() {
	distinct := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	sort.Slice(distinct, func(i, j int) bool {
		return distinct[i].String() < distinct[j].String()
	})

	acquired := make([]*sync.Mutex, 0, len(distinct))
	for _, id := range distinct {
		m := l.mutexFor(id)
		m.Lock()
		acquired = append(acquired, m)
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func (l *WalletLocker) mutexFor(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}
