package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWalletLockerSerializesPerKey(t *testing.T) {
	locker := NewWalletLocker()
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(id)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
}

// Opposite acquisition orders on the same pair must not deadlock.
func TestWalletLockerSortsMultiLock(t *testing.T) {
	locker := NewWalletLocker()
	a, b := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(a, b)
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := locker.Lock(b, a)
			unlock()
		}()
	}
	wg.Wait()
}

func TestWalletLockerDeduplicatesIDs(t *testing.T) {
	locker := NewWalletLocker()
	id := uuid.New()

	// Locking the same id twice in one call must not self-deadlock.
	unlock := locker.Lock(id, id)
	unlock()
}
