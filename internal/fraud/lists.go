package fraud

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Blacklist answers wallet-id membership checks. Lookups must be cheap:
// the monitor consults it on every cross-platform transfer.
type Blacklist interface {
	Contains(ctx context.Context, walletID uuid.UUID) (bool, error)
	Add(ctx context.Context, walletID uuid.UUID) error
	Remove(ctx context.Context, walletID uuid.UUID) error
}

const blacklistKey = "fraud:blacklisted-wallets"

// RedisBlacklist keeps the blacklist in a redis set so every API
// replica sees additions immediately.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Contains(ctx context.Context, walletID uuid.UUID) (bool, error) {
	ok, err := b.client.SIsMember(ctx, blacklistKey, walletID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return ok, nil
}

func (b *RedisBlacklist) Add(ctx context.Context, walletID uuid.UUID) error {
	if err := b.client.SAdd(ctx, blacklistKey, walletID.String()).Err(); err != nil {
		return fmt.Errorf("blacklist add: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) Remove(ctx context.Context, walletID uuid.UUID) error {
	if err := b.client.SRem(ctx, blacklistKey, walletID.String()).Err(); err != nil {
		return fmt.Errorf("blacklist remove: %w", err)
	}
	return nil
}

// MemoryBlacklist is the in-process implementation used by tests and by
// deployments without redis.
type MemoryBlacklist struct {
	mu  sync.RWMutex
	ids map[uuid.UUID]struct{}
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{ids: make(map[uuid.UUID]struct{})}
}

func (b *MemoryBlacklist) Contains(_ context.Context, walletID uuid.UUID) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ids[walletID]
	return ok, nil
}

func (b *MemoryBlacklist) Add(_ context.Context, walletID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids[walletID] = struct{}{}
	return nil
}

func (b *MemoryBlacklist) Remove(_ context.Context, walletID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.ids, walletID)
	return nil
}
