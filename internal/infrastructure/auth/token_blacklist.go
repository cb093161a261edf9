package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes JWTs before they expire. Logout revokes a single
// token by its JTI; a password change revokes every token a buyer holds.
type TokenBlacklist interface {
	// Revoke marks one token as unusable for the rest of its lifetime
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether the token was revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeAllForUser invalidates every token issued to the user up to now
	RevokeAllForUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsUserRevoked reports whether a token issued at issuedAt falls under a
	// RevokeAllForUser cut-off
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist keeps revocations in Redis so every API instance sees a
// logout immediately. Entries expire with the tokens they revoke, so the set
// never needs sweeping.
type RedisTokenBlacklist struct {
	client *redis.Client
}

// RedisTokenBlacklistConfig holds the Redis connection settings
type RedisTokenBlacklistConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTokenBlacklist connects to Redis and verifies the connection, so a
// bad Redis config fails at startup instead of at the first logout.
func NewRedisTokenBlacklist(cfg RedisTokenBlacklistConfig) (*RedisTokenBlacklist, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisTokenBlacklist{client: client}, nil
}

func jtiKey(jti string) string {
	return "shop:auth:revoked:jti:" + jti
}

func userCutoffKey(userID string) string {
	return "shop:auth:revoked:user:" + userID
}

// Revoke marks one token as unusable for the rest of its lifetime
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token was revoked
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeAllForUser stores the revocation cut-off; tokens issued before it are
// rejected until the longest-lived of them would have expired anyway.
func (b *RedisTokenBlacklist) RevokeAllForUser(ctx context.Context, userID string, ttl time.Duration) error {
	cutoff := time.Now().Unix()
	if err := b.client.Set(ctx, userCutoffKey(userID), cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevoked reports whether a token issued at issuedAt predates the
// user's revocation cut-off
func (b *RedisTokenBlacklist) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	val, err := b.client.Get(ctx, userCutoffKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user revocation: %w", err)
	}

	cutoff, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation cut-off: %w", err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

// Close closes the Redis client
func (b *RedisTokenBlacklist) Close() error {
	return b.client.Close()
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is the single-instance fallback used in tests and
// when Redis is down. Revocations are lost on restart, which is acceptable
// because the tokens they cover are short-lived.
type InMemoryTokenBlacklist struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> entry expiry
	cutoffs map[string]time.Time // userID -> revocation cut-off
}

// NewInMemoryTokenBlacklist creates an empty in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		revoked: make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
	}
}

// Revoke marks one token as unusable until its ttl elapses
func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports whether the token was revoked, dropping expired entries
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}

// RevokeAllForUser records now as the user's revocation cut-off
func (b *InMemoryTokenBlacklist) RevokeAllForUser(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cutoffs[userID] = time.Now()
	return nil
}

// IsUserRevoked reports whether a token issued at issuedAt predates the
// user's revocation cut-off
func (b *InMemoryTokenBlacklist) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cutoff, ok := b.cutoffs[userID]
	if !ok {
		return false, nil
	}
	// Nanosecond precision: tokens minted in the same test run as the
	// revocation must still be distinguishable
	return issuedAt.UnixNano() <= cutoff.UnixNano(), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
