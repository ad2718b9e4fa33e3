// Package session is the session authority: the single source of truth for
// which token is current for each user. One record per user; a login
// overwrites the previous record, which is how single-session enforcement
// works.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"mservice.org/internal/auth"
)

// Store keeps the canonical token per user in redis. Records carry a TTL
// equal to the credential lifetime so an abandoned session ages out on its
// own.
type Store struct {
	client *redis.Client
}

// Options configures the redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Open connects to redis and verifies the connection with a ping.
func Open(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStore wraps an existing client. Used by tests with miniredis.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.client.Close() }

// Put makes token the sole current token for the user, replacing any
// previous record unconditionally.
func (s *Store) Put(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("session: put %d: %w", userID, err)
	}
	return nil
}

// Current returns the canonical token for the user, or auth.ErrNoSession
// when no record exists.
func (s *Store) Current(ctx context.Context, userID int64) (string, error) {
	token, err := s.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", auth.ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("session: get %d: %w", userID, err)
	}
	return token, nil
}

// Delete removes the user's session record. Deleting an absent record is
// not an error.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("session: delete %d: %w", userID, err)
	}
	return nil
}

// IsCurrent reports whether token is the user's canonical token.
func (s *Store) IsCurrent(ctx context.Context, userID int64, token string) (bool, error) {
	current, err := s.Current(ctx, userID)
	if errors.Is(err, auth.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current == token, nil
}

// key layout kept from the original deployment so existing records survive
// an upgrade.
func key(userID int64) string {
	return fmt.Sprintf("lt_%d", userID)
}
