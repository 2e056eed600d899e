// Package redisstore keeps the provider credential in Redis so several API
// instances can share one sign-in.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

const credentialKey = "retrotape:credential"

// Store implements ports.CredentialStore. Entries expire with the
// credential itself.
type Store struct {
	rdb *redis.Client
	now func() time.Time
}

var _ ports.CredentialStore = (*Store)(nil)

// New wraps an existing client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

// Open parses a redis:// URL and verifies the connection.
func Open(ctx context.Context, redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return New(rdb), nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// LoadCredential returns domain.ErrNotFound when no credential is stored.
func (s *Store) LoadCredential(ctx context.Context) (domain.Credential, error) {
	raw, err := s.rdb.Get(ctx, credentialKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Credential{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("redisstore: get credential: %w", err)
	}

	var cred domain.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return domain.Credential{}, fmt.Errorf("redisstore: decode credential: %w", err)
	}
	return cred, nil
}

// SaveCredential stores cred with a TTL matching its expiry.
func (s *Store) SaveCredential(ctx context.Context, cred domain.Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("redisstore: encode credential: %w", err)
	}

	var ttl time.Duration
	if !cred.Expiry.IsZero() {
		ttl = cred.Expiry.Sub(s.now())
		if ttl <= 0 {
			return s.ClearCredential(ctx)
		}
	}

	if err := s.rdb.Set(ctx, credentialKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set credential: %w", err)
	}
	return nil
}

// ClearCredential deletes the stored credential.
func (s *Store) ClearCredential(ctx context.Context) error {
	if err := s.rdb.Del(ctx, credentialKey).Err(); err != nil {
		return fmt.Errorf("redisstore: delete credential: %w", err)
	}
	return nil
}
