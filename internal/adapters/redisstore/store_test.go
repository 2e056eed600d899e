package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestStore_RoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, err := s.LoadCredential(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	want := domain.Credential{AccessToken: "tok", TokenType: "Bearer", Expiry: expiry}
	require.NoError(t, s.SaveCredential(ctx, want))

	got, err := s.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.True(t, got.Expiry.Equal(expiry))

	ttl := mr.TTL(credentialKey)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	require.NoError(t, s.ClearCredential(ctx))
	_, err = s.LoadCredential(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ExpiresWithCredential(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCredential(ctx, domain.Credential{AccessToken: "tok", Expiry: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, err := s.LoadCredential(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SavingExpiredCredentialClears(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCredential(ctx, domain.Credential{AccessToken: "old", Expiry: time.Now().Add(time.Hour)}))
	require.NoError(t, s.SaveCredential(ctx, domain.Credential{AccessToken: "new", Expiry: time.Now().Add(-time.Minute)}))

	_, err := s.LoadCredential(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOpen_BadURL(t *testing.T) {
	_, err := Open(context.Background(), "not a url")
	assert.Error(t, err)
}
