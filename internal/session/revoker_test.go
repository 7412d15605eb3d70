package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	revoker := NewMemoryRevoker()
	revoker.now = func() time.Time { return clock }

	require.NoError(t, revoker.Revoke(ctx, "abc", clock.Add(time.Hour)))

	revoked, err := revoker.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = revoker.IsRevoked(ctx, "other")
	assert.False(t, revoked)

	clock = clock.Add(2 * time.Hour)
	revoked, _ = revoker.IsRevoked(ctx, "abc")
	assert.False(t, revoked, "entries end with the token expiry")
}

func TestMemoryRevokerIgnoresExpiredTokens(t *testing.T) {
	ctx := context.Background()
	revoker := NewMemoryRevoker()

	require.NoError(t, revoker.Revoke(ctx, "old", time.Now().Add(-time.Minute)))

	assert.Empty(t, revoker.revoked)
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}
