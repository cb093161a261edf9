package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_JTI(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	t.Run("unknown jti is not revoked", func(t *testing.T) {
		revoked, err := bl.IsRevoked(ctx, "unknown-jti")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked jti stays revoked until its ttl expires", func(t *testing.T) {
		require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))

		revoked, err := bl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("expired entry is purged", func(t *testing.T) {
		require.NoError(t, bl.Revoke(ctx, "jti-2", -time.Second))

		revoked, err := bl.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestInMemoryTokenBlacklist_UserCutoff(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	issuedBefore := time.Now()
	require.NoError(t, bl.RevokeAllForUser(ctx, "user-1", time.Hour))

	t.Run("tokens issued before the cut-off are rejected", func(t *testing.T) {
		revoked, err := bl.IsUserRevoked(ctx, "user-1", issuedBefore)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("tokens issued after the cut-off pass", func(t *testing.T) {
		revoked, err := bl.IsUserRevoked(ctx, "user-1", time.Now().Add(time.Second))
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("other buyers are unaffected", func(t *testing.T) {
		revoked, err := bl.IsUserRevoked(ctx, "user-2", issuedBefore)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
