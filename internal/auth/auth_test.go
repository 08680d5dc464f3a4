package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftpolicy/internal/model"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	user := &model.User{ID: "u-1", Email: "admin@swiftpolicy.test", Role: model.RoleAdmin}

	tokenID, token, err := svc.GenerateToken(user, model.SessionSlotAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, tokenID, claims.ID)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, model.Actor{ID: "u-1", Email: "admin@swiftpolicy.test", Role: model.RoleAdmin}, claims.Actor())
	assert.InDelta(t, time.Hour.Seconds(), claims.Remaining(time.Now()).Seconds(), 5)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	user := &model.User{ID: "u-2", Role: model.RoleCustomer}

	_, token, err := svc.GenerateToken(user, model.SessionSlotCustomer)
	require.NoError(t, err)

	_, err = NewJWTService("other", time.Hour).ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.Error(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin())
}

func TestHasher(t *testing.T) {
	h := NewHasher(1)
	assert.Equal(t, 4, h.Cost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "wrong horse"))
}

func TestTokenStore_WithoutRedisFailsOpen(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti", time.Minute))
	revoked, err := store.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}
